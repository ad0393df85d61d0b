// Package exec runs a relay command, such as a BLE notification dumper, and
// reads payloads from its standard output.
//
// The device is the command line. A "hex:" prefix means the relay prints one
// hex encoded payload per line; otherwise it writes raw payloads.
package exec

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/siradar/zenith/input"
	"github.com/siradar/zenith/input/common/execread"
)

const hexPrefix = "hex:"

func init() {
	input.RegisterBackend("exec", Backend{})
}

type Backend struct{}

func (p Backend) Init() error {
	return nil
}

func (p Backend) Close() error {
	return nil
}

// Devices returns nothing; any command line is a device.
func (p Backend) Devices() ([]input.Device, error) {
	return nil, nil
}

func (p Backend) DefaultDevice() (input.Device, error) {
	return nil, errors.New("exec needs a command line as the device")
}

func (p Backend) ParseDevice(device string) (input.Device, error) {
	d := Device{}

	if rest, ok := strings.CutPrefix(device, hexPrefix); ok {
		d.Hex = true
		device = rest
	}

	d.Argv = strings.Fields(device)
	if len(d.Argv) == 0 {
		return nil, errors.Errorf("empty command line %q", device)
	}

	return d, nil
}

func (p Backend) Start(cfg input.SessionConfig) (input.Session, error) {
	dev, ok := cfg.Device.(Device)
	if !ok {
		return nil, errors.Errorf("invalid device type %T", cfg.Device)
	}

	return execread.NewSession(dev.Argv, dev.Hex, cfg)
}

// Device is a relay command line.
type Device struct {
	Argv []string
	Hex  bool
}

func (d Device) String() string {
	s := strings.Join(d.Argv, " ")
	if d.Hex {
		return hexPrefix + s
	}
	return s
}
