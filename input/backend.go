package input

import (
	"github.com/pkg/errors"
)

// ErrBackendNotFound is returned by InitBackend for an unknown name.
var ErrBackendNotFound = errors.New("backend not found")

type Backend interface {
	// Init should do nothing if called more than once.
	Init() error
	Close() error

	Devices() ([]Device, error)
	DefaultDevice() (Device, error)
	Start(SessionConfig) (Session, error)
}

// DeviceParser is implemented by backends whose devices are free-form, such
// as network addresses, and cannot all be listed.
type DeviceParser interface {
	ParseDevice(string) (Device, error)
}

type NamedBackend struct {
	Name string
	Backend
}

var Backends []NamedBackend

// RegisterBackend registers a backend globally. This function is not
// thread-safe, and most packages should call it on init().
func RegisterBackend(name string, b Backend) {
	Backends = append(Backends, NamedBackend{
		Name:    name,
		Backend: b,
	})
}

// Get all installed backend names.
func GetAllBackendNames() []string {
	out := make([]string, len(Backends))
	for i, backend := range Backends {
		out[i] = backend.Name
	}
	return out
}

// DefaultBackend returns the backend used when none is configured.
func DefaultBackend() string {
	for _, name := range []string{"udp", "stdin", "synth"} {
		if HasBackend(name) {
			return name
		}
	}

	return ""
}

// FindBackend is a helper function that finds a backend. It returns nil if the
// backend is not found.
func FindBackend(name string) Backend {
	for _, backend := range Backends {
		if backend.Name == name {
			return backend.Backend
		}
	}
	return nil
}

func HasBackend(name string) bool {
	return FindBackend(name) != nil
}

func InitBackend(bknd string) (Backend, error) {
	backend := FindBackend(bknd)
	if backend == nil {
		return nil, errors.Wrapf(ErrBackendNotFound, "%q; check list-backends", bknd)
	}

	if err := backend.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize input backend")
	}

	return backend, nil
}

func GetDevice(backend Backend, device string) (Device, error) {
	if device == "" {
		def, err := backend.DefaultDevice()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get default device")
		}
		return def, nil
	}

	devices, err := backend.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get devices")
	}

	for idx := range devices {
		if devices[idx].String() == device {
			return devices[idx], nil
		}
	}

	if named, ok := backend.(NamedBackend); ok {
		backend = named.Backend
	}

	if parser, ok := backend.(DeviceParser); ok {
		return parser.ParseDevice(device)
	}

	return nil, errors.Errorf("device %q not found; check list-devices", device)
}
