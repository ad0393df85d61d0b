// Package stdin reads notification payloads from standard input.
//
// The "raw" device splits the stream into fixed-size payloads, as written by a
// BLE relay or saved by a capture. The "hex" device reads one hex encoded
// payload per line, the format most BLE command line tools print
// notifications in.
package stdin

import (
	"bufio"
	"context"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/siradar/zenith/input"
	"github.com/siradar/zenith/input/common/pacer"
)

func init() {
	input.RegisterBackend("stdin", Backend{})
}

// Device names.
const (
	Raw = Device("raw")
	Hex = Device("hex")
)

type Backend struct{}

func (b Backend) Init() error {
	return nil
}

func (b Backend) Close() error {
	return nil
}

func (b Backend) Devices() ([]input.Device, error) {
	return []input.Device{Raw, Hex}, nil
}

func (b Backend) DefaultDevice() (input.Device, error) {
	return Raw, nil
}

func (b Backend) Start(cfg input.SessionConfig) (input.Session, error) {
	return NewSession(cfg, os.Stdin)
}

type Device string

func (d Device) String() string {
	return string(d)
}

type Session struct {
	cfg  input.SessionConfig
	r    io.Reader
	size int
	hex  bool
}

// NewSession returns a session reading from r.
func NewSession(cfg input.SessionConfig, r io.Reader) (*Session, error) {
	s := &Session{
		cfg:  cfg,
		r:    r,
		size: cfg.FrameSize(),
	}

	switch dev := cfg.Device; {
	case dev == nil, dev.String() == string(Raw):
	case dev.String() == string(Hex):
		s.hex = true
	default:
		return nil, errors.Errorf("unknown stdin device %q", dev)
	}

	if s.size <= 0 {
		return nil, errors.Errorf("invalid frame size %d", s.size)
	}

	return s, nil
}

// Start reads until EOF. When the session rate is set, payloads are paced
// at that rate, which replays a capture at its recorded speed.
func (s *Session) Start(ctx context.Context, dst chan<- []byte) error {
	var next func() ([]byte, error)
	if s.hex {
		next = s.hexReader()
	} else {
		next = s.rawReader()
	}

	return pacer.Run(ctx, s.cfg.Rate, dst, next)
}

func (s *Session) rawReader() func() ([]byte, error) {
	r := bufio.NewReader(s.r)

	return func() ([]byte, error) {
		payload := make([]byte, s.size)

		n, err := io.ReadFull(r, payload)
		switch {
		case err == nil:
			return payload, nil

		case errors.Is(err, io.ErrUnexpectedEOF):
			glog.V(1).Infof("stdin: discarding %d trailing bytes", n)
			return nil, io.EOF

		default:
			return nil, err
		}
	}
}

func (s *Session) hexReader() func() ([]byte, error) {
	scanner := bufio.NewScanner(s.r)

	return func() ([]byte, error) {
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			// Accept "0a 1b ..." and "0a:1b:..." as well as plain runs.
			line = strings.NewReplacer(" ", "", ":", "", "-", "").Replace(line)

			payload, err := hex.DecodeString(line)
			if err != nil {
				// Sent on as an empty payload so the decoder counts it as
				// malformed; the stream keeps going.
				glog.V(1).Infof("stdin: bad hex line: %v", err)
				return []byte{}, nil
			}

			return payload, nil
		}

		if err := scanner.Err(); err != nil {
			return nil, err
		}

		return nil, io.EOF
	}
}
