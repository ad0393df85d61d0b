// Package udp receives one notification per datagram from a BLE to UDP relay.
package udp

import (
	"context"
	"net"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/siradar/zenith/input"
)

// DefaultAddr is the listen address used when no device is given.
const DefaultAddr = ":4950"

// maxDatagram bounds a single read; notifications are far smaller.
const maxDatagram = 2048

func init() {
	input.RegisterBackend("udp", Backend{})
}

type Backend struct{}

func (b Backend) Init() error {
	return nil
}

func (b Backend) Close() error {
	return nil
}

func (b Backend) Devices() ([]input.Device, error) {
	return []input.Device{Addr(DefaultAddr)}, nil
}

func (b Backend) DefaultDevice() (input.Device, error) {
	return Addr(DefaultAddr), nil
}

// ParseDevice accepts any host:port listen address.
func (b Backend) ParseDevice(device string) (input.Device, error) {
	if _, _, err := net.SplitHostPort(device); err != nil {
		return nil, errors.Wrapf(err, "udp device %q", device)
	}
	return Addr(device), nil
}

func (b Backend) Start(cfg input.SessionConfig) (input.Session, error) {
	addr := DefaultAddr
	if cfg.Device != nil {
		addr = cfg.Device.String()
	}

	conn, err := listen(addr)
	if err != nil {
		return nil, err
	}

	return NewSession(conn), nil
}

// Addr is a UDP listen address.
type Addr string

func (a Addr) String() string {
	return string(a)
}

type Session struct {
	conn net.PacketConn
}

// NewSession returns a session reading from conn. The session owns conn and
// closes it when Start returns.
func NewSession(conn net.PacketConn) *Session {
	return &Session{conn: conn}
}

// LocalAddr returns the bound address.
func (s *Session) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

func (s *Session) Start(ctx context.Context, dst chan<- []byte) error {
	defer s.conn.Close()

	// Unblock the read below on cancellation.
	stop := context.AfterFunc(ctx, func() {
		s.conn.Close()
	})
	defer stop()

	glog.Infof("udp: listening on %s", s.conn.LocalAddr())

	var pkt [maxDatagram]byte
	for {
		n, from, err := s.conn.ReadFrom(pkt[:])
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "udp read")
		}

		glog.V(3).Infof("udp: %d bytes from %s", n, from)

		payload := make([]byte, n)
		copy(payload, pkt[:n])

		if err := input.Deliver(ctx, dst, payload); err != nil {
			return err
		}
	}
}
