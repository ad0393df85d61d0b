//go:build !unix

package udp

import (
	"net"

	"github.com/pkg/errors"
)

func listen(addr string) (net.PacketConn, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "udp listen %s", addr)
	}
	return conn, nil
}
