// Package input delivers raw notification payloads from a source to the
// pipeline.
//
// A session sends every payload exactly once, in the order it arrived, and
// stops when its context is done. Payloads are never reused by the session
// after they are sent.
package input

import (
	"context"

	"github.com/siradar/zenith/frame"
)

// Device is a source a backend can open.
type Device interface {
	String() string
}

// SessionConfig is the configuration for an input session.
type SessionConfig struct {
	Device Device

	// Frame is the wire layout. Sources that split a byte stream use
	// Frame.FrameLen(); generators use it to encode payloads.
	Frame frame.Config

	// Rate paces generated or replayed payloads, in notifications per
	// second. Zero means as fast as they arrive.
	Rate float64
}

// FrameSize returns the payload length for the session.
func (cfg SessionConfig) FrameSize() int {
	return cfg.Frame.FrameLen()
}

// Session is an input source that has a callback to deliver payloads.
type Session interface {
	// Start blocks until ctx is done or the source ends. It returns nil when
	// the source ends on its own.
	Start(ctx context.Context, dst chan<- []byte) error
}

// Deliver sends payload on dst, or gives up when ctx is done.
func Deliver(ctx context.Context, dst chan<- []byte, payload []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case dst <- payload:
		return nil
	}
}
