// Package pacer replays or generates notifications on a steady tick, the way
// the front end emits one notification per ramp.
package pacer

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/siradar/zenith/input"
)

// Interval returns the tick period for rate notifications per second. A
// non-positive rate returns zero.
func Interval(rate float64) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / rate)
}

// Run calls next once per tick and delivers each payload on dst. It returns
// nil when next returns io.EOF and ctx.Err() when ctx is done. With a
// non-positive rate payloads are delivered as fast as dst accepts them.
func Run(ctx context.Context, rate float64, dst chan<- []byte, next func() ([]byte, error)) error {
	interval := Interval(rate)

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		payload, err := next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if err := input.Deliver(ctx, dst, payload); err != nil {
			return err
		}

		if tick == nil {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
		}
	}
}
