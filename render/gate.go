package render

import (
	"time"
)

// DefaultPeriod is the minimum interval between two emissions.
const DefaultPeriod = 50 * time.Millisecond

// Clock returns the current time.
type Clock func() time.Time

// Gate is a minimum interval throttle. It is owned by a single goroutine.
type Gate struct {
	period time.Duration
	next   time.Time
	now    Clock
}

// NewGate returns a gate that opens at the current time and then at most once
// per period. A nil clock uses time.Now.
func NewGate(period time.Duration, now Clock) *Gate {
	if now == nil {
		now = time.Now
	}

	if period < 0 {
		period = 0
	}

	return &Gate{
		period: period,
		next:   now(),
		now:    now,
	}
}

// Allow reports whether an emission may happen now. When it returns true the
// gate is pushed forward by one period from the current time.
func (g *Gate) Allow() bool {
	now := g.now()
	if now.Before(g.next) {
		return false
	}

	g.next = now.Add(g.period)

	return true
}

// Next returns the earliest time the gate opens again.
func (g *Gate) Next() time.Time {
	return g.next
}

// Period returns the gate period.
func (g *Gate) Period() time.Duration {
	return g.period
}
