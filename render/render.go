// Package render forwards pipeline results to presentation outputs at a
// bounded rate.
package render

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/siradar/zenith/spectrogram"
)

// Emission is one forwarded result. Outputs share the same value and must
// treat it as read-only.
type Emission struct {
	Seq     uint64    // strictly increasing per bridge, starting at 1
	Time    time.Time // clock reading when the gate opened
	Session uuid.UUID

	// Spectrum is set in single spectrum mode.
	Spectrum []float64
	// Matrix is set in spectrogram mode.
	Matrix spectrogram.Matrix
}

// Output receives emissions. Write is called on the pipeline goroutine, so
// slow outputs should hand the emission off (see Handoff).
type Output interface {
	Write(*Emission) error
}

// OutputFunc adapts a function to Output.
type OutputFunc func(*Emission) error

// Write calls fn(e).
func (fn OutputFunc) Write(e *Emission) error {
	return fn(e)
}

// BridgeConfig configures a Bridge.
type BridgeConfig struct {
	Period  time.Duration // zero selects DefaultPeriod
	Now     Clock         // nil selects time.Now
	Session uuid.UUID
}

// Bridge gates emissions and fans them out to its outputs in subscription
// order.
type Bridge struct {
	gate    *Gate
	session uuid.UUID
	outputs []Output

	seq     uint64
	skipped uint64
}

// NewBridge returns a bridge. The gate opens immediately.
func NewBridge(cfg BridgeConfig) *Bridge {
	if cfg.Period == 0 {
		cfg.Period = DefaultPeriod
	}

	return &Bridge{
		gate:    NewGate(cfg.Period, cfg.Now),
		session: cfg.Session,
	}
}

// Subscribe adds an output. It must not be called concurrently with OnNewData.
func (b *Bridge) Subscribe(out Output) {
	if out != nil {
		b.outputs = append(b.outputs, out)
	}
}

// Outputs returns the number of subscribed outputs.
func (b *Bridge) Outputs() int {
	return len(b.outputs)
}

// OnNewData is called once per processed notification. If the gate is closed
// the call does nothing and returns false. Otherwise fill populates the
// emission payload, every output receives it and true is returned. fill is
// only called for emissions that are forwarded.
func (b *Bridge) OnNewData(fill func(*Emission)) (bool, error) {
	if !b.gate.Allow() {
		b.skipped++
		return false, nil
	}

	b.seq++

	e := &Emission{
		Seq:     b.seq,
		Time:    b.gate.Next().Add(-b.gate.Period()),
		Session: b.session,
	}

	if fill != nil {
		fill(e)
	}

	var first error
	for idx, out := range b.outputs {
		if err := out.Write(e); err != nil && first == nil {
			first = errors.Wrapf(err, "output %d", idx)
		}
	}

	return true, first
}

// Seq returns the sequence number of the last emission.
func (b *Bridge) Seq() uint64 {
	return b.seq
}

// Skipped returns how many calls the gate rejected.
func (b *Bridge) Skipped() uint64 {
	return b.skipped
}

// Gate returns the bridge's gate.
func (b *Bridge) Gate() *Gate {
	return b.gate
}
