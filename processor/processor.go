// Package processor runs the per-notification pipeline: decode, transform,
// buffer and rate-gated emission. A Processor is owned by one goroutine; only
// Stats may be read from elsewhere.
package processor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/siradar/zenith/dsp"
	"github.com/siradar/zenith/frame"
	"github.com/siradar/zenith/observe"
	"github.com/siradar/zenith/render"
	"github.com/siradar/zenith/spectrogram"
)

// ErrClosed is returned by Process after Close.
var ErrClosed = errors.New("processor closed")

// Config configures a Processor.
type Config struct {
	Frame frame.Config

	// STFT.Length is taken from the frame layout when zero.
	STFT dsp.STFTConfig

	// Buffer.Height is taken from the transform. Only used in spectrogram
	// mode.
	Buffer spectrogram.Config

	Bridge render.BridgeConfig

	// Metrics is optional.
	Metrics *observe.Metrics

	Listeners []Listener
}

// Stats are running counters. They are updated atomically.
type Stats struct {
	Received  uint64 // notifications handed to Process
	Dropped   uint64 // notifications rejected for any reason
	Malformed uint64 // subset of Dropped with a bad length
	Columns   uint64 // columns appended to the buffer
	Emitted   uint64 // emissions forwarded to outputs
	Skipped   uint64 // notifications not forwarded by the gate
	RampGaps  uint64 // ramp numbers missing between frames
}

type counters struct {
	received  atomic.Uint64
	dropped   atomic.Uint64
	malformed atomic.Uint64
	columns   atomic.Uint64
	emitted   atomic.Uint64
	skipped   atomic.Uint64
	rampGaps  atomic.Uint64
}

// Processor is the pipeline for one session.
type Processor struct {
	dec    *frame.Decoder
	stft   *dsp.STFT
	buf    *spectrogram.Buffer
	bridge *render.Bridge
	met    *observe.Metrics

	listeners []Listener

	latest   dsp.Column
	lastRamp uint16
	haveRamp bool
	closed   bool

	stats counters
}

// New builds a processor. Configuration errors are returned here and never
// from Process.
func New(cfg Config) (*Processor, error) {
	dec, err := frame.NewDecoder(cfg.Frame)
	if err != nil {
		return nil, err
	}

	stCfg := cfg.STFT
	if stCfg.Length == 0 {
		stCfg.Length = dec.SampleCount()
	}

	if stCfg.Length != dec.SampleCount() {
		return nil, errors.Wrapf(dsp.ErrInvalidWindowConfig,
			"transform length %d, frames carry %d samples", stCfg.Length, dec.SampleCount())
	}

	st, err := dsp.NewSTFT(stCfg)
	if err != nil {
		return nil, err
	}

	p := &Processor{
		dec:       dec,
		stft:      st,
		bridge:    render.NewBridge(cfg.Bridge),
		met:       cfg.Metrics,
		listeners: cfg.Listeners,
	}

	if st.Mode() == dsp.ModeSpectrogram {
		bufCfg := cfg.Buffer
		bufCfg.Height = st.Bins()

		if p.buf, err = spectrogram.New(bufCfg); err != nil {
			return nil, errors.Wrap(err, "spectrogram buffer")
		}
	}

	return p, nil
}

// Subscribe adds a presentation output.
func (p *Processor) Subscribe(out render.Output) {
	p.bridge.Subscribe(out)
}

// AddListener adds a listener called for every decoded frame.
func (p *Processor) AddListener(l Listener) {
	if l != nil {
		p.listeners = append(p.listeners, l)
	}
}

// FrameLen returns the payload length the processor accepts.
func (p *Processor) FrameLen() int {
	return p.dec.Len()
}

// Bins returns the number of bins per column.
func (p *Processor) Bins() int {
	return p.stft.Bins()
}

// Buffer returns the spectrogram buffer, nil in single spectrum mode.
func (p *Processor) Buffer() *spectrogram.Buffer {
	return p.buf
}

// Bridge returns the render bridge.
func (p *Processor) Bridge() *render.Bridge {
	return p.bridge
}

// Process runs one notification through the pipeline. A rejected
// notification leaves the buffer and the render gate untouched. The returned
// error is for reporting only; the processor stays usable.
func (p *Processor) Process(raw []byte) error {
	ctx := context.Background()

	if p.closed {
		p.drop(ctx, observe.ReasonClosed)
		return ErrClosed
	}

	start := time.Now()

	p.stats.received.Add(1)
	if p.met != nil {
		p.met.FramesReceived.Add(ctx, 1)
	}

	f, err := p.dec.Decode(raw)
	if err != nil {
		p.stats.malformed.Add(1)
		p.drop(ctx, observe.ReasonMalformed)
		return err
	}

	for _, l := range p.listeners {
		l.OnFrame(raw, f)
	}

	p.checkRamp(ctx, f)

	cols, err := p.stft.Transform(f.Samples)
	if err != nil {
		p.drop(ctx, observe.ReasonTransform)
		return errors.Wrap(err, "transform")
	}

	if p.buf != nil {
		for _, col := range cols {
			if err := p.buf.Append(col); err != nil {
				p.drop(ctx, observe.ReasonBuffer)
				return err
			}
		}

		p.stats.columns.Add(uint64(len(cols)))
		if p.met != nil {
			p.met.ColumnsAppended.Add(ctx, int64(len(cols)))
		}
	} else {
		p.latest = cols[len(cols)-1]
	}

	if p.met != nil {
		p.met.ProcessDuration.Record(ctx, time.Since(start).Seconds())
	}

	sent, err := p.bridge.OnNewData(p.fill)
	if sent {
		p.stats.emitted.Add(1)
		if p.met != nil {
			p.met.Emissions.Add(ctx, 1)
		}
	} else {
		p.stats.skipped.Add(1)
		if p.met != nil {
			p.met.EmissionsSkipped.Add(ctx, 1)
		}
	}

	return errors.Wrap(err, "render output")
}

func (p *Processor) fill(e *render.Emission) {
	if p.buf != nil {
		e.Matrix = p.buf.Snapshot()
		return
	}

	// Columns are freshly allocated by the transform, so the latest one can
	// be handed out as is.
	e.Spectrum = p.latest
}

func (p *Processor) checkRamp(ctx context.Context, f frame.Frame) {
	if !f.HasRamp {
		return
	}

	if p.haveRamp && f.Ramp == p.lastRamp {
		// Re-sent notification, not a gap.
		glog.V(1).Infof("ramp %d repeated", f.Ramp)
		return
	}

	if p.haveRamp {
		if gap := f.Ramp - p.lastRamp - 1; gap != 0 {
			p.stats.rampGaps.Add(uint64(gap))
			if p.met != nil {
				p.met.RampGaps.Add(ctx, int64(gap))
			}
			glog.V(1).Infof("ramp gap: %d -> %d", p.lastRamp, f.Ramp)
		}
	}

	p.lastRamp = f.Ramp
	p.haveRamp = true
}

func (p *Processor) drop(ctx context.Context, reason string) {
	p.stats.dropped.Add(1)
	if p.met != nil {
		p.met.RecordDrop(ctx, reason)
	}
}

// Run processes frames in arrival order until the channel is closed or ctx is
// done. Per-frame errors are logged and counted but never stop the loop.
func (p *Processor) Run(ctx context.Context, frames <-chan []byte) error {
	defer p.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-frames:
			if !ok {
				return nil
			}

			if err := p.Process(raw); err != nil {
				glog.V(1).Infof("frame dropped: %v", err)
			}
		}
	}
}

// Stats returns a copy of the counters. Safe to call from any goroutine.
func (p *Processor) Stats() Stats {
	return Stats{
		Received:  p.stats.received.Load(),
		Dropped:   p.stats.dropped.Load(),
		Malformed: p.stats.malformed.Load(),
		Columns:   p.stats.columns.Load(),
		Emitted:   p.stats.emitted.Load(),
		Skipped:   p.stats.skipped.Load(),
		RampGaps:  p.stats.rampGaps.Load(),
	}
}

// Close stops accepting notifications. Later calls to Process fail with
// ErrClosed.
func (p *Processor) Close() {
	p.closed = true
}
