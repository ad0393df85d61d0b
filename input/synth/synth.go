// Package synth generates synthetic radar notifications for running the
// pipeline without hardware.
package synth

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/siradar/zenith/frame"
	"github.com/siradar/zenith/input"
	"github.com/siradar/zenith/input/common/pacer"
)

// DefaultRate is the notification rate used when the session sets none.
const DefaultRate = 100.0

const (
	amplitude = 0.5
	noiseAmp  = 0.01
	// sweepStep is the frequency change per frame of the sweep device, in
	// cycles per sample.
	sweepStep = 1.0 / 400
)

func init() {
	input.RegisterBackend("synth", Backend{})
}

// Device names.
const (
	Tone  = Device("tone")  // static target at a quarter of the sample rate
	Sweep = Device("sweep") // target moving back and forth across the band
	Noise = Device("noise") // noise floor only
)

type Backend struct{}

func (b Backend) Init() error {
	return nil
}

func (b Backend) Close() error {
	return nil
}

func (b Backend) Devices() ([]input.Device, error) {
	return []input.Device{Tone, Sweep, Noise}, nil
}

func (b Backend) DefaultDevice() (input.Device, error) {
	return Sweep, nil
}

func (b Backend) Start(cfg input.SessionConfig) (input.Session, error) {
	gen, err := NewGenerator(cfg.Frame, cfg.Device, rand.Uint64())
	if err != nil {
		return nil, err
	}

	rate := cfg.Rate
	if rate <= 0 {
		rate = DefaultRate
	}

	return &Session{gen: gen, rate: rate}, nil
}

type Device string

func (d Device) String() string {
	return string(d)
}

// Generator builds successive payloads for one wire layout.
type Generator struct {
	cfg    frame.Config
	device Device
	rng    *rand.Rand

	values []float64
	ramp   uint16
	freq   float64
	dir    float64
}

// NewGenerator returns a generator for device. Equal seeds produce equal
// payload sequences.
func NewGenerator(cfg frame.Config, device input.Device, seed uint64) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid wire format")
	}

	dev := Sweep
	if device != nil {
		dev = Device(device.String())
	}

	switch dev {
	case Tone, Sweep, Noise:
	default:
		return nil, errors.Errorf("unknown synth device %q", dev)
	}

	return &Generator{
		cfg:    cfg,
		device: dev,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		values: make([]float64, cfg.Used()),
		freq:   0.25,
		dir:    1,
	}, nil
}

// Frequency returns the tone frequency of the next payload in cycles per
// sample.
func (g *Generator) Frequency() float64 {
	return g.freq
}

// Next returns the next payload. Bias correction configured on the layout
// is not simulated.
func (g *Generator) Next() ([]byte, error) {
	for n := 0; n < len(g.values)/2; n++ {
		re := noiseAmp * g.rng.NormFloat64()
		im := noiseAmp * g.rng.NormFloat64()

		if g.device != Noise {
			phase := 2 * math.Pi * g.freq * float64(n)
			re += amplitude * math.Cos(phase)
			im += amplitude * math.Sin(phase)
		}

		if g.cfg.Conjugate {
			im = -im
		}

		g.values[2*n] = re
		g.values[2*n+1] = im
	}

	raw, err := frame.Encode(g.cfg, g.values, g.ramp)
	if err != nil {
		return nil, err
	}

	g.ramp++

	if g.device == Sweep {
		g.freq += g.dir * sweepStep
		if g.freq >= 0.5 || g.freq <= 0.02 {
			g.dir = -g.dir
		}
	}

	return raw, nil
}

type Session struct {
	gen  *Generator
	rate float64
}

func (s *Session) Start(ctx context.Context, dst chan<- []byte) error {
	return pacer.Run(ctx, s.rate, dst, s.gen.Next)
}
