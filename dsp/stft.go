// Package dsp turns decoded radar ramps into power spectra.
//
// Some notes:
//
// https://wikipedia.org/wiki/Short-time_Fourier_transform
// https://wikipedia.org/wiki/Periodogram
package dsp

import (
	"math/cmplx"

	"github.com/pkg/errors"

	"github.com/siradar/zenith/dsp/window"
	"github.com/siradar/zenith/fft"
)

// ErrInvalidWindowConfig is returned for window, hop or length settings the
// transform cannot run with.
var ErrInvalidWindowConfig = errors.New("invalid window config")

// Mode selects how a frame is turned into columns.
type Mode int

const (
	// ModeSpectrogram slides a window over the frame and emits one power
	// column per window position.
	ModeSpectrogram Mode = iota
	// ModeSingle emits one magnitude spectrum over the whole frame.
	ModeSingle
)

func (m Mode) String() string {
	switch m {
	case ModeSpectrogram:
		return "spectrogram"
	case ModeSingle:
		return "single"
	default:
		return "unknown"
	}
}

// Column is one spectrum, indexed by frequency bin.
type Column []float64

// STFTConfig configures the transform.
type STFTConfig struct {
	Mode Mode

	// Length is the number of complex samples per frame.
	Length int

	// WindowSize and HopSize are only used in ModeSpectrogram.
	WindowSize int
	HopSize    int
	// Window is applied to every segment. Nil selects Hann.
	Window window.Function

	// DeviceBins marks frames that already hold spectrum bins (ModeSingle).
	// The output is then |z| per sample and no transform is run.
	DeviceBins bool
}

// STFT computes spectra from complex sample frames. It reuses internal
// buffers and is not safe for concurrent use.
type STFT struct {
	cfg    STFTConfig
	size   int
	window []float64

	in   []complex128
	out  []complex128
	plan *fft.Plan
}

// NewSTFT validates cfg and precomputes the window and FFT plan.
func NewSTFT(cfg STFTConfig) (*STFT, error) {
	if cfg.Length <= 0 {
		return nil, errors.Wrapf(ErrInvalidWindowConfig, "frame length %d", cfg.Length)
	}

	st := &STFT{cfg: cfg}

	switch cfg.Mode {
	case ModeSpectrogram:
		switch {
		case cfg.WindowSize <= 0:
			return nil, errors.Wrapf(ErrInvalidWindowConfig, "window size %d", cfg.WindowSize)

		case cfg.WindowSize > cfg.Length:
			return nil, errors.Wrapf(ErrInvalidWindowConfig,
				"window size %d larger than frame length %d", cfg.WindowSize, cfg.Length)

		case cfg.HopSize <= 0:
			return nil, errors.Wrapf(ErrInvalidWindowConfig, "hop size %d", cfg.HopSize)

		case cfg.HopSize > cfg.WindowSize:
			return nil, errors.Wrapf(ErrInvalidWindowConfig,
				"hop size %d larger than window size %d", cfg.HopSize, cfg.WindowSize)
		}

		fn := cfg.Window
		if fn == nil {
			fn = window.Hann
		}

		st.size = cfg.WindowSize
		st.window = window.Make(st.size, fn)

	case ModeSingle:
		st.size = cfg.Length

	default:
		return nil, errors.Wrapf(ErrInvalidWindowConfig, "unknown mode %d", cfg.Mode)
	}

	st.in = make([]complex128, st.size)
	st.out = make([]complex128, st.size)
	st.plan = fft.NewPlan(st.in, st.out)

	return st, nil
}

// Mode returns the configured mode.
func (st *STFT) Mode() Mode {
	return st.cfg.Mode
}

// Bins returns the length of every emitted column.
func (st *STFT) Bins() int {
	return st.size
}

// Columns returns how many columns a frame of n samples produces.
func (st *STFT) Columns(n int) int {
	if st.cfg.Mode == ModeSingle {
		if n == st.size {
			return 1
		}
		return 0
	}

	if n < st.size {
		return 0
	}

	return (n-st.size)/st.cfg.HopSize + 1
}

// Transform computes the columns for one frame. Every returned column is
// newly allocated and owned by the caller.
//
// In ModeSpectrogram each window position i = 0, S, 2S, ... with i+W <= L
// yields |FFT(x[i:i+W] * w) / W|^2. No partial trailing window is emitted.
func (st *STFT) Transform(samples []complex128) ([]Column, error) {
	if st.cfg.Mode == ModeSingle {
		col, err := st.single(samples)
		if err != nil {
			return nil, err
		}
		return []Column{col}, nil
	}

	count := st.Columns(len(samples))
	if count == 0 {
		return nil, errors.Wrapf(ErrInvalidWindowConfig,
			"frame of %d samples shorter than window %d", len(samples), st.size)
	}

	cols := make([]Column, count)
	norm := complex(float64(st.size), 0)

	for xCol := range cols {
		seg := samples[xCol*st.cfg.HopSize : xCol*st.cfg.HopSize+st.size]

		for i, v := range seg {
			st.in[i] = v * complex(st.window[i], 0)
		}

		st.plan.Execute()

		col := make(Column, st.size)
		for k, v := range st.out {
			v /= norm
			// X * conj(X) is real and non-negative.
			col[k] = real(v)*real(v) + imag(v)*imag(v)
		}

		cols[xCol] = col
	}

	return cols, nil
}

func (st *STFT) single(samples []complex128) (Column, error) {
	if len(samples) != st.size {
		return nil, errors.Wrapf(ErrInvalidWindowConfig,
			"frame of %d samples, want %d", len(samples), st.size)
	}

	col := make(Column, st.size)

	if st.cfg.DeviceBins {
		for i, v := range samples {
			col[i] = cmplx.Abs(v)
		}
		return col, nil
	}

	copy(st.in, samples)
	st.plan.Execute()

	for k, v := range st.out {
		col[k] = cmplx.Abs(v)
	}

	return col, nil
}
