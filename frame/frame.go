// Package frame decodes the fixed-length notification payloads sent by the
// radar front end into complex baseband samples.
//
// A payload is a run of little-endian fixed-point words, optionally followed by
// an unsigned 16-bit ramp counter, followed by padding that is always
// discarded. Consecutive words are paired as (real, imaginary).
package frame

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrMalformedFrame is returned when a payload does not have the configured
// wire length.
var ErrMalformedFrame = errors.New("malformed frame")

// Word widths understood by the decoder.
const (
	// Q15 is a signed 16-bit word with 15 fractional bits.
	Q15 = 16
	// Q16_15 is a signed 32-bit word with 15 fractional bits.
	Q16_15 = 32
)

const fixedPointScale = 1 << 15

// Config describes the wire layout and the per-frame corrections.
type Config struct {
	// WordWidth is the size of one sample word in bits (Q15 or Q16_15).
	WordWidth int
	// WordCount is the number of sample words on the wire.
	WordCount int
	// RampCounter is set when a uint16 ramp number follows the sample words.
	RampCounter bool
	// Padding is the number of trailing bytes that are discarded.
	Padding int
	// UsedWords is the number of leading words kept. Zero keeps all of them.
	UsedWords int

	// BiasCorrection enables adding Bias to the first BiasSamples converted
	// values. The front end reports a fixed DC offset on those samples.
	BiasCorrection bool
	Bias           float64
	BiasSamples    int

	// Conjugate pairs words as Re - jIm instead of Re + jIm.
	Conjugate bool
}

// FrameLen returns the exact payload length in bytes for this layout.
func (c Config) FrameLen() int {
	n := c.WordCount * (c.WordWidth / 8)
	if c.RampCounter {
		n += 2
	}
	return n + c.Padding
}

// Used returns the number of words that are decoded.
func (c Config) Used() int {
	if c.UsedWords == 0 {
		return c.WordCount
	}
	return c.UsedWords
}

// Validate checks the layout for consistency.
func (c Config) Validate() error {
	switch {
	case c.WordWidth != Q15 && c.WordWidth != Q16_15:
		return errors.Errorf("word width %d not supported (16 or 32)", c.WordWidth)

	case c.WordCount < 2:
		return errors.Errorf("word count %d too small (2 min)", c.WordCount)

	case c.Padding < 0:
		return errors.Errorf("negative padding %d", c.Padding)

	case c.UsedWords < 0 || c.UsedWords > c.WordCount:
		return errors.Errorf("used words %d outside [0, %d]", c.UsedWords, c.WordCount)

	case c.Used()%2 != 0:
		return errors.Errorf("used words %d must be even to pair real/imaginary", c.Used())

	case c.BiasCorrection && (c.BiasSamples < 0 || c.BiasSamples > c.Used()):
		return errors.Errorf("bias samples %d outside [0, %d]", c.BiasSamples, c.Used())
	}

	return nil
}

// Frame is one decoded notification.
type Frame struct {
	// Samples holds len(words)/2 complex values, real part from the even word.
	Samples []complex128
	// Ramp is the ramp counter when the layout carries one.
	Ramp    uint16
	HasRamp bool
}

// Decoder converts raw payloads into frames. It holds no mutable state and is
// safe for concurrent use.
type Decoder struct {
	cfg   Config
	size  int
	used  int
	wordB int
}

// NewDecoder validates cfg and returns a decoder for it.
func NewDecoder(cfg Config) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid wire format")
	}

	return &Decoder{
		cfg:   cfg,
		size:  cfg.FrameLen(),
		used:  cfg.Used(),
		wordB: cfg.WordWidth / 8,
	}, nil
}

// Len returns the expected payload length.
func (d *Decoder) Len() int {
	return d.size
}

// SampleCount returns the number of complex samples per frame.
func (d *Decoder) SampleCount() int {
	return d.used / 2
}

// Decode parses raw. It fails with ErrMalformedFrame if the length does not
// match the configured layout.
func (d *Decoder) Decode(raw []byte) (Frame, error) {
	if len(raw) != d.size {
		return Frame{}, errors.Wrapf(ErrMalformedFrame,
			"got %d bytes, want %d", len(raw), d.size)
	}

	out := Frame{Samples: make([]complex128, d.used/2)}

	for n := 0; n < d.used; n += 2 {
		re := d.word(raw, n)
		im := d.word(raw, n+1)

		if d.cfg.BiasCorrection {
			if n < d.cfg.BiasSamples {
				re += d.cfg.Bias
			}
			if n+1 < d.cfg.BiasSamples {
				im += d.cfg.Bias
			}
		}

		if d.cfg.Conjugate {
			im = -im
		}

		out.Samples[n/2] = complex(re, im)
	}

	if d.cfg.RampCounter {
		off := d.cfg.WordCount * d.wordB
		out.Ramp = binary.LittleEndian.Uint16(raw[off : off+2])
		out.HasRamp = true
	}

	return out, nil
}

func (d *Decoder) word(raw []byte, idx int) float64 {
	if d.wordB == 2 {
		return Q15ToFloat(int16(binary.LittleEndian.Uint16(raw[idx*2:])))
	}

	return Q16_15ToFloat(int32(binary.LittleEndian.Uint32(raw[idx*4:])))
}
