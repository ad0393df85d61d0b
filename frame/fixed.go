package frame

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// Q15ToFloat converts a Q15 word to a float in [-1, 1).
func Q15ToFloat(v int16) float64 {
	return float64(v) / fixedPointScale
}

// Q16_15ToFloat converts a Q16.15 word. The divisor is 2^15 as for Q15.
func Q16_15ToFloat(v int32) float64 {
	return float64(v) / fixedPointScale
}

// FloatToQ15 quantizes v to the nearest Q15 word, saturating at the ends.
func FloatToQ15(v float64) int16 {
	q := math.Round(v * fixedPointScale)
	switch {
	case q > math.MaxInt16:
		return math.MaxInt16
	case q < math.MinInt16:
		return math.MinInt16
	}
	return int16(q)
}

// FloatToQ16_15 quantizes v to the nearest Q16.15 word, saturating at the ends.
func FloatToQ16_15(v float64) int32 {
	q := math.Round(v * fixedPointScale)
	switch {
	case q > math.MaxInt32:
		return math.MaxInt32
	case q < math.MinInt32:
		return math.MinInt32
	}
	return int32(q)
}

// Encode builds a payload for cfg from interleaved real/imaginary values.
// Words past len(values) and the padding are zero. No bias is applied.
func Encode(cfg Config, values []float64, ramp uint16) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid wire format")
	}

	if len(values) > cfg.WordCount {
		return nil, errors.Errorf("%d values do not fit in %d words", len(values), cfg.WordCount)
	}

	raw := make([]byte, cfg.FrameLen())
	wordB := cfg.WordWidth / 8

	for i, v := range values {
		if wordB == 2 {
			binary.LittleEndian.PutUint16(raw[i*2:], uint16(FloatToQ15(v)))
		} else {
			binary.LittleEndian.PutUint32(raw[i*4:], uint32(FloatToQ16_15(v)))
		}
	}

	if cfg.RampCounter {
		binary.LittleEndian.PutUint16(raw[cfg.WordCount*wordB:], ramp)
	}

	return raw, nil
}
