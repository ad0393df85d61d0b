// Package window provides analysis window functions for the STFT.
//
// Functions scale a buffer in place, so a window table is built by running a
// function over a buffer of ones (see Make). Tables use the symmetric form,
// w[0] == w[n-1], to match the captures the front end was characterised with.
//
// See https://wikipedia.org/wiki/Window_function
package window

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Function scales buf by a window of len(buf) points.
type Function func(buf []float64)

// Make returns a precomputed window table of the given size.
func Make(size int, fn Function) []float64 {
	buf := make([]float64, size)
	for i := range buf {
		buf[i] = 1.0
	}

	if fn != nil {
		fn(buf)
	}

	return buf
}

// Rectangle leaves the buffer untouched.
func Rectangle(buf []float64) {}

// CosSum scales the buffer by a two-term cosine sum window with coefficient a0.
func CosSum(buf []float64, a0 float64) {
	size := len(buf)
	if size < 2 {
		return
	}

	a1 := 1.0 - a0
	coef := 2.0 * math.Pi / float64(size-1)
	for n := range buf {
		buf[n] *= a0 - a1*math.Cos(coef*float64(n))
	}
}

// Hann scales the buffer by a Hann window.
func Hann(buf []float64) {
	CosSum(buf, 0.5)
}

// Hamming scales the buffer by a Hamming window.
func Hamming(buf []float64) {
	CosSum(buf, 25.0/46.0)
}

// Blackman scales the buffer by a Blackman window.
func Blackman(buf []float64) {
	size := len(buf)
	if size < 2 {
		return
	}

	coef := 2.0 * math.Pi / float64(size-1)
	for n := range buf {
		x := coef * float64(n)
		buf[n] *= 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
	}
}

// Bartlett scales the buffer by a triangular window with zero end points.
func Bartlett(buf []float64) {
	size := len(buf)
	if size < 2 {
		return
	}

	half := float64(size-1) / 2.0
	for n := range buf {
		buf[n] *= 1.0 - math.Abs((float64(n)-half)/half)
	}
}

var byName = map[string]Function{
	"rectangle": Rectangle,
	"none":      Rectangle,
	"hann":      Hann,
	"hanning":   Hann,
	"hamming":   Hamming,
	"blackman":  Blackman,
	"bartlett":  Bartlett,
}

// ByName looks up a window function. An empty name selects Hann.
func ByName(name string) (Function, error) {
	if name == "" {
		return Hann, nil
	}

	fn, ok := byName[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("unknown window %q", name)
	}

	return fn, nil
}
