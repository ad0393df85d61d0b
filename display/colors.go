// Package display renders pipeline emissions for people: a termbox
// waterfall, PNG heatmaps and a plain number stream.
package display

import (
	"image/color"
	"math"
)

// Colors defining the heatmap gradient. The higher the index, the warmer.
var gradient = [...]color.RGBA{
	{0, 0, 0, 255},       // black
	{0, 0, 255, 255},     // blue
	{0, 255, 255, 255},   // cyan
	{0, 255, 0, 255},     // green
	{255, 255, 0, 255},   // yellow
	{255, 0, 0, 255},     // red
	{255, 255, 255, 255}, // white
}

// Gradient returns the heatmap color for a level in [0, 1]. Levels outside
// the range are clamped.
// http://www.andrewnoske.com/wiki/Code_-_heatmaps_and_color_gradients
func Gradient(level float64) color.RGBA {
	switch {
	case math.IsNaN(level) || level <= 0:
		return gradient[0]
	case level >= 1:
		return gradient[len(gradient)-1]
	}

	pos := level * float64(len(gradient)-1)
	idx := int(pos)
	fract := pos - float64(idx)

	lo, hi := gradient[idx], gradient[idx+1]

	mix := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*fract))
	}

	return color.RGBA{mix(lo.R, hi.R), mix(lo.G, hi.G), mix(lo.B, hi.B), 255}
}

// Xterm256 returns the closest index in the xterm 6x6x6 color cube.
func Xterm256(c color.RGBA) int {
	q := func(v uint8) int {
		return (int(v)*5 + 127) / 255
	}

	return 16 + 36*q(c.R) + 6*q(c.G) + q(c.B)
}

// Levels maps power values to [0, 1]. In log mode values are converted to dB
// and the top dynamicRange dB below the peak are spread over the range;
// otherwise values are divided by the peak. peak <= 0 maps everything to 0.
func Levels(values []float64, peak float64, log bool, dynamicRange float64, out []float64) []float64 {
	if out == nil {
		out = make([]float64, len(values))
	}

	if peak <= 0 {
		for i := range values {
			out[i] = 0
		}
		return out
	}

	if !log {
		for i, v := range values {
			out[i] = clamp01(v / peak)
		}
		return out
	}

	if dynamicRange <= 0 {
		dynamicRange = DefaultDynamicRange
	}

	top := 10 * math.Log10(peak)
	for i, v := range values {
		if v <= 0 {
			out[i] = 0
			continue
		}
		out[i] = clamp01((10*math.Log10(v) - top + dynamicRange) / dynamicRange)
	}

	return out
}

// DefaultDynamicRange is the dB span shown in log mode.
const DefaultDynamicRange = 60.0

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
