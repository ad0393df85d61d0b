package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/siradar/zenith/dsp"
	"github.com/siradar/zenith/spectrogram"
)

const (
	gridMarginLeft = 56
	gridMinStepY   = 20
	gridTickLen    = 4

	defaultScale          = 3
	defaultSpectrumHeight = 200
)

var (
	gridColor           = color.RGBA{200, 200, 200, 255}
	gridBackgroundColor = color.RGBA{24, 24, 24, 255}
)

// HeatmapOptions controls image rendering.
type HeatmapOptions struct {
	// Scale is the size in pixels of one cell. Zero selects 3.
	Scale int
	// Linear shows power linearly instead of in dB.
	Linear bool
	// DynamicRange is the dB span in log mode. Zero selects 60.
	DynamicRange float64
	// Labels adds a left margin with bin (or distance) ticks.
	Labels bool
	// SampleRate, when set, labels bins with target distance in metres.
	SampleRate float64
	RampTime   float64
	// Height is the plot height of a spectrum image. Zero selects 200.
	Height int
}

func (o HeatmapOptions) scale() int {
	if o.Scale <= 0 {
		return defaultScale
	}
	return o.Scale
}

// RenderHeatmap draws m with time running left to right and bin 0 on top.
func RenderHeatmap(m spectrogram.Matrix, opts HeatmapOptions) *image.RGBA {
	cols, bins := m.Width(), m.Bins
	if cols == 0 || bins == 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}

	small := image.NewRGBA(image.Rect(0, 0, cols, bins))
	peak := m.Max()
	levels := make([]float64, bins)

	for x, col := range m.Columns {
		Levels(col, peak, !opts.Linear, opts.DynamicRange, levels)
		for y, lvl := range levels {
			small.SetRGBA(x, y, Gradient(lvl))
		}
	}

	s := opts.scale()
	img := image.NewRGBA(image.Rect(0, 0, cols*s, bins*s))
	xdraw.NearestNeighbor.Scale(img, img.Bounds(), small, small.Bounds(), xdraw.Src, nil)

	if !opts.Labels {
		return img
	}

	return drawGrid(img, bins, opts)
}

// RenderSpectrum draws a single spectrum as vertical bars.
func RenderSpectrum(values []float64, opts HeatmapOptions) *image.RGBA {
	if len(values) == 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}

	s := opts.scale()
	height := opts.Height
	if height <= 0 {
		height = defaultSpectrumHeight
	}

	peak := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}

	levels := Levels(values, peak, !opts.Linear, opts.DynamicRange, nil)

	img := image.NewRGBA(image.Rect(0, 0, len(values)*s, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{0, 0, 0, 255}}, image.Point{}, draw.Src)

	for i, lvl := range levels {
		top := height - int(lvl*float64(height))
		bar := image.Rect(i*s, top, (i+1)*s, height)
		draw.Draw(img, bar, &image.Uniform{Gradient(lvl)}, image.Point{}, draw.Src)
	}

	return img
}

func drawTick(canvas *image.RGBA, start image.Point, length int) {
	for i := 0; i <= length; i++ {
		canvas.SetRGBA(start.X+i, start.Y, gridColor)
	}
}

func findGridStep(bins, scale int) int {
	step := 1
	for step*scale < gridMinStepY {
		step *= 2
	}
	if step > bins {
		step = bins
	}
	return step
}

func binLabel(bin int, opts HeatmapOptions) string {
	if opts.SampleRate > 0 {
		return fmt.Sprintf("%.2fm", dsp.BinToDistance(float64(bin), opts.SampleRate, opts.RampTime))
	}
	return fmt.Sprintf("%d", bin)
}

// drawGrid enlarges source with a labelled left margin.
func drawGrid(source *image.RGBA, bins int, opts HeatmapOptions) *image.RGBA {
	b := source.Bounds()

	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx()+gridMarginLeft, b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{gridBackgroundColor}, image.Point{}, draw.Src)

	r := canvas.Bounds()
	r.Min.X += gridMarginLeft
	draw.Draw(canvas, r, source, b.Min, draw.Src)

	s := opts.scale()
	step := findGridStep(bins, s)

	for bin := 0; bin < bins; bin += step {
		y := bin * s

		drawTick(canvas, image.Point{gridMarginLeft - gridTickLen, y}, gridTickLen-1)

		d := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(gridColor),
			Face: basicfont.Face7x13,
			Dot: fixed.Point26_6{
				X: fixed.I(2),
				Y: fixed.I(y + 11),
			},
		}
		d.DrawString(binLabel(bin, opts))
	}

	return canvas
}
