package display

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/nsf/termbox-go"

	"github.com/siradar/zenith/render"
	"github.com/siradar/zenith/spectrogram"
	"github.com/siradar/zenith/util"
)

const (
	// BarRune is the full block used for bars.
	BarRune = '█'

	// ScalingSlowWindow and ScalingFastWindow are in emissions.
	ScalingSlowWindow = 100
	ScalingFastWindow = 20
)

var barHeightRunes = [...]rune{
	' ',
	'▁',
	'▂',
	'▃',
	'▄',
	'▅',
	'▆',
	'▇',
	BarRune,
}

// canvas is the part of termbox the drawing code needs.
type canvas interface {
	Size() (int, int)
	SetCell(x, y int, ch rune, fg, bg termbox.Attribute)
	Clear() error
	Flush() error
}

type termboxCanvas struct{}

func (termboxCanvas) Size() (int, int) {
	return termbox.Size()
}

func (termboxCanvas) SetCell(x, y int, ch rune, fg, bg termbox.Attribute) {
	termbox.SetCell(x, y, ch, fg, bg)
}

func (termboxCanvas) Clear() error {
	return termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
}

func (termboxCanvas) Flush() error {
	return termbox.Flush()
}

// Terminal draws emissions on the terminal: a waterfall for spectrogram
// snapshots and bars for single spectra. Emissions arrive through a handoff,
// so a slow terminal never blocks the pipeline.
type Terminal struct {
	handoff *render.Handoff
	scaler  *util.Scaler
	canvas  canvas
	restore func()

	// DynamicRange is the dB span of the waterfall.
	DynamicRange float64
}

// NewTerminal returns an uninitialised terminal display.
func NewTerminal() *Terminal {
	return &Terminal{
		handoff:      render.NewHandoff(),
		scaler:       util.NewScaler(ScalingSlowWindow, ScalingFastWindow, 1e-12),
		canvas:       termboxCanvas{},
		DynamicRange: DefaultDynamicRange,
	}
}

// Init takes over the terminal.
func (t *Terminal) Init() error {
	restore, err := normalizeTerminal()
	if err != nil {
		return err
	}
	t.restore = restore

	if err := termbox.Init(); err != nil {
		restore()
		return err
	}

	termbox.SetOutputMode(termbox.Output256)
	termbox.HideCursor()

	return nil
}

// Close gives the terminal back.
func (t *Terminal) Close() error {
	termbox.Close()
	if t.restore != nil {
		t.restore()
	}
	return nil
}

// Write queues e for drawing.
func (t *Terminal) Write(e *render.Emission) error {
	return t.handoff.Write(e)
}

// Start runs the event and draw loops. The returned context is cancelled
// when the user quits with q, Esc or Ctrl-C.
func (t *Terminal) Start(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)

	go t.pollEvents(ctx, cancel)
	go t.drawLoop(ctx)

	return ctx
}

func (t *Terminal) pollEvents(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	go func() {
		<-ctx.Done()
		termbox.Interrupt()
	}()

	for {
		ev := termbox.PollEvent()

		switch ev.Type {
		case termbox.EventKey:
			switch {
			case ev.Ch == 'q', ev.Ch == 'Q':
				return
			case ev.Key == termbox.KeyEsc, ev.Key == termbox.KeyCtrlC:
				return
			}

		case termbox.EventInterrupt, termbox.EventError:
			return
		}
	}
}

func (t *Terminal) drawLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-t.handoff.C():
			t.Draw(e)
			t.canvas.Flush()
		}
	}
}

// Draw renders e on the canvas without flushing.
func (t *Terminal) Draw(e *render.Emission) {
	t.canvas.Clear()

	width, height := t.canvas.Size()
	if width < 1 || height < 2 {
		return
	}

	plot := height - 1

	switch {
	case e.Spectrum != nil:
		t.drawBars(e.Spectrum, width, plot)
	case e.Matrix.Width() > 0:
		t.drawWaterfall(e.Matrix, width, plot)
	}

	t.drawStatus(e, plot, width)
}

func (t *Terminal) drawWaterfall(m spectrogram.Matrix, width, height int) {
	cols := m.Width()
	peak := m.Max()
	levels := make([]float64, m.Bins)

	// Newest columns on the right; stretch when the terminal is wider.
	first := 0
	shown := cols
	if cols > width {
		first = cols - width
		shown = width
	}

	for x := 0; x < width; x++ {
		col := first + x*shown/width
		Levels(m.Columns[col], peak, true, t.DynamicRange, levels)

		for y := 0; y < height; y++ {
			bin := y * m.Bins / height
			attr := termbox.Attribute(Xterm256(Gradient(levels[bin])) + 1)
			t.canvas.SetCell(x, y, ' ', termbox.ColorDefault, attr)
		}
	}
}

func (t *Terminal) drawBars(values []float64, width, height int) {
	peak := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}

	scale := float64(height) / t.scaler.Update(peak)

	barWidth := width / len(values)
	if barWidth < 1 {
		barWidth = 1
	}

	// Leave a one cell gap between bars when there is room.
	drawn := barWidth
	if barWidth > 1 {
		drawn--
	}

	for xBin, v := range values {
		whole, frac := drawVars(v * scale)
		if whole > height {
			whole, frac = height, 0
		}

		for xCol := xBin * barWidth; xCol < xBin*barWidth+drawn; xCol++ {
			if xCol >= width {
				return
			}

			xRow := height - 1
			for n := 0; n < whole; n++ {
				t.canvas.SetCell(xCol, xRow, BarRune, termbox.ColorDefault, termbox.ColorDefault)
				xRow--
			}

			if frac > 0 && xRow >= 0 {
				t.canvas.SetCell(xCol, xRow, barHeightRunes[frac], termbox.ColorDefault, termbox.ColorDefault)
			}
		}
	}
}

func (t *Terminal) drawStatus(e *render.Emission, row, width int) {
	status := fmt.Sprintf(" #%d  %s  q: quit", e.Seq, e.Time.Format("15:04:05.000"))
	for x, ch := range []rune(status) {
		if x >= width {
			break
		}
		t.canvas.SetCell(x, row, ch, termbox.ColorDefault|termbox.AttrReverse, termbox.ColorDefault)
	}
}

func drawVars(value float64) (int, int) {
	whole, frac := math.Modf(value)
	return int(whole), int(frac * float64(len(barHeightRunes)-1))
}

// normalizeTerminal looks for incompatibilities in the terminal configuration
// with termbox and makes some adjustments to avoid problems.
//
// Returns a function that restores the original configuration.
func normalizeTerminal() (func(), error) {
	prevTERMINFO, had := os.LookupEnv("TERMINFO")

	if strings.HasPrefix(os.Getenv("TERM"), "tmux") {
		// Some combinations of TERMINFO with TERM in some Tmux value
		// will cause Termbox to fail.
		if err := os.Unsetenv("TERMINFO"); err != nil {
			return nil, err
		}
	}

	restore := func() {
		if had {
			os.Setenv("TERMINFO", prevTERMINFO)
		}
	}

	return restore, nil
}
