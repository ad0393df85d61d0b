package display

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/siradar/zenith/render"
	"github.com/siradar/zenith/util"
)

// NumberScale is the value the current ceiling maps to.
const NumberScale = 100.0

// NumberWriter prints one line of scaled values per emission. For spectrogram
// emissions the newest column is printed.
type NumberWriter struct {
	mu     sync.Mutex
	w      *bufio.Writer
	scaler *util.Scaler
}

// NewNumberWriter returns a NumberWriter writing to w.
func NewNumberWriter(w io.Writer) *NumberWriter {
	return &NumberWriter{
		w:      bufio.NewWriter(w),
		scaler: util.NewScaler(ScalingSlowWindow, ScalingFastWindow, 1e-12),
	}
}

// Write prints e.
func (nw *NumberWriter) Write(e *render.Emission) error {
	values := e.Spectrum
	if values == nil {
		if e.Matrix.Width() == 0 {
			return nil
		}
		values = e.Matrix.Columns[e.Matrix.Width()-1]
	}

	nw.mu.Lock()
	defer nw.mu.Unlock()

	peak := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}

	scale := NumberScale / nw.scaler.Update(peak)

	var buf []byte
	for _, v := range values {
		buf = fmt.Appendf(buf, "%6.2f ", v*scale)
	}
	buf = append(buf, '\n')

	if _, err := nw.w.Write(buf); err != nil {
		return errors.Wrap(err, "failed to write numbers")
	}

	return errors.Wrap(nw.w.Flush(), "failed to flush numbers")
}
