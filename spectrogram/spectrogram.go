// Package spectrogram holds the scrolling time-frequency buffer.
package spectrogram

import (
	"github.com/pkg/errors"
)

// ErrColumnSize is returned when a column does not match the buffer height.
var ErrColumnSize = errors.New("column size mismatch")

// Config configures a Buffer.
type Config struct {
	Width  int     // number of time columns kept
	Height int     // bins per column
	Fill   float64 // placeholder value for prefilled columns
	// Grow starts the buffer empty instead of prefilling it with Width
	// placeholder columns.
	Grow bool
}

// Validate checks the config.
func (cfg Config) Validate() error {
	switch {
	case cfg.Width <= 0:
		return errors.Errorf("buffer width %d must be positive", cfg.Width)
	case cfg.Height <= 0:
		return errors.Errorf("buffer height %d must be positive", cfg.Height)
	}

	return nil
}

// Matrix is a read-only copy of the buffer. Columns are ordered oldest to
// newest and each one holds Bins values.
type Matrix struct {
	Bins    int
	Columns [][]float64
}

// Width returns the number of columns.
func (m Matrix) Width() int {
	return len(m.Columns)
}

// At returns the value of bin in column col.
func (m Matrix) At(col, bin int) float64 {
	return m.Columns[col][bin]
}

// Max returns the largest value in the matrix.
func (m Matrix) Max() float64 {
	var max float64
	for _, col := range m.Columns {
		for _, v := range col {
			if v > max {
				max = v
			}
		}
	}
	return max
}

// Buffer is a fixed size ring of spectrum columns. Appending past capacity
// evicts the oldest column. A Buffer is not safe for concurrent use.
type Buffer struct {
	data   []float64 // Width*Height values, column major
	width  int
	height int
	head   int // physical index of the oldest column
	count  int // columns held, <= width

	appended uint64
}

// New returns a buffer for cfg.
func New(cfg Config) (*Buffer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Buffer{
		data:   make([]float64, cfg.Width*cfg.Height),
		width:  cfg.Width,
		height: cfg.Height,
	}

	if !cfg.Grow {
		if cfg.Fill != 0 {
			for i := range b.data {
				b.data[i] = cfg.Fill
			}
		}
		b.count = cfg.Width
	}

	return b, nil
}

// Width returns the capacity in columns.
func (b *Buffer) Width() int {
	return b.width
}

// Height returns the number of bins per column.
func (b *Buffer) Height() int {
	return b.height
}

// Len returns the number of columns currently held.
func (b *Buffer) Len() int {
	return b.count
}

// Appended returns the total number of columns ever appended.
func (b *Buffer) Appended() uint64 {
	return b.appended
}

// Append copies column into the buffer as the newest column.
func (b *Buffer) Append(column []float64) error {
	if len(column) != b.height {
		return errors.Wrapf(ErrColumnSize, "got %d bins, want %d", len(column), b.height)
	}

	var slot int
	if b.count < b.width {
		slot = (b.head + b.count) % b.width
		b.count++
	} else {
		slot = b.head
		b.head = (b.head + 1) % b.width
	}

	copy(b.data[slot*b.height:(slot+1)*b.height], column)
	b.appended++

	return nil
}

// Snapshot returns a copy of the held columns, oldest first.
func (b *Buffer) Snapshot() Matrix {
	backing := make([]float64, b.count*b.height)
	cols := make([][]float64, b.count)

	for i := range cols {
		slot := (b.head + i) % b.width
		col := backing[i*b.height : (i+1)*b.height : (i+1)*b.height]
		copy(col, b.data[slot*b.height:(slot+1)*b.height])
		cols[i] = col
	}

	return Matrix{Bins: b.height, Columns: cols}
}

// Reset clears the buffer back to its initial state.
func (b *Buffer) Reset(fill float64, grow bool) {
	for i := range b.data {
		b.data[i] = fill
	}

	b.head = 0
	b.appended = 0

	if grow {
		b.count = 0
	} else {
		b.count = b.width
	}
}
