package spectrogram

import (
	"errors"
	"testing"
)

func column(height int, v float64) []float64 {
	col := make([]float64, height)
	for i := range col {
		col[i] = v + float64(i)/1000
	}
	return col
}

func TestPrefilled(t *testing.T) {
	buf, err := New(Config{Width: 4, Height: 3, Fill: -1})
	if err != nil {
		t.Fatal(err)
	}

	snap := buf.Snapshot()
	if snap.Width() != 4 || snap.Bins != 3 {
		t.Fatalf("snapshot %dx%d, want 4x3", snap.Width(), snap.Bins)
	}

	for c := range snap.Columns {
		for k := range snap.Columns[c] {
			if snap.At(c, k) != -1 {
				t.Fatalf("placeholder at (%d, %d) = %v", c, k, snap.At(c, k))
			}
		}
	}
}

func TestScrollInvariant(t *testing.T) {
	const (
		width  = 5
		height = 4
		total  = 23
	)

	buf, err := New(Config{Width: width, Height: height})
	if err != nil {
		t.Fatal(err)
	}

	for k := 0; k < total; k++ {
		if err := buf.Append(column(height, float64(k))); err != nil {
			t.Fatal(err)
		}

		snap := buf.Snapshot()
		if snap.Width() != width {
			t.Fatalf("after %d appends width = %d", k+1, snap.Width())
		}

		// Newest column is always on the right.
		if got := snap.At(width-1, 0); got != float64(k) {
			t.Fatalf("after column %d rightmost = %v", k, got)
		}

		if k >= width {
			if got, want := snap.At(0, 0), float64(k-width+1); got != want {
				t.Fatalf("after column %d leftmost = %v, want %v", k, got, want)
			}
		}

		for c := 1; c < width; c++ {
			if snap.At(c, 0) <= snap.At(c-1, 0) && k >= width {
				t.Fatalf("columns out of order after %d: %v", k, snap.Columns)
			}
		}
	}

	if buf.Appended() != total {
		t.Errorf("Appended() = %d, want %d", buf.Appended(), total)
	}
}

func TestGrow(t *testing.T) {
	buf, err := New(Config{Width: 3, Height: 2, Grow: true})
	if err != nil {
		t.Fatal(err)
	}

	if buf.Snapshot().Width() != 0 {
		t.Fatal("grow buffer should start empty")
	}

	for k := 0; k < 5; k++ {
		buf.Append(column(2, float64(k)))

		want := k + 1
		if want > 3 {
			want = 3
		}

		if got := buf.Snapshot().Width(); got != want {
			t.Fatalf("after %d appends width = %d, want %d", k+1, got, want)
		}
	}

	snap := buf.Snapshot()
	for c, want := range []float64{2, 3, 4} {
		if snap.At(c, 0) != want {
			t.Errorf("column %d = %v, want %v", c, snap.At(c, 0), want)
		}
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	buf, _ := New(Config{Width: 2, Height: 2})
	buf.Append([]float64{1, 2})

	snap := buf.Snapshot()
	snap.Columns[1][0] = 99

	buf.Append([]float64{3, 4})

	if got := buf.Snapshot().At(0, 0); got != 1 {
		t.Errorf("snapshot mutation leaked into buffer: %v", got)
	}
}

func TestAppendCopiesColumn(t *testing.T) {
	buf, _ := New(Config{Width: 2, Height: 2})

	col := []float64{1, 2}
	buf.Append(col)
	col[0] = 50

	if got := buf.Snapshot().At(1, 0); got != 1 {
		t.Errorf("buffer aliases the appended slice: %v", got)
	}
}

func TestColumnSize(t *testing.T) {
	buf, _ := New(Config{Width: 2, Height: 3})

	before := buf.Snapshot()

	if err := buf.Append([]float64{1, 2}); !errors.Is(err, ErrColumnSize) {
		t.Fatalf("error = %v, want ErrColumnSize", err)
	}

	if buf.Appended() != 0 {
		t.Error("rejected column counted as appended")
	}

	after := buf.Snapshot()
	for c := range before.Columns {
		for k := range before.Columns[c] {
			if before.At(c, k) != after.At(c, k) {
				t.Fatal("rejected column mutated the buffer")
			}
		}
	}
}

func TestInvalidConfig(t *testing.T) {
	for _, cfg := range []Config{{Width: 0, Height: 2}, {Width: 2, Height: 0}, {Width: -1, Height: -1}} {
		if _, err := New(cfg); err == nil {
			t.Errorf("New(%+v) succeeded", cfg)
		}
	}
}

func TestReset(t *testing.T) {
	buf, _ := New(Config{Width: 3, Height: 1})
	buf.Append([]float64{7})
	buf.Reset(0, true)

	if buf.Len() != 0 || buf.Appended() != 0 {
		t.Errorf("after reset Len=%d Appended=%d", buf.Len(), buf.Appended())
	}
}

func BenchmarkAppend(b *testing.B) {
	buf, _ := New(Config{Width: 200, Height: 20})
	col := column(20, 1)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		buf.Append(col)
	}
}
