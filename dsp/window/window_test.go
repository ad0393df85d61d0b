package window

import (
	"math"
	"testing"
)

const epsilon = 1e-12

func TestHannMatchesReference(t *testing.T) {
	// numpy.hanning(5)
	want := []float64{0, 0.5, 1, 0.5, 0}

	got := Make(5, Hann)
	for i := range want {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("hann[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestWindowsAreSymmetric(t *testing.T) {
	for name, fn := range byName {
		w := Make(20, fn)
		for i := 0; i < len(w)/2; i++ {
			if math.Abs(w[i]-w[len(w)-1-i]) > 1e-9 {
				t.Errorf("%s: w[%d]=%v w[%d]=%v", name, i, w[i], len(w)-1-i, w[len(w)-1-i])
			}
		}
	}
}

func TestBlackmanEnds(t *testing.T) {
	w := Make(21, Blackman)
	if math.Abs(w[0]) > 1e-9 || math.Abs(w[10]-1) > 1e-9 {
		t.Errorf("blackman ends/peak = %v / %v", w[0], w[10])
	}
}

func TestRectangle(t *testing.T) {
	for _, v := range Make(8, Rectangle) {
		if v != 1 {
			t.Fatalf("rectangle value %v", v)
		}
	}
}

func TestTinyWindows(t *testing.T) {
	if w := Make(1, Hann); w[0] != 1 {
		t.Errorf("single point hann = %v, want 1", w[0])
	}

	if w := Make(0, Hann); len(w) != 0 {
		t.Errorf("empty window has %d points", len(w))
	}
}

func TestByName(t *testing.T) {
	if fn, err := ByName(""); err != nil || fn == nil {
		t.Errorf("default window: %v", err)
	}

	if _, err := ByName("HANN"); err != nil {
		t.Errorf("case-insensitive lookup: %v", err)
	}

	if _, err := ByName("kaiser"); err == nil {
		t.Error("expected an error for an unknown window")
	}
}
