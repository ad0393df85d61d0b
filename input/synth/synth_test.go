package synth

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/siradar/zenith/dsp"
	"github.com/siradar/zenith/frame"
	"github.com/siradar/zenith/input"
)

func layout() frame.Config {
	return frame.Config{WordWidth: frame.Q16_15, WordCount: 60, Padding: 7}
}

func TestToneDecodes(t *testing.T) {
	gen, err := NewGenerator(layout(), Tone, 1)
	if err != nil {
		t.Fatal(err)
	}

	dec, err := frame.NewDecoder(layout())
	if err != nil {
		t.Fatal(err)
	}

	st, err := dsp.NewSTFT(dsp.STFTConfig{Length: 30, WindowSize: 20, HopSize: 10})
	if err != nil {
		t.Fatal(err)
	}

	raw, err := gen.Next()
	if err != nil {
		t.Fatal(err)
	}

	if len(raw) != 247 {
		t.Fatalf("payload is %d bytes, want 247", len(raw))
	}

	f, err := dec.Decode(raw)
	if err != nil {
		t.Fatal(err)
	}

	cols, err := st.Transform(f.Samples)
	if err != nil {
		t.Fatal(err)
	}

	// 0.25 cycles per sample over 20 points is bin 5.
	for i, col := range cols {
		best := 0
		for k := range col {
			if col[k] > col[best] {
				best = k
			}
		}
		if best != 5 {
			t.Errorf("column %d peaks at %d, want 5", i, best)
		}
	}
}

func TestRampCounter(t *testing.T) {
	cfg := frame.Config{WordWidth: frame.Q15, WordCount: 120, RampCounter: true, Padding: 5, UsedWords: 40}

	gen, err := NewGenerator(cfg, Noise, 7)
	if err != nil {
		t.Fatal(err)
	}

	dec, err := frame.NewDecoder(cfg)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		raw, err := gen.Next()
		if err != nil {
			t.Fatal(err)
		}

		f, err := dec.Decode(raw)
		if err != nil {
			t.Fatal(err)
		}

		if !f.HasRamp || f.Ramp != uint16(i) {
			t.Errorf("frame %d ramp = %d (%v)", i, f.Ramp, f.HasRamp)
		}
	}
}

func TestSweepMoves(t *testing.T) {
	gen, _ := NewGenerator(layout(), Sweep, 1)

	first := gen.Frequency()
	for i := 0; i < 10; i++ {
		gen.Next()
	}

	if gen.Frequency() == first {
		t.Error("sweep frequency did not change")
	}

	for i := 0; i < 1000; i++ {
		gen.Next()
		if f := gen.Frequency(); f <= 0 || f > 0.5+2*sweepStep {
			t.Fatalf("sweep left the band: %v", f)
		}
	}
}

func TestDeterministic(t *testing.T) {
	a, _ := NewGenerator(layout(), Sweep, 42)
	b, _ := NewGenerator(layout(), Sweep, 42)

	for i := 0; i < 3; i++ {
		pa, _ := a.Next()
		pb, _ := b.Next()
		if !bytes.Equal(pa, pb) {
			t.Fatalf("payload %d differs for equal seeds", i)
		}
	}
}

func TestUnknownDevice(t *testing.T) {
	if _, err := NewGenerator(layout(), Device("chirp"), 1); err == nil {
		t.Error("unknown device accepted")
	}
}

func TestSessionStopsOnCancel(t *testing.T) {
	b, err := input.InitBackend("synth")
	if err != nil {
		t.Fatal(err)
	}

	dev, err := input.GetDevice(b, "tone")
	if err != nil {
		t.Fatal(err)
	}

	sess, err := b.Start(input.SessionConfig{Device: dev, Frame: layout(), Rate: 1000})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	dst := make(chan []byte, 1024)
	err = sess.Start(ctx, dst)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Start returned %v", err)
	}

	if len(dst) == 0 {
		t.Error("no payloads generated")
	}
}
