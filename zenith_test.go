package zenith

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/siradar/zenith/config"
	"github.com/siradar/zenith/render"

	_ "github.com/siradar/zenith/input/synth"
)

func synthConfig(mode string) *config.Config {
	file, _ := config.Preset(mode)
	file.Input = config.InputConfig{Backend: "synth", Device: "tone", RateHz: 500}
	file.Render.PeriodMS = 5
	file.Display.Type = config.DisplayNone
	return &file
}

func TestValidateFillsSession(t *testing.T) {
	cfg := Config{File: synthConfig(config.ModeSpectrogram)}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Session == uuid.Nil {
		t.Fatal("session not set")
	}

	if err := (&Config{}).Validate(); err == nil {
		t.Fatal("expected error without a file config")
	}
}

func TestRunDeliversEmissions(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var got []*render.Emission
	setup, cleanup := 0, 0

	cfg := Config{
		File: synthConfig(config.ModeSpectrogram),
		Outputs: []render.Output{render.OutputFunc(func(e *render.Emission) error {
			got = append(got, e)
			if len(got) == 3 {
				cancel()
			}
			return nil
		})},
		SetupFunc:   func() error { setup++; return nil },
		CleanupFunc: func() error { cleanup++; return nil },
	}

	if err := Run(&cfg, ctx); err != nil {
		t.Fatal(err)
	}

	if setup != 1 || cleanup != 1 {
		t.Fatalf("hooks: setup %d, cleanup %d", setup, cleanup)
	}
	if len(got) < 3 {
		t.Fatalf("expected 3 emissions, got %d", len(got))
	}

	for i, e := range got[:3] {
		if e.Seq != uint64(i+1) {
			t.Errorf("emission %d has seq %d", i, e.Seq)
		}
		if e.Session != cfg.Session {
			t.Errorf("emission %d has session %s", i, e.Session)
		}
		if e.Matrix.Width() != 200 || e.Matrix.Bins != 20 {
			t.Errorf("emission %d has a %dx%d matrix", i, e.Matrix.Width(), e.Matrix.Bins)
		}
	}
}

func TestRunStartFuncEndsRun(t *testing.T) {
	var stop context.CancelFunc
	defer func() {
		if stop != nil {
			stop()
		}
	}()

	cfg := Config{
		File: synthConfig(config.ModeSingle),
		StartFunc: func(ctx context.Context) (context.Context, error) {
			ctx, stop = context.WithTimeout(ctx, 50*time.Millisecond)
			return ctx, nil
		},
	}

	done := make(chan error, 1)
	go func() { done <- Run(&cfg, context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run did not end with the start context")
	}
}

func TestRunReload(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reload := make(chan *config.Config, 1)
	sawSingle := false

	cfg := Config{
		File:   synthConfig(config.ModeSpectrogram),
		Reload: reload,
		Outputs: []render.Output{render.OutputFunc(func(e *render.Emission) error {
			switch {
			case e.Spectrum != nil:
				sawSingle = true
				cancel()
			case e.Matrix.Width() > 0 && len(reload) == 0 && !sawSingle:
				select {
				case reload <- synthConfig(config.ModeSingle):
				default:
				}
			}
			return nil
		})},
	}

	if err := Run(&cfg, ctx); err != nil {
		t.Fatal(err)
	}

	if !sawSingle {
		t.Fatal("pipeline did not restart in single mode")
	}
}

func TestRunUnknownBackend(t *testing.T) {
	file := synthConfig(config.ModeSpectrogram)
	file.Input.Backend = "nope"

	if err := Run(&Config{File: file}, context.Background()); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}
