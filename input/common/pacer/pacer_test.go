package pacer

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func counter(limit int) func() ([]byte, error) {
	n := 0
	return func() ([]byte, error) {
		if n == limit {
			return nil, io.EOF
		}
		n++
		return []byte{byte(n)}, nil
	}
}

func TestInterval(t *testing.T) {
	if d := Interval(50); d != 20*time.Millisecond {
		t.Errorf("Interval(50) = %v", d)
	}

	if d := Interval(0); d != 0 {
		t.Errorf("Interval(0) = %v", d)
	}
}

func TestRunUnpaced(t *testing.T) {
	dst := make(chan []byte, 10)

	if err := Run(context.Background(), 0, dst, counter(5)); err != nil {
		t.Fatal(err)
	}
	close(dst)

	want := byte(1)
	for p := range dst {
		if p[0] != want {
			t.Fatalf("got payload %d, want %d", p[0], want)
		}
		want++
	}

	if want != 6 {
		t.Errorf("delivered %d payloads, want 5", want-1)
	}
}

func TestRunPaced(t *testing.T) {
	dst := make(chan []byte, 10)

	start := time.Now()
	if err := Run(context.Background(), 200, dst, counter(4)); err != nil {
		t.Fatal(err)
	}

	// Four payloads need at least three ticks of 5ms.
	if d := time.Since(start); d < 15*time.Millisecond {
		t.Errorf("paced run took %v", d)
	}

	if len(dst) != 4 {
		t.Errorf("delivered %d payloads, want 4", len(dst))
	}
}

func TestRunCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Unbuffered and never read: only cancellation can end the run.
	err := Run(ctx, 0, make(chan []byte), counter(100))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestRunError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(context.Background(), 0, make(chan []byte, 1), func() ([]byte, error) {
		return nil, boom
	})

	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want boom", err)
	}
}
