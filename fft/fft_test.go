package fft

import (
	"math"
	"math/cmplx"
	"testing"
)

func naiveDFT(in []complex128) []complex128 {
	n := len(in)
	out := make([]complex128, n)
	for k := range out {
		var sum complex128
		for t, v := range in {
			angle := -2 * math.Pi * float64(k*t) / float64(n)
			sum += v * cmplx.Exp(complex(0, angle))
		}
		out[k] = sum
	}
	return out
}

func TestPlanMatchesDFT(t *testing.T) {
	for _, size := range []int{2, 5, 20, 30, 64} {
		in := make([]complex128, size)
		for i := range in {
			in[i] = complex(math.Sin(float64(i)*0.7), math.Cos(float64(i)*1.3))
		}

		out := make([]complex128, size)
		plan := NewPlan(in, out)
		plan.Execute()

		want := naiveDFT(in)
		for k := range want {
			if cmplx.Abs(out[k]-want[k]) > 1e-9 {
				t.Errorf("size %d bin %d: got %v, want %v", size, k, out[k], want[k])
			}
		}
	}
}

func TestPlanReuse(t *testing.T) {
	in := make([]complex128, 8)
	out := make([]complex128, 8)

	var plan *Plan
	InitPlan(&plan, in, out)

	in[0] = 1
	plan.Execute()
	for k, v := range out {
		if v != 1 {
			t.Fatalf("impulse bin %d = %v, want 1", k, v)
		}
	}

	in[0] = 0
	in[1] = 1
	plan.Execute()
	for k, v := range out {
		if math.Abs(cmplx.Abs(v)-1) > 1e-12 {
			t.Fatalf("shifted impulse bin %d magnitude = %v, want 1", k, cmplx.Abs(v))
		}
	}
}

func Benchmark(b *testing.B) {
	in := generateSamples()
	out := make([]complex128, len(in))
	plan := NewPlan(in, out)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		plan.Execute()
	}
}

const numSamples = 128

func generateSamples() []complex128 {
	input := make([]complex128, numSamples)

	c := 3.1
	for i := range input {
		c += 0.3
		input[i] = complex(2*c-c*c, c)
	}

	return input
}
