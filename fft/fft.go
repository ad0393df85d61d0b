// Package fft wraps a reusable complex fourier transform plan.
package fft

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// Plan holds a gonum complex FFT plan bound to an input and output buffer.
type Plan struct {
	Input  []complex128
	Output []complex128
	fft    *fourier.CmplxFFT
}

// NewPlan returns a plan computing the len(in)-point forward transform of in
// into out. out must be at least as long as in.
func NewPlan(in, out []complex128) *Plan {
	return &Plan{
		Input:  in,
		Output: out,
		fft:    fourier.NewCmplxFFT(len(in)),
	}
}

// InitPlan builds a plan into pointer.
func InitPlan(pointer **Plan, input, output []complex128) {
	*pointer = NewPlan(input, output)
}

// Len returns the transform size.
func (p *Plan) Len() int {
	return len(p.Input)
}

// Execute runs the forward transform. The output is not normalized:
// Output[k] = sum_n Input[n] * exp(-2*pi*i*k*n/N).
func (p *Plan) Execute() {
	p.fft.Coefficients(p.Output[:len(p.Input)], p.Input)
}
