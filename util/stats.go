// Package util holds the running statistics used to auto-scale displays.
package util

import (
	"math"
)

// MovingWindow keeps the mean and standard deviation of the last Cap()
// values.
type MovingWindow struct {
	values []float64
	head   int // index of the oldest value
	length int

	sum   float64
	sumSq float64

	average float64
	stddev  float64
}

// NewMovingWindow returns a new moving window.
func NewMovingWindow(size int) *MovingWindow {
	if size < 1 {
		size = 1
	}

	return &MovingWindow{values: make([]float64, size)}
}

func (mw *MovingWindow) calcFinal() (float64, float64) {
	if mw.length > 0 {
		mw.average = mw.sum / float64(mw.length)
	} else {
		mw.average = 0
	}

	if mw.length > 1 {
		n := float64(mw.length)
		variance := (mw.sumSq - n*mw.average*mw.average) / (n - 1)
		mw.stddev = math.Sqrt(math.Abs(variance))
	} else {
		mw.stddev = 0
	}

	return mw.average, mw.stddev
}

// Update adds value, evicting the oldest one when full, and returns the new
// mean and standard deviation.
func (mw *MovingWindow) Update(value float64) (float64, float64) {
	if mw.length < len(mw.values) {
		mw.values[(mw.head+mw.length)%len(mw.values)] = value
		mw.length++
	} else {
		old := mw.values[mw.head]
		mw.sum -= old
		mw.sumSq -= old * old

		mw.values[mw.head] = value
		mw.head = (mw.head + 1) % len(mw.values)
	}

	mw.sum += value
	mw.sumSq += value * value

	return mw.calcFinal()
}

// Drop removes the count oldest values.
func (mw *MovingWindow) Drop(count int) (float64, float64) {
	for ; count > 0 && mw.length > 0; count-- {
		old := mw.values[mw.head]
		mw.sum -= old
		mw.sumSq -= old * old

		mw.head = (mw.head + 1) % len(mw.values)
		mw.length--
	}

	// Clear rounding residue.
	if mw.length == 0 {
		mw.sum = 0
		mw.sumSq = 0
	}

	return mw.calcFinal()
}

// Len returns how many items in the window
func (mw *MovingWindow) Len() int {
	return mw.length
}

// Cap returns max size of window
func (mw *MovingWindow) Cap() int {
	return len(mw.values)
}

// Mean is the moving window average
func (mw *MovingWindow) Mean() float64 {
	return mw.average
}

// StdDev is the moving window standard deviation
func (mw *MovingWindow) StdDev() float64 {
	return mw.stddev
}

// Stats returns the statistics of this window
func (mw *MovingWindow) Stats() (float64, float64) {
	return mw.average, mw.stddev
}
