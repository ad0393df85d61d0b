package util

import (
	"math"
)

const (
	// ScalingDumpPercent is how much history is erased on a rescale.
	ScalingDumpPercent = 0.75
	// ScalingResetDeviation is how many standard deviations the fast mean may
	// move from the slow mean before history is dropped.
	ScalingResetDeviation = 1.0
	// scalingJump is the ratio of peak to ceiling that forces a rescale.
	scalingJump = 1.4
)

// Scaler tracks frame peaks over a slow and a fast window and returns a
// ceiling that follows the signal level without jumping on every frame.
type Scaler struct {
	slow  *MovingWindow
	fast  *MovingWindow
	floor float64
}

// NewScaler returns a scaler. slow and fast are window sizes in frames;
// floor is the smallest ceiling ever returned.
func NewScaler(slow, fast int, floor float64) *Scaler {
	return &Scaler{
		slow:  NewMovingWindow(slow),
		fast:  NewMovingWindow(fast),
		floor: floor,
	}
}

// Update records a frame peak and returns the ceiling to scale by.
func (s *Scaler) Update(peak float64) float64 {
	if peak <= 0 {
		return s.ceiling(s.slow.Stats())
	}

	s.fast.Update(peak)
	vMean, vSD := s.slow.Update(peak)

	if length := s.slow.Len(); length >= s.fast.Cap() {
		if math.Abs(s.fast.Mean()-vMean) > ScalingResetDeviation*vSD {
			vMean, vSD = s.slow.Drop(int(float64(length) * ScalingDumpPercent))
		}
	}

	if peak/s.ceiling(vMean, vSD) > scalingJump {
		vMean, vSD = s.slow.Drop(int(float64(s.slow.Len()) * ScalingDumpPercent))
	}

	return s.ceiling(vMean, vSD)
}

func (s *Scaler) ceiling(mean, sd float64) float64 {
	return math.Max(mean+1.5*sd, s.floor)
}
