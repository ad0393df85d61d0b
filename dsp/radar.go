package dsp

// Front end constants for the FMCW ramp.
const (
	// RampBandwidth is the swept bandwidth of one ramp in Hz.
	RampBandwidth = 2e9
	// DefaultRampTime is the ramp duration in seconds.
	DefaultRampTime = 525e-6
	// DeviceFFTSize is the FFT size used on the front end.
	DeviceFFTSize = 256

	speedOfLight = 299792458.0
)

// DistanceToBin returns the (fractional) device FFT bin a target at distance
// metres falls into, for the given ADC sample rate and ramp time.
func DistanceToBin(distance, sampleRate, rampTime float64) float64 {
	if rampTime <= 0 {
		rampTime = DefaultRampTime
	}

	freq := distance * 2 * RampBandwidth / (rampTime * speedOfLight)

	return freq / sampleRate * DeviceFFTSize
}

// BinToDistance is the inverse of DistanceToBin.
func BinToDistance(bin, sampleRate, rampTime float64) float64 {
	if rampTime <= 0 {
		rampTime = DefaultRampTime
	}

	freq := bin / DeviceFFTSize * sampleRate

	return freq * rampTime * speedOfLight / (2 * RampBandwidth)
}
