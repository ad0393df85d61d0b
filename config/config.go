// Package config holds the file configuration and its presets.
package config

import (
	"time"

	"github.com/siradar/zenith/dsp"
	"github.com/siradar/zenith/dsp/window"
	"github.com/siradar/zenith/frame"
	"github.com/siradar/zenith/spectrogram"
)

// Mode names.
const (
	ModeSpectrogram = "spectrogram"
	ModeSingle      = "single"
)

// Display types.
const (
	DisplayTerminal = "terminal"
	DisplayNumbers  = "numbers"
	DisplayNone     = "none"
)

// Config is the root of the YAML configuration file.
type Config struct {
	Mode    string        `yaml:"mode"`
	Wire    WireConfig    `yaml:"wire"`
	Decode  DecodeConfig  `yaml:"decode"`
	STFT    STFTConfig    `yaml:"stft"`
	Buffer  BufferConfig  `yaml:"buffer"`
	Render  RenderConfig  `yaml:"render"`
	Input   InputConfig   `yaml:"input"`
	Display DisplayConfig `yaml:"display"`
	HTTP    HTTPConfig    `yaml:"http"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// WireConfig is the notification payload layout.
type WireConfig struct {
	// WordWidth is 16 (Q15) or 32 (Q16.15).
	WordWidth   int  `yaml:"word_width"`
	WordCount   int  `yaml:"word_count"`
	Padding     int  `yaml:"padding"`
	RampCounter bool `yaml:"ramp_counter"`
	// UsedWords keeps only a leading prefix of the words. 0 keeps all.
	UsedWords int `yaml:"used_words"`
}

// DecodeConfig holds the per-sample corrections.
type DecodeConfig struct {
	BiasCorrection bool    `yaml:"bias_correction"`
	Bias           float64 `yaml:"bias"`
	BiasSamples    int     `yaml:"bias_samples"`
	Conjugate      bool    `yaml:"conjugate"`
}

// STFTConfig configures the transform.
type STFTConfig struct {
	WindowSize int    `yaml:"window_size"`
	HopSize    int    `yaml:"hop_size"`
	Window     string `yaml:"window"`
	DeviceBins bool   `yaml:"device_bins"`
}

// BufferConfig configures the spectrogram buffer.
type BufferConfig struct {
	Width int     `yaml:"width"`
	Fill  float64 `yaml:"fill"`
	Grow  bool    `yaml:"grow"`
}

// RenderConfig configures the render gate.
type RenderConfig struct {
	PeriodMS int `yaml:"period_ms"`
}

// InputConfig selects the notification source.
type InputConfig struct {
	Backend string  `yaml:"backend"`
	Device  string  `yaml:"device"`
	RateHz  float64 `yaml:"rate_hz"`
}

// DisplayConfig selects the local presentation.
type DisplayConfig struct {
	Type string `yaml:"type"`
	// SampleRate and RampTime label heatmap rows with distances when the
	// sample rate is set.
	SampleRate float64 `yaml:"sample_rate"`
	RampTime   float64 `yaml:"ramp_time"`
}

// HTTPConfig configures the snapshot server. An empty Listen disables it.
type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// MetricsConfig toggles the Prometheus exporter.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Spectrogram returns the preset for the scrolling spectrogram front end:
// 60 Q16.15 words and 7 bytes of padding, 20 point windows, 200 columns.
func Spectrogram() Config {
	return Config{
		Mode: ModeSpectrogram,
		Wire: WireConfig{
			WordWidth: frame.Q16_15,
			WordCount: 60,
			Padding:   7,
		},
		STFT: STFTConfig{
			WindowSize: 20,
			HopSize:    20,
			Window:     "hann",
		},
		Buffer: BufferConfig{Width: 200},
		Render: RenderConfig{PeriodMS: 50},
		Input:  InputConfig{Backend: "udp"},
		Display: DisplayConfig{
			Type:     DisplayTerminal,
			RampTime: dsp.DefaultRampTime,
		},
	}
}

// SingleSpectrum returns the preset for the single spectrum front end:
// 120 Q15 words, a ramp counter and 5 bytes of padding, of which the first
// 40 words are used.
func SingleSpectrum() Config {
	return Config{
		Mode: ModeSingle,
		Wire: WireConfig{
			WordWidth:   frame.Q15,
			WordCount:   120,
			Padding:     5,
			RampCounter: true,
			UsedWords:   40,
		},
		Decode: DecodeConfig{
			BiasCorrection: true,
			Bias:           1.0,
			BiasSamples:    2,
		},
		Render: RenderConfig{PeriodMS: 50},
		Input:  InputConfig{Backend: "udp"},
		Display: DisplayConfig{
			Type:     DisplayTerminal,
			RampTime: dsp.DefaultRampTime,
		},
	}
}

// Preset returns the preset for mode, or false if the mode is unknown.
func Preset(mode string) (Config, bool) {
	switch mode {
	case ModeSpectrogram, "":
		return Spectrogram(), true
	case ModeSingle:
		return SingleSpectrum(), true
	default:
		return Config{}, false
	}
}

// FrameConfig returns the decoder configuration.
func (cfg *Config) FrameConfig() frame.Config {
	return frame.Config{
		WordWidth:      cfg.Wire.WordWidth,
		WordCount:      cfg.Wire.WordCount,
		RampCounter:    cfg.Wire.RampCounter,
		Padding:        cfg.Wire.Padding,
		UsedWords:      cfg.Wire.UsedWords,
		BiasCorrection: cfg.Decode.BiasCorrection,
		Bias:           cfg.Decode.Bias,
		BiasSamples:    cfg.Decode.BiasSamples,
		Conjugate:      cfg.Decode.Conjugate,
	}
}

// TransformConfig returns the STFT configuration. Length is left for the
// processor to fill in from the frame layout.
func (cfg *Config) TransformConfig() (dsp.STFTConfig, error) {
	out := dsp.STFTConfig{
		WindowSize: cfg.STFT.WindowSize,
		HopSize:    cfg.STFT.HopSize,
		DeviceBins: cfg.STFT.DeviceBins,
	}

	if cfg.Mode == ModeSingle {
		out.Mode = dsp.ModeSingle
		return out, nil
	}

	fn, err := window.ByName(cfg.STFT.Window)
	if err != nil {
		return out, err
	}

	out.Mode = dsp.ModeSpectrogram
	out.Window = fn

	return out, nil
}

// BufferConfig returns the spectrogram buffer configuration without a
// height; the processor sets it from the transform.
func (cfg *Config) BufferConfig() spectrogram.Config {
	return spectrogram.Config{
		Width: cfg.Buffer.Width,
		Fill:  cfg.Buffer.Fill,
		Grow:  cfg.Buffer.Grow,
	}
}

// RenderPeriod returns the render gate period.
func (cfg *Config) RenderPeriod() time.Duration {
	return time.Duration(cfg.Render.PeriodMS) * time.Millisecond
}
