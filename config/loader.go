package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"net"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/siradar/zenith/dsp"
	"github.com/siradar/zenith/dsp/window"
)

// Load reads the YAML file at path over the preset its mode selects and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: open %q", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config: parse %q", path)
	}

	return cfg, nil
}

// Parse decodes data over the preset named by its mode key and validates
// the result.
func Parse(data []byte) (*Config, error) {
	var head struct {
		Mode string `yaml:"mode"`
	}

	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, errors.Wrap(err, "config: decode yaml")
	}

	preset, ok := Preset(head.Mode)
	if !ok {
		return nil, errors.Errorf("config: unknown mode %q; valid values: %s, %s",
			head.Mode, ModeSpectrogram, ModeSingle)
	}

	return LoadFromReader(bytes.NewReader(data), preset)
}

// LoadFromReader decodes YAML from r over preset and validates the result.
// Keys the schema does not know are rejected.
func LoadFromReader(r io.Reader, preset Config) (*Config, error) {
	cfg := preset

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "config: decode yaml")
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that cfg describes a pipeline that can be built. It
// returns every problem found joined into one error.
func Validate(cfg *Config) error {
	var errs []error

	switch cfg.Mode {
	case ModeSpectrogram, ModeSingle:
	default:
		errs = append(errs, errors.Errorf("mode %q is invalid; valid values: %s, %s",
			cfg.Mode, ModeSpectrogram, ModeSingle))
	}

	fc := cfg.FrameConfig()
	if err := fc.Validate(); err != nil {
		errs = append(errs, errors.Wrap(err, "wire"))
	} else if cfg.Mode == ModeSpectrogram {
		errs = append(errs, validateTransform(cfg, fc.Used()/2)...)
	}

	if cfg.Mode == ModeSpectrogram && cfg.Buffer.Width <= 0 {
		errs = append(errs, errors.Errorf("buffer.width %d must be positive", cfg.Buffer.Width))
	}

	if cfg.Render.PeriodMS < 0 {
		errs = append(errs, errors.Errorf("render.period_ms %d must not be negative", cfg.Render.PeriodMS))
	}

	if cfg.Input.RateHz < 0 {
		errs = append(errs, errors.Errorf("input.rate_hz %v must not be negative", cfg.Input.RateHz))
	}

	switch cfg.Display.Type {
	case DisplayTerminal, DisplayNumbers, DisplayNone, "":
	default:
		errs = append(errs, errors.Errorf("display.type %q is invalid; valid values: %s, %s, %s",
			cfg.Display.Type, DisplayTerminal, DisplayNumbers, DisplayNone))
	}

	if cfg.Display.SampleRate < 0 || cfg.Display.RampTime < 0 {
		errs = append(errs, errors.New("display.sample_rate and display.ramp_time must not be negative"))
	}

	if cfg.HTTP.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.HTTP.Listen); err != nil {
			errs = append(errs, errors.Wrapf(err, "http.listen %q", cfg.HTTP.Listen))
		}
	}

	return stderrors.Join(errs...)
}

func validateTransform(cfg *Config, length int) []error {
	var errs []error

	if _, err := window.ByName(cfg.STFT.Window); err != nil {
		errs = append(errs, errors.Wrap(err, "stft.window"))
	}

	_, err := dsp.NewSTFT(dsp.STFTConfig{
		Mode:       dsp.ModeSpectrogram,
		Length:     length,
		WindowSize: cfg.STFT.WindowSize,
		HopSize:    cfg.STFT.HopSize,
	})
	if err != nil {
		errs = append(errs, errors.Wrap(err, "stft"))
	}

	return errs
}
