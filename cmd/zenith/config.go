package main

import (
	"github.com/pkg/errors"

	"github.com/siradar/zenith/config"
)

// cliConfig holds the command line overrides. Zero values leave the file
// configuration alone.
type cliConfig struct {
	// Path of the YAML configuration file
	configPath string
	// Restart the pipeline when the configuration file changes
	watch bool
	// Preset to start from when there is no file
	mode string
	// Backend is the backend name from list-backends
	backend string
	// Device is the device name from list-devices
	device string
	// Notifications per second for generated or replayed input
	rate float64
	// Minimum time between screen updates
	periodMS int
	// Number of columns kept in the spectrogram
	width int
	// STFT window and hop sizes
	windowSize int
	hopSize    int
	// Window function name
	window string
	// Display type: terminal, numbers or none
	displayType string
	// Address of the snapshot server
	listen string
	// Export metrics
	metrics bool
	// glog verbosity
	verbosity int
}

func newZeroConfig() cliConfig {
	return cliConfig{
		mode: config.ModeSpectrogram,
	}
}

// load reads the configuration file, or returns the preset for the mode when
// no file is given.
func (cfg *cliConfig) load() (*config.Config, error) {
	if cfg.configPath != "" {
		return config.Load(cfg.configPath)
	}

	preset, ok := config.Preset(cfg.mode)
	if !ok {
		return nil, errors.Errorf("unknown mode %q", cfg.mode)
	}

	return &preset, nil
}

// apply writes the overrides into file.
func (cfg *cliConfig) apply(file *config.Config) {
	if cfg.backend != "" {
		file.Input.Backend = cfg.backend
	}
	if cfg.device != "" {
		file.Input.Device = cfg.device
	}
	if cfg.rate > 0 {
		file.Input.RateHz = cfg.rate
	}
	if cfg.periodMS > 0 {
		file.Render.PeriodMS = cfg.periodMS
	}
	if cfg.width > 0 {
		file.Buffer.Width = cfg.width
	}
	if cfg.windowSize > 0 {
		file.STFT.WindowSize = cfg.windowSize
	}
	if cfg.hopSize > 0 {
		file.STFT.HopSize = cfg.hopSize
	}
	if cfg.window != "" {
		file.STFT.Window = cfg.window
	}
	if cfg.displayType != "" {
		file.Display.Type = cfg.displayType
	}
	if cfg.listen != "" {
		file.HTTP.Listen = cfg.listen
	}
	if cfg.metrics {
		file.Metrics.Enabled = true
	}
}
