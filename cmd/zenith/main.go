package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/golang/glog"
	"github.com/integrii/flaggy"

	"github.com/siradar/zenith"
	"github.com/siradar/zenith/config"
	"github.com/siradar/zenith/display"
	"github.com/siradar/zenith/input"
	"github.com/siradar/zenith/observe"

	_ "github.com/siradar/zenith/input/all"
)

// AppName is the app name
const AppName = "zenith"

// AppDesc is the app description
const AppDesc = "Radar ramp spectrogram viewer"

// AppSite is the app website
const AppSite = "https://github.com/siradar/zenith"

var version = "unknown"

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")

	cfg := newZeroConfig()

	if doFlags(&cfg) {
		return
	}

	flag.Set("v", strconv.Itoa(cfg.verbosity))
	defer glog.Flush()

	file, err := cfg.load()
	if err != nil {
		glog.Exitf("failed to load configuration: %v", err)
	}

	cfg.apply(file)

	if err := config.Validate(file); err != nil {
		glog.Exitf("invalid configuration: %v", err)
	}

	// Root Context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	zcfg := zenith.Config{File: file}

	if file.Metrics.Enabled || file.HTTP.Listen != "" {
		shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
			ServiceName:    AppName,
			ServiceVersion: version,
		})
		if err != nil {
			glog.Exitf("failed to set up metrics: %v", err)
		}
		defer shutdown(context.Background())

		zcfg.Metrics = observe.DefaultMetrics()
	}

	if cfg.watch && cfg.configPath != "" {
		reload := make(chan *config.Config, 1)

		watcher, err := config.NewWatcher(cfg.configPath, func(_, next *config.Config) {
			cfg.apply(next)
			if err := config.Validate(next); err != nil {
				glog.Warningf("ignoring configuration change: %v", err)
				return
			}

			// Only the newest change matters.
			select {
			case <-reload:
			default:
			}
			reload <- next
		})
		if err != nil {
			glog.Exitf("failed to watch configuration: %v", err)
		}
		defer watcher.Stop()

		zcfg.Reload = reload
	}

	switch file.Display.Type {
	case config.DisplayTerminal, "":
		term := display.NewTerminal()

		zcfg.Outputs = append(zcfg.Outputs, term)
		zcfg.SetupFunc = term.Init
		zcfg.StartFunc = func(ctx context.Context) (context.Context, error) {
			return term.Start(ctx), nil
		}
		zcfg.CleanupFunc = term.Close

	case config.DisplayNumbers:
		zcfg.Outputs = append(zcfg.Outputs, display.NewNumberWriter(os.Stdout))
	}

	if err := zenith.Run(&zcfg, ctx); err != nil {
		glog.Exitf("failed to run %s: %v", AppName, err)
	}
}

func doFlags(cfg *cliConfig) bool {

	parser := flaggy.NewParser(AppName)
	parser.Description = AppDesc
	parser.AdditionalHelpPrepend = AppSite
	parser.Version = version

	listBackendsCmd := flaggy.Subcommand{
		Name:                 "list-backends",
		ShortName:            "lb",
		Description:          "list all supported backends",
		AdditionalHelpAppend: "\nuse the full name after the '-'",
	}

	parser.AttachSubcommand(&listBackendsCmd, 1)

	listDevicesCmd := flaggy.Subcommand{
		Name:                 "list-devices",
		ShortName:            "ld",
		Description:          "list all devices for a backend",
		AdditionalHelpAppend: "\nuse the full name after the '-'",
	}

	parser.AttachSubcommand(&listDevicesCmd, 1)

	parser.String(&cfg.configPath, "c", "config", "configuration file (yaml)")
	parser.Bool(&cfg.watch, "W", "watch", "restart the pipeline when the configuration file changes")
	parser.String(&cfg.mode, "m", "mode", "preset without a configuration file (spectrogram, single)")
	parser.String(&cfg.backend, "b", "backend", "backend name")
	parser.String(&cfg.device, "d", "device", "device name")
	parser.Float64(&cfg.rate, "r", "rate", "notifications per second for generated input")
	parser.Int(&cfg.periodMS, "p", "period", "minimum milliseconds between screen updates")
	parser.Int(&cfg.width, "x", "width", "spectrogram columns kept")
	parser.Int(&cfg.windowSize, "ws", "window-size", "stft window size in samples")
	parser.Int(&cfg.hopSize, "hs", "hop-size", "stft hop size in samples")
	parser.String(&cfg.window, "wf", "window", "window function (hann, hamming, blackman, bartlett, rectangle)")
	parser.String(&cfg.displayType, "dt", "display", "display type (terminal, numbers, none)")
	parser.String(&cfg.listen, "l", "listen", "address of the snapshot and metrics server")
	parser.Bool(&cfg.metrics, "M", "metrics", "export prometheus metrics")
	parser.Int(&cfg.verbosity, "v", "verbose", "log verbosity")

	if err := parser.Parse(); err != nil {
		glog.Exitf("failed to parse arguments: %v", err)
	}

	switch {
	case listBackendsCmd.Used:
		for _, backend := range input.Backends {
			fmt.Printf("- %s\n", backend.Name)
		}

		return true

	case listDevicesCmd.Used:
		name := cfg.backend
		if name == "" {
			name = input.DefaultBackend()
		}

		backend, err := input.InitBackend(name)
		if err != nil {
			glog.Exitf("failed to init backend: %v", err)
		}

		devices, err := backend.Devices()
		if err != nil {
			glog.Exitf("failed to get devices: %v", err)
		}

		// We don't really need the default device to be indicated.
		defaultDevice, _ := backend.DefaultDevice()

		fmt.Printf("all devices for %q backend. '*' marks default\n", name)

		for idx := range devices {
			star := ' '
			if defaultDevice != nil && devices[idx].String() == defaultDevice.String() {
				star = '*'
			}

			fmt.Printf("- %v %c\n", devices[idx], star)
		}

		return true
	}

	return false
}
