// Package zenith wires a notification source to the spectrogram pipeline and
// its outputs.
package zenith

import (
	"context"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/siradar/zenith/config"
	"github.com/siradar/zenith/display"
	"github.com/siradar/zenith/input"
	"github.com/siradar/zenith/processor"
	"github.com/siradar/zenith/render"
	"github.com/siradar/zenith/server"
)

// frameQueue is how many payloads may wait between the source and the
// processor.
const frameQueue = 64

// Run starts the pipeline and blocks until ctx is done, the source ends or a
// hook fails.
func Run(cfg *Config, ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.SetupFunc != nil {
		if err := cfg.SetupFunc(); err != nil {
			return err
		}
	}

	if cfg.CleanupFunc != nil {
		defer func() {
			if err := cfg.CleanupFunc(); err != nil {
				glog.Errorf("cleanup: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.StartFunc != nil {
		var err error
		if ctx, err = cfg.StartFunc(ctx); err != nil {
			return err
		}
	}

	file := cfg.File

	for {
		next, err := runPipeline(ctx, cfg, file)
		if err != nil || next == nil {
			return err
		}

		glog.Infof("[%s] configuration changed, restarting pipeline", cfg.Session)
		file = next
	}
}

// runPipeline runs one session with file. It returns the new configuration
// when a reload cut it short.
func runPipeline(ctx context.Context, cfg *Config, file *config.Config) (*config.Config, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	proc, err := newProcessor(cfg, file)
	if err != nil {
		return nil, err
	}

	for _, out := range cfg.Outputs {
		proc.Subscribe(out)
	}

	errc := make(chan error, 2)

	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	if file.HTTP.Listen != "" {
		srv := server.New(server.Config{
			Listen: file.HTTP.Listen,
			Heatmap: display.HeatmapOptions{
				Labels:     true,
				SampleRate: file.Display.SampleRate,
				RampTime:   file.Display.RampTime,
			},
			Stats: proc.Stats,
		})
		proc.Subscribe(srv)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.ListenAndServe(ctx); err != nil {
				errc <- err
				cancel()
			}
		}()
	}

	backendName := file.Input.Backend
	if backendName == "" {
		backendName = input.DefaultBackend()
	}

	backend, err := input.InitBackend(backendName)
	if err != nil {
		return nil, err
	}
	defer backend.Close()

	sessCfg := input.SessionConfig{
		Frame: file.FrameConfig(),
		Rate:  file.Input.RateHz,
	}

	if sessCfg.Device, err = input.GetDevice(backend, file.Input.Device); err != nil {
		return nil, err
	}

	session, err := backend.Start(sessCfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start the input backend")
	}

	glog.Infof("[%s] session started: backend %s, device %s, mode %s",
		cfg.Session, backendName, sessCfg.Device, file.Mode)
	defer glog.Infof("[%s] session stopped", cfg.Session)

	if cfg.Metrics != nil {
		cfg.Metrics.RecordSession(ctx, backendName, 1)
		defer cfg.Metrics.RecordSession(context.Background(), backendName, -1)
	}

	frames := make(chan []byte, frameQueue)
	sessionDone := make(chan struct{})

	go func() {
		defer close(sessionDone)
		defer close(frames)
		if err := session.Start(ctx, frames); err != nil && ctx.Err() == nil {
			errc <- errors.Wrap(err, "input session")
			cancel()
		}
	}()

	// Standard input cannot be reopened, so it never restarts.
	reloadc := make(chan *config.Config, 1)
	if cfg.Reload != nil && backendName != "stdin" {
		go func() {
			select {
			case <-ctx.Done():
			case next := <-cfg.Reload:
				reloadc <- next
				cancel()
			}
		}()
	}

	err = proc.Run(ctx, frames)

	select {
	case serr := <-errc:
		return nil, serr
	default:
	}

	select {
	case next := <-reloadc:
		// The next session may bind the same address.
		<-sessionDone
		return next, nil
	default:
	}

	if errors.Is(err, context.Canceled) {
		return nil, nil
	}

	return nil, err
}

func newProcessor(cfg *Config, file *config.Config) (*processor.Processor, error) {
	stCfg, err := file.TransformConfig()
	if err != nil {
		return nil, err
	}

	listeners := append([]processor.Listener{processor.LogListener(cfg.Session)}, cfg.Listeners...)

	return processor.New(processor.Config{
		Frame:  file.FrameConfig(),
		STFT:   stCfg,
		Buffer: file.BufferConfig(),
		Bridge: render.BridgeConfig{
			Period:  file.RenderPeriod(),
			Now:     cfg.Now,
			Session: cfg.Session,
		},
		Metrics:   cfg.Metrics,
		Listeners: listeners,
	})
}
