package zenith

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/siradar/zenith/config"
	"github.com/siradar/zenith/observe"
	"github.com/siradar/zenith/processor"
	"github.com/siradar/zenith/render"
)

// SetupFunc is called before the pipeline starts.
type SetupFunc func() error

// StartFunc is called once the pipeline context exists. The returned context
// replaces it, so a display can end the run by cancelling it.
type StartFunc func(ctx context.Context) (context.Context, error)

// CleanupFunc is called after the pipeline stops.
type CleanupFunc func() error

type Config struct {
	// The pipeline, source and HTTP settings
	File *config.Config
	// Identifies this run in emissions and logs. Zero picks a new one.
	Session uuid.UUID
	// The clock used by the render gate. Nil means time.Now.
	Now render.Clock
	// Where to send emissions, in order
	Outputs []render.Output
	// Called with every decoded frame
	Listeners []processor.Listener
	// Optional metric instruments
	Metrics *observe.Metrics
	// New file configurations. Each one restarts the pipeline.
	Reload <-chan *config.Config

	// Function to call when setting up the pipeline
	SetupFunc SetupFunc
	// Function to call when starting the pipeline
	StartFunc StartFunc
	// Function to call when cleaning up the pipeline
	CleanupFunc CleanupFunc
}

// Validate checks the configuration and fills in defaults.
func (cfg *Config) Validate() error {
	if cfg.File == nil {
		return errors.New("no pipeline configuration")
	}

	if err := config.Validate(cfg.File); err != nil {
		return err
	}

	if cfg.Session == uuid.Nil {
		cfg.Session = uuid.New()
	}

	return nil
}
