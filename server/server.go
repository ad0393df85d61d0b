// Package server exposes the latest emission over HTTP: a PNG heatmap, the
// raw values as JSON, pipeline counters and Prometheus metrics.
package server

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/siradar/zenith/display"
	"github.com/siradar/zenith/processor"
	"github.com/siradar/zenith/render"
)

const (
	snapshotPNGEndpoint  = "/snapshot.png"
	snapshotJSONEndpoint = "/snapshot.json"
	statsEndpoint        = "/stats"
	metricsEndpoint      = "/metrics"
	healthEndpoint       = "/healthz"

	shutdownTimeout = 5 * time.Second
)

// Config configures a Server.
type Config struct {
	// Listen is the TCP address to serve on.
	Listen string
	// Heatmap controls the PNG snapshot.
	Heatmap display.HeatmapOptions
	// Stats reports pipeline counters. Nil disables /stats.
	Stats func() processor.Stats
	// Metrics serves /metrics. Nil selects promhttp.Handler().
	Metrics http.Handler
}

// Server is a render.Output that keeps the latest emission for HTTP clients.
type Server struct {
	cfg    Config
	engine *gin.Engine

	mu     sync.RWMutex
	latest *render.Emission
}

// snapshot is the JSON body of /snapshot.json.
type snapshot struct {
	Seq      uint64      `json:"seq"`
	Time     time.Time   `json:"time"`
	Session  uuid.UUID   `json:"session"`
	Spectrum []float64   `json:"spectrum,omitempty"`
	Bins     int         `json:"bins,omitempty"`
	Columns  [][]float64 `json:"columns,omitempty"`
}

// New returns a server. It does not listen until ListenAndServe.
func New(cfg Config) *Server {
	if cfg.Metrics == nil {
		cfg.Metrics = promhttp.Handler()
	}

	s := &Server{cfg: cfg}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET(healthEndpoint, s.health)
	engine.GET(snapshotPNGEndpoint, s.snapshotPNG)
	engine.GET(snapshotJSONEndpoint, s.snapshotJSON)
	engine.GET(metricsEndpoint, gin.WrapH(cfg.Metrics))
	if cfg.Stats != nil {
		engine.GET(statsEndpoint, s.stats)
	}

	s.engine = engine

	return s
}

// Write stores e as the latest emission.
func (s *Server) Write(e *render.Emission) error {
	s.mu.Lock()
	s.latest = e
	s.mu.Unlock()
	return nil
}

// Latest returns the stored emission or nil.
func (s *Server) Latest() *render.Emission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		glog.Infof("serving HTTP on %s", s.cfg.Listen)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "http server")

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "http shutdown")
		}
		return nil
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.cfg.Stats())
}

func (s *Server) snapshotJSON(c *gin.Context) {
	e := s.Latest()
	if e == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no data yet"})
		return
	}

	c.JSON(http.StatusOK, snapshot{
		Seq:      e.Seq,
		Time:     e.Time,
		Session:  e.Session,
		Spectrum: e.Spectrum,
		Bins:     e.Matrix.Bins,
		Columns:  e.Matrix.Columns,
	})
}

func (s *Server) snapshotPNG(c *gin.Context) {
	e := s.Latest()
	if e == nil {
		c.String(http.StatusNotFound, "no data yet")
		return
	}

	opts := s.cfg.Heatmap
	if c.Query("linear") != "" {
		opts.Linear = true
	}

	var img *image.RGBA
	if e.Spectrum != nil {
		img = display.RenderSpectrum(e.Spectrum, opts)
	} else {
		img = display.RenderHeatmap(e.Matrix, opts)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
