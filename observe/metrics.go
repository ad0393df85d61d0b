// Package observe provides the OpenTelemetry metric instruments for the
// pipeline and a Prometheus exporter bridge so they can be scraped from
// /metrics.
//
// Tests should use NewMetrics with their own metric.MeterProvider to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/siradar/zenith"

// Drop reasons used with FramesDropped.
const (
	ReasonMalformed = "malformed"
	ReasonTransform = "transform"
	ReasonBuffer    = "buffer"
	ReasonClosed    = "closed"
)

// Metrics holds all metric instruments. All fields are safe for concurrent
// use.
type Metrics struct {
	// FramesReceived counts notifications handed to the processor.
	FramesReceived metric.Int64Counter

	// FramesDropped counts rejected notifications. Use with attribute:
	//   attribute.String("reason", ...)
	FramesDropped metric.Int64Counter

	// ColumnsAppended counts spectrum columns written to the buffer.
	ColumnsAppended metric.Int64Counter

	// Emissions counts results forwarded to outputs.
	Emissions metric.Int64Counter

	// EmissionsSkipped counts notifications the render gate held back.
	EmissionsSkipped metric.Int64Counter

	// RampGaps counts missing ramp numbers between consecutive frames.
	RampGaps metric.Int64Counter

	// ProcessDuration tracks decode + transform + append time per frame.
	ProcessDuration metric.Float64Histogram

	// ActiveSessions tracks the number of running input sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// processBuckets are histogram boundaries in seconds for per-frame work.
var processBuckets = []float64{
	0.00001, 0.000025, 0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01,
}

// NewMetrics creates all instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FramesReceived, err = m.Int64Counter("zenith.frames.received",
		metric.WithDescription("Total notifications received."),
	); err != nil {
		return nil, err
	}
	if met.FramesDropped, err = m.Int64Counter("zenith.frames.dropped",
		metric.WithDescription("Total notifications dropped by reason."),
	); err != nil {
		return nil, err
	}
	if met.ColumnsAppended, err = m.Int64Counter("zenith.columns.appended",
		metric.WithDescription("Total spectrum columns appended to the spectrogram buffer."),
	); err != nil {
		return nil, err
	}
	if met.Emissions, err = m.Int64Counter("zenith.render.emissions",
		metric.WithDescription("Total results forwarded to the presentation layer."),
	); err != nil {
		return nil, err
	}
	if met.EmissionsSkipped, err = m.Int64Counter("zenith.render.skipped",
		metric.WithDescription("Total notifications not forwarded because the render gate was closed."),
	); err != nil {
		return nil, err
	}
	if met.RampGaps, err = m.Int64Counter("zenith.frames.ramp_gaps",
		metric.WithDescription("Total ramp numbers missing between consecutive frames."),
	); err != nil {
		return nil, err
	}
	if met.ProcessDuration, err = m.Float64Histogram("zenith.process.duration",
		metric.WithDescription("Time spent decoding and transforming one notification."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(processBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("zenith.active_sessions",
		metric.WithDescription("Number of running input sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level instance built on the global
// meter provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordDrop counts one dropped frame.
func (m *Metrics) RecordDrop(ctx context.Context, reason string) {
	m.FramesDropped.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}

// RecordSession adjusts the active session gauge for backend.
func (m *Metrics) RecordSession(ctx context.Context, backend string, delta int64) {
	m.ActiveSessions.Add(ctx, delta,
		metric.WithAttributes(attribute.String("backend", backend)),
	)
}
