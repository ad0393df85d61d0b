package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.FramesReceived.Add(ctx, 3)
	m.ColumnsAppended.Add(ctx, 9)
	m.Emissions.Add(ctx, 1)
	m.EmissionsSkipped.Add(ctx, 2)
	m.RampGaps.Add(ctx, 4)

	rm := collect(t, reader)

	want := map[string]int64{
		"zenith.frames.received":  3,
		"zenith.columns.appended": 9,
		"zenith.render.emissions": 1,
		"zenith.render.skipped":   2,
		"zenith.frames.ramp_gaps": 4,
	}

	for name, v := range want {
		met := findMetric(rm, name)
		if met == nil {
			t.Errorf("metric %q not found", name)
			continue
		}

		sum, ok := met.Data.(metricdata.Sum[int64])
		if !ok {
			t.Errorf("%s: data type = %T", name, met.Data)
			continue
		}

		if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != v {
			t.Errorf("%s: datapoints = %+v, want value %d", name, sum.DataPoints, v)
		}
	}
}

func TestRecordDrop(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordDrop(ctx, ReasonMalformed)
	m.RecordDrop(ctx, ReasonMalformed)
	m.RecordDrop(ctx, ReasonTransform)

	met := findMetric(collect(t, reader), "zenith.frames.dropped")
	if met == nil {
		t.Fatal("zenith.frames.dropped not found")
	}

	sum := met.Data.(metricdata.Sum[int64])
	got := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("reason"))
		got[v.AsString()] = dp.Value
	}

	if got[ReasonMalformed] != 2 || got[ReasonTransform] != 1 {
		t.Errorf("drops by reason = %v", got)
	}
}

func TestActiveSessions(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordSession(ctx, "udp", 1)
	m.RecordSession(ctx, "udp", 1)
	m.RecordSession(ctx, "udp", -1)

	met := findMetric(collect(t, reader), "zenith.active_sessions")
	if met == nil {
		t.Fatal("zenith.active_sessions not found")
	}

	sum := met.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Errorf("active sessions = %+v, want 1", sum.DataPoints)
	}
}

func TestProcessDuration(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ProcessDuration.Record(ctx, 0.0001)
	m.ProcessDuration.Record(ctx, 0.002)

	met := findMetric(collect(t, reader), "zenith.process.duration")
	if met == nil {
		t.Fatal("zenith.process.duration not found")
	}

	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("data type = %T", met.Data)
	}

	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 2 {
		t.Errorf("datapoints = %+v, want count 2", hist.DataPoints)
	}
}
