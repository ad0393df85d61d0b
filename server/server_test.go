package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/siradar/zenith/display"
	"github.com/siradar/zenith/processor"
	"github.com/siradar/zenith/render"
	"github.com/siradar/zenith/spectrogram"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func testEmission() *render.Emission {
	return &render.Emission{
		Seq:     4,
		Time:    time.Unix(1700000000, 0).UTC(),
		Session: uuid.New(),
		Matrix: spectrogram.Matrix{
			Bins:    3,
			Columns: [][]float64{{1, 0, 0}, {0, 1, 0}},
		},
	}
}

func TestHealthz(t *testing.T) {
	s := New(Config{})

	rec := get(t, s.Handler(), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestSnapshotBeforeData(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/snapshot.png", "/snapshot.json"} {
		if rec := get(t, s.Handler(), path); rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestSnapshotJSON(t *testing.T) {
	s := New(Config{})
	e := testEmission()
	if err := s.Write(e); err != nil {
		t.Fatal(err)
	}

	rec := get(t, s.Handler(), "/snapshot.json")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var got snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}

	if got.Seq != 4 || got.Bins != 3 || len(got.Columns) != 2 || got.Session != e.Session {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if got.Columns[1][1] != 1 {
		t.Fatalf("unexpected column data %v", got.Columns)
	}
}

func TestSnapshotPNG(t *testing.T) {
	s := New(Config{Heatmap: display.HeatmapOptions{Scale: 2}})
	s.Write(testEmission())

	rec := get(t, s.Handler(), "/snapshot.png")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type %q", ct)
	}

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 6 {
		t.Fatalf("unexpected image bounds %v", b)
	}
}

func TestSnapshotPNGSpectrum(t *testing.T) {
	s := New(Config{Heatmap: display.HeatmapOptions{Scale: 1, Height: 16}})
	s.Write(&render.Emission{Spectrum: []float64{1, 2, 3, 4, 5}})

	rec := get(t, s.Handler(), "/snapshot.png?linear=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 5 || b.Dy() != 16 {
		t.Fatalf("unexpected image bounds %v", b)
	}
}

func TestStats(t *testing.T) {
	if rec := get(t, New(Config{}).Handler(), "/stats"); rec.Code != http.StatusNotFound {
		t.Fatalf("stats without source: expected 404, got %d", rec.Code)
	}

	s := New(Config{Stats: func() processor.Stats {
		return processor.Stats{Received: 10, Dropped: 2}
	}})

	rec := get(t, s.Handler(), "/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var got processor.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Received != 10 || got.Dropped != 2 {
		t.Fatalf("unexpected stats %+v", got)
	}
}

func TestMetricsHandler(t *testing.T) {
	called := false
	s := New(Config{Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})})

	if rec := get(t, s.Handler(), "/metrics"); rec.Code != http.StatusOK || !called {
		t.Fatalf("metrics handler not used: status %d", rec.Code)
	}
}
