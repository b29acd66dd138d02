package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fieldops-sim/internal/config"
	"fieldops-sim/internal/farm"
	"fieldops-sim/internal/series"
	"fieldops-sim/internal/sim"
	"fieldops-sim/internal/store"
	"fieldops-sim/internal/telemetry"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	st  *store.Store
	sim *sim.Simulator
	srv *Server
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if _, err := st.Seed(context.Background(), config.DemoFarm()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := sim.NewSimulator(st, nil, time.Minute, rand.New(rand.NewSource(3)))
	// each tick reads the clock twice, so ticks land 15 minutes apart
	now := time.Date(2026, 7, 1, 6, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time {
		now = now.Add(450 * time.Second)
		return now
	})
	b := series.NewBuilder(st, 0, time.UTC)
	return fixture{st: st, sim: s, srv: NewServer(st, b, s, "La Verde Collina", quiet)}
}

func (f fixture) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	f.srv.Echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestTempHumidityBadRequest(t *testing.T) {
	f := newFixture(t)
	for _, target := range []string{
		"/api/dashboard/temp-humidity",
		"/api/dashboard/temp-humidity?plotId=abc",
		"/api/dashboard/temp-humidity?plotId=-1",
	} {
		rec := f.do(t, http.MethodGet, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestTempHumidityNotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/dashboard/temp-humidity?plotId=99")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	body := decode[ErrorBody](t, rec)
	if body.Status != 404 || body.Error != "Not Found" || body.Path != "/api/dashboard/temp-humidity" {
		t.Errorf("unexpected body %+v", body)
	}
	if body.Message != "plot not found with id 99" {
		t.Errorf("unexpected message %q", body.Message)
	}

	// the dormant plot exists but has no active sensors
	rec = f.do(t, http.MethodGet, "/api/dashboard/temp-humidity?plotId=3")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if body := decode[ErrorBody](t, rec); !strings.Contains(body.Message, "no active sensors") {
		t.Errorf("unexpected message %q", body.Message)
	}
}

func TestTempHumidityAfterTicks(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/dashboard/temp-humidity?plotId=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"labels":[]`) {
		t.Fatalf("expected empty labels before any tick, got %s", body)
	}

	for i := 0; i < 3; i++ {
		if rec := f.do(t, http.MethodPost, "/api/ticks"); rec.Code != http.StatusOK {
			t.Fatalf("tick %d: status %d: %s", i, rec.Code, rec.Body.String())
		}
	}

	rec = f.do(t, http.MethodGet, "/api/dashboard/temp-humidity?plotId=1")
	chart := decode[series.Chart](t, rec)
	if want := []string{"06:07", "06:22", "06:37"}; strings.Join(chart.Labels, ",") != strings.Join(want, ",") {
		t.Fatalf("labels = %v, want %v", chart.Labels, want)
	}
	if len(chart.Datasets) != 2 || chart.Datasets[0].StyleKey != "air_temp" {
		t.Fatalf("unexpected datasets %+v", chart.Datasets)
	}
	for _, d := range chart.Datasets {
		for i, v := range d.Data {
			if v == nil {
				t.Errorf("%s[%d] is null", d.SensorCode, i)
			}
		}
	}
}

func TestPlotsOverview(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(t, http.MethodPost, "/api/ticks"); rec.Code != http.StatusOK {
		t.Fatalf("tick failed: %s", rec.Body.String())
	}

	rec := f.do(t, http.MethodGet, "/api/plots")
	plots := decode[[]series.PlotStats](t, rec)
	if len(plots) != 3 {
		t.Fatalf("expected 3 plots, got %d", len(plots))
	}
	if plots[0].AirTemp == nil {
		t.Errorf("active plot should report air temperature")
	}
	if plots[2].AirTemp != nil || plots[2].State != farm.PlotDormant {
		t.Errorf("dormant plot: %+v", plots[2])
	}
	if plots[0].BalanceEUR != plots[0].RevenueEUR-plots[0].CostEUR {
		t.Errorf("balance mismatch: %+v", plots[0])
	}
}

func TestSensorReadings(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 4; i++ {
		if _, err := f.sim.Tick(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	rec := f.do(t, http.MethodGet, "/api/sensors/S-M10/readings?limit=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[readingsResponse](t, rec)
	if resp.Sensor.Code != "S-M10" || len(resp.Readings) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if !resp.Readings[0].Timestamp.After(resp.Readings[1].Timestamp) {
		t.Errorf("readings should be newest first")
	}

	rec = f.do(t, http.MethodGet, "/api/sensors/S-M10/readings")
	if resp := decode[readingsResponse](t, rec); len(resp.Readings) != 4 {
		t.Errorf("default limit should return all 4 readings, got %d", len(resp.Readings))
	}

	if rec := f.do(t, http.MethodGet, "/api/sensors/S-M10/readings?limit=0"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for limit=0, got %d", rec.Code)
	}
	rec = f.do(t, http.MethodGet, "/api/sensors/X-9/readings")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown sensor, got %d", rec.Code)
	}
}

type failingTicker struct{}

func (f failingTicker) Tick(context.Context) (telemetry.TickRow, error) {
	return telemetry.TickRow{TickID: "t-1", Error: "tick t-1: disk full"}, errors.New("tick t-1: disk full")
}

func (f failingTicker) Stats() sim.Stats { return sim.Stats{Ticks: 1, Failures: 1} }

func TestTickFailureIs500(t *testing.T) {
	f := newFixture(t)
	srv := NewServer(f.st, series.NewBuilder(f.st, 0, nil), failingTicker{}, "", quiet)

	req := httptest.NewRequest(http.MethodPost, "/api/ticks", nil)
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	row := decode[telemetry.TickRow](t, rec)
	if !row.Failed() || row.TickID != "t-1" {
		t.Errorf("unexpected tick row %+v", row)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	if _, err := f.sim.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	rec := f.do(t, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	h := decode[healthResponse](t, rec)
	if !h.OK || h.Stats.Ticks != 1 || h.Stats.LastTick.Readings != 10 {
		t.Errorf("unexpected health %+v", h)
	}

	_ = f.st.Close()
	if rec := f.do(t, http.MethodGet, "/healthz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 with a closed database, got %d", rec.Code)
	}
}

func TestIndexPage(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"La Verde Collina", "Campo Ulivo", "Serra Grande", "0.00 €"} {
		if !strings.Contains(body, want) {
			t.Errorf("index page missing %q", want)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if body := decode[ErrorBody](t, rec); body.Path != "/nope" || body.Status != 404 {
		t.Errorf("unexpected body %+v", body)
	}
}
