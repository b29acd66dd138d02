package telemetry

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"fieldops-sim/internal/farm"
)

func TestGenerateOneReadingPerSensor(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(1)))
	at := time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC)
	sensors := []farm.Sensor{
		{ID: 1, Code: "A-T10", Kind: farm.SensorAirTemp},
		{ID: 2, Code: "A-H10", Kind: farm.SensorAirHumidity},
		{ID: 3, Code: "S-T10", Kind: farm.SensorSoilTemp},
		{ID: 4, Code: "S-M10", Kind: farm.SensorSoilMoisture},
		{ID: 5, Code: "N-V10", Kind: farm.SensorSatelliteNDVI},
	}

	readings, err := gen.Generate(sensors, at)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(readings) != len(sensors) {
		t.Fatalf("expected %d readings, got %d", len(sensors), len(readings))
	}
	wantUnits := []string{"°C", "%", "°C", "%", "Index"}
	for i, r := range readings {
		if r.SensorID != sensors[i].ID {
			t.Errorf("reading %d: sensor %d, want %d", i, r.SensorID, sensors[i].ID)
		}
		if !r.Timestamp.Equal(at) {
			t.Errorf("reading %d: timestamp %v, want %v", i, r.Timestamp, at)
		}
		if r.Unit != wantUnits[i] {
			t.Errorf("reading %d: unit %q, want %q", i, r.Unit, wantUnits[i])
		}
		if r.Quality != farm.QualityValid {
			t.Errorf("reading %d: quality %q", i, r.Quality)
		}
		if r.Value != math.Round(r.Value*100)/100 {
			t.Errorf("reading %d: value %v not rounded to 2 decimals", i, r.Value)
		}
	}
}

func TestGenerateUnmappedKindFailsBatch(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(1)))
	sensors := []farm.Sensor{
		{ID: 1, Code: "A-T1", Kind: farm.SensorAirTemp},
		{ID: 2, Code: "X-1", Kind: farm.SensorKind("LEAF_WETNESS")},
	}
	readings, err := gen.Generate(sensors, time.Now())
	if !errors.Is(err, ErrUnmappedKind) {
		t.Fatalf("expected ErrUnmappedKind, got %v", err)
	}
	if readings != nil {
		t.Errorf("expected no readings on failure, got %d", len(readings))
	}
	if _, err := Unit("LEAF_WETNESS"); !errors.Is(err, ErrUnmappedKind) {
		t.Errorf("Unit should fail loudly, got %v", err)
	}
	if _, err := gen.Value("LEAF_WETNESS"); !errors.Is(err, ErrUnmappedKind) {
		t.Errorf("Value should fail loudly, got %v", err)
	}
}

func TestValueDistribution(t *testing.T) {
	cases := []struct {
		kind     farm.SensorKind
		mean     float64
		stddev   float64
		meanTol  float64
		stdevTol float64
	}{
		{farm.SensorAirTemp, 25.0, 2.0, 0.2, 0.2},
		{farm.SensorSoilTemp, 20.0, 1.5, 0.2, 0.2},
		{farm.SensorAirHumidity, 70.0, 5.0, 0.3, 0.3},
		{farm.SensorSoilMoisture, 40.0, 8.0, 0.5, 0.5},
		{farm.SensorSatelliteNDVI, 0.65, 0.05, 0.01, 0.01},
	}
	const n = 10000
	for _, tc := range cases {
		gen := NewGenerator(rand.New(rand.NewSource(42)))
		var sum, sumSq float64
		for i := 0; i < n; i++ {
			v, err := gen.Value(tc.kind)
			if err != nil {
				t.Fatalf("%s: %v", tc.kind, err)
			}
			sum += v
			sumSq += v * v
		}
		mean := sum / n
		stddev := math.Sqrt(sumSq/n - mean*mean)
		if math.Abs(mean-tc.mean) > tc.meanTol {
			t.Errorf("%s: mean %.4f, want %.2f±%.2f", tc.kind, mean, tc.mean, tc.meanTol)
		}
		if math.Abs(stddev-tc.stddev) > tc.stdevTol {
			t.Errorf("%s: stddev %.4f, want %.2f±%.2f", tc.kind, stddev, tc.stddev, tc.stdevTol)
		}
	}
}

func TestSeededGeneratorsAgree(t *testing.T) {
	a := NewGenerator(rand.New(rand.NewSource(7)))
	b := NewGenerator(rand.New(rand.NewSource(7)))
	for i := 0; i < 20; i++ {
		va, _ := a.Value(farm.SensorSoilMoisture)
		vb, _ := b.Value(farm.SensorSoilMoisture)
		if va != vb {
			t.Fatalf("draw %d differs: %v vs %v", i, va, vb)
		}
	}
}

func TestNewPlotRowNormalizesNil(t *testing.T) {
	at := time.Unix(0, 0).UTC()
	row := NewPlotRow("t1", farm.Plot{ID: 3, Name: "Campo Grano", State: farm.PlotDormant, CostEUR: farm.Float(1.25)}, at)
	if row.ProductionKg != 0 || row.RevenueEUR != 0 || row.CostEUR != 1.25 {
		t.Errorf("unexpected row %+v", row)
	}
	if row.TickID != "t1" || !row.Timestamp.Equal(at) {
		t.Errorf("unexpected identity %+v", row)
	}
}
