package telemetry

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"fieldops-sim/internal/farm"
)

// ErrUnmappedKind is returned for a sensor kind without generator parameters.
var ErrUnmappedKind = errors.New("unmapped sensor kind")

// Params describes the normal distribution sampled for a sensor kind.
type Params struct {
	Mean   float64
	StdDev float64
	Unit   string
}

var kindParams = map[farm.SensorKind]Params{
	farm.SensorAirTemp:       {Mean: 25.0, StdDev: 2.0, Unit: "°C"},
	farm.SensorSoilTemp:      {Mean: 20.0, StdDev: 1.5, Unit: "°C"},
	farm.SensorAirHumidity:   {Mean: 70.0, StdDev: 5.0, Unit: "%"},
	farm.SensorSoilMoisture:  {Mean: 40.0, StdDev: 8.0, Unit: "%"},
	farm.SensorSatelliteNDVI: {Mean: 0.65, StdDev: 0.05, Unit: "Index"},
}

// ParamsFor returns the distribution for kind.
func ParamsFor(kind farm.SensorKind) (Params, error) {
	p, ok := kindParams[kind]
	if !ok {
		return Params{}, fmt.Errorf("%w: %q", ErrUnmappedKind, kind)
	}
	return p, nil
}

// Unit returns the measurement unit reported for kind.
func Unit(kind farm.SensorKind) (string, error) {
	p, err := ParamsFor(kind)
	if err != nil {
		return "", err
	}
	return p.Unit, nil
}

// Generator simulates sensor samples. It is not safe for concurrent use;
// the engine serializes ticks.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator drawing from rng.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Value draws one sample for kind, rounded to two decimals.
func (g *Generator) Value(kind farm.SensorKind) (float64, error) {
	p, err := ParamsFor(kind)
	if err != nil {
		return 0, err
	}
	return round2(p.Mean + g.rng.NormFloat64()*p.StdDev), nil
}

// Generate returns exactly one reading per sensor, all stamped with at.
// Every kind is checked before sampling so a bad sensor fails the whole batch.
func (g *Generator) Generate(sensors []farm.Sensor, at time.Time) ([]farm.Reading, error) {
	for _, s := range sensors {
		if _, err := ParamsFor(s.Kind); err != nil {
			return nil, fmt.Errorf("sensor %s: %w", s.Code, err)
		}
	}
	out := make([]farm.Reading, 0, len(sensors))
	for _, s := range sensors {
		p := kindParams[s.Kind]
		out = append(out, farm.Reading{
			SensorID:  s.ID,
			Timestamp: at,
			Value:     round2(p.Mean + g.rng.NormFloat64()*p.StdDev),
			Unit:      p.Unit,
			Quality:   farm.QualityValid,
		})
	}
	return out, nil
}

// round2 rounds half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
