// Export rows emitted for every committed tick
package telemetry

import (
	"time"

	"fieldops-sim/internal/farm"
)

// ReadingRow is one exported sensor sample.
type ReadingRow struct {
	TickID     string          `json:"tick_id"`
	PlotID     uint            `json:"plot_id"`
	SensorID   uint            `json:"sensor_id"`
	SensorCode string          `json:"sensor_code"`
	Kind       farm.SensorKind `json:"kind"`
	Value      float64         `json:"value"`
	Unit       string          `json:"unit"`
	Quality    farm.Quality    `json:"quality"`
	Timestamp  time.Time       `json:"ts"`
}

// PlotRow is the economic snapshot of a plot after a tick.
type PlotRow struct {
	TickID       string         `json:"tick_id"`
	PlotID       uint           `json:"plot_id"`
	Name         string         `json:"name"`
	State        farm.PlotState `json:"state"`
	ProductionKg float64        `json:"production_kg"`
	CostEUR      float64        `json:"cost_eur"`
	RevenueEUR   float64        `json:"revenue_eur"`
	Timestamp    time.Time      `json:"ts"`
}

// TickRow summarizes one tick, successful or not.
type TickRow struct {
	TickID    string        `json:"tick_id"`
	Readings  int           `json:"readings"`
	Plots     int           `json:"plots"`
	Duration  time.Duration `json:"duration_ns"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"ts"`
}

// Failed reports whether the tick was rolled back.
func (t TickRow) Failed() bool { return t.Error != "" }

// NewReadingRow builds the export row for a reading taken by sensor.
func NewReadingRow(tickID string, s farm.Sensor, r farm.Reading) ReadingRow {
	return ReadingRow{
		TickID:     tickID,
		PlotID:     s.PlotID,
		SensorID:   s.ID,
		SensorCode: s.Code,
		Kind:       s.Kind,
		Value:      r.Value,
		Unit:       r.Unit,
		Quality:    r.Quality,
		Timestamp:  r.Timestamp,
	}
}

// NewPlotRow builds the export row for a plot.
func NewPlotRow(tickID string, p farm.Plot, at time.Time) PlotRow {
	return PlotRow{
		TickID:       tickID,
		PlotID:       p.ID,
		Name:         p.Name,
		State:        p.State,
		ProductionKg: p.Production(),
		CostEUR:      p.Cost(),
		RevenueEUR:   p.Revenue(),
		Timestamp:    at,
	}
}
