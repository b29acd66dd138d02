// Farm domain entities persisted by the store
package farm

import (
	"fmt"
	"time"
)

// PlotKind is the cultivation layout of a plot.
type PlotKind string

const (
	PlotOpenField  PlotKind = "OPEN_FIELD"
	PlotGreenhouse PlotKind = "GREENHOUSE"
)

// PlotState is the operational state of a plot.
type PlotState string

const (
	PlotActive  PlotState = "ACTIVE"
	PlotDormant PlotState = "DORMANT"
)

// SensorKind identifies what a sensor measures.
type SensorKind string

const (
	SensorAirTemp       SensorKind = "AIR_TEMP"
	SensorAirHumidity   SensorKind = "AIR_HUMIDITY"
	SensorSoilTemp      SensorKind = "SOIL_TEMP"
	SensorSoilMoisture  SensorKind = "SOIL_MOISTURE"
	SensorSatelliteNDVI SensorKind = "SATELLITE_NDVI"
)

// Quality marks the trustworthiness of a reading.
type Quality string

const (
	QualityValid   Quality = "VALID"
	QualitySuspect Quality = "SUSPECT"
	QualityInvalid Quality = "INVALID"
)

// Plot is a monitored piece of land with its cumulative economics.
type Plot struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Kind         PlotKind  `gorm:"type:varchar(16)" json:"kind"`
	AreaHa       float64   `json:"area_ha"`
	State        PlotState `gorm:"type:varchar(16);index" json:"state"`
	ProductionKg *float64  `gorm:"default:0" json:"production_kg"`
	CostEUR      *float64  `gorm:"default:0" json:"cost_eur"`
	RevenueEUR   *float64  `gorm:"default:0" json:"revenue_eur"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Production returns the cumulative production, treating a missing value as zero.
func (p Plot) Production() float64 { return valueOrZero(p.ProductionKg) }

// Cost returns the accrued cost, treating a missing value as zero.
func (p Plot) Cost() float64 { return valueOrZero(p.CostEUR) }

// Revenue returns the estimated revenue, treating a missing value as zero.
func (p Plot) Revenue() float64 { return valueOrZero(p.RevenueEUR) }

// Balance is estimated revenue minus accrued cost.
func (p Plot) Balance() float64 { return p.Revenue() - p.Cost() }

// Sensor is a provisioned device attached to exactly one plot.
type Sensor struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Code            string     `gorm:"uniqueIndex;not null" json:"code"`
	Kind            SensorKind `gorm:"type:varchar(24)" json:"kind"`
	PlotID          uint       `gorm:"index;not null" json:"plot_id"`
	Active          bool       `gorm:"index" json:"active"`
	IntervalMinutes int        `json:"interval_minutes"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	DepthM          *float64   `json:"depth_m,omitempty"`
}

// Reading is one immutable sample taken by a sensor.
type Reading struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SensorID  uint      `gorm:"not null;index:idx_sensor_ts,priority:1" json:"sensor_id"`
	Timestamp time.Time `gorm:"index:idx_sensor_ts,priority:2" json:"timestamp"`
	Value     float64   `json:"value"`
	Unit      string    `gorm:"type:varchar(8)" json:"unit"`
	Quality   Quality   `gorm:"type:varchar(8)" json:"quality"`
}

// IsSoil reports whether the kind is buried in the ground, where depth is meaningful.
func (k SensorKind) IsSoil() bool {
	return k == SensorSoilTemp || k == SensorSoilMoisture
}

// ParsePlotKind validates a plot kind string.
func ParsePlotKind(s string) (PlotKind, error) {
	switch k := PlotKind(s); k {
	case PlotOpenField, PlotGreenhouse:
		return k, nil
	}
	return "", fmt.Errorf("unknown plot kind %q", s)
}

// ParsePlotState validates a plot state string.
func ParsePlotState(s string) (PlotState, error) {
	switch st := PlotState(s); st {
	case PlotActive, PlotDormant:
		return st, nil
	}
	return "", fmt.Errorf("unknown plot state %q", s)
}

// ParseSensorKind validates a sensor kind string.
func ParseSensorKind(s string) (SensorKind, error) {
	switch k := SensorKind(s); k {
	case SensorAirTemp, SensorAirHumidity, SensorSoilTemp, SensorSoilMoisture, SensorSatelliteNDVI:
		return k, nil
	}
	return "", fmt.Errorf("unknown sensor kind %q", s)
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
