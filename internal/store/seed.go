package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"fieldops-sim/internal/config"
	"fieldops-sim/internal/farm"
	"fieldops-sim/internal/logging"
)

const (
	soilDepthM = 0.3
	coordStep  = 0.1
)

// standardSensor is one entry of the set provisioned on every plot.
type standardSensor struct {
	prefix string
	kind   farm.SensorKind
	depth  *float64
}

func standardSet() []standardSensor {
	return []standardSensor{
		{"A-T", farm.SensorAirTemp, farm.Float(0)},
		{"A-H", farm.SensorAirHumidity, farm.Float(0)},
		{"S-T", farm.SensorSoilTemp, farm.Float(soilDepthM)},
		{"S-M", farm.SensorSoilMoisture, farm.Float(soilDepthM)},
		{"N-V", farm.SensorSatelliteNDVI, nil},
	}
}

// SeedResult counts what Seed created.
type SeedResult struct {
	Plots   int
	Sensors int
}

// Seed provisions the configured farm into an empty store. A store that already
// holds plots is left untouched. Sensors of dormant plots are created inactive.
func (s *Store) Seed(ctx context.Context, fc config.FarmConfig) (SeedResult, error) {
	var res SeedResult
	err := s.ORM.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st := &Store{ORM: tx}
		existing, err := st.Plots(ctx)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}
		for _, pc := range fc.Plots {
			plot, err := plotFromConfig(pc)
			if err != nil {
				return err
			}
			if err := st.CreatePlot(ctx, &plot); err != nil {
				return fmt.Errorf("create plot %q: %w", pc.Name, err)
			}
			res.Plots++
			n, err := st.provisionSensors(ctx, plot, pc.CodeBase, fc)
			if err != nil {
				return err
			}
			res.Sensors += n
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}
	if res.Plots > 0 {
		logging.FromContext(ctx).Info("seeded farm", "farm", fc.Name, "plots", res.Plots, "sensors", res.Sensors)
	}
	return res, nil
}

func (s *Store) provisionSensors(ctx context.Context, plot farm.Plot, codeBase int, fc config.FarmConfig) (int, error) {
	created := 0
	offset := float64(plot.ID) * coordStep
	for _, std := range standardSet() {
		code := std.prefix + strconv.Itoa(codeBase)
		_, err := s.SensorByCode(ctx, code)
		if err == nil {
			logging.FromContext(ctx).Warn("sensor code already provisioned, skipping", "code", code, "plot", plot.Name)
			continue
		}
		if !errors.Is(err, farm.ErrNotFound) {
			return created, err
		}
		sensor := farm.Sensor{
			Code:            code,
			Kind:            std.kind,
			PlotID:          plot.ID,
			Active:          plot.State == farm.PlotActive,
			IntervalMinutes: fc.SampleMinutes,
			Latitude:        farm.Float(fc.BaseLatitude + offset),
			Longitude:       farm.Float(fc.BaseLongitude + offset),
			DepthM:          std.depth,
		}
		if err := s.CreateSensor(ctx, &sensor); err != nil {
			return created, fmt.Errorf("create sensor %s: %w", code, err)
		}
		created++
	}
	return created, nil
}

func plotFromConfig(pc config.PlotConfig) (farm.Plot, error) {
	kind, err := farm.ParsePlotKind(pc.Kind)
	if err != nil {
		return farm.Plot{}, err
	}
	state, err := farm.ParsePlotState(pc.State)
	if err != nil {
		return farm.Plot{}, err
	}
	return farm.Plot{
		Name:         pc.Name,
		Kind:         kind,
		AreaHa:       pc.AreaHa,
		State:        state,
		ProductionKg: farm.Float(0),
		CostEUR:      farm.Float(0),
		RevenueEUR:   farm.Float(0),
	}, nil
}
