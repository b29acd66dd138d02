package series

import (
	"context"

	"fieldops-sim/internal/farm"
)

// PlotStats is the dashboard summary of one plot.
type PlotStats struct {
	ID           uint           `json:"id"`
	Name         string         `json:"name"`
	Kind         farm.PlotKind  `json:"kind"`
	State        farm.PlotState `json:"state"`
	AreaHa       float64        `json:"area_ha"`
	AirTemp      *float64       `json:"air_temp"`
	ProductionKg float64        `json:"production_kg"`
	CostEUR      float64        `json:"cost_eur"`
	RevenueEUR   float64        `json:"revenue_eur"`
	BalanceEUR   float64        `json:"balance_eur"`
}

// Overview summarizes every plot. AirTemp is the newest reading of the plot's first
// active air temperature sensor, nil when there is none or it has no data yet.
func (b *Builder) Overview(ctx context.Context) ([]PlotStats, error) {
	var out []PlotStats
	err := b.view(ctx, func(repo farm.Repository) error {
		var err error
		out, err = overview(ctx, repo)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func overview(ctx context.Context, repo farm.Repository) ([]PlotStats, error) {
	plots, err := repo.Plots(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PlotStats, 0, len(plots))
	for _, p := range plots {
		temp, err := latestAirTemp(ctx, repo, p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, PlotStats{
			ID:           p.ID,
			Name:         p.Name,
			Kind:         p.Kind,
			State:        p.State,
			AreaHa:       p.AreaHa,
			AirTemp:      temp,
			ProductionKg: p.Production(),
			CostEUR:      p.Cost(),
			RevenueEUR:   p.Revenue(),
			BalanceEUR:   p.Balance(),
		})
	}
	return out, nil
}

func latestAirTemp(ctx context.Context, repo farm.Repository, plotID uint) (*float64, error) {
	sensors, err := repo.ActiveSensorsByPlot(ctx, plotID)
	if err != nil {
		return nil, err
	}
	for _, s := range sensors {
		if s.Kind != farm.SensorAirTemp {
			continue
		}
		rs, err := repo.RecentReadings(ctx, s.ID, 1)
		if err != nil {
			return nil, err
		}
		if len(rs) == 0 {
			return nil, nil
		}
		return farm.Float(rs[0].Value), nil
	}
	return nil, nil
}
