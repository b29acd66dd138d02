// Package economics advances the cumulative production, cost and revenue of plots.
package economics

import (
	"math/rand"

	"fieldops-sim/internal/farm"
)

// UnitPriceEUR is the fixed market price per kilogram used to estimate revenue.
const UnitPriceEUR = 3.50

// Per-tick increment ranges, lower bound inclusive, upper bound exclusive.
const (
	activeYieldMinKg  = 0.5
	activeYieldMaxKg  = 2.0
	activeCostMinEUR  = 2.0
	activeCostMaxEUR  = 5.0
	dormantCostMinEUR = 0.5
	dormantCostMaxEUR = 1.5
)

// Updater applies one tick of economic evolution. Not safe for concurrent use.
type Updater struct {
	rng *rand.Rand
}

// NewUpdater creates an updater drawing from rng.
func NewUpdater(rng *rand.Rand) *Updater {
	return &Updater{rng: rng}
}

// Advance mutates p by one tick. Missing cumulative values start from zero.
func (u *Updater) Advance(p *farm.Plot) {
	production := p.Production()
	cost := p.Cost()
	revenue := p.Revenue()

	if p.State == farm.PlotActive {
		production += u.uniform(activeYieldMinKg, activeYieldMaxKg)
		cost += u.uniform(activeCostMinEUR, activeCostMaxEUR)
		revenue = production * UnitPriceEUR
	} else {
		// maintenance only
		cost += u.uniform(dormantCostMinEUR, dormantCostMaxEUR)
	}

	p.ProductionKg = farm.Float(production)
	p.CostEUR = farm.Float(cost)
	p.RevenueEUR = farm.Float(revenue)
}

func (u *Updater) uniform(lo, hi float64) float64 {
	return lo + u.rng.Float64()*(hi-lo)
}
