package sim

import (
	"context"
	"fmt"
	"time"

	"fieldops-sim/internal/farm"
	"fieldops-sim/internal/logging"
	"fieldops-sim/internal/telemetry"
)

// Scheduler invokes fn every interval until ctx is done.
type Scheduler interface {
	Every(ctx context.Context, interval time.Duration, fn func(context.Context))
}

// TickerScheduler drives fn from a time.Ticker. With Immediate set, fn also runs once at start.
type TickerScheduler struct {
	Immediate bool
}

func (t TickerScheduler) Every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	if t.Immediate {
		fn(ctx)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fn(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Run starts the simulation loop and stops when the context is done.
// A failed tick is logged and the loop keeps going.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting simulator", "tick_interval", s.tickInterval)

	s.mu.Lock()
	sch := s.scheduler
	s.mu.Unlock()

	sch.Every(ctx, s.tickInterval, func(ctx context.Context) {
		_, _ = s.Tick(ctx)
	})
	log.Info("stopping simulator")
}

// Tick samples every active sensor and advances every plot in one transaction.
// On failure nothing is persisted and nothing but the failed TickRow is published.
func (s *Simulator) Tick(ctx context.Context) (telemetry.TickRow, error) {
	log := logging.FromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	at := start.UTC().Truncate(time.Millisecond)
	tickID := s.newID()

	var readings []telemetry.ReadingRow
	var plots []telemetry.PlotRow
	err := s.repo.Atomic(ctx, func(repo farm.Repository) error {
		readings, plots = nil, nil

		sensors, err := repo.ActiveSensors(ctx)
		if err != nil {
			return err
		}
		batch, err := s.gen.Generate(sensors, at)
		if err != nil {
			return err
		}
		if err := repo.SaveReadings(ctx, batch); err != nil {
			return err
		}
		for i := range batch {
			readings = append(readings, telemetry.NewReadingRow(tickID, sensors[i], batch[i]))
		}

		all, err := repo.Plots(ctx)
		if err != nil {
			return err
		}
		for i := range all {
			s.econ.Advance(&all[i])
			if err := repo.SavePlot(ctx, &all[i]); err != nil {
				return err
			}
			plots = append(plots, telemetry.NewPlotRow(tickID, all[i], at))
		}
		return nil
	})

	row := telemetry.TickRow{
		TickID:    tickID,
		Duration:  s.now().Sub(start),
		Timestamp: at,
	}
	s.stats.Ticks++
	if err != nil {
		err = fmt.Errorf("tick %s: %w", tickID, err)
		row.Error = err.Error()
		s.stats.Failures++
		s.stats.LastTick = row
		log.Error("tick rolled back", "tick_id", tickID, "err", err)
		s.publishTick(ctx, row)
		return row, err
	}

	row.Readings = len(readings)
	row.Plots = len(plots)
	s.stats.LastTick = row
	s.stats.LastSuccess = at
	log.Debug("tick committed", "tick_id", tickID, "readings", row.Readings, "plots", row.Plots, "duration", row.Duration)

	s.publishReadings(ctx, readings)
	s.publishPlots(ctx, plots)
	s.publishTick(ctx, row)
	return row, nil
}

func (s *Simulator) publishReadings(ctx context.Context, rows []telemetry.ReadingRow) {
	if s.writer == nil || len(rows) == 0 {
		return
	}
	log := logging.FromContext(ctx)
	// Batch support if writer implements WriteReadings
	if bw, ok := s.writer.(batchReadingWriter); ok {
		if err := bw.WriteReadings(rows); err != nil {
			log.Error("batch write failed", "err", err)
		}
		return
	}
	for _, row := range rows {
		if err := s.writer.WriteReading(row); err != nil {
			log.Error("write failed", "sensor", row.SensorCode, "err", err)
		}
	}
}

func (s *Simulator) publishPlots(ctx context.Context, rows []telemetry.PlotRow) {
	pw, ok := s.writer.(PlotWriter)
	if !ok || len(rows) == 0 {
		return
	}
	if err := pw.WritePlots(rows); err != nil {
		logging.FromContext(ctx).Error("plot write failed", "err", err)
	}
}

func (s *Simulator) publishTick(ctx context.Context, row telemetry.TickRow) {
	tw, ok := s.writer.(TickWriter)
	if !ok {
		return
	}
	if err := tw.WriteTick(row); err != nil {
		logging.FromContext(ctx).Error("tick write failed", "err", err)
	}
}
