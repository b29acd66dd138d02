// Simulator orchestrating sensor sampling and plot economics ticks
package sim

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"fieldops-sim/internal/economics"
	"fieldops-sim/internal/farm"
	"fieldops-sim/internal/telemetry"
)

// ReadingWriter is an interface to support different output writers.
type ReadingWriter interface {
	WriteReading(telemetry.ReadingRow) error
}

// Optional: Writers can also support batch mode
type batchReadingWriter interface {
	WriteReadings([]telemetry.ReadingRow) error
}

// PlotWriter receives the economic snapshot of every plot after a committed tick.
type PlotWriter interface {
	WritePlots([]telemetry.PlotRow) error
}

// TickWriter receives one summary per tick, including failed ones.
type TickWriter interface {
	WriteTick(telemetry.TickRow) error
}

// Stats are the cumulative counters of a simulator.
type Stats struct {
	Ticks       uint64            `json:"ticks"`
	Failures    uint64            `json:"failures"`
	LastTick    telemetry.TickRow `json:"last_tick"`
	LastSuccess time.Time         `json:"last_success"`
}

// Simulator advances the farm one tick at a time. Ticks never overlap.
type Simulator struct {
	repo         farm.TxRepository
	gen          *telemetry.Generator
	econ         *economics.Updater
	writer       ReadingWriter
	tickInterval time.Duration
	scheduler    Scheduler
	now          func() time.Time
	newID        func() string

	mu    sync.Mutex
	stats Stats
}

// NewSimulator wires the engine. writer may be nil; when it also implements
// PlotWriter or TickWriter it receives those rows too.
func NewSimulator(repo farm.TxRepository, writer ReadingWriter, tickInterval time.Duration, rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{
		repo:         repo,
		gen:          telemetry.NewGenerator(rng),
		econ:         economics.NewUpdater(rng),
		writer:       writer,
		tickInterval: tickInterval,
		scheduler:    TickerScheduler{},
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// SetScheduler replaces the periodic trigger used by Run.
func (s *Simulator) SetScheduler(sch Scheduler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduler = sch
}

// SetClock replaces the time source used to stamp ticks.
func (s *Simulator) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// TickInterval returns the configured period between ticks.
func (s *Simulator) TickInterval() time.Duration {
	return s.tickInterval
}

// Stats returns a copy of the counters.
func (s *Simulator) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
