package series

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"fieldops-sim/internal/config"
	"fieldops-sim/internal/farm"
	"fieldops-sim/internal/sim"
	"fieldops-sim/internal/store"
)

// snapshotRepo counts the snapshots a builder asks for.
type snapshotRepo struct {
	*memRepo
	snapshots int
}

func (s *snapshotRepo) Snapshot(_ context.Context, fn func(farm.Repository) error) error {
	s.snapshots++
	return fn(s.memRepo)
}

func TestBuildersReadThroughOneSnapshot(t *testing.T) {
	repo := &snapshotRepo{memRepo: demoRepo()}
	b := NewBuilder(repo, 0, nil)
	ctx := context.Background()

	if _, err := b.BuildSeries(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if repo.snapshots != 1 {
		t.Fatalf("BuildSeries used %d snapshots, want 1", repo.snapshots)
	}
	if _, err := b.Overview(ctx); err != nil {
		t.Fatal(err)
	}
	if repo.snapshots != 2 {
		t.Fatalf("Overview used %d snapshots, want 1", repo.snapshots-1)
	}
}

func checkLockStep(t *testing.T, chart Chart, window int) {
	t.Helper()
	if len(chart.Labels) > window {
		t.Fatalf("label axis has %d entries, window is %d", len(chart.Labels), window)
	}
	if len(chart.Datasets) != 2 {
		t.Fatalf("expected 2 datasets, got %d", len(chart.Datasets))
	}
	for _, d := range chart.Datasets {
		if len(d.Data) != len(chart.Labels) {
			t.Fatalf("%s has %d values for %d labels", d.SensorCode, len(d.Data), len(chart.Labels))
		}
		for i, v := range d.Data {
			if v == nil {
				t.Fatalf("%s[%d] is null: chart spans two ticks (labels %v)", d.SensorCode, i, chart.Labels)
			}
		}
	}
}

func TestBuildSeriesConsistentDuringTicks(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "series.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	ctx := context.Background()
	if _, err := st.Seed(ctx, config.DemoFarm()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	const window = 8
	s := sim.NewSimulator(st, nil, time.Minute, rand.New(rand.NewSource(11)))
	// Tick reads the clock twice, so ticks land 15 minutes apart
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time {
		now = now.Add(450 * time.Second)
		return now
	})
	b := NewBuilder(st, window, time.UTC)

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 60; i++ {
			if _, err := s.Tick(ctx); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	builds := 0
	for {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("tick: %v", err)
			}
			chart, err := b.BuildSeries(ctx, 1)
			if err != nil {
				t.Fatal(err)
			}
			checkLockStep(t, chart, window)
			if len(chart.Labels) != window {
				t.Fatalf("expected a full window after 60 ticks, got %d labels", len(chart.Labels))
			}
			t.Logf("%d builds during ticks", builds)
			return
		default:
		}

		chart, err := b.BuildSeries(ctx, 1)
		if err != nil {
			t.Fatalf("build %d: %v", builds, err)
		}
		checkLockStep(t, chart, window)
		builds++
	}
}
