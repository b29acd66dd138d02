package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fieldops-sim/internal/config"
	"fieldops-sim/internal/sim"
	"fieldops-sim/internal/telemetry"
)

func TestNewWriterJSON(t *testing.T) {
	w, cleanup, err := newWriter(config.Default(), outputJSON, "", false)
	if err != nil {
		t.Fatalf("newWriter returned error: %v", err)
	}
	cleanup()
	if _, ok := w.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", w)
	}
}

func TestNewWriterTUIFallback(t *testing.T) {
	w, cleanup, err := newWriter(config.Default(), outputTUI, "", false)
	if err != nil {
		t.Fatalf("newWriter returned error: %v", err)
	}
	cleanup()
	if _, ok := w.(*sim.ColorStdoutWriter); !ok {
		t.Fatalf("expected *sim.ColorStdoutWriter without a terminal, got %T", w)
	}
}

func TestNewWriterNone(t *testing.T) {
	w, cleanup, err := newWriter(config.Default(), outputNone, "", false)
	if err != nil {
		t.Fatalf("newWriter returned error: %v", err)
	}
	cleanup()
	if w != nil {
		t.Fatalf("expected no writer, got %T", w)
	}
}

func TestNewWriterUnknown(t *testing.T) {
	if _, _, err := newWriter(config.Default(), "xml", "", false); err == nil {
		t.Fatalf("expected error for unknown output")
	}
}

func TestNewWriterLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "readings.log")
	w, cleanup, err := newWriter(config.Default(), outputNone, path, false)
	if err != nil {
		t.Fatalf("newWriter returned error: %v", err)
	}
	if _, ok := w.(*sim.FileWriter); !ok {
		t.Fatalf("expected *sim.FileWriter, got %T", w)
	}
	row := telemetry.ReadingRow{TickID: "t1", SensorCode: "A-T10", Value: 21.5, Timestamp: time.Unix(0, 0).UTC()}
	if err := w.WriteReading(row); err != nil {
		t.Fatalf("write: %v", err)
	}
	cleanup()

	for _, p := range []string{path, path + ".plots", path + ".ticks"} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}
	b, _ := os.ReadFile(path)
	if len(b) == 0 {
		t.Fatalf("reading log is empty")
	}
}

func TestNewWriterMulti(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.log")
	w, cleanup, err := newWriter(config.Default(), outputJSON, path, false)
	if err != nil {
		t.Fatalf("newWriter returned error: %v", err)
	}
	defer cleanup()
	mw, ok := w.(*sim.MultiWriter)
	if !ok {
		t.Fatalf("expected *sim.MultiWriter, got %T", w)
	}
	if mw.Len() != 2 {
		t.Fatalf("expected 2 writers, got %d", mw.Len())
	}
}
