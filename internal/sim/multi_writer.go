package sim

import (
	"errors"

	"fieldops-sim/internal/telemetry"
)

// MultiWriter fans rows out to several writers. Plot and tick rows go only to
// writers implementing PlotWriter or TickWriter. Every writer is attempted even
// when an earlier one fails; the errors are joined.
type MultiWriter struct {
	writers []ReadingWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...ReadingWriter) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Add appends a writer.
func (mw *MultiWriter) Add(w ReadingWriter) {
	mw.writers = append(mw.writers, w)
}

// Len reports the number of writers.
func (mw *MultiWriter) Len() int { return len(mw.writers) }

// WriteReading sends a reading row to all writers.
func (mw *MultiWriter) WriteReading(row telemetry.ReadingRow) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.WriteReading(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteReadings sends multiple reading rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteReadings(rows []telemetry.ReadingRow) error {
	var errs []error
	for _, w := range mw.writers {
		if bw, ok := w.(batchReadingWriter); ok {
			if err := bw.WriteReadings(rows); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		for _, r := range rows {
			if err := w.WriteReading(r); err != nil {
				errs = append(errs, err)
				break
			}
		}
	}
	return errors.Join(errs...)
}

// WritePlots forwards plot snapshots to plot-aware writers.
func (mw *MultiWriter) WritePlots(rows []telemetry.PlotRow) error {
	var errs []error
	for _, w := range mw.writers {
		if pw, ok := w.(PlotWriter); ok {
			if err := pw.WritePlots(rows); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// WriteTick forwards the tick summary to tick-aware writers.
func (mw *MultiWriter) WriteTick(row telemetry.TickRow) error {
	var errs []error
	for _, w := range mw.writers {
		if tw, ok := w.(TickWriter); ok {
			if err := tw.WriteTick(row); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
