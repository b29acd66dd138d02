package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"fieldops-sim/internal/telemetry"
)

// JSONStdoutWriter prints readings, plot snapshots and tick summaries as JSON lines.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

func (w *JSONStdoutWriter) emit(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteReading outputs a reading row in JSON format.
func (w *JSONStdoutWriter) WriteReading(row telemetry.ReadingRow) error {
	return w.emit(row)
}

// WriteReadings outputs multiple reading rows in JSON format.
func (w *JSONStdoutWriter) WriteReadings(rows []telemetry.ReadingRow) error {
	for _, r := range rows {
		if err := w.WriteReading(r); err != nil {
			return err
		}
	}
	return nil
}

// WritePlots outputs one JSON line per plot snapshot.
func (w *JSONStdoutWriter) WritePlots(rows []telemetry.PlotRow) error {
	for _, r := range rows {
		if err := w.emit(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteTick outputs the tick summary.
func (w *JSONStdoutWriter) WriteTick(row telemetry.TickRow) error {
	return w.emit(row)
}
