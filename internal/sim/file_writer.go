package sim

import (
	"encoding/json"
	"os"

	"fieldops-sim/internal/telemetry"
)

// FileWriter writes readings, plot snapshots and tick summaries to JSONL files.
type FileWriter struct {
	readingFile *os.File
	plotFile    *os.File
	tickFile    *os.File
	readingEnc  *json.Encoder
	plotEnc     *json.Encoder
	tickEnc     *json.Encoder
}

// NewFileWriter creates a FileWriter. plotPath or tickPath may be empty to skip those logs.
func NewFileWriter(readingPath, plotPath, tickPath string) (*FileWriter, error) {
	rf, err := os.Create(readingPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{readingFile: rf, readingEnc: json.NewEncoder(rf)}
	if plotPath != "" {
		pf, err := os.Create(plotPath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.plotFile = pf
		fw.plotEnc = json.NewEncoder(pf)
	}
	if tickPath != "" {
		tf, err := os.Create(tickPath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.tickFile = tf
		fw.tickEnc = json.NewEncoder(tf)
	}
	return fw, nil
}

// WriteReading logs a single reading row.
func (f *FileWriter) WriteReading(row telemetry.ReadingRow) error {
	return f.readingEnc.Encode(row)
}

// WriteReadings logs multiple reading rows.
func (f *FileWriter) WriteReadings(rows []telemetry.ReadingRow) error {
	for _, r := range rows {
		if err := f.WriteReading(r); err != nil {
			return err
		}
	}
	return nil
}

// WritePlots logs plot snapshots, if enabled.
func (f *FileWriter) WritePlots(rows []telemetry.PlotRow) error {
	if f.plotEnc == nil {
		return nil
	}
	for _, r := range rows {
		if err := f.plotEnc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteTick logs a tick summary, if enabled.
func (f *FileWriter) WriteTick(row telemetry.TickRow) error {
	if f.tickEnc == nil {
		return nil
	}
	return f.tickEnc.Encode(row)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	for _, file := range []*os.File{f.readingFile, f.plotFile, f.tickFile} {
		if file == nil {
			continue
		}
		if e := file.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
