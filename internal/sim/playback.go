package sim

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"fieldops-sim/internal/telemetry"
)

const maxLogLine = 1 << 20

// ReplayLog feeds reading rows exported as JSONL back to writer.
//
// Rows of one tick share a timestamp and are written together; between ticks the
// original gap is slept, divided by speed. A speed <= 0 replays without delay.
// Blank lines are skipped. A row without sensor code or timestamp stops the replay
// with the line number; rows before it have already been written.
func ReplayLog(r io.Reader, writer ReadingWriter, speed float64) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLogLine)

	var prev time.Time
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var row telemetry.ReadingRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if row.SensorCode == "" {
			return fmt.Errorf("line %d: reading without sensor code", line)
		}
		if row.Timestamp.IsZero() {
			return fmt.Errorf("line %d: sensor %s: reading without timestamp", line, row.SensorCode)
		}

		if !prev.IsZero() && speed > 0 && row.Timestamp.After(prev) {
			time.Sleep(time.Duration(float64(row.Timestamp.Sub(prev)) / speed))
		}
		if err := writer.WriteReading(row); err != nil {
			return fmt.Errorf("line %d: sensor %s tick %s: %w", line, row.SensorCode, row.TickID, err)
		}
		prev = row.Timestamp
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("line %d: %w", line+1, err)
	}
	return nil
}

// ReplayLogFile opens a file and replays its reading rows.
func ReplayLogFile(path string, writer ReadingWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := ReplayLog(f, writer, speed); err != nil {
		return fmt.Errorf("replay %s: %w", path, err)
	}
	return nil
}
