// ColorStdoutWriter prints human-friendly, colorized telemetry to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"fieldops-sim/internal/config"
	"fieldops-sim/internal/farm"
	"fieldops-sim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

var kindColors = map[farm.SensorKind]string{
	farm.SensorAirTemp:       colorRed,
	farm.SensorAirHumidity:   colorBlue,
	farm.SensorSoilTemp:      colorYellow,
	farm.SensorSoilMoisture:  colorCyan,
	farm.SensorSatelliteNDVI: colorGreen,
}

// ColorStdoutWriter prints rows using ANSI colors.
type ColorStdoutWriter struct {
	cfg  *config.Config
	out  io.Writer
	once sync.Once
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(cfg *config.Config) *ColorStdoutWriter {
	return &ColorStdoutWriter{cfg: cfg, out: os.Stdout}
}

func (w *ColorStdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}

	fmt.Fprintln(w.out, "Simulation Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Farm:\t%s\n", w.cfg.Farm.Name)
	fmt.Fprintf(tw, "Tick Interval:\t%s\n", w.cfg.Simulation.TickInterval)
	fmt.Fprintf(tw, "Database:\t%s\n", w.cfg.Database.Path)
	fmt.Fprintf(tw, "Timezone:\t%s\n", w.cfg.Simulation.Timezone)
	tw.Flush()

	fmt.Fprintln(w.out, "\nPlots:")
	tw = tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\tKind\tArea (ha)\tState\n")
	for _, p := range w.cfg.Farm.Plots {
		col := colorGreen
		if p.State != string(farm.PlotActive) {
			col = colorGray
		}
		fmt.Fprintf(tw, "%s%s%s\t%s\t%.1f\t%s\n", col, p.Name, colorReset, p.Kind, p.AreaHa, p.State)
	}
	tw.Flush()
	fmt.Fprintln(w.out)
}

// WriteReading outputs a single reading in colorized format.
func (w *ColorStdoutWriter) WriteReading(row telemetry.ReadingRow) error {
	w.once.Do(w.printOverview)

	kColor, ok := kindColors[row.Kind]
	if !ok {
		kColor = colorMagenta
	}
	qColor := colorGreen
	switch row.Quality {
	case farm.QualityInvalid:
		qColor = colorRed
	case farm.QualitySuspect:
		qColor = colorYellow
	}

	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, row.Timestamp.Format(time.RFC3339), colorReset)
	fmt.Fprintf(w.out, "%splot=%d%s ", colorBlue, row.PlotID, colorReset)
	fmt.Fprintf(w.out, "%ssensor=%s%s ", kColor, row.SensorCode, colorReset)
	fmt.Fprintf(w.out, "%skind=%s%s ", kColor, row.Kind, colorReset)
	fmt.Fprintf(w.out, "%svalue=%.2f %s%s ", colorCyan, row.Value, row.Unit, colorReset)
	fmt.Fprintf(w.out, "%squality=%s%s", qColor, row.Quality, colorReset)
	fmt.Fprintln(w.out)
	return nil
}

// WriteReadings outputs multiple reading rows.
func (w *ColorStdoutWriter) WriteReadings(rows []telemetry.ReadingRow) error {
	for _, r := range rows {
		_ = w.WriteReading(r)
	}
	return nil
}

// WritePlots prints one economics line per plot.
func (w *ColorStdoutWriter) WritePlots(rows []telemetry.PlotRow) error {
	w.once.Do(w.printOverview)
	for _, p := range rows {
		bal := p.RevenueEUR - p.CostEUR
		balColor := colorGreen
		if bal < 0 {
			balColor = colorRed
		}
		fmt.Fprintf(w.out, "%s[%s]%s %sPLOT%s %s state=%s prod=%.2fkg cost=%.2f€ rev=%.2f€ %sbalance=%.2f€%s\n",
			colorGray, p.Timestamp.Format(time.RFC3339), colorReset,
			colorMagenta, colorReset, p.Name, p.State,
			p.ProductionKg, p.CostEUR, p.RevenueEUR,
			balColor, bal, colorReset)
	}
	return nil
}

// WriteTick prints the tick summary line.
func (w *ColorStdoutWriter) WriteTick(row telemetry.TickRow) error {
	w.once.Do(w.printOverview)
	if row.Failed() {
		fmt.Fprintf(w.out, "%s[%s]%s %sTICK FAILED%s id=%s err=%s\n",
			colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
			colorRed, colorReset, row.TickID, row.Error)
		return nil
	}
	fmt.Fprintf(w.out, "%s[%s]%s %sTICK%s id=%s readings=%d plots=%d took=%s\n",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorBlue, colorReset, row.TickID, row.Readings, row.Plots, row.Duration)
	return nil
}
