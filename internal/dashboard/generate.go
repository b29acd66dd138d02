// Package dashboard renders Grafana dashboards for the GreptimeDB mirror of the farm.
package dashboard

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"fieldops-sim/internal/config"
	"fieldops-sim/internal/farm"
)

//go:embed templates/*.json.tmpl
var templates embed.FS

// Panel is one Grafana panel backed by a raw SQL query.
type Panel struct {
	Title string
	Type  string
	Unit  string
	SQL   string
	X, Y  int
}

type dashboardData struct {
	ReadingTable string
	PlotTable    string
	Panels       []Panel
}

// Panels builds the standard panel set for the given tables.
func Panels(readingTable, plotTable string) []Panel {
	kind := func(k farm.SensorKind) string {
		return fmt.Sprintf("SELECT ts AS time, sensor_code AS metric, value FROM %s WHERE kind = '%s' AND plot_id IN (${plot:sqlstring}) AND $__timeFilter(ts) ORDER BY ts",
			readingTable, k)
	}
	econ := func(col string) string {
		return fmt.Sprintf("SELECT ts AS time, name AS metric, %s FROM %s WHERE plot_id IN (${plot:sqlstring}) AND $__timeFilter(ts) ORDER BY ts",
			col, plotTable)
	}
	ps := []Panel{
		{Title: "Air temperature", Type: "timeseries", Unit: "celsius", SQL: kind(farm.SensorAirTemp)},
		{Title: "Air humidity", Type: "timeseries", Unit: "percent", SQL: kind(farm.SensorAirHumidity)},
		{Title: "Soil moisture", Type: "timeseries", Unit: "percent", SQL: kind(farm.SensorSoilMoisture)},
		{Title: "NDVI", Type: "timeseries", Unit: "none", SQL: kind(farm.SensorSatelliteNDVI)},
		{Title: "Production", Type: "timeseries", Unit: "masskg", SQL: econ("production_kg")},
		{Title: "Balance", Type: "timeseries", Unit: "currencyEUR", SQL: econ("balance_eur")},
	}
	for i := range ps {
		ps[i].X = (i % 2) * 12
		ps[i].Y = (i / 2) * 8
	}
	return ps
}

// Render writes every dashboard template to outDir with the .tmpl suffix dropped.
// Datasource uids come from the environment; a missing one is an error.
func Render(outDir string, cfg config.GreptimeConfig) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
		"add": func(a, b int) int { return a + b },
	}

	readingTable := cfg.ReadingTable
	if readingTable == "" {
		readingTable = config.DefaultReadingTable
	}
	plotTable := cfg.PlotTable
	if plotTable == "" {
		plotTable = config.DefaultPlotTable
	}
	data := dashboardData{
		ReadingTable: readingTable,
		PlotTable:    plotTable,
		Panels:       Panels(readingTable, plotTable),
	}

	names, err := templates.ReadDir("templates")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, entry := range names {
		name := entry.Name()
		t, err := template.New(name).Funcs(funcMap).ParseFS(templates, "templates/"+name)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(name, ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := t.Execute(f, data); err != nil {
			f.Close()
			return fmt.Errorf("render %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
