// Package series pivots stored readings into chart-ready time series.
package series

import (
	"context"
	"sort"
	"time"

	"fieldops-sim/internal/farm"
)

// DefaultWindow is one day of 15-minute samples.
const DefaultWindow = 96

// LabelLayout formats the label axis.
const LabelLayout = "15:04"

// Dataset is one sensor's series aligned to the chart's label axis.
// A nil entry in Data means the sensor has no sample at that label.
type Dataset struct {
	Label           string     `json:"label"`
	SensorCode      string     `json:"sensorCode"`
	StyleKey        string     `json:"styleKey"`
	Data            []*float64 `json:"data"`
	BorderColor     string     `json:"borderColor"`
	BackgroundColor string     `json:"backgroundColor"`
	Fill            bool       `json:"fill"`
	Tension         float64    `json:"tension"`
}

// Chart is the temperature and humidity payload of a plot.
type Chart struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type style struct {
	label string
	key   string
	color string
}

var styles = map[farm.SensorKind]style{
	farm.SensorAirTemp:     {label: "Temperatura Aria (°C)", key: "air_temp", color: "rgb(255, 99, 132)"},
	farm.SensorAirHumidity: {label: "Umidità Aria (%)", key: "air_humidity", color: "rgb(54, 162, 235)"},
}

// Builder reads through a repository and never writes.
type Builder struct {
	repo   farm.Repository
	window int
	loc    *time.Location
}

// NewBuilder creates a builder. Zero window means DefaultWindow, nil loc means UTC.
func NewBuilder(repo farm.Repository, window int, loc *time.Location) *Builder {
	if window <= 0 {
		window = DefaultWindow
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{repo: repo, window: window, loc: loc}
}

// BuildSeries returns the air temperature and humidity chart of a plot.
//
// A plot without active sensors fails with a *farm.NotFoundError: plain when the
// plot does not exist, with Reason farm.ErrNoActiveSensors when it does. A plot
// whose active sensors are all of other kinds yields an empty chart.
func (b *Builder) BuildSeries(ctx context.Context, plotID uint) (Chart, error) {
	var chart Chart
	err := b.view(ctx, func(repo farm.Repository) error {
		var err error
		chart, err = b.buildSeries(ctx, repo, plotID)
		return err
	})
	if err != nil {
		return Chart{}, err
	}
	return chart, nil
}

// view runs fn against a single snapshot when the repository offers one, so a
// tick committing mid-build cannot split the chart across two states.
func (b *Builder) view(ctx context.Context, fn func(farm.Repository) error) error {
	if s, ok := b.repo.(farm.Snapshotter); ok {
		return s.Snapshot(ctx, fn)
	}
	return fn(b.repo)
}

func (b *Builder) buildSeries(ctx context.Context, repo farm.Repository, plotID uint) (Chart, error) {
	sensors, err := repo.ActiveSensorsByPlot(ctx, plotID)
	if err != nil {
		return Chart{}, err
	}
	if len(sensors) == 0 {
		if _, err := repo.PlotByID(ctx, plotID); err != nil {
			return Chart{}, err
		}
		nf := farm.PlotNotFound(plotID)
		nf.Reason = farm.ErrNoActiveSensors
		return Chart{}, nf
	}

	var selected []farm.Sensor
	for _, s := range sensors {
		if _, ok := styles[s.Kind]; ok {
			selected = append(selected, s)
		}
	}
	chart := Chart{Labels: []string{}, Datasets: []Dataset{}}
	if len(selected) == 0 {
		return chart, nil
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].ID < selected[j].ID })

	series := make([][]farm.Reading, len(selected))
	axis := make(map[int64]time.Time)
	for i, s := range selected {
		readings, err := repo.RecentReadings(ctx, s.ID, b.window)
		if err != nil {
			return Chart{}, err
		}
		reverse(readings)
		series[i] = readings
		for _, r := range readings {
			axis[r.Timestamp.UnixNano()] = r.Timestamp
		}
	}

	stamps := make([]time.Time, 0, len(axis))
	for _, ts := range axis {
		stamps = append(stamps, ts)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	index := make(map[int64]int, len(stamps))
	for i, ts := range stamps {
		index[ts.UnixNano()] = i
		chart.Labels = append(chart.Labels, ts.In(b.loc).Format(LabelLayout))
	}

	for i, s := range selected {
		st := styles[s.Kind]
		data := make([]*float64, len(stamps))
		for _, r := range series[i] {
			v := r.Value
			data[index[r.Timestamp.UnixNano()]] = &v
		}
		chart.Datasets = append(chart.Datasets, Dataset{
			Label:           st.label,
			SensorCode:      s.Code,
			StyleKey:        st.key,
			Data:            data,
			BorderColor:     st.color,
			BackgroundColor: st.color,
			Fill:            false,
			Tension:         0.1,
		})
	}
	return chart, nil
}

func reverse(rs []farm.Reading) {
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
}
