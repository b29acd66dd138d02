// YAML config loader with CUE validation and environment overrides
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"fieldops-sim/internal/farm"
)

// Defaults applied when the file leaves a value unset.
const (
	DefaultDBPath        = "fieldops.db"
	DefaultTickInterval  = 15 * time.Minute
	DefaultSeriesWindow  = 96
	DefaultListenAddr    = ":8080"
	DefaultTimezone      = "Europe/Rome"
	DefaultGreptimeDB    = "public"
	DefaultReadingTable  = "field_readings"
	DefaultPlotTable     = "plot_economics"
	DefaultSampleMinutes = 15
)

// DatabaseConfig locates the SQLite store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SimulationConfig tunes the tick engine.
type SimulationConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	TickOnStart  bool          `yaml:"tick_on_start"`
	// Seed fixes the random source; zero seeds from the clock.
	Seed     int64  `yaml:"seed"`
	Timezone string `yaml:"timezone"`
}

// SeriesConfig tunes the chart pivot.
type SeriesConfig struct {
	Window int `yaml:"window"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// GreptimeConfig configures the optional GreptimeDB mirror. Empty endpoint disables it.
type GreptimeConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Database     string `yaml:"database"`
	ReadingTable string `yaml:"reading_table"`
	PlotTable    string `yaml:"plot_table"`
}

// PlotConfig provisions one plot and its standard sensor set.
type PlotConfig struct {
	Name     string  `yaml:"name"`
	Kind     string  `yaml:"kind"`
	AreaHa   float64 `yaml:"area_ha"`
	State    string  `yaml:"state"`
	CodeBase int     `yaml:"code_base"`
}

// FarmConfig describes the farm provisioned into an empty store.
type FarmConfig struct {
	Name          string       `yaml:"name"`
	SampleMinutes int          `yaml:"sample_minutes"`
	BaseLatitude  float64      `yaml:"base_latitude"`
	BaseLongitude float64      `yaml:"base_longitude"`
	Plots         []PlotConfig `yaml:"plots"`
}

// Config is the root configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Simulation SimulationConfig `yaml:"simulation"`
	Series     SeriesConfig     `yaml:"series"`
	HTTP       HTTPConfig       `yaml:"http"`
	Greptime   GreptimeConfig   `yaml:"greptime"`
	Farm       FarmConfig       `yaml:"farm"`
}

// Load reads a YAML config, validates it against the CUE schema when one is given,
// applies defaults and then environment overrides (.env is loaded first if present).
func Load(configPath, cueSchemaPath string) (*Config, error) {
	if cueSchemaPath != "" {
		if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env", "err", err)
	}
	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("loaded configuration", "config", fmt.Sprintf("%+v", cfg))
	return &cfg, nil
}

// Default returns a configuration with every default applied and the demo farm.
func Default() *Config {
	cfg := &Config{Farm: DemoFarm()}
	cfg.Simulation.TickOnStart = true
	cfg.applyDefaults()
	return cfg
}

// DemoFarm is the "La Verde Collina" scenario: two active plots and one resting.
func DemoFarm() FarmConfig {
	return FarmConfig{
		Name:          "La Verde Collina",
		SampleMinutes: DefaultSampleMinutes,
		BaseLatitude:  41.0,
		BaseLongitude: 13.0,
		Plots: []PlotConfig{
			{Name: "Campo Ulivo", Kind: string(farm.PlotOpenField), AreaHa: 20.5, State: string(farm.PlotActive), CodeBase: 10},
			{Name: "Serra Grande", Kind: string(farm.PlotGreenhouse), AreaHa: 5.0, State: string(farm.PlotActive), CodeBase: 1},
			{Name: "Campo Grano", Kind: string(farm.PlotOpenField), AreaHa: 30.0, State: string(farm.PlotDormant), CodeBase: 30},
		},
	}
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = DefaultDBPath
	}
	if c.Simulation.TickInterval <= 0 {
		c.Simulation.TickInterval = DefaultTickInterval
	}
	if c.Simulation.Timezone == "" {
		c.Simulation.Timezone = DefaultTimezone
	}
	if c.Series.Window <= 0 {
		c.Series.Window = DefaultSeriesWindow
	}
	if c.HTTP.Listen == "" {
		c.HTTP.Listen = DefaultListenAddr
	}
	if c.Greptime.Database == "" {
		c.Greptime.Database = DefaultGreptimeDB
	}
	if c.Greptime.ReadingTable == "" {
		c.Greptime.ReadingTable = DefaultReadingTable
	}
	if c.Greptime.PlotTable == "" {
		c.Greptime.PlotTable = DefaultPlotTable
	}
	if c.Farm.SampleMinutes <= 0 {
		c.Farm.SampleMinutes = DefaultSampleMinutes
	}
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("DB_PATH", &c.Database.Path)
	setString("HTTP_ADDR", &c.HTTP.Listen)
	setString("SIM_TIMEZONE", &c.Simulation.Timezone)
	setString("GREPTIMEDB_ENDPOINT", &c.Greptime.Endpoint)
	setString("GREPTIMEDB_DATABASE", &c.Greptime.Database)
	setString("GREPTIMEDB_READING_TABLE", &c.Greptime.ReadingTable)
	setString("GREPTIMEDB_PLOT_TABLE", &c.Greptime.PlotTable)

	if v := os.Getenv("TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TICK_INTERVAL: %w", err)
		}
		c.Simulation.TickInterval = d
	}
	if v := os.Getenv("SIM_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid SIM_SEED: %w", err)
		}
		c.Simulation.Seed = n
	}
	return nil
}

// Validate checks values the schema cannot express.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	seen := make(map[string]bool)
	codeBases := make(map[int]string)
	for _, p := range c.Farm.Plots {
		if _, err := farm.ParsePlotKind(p.Kind); err != nil {
			return fmt.Errorf("plot %q: %w", p.Name, err)
		}
		if _, err := farm.ParsePlotState(p.State); err != nil {
			return fmt.Errorf("plot %q: %w", p.Name, err)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate plot name %q", p.Name)
		}
		seen[p.Name] = true
		if other, ok := codeBases[p.CodeBase]; ok {
			return fmt.Errorf("plots %q and %q share code_base %d", other, p.Name, p.CodeBase)
		}
		codeBases[p.CodeBase] = p.Name
	}
	return nil
}

// Location resolves the configured timezone used for chart labels.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Simulation.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Simulation.Timezone, err)
	}
	return loc, nil
}
