package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"fieldops-sim/internal/config"
	"fieldops-sim/internal/logging"
	"fieldops-sim/internal/store"
)

var (
	rootConfigPath string
	rootSchemaPath string
	rootDBPath     string
	rootLogLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "fieldops-sim",
	Short:         "Farm telemetry and economics simulator",
	Long:          "fieldops-sim samples simulated field sensors, accrues plot economics and serves chart series.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "config/fieldops.yaml", "Path to configuration YAML")
	rootCmd.PersistentFlags().StringVar(&rootSchemaPath, "schema", "schemas/fieldops.cue", "Path to CUE schema file (empty to skip)")
	rootCmd.PersistentFlags().StringVar(&rootDBPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(tickCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(replayCmd)
}

// setupLogger installs the process logger. Logs go to stderr so stdout stays
// free for exported rows.
func setupLogger(w io.Writer) *slog.Logger {
	log := logging.NewWithWriter(w, rootLogLevel)
	slog.SetDefault(log)
	return log
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootConfigPath, rootSchemaPath)
	if err != nil {
		return nil, err
	}
	if rootDBPath != "" {
		cfg.Database.Path = rootDBPath
	}
	return cfg, nil
}

// openStore opens the database and provisions the configured farm when it is empty.
func openStore(cmd *cobra.Command, cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if _, err := st.Seed(cmd.Context(), cfg.Farm); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}
