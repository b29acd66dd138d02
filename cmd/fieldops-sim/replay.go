package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fieldops-sim/internal/sim"
)

var (
	replayInput  string
	replaySpeed  float64
	replayOutput string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay an exported reading log",
	Long:  "replay feeds reading rows from a JSONL log back into GreptimeDB or STDOUT.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogger(os.Stderr)

		writer, cleanup, err := newWriter(cfg, replayOutput, "", false)
		if err != nil {
			return err
		}
		defer cleanup()
		if writer == nil {
			return fmt.Errorf("replay needs a sink: use --output or set GREPTIMEDB_ENDPOINT")
		}
		return sim.ReplayLogFile(replayInput, writer, replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to reading log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (0 for no delay)")
	replayCmd.Flags().StringVar(&replayOutput, "output", outputJSON, "Export sink: json, color, none")
	_ = replayCmd.MarkFlagRequired("input")
}
