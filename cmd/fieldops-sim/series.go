package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fieldops-sim/internal/series"
	"fieldops-sim/internal/store"
)

var (
	seriesPlot     uint
	seriesOverview bool
)

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Print the temperature and humidity chart of a plot as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogger(os.Stderr)
		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		b := series.NewBuilder(st, cfg.Series.Window, loc)

		var out any
		switch {
		case seriesOverview:
			out, err = b.Overview(cmd.Context())
		case seriesPlot == 0:
			return fmt.Errorf("--plot or --overview required")
		default:
			out, err = b.BuildSeries(cmd.Context(), seriesPlot)
		}
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	seriesCmd.Flags().UintVar(&seriesPlot, "plot", 0, "Plot id")
	seriesCmd.Flags().BoolVar(&seriesOverview, "overview", false, "Print the per-plot overview instead")
}
