package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fieldops-sim/internal/store"
)

var seedFixLegacy bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Provision the configured farm into an empty database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogger(os.Stderr)

		st, err := store.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		res, err := st.Seed(cmd.Context(), cfg.Farm)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "plots created: %d, sensors created: %d\n", res.Plots, res.Sensors)

		if seedFixLegacy {
			n, err := st.SanitizeLegacy(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "legacy plots normalized: %d\n", n)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedFixLegacy, "fix-legacy", false, "Also set missing production, cost and revenue to zero")
}
