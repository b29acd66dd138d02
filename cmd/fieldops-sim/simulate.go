package main

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fieldops-sim/internal/api"
	"fieldops-sim/internal/logging"
	"fieldops-sim/internal/series"
	"fieldops-sim/internal/sim"
)

var (
	simTick    time.Duration
	simOutput  string
	simLogFile string
	simListen  string
	simNoHTTP  bool
	simSeed    int64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the tick loop and the HTTP API",
	Long:  "simulate samples every active sensor and advances plot economics on each tick until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("tick") {
			cfg.Simulation.TickInterval = simTick
		}
		if cmd.Flags().Changed("listen") {
			cfg.HTTP.Listen = simListen
		}
		if cmd.Flags().Changed("seed") {
			cfg.Simulation.Seed = simSeed
		}

		tty := isTerminal(os.Stdout)
		var logOut io.Writer = os.Stderr
		if simOutput == outputTUI && tty {
			logOut = io.Discard
		}
		log := setupLogger(logOut)

		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)
		cmd.SetContext(ctx)

		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		if n, err := st.SanitizeLegacy(ctx); err != nil {
			return err
		} else if n > 0 {
			log.Info("normalized legacy plot economics", "plots", n)
		}

		writer, cleanup, err := newWriter(cfg, simOutput, simLogFile, tty)
		if err != nil {
			return err
		}
		defer cleanup()

		simulator := sim.NewSimulator(st, writer, cfg.Simulation.TickInterval, newRand(cfg.Simulation.Seed))
		simulator.SetScheduler(sim.TickerScheduler{Immediate: cfg.Simulation.TickOnStart})

		var srv *api.Server
		if !simNoHTTP {
			srv = api.NewServer(st, series.NewBuilder(st, cfg.Series.Window, loc), simulator, cfg.Farm.Name, log)
			go func() {
				if err := srv.Start(cfg.HTTP.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server failed", "err", err)
					stop()
				}
			}()
		}

		simulator.Run(ctx)

		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("http shutdown", "err", err)
			}
		}
		stats := simulator.Stats()
		log.Info("simulation stopped", "ticks", stats.Ticks, "failures", stats.Failures)
		return nil
	},
}

func init() {
	simulateCmd.Flags().DurationVar(&simTick, "tick", 0, "Tick interval (overrides config, e.g. 2s, 15m)")
	simulateCmd.Flags().StringVar(&simOutput, "output", outputColor, "Export sink: json, color, tui, none")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export reading rows (JSONL); plots and ticks go to .plots and .ticks")
	simulateCmd.Flags().StringVar(&simListen, "listen", "", "HTTP listen address (overrides config)")
	simulateCmd.Flags().BoolVar(&simNoHTTP, "no-http", false, "Do not start the HTTP API")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "Random seed (0 seeds from the clock)")
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
