package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"fieldops-sim/internal/config"
	"fieldops-sim/internal/sim"
)

const (
	outputJSON  = "json"
	outputColor = "color"
	outputTUI   = "tui"
	outputNone  = "none"
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// newWriter builds the export sink for output, adds the GreptimeDB mirror when an
// endpoint is configured and the JSONL files when logFile is set. The TUI needs a
// terminal and falls back to colored output without one. A nil writer means no sink.
func newWriter(cfg *config.Config, output, logFile string, tty bool) (sim.ReadingWriter, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	var writers []sim.ReadingWriter
	switch output {
	case outputJSON:
		writers = append(writers, sim.NewJSONStdoutWriter())
	case outputColor:
		writers = append(writers, sim.NewColorStdoutWriter(cfg))
	case outputTUI:
		if !tty {
			writers = append(writers, sim.NewColorStdoutWriter(cfg))
			break
		}
		tw := sim.NewTUIWriter(cfg)
		closers = append(closers, tw.Close)
		writers = append(writers, tw)
	case outputNone, "":
	default:
		return nil, nil, fmt.Errorf("unknown output %q (want json, color, tui or none)", output)
	}

	if cfg != nil && cfg.Greptime.Endpoint != "" {
		gw, err := sim.NewGreptimeDBWriter(cfg.Greptime)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		writers = append(writers, gw)
	}

	if logFile != "" {
		fw, err := sim.NewFileWriter(logFile, logFile+".plots", logFile+".ticks")
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, fw.Close)
		writers = append(writers, fw)
	}

	switch len(writers) {
	case 0:
		return nil, cleanup, nil
	case 1:
		return writers[0], cleanup, nil
	default:
		return sim.NewMultiWriter(writers...), cleanup, nil
	}
}
