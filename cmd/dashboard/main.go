package main

import (
	"flag"
	"log"

	"fieldops-sim/internal/config"
	"fieldops-sim/internal/dashboard"
)

func main() {
	cfgPath := flag.String("config", "config/fieldops.yaml", "path to the simulation config")
	out := flag.String("out", "build", "output directory")
	flag.Parse()

	cfg, err := config.Load(*cfgPath, "")
	if err != nil {
		log.Fatal(err)
	}
	if err := dashboard.Render(*out, cfg.Greptime); err != nil {
		log.Fatal(err)
	}
}
