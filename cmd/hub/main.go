package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"fleetwatch/internal/config"
	"fleetwatch/internal/hub"
	"fleetwatch/internal/model"
	"fleetwatch/internal/store"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config/config.yaml", "path to YAML config")
	flag.Parse()

	if err := run(cfgPath); err != nil {
		log.Fatal(err)
	}
}

func run(cfgPath string) error {
	cfg, err := config.LoadYAML(cfgPath)
	if err != nil {
		return err
	}

	s, err := store.Open(cfg.Hub.DBPath)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Seed thresholds from config only while no authoritative value has
	// been saved yet.
	if cfg.Thresholds != nil {
		saved, err := s.HasThresholds(ctx)
		if err != nil {
			return err
		}
		if !saved {
			th := model.MergeThresholds(model.DefaultThresholds(), *cfg.Thresholds)
			if err := s.SaveThresholds(ctx, th); err != nil {
				return err
			}
			log.Printf("seeded thresholds from config: %+v", th)
		}
	}

	return hub.New(s).Serve(ctx, cfg.Hub.Listen)
}
