package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fleetwatch/internal/config"
	"fleetwatch/internal/feed"
	"fleetwatch/internal/ingest"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config/config.yaml", "path to YAML config")
	flag.Parse()

	cfg, err := config.LoadYAML(cfgPath)
	if err != nil {
		log.Fatalf("load yaml config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		log.Printf("received signal: %v, shutting down...", s)
		cancel()
	}()

	client, err := feed.Dial(ctx, cfg.Hub.URL)
	if err != nil {
		log.Fatalf("connect hub: %v", err)
	}
	defer client.Close()

	mgr := &ingest.Manager{Cfg: cfg, Sink: client}
	if err := mgr.Run(ctx); err != nil {
		log.Printf("manager exited with error: %v", err)
	}
}
