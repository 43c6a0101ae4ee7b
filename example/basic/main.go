package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/ghalamif/SensorStat"
)

func main() {
	cfg, err := sensorstat.LoadConfig("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	rt, err := sensorstat.NewRuntime(cfg)
	if err != nil {
		log.Fatalf("start runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("runtime exited: %v", err)
	}
}
