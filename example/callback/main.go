package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/ghalamif/SensorStat"
)

// Runs the hourly refresh without Telegram and prints every scheduled
// summary to stdout.
func main() {
	cfg, err := sensorstat.LoadConfig("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.Schedule.Notify = true
	if cfg.Telegram.ChatID == 0 {
		cfg.Telegram.ChatID = 1
	}

	stdout := func(_ context.Context, m sensorstat.Message) error {
		fmt.Printf("[chat %d]\n%s\n", m.ChatID, m.Text)
		for _, a := range m.Actions {
			fmt.Printf("  (%s -> %s)\n", a.Label, a.Data)
		}
		return nil
	}

	rt, err := sensorstat.NewRuntime(cfg, sensorstat.WithNotifier(sensorstat.NewCallbackNotifier(stdout)))
	if err != nil {
		log.Fatalf("start runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}
