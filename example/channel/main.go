package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ghalamif/SensorStat"
)

// A line-based console transport: type status, chart or list ok|down|warn.
func main() {
	cfg, err := sensorstat.LoadConfig("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	notifier, replies, closeReplies := sensorstat.NewChannelNotifier(32)
	defer closeReplies()

	rt, err := sensorstat.NewRuntime(cfg, sensorstat.WithNotifier(notifier))
	if err != nil {
		log.Fatalf("start runtime: %v", err)
	}
	defer rt.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go printReplies(replies)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd, ok := parse(scanner.Text())
		if !ok {
			fmt.Println("commands: status | chart | list ok|down|warn")
			continue
		}
		if err := rt.Handle(ctx, sensorstat.Request{ChatID: 1, Command: cmd}); err != nil {
			log.Printf("handle: %v", err)
		}
	}
}

func parse(line string) (sensorstat.Command, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, false
	}
	switch fields[0] {
	case "status":
		return sensorstat.StatusCommand{}, true
	case "chart":
		return sensorstat.TrendCommand{}, true
	case "list":
		if len(fields) != 2 {
			return nil, false
		}
		class, ok := map[string]sensorstat.StatusClass{
			"ok":   sensorstat.Operational,
			"down": sensorstat.NonOperational,
			"warn": sensorstat.Degraded,
		}[fields[1]]
		if !ok {
			return nil, false
		}
		return sensorstat.ListCommand{Class: class}, true
	}
	return nil, false
}

func printReplies(replies <-chan sensorstat.Message) {
	for m := range replies {
		switch {
		case m.Image != nil:
			path := m.Image.Name
			if err := os.WriteFile(path, m.Image.Data, 0o644); err != nil {
				log.Printf("write chart: %v", err)
				continue
			}
			fmt.Printf("chart written to %s\n", path)
		default:
			fmt.Println(m.Text)
		}
	}
}
