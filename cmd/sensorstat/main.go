package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ghalamif/SensorStat"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "report":
		err = reportCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("sensorstat %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := sensorstat.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, closer, err := sensorstat.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	rt, err := sensorstat.NewRuntime(cfg, sensorstat.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rt.Run(ctx)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := sensorstat.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.RequireTelegram(); err != nil {
		fmt.Printf("warning: %v (only report will work)\n", err)
	}
	fmt.Printf("config %s looks good ✅ (%d sources)\n", *cfgPath, len(cfg.Sources.Profiles))
	return nil
}

func reportCommand(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file")
	group := fs.String("group", "", "Group id to report on (default: all groups)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := sensorstat.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, closer, err := sensorstat.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, err := sensorstat.RunReport(ctx, cfg, *group, sensorstat.WithLogger(logger))
	if err != nil {
		return err
	}
	fmt.Print(r.Summary)
	if r.PersistErr != nil {
		return fmt.Errorf("snapshot not saved: %w", r.PersistErr)
	}
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(ctx, *url); err != nil && !errors.Is(err, context.Canceled) {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

var statKeys = []string{
	"sensorstat_operational_sensors",
	"sensorstat_non_operational_sensors",
	"sensorstat_degraded_sensors",
	"sensorstat_refresh_total",
	"sensorstat_refresh_failures_total",
	"sensorstat_persist_failures_total",
}

func printMetricsSnapshot(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	values := make(map[string]float64, len(statKeys))
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for _, key := range statKeys {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %g", &value); err == nil {
					values[key] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Printf("[%s] ok=%.0f down=%.0f warn=%.0f passes=%.0f failed=%.0f unsaved=%.0f\n",
		time.Now().Format(time.RFC3339),
		values["sensorstat_operational_sensors"],
		values["sensorstat_non_operational_sensors"],
		values["sensorstat_degraded_sensors"],
		values["sensorstat_refresh_total"],
		values["sensorstat_refresh_failures_total"],
		values["sensorstat_persist_failures_total"],
	)
	return nil
}

func printUsage() {
	fmt.Printf(`SensorStat CLI

Usage:
  sensorstat <command> [flags]

Commands:
  run        Start the scheduler, the Telegram bot and the metrics server
  validate   Load and validate a config file without starting anything
  report     Run one refresh pass and print the summary
  stats      Poll the Prometheus metrics endpoint and print live counters

Examples:
  sensorstat run -config ./data/config.yaml
  sensorstat validate -config ./data/config.yaml
  sensorstat report -config ./data/config.yaml -group 3
  sensorstat stats -url http://localhost:9100/metrics -interval 1s
`)
}
