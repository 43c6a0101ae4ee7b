package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ghalamif/SensorStat/internal/domain"
	"github.com/ghalamif/SensorStat/internal/ports"
)

func TestPromObsMetrics(t *testing.T) {
	obs := NewPromObs(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	obs.IncCounter("sensorstat_refresh_total", 3)
	if got := testutil.ToFloat64(obs.counters["sensorstat_refresh_total"]); got != 3 {
		t.Fatalf("expected refresh counter 3, got %f", got)
	}

	obs.IncCounter("sensorstat_persist_failures_total", 1)
	if got := testutil.ToFloat64(obs.counters["sensorstat_persist_failures_total"]); got != 1 {
		t.Fatalf("expected persist failure counter 1, got %f", got)
	}

	obs.IncCounter("unknown_metric", 1)

	obs.ObserveLatency("sensorstat_source_fetch_seconds", 0.25)
	hCollector := obs.histos["sensorstat_source_fetch_seconds"].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected fetch histogram to record 1 sample, got %d", samples)
	}

	obs.RecordClassification("All", domain.Counts{Operational: 7, NonOperational: 2, Degraded: 1})
	if got := testutil.ToFloat64(obs.gauges["sensorstat_operational_sensors"]); got != 7 {
		t.Fatalf("expected operational gauge 7, got %f", got)
	}
	if got := testutil.ToFloat64(obs.gauges["sensorstat_degraded_sensors"]); got != 1 {
		t.Fatalf("expected degraded gauge 1, got %f", got)
	}
}

func TestPromObsInstancesAreIndependent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	first := NewPromObs(logger)
	second := NewPromObs(logger)

	first.IncCounter("sensorstat_refresh_total", 2)
	if got := testutil.ToFloat64(second.counters["sensorstat_refresh_total"]); got != 0 {
		t.Fatalf("expected second instance to be untouched, got %f", got)
	}

	rec := httptest.NewRecorder()
	first.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics handler returned %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "sensorstat_refresh_total 2") {
		t.Fatalf("expected refresh counter in exposition, got:\n%s", rec.Body.String())
	}
}

func TestPromObsLogsFields(t *testing.T) {
	var buf bytes.Buffer
	obs := NewPromObs(slog.New(slog.NewTextHandler(&buf, nil)))

	obs.LogError("refresh_failed", errors.New("boom"), ports.Field{Key: "group", Value: "All"})
	out := buf.String()
	if !strings.Contains(out, "refresh_failed") || !strings.Contains(out, "group=All") || !strings.Contains(out, "error=boom") {
		t.Fatalf("unexpected log output %q", out)
	}
}

func TestNewLoggerWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sensorstat.log")
	logger, closer, err := NewLogger("warn", path)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Debug("kept in file only")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"kept in file only"`) {
		t.Fatalf("expected debug record in json log, got %q", data)
	}

	if _, _, err := NewLogger("loud", ""); err == nil {
		t.Fatalf("expected invalid level to fail")
	}
}
