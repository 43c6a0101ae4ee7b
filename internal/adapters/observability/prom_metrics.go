package observability

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ghalamif/SensorStat/internal/domain"
	"github.com/ghalamif/SensorStat/internal/ports"
)

// PromObs owns its registry, so any number of instances can live in one process.
type PromObs struct {
	log      *slog.Logger
	reg      *prometheus.Registry
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs(logger *slog.Logger) *PromObs {
	if logger == nil {
		logger = slog.Default()
	}

	refreshes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sensorstat_refresh_total",
		Help: "Refresh passes that classified the fleet.",
	})
	refreshFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sensorstat_refresh_failures_total",
		Help: "Refresh passes aborted by a source or classification error.",
	})
	persistFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sensorstat_persist_failures_total",
		Help: "Snapshots that could not be written to the history store.",
	})
	commands := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sensorstat_commands_total",
		Help: "Inbound commands handled.",
	})
	operational := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sensorstat_operational_sensors",
		Help: "Operational sensors in the latest pass of the default group.",
	})
	nonOperational := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sensorstat_non_operational_sensors",
		Help: "Non-operational sensors in the latest pass of the default group.",
	})
	degraded := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sensorstat_degraded_sensors",
		Help: "Sensors with warnings in the latest pass of the default group.",
	})
	fetchLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sensorstat_source_fetch_seconds",
		Help:    "Time spent querying one external source.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
	passLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sensorstat_refresh_seconds",
		Help:    "End-to-end duration of a refresh pass.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		refreshes, refreshFailures, persistFailures, commands,
		operational, nonOperational, degraded, fetchLatency, passLatency,
	)

	return &PromObs{
		log: logger,
		reg: reg,
		counters: map[string]prometheus.Counter{
			"sensorstat_refresh_total":          refreshes,
			"sensorstat_refresh_failures_total": refreshFailures,
			"sensorstat_persist_failures_total": persistFailures,
			"sensorstat_commands_total":         commands,
		},
		gauges: map[string]prometheus.Gauge{
			"sensorstat_operational_sensors":     operational,
			"sensorstat_non_operational_sensors": nonOperational,
			"sensorstat_degraded_sensors":        degraded,
		},
		histos: map[string]prometheus.Observer{
			"sensorstat_source_fetch_seconds": fetchLatency,
			"sensorstat_refresh_seconds":      passLatency,
		},
	}
}

// Registry exposes the collectors, e.g. for tests or an extra exporter.
func (p *PromObs) Registry() *prometheus.Registry { return p.reg }

// Handler serves this instance's metrics in the Prometheus text format.
func (p *PromObs) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{Registry: p.reg})
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.log.Info(msg, attrs(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.log.Error(msg, append(attrs(fields), slog.Any("error", err))...)
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	p.log.Error(msg, append(attrs(fields), slog.Any("error", err), slog.Bool("critical", true))...)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

// RecordClassification publishes the per-class gauges and logs the counts.
func (p *PromObs) RecordClassification(group string, counts domain.Counts) {
	p.SetGauge("sensorstat_operational_sensors", float64(counts.Operational))
	p.SetGauge("sensorstat_non_operational_sensors", float64(counts.NonOperational))
	p.SetGauge("sensorstat_degraded_sensors", float64(counts.Degraded))
	p.log.Info("classification",
		slog.String("group", group),
		slog.Int("operational", counts.Operational),
		slog.Int("non_operational", counts.NonOperational),
		slog.Int("degraded", counts.Degraded))
}

func attrs(fields []ports.Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
