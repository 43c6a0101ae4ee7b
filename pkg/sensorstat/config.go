package sensorstat

import (
	"io"
	"log/slog"

	"github.com/ghalamif/SensorStat/internal/adapters/observability"
	"github.com/ghalamif/SensorStat/internal/adapters/source"
	"github.com/ghalamif/SensorStat/internal/app/config"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// SourcesConfig lists the external Postgres databases.
	SourcesConfig = config.SourcesConfig
	// SourceProfile holds the connection details of one source.
	SourceProfile = source.Profile
	// TelegramConfig configures the bot and the default group title.
	TelegramConfig = config.TelegramConfig
	// ScheduleConfig controls the periodic refresh.
	ScheduleConfig = config.ScheduleConfig
	// HistoryConfig configures the SQLite history store.
	HistoryConfig = config.HistoryConfig
	// ReportConfig controls summary and list rendering.
	ReportConfig = config.ReportConfig
	// TrendConfig controls the trend chart.
	TrendConfig = config.TrendConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// LogConfig configures the process logger.
	LogConfig = config.LogConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// NewLogger builds the process logger described by cfg: tint on stderr plus
// an optional JSON file. Close the returned closer on exit.
func NewLogger(cfg LogConfig) (*slog.Logger, io.Closer, error) {
	return observability.NewLogger(cfg.Level, cfg.File)
}
