package sensorstat

import (
	"context"
	"io"
	"log/slog"

	base "github.com/ghalamif/SensorStat/pkg/sensorstat"
)

// Re-exported errors for convenience.
var (
	ErrSourceUnavailable = base.ErrSourceUnavailable
	ErrPersistence       = base.ErrPersistence
	ErrNoData            = base.ErrNoData

	ErrChannelNotifierClosed = base.ErrChannelNotifierClosed
)

const (
	Operational    = base.Operational
	NonOperational = base.NonOperational
	Degraded       = base.Degraded
)

// Type aliases so consumers can import github.com/ghalamif/SensorStat directly.
type (
	Config         = base.Config
	SourcesConfig  = base.SourcesConfig
	SourceProfile  = base.SourceProfile
	TelegramConfig = base.TelegramConfig
	ScheduleConfig = base.ScheduleConfig
	HistoryConfig  = base.HistoryConfig
	ReportConfig   = base.ReportConfig
	TrendConfig    = base.TrendConfig
	MetricsConfig  = base.MetricsConfig
	LogConfig      = base.LogConfig
	Runtime        = base.Runtime
	RuntimeOption  = base.RuntimeOption
	Report         = base.Report
	SensorRecord   = base.SensorRecord
	Counts         = base.Counts
	Snapshot       = base.Snapshot
	ChartArtifact  = base.ChartArtifact
	SensorSource   = base.SensorSource
	HistoryStore   = base.HistoryStore
	TrendRenderer  = base.TrendRenderer
	Notifier       = base.Notifier
	Observability  = base.Observability
	Field          = base.Field
	Action         = base.Action
	Message        = base.Message
	MessageFunc    = base.MessageFunc
	Request        = base.Request
	Recipient      = base.Recipient
	Command        = base.Command
	StartCommand   = base.StartCommand
	StatusCommand  = base.StatusCommand
	TrendCommand   = base.TrendCommand
	ListCommand    = base.ListCommand
	StatusClass    = base.StatusClass
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func NewLogger(cfg LogConfig) (*slog.Logger, io.Closer, error) {
	return base.NewLogger(cfg)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func RunReport(ctx context.Context, cfg *Config, group string, opts ...RuntimeOption) (*Report, error) {
	return base.RunReport(ctx, cfg, group, opts...)
}

func WithSource(s SensorSource) RuntimeOption {
	return base.WithSource(s)
}

func WithHistory(h HistoryStore) RuntimeOption {
	return base.WithHistory(h)
}

func WithTrendRenderer(t TrendRenderer) RuntimeOption {
	return base.WithTrendRenderer(t)
}

func WithNotifier(n Notifier) RuntimeOption {
	return base.WithNotifier(n)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithLogger(l *slog.Logger) RuntimeOption {
	return base.WithLogger(l)
}

// Notifier adapters.
func NewCallbackNotifier(fn MessageFunc) Notifier {
	return base.NewCallbackNotifier(fn)
}

func NewChannelNotifier(buffer int) (Notifier, <-chan Message, func()) {
	return base.NewChannelNotifier(buffer)
}
