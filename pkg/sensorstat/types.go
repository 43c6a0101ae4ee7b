package sensorstat

import (
	"github.com/ghalamif/SensorStat/internal/app/report"
	"github.com/ghalamif/SensorStat/internal/domain"
	"github.com/ghalamif/SensorStat/internal/ports"
)

// SensorRecord is one row reported by a source.
type SensorRecord = domain.SensorRecord

// Counts holds the per-class totals of one classification.
type Counts = domain.Counts

// Snapshot is one persisted history row.
type Snapshot = domain.Snapshot

// ChartArtifact is a rendered trend chart.
type ChartArtifact = domain.ChartArtifact

// Report is the outcome of one refresh pass.
type Report = report.Report

// SensorSource fetches the combined inventory of every configured source.
type SensorSource = ports.SensorSource

// HistoryStore persists snapshots and answers baseline and window queries.
type HistoryStore = ports.HistoryStore

// TrendRenderer turns a history window into a chart.
type TrendRenderer = ports.TrendRenderer

// Notifier delivers replies to a chat.
type Notifier = ports.Notifier

// Observability emits logs and metrics.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

var (
	ErrSourceUnavailable = domain.ErrSourceUnavailable
	ErrPersistence       = domain.ErrPersistence
	ErrNoData            = domain.ErrNoData
)

// Request is one inbound command with the chat to answer in. Build it with
// one of the command types below and pass it to Runtime.Handle.
type Request = ports.Request

// Recipient addresses an outbound message.
type Recipient = ports.Recipient

// Command is implemented by the command types below only.
type Command = ports.Command

type (
	StartCommand  = ports.StartCommand
	StatusCommand = ports.StatusCommand
	TrendCommand  = ports.TrendCommand
	ListCommand   = ports.ListCommand
)

// StatusClass selects one of the three status partitions.
type StatusClass = domain.StatusClass

const (
	Operational    = domain.Operational
	NonOperational = domain.NonOperational
	Degraded       = domain.Degraded
)
