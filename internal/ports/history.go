package ports

import (
	"context"
	"time"

	"github.com/ghalamif/SensorStat/internal/domain"
)

type HistoryStore interface {
	AppendSnapshot(ctx context.Context, group string, counts domain.Counts, ts time.Time) (domain.Snapshot, error)
	LatestSnapshot(ctx context.Context, group string) (domain.Snapshot, error)
	SnapshotsInRange(ctx context.Context, group string, from, to time.Time) ([]domain.Snapshot, error)
	Purge(ctx context.Context, before time.Time) (int64, error)
}

type TrendRenderer interface {
	RenderTrend(ctx context.Context, group string, from, to time.Time) (*domain.ChartArtifact, error)
}
