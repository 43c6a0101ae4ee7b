package ports

import (
	"context"

	"github.com/ghalamif/SensorStat/internal/domain"
)

// SensorSource returns the full point-in-time inventory across every configured source.
type SensorSource interface {
	FetchAllSensors(ctx context.Context) ([]domain.SensorRecord, error)
}
