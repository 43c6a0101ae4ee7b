package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ghalamif/SensorStat/internal/domain"
	"github.com/ghalamif/SensorStat/internal/ports"
)

// PassFunc is one scheduled unit of work.
type PassFunc func(ctx context.Context) error

// RunScheduler runs pass once immediately and then every interval until ctx
// is cancelled. A failing or panicking pass is logged and the loop re-arms.
func RunScheduler(ctx context.Context, interval time.Duration, pass PassFunc, obs ports.Observability) {
	if obs == nil {
		obs = ports.NopObservability{}
	}

	runPass(ctx, pass, obs)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runPass(ctx, pass, obs)
		}
	}
}

func runPass(ctx context.Context, pass PassFunc, obs ports.Observability) {
	defer func() {
		if r := recover(); r != nil {
			obs.LogCritical("scheduled_pass_panicked", fmt.Errorf("%v", r))
		}
	}()
	if err := pass(ctx); err != nil {
		obs.LogError("scheduled_pass_failed", err)
	}
}

// ScheduledRefresh is the pass the scheduler runs for the default group.
type ScheduledRefresh struct {
	Monitor   *Monitor
	Timeout   time.Duration
	Retention time.Duration
	// Notifier and ChatID are optional; when both are set the summary is posted.
	Notifier ports.Notifier
	ChatID   int64
}

func (s ScheduledRefresh) Run(ctx context.Context) error {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	r, err := s.Monitor.Refresh(ctx, domain.AllGroups())
	if err != nil {
		return err
	}

	if s.Retention > 0 {
		if _, err := s.Monitor.Purge(ctx, s.Retention); err != nil {
			s.Monitor.obs.LogError("history_purge_failed", err)
		}
	}

	if s.Notifier != nil && s.ChatID != 0 {
		if err := s.Notifier.SendText(ctx, ports.Recipient{ChatID: s.ChatID}, summaryText(r), listActions()...); err != nil {
			return fmt.Errorf("notify summary: %w", err)
		}
	}
	return nil
}
