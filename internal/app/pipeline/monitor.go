package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ghalamif/SensorStat/internal/app/report"
	"github.com/ghalamif/SensorStat/internal/domain"
	"github.com/ghalamif/SensorStat/internal/ports"
)

// Monitor runs refresh passes: fetch, classify, compare with the baseline,
// persist and publish.
type Monitor struct {
	source       ports.SensorSource
	history      ports.HistoryStore
	state        *StateHolder
	obs          ports.Observability
	defaultGroup string
	reportOpts   report.Options
	now          func() time.Time
	// pass admits one refresh at a time so state and history follow start order.
	pass chan struct{}
}

func NewMonitor(source ports.SensorSource, history ports.HistoryStore, state *StateHolder, obs ports.Observability, defaultGroup string, opts report.Options) *Monitor {
	if obs == nil {
		obs = ports.NopObservability{}
	}
	if state == nil {
		state = &StateHolder{}
	}
	return &Monitor{
		source:       source,
		history:      history,
		state:        state,
		obs:          obs,
		defaultGroup: defaultGroup,
		reportOpts:   opts,
		now:          time.Now,
		pass:         make(chan struct{}, 1),
	}
}

// GroupName is the history key for sel: the display title for the aggregate
// group, the group id otherwise.
func (m *Monitor) GroupName(sel domain.GroupSelector) string {
	if sel.IsAll() {
		return m.defaultGroup
	}
	return sel.GroupID()
}

// State exposes the holder the monitor publishes into.
func (m *Monitor) State() *StateHolder { return m.state }

// Refresh runs one pass for sel. Passes are serialized; a caller waiting for
// its turn gives up when ctx ends. Source and classification errors abort the
// pass and are returned. A failed snapshot write is logged and reported on
// the returned Report instead.
func (m *Monitor) Refresh(ctx context.Context, sel domain.GroupSelector) (*report.Report, error) {
	select {
	case m.pass <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-m.pass }()

	start := m.now()
	group := m.GroupName(sel)
	passID := ports.Field{Key: "pass_id", Value: uuid.NewString()}
	groupField := ports.Field{Key: "group", Value: group}

	records, err := m.source.FetchAllSensors(ctx)
	if err != nil {
		m.obs.IncCounter("sensorstat_refresh_failures_total", 1)
		return nil, err
	}

	c, err := domain.Classify(records, sel)
	if err != nil {
		m.obs.IncCounter("sensorstat_refresh_failures_total", 1)
		return nil, err
	}

	var baseline *domain.Snapshot
	prev, err := m.history.LatestSnapshot(ctx, group)
	switch {
	case err == nil:
		baseline = &prev
	case errors.Is(err, domain.ErrNotFound):
	default:
		m.obs.LogError("baseline_lookup_failed", err, passID, groupField)
	}

	m.state.Publish(c)

	r := report.Build(group, c, baseline, m.reportOpts)
	if _, err := m.history.AppendSnapshot(ctx, group, c.Counts, m.now()); err != nil {
		m.obs.IncCounter("sensorstat_persist_failures_total", 1)
		m.obs.LogError("snapshot_append_failed", err, passID, groupField)
		r.PersistErr = err
	}

	if sel.IsAll() {
		m.obs.RecordClassification(group, c.Counts)
	}
	m.obs.IncCounter("sensorstat_refresh_total", 1)
	m.obs.ObserveLatency("sensorstat_refresh_seconds", m.now().Sub(start).Seconds())
	m.obs.LogInfo("refresh_complete", passID, groupField,
		ports.Field{Key: "records", Value: len(records)},
		ports.Field{Key: "considered", Value: c.Counts.Total()})
	return r, nil
}

// Purge drops snapshots older than retention.
func (m *Monitor) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := m.history.Purge(ctx, m.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.obs.LogInfo("history_purged", ports.Field{Key: "rows", Value: n})
	}
	return n, nil
}
