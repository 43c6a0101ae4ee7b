package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/ghalamif/SensorStat/internal/domain"
	"github.com/ghalamif/SensorStat/internal/ports"
)

type stubSource struct {
	mu      sync.Mutex
	records []domain.SensorRecord
	err     error
	calls   int
}

func (s *stubSource) FetchAllSensors(context.Context) ([]domain.SensorRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func (s *stubSource) set(records []domain.SensorRecord, err error) {
	s.mu.Lock()
	s.records, s.err = records, err
	s.mu.Unlock()
}

type memHistory struct {
	mu        sync.Mutex
	rows      []domain.Snapshot
	appendErr error
	purged    []time.Time
}

func (m *memHistory) AppendSnapshot(_ context.Context, group string, counts domain.Counts, ts time.Time) (domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return domain.Snapshot{}, m.appendErr
	}
	snap := domain.Snapshot{GroupName: group, Counts: counts, CreatedAt: ts}
	m.rows = append(m.rows, snap)
	return snap, nil
}

func (m *memHistory) LatestSnapshot(_ context.Context, group string) (domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].GroupName == group {
			return m.rows[i], nil
		}
	}
	return domain.Snapshot{}, domain.ErrNotFound
}

func (m *memHistory) SnapshotsInRange(_ context.Context, group string, from, to time.Time) ([]domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Snapshot
	for _, r := range m.rows {
		if r.GroupName == group && !r.CreatedAt.Before(from) && !r.CreatedAt.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memHistory) Purge(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purged = append(m.purged, before)
	return 0, nil
}

func (m *memHistory) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type sentMessage struct {
	to      ports.Recipient
	text    string
	actions []ports.Action
	image   *domain.ChartArtifact
	menu    []string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) SendText(_ context.Context, to ports.Recipient, text string, actions ...ports.Action) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{to: to, text: text, actions: actions})
	return nil
}

func (n *recordingNotifier) SendImage(_ context.Context, to ports.Recipient, art *domain.ChartArtifact) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{to: to, image: art})
	return nil
}

func (n *recordingNotifier) SendMenu(_ context.Context, to ports.Recipient, text string, buttons ...string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{to: to, text: text, menu: buttons})
	return nil
}

func (n *recordingNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

type recordingObs struct {
	ports.NopObservability
	mu       sync.Mutex
	errors   []string
	counters map[string]float64
}

func (o *recordingObs) LogError(msg string, _ error, _ ...ports.Field) {
	o.mu.Lock()
	o.errors = append(o.errors, msg)
	o.mu.Unlock()
}

func (o *recordingObs) LogCritical(msg string, err error, fields ...ports.Field) {
	o.LogError(msg, err, fields...)
}

func (o *recordingObs) IncCounter(name string, v float64) {
	o.mu.Lock()
	if o.counters == nil {
		o.counters = map[string]float64{}
	}
	o.counters[name] += v
	o.mu.Unlock()
}

func (o *recordingObs) errorCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.errors)
}

func (o *recordingObs) counter(name string) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counters[name]
}

type stubTrend struct {
	art *domain.ChartArtifact
	err error
}

func (s *stubTrend) RenderTrend(context.Context, string, time.Time, time.Time) (*domain.ChartArtifact, error) {
	return s.art, s.err
}

func records(statuses ...int) []domain.SensorRecord {
	out := make([]domain.SensorRecord, len(statuses))
	for i, st := range statuses {
		out[i] = domain.SensorRecord{
			Status:    st,
			Name:      domain.SensorName(string(rune('a' + i))),
			GroupID:   "1",
			AdapterID: "1",
		}
	}
	return out
}
