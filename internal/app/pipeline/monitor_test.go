package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ghalamif/SensorStat/internal/app/report"
	"github.com/ghalamif/SensorStat/internal/domain"
)

func newTestMonitor(src *stubSource, hist *memHistory, obs *recordingObs) *Monitor {
	m := NewMonitor(src, hist, nil, obs, "All sensors", report.Options{})
	clock := time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	m.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	return m
}

func TestRefreshFirstPassHasNoBaseline(t *testing.T) {
	src := &stubSource{records: records(1, 1, 0, 2)}
	hist := &memHistory{}
	obs := &recordingObs{}
	m := newTestMonitor(src, hist, obs)

	r, err := m.Refresh(context.Background(), domain.AllGroups())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if r.Baseline != nil {
		t.Fatalf("expected no baseline on first pass")
	}
	if !strings.Contains(r.Summary, report.NoPriorData) {
		t.Fatalf("summary should carry the no prior data marker:\n%s", r.Summary)
	}
	if r.Counts != (domain.Counts{Operational: 2, NonOperational: 1, Degraded: 1}) {
		t.Fatalf("unexpected counts %+v", r.Counts)
	}
	if hist.len() != 1 {
		t.Fatalf("expected one snapshot, got %d", hist.len())
	}
	if m.State().Latest() == nil {
		t.Fatalf("expected classification to be published")
	}
	if obs.counter("sensorstat_refresh_total") != 1 {
		t.Fatalf("expected refresh counter to be incremented")
	}
}

func TestRefreshComparesWithPreviousSnapshot(t *testing.T) {
	src := &stubSource{records: records(1, 1, 1, 1, 1, 0, 0, 2)}
	hist := &memHistory{}
	m := newTestMonitor(src, hist, &recordingObs{})

	if _, err := m.Refresh(context.Background(), domain.AllGroups()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	src.set(records(1, 1, 1, 1, 1, 1, 1, 0, 0), nil)

	r, err := m.Refresh(context.Background(), domain.AllGroups())
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if r.Deltas != (domain.Counts{Operational: 2, NonOperational: 0, Degraded: -1}) {
		t.Fatalf("unexpected deltas %+v", r.Deltas)
	}
	if !strings.Contains(r.Summary, "(+2)") || !strings.Contains(r.Summary, "(-1)") {
		t.Fatalf("summary missing signed deltas:\n%s", r.Summary)
	}
}

func TestRefreshSourceErrorAppendsNothing(t *testing.T) {
	src := &stubSource{err: &domain.SourceError{Source: "DB_1", Err: errors.New("connection refused")}}
	hist := &memHistory{}
	obs := &recordingObs{}
	m := newTestMonitor(src, hist, obs)

	_, err := m.Refresh(context.Background(), domain.AllGroups())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
	if hist.len() != 0 {
		t.Fatalf("expected no snapshot on failure")
	}
	if m.State().Latest() != nil {
		t.Fatalf("failed pass must not publish")
	}
	if obs.counter("sensorstat_refresh_failures_total") != 1 {
		t.Fatalf("expected failure counter")
	}
}

func TestRefreshUnknownStatusAborts(t *testing.T) {
	src := &stubSource{records: records(1, 7)}
	hist := &memHistory{}
	m := newTestMonitor(src, hist, &recordingObs{})

	_, err := m.Refresh(context.Background(), domain.AllGroups())
	var unknown *domain.UnknownStatusCodeError
	if !errors.As(err, &unknown) || unknown.Code != 7 {
		t.Fatalf("expected unknown status code 7, got %v", err)
	}
	if hist.len() != 0 {
		t.Fatalf("expected no snapshot on failure")
	}
}

func TestRefreshPersistFailureStillReports(t *testing.T) {
	src := &stubSource{records: records(1, 0)}
	hist := &memHistory{appendErr: domain.ErrPersistence}
	obs := &recordingObs{}
	m := newTestMonitor(src, hist, obs)

	r, err := m.Refresh(context.Background(), domain.AllGroups())
	if err != nil {
		t.Fatalf("persist failure should not fail the pass: %v", err)
	}
	if !errors.Is(r.PersistErr, domain.ErrPersistence) {
		t.Fatalf("expected persist error on report, got %v", r.PersistErr)
	}
	if obs.counter("sensorstat_persist_failures_total") != 1 {
		t.Fatalf("expected persist failure counter")
	}
	if obs.errorCount() == 0 {
		t.Fatalf("expected persist failure to be logged")
	}
	if !strings.Contains(summaryText(r), "not saved") {
		t.Fatalf("summary should flag the unsaved check: %q", summaryText(r))
	}
}

func TestRefreshGroupSelectorUsesGroupKey(t *testing.T) {
	recs := records(1, 0)
	recs[1].GroupID = "2"
	src := &stubSource{records: recs}
	hist := &memHistory{}
	m := newTestMonitor(src, hist, &recordingObs{})

	r, err := m.Refresh(context.Background(), domain.Group("2"))
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if r.Group != "2" || r.Counts.Total() != 1 {
		t.Fatalf("unexpected group report %+v", r)
	}
	if _, err := hist.LatestSnapshot(context.Background(), "All sensors"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("group pass must not write the aggregate history")
	}
}

// gatedSource blocks its first fetch until release is closed.
type gatedSource struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
	first   []domain.SensorRecord
	later   []domain.SensorRecord
}

func (g *gatedSource) FetchAllSensors(ctx context.Context) ([]domain.SensorRecord, error) {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()
	if n == 1 {
		close(g.entered)
		<-g.release
		return g.first, nil
	}
	return g.later, nil
}

func (g *gatedSource) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func TestOverlappingRefreshesFollowStartOrder(t *testing.T) {
	src := &gatedSource{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		first:   records(1, 1, 1),
		later:   records(1, 0),
	}
	hist := &memHistory{}
	m := newTestMonitor(nil, hist, &recordingObs{})
	m.source = src
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := m.Refresh(ctx, domain.AllGroups()); err != nil {
			t.Errorf("slow refresh: %v", err)
		}
	}()
	<-src.entered
	go func() {
		defer wg.Done()
		if _, err := m.Refresh(ctx, domain.AllGroups()); err != nil {
			t.Errorf("fast refresh: %v", err)
		}
	}()

	time.Sleep(20 * time.Millisecond)
	if src.callCount() != 1 {
		t.Fatalf("second pass fetched while the first was still running")
	}
	close(src.release)
	wg.Wait()

	want := domain.Counts{Operational: 1, NonOperational: 1}
	if got := m.State().Latest().Counts; got != want {
		t.Fatalf("state holds %+v, want the later pass %+v", got, want)
	}
	latest, err := hist.LatestSnapshot(ctx, "All sensors")
	if err != nil || latest.Counts != want {
		t.Fatalf("latest snapshot %+v (%v), want %+v", latest.Counts, err, want)
	}
}

func TestRefreshWaitingForTurnHonoursContext(t *testing.T) {
	src := &gatedSource{entered: make(chan struct{}), release: make(chan struct{}), first: records(1)}
	m := newTestMonitor(nil, &memHistory{}, &recordingObs{})
	m.source = src

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = m.Refresh(context.Background(), domain.AllGroups())
	}()
	<-src.entered

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := m.Refresh(ctx, domain.AllGroups()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline while waiting, got %v", err)
	}
	close(src.release)
	<-done
}

func TestPurgeUsesRetentionCutoff(t *testing.T) {
	hist := &memHistory{}
	m := newTestMonitor(&stubSource{}, hist, &recordingObs{})

	if _, err := m.Purge(context.Background(), 24*time.Hour); err != nil {
		t.Fatalf("purge: %v", err)
	}
	want := time.Date(2024, 4, 30, 3, 0, 1, 0, time.UTC)
	if len(hist.purged) != 1 || !hist.purged[0].Equal(want) {
		t.Fatalf("unexpected purge cutoff %v", hist.purged)
	}
}

func TestStateHolderConcurrentAccess(t *testing.T) {
	var s StateHolder
	if s.Latest() != nil {
		t.Fatalf("expected nil before first publish")
	}
	c, err := domain.Classify(records(1, 0), domain.AllGroups())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Publish(c)
		}()
		go func() {
			defer wg.Done()
			if got := s.Latest(); got != nil && got != c {
				t.Errorf("reader saw an unexpected classification")
			}
		}()
	}
	wg.Wait()
	if s.Latest() != c {
		t.Fatalf("expected latest classification")
	}
}
