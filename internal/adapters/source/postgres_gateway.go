package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/ghalamif/SensorStat/internal/domain"
	"github.com/ghalamif/SensorStat/internal/ports"
)

const inventoryQuery = "SELECT * FROM data_exchange.get_data($1)"

// inventoryRequest asks a source for its full point-in-time sensor inventory.
var inventoryRequest = map[string]string{
	"name":             "SENSOR_INFO",
	"protocol_version": "1.0",
	"mode":             "ONE_ROW",
}

// Source is one named external database.
type Source struct {
	Name string
	DB   *sql.DB
}

type Gateway struct {
	sources []Source
	timeout time.Duration
	obs     ports.Observability
}

// Open creates a lib/pq pool for every profile. Connections are established lazily.
func Open(profiles []Profile, timeout time.Duration, obs ports.Observability) (*Gateway, error) {
	sources := make([]Source, 0, len(profiles))
	for _, p := range profiles {
		db, err := sql.Open("postgres", p.ConnString())
		if err != nil {
			for _, s := range sources {
				s.DB.Close()
			}
			return nil, fmt.Errorf("open source %s: %w", p.Name, err)
		}
		db.SetMaxOpenConns(2)
		db.SetConnMaxIdleTime(5 * time.Minute)
		sources = append(sources, Source{Name: p.Name, DB: db})
	}
	return NewGateway(sources, timeout, obs), nil
}

func NewGateway(sources []Source, timeout time.Duration, obs ports.Observability) *Gateway {
	if obs == nil {
		obs = ports.NopObservability{}
	}
	return &Gateway{sources: sources, timeout: timeout, obs: obs}
}

// FetchAllSensors queries every source concurrently and flattens the rows in
// source order. The first failing source cancels the rest and fails the fetch.
func (g *Gateway) FetchAllSensors(ctx context.Context) ([]domain.SensorRecord, error) {
	results := make([][]domain.SensorRecord, len(g.sources))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, src := range g.sources {
		i, src := i, src
		eg.Go(func() error {
			start := time.Now()
			recs, err := g.fetchSource(egCtx, src)
			g.obs.ObserveLatency("sensorstat_source_fetch_seconds", time.Since(start).Seconds())
			if err != nil {
				return &domain.SourceError{Source: src.Name, Err: err}
			}
			results[i] = recs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, r := range results {
		total += len(r)
	}
	out := make([]domain.SensorRecord, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (g *Gateway) fetchSource(ctx context.Context, src Source) ([]domain.SensorRecord, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	params, err := json.Marshal(inventoryRequest)
	if err != nil {
		return nil, err
	}

	rows, err := src.DB.QueryContext(ctx, inventoryQuery, string(params))
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []domain.SensorRecord
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		recs, err := decodePayload(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// Names lists the configured sources in order.
func (g *Gateway) Names() []string {
	out := make([]string, len(g.sources))
	for i, s := range g.sources {
		out[i] = s.Name
	}
	return out
}

func (g *Gateway) Close() error {
	var errs []error
	for _, s := range g.sources {
		if err := s.DB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ ports.SensorSource = (*Gateway)(nil)
