// Package history keeps the append-only ledger of aggregate snapshots in a
// local SQLite file. Timestamps are written as UTC text with microsecond
// precision so that lexical order in SQL matches chronological order.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ghalamif/SensorStat/internal/domain"
	"github.com/ghalamif/SensorStat/internal/ports"
)

const stampLayout = "2006-01-02 15:04:05.000000"

const dsnPragmas = "_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)"

const schema = `
CREATE TABLE IF NOT EXISTS data (
	project_name TEXT,
	work INT,
	nwork INT,
	dowork INT,
	create_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS data_project_create_at ON data (project_name, create_at);
`

type SQLiteStore struct {
	db *sql.DB
	// mu serializes appends so the monotonic check and the insert are atomic.
	mu sync.Mutex
}

// Open opens (or creates) the ledger at path. ":memory:" is accepted for tests.
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("history: mkdir: %w", err)
		}
	}

	// Pragmas go through the DSN so every pooled connection gets them.
	db, err := sql.Open("sqlite", path+"?"+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	if path == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// AppendSnapshot inserts one row. If ts does not advance past the latest row of
// the group it is moved 1µs after it, keeping created_at strictly increasing.
func (s *SQLiteStore) AppendSnapshot(ctx context.Context, group string, counts domain.Counts, ts time.Time) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts = ts.UTC().Truncate(time.Microsecond)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Snapshot{}, persistErr("begin", err)
	}
	defer tx.Rollback()

	var last any
	if err := tx.QueryRowContext(ctx,
		"SELECT MAX(create_at) FROM data WHERE project_name = ?", group,
	).Scan(&last); err != nil {
		return domain.Snapshot{}, persistErr("read latest", err)
	}
	if last != nil {
		prev, err := parseStamp(last)
		if err != nil {
			return domain.Snapshot{}, persistErr("read latest", err)
		}
		if !ts.After(prev) {
			ts = prev.Add(time.Microsecond)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO data (project_name, work, nwork, dowork, create_at) VALUES (?, ?, ?, ?, ?)",
		group, counts.Operational, counts.NonOperational, counts.Degraded, formatStamp(ts),
	); err != nil {
		return domain.Snapshot{}, persistErr("insert", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Snapshot{}, persistErr("commit", err)
	}

	return domain.Snapshot{GroupName: group, Counts: counts, CreatedAt: ts}, nil
}

// LatestSnapshot returns the newest row for group or domain.ErrNotFound.
func (s *SQLiteStore) LatestSnapshot(ctx context.Context, group string) (domain.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT project_name, work, nwork, dowork, create_at FROM data
		 WHERE project_name = ? ORDER BY create_at DESC, rowid DESC LIMIT 1`, group)

	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Snapshot{}, persistErr("latest", err)
	}
	return snap, nil
}

// SnapshotsInRange returns rows with from <= created_at <= to, oldest first.
func (s *SQLiteStore) SnapshotsInRange(ctx context.Context, group string, from, to time.Time) ([]domain.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT project_name, work, nwork, dowork, create_at FROM data
		 WHERE project_name = ? AND create_at >= ? AND create_at <= ?
		 ORDER BY create_at ASC, rowid ASC`,
		group, formatStamp(from), formatStamp(to))
	if err != nil {
		return nil, persistErr("range", err)
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, persistErr("range scan", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("range", err)
	}
	return out, nil
}

// Purge deletes rows older than before across all groups and reports how many went.
func (s *SQLiteStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM data WHERE create_at < ?", formatStamp(before))
	if err != nil {
		return 0, persistErr("purge", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, persistErr("purge", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(r rowScanner) (domain.Snapshot, error) {
	var (
		snap  domain.Snapshot
		stamp any
	)
	if err := r.Scan(&snap.GroupName, &snap.Counts.Operational, &snap.Counts.NonOperational, &snap.Counts.Degraded, &stamp); err != nil {
		return domain.Snapshot{}, err
	}
	ts, err := parseStamp(stamp)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap.CreatedAt = ts
	return snap, nil
}

func formatStamp(t time.Time) string {
	return t.UTC().Format(stampLayout)
}

// parseStamp accepts what the driver hands back for create_at: a time.Time
// when it recognised the column type, text otherwise.
func parseStamp(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case string:
		return parseStampText(x)
	case []byte:
		return parseStampText(string(x))
	default:
		return time.Time{}, fmt.Errorf("unexpected create_at type %T", v)
	}
}

func parseStampText(s string) (time.Time, error) {
	for _, layout := range []string{stampLayout, "2006-01-02 15:04:05.999999999", time.RFC3339Nano} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable create_at %q", s)
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrPersistence, op, err)
}

var _ ports.HistoryStore = (*SQLiteStore)(nil)
