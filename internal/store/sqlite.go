// Package store is a best-effort SQLite cache of fetched rate series, so
// repeated runs over the same window do not hit the upstream APIs again.
//
// Two tables:
//   - observations: one row per (source, label, date).
//   - fetches: one row per successful fetch, recording the window it covered.
//
// A cached series is served only while a fetch covering the requested window
// is younger than the TTL. Synthetic series are never written.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/seenimoa/yieldwatch/pkg/models"
	"github.com/seenimoa/yieldwatch/pkg/utils"
)

const schema = `
CREATE TABLE IF NOT EXISTS observations (
    source TEXT NOT NULL,
    label  TEXT NOT NULL,
    date   TEXT NOT NULL,
    value  REAL NOT NULL,
    PRIMARY KEY (source, label, date)
);

CREATE TABLE IF NOT EXISTS fetches (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    source     TEXT    NOT NULL,
    label      TEXT    NOT NULL,
    start_date TEXT    NOT NULL,
    end_date   TEXT    NOT NULL,
    fetched_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fetches_key ON fetches(source, label, fetched_at DESC);
`

// Store is the SQLite observation cache.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Stats summarises the cache contents.
type Stats struct {
	Series       int `json:"series"`
	Observations int `json:"observations"`
	Fetches      int `json:"fetches"`
}

// Open opens (or creates) the database at dsn and applies the schema.
// Parent directories of a file path are created. Expired fetch records are
// pruned on open.
func Open(dsn string, ttl time.Duration) (*Store, error) {
	if isFilePath(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("store.Open: create dir for %q: %w", dsn, err)
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store.Open: open %q: %w", dsn, err)
	}
	db.SetMaxOpenConns(1) // single writer; also keeps ":memory:" on one connection
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store.Open: apply schema: %w", err)
	}

	s := &Store{db: db, ttl: ttl, now: time.Now}
	if err := s.Prune(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// TTL returns how long a fetch stays fresh.
func (s *Store) TTL() time.Duration { return s.ttl }

// Get returns the cached series for source/label over [start, end] when a
// fresh fetch covers that window. The bool is false on a miss.
func (s *Store) Get(ctx context.Context, source, label string, start, end time.Time) (models.RateSeries, bool, error) {
	from, to := utils.FormatDate(start), utils.FormatDate(end)
	cutoff := s.now().Add(-s.ttl).Unix()

	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM fetches
		 WHERE source = ? AND label = ? AND start_date <= ? AND end_date >= ? AND fetched_at >= ?
		 LIMIT 1`,
		source, label, from, to, cutoff,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return models.RateSeries{}, false, nil
	}
	if err != nil {
		return models.RateSeries{}, false, fmt.Errorf("store.Get: lookup fetch: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT date, value FROM observations
		 WHERE source = ? AND label = ? AND date BETWEEN ? AND ?
		 ORDER BY date`,
		source, label, from, to,
	)
	if err != nil {
		return models.RateSeries{}, false, fmt.Errorf("store.Get: query observations: %w", err)
	}
	defer rows.Close()

	out := models.RateSeries{Label: label, Source: source}
	for rows.Next() {
		var (
			date  string
			value float64
		)
		if err := rows.Scan(&date, &value); err != nil {
			return models.RateSeries{}, false, fmt.Errorf("store.Get: scan: %w", err)
		}
		d, err := utils.ParseDate(date)
		if err != nil {
			return models.RateSeries{}, false, fmt.Errorf("store.Get: bad date %q: %w", date, err)
		}
		out.Observations = append(out.Observations, models.Observation{Date: d, Value: value})
	}
	if err := rows.Err(); err != nil {
		return models.RateSeries{}, false, fmt.Errorf("store.Get: rows: %w", err)
	}
	return out, true, nil
}

// Put replaces the cached observations of s.Source/s.Label within
// [start, end] and records the fetch. Synthetic series are ignored.
func (s *Store) Put(ctx context.Context, series models.RateSeries, start, end time.Time) error {
	if series.Synthetic {
		return nil
	}
	if series.Source == "" || series.Label == "" {
		return fmt.Errorf("store.Put: series needs source and label (got %q/%q)", series.Source, series.Label)
	}
	from, to := utils.FormatDate(start), utils.FormatDate(end)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store.Put: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM observations WHERE source = ? AND label = ? AND date BETWEEN ? AND ?`,
		series.Source, series.Label, from, to,
	); err != nil {
		return fmt.Errorf("store.Put: clear window: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO observations (source, label, date, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store.Put: prepare: %w", err)
	}
	defer stmt.Close()

	for _, o := range series.Observations {
		if _, err := stmt.ExecContext(ctx, series.Source, series.Label, utils.FormatDate(o.Date), o.Value); err != nil {
			return fmt.Errorf("store.Put: insert %s: %w", utils.FormatDate(o.Date), err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO fetches (source, label, start_date, end_date, fetched_at) VALUES (?, ?, ?, ?, ?)`,
		series.Source, series.Label, from, to, s.now().Unix(),
	); err != nil {
		return fmt.Errorf("store.Put: record fetch: %w", err)
	}
	return tx.Commit()
}

// Prune drops expired fetch records and observations no fetch refers to.
func (s *Store) Prune(ctx context.Context) error {
	cutoff := s.now().Add(-s.ttl).Unix()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM fetches WHERE fetched_at < ?`, cutoff); err != nil {
		return fmt.Errorf("store.Prune: fetches: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM observations WHERE NOT EXISTS (
		     SELECT 1 FROM fetches f WHERE f.source = observations.source AND f.label = observations.label)`,
	); err != nil {
		return fmt.Errorf("store.Prune: observations: %w", err)
	}
	return nil
}

// Stats counts cached series, observations and fetch records.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM (SELECT DISTINCT source, label FROM observations)),
		   (SELECT COUNT(*) FROM observations),
		   (SELECT COUNT(*) FROM fetches)`,
	).Scan(&st.Series, &st.Observations, &st.Fetches)
	if err != nil {
		return Stats{}, fmt.Errorf("store.Stats: %w", err)
	}
	return st, nil
}

func isFilePath(dsn string) bool {
	return dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}
