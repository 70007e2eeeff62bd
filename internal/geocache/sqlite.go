package geocache

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/agency-map/internal/model"
	"github.com/sells-group/agency-map/internal/resilience"
)

// SQLiteBackend stores resolutions in a local SQLite file (modernc.org/sqlite).
type SQLiteBackend struct {
	db    *sql.DB
	runID string
	retry resilience.RetryConfig
}

// busyRetry retries writes that hit another process's write lock after
// busy_timeout has already expired.
func busyRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    4,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		ShouldRetry:    isBusy,
		OnRetry:        resilience.RetryLogger("sqlite", "store"),
	}
}

// isBusy reports whether err is SQLITE_BUSY or SQLITE_LOCKED.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "sqlite_locked")
}

// NewSQLiteBackend opens the database at path and configures WAL mode.
// Rows written through this backend are stamped with a fresh run ID.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteBackend{db: db, runID: uuid.New().String(), retry: busyRetry()}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	query     TEXT PRIMARY KEY,
	kind      TEXT NOT NULL,
	latitude  REAL NOT NULL DEFAULT 0,
	longitude REAL NOT NULL DEFAULT 0,
	source    TEXT NOT NULL DEFAULT '',
	run_id    TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_geocode_cache_kind ON geocode_cache(kind);
`

// Migrate creates the cache table if it does not exist.
func (s *SQLiteBackend) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}

func (s *SQLiteBackend) Lookup(ctx context.Context, query string) (model.Resolution, bool, error) {
	var (
		kind, source string
		lat, lon     float64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT kind, latitude, longitude, source FROM geocode_cache WHERE query = ?`,
		query,
	).Scan(&kind, &lat, &lon, &source)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Resolution{}, false, nil
	}
	if err != nil {
		return model.Resolution{}, false, eris.Wrapf(err, "sqlite: lookup %q", query)
	}
	return resolutionFromRow(kind, lat, lon, source), true, nil
}

const sqliteUpsert = `
INSERT INTO geocode_cache (query, kind, latitude, longitude, source, run_id, cached_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(query) DO UPDATE SET
	kind = excluded.kind,
	latitude = excluded.latitude,
	longitude = excluded.longitude,
	source = excluded.source,
	run_id = excluded.run_id,
	cached_at = excluded.cached_at`

func (s *SQLiteBackend) Store(ctx context.Context, query string, res model.Resolution) error {
	err := resilience.Do(ctx, s.retry, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, sqliteUpsert,
			query, string(res.Kind), res.Latitude, res.Longitude, res.Source, s.runID, time.Now().UTC(),
		)
		return err
	})
	return eris.Wrapf(err, "sqlite: store %q", query)
}

// StoreMany writes entries in one transaction, retried as a whole while
// the database is busy.
func (s *SQLiteBackend) StoreMany(ctx context.Context, entries []Entry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	var n int64
	err := resilience.Do(ctx, s.retry, func(ctx context.Context) error {
		var err error
		n, err = s.storeMany(ctx, entries)
		return err
	})
	return n, err
}

func (s *SQLiteBackend) storeMany(ctx context.Context, entries []Entry) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for _, e := range entries {
		res := e.Resolution
		if _, err := stmt.ExecContext(ctx,
			e.Query, string(res.Kind), res.Latitude, res.Longitude, res.Source, s.runID, now,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: store %q", e.Query)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}
	return int64(len(entries)), nil
}

func (s *SQLiteBackend) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Backend: "sqlite"}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN kind = 'found' THEN 1 ELSE 0 END), 0),
		       COUNT(DISTINCT run_id)
		FROM geocode_cache`,
	).Scan(&st.Entries, &st.Found, &st.Runs)
	if err != nil {
		return Stats{}, eris.Wrap(err, "sqlite: stats")
	}
	st.NotFound = st.Entries - st.Found
	return st, nil
}
