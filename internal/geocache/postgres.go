package geocache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/agency-map/internal/model"
)

// Pool is the subset of *pgxpool.Pool the Postgres backend uses.
// pgxmock's PgxPoolIface satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresBackend stores resolutions in a shared Postgres table so several
// machines can reuse one cache.
type PostgresBackend struct {
	pool  Pool
	runID string
}

// NewPostgresBackend connects a pgx pool and pings it.
func NewPostgresBackend(ctx context.Context, connString string) (*PostgresBackend, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return newPostgresBackend(pool), nil
}

func newPostgresBackend(pool Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool, runID: uuid.New().String()}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	query     TEXT PRIMARY KEY,
	kind      TEXT NOT NULL,
	latitude  DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
	source    TEXT NOT NULL DEFAULT '',
	run_id    TEXT NOT NULL,
	cached_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_geocode_cache_kind ON geocode_cache(kind);
`

// Migrate creates the cache table if it does not exist.
func (p *PostgresBackend) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (p *PostgresBackend) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresBackend) Lookup(ctx context.Context, query string) (model.Resolution, bool, error) {
	var (
		kind, source string
		lat, lon     float64
	)
	err := p.pool.QueryRow(ctx,
		`SELECT kind, latitude, longitude, source FROM geocode_cache WHERE query = $1`,
		query,
	).Scan(&kind, &lat, &lon, &source)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Resolution{}, false, nil
	}
	if err != nil {
		return model.Resolution{}, false, eris.Wrapf(err, "postgres: lookup %q", query)
	}
	return resolutionFromRow(kind, lat, lon, source), true, nil
}

func (p *PostgresBackend) Store(ctx context.Context, query string, res model.Resolution) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO geocode_cache (query, kind, latitude, longitude, source, run_id, cached_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (query) DO UPDATE SET
			kind = EXCLUDED.kind,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			source = EXCLUDED.source,
			run_id = EXCLUDED.run_id,
			cached_at = now()`,
		query, string(res.Kind), res.Latitude, res.Longitude, res.Source, p.runID,
	)
	return eris.Wrapf(err, "postgres: store %q", query)
}

// cacheColumns is the geocode_cache column order used by the bulk path.
var cacheColumns = []string{"query", "kind", "latitude", "longitude", "source", "run_id", "cached_at"}

const stagingTable = "geocode_cache_staging"

const createStaging = `CREATE TEMP TABLE geocode_cache_staging (LIKE geocode_cache INCLUDING DEFAULTS) ON COMMIT DROP`

const mergeStaging = `
INSERT INTO geocode_cache (query, kind, latitude, longitude, source, run_id, cached_at)
SELECT query, kind, latitude, longitude, source, run_id, cached_at FROM geocode_cache_staging
ON CONFLICT (query) DO UPDATE SET
	kind = EXCLUDED.kind,
	latitude = EXCLUDED.latitude,
	longitude = EXCLUDED.longitude,
	source = EXCLUDED.source,
	run_id = EXCLUDED.run_id,
	cached_at = EXCLUDED.cached_at`

// StoreMany COPYs entries into a transaction-scoped staging table and
// merges them into geocode_cache in one statement. Queries must be
// distinct; Cache.Seed guarantees that.
func (p *PostgresBackend) StoreMany(ctx context.Context, entries []Entry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		res := e.Resolution
		rows = append(rows, []any{e.Query, string(res.Kind), res.Latitude, res.Longitude, res.Source, p.runID, now})
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: store many: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, createStaging); err != nil {
		return 0, eris.Wrap(err, "postgres: store many: create staging table")
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{stagingTable}, cacheColumns, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrap(err, "postgres: store many: copy")
	}
	tag, err := tx.Exec(ctx, mergeStaging)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: store many: merge")
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: store many: commit")
	}
	return tag.RowsAffected(), nil
}

func (p *PostgresBackend) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Backend: "postgres"}
	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE kind = 'found'),
		       COUNT(DISTINCT run_id)
		FROM geocode_cache`,
	).Scan(&st.Entries, &st.Found, &st.Runs)
	if err != nil {
		return Stats{}, eris.Wrap(err, "postgres: stats")
	}
	st.NotFound = st.Entries - st.Found
	return st, nil
}
