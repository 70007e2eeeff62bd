package geocache

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/agency-map/internal/model"
)

// Failure is an attached record whose query resolved to NotFound.
type Failure struct {
	Record model.Record
	Query  string
}

// Cache layers the current run's resolutions over a persistent Backend.
// It is safe for concurrent use.
type Cache struct {
	backend       Backend
	retryFailures bool

	mu       sync.Mutex
	session  map[string]model.Resolution
	attached []model.Record
}

// Option configures a Cache.
type Option func(*Cache)

// WithRetryFailures controls whether NotFound entries persisted by an
// earlier run are treated as misses. Defaults to true.
func WithRetryFailures(retry bool) Option {
	return func(c *Cache) { c.retryFailures = retry }
}

// New wraps backend. A nil backend gets a MemoryBackend.
func New(backend Backend, opts ...Option) *Cache {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	c := &Cache{
		backend:       backend,
		retryFailures: true,
		session:       make(map[string]model.Resolution),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the resolution for query. This run's entries win; then the
// backend is consulted. Backend errors are logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, query string) (model.Resolution, bool) {
	c.mu.Lock()
	res, ok := c.session[query]
	c.mu.Unlock()
	if ok {
		return res, true
	}
	if query == "" {
		return model.Resolution{}, false
	}

	res, ok, err := c.backend.Lookup(ctx, query)
	if err != nil {
		zap.L().Warn("geocache: lookup failed, treating as miss",
			zap.String("query", query),
			zap.Error(err),
		)
		return model.Resolution{}, false
	}
	if !ok {
		return model.Resolution{}, false
	}
	if !res.IsFound() && c.retryFailures {
		return model.Resolution{}, false
	}

	c.mu.Lock()
	c.session[query] = res
	c.mu.Unlock()
	return res, true
}

// Put records res for this run and persists it. Empty queries are kept in
// the session only. The session entry survives a backend error.
func (c *Cache) Put(ctx context.Context, query string, res model.Resolution) error {
	c.mu.Lock()
	c.session[query] = res
	c.mu.Unlock()

	if query == "" {
		return nil
	}
	if err := c.backend.Store(ctx, query, res); err != nil {
		return eris.Wrapf(err, "geocache: put %q", query)
	}
	return nil
}

// Attach registers rec so ExportFailures can report it.
func (c *Cache) Attach(rec model.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attached = append(c.attached, rec)
}

// ExportFailures returns, in attach order, every attached record whose
// query resolved to NotFound in this run.
func (c *Cache) ExportFailures() []Failure {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Failure
	for _, rec := range c.attached {
		res, ok := c.session[rec.Query]
		if ok && !res.IsFound() {
			out = append(out, Failure{Record: rec, Query: rec.Query})
		}
	}
	return out
}

// Seed persists the Found resolutions of previously enriched records.
// It returns the number of entries written.
func (c *Cache) Seed(ctx context.Context, records []model.EnrichedRecord) (int, error) {
	seen := make(map[string]bool, len(records))
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		if rec.Query == "" || !rec.Resolution.IsFound() || seen[rec.Query] {
			continue
		}
		seen[rec.Query] = true
		entries = append(entries, Entry{Query: rec.Query, Resolution: rec.Resolution})
	}

	if bs, ok := c.backend.(bulkStorer); ok {
		if _, err := bs.StoreMany(ctx, entries); err != nil {
			return 0, eris.Wrap(err, "geocache: seed")
		}
		return len(entries), nil
	}
	for i, e := range entries {
		if err := c.backend.Store(ctx, e.Query, e.Resolution); err != nil {
			return i, eris.Wrap(err, "geocache: seed")
		}
	}
	return len(entries), nil
}

// Stats returns the backend's statistics.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	return c.backend.Stats(ctx)
}

// Close closes the backend.
func (c *Cache) Close() error {
	return c.backend.Close()
}
