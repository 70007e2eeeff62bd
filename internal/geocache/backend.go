// Package geocache persists query resolutions across runs and tracks the
// resolutions and failures of the current run.
package geocache

import (
	"context"

	"github.com/sells-group/agency-map/internal/model"
)

// Backend is durable storage for resolutions keyed by query.
type Backend interface {
	// Lookup returns the stored resolution. A missing key is (zero, false, nil).
	Lookup(ctx context.Context, query string) (model.Resolution, bool, error)
	// Store inserts or replaces the resolution for query.
	Store(ctx context.Context, query string, res model.Resolution) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Entry is one query/resolution pair.
type Entry struct {
	Query      string
	Resolution model.Resolution
}

// bulkStorer is implemented by backends with a faster multi-row write path.
type bulkStorer interface {
	StoreMany(ctx context.Context, entries []Entry) (int64, error)
}

// Stats summarizes a backend's contents.
type Stats struct {
	Backend  string `json:"backend" yaml:"backend"`
	Entries  int    `json:"entries" yaml:"entries"`
	Found    int    `json:"found" yaml:"found"`
	NotFound int    `json:"not_found" yaml:"not_found"`
	Runs     int    `json:"runs" yaml:"runs"`
}

// resolutionFromRow rebuilds a Resolution from stored columns.
func resolutionFromRow(kind string, lat, lon float64, source string) model.Resolution {
	if model.ResolutionKind(kind) == model.ResolutionFound {
		return model.Found(lat, lon, source)
	}
	return model.NotFound(source)
}
