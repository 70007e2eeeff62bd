// Package pipeline runs a roster through the resolver and cache and writes
// the batch artifacts.
package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/agency-map/internal/derive"
	"github.com/sells-group/agency-map/internal/geocache"
	"github.com/sells-group/agency-map/internal/model"
)

// Resolver turns a query into a Resolution. *geocode.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, query string) model.Resolution
}

// Options configures Run.
type Options struct {
	Concurrency int // default 4
}

// Summary counts the outcome of a run.
type Summary struct {
	Total     int           `json:"total" yaml:"total"`
	Resolved  int           `json:"resolved" yaml:"resolved"`
	Failed    int           `json:"failed" yaml:"failed"`
	CacheHits int           `json:"cache_hits" yaml:"cache_hits"`
	Calls     int           `json:"calls" yaml:"calls"` // resolver invocations
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// Result is the output of Run. Enriched is in input order.
type Result struct {
	Enriched []model.EnrichedRecord
	Failures []geocache.Failure
	Summary  Summary
}

// Run resolves every record. Cached queries are reused; each distinct
// uncached query is resolved once, even when several records share it.
// Resolution failures never abort the run; only cancellation does.
func Run(ctx context.Context, records []model.Record, resolver Resolver, cache *geocache.Cache, opts Options) (*Result, error) {
	if resolver == nil {
		return nil, eris.New("pipeline: resolver is required")
	}
	if cache == nil {
		cache = geocache.New(nil)
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	start := time.Now()
	log := zap.L().With(zap.Int("records", len(records)), zap.Int("concurrency", concurrency))
	log.Info("pipeline: starting batch")

	for _, rec := range records {
		cache.Attach(rec)
	}

	var (
		sf    singleflight.Group
		hits  atomic.Int64
		calls atomic.Int64
	)
	resolutions := make([]model.Resolution, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, rec := range records {
		g.Go(func() error {
			if res, ok := cache.Get(gctx, rec.Query); ok {
				hits.Add(1)
				resolutions[i] = res
				return nil
			}

			v, err, _ := sf.Do(rec.Query, func() (any, error) {
				// A concurrent flight for the same query may have just landed.
				if res, ok := cache.Get(gctx, rec.Query); ok {
					return res, nil
				}
				calls.Add(1)
				res := resolver.Resolve(gctx, rec.Query)
				if err := gctx.Err(); err != nil {
					return nil, eris.Wrap(err, "pipeline: resolve cancelled")
				}
				if err := cache.Put(gctx, rec.Query, res); err != nil {
					zap.L().Warn("pipeline: cache write failed", zap.String("query", rec.Query), zap.Error(err))
				}
				return res, nil
			})
			if err != nil {
				return err
			}
			resolutions[i] = v.(model.Resolution)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: batch cancelled")
	}

	result := &Result{
		Enriched: make([]model.EnrichedRecord, len(records)),
		Failures: cache.ExportFailures(),
	}
	for i, rec := range records {
		result.Enriched[i] = derive.Enrich(rec, resolutions[i])
		if resolutions[i].IsFound() {
			result.Summary.Resolved++
		} else {
			result.Summary.Failed++
		}
	}
	result.Summary.Total = len(records)
	result.Summary.CacheHits = int(hits.Load())
	result.Summary.Calls = int(calls.Load())
	result.Summary.Duration = time.Since(start)

	log.Info("pipeline: batch complete",
		zap.Int("resolved", result.Summary.Resolved),
		zap.Int("failed", result.Summary.Failed),
		zap.Int("cache_hits", result.Summary.CacheHits),
		zap.Int("calls", result.Summary.Calls),
		zap.Duration("duration", result.Summary.Duration),
	)
	return result, nil
}
