package geocode

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/agency-map/internal/model"
	"github.com/sells-group/agency-map/internal/resilience"
)

// DefaultMinDelay is the minimum spacing between external geocoding calls.
const DefaultMinDelay = 100 * time.Millisecond

// Resolver turns queries into Resolutions. Providers are tried in order
// and the first match wins. Every external call, retries included, waits
// on one shared limiter, so concurrent callers still observe the minimum
// spacing.
type Resolver struct {
	providers []Provider
	limiter   *rate.Limiter
	retry     resilience.RetryConfig
	calls     atomic.Int64
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithMinDelay sets the minimum delay between external calls.
func WithMinDelay(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithLimiter replaces the call limiter outright.
func WithLimiter(l *rate.Limiter) Option {
	return func(r *Resolver) {
		if l != nil {
			r.limiter = l
		}
	}
}

// WithRetry sets the retry policy for transient provider errors.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(r *Resolver) {
		r.retry = cfg
	}
}

// NewResolver creates a Resolver over the given providers.
func NewResolver(providers []Provider, opts ...Option) *Resolver {
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = 2

	r := &Resolver{
		providers: providers,
		limiter:   rate.NewLimiter(rate.Every(DefaultMinDelay), 1),
		retry:     retry,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Calls returns the number of external provider calls made so far.
func (r *Resolver) Calls() int64 {
	return r.calls.Load()
}

// Providers returns the provider names in cascade order.
func (r *Resolver) Providers() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

// Resolve geocodes one query. Zero results, transport errors, parse
// errors and out-of-range coordinates all yield NotFound; nothing is
// returned as an error.
func (r *Resolver) Resolve(ctx context.Context, query string) model.Resolution {
	log := zap.L().With(zap.String("query", query))

	if query == "" {
		log.Warn("geocode: empty query, skipping")
		return model.NotFound("")
	}

	source := ""
	for _, p := range r.providers {
		source = p.Name()

		retry := r.retry
		retry.Gate = r.limiter
		retry.OnRetry = resilience.RetryLogger(p.Name(), "geocode")

		result, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*Result, error) {
			r.calls.Add(1)
			return p.Geocode(ctx, query)
		})
		if err != nil {
			log.Warn("geocode: provider error",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			continue
		}
		if result == nil || !result.Matched {
			log.Info("geocode: no result", zap.String("provider", p.Name()))
			continue
		}

		res := model.Found(result.Latitude, result.Longitude, p.Name())
		if !res.IsFound() {
			log.Warn("geocode: provider returned out-of-range coordinates",
				zap.String("provider", p.Name()),
				zap.Float64("lat", result.Latitude),
				zap.Float64("lon", result.Longitude),
			)
			continue
		}

		log.Debug("geocode: resolved",
			zap.String("provider", p.Name()),
			zap.String("quality", result.Quality),
		)
		return res
	}

	return model.NotFound(source)
}
