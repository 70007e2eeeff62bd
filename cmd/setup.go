package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/agency-map/internal/config"
	"github.com/sells-group/agency-map/internal/geocache"
	"github.com/sells-group/agency-map/internal/resilience"
	"github.com/sells-group/agency-map/pkg/geocode"
)

// buildProviders returns the configured providers in cascade order.
func buildProviders(gc config.GeocodeConfig) ([]geocode.Provider, error) {
	hc := &http.Client{Timeout: gc.Timeout()}
	providers := make([]geocode.Provider, 0, len(gc.Providers))
	for _, name := range gc.Providers {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "mapbox":
			providers = append(providers, geocode.NewMapboxProvider(gc.MapboxToken, hc))
		case "google":
			providers = append(providers, geocode.NewGoogleProvider(gc.GoogleKey, hc))
		case "nominatim":
			providers = append(providers, geocode.NewNominatimProvider(gc.NominatimURL, gc.NominatimUserAgent, hc))
		default:
			return nil, eris.Errorf("unknown geocode provider %q", name)
		}
	}
	if len(providers) == 0 {
		return nil, eris.New("no geocode providers configured")
	}
	return providers, nil
}

// buildResolver wires providers, pacing and retries from config.
func buildResolver(gc config.GeocodeConfig) (*geocode.Resolver, error) {
	providers, err := buildProviders(gc)
	if err != nil {
		return nil, err
	}
	retry := resilience.FromRetryConfig(gc.MaxAttempts, gc.InitialBackoffMs, 0, -1) // default max backoff and jitter
	r := geocode.NewResolver(providers,
		geocode.WithMinDelay(gc.MinDelay()),
		geocode.WithRetry(retry),
	)
	zap.L().Debug("resolver ready",
		zap.Strings("providers", r.Providers()),
		zap.Duration("min_delay", gc.MinDelay()),
		zap.Int("max_attempts", retry.MaxAttempts),
	)
	return r, nil
}

// openCache opens the configured backend and wraps it in a Cache.
func openCache(ctx context.Context, cc config.CacheConfig) (*geocache.Cache, error) {
	backend, err := geocache.Open(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "open geocode cache")
	}
	return geocache.New(backend, geocache.WithRetryFailures(cc.RetryFailures)), nil
}
