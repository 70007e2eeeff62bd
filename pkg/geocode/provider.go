// Package geocode resolves city-level address queries to coordinates via
// Mapbox, Google and Nominatim, behind a rate-limited Resolver.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/agency-map/internal/resilience"
)

// Provider is a single geocoding backend. A query with no results is
// reported as an unmatched Result, not an error.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, query string) (*Result, error)
}

// Result holds one provider's answer for a query.
type Result struct {
	Latitude  float64
	Longitude float64
	Source    string // "mapbox", "google" or "nominatim"
	Quality   string // "rooftop", "range", "centroid", "approximate"
	Matched   bool
}

const defaultTimeout = 30 * time.Second

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// getJSON issues a GET and decodes the JSON body into out. Retryable
// HTTP statuses come back as resilience.TransientError.
func getJSON(ctx context.Context, hc *http.Client, reqURL, userAgent string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return eris.Wrap(err, "request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read body")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "parse response")
	}
	return nil
}
