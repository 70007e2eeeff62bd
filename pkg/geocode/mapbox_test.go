package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/agency-map/internal/resilience"
)

const mapboxHost = "https://api.mapbox.com"

func TestMapboxGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocoding/v5/mapbox.places/Fairfax, VA 22030.json", r.URL.Path)
		assert.Equal(t, "pk.test", r.URL.Query().Get("access_token"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"features": [{
				"place_name": "Fairfax, Virginia 22030, United States",
				"place_type": ["postcode"],
				"geometry": {"coordinates": [-77.3064, 38.8462]}
			}]
		}`)
	}))
	defer srv.Close()

	p := NewMapboxProvider("pk.test", newRewriteClient(srv.URL, mapboxHost))

	result, err := p.Geocode(context.Background(), "Fairfax, VA 22030")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.InDelta(t, 38.8462, result.Latitude, 0.0001)
	assert.InDelta(t, -77.3064, result.Longitude, 0.0001)
	assert.Equal(t, "mapbox", result.Source)
	assert.Equal(t, "centroid", result.Quality)
}

func TestMapboxGeocode_FallsBackToCenter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"features": [{"place_type": ["place"], "center": [-96.8, 32.78], "geometry": {}}]}`)
	}))
	defer srv.Close()

	p := NewMapboxProvider("pk.test", newRewriteClient(srv.URL, mapboxHost))

	result, err := p.Geocode(context.Background(), "Dallas, TX")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.InDelta(t, 32.78, result.Latitude, 0.0001)
	assert.InDelta(t, -96.8, result.Longitude, 0.0001)
}

func TestMapboxGeocode_NoFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"features": []}`)
	}))
	defer srv.Close()

	p := NewMapboxProvider("pk.test", newRewriteClient(srv.URL, mapboxHost))

	result, err := p.Geocode(context.Background(), "Faketown, XX")
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestMapboxGeocode_MissingCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"features": [{"place_name": "odd", "geometry": {"coordinates": []}}]}`)
	}))
	defer srv.Close()

	p := NewMapboxProvider("pk.test", newRewriteClient(srv.URL, mapboxHost))

	_, err := p.Geocode(context.Background(), "Odd, XX")
	assert.Error(t, err)
}

func TestMapboxGeocode_RateLimitedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewMapboxProvider("pk.test", newRewriteClient(srv.URL, mapboxHost))

	_, err := p.Geocode(context.Background(), "Dallas, TX")
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestMapboxGeocode_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewMapboxProvider("pk.bad", newRewriteClient(srv.URL, mapboxHost))

	_, err := p.Geocode(context.Background(), "Dallas, TX")
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
	assert.Contains(t, err.Error(), "401")
}

func TestMapboxGeocode_NoToken(t *testing.T) {
	p := NewMapboxProvider("", nil)
	_, err := p.Geocode(context.Background(), "Dallas, TX")
	assert.Error(t, err)
}
