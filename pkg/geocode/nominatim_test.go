package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatimGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Austin, TX 78701", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "agency-map-test", r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, `[{"lat": "30.2711", "lon": "-97.7437", "display_name": "Austin", "addresstype": "city"}]`)
	}))
	defer srv.Close()

	p := NewNominatimProvider(srv.URL, "agency-map-test", srv.Client())

	result, err := p.Geocode(context.Background(), "Austin, TX 78701")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.InDelta(t, 30.2711, result.Latitude, 0.0001)
	assert.InDelta(t, -97.7437, result.Longitude, 0.0001)
	assert.Equal(t, "nominatim", result.Source)
	assert.Equal(t, "centroid", result.Quality)
}

func TestNominatimGeocode_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	p := NewNominatimProvider(srv.URL, "", srv.Client())

	result, err := p.Geocode(context.Background(), "Faketown, XX")
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestNominatimGeocode_BadLatitude(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"lat": "north", "lon": "-97.7"}]`)
	}))
	defer srv.Close()

	p := NewNominatimProvider(srv.URL, "", srv.Client())

	_, err := p.Geocode(context.Background(), "Austin, TX")
	assert.Error(t, err)
}

func TestNewNominatimProvider_Defaults(t *testing.T) {
	p := NewNominatimProvider("", "", nil)
	assert.Equal(t, nominatimSearchURL, p.baseURL)
	assert.Equal(t, defaultNominatimUserAgent, p.userAgent)
	assert.NotNil(t, p.httpClient)
	assert.Equal(t, "nominatim", p.Name())
}
