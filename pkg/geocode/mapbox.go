package geocode

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
)

const mapboxGeocodeURL = "https://api.mapbox.com/geocoding/v5/mapbox.places/"

type mapboxResponse struct {
	Features []mapboxFeature `json:"features"`
}

type mapboxFeature struct {
	PlaceName string    `json:"place_name"`
	PlaceType []string  `json:"place_type"`
	Relevance float64   `json:"relevance"`
	Center    []float64 `json:"center"`
	Geometry  struct {
		Coordinates []float64 `json:"coordinates"` // [lon, lat]
	} `json:"geometry"`
}

// MapboxProvider geocodes via the Mapbox Geocoding v5 places endpoint.
type MapboxProvider struct {
	httpClient *http.Client
	token      string
}

// NewMapboxProvider creates a MapboxProvider. A nil client gets a 30s default.
func NewMapboxProvider(token string, hc *http.Client) *MapboxProvider {
	if hc == nil {
		hc = defaultHTTPClient()
	}
	return &MapboxProvider{httpClient: hc, token: token}
}

// Name implements Provider.
func (p *MapboxProvider) Name() string { return "mapbox" }

// Geocode implements Provider.
func (p *MapboxProvider) Geocode(ctx context.Context, query string) (*Result, error) {
	if p.token == "" {
		return nil, eris.New("geocode: mapbox access token not configured")
	}

	params := url.Values{
		"access_token": {p.token},
		"limit":        {"1"},
	}
	reqURL := mapboxGeocodeURL + url.PathEscape(query) + ".json?" + params.Encode()

	var mbResp mapboxResponse
	if err := getJSON(ctx, p.httpClient, reqURL, "", &mbResp); err != nil {
		return nil, eris.Wrap(err, "geocode: mapbox")
	}

	if len(mbResp.Features) == 0 {
		return &Result{Matched: false, Source: "mapbox"}, nil
	}

	feat := mbResp.Features[0]
	coords := feat.Geometry.Coordinates
	if len(coords) < 2 {
		coords = feat.Center
	}
	if len(coords) < 2 {
		return nil, eris.Errorf("geocode: mapbox feature %q has no coordinates", feat.PlaceName)
	}

	return &Result{
		Latitude:  coords[1],
		Longitude: coords[0],
		Source:    "mapbox",
		Quality:   mapboxPlaceTypeToQuality(feat.PlaceType),
		Matched:   true,
	}, nil
}

// mapboxPlaceTypeToQuality maps the most specific Mapbox place type to our quality taxonomy.
func mapboxPlaceTypeToQuality(types []string) string {
	if len(types) == 0 {
		return "approximate"
	}
	switch types[0] {
	case "address":
		return "rooftop"
	case "poi":
		return "range"
	case "postcode", "place", "locality", "neighborhood":
		return "centroid"
	default:
		return "approximate"
	}
}
