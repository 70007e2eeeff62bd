package geocode

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	nominatimSearchURL        = "https://nominatim.openstreetmap.org/search"
	defaultNominatimUserAgent = "agency-map/1.0"
)

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	AddressType string `json:"addresstype"`
}

// NominatimProvider geocodes via the OpenStreetMap Nominatim search API.
// The public instance requires an identifying User-Agent.
type NominatimProvider struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewNominatimProvider creates a NominatimProvider. Empty baseURL uses the
// public instance; empty userAgent uses a package default.
func NewNominatimProvider(baseURL, userAgent string, hc *http.Client) *NominatimProvider {
	if hc == nil {
		hc = defaultHTTPClient()
	}
	if baseURL == "" {
		baseURL = nominatimSearchURL
	}
	if userAgent == "" {
		userAgent = defaultNominatimUserAgent
	}
	return &NominatimProvider{httpClient: hc, baseURL: strings.TrimRight(baseURL, "/"), userAgent: userAgent}
}

// Name implements Provider.
func (p *NominatimProvider) Name() string { return "nominatim" }

// Geocode implements Provider.
func (p *NominatimProvider) Geocode(ctx context.Context, query string) (*Result, error) {
	params := url.Values{
		"q":            {query},
		"format":       {"jsonv2"},
		"limit":        {"1"},
		"countrycodes": {"us"},
	}

	var places []nominatimPlace
	if err := getJSON(ctx, p.httpClient, p.baseURL+"?"+params.Encode(), p.userAgent, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim")
	}

	if len(places) == 0 {
		return &Result{Matched: false, Source: "nominatim"}, nil
	}

	place := places[0]
	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim parse lat %q", place.Lat)
	}
	lon, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim parse lon %q", place.Lon)
	}

	return &Result{
		Latitude:  lat,
		Longitude: lon,
		Source:    "nominatim",
		Quality:   nominatimQuality(place.AddressType),
		Matched:   true,
	}, nil
}

func nominatimQuality(addressType string) string {
	switch addressType {
	case "house", "building":
		return "rooftop"
	case "road":
		return "range"
	case "city", "town", "village", "hamlet", "postcode", "municipality":
		return "centroid"
	default:
		return "approximate"
	}
}
