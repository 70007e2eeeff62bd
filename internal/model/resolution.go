package model

// ResolutionKind classifies the outcome of resolving a query.
type ResolutionKind string

const (
	ResolutionFound    ResolutionKind = "found"
	ResolutionNotFound ResolutionKind = "not_found"
)

// Resolution is the immutable outcome of resolving one query.
type Resolution struct {
	Kind      ResolutionKind `json:"kind"`
	Latitude  float64        `json:"latitude,omitempty"`
	Longitude float64        `json:"longitude,omitempty"`
	Source    string         `json:"source,omitempty"`
}

// Found returns a successful resolution. Out-of-range coordinates yield NotFound.
func Found(lat, lon float64, source string) Resolution {
	if !ValidCoordinates(lat, lon) {
		return NotFound(source)
	}
	return Resolution{
		Kind:      ResolutionFound,
		Latitude:  lat,
		Longitude: lon,
		Source:    source,
	}
}

// NotFound returns a failed resolution.
func NotFound(source string) Resolution {
	return Resolution{Kind: ResolutionNotFound, Source: source}
}

// IsFound reports whether the resolution carries coordinates.
func (r Resolution) IsFound() bool {
	return r.Kind == ResolutionFound
}

// ValidCoordinates reports whether lat/lon fall in WGS84 bounds.
// NaN fails both comparisons and is rejected.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
