package model

import "time"

// SizeTier buckets an agency by authorized sworn personnel.
type SizeTier string

const (
	SizeSmall  SizeTier = "Small (<25)"
	SizeMedium SizeTier = "Medium (25-99)"
	SizeLarge  SizeTier = "Large (100+)"
)

// AwardStatus reports whether an agency holds an accreditation award.
type AwardStatus string

const (
	AwardAccredited     AwardStatus = "Accredited"
	AwardSelfAssessment AwardStatus = "Self-Assessment"
)

// Record is one agency row from the roster.
type Record struct {
	Row         int        `json:"row"` // 1-based data row in the source file
	Name        string     `json:"name"`
	City        string     `json:"city"`
	State       string     `json:"state"`
	PostalCode  string     `json:"postal_code"`
	Personnel   float64    `json:"personnel"`
	ProgramType string     `json:"program_type"`
	AwardDate   *time.Time `json:"award_date,omitempty"`
	AwardRaw    string     `json:"award_raw,omitempty"`
	CEOName     string     `json:"ceo_name,omitempty"`
	CEOTitle    string     `json:"ceo_title,omitempty"`

	// Query is the normalized geocoding key built from City, State and PostalCode.
	Query string `json:"query"`

	// Values holds the original row, aligned with the roster header.
	Values []string `json:"-"`
}

// EnrichedRecord is a Record joined with its Resolution and derived categories.
type EnrichedRecord struct {
	Record
	Resolution  Resolution  `json:"resolution"`
	SizeTier    SizeTier    `json:"size_tier"`
	AwardStatus AwardStatus `json:"award_status"`
}

// HasCoordinates reports whether the record resolved to a coordinate pair.
func (e EnrichedRecord) HasCoordinates() bool {
	return e.Resolution.IsFound()
}

// Selection is the three-dimensional dashboard filter. Empty or "all"
// on a dimension matches everything.
type Selection struct {
	ProgramType string `json:"program_type"`
	SizeTier    string `json:"size_tier"`
	AwardStatus string `json:"award_status"`
}

// SelectAll is the identity selection.
const SelectAll = "all"

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Viewport is a map center and zoom level.
type Viewport struct {
	Token  string  `json:"token"`
	Center Point   `json:"center"`
	Zoom   float64 `json:"zoom"`
}
