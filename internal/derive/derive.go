// Package derive maps raw roster fields to categorical dashboard attributes.
package derive

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/agency-map/internal/model"
)

// Personnel thresholds. Each band includes its lower bound.
const (
	mediumThreshold = 25.0
	largeThreshold  = 100.0
)

// SizeTier returns the size bucket for a personnel count.
// Rules:
//   - Small: personnel < 25
//   - Medium: 25 <= personnel < 100
//   - Large: personnel >= 100
//
// Callers normalize missing values to 0 first (see ParsePersonnel).
func SizeTier(personnel float64) model.SizeTier {
	switch {
	case personnel >= largeThreshold:
		return model.SizeLarge
	case personnel >= mediumThreshold:
		return model.SizeMedium
	default:
		return model.SizeSmall
	}
}

// AwardStatus returns Accredited when an award date is present.
// Only presence matters; the date itself is not inspected.
func AwardStatus(awardDate *time.Time) model.AwardStatus {
	if awardDate != nil {
		return model.AwardAccredited
	}
	return model.AwardSelfAssessment
}

// ParsePersonnel normalizes a raw personnel cell to a non-negative number.
// Blank, unparsable, NaN, infinite and negative values all become 0.
func ParsePersonnel(raw string) float64 {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

var awardDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"01-02-06",
	"1-2-06",
	"1/2/2006 15:04",
	"Jan 2, 2006",
	"January 2, 2006",
	"2-Jan-2006",
}

// Excel serial day numbers accepted as dates. Smaller bare numbers are
// years or counts (10000 is 1927-05-18).
const (
	minExcelSerial = 10000
	maxExcelSerial = 2958465 // 9999-12-31
)

// ParseAwardDate parses an award date cell. Text dates and Excel serial
// day numbers are accepted. Missing or unrecognized values return nil.
func ParseAwardDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "nat") {
		return nil
	}
	for _, layout := range awardDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= minExcelSerial && serial <= maxExcelSerial {
		t := xlsx.TimeFromExcelTime(serial, false)
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &t
	}
	return nil
}

// Enrich joins a record with its resolution and derives categories.
func Enrich(rec model.Record, res model.Resolution) model.EnrichedRecord {
	return model.EnrichedRecord{
		Record:      rec,
		Resolution:  res,
		SizeTier:    SizeTier(rec.Personnel),
		AwardStatus: AwardStatus(rec.AwardDate),
	}
}
