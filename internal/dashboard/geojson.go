package dashboard

import (
	"html"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/agency-map/internal/model"
)

// Point features are [lon, lat] in WGS84.
func featureCollection(records []model.EnrichedRecord) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(records))}
	for _, rec := range records {
		pt := geom.NewPointFlat(geom.XY, []float64{rec.Resolution.Longitude, rec.Resolution.Latitude})
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: pt,
			Properties: map[string]any{
				"name":         rec.Name,
				"city":         rec.City,
				"state":        rec.State,
				"program_type": rec.ProgramType,
				"personnel":    rec.Personnel,
				"size_tier":    string(rec.SizeTier),
				"award_status": string(rec.AwardStatus),
				"hover":        hoverText(rec),
			},
		})
	}
	return fc
}

// hoverText is the marker popup HTML. Roster values are escaped.
func hoverText(rec model.EnrichedRecord) string {
	program := rec.ProgramType
	if program == "" {
		program = "Unknown"
	}
	var b strings.Builder
	b.WriteString("<b>" + html.EscapeString(rec.Name) + "</b><br>")
	b.WriteString(html.EscapeString(rec.City) + ", " + html.EscapeString(rec.State) + "<br>")
	b.WriteString("Program Type: " + html.EscapeString(program) + "<br>")
	b.WriteString("Sworn Personnel: " + strconv.FormatFloat(rec.Personnel, 'f', -1, 64) + "<br>")
	b.WriteString("Award Status: " + string(rec.AwardStatus) + "<br>")
	b.WriteString("Last Award Date: " + html.EscapeString(lastAwardDate(rec)))
	return b.String()
}

// lastAwardDate is the parsed award date, the raw cell when it did not
// parse, or the self-assessment label when there is none.
func lastAwardDate(rec model.EnrichedRecord) string {
	switch {
	case rec.AwardDate != nil:
		return rec.AwardDate.Format("2006-01-02")
	case rec.AwardRaw != "":
		return rec.AwardRaw
	default:
		return string(model.AwardSelfAssessment)
	}
}
