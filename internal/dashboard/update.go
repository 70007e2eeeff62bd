package dashboard

import (
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/agency-map/internal/model"
)

// NoMatchMessage is shown when a selection matches nothing.
const NoMatchMessage = "No agencies match the selected filters"

const fallbackColor = "#808080"

var programColors = map[string]string{
	"Law Enforcement Accreditation":  "#1f77b4",
	"Communications Accreditation":   "#ff7f0e",
	"Training Academy Accreditation": "#2ca02c",
}

// ColorFor returns the marker color of a program type.
func ColorFor(programType string) string {
	if c, ok := programColors[programType]; ok {
		return c
	}
	return fallbackColor
}

// UpdateRequest is one dashboard interaction: the three filters plus the
// most recent zoom token.
type UpdateRequest struct {
	Selection model.Selection
	Viewport  string
}

// MapLayer is one (size tier, program type) marker group.
type MapLayer struct {
	Name        string                     `json:"name"`
	SizeTier    model.SizeTier             `json:"size_tier"`
	ProgramType string                     `json:"program_type"`
	Color       string                     `json:"color"`
	Count       int                        `json:"count"`
	Features    *geojson.FeatureCollection `json:"features"`
}

// TableRow is one row of the agency table.
type TableRow struct {
	Name        string `json:"name"`
	City        string `json:"city"`
	State       string `json:"state"`
	ProgramType string `json:"program_type"`
	AwardStatus string `json:"award_status"`
	CEOName     string `json:"ceo_name"`
	CEOTitle    string `json:"ceo_title"`
}

// View is everything the dashboard renders for one request.
type View struct {
	Viewport     model.Viewport `json:"viewport"`
	Layers       []MapLayer     `json:"layers"`
	Stats        Stats          `json:"stats"`
	Distribution Distribution   `json:"distribution"`
	Rows         []TableRow     `json:"rows"`
	Message      string         `json:"message,omitempty"`
}

// Update computes the view for req. It is a pure function of its inputs.
func Update(records []model.EnrichedRecord, req UpdateRequest) View {
	agg := Apply(records, req.Selection)
	view := View{
		Viewport:     ViewportFor(req.Viewport),
		Stats:        agg.Stats,
		Distribution: agg.Distribution,
		Layers:       make([]MapLayer, 0, len(agg.Layers)),
		Rows:         make([]TableRow, 0, len(agg.Subset)),
	}
	if len(agg.Subset) == 0 {
		view.Message = NoMatchMessage
		return view
	}

	for _, l := range agg.Layers {
		view.Layers = append(view.Layers, MapLayer{
			Name:        string(l.Key.SizeTier) + " - " + l.Key.ProgramType,
			SizeTier:    l.Key.SizeTier,
			ProgramType: l.Key.ProgramType,
			Color:       ColorFor(l.Key.ProgramType),
			Count:       len(l.Records),
			Features:    featureCollection(l.Records),
		})
	}
	for _, rec := range agg.Subset {
		view.Rows = append(view.Rows, TableRow{
			Name:        rec.Name,
			City:        rec.City,
			State:       rec.State,
			ProgramType: rec.ProgramType,
			AwardStatus: string(rec.AwardStatus),
			CEOName:     rec.CEOName,
			CEOTitle:    rec.CEOTitle,
		})
	}
	return view
}
