package dashboard

import (
	"strings"

	"github.com/sells-group/agency-map/internal/model"
)

// DefaultViewport is the token used for empty or unknown input.
const DefaultViewport = "usa"

var viewports = []model.Viewport{
	{Token: "usa", Center: model.Point{Lat: 39.5, Lon: -98.35}, Zoom: 3.5},
	{Token: "west", Center: model.Point{Lat: 39.0, Lon: -120.0}, Zoom: 4.5},
	{Token: "central", Center: model.Point{Lat: 39.0, Lon: -95.0}, Zoom: 4.5},
	{Token: "east", Center: model.Point{Lat: 39.0, Lon: -77.0}, Zoom: 4.5},
	{Token: "south", Center: model.Point{Lat: 31.0, Lon: -95.0}, Zoom: 4.5},
}

// ViewportFor maps a zoom token to its preset. Matching ignores case and an
// optional "zoom-" prefix; anything unrecognized gets the USA view.
func ViewportFor(token string) model.Viewport {
	t := strings.ToLower(strings.TrimSpace(token))
	t = strings.TrimPrefix(t, "zoom-")
	for _, v := range viewports {
		if v.Token == t {
			return v
		}
	}
	return viewports[0]
}

// Viewports returns the presets in display order.
func Viewports() []model.Viewport {
	out := make([]model.Viewport, len(viewports))
	copy(out, viewports)
	return out
}
