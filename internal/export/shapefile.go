package export

import (
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/agency-map/internal/model"
)

// DBF field names are capped at 10 characters.
var shapeFields = []shp.Field{
	shp.StringField("NAME", 120),
	shp.StringField("CITY", 60),
	shp.StringField("STATE", 4),
	shp.StringField("PROGRAM", 60),
	shp.StringField("SIZE", 20),
	shp.StringField("AWARD", 20),
	shp.FloatField("PERSONNEL", 12, 1),
}

// WriteShapefile writes a POINT shapefile (.shp/.shx/.dbf next to path)
// of the records that have coordinates. It returns the number written.
func WriteShapefile(path string, records []model.EnrichedRecord) (int, error) {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return 0, eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer w.Close()

	if err := w.SetFields(shapeFields); err != nil {
		return 0, eris.Wrap(err, "export: set shapefile fields")
	}

	written := 0
	for _, rec := range records {
		if !rec.HasCoordinates() {
			continue
		}
		n := int(w.Write(&shp.Point{X: rec.Resolution.Longitude, Y: rec.Resolution.Latitude}))

		attrs := []any{
			clip(rec.Name, 120),
			clip(rec.City, 60),
			clip(rec.State, 4),
			clip(rec.ProgramType, 60),
			string(rec.SizeTier),
			string(rec.AwardStatus),
			rec.Personnel,
		}
		for i, v := range attrs {
			if err := w.WriteAttribute(n, i, v); err != nil {
				return written, eris.Wrapf(err, "export: write attribute %s of row %d", shapeFields[i].String(), rec.Row)
			}
		}
		written++
	}

	zap.L().Info("export: wrote shapefile",
		zap.String("path", path),
		zap.Int("points", written),
		zap.Int("skipped", len(records)-written),
	)
	return written, nil
}

// clip fits s into a DBF field of n bytes without splitting a rune.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
