// Package export writes enriched rosters to formats outside the CSV
// artifacts: an XLSX workbook and a point shapefile.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/agency-map/internal/model"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Agencies"

var xlsxHeader = []string{
	"Name", "City", "State", "Postal Code", "Program Type",
	"Sworn Personnel", "Size Category", "Award Status", "Award Date",
	"CEO Name", "CEO Title", "Latitude", "Longitude", "Source",
}

// WriteXLSX writes one row per record. Records without coordinates are
// kept with blank Latitude and Longitude.
func WriteXLSX(path string, records []model.EnrichedRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range xlsxHeader {
		header.AddCell().SetString(h)
	}

	for _, rec := range records {
		row := sheet.AddRow()
		row.AddCell().SetString(rec.Name)
		row.AddCell().SetString(rec.City)
		row.AddCell().SetString(rec.State)
		row.AddCell().SetString(rec.PostalCode)
		row.AddCell().SetString(rec.ProgramType)
		row.AddCell().SetFloat(rec.Personnel)
		row.AddCell().SetString(string(rec.SizeTier))
		row.AddCell().SetString(string(rec.AwardStatus))
		if rec.AwardDate != nil {
			row.AddCell().SetString(rec.AwardDate.Format("2006-01-02"))
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetString(rec.CEOName)
		row.AddCell().SetString(rec.CEOTitle)
		if rec.HasCoordinates() {
			row.AddCell().SetFloat(rec.Resolution.Latitude)
			row.AddCell().SetFloat(rec.Resolution.Longitude)
		} else {
			row.AddCell().SetString("")
			row.AddCell().SetString("")
		}
		row.AddCell().SetString(rec.Resolution.Source)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	zap.L().Info("export: wrote workbook", zap.String("path", path), zap.Int("rows", len(records)))
	return nil
}
