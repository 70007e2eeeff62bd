package roster

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/agency-map/internal/model"
)

var outputColumns = []string{LatitudeColumn, LongitudeColumn, SizeCategoryColumn, AwardStatusColumn}

// EnrichedHeader returns header minus any output columns, with the output
// columns appended. Re-running over a results file therefore does not
// duplicate them.
func EnrichedHeader(header []string) []string {
	keep := sourceColumns(header)
	out := make([]string, 0, len(keep)+len(outputColumns))
	for _, i := range keep {
		out = append(out, header[i])
	}
	return append(out, outputColumns...)
}

func sourceColumns(header []string) []int {
	drop := make(map[string]bool, len(outputColumns))
	for _, c := range outputColumns {
		drop[strings.ToLower(c)] = true
	}
	keep := make([]int, 0, len(header))
	for i, h := range header {
		if !drop[strings.ToLower(strings.TrimSpace(h))] {
			keep = append(keep, i)
		}
	}
	return keep
}

// WriteEnriched writes every record with its coordinates and derived
// categories. NotFound rows keep blank coordinates.
func WriteEnriched(w io.Writer, header []string, records []model.EnrichedRecord) error {
	cw := csv.NewWriter(w)
	keep := sourceColumns(header)

	if err := cw.Write(EnrichedHeader(header)); err != nil {
		return eris.Wrap(err, "roster: write enriched header")
	}
	for _, rec := range records {
		row := make([]string, 0, len(keep)+len(outputColumns))
		for _, i := range keep {
			row = append(row, cell(rec.Values, i))
		}
		lat, lon := "", ""
		if rec.HasCoordinates() {
			lat = strconv.FormatFloat(rec.Resolution.Latitude, 'f', -1, 64)
			lon = strconv.FormatFloat(rec.Resolution.Longitude, 'f', -1, 64)
		}
		row = append(row, lat, lon, string(rec.SizeTier), string(rec.AwardStatus))
		if err := cw.Write(row); err != nil {
			return eris.Wrapf(err, "roster: write enriched row %d", rec.Row)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "roster: flush enriched")
}

// WriteFailures writes the original rows of records that did not resolve.
func WriteFailures(w io.Writer, header []string, records []model.Record) error {
	cw := csv.NewWriter(w)
	keep := sourceColumns(header)

	out := make([]string, 0, len(keep))
	for _, i := range keep {
		out = append(out, header[i])
	}
	if err := cw.Write(out); err != nil {
		return eris.Wrap(err, "roster: write failures header")
	}
	for _, rec := range records {
		row := make([]string, 0, len(keep))
		for _, i := range keep {
			row = append(row, cell(rec.Values, i))
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrapf(err, "roster: write failure row %d", rec.Row)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "roster: flush failures")
}

// WriteFile creates path and hands it to write. The file is closed on return.
func WriteFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "roster: create %s", path)
	}
	if err := write(f); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrapf(f.Close(), "roster: close %s", path)
}

func cell(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
