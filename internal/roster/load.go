package roster

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/agency-map/internal/derive"
	"github.com/sells-group/agency-map/internal/fetcher"
	"github.com/sells-group/agency-map/internal/model"
	"github.com/sells-group/agency-map/pkg/geocode"
)

// Roster is a loaded roster: its header and one Record per data row.
type Roster struct {
	Path    string
	Header  []string
	Records []model.Record
}

// Load reads a .csv or .xlsx roster and validates it against schema.
// A missing required column is a *SchemaError naming every missing column.
// Blank rows are skipped.
func Load(ctx context.Context, path string, schema Schema) (*Roster, error) {
	rows, err := readRows(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("roster: %s is empty", path)
	}

	header := rows[0]
	if err := schema.Validate(header); err != nil {
		var se *SchemaError
		if errors.As(err, &se) {
			se.Path = path
		}
		return nil, err
	}

	idx := indexHeader(header)
	get := func(row []string, col string) string {
		i, ok := idx.lookup(col)
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	r := &Roster{Path: path, Header: header}
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		values := make([]string, len(header))
		copy(values, row)

		city, state, postal := get(row, schema.City), get(row, schema.State), get(row, schema.PostalCode)
		awardRaw := get(row, schema.AwardDate)
		rec := model.Record{
			Row:         i + 1,
			Name:        get(row, schema.Name),
			City:        city,
			State:       state,
			PostalCode:  postal,
			Personnel:   derive.ParsePersonnel(get(row, schema.Personnel)),
			ProgramType: get(row, schema.ProgramType),
			AwardRaw:    awardRaw,
			AwardDate:   derive.ParseAwardDate(awardRaw),
			CEOName:     get(row, schema.CEOName),
			CEOTitle:    get(row, schema.CEOTitle),
			Query:       geocode.BuildQuery(city, state, postal),
			Values:      values,
		}
		r.Records = append(r.Records, rec)
	}

	zap.L().Debug("roster: loaded",
		zap.String("path", path),
		zap.Int("columns", len(header)),
		zap.Int("records", len(r.Records)),
	)
	return r, nil
}

// LoadEnriched reads a results file written by WriteEnriched. Rows with
// blank or out-of-range coordinates come back NotFound. Size tier and award
// status are recomputed from the source columns.
func LoadEnriched(ctx context.Context, path string, schema Schema) ([]model.EnrichedRecord, error) {
	r, err := Load(ctx, path, schema)
	if err != nil {
		return nil, err
	}

	idx := indexHeader(r.Header)
	latIdx, okLat := idx.lookup(LatitudeColumn)
	lonIdx, okLon := idx.lookup(LongitudeColumn)
	if !okLat || !okLon {
		var missing []string
		if !okLat {
			missing = append(missing, LatitudeColumn)
		}
		if !okLon {
			missing = append(missing, LongitudeColumn)
		}
		return nil, &SchemaError{Path: path, Missing: missing}
	}

	out := make([]model.EnrichedRecord, 0, len(r.Records))
	for _, rec := range r.Records {
		res := model.NotFound("")
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(rec.Values[latIdx]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(rec.Values[lonIdx]), 64)
		if errLat == nil && errLon == nil {
			res = model.Found(lat, lon, "results")
		}
		out = append(out, derive.Enrich(rec, res))
	}
	return out, nil
}

func readRows(ctx context.Context, path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	case ".csv", ".txt", "":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "roster: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		rows, err := fetcher.ReadCSV(ctx, f, fetcher.CSVOptions{LazyQuotes: true})
		if err != nil {
			return nil, eris.Wrapf(err, "roster: read %s", path)
		}
		return rows, nil
	default:
		return nil, eris.Errorf("roster: unsupported file type %q", filepath.Ext(path))
	}
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
