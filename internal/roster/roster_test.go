package roster

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/agency-map/internal/config"
	"github.com/sells-group/agency-map/internal/derive"
	"github.com/sells-group/agency-map/internal/model"
)

var defaultHeader = []string{
	DefaultNameColumn,
	DefaultCityColumn,
	DefaultStateColumn,
	DefaultPostalCodeColumn,
	DefaultPersonnelColumn,
	DefaultProgramTypeColumn,
	DefaultAwardDateColumn,
	DefaultCEONameColumn,
	DefaultCEOTitleColumn,
}

func writeCSV(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(rows))
	require.NoError(t, f.Close())
	return path
}

func TestLoad_CSV(t *testing.T) {
	path := writeCSV(t, [][]string{
		defaultHeader,
		{"Alpha PD", "fairfax", "va", "22030.0", "10", "Law Enforcement", "2020-01-15", "Jane Doe", "Chief"},
		{"", "", "", "", "", "", "", "", ""},
		{"Bravo SO", "Austin", "TX", "78701", "1,250", "Communications", "", "", ""},
	})

	r, err := Load(context.Background(), path, DefaultSchema())
	require.NoError(t, err)
	require.Len(t, r.Records, 2)

	alpha := r.Records[0]
	assert.Equal(t, 1, alpha.Row)
	assert.Equal(t, "Alpha PD", alpha.Name)
	assert.Equal(t, "Fairfax, VA 22030", alpha.Query)
	assert.Equal(t, 10.0, alpha.Personnel)
	require.NotNil(t, alpha.AwardDate)
	assert.Equal(t, "2020-01-15", alpha.AwardRaw)
	assert.Equal(t, "Jane Doe", alpha.CEOName)
	assert.Len(t, alpha.Values, len(defaultHeader))

	bravo := r.Records[1]
	assert.Equal(t, 3, bravo.Row)
	assert.Equal(t, 1250.0, bravo.Personnel)
	assert.Nil(t, bravo.AwardDate)
}

func TestLoad_CaseInsensitiveHeaders(t *testing.T) {
	header := make([]string, len(defaultHeader))
	for i, h := range defaultHeader {
		header[i] = "  " + strings.ToUpper(h) + " "
	}
	path := writeCSV(t, [][]string{
		header,
		{"Alpha PD", "Dallas", "TX", "75201", "5", "Law Enforcement", "", "", ""},
	})

	r, err := Load(context.Background(), path, DefaultSchema())
	require.NoError(t, err)
	require.Len(t, r.Records, 1)
	assert.Equal(t, "Dallas, TX 75201", r.Records[0].Query)
}

func TestLoad_OptionalColumnsAbsent(t *testing.T) {
	path := writeCSV(t, [][]string{
		defaultHeader[:6],
		{"Alpha PD", "Dallas", "TX", "75201", "5", "Law Enforcement"},
	})

	r, err := Load(context.Background(), path, DefaultSchema())
	require.NoError(t, err)
	require.Len(t, r.Records, 1)
	assert.Nil(t, r.Records[0].AwardDate)
	assert.Empty(t, r.Records[0].CEOName)
}

func TestLoad_MissingColumns(t *testing.T) {
	path := writeCSV(t, [][]string{
		{DefaultNameColumn, DefaultCityColumn, DefaultProgramTypeColumn},
		{"Alpha PD", "Dallas", "Law Enforcement"},
	})

	_, err := Load(context.Background(), path, DefaultSchema())
	require.Error(t, err)

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, path, se.Path)
	assert.ElementsMatch(t, []string{DefaultStateColumn, DefaultPostalCodeColumn, DefaultPersonnelColumn}, se.Missing)
	assert.Contains(t, err.Error(), "missing required columns")
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := Load(context.Background(), path, DefaultSchema())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load(context.Background(), "roster.json", DefaultSchema())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestLoad_XLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, data := range [][]string{
		defaultHeader,
		{"Charlie Academy", "Reno", "NV", "89501", "150", "Training Academy", "", "", ""},
	} {
		row := sheet.AddRow()
		for _, v := range data {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, f.Save(path))

	r, err := Load(context.Background(), path, DefaultSchema())
	require.NoError(t, err)
	require.Len(t, r.Records, 1)
	assert.Equal(t, "Reno, NV 89501", r.Records[0].Query)
	assert.Equal(t, 150.0, r.Records[0].Personnel)
}

func TestLoad_XLSXDateCellIsAccredited(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	header := sheet.AddRow()
	for _, v := range defaultHeader {
		header.AddCell().SetString(v)
	}
	row := sheet.AddRow()
	for i, v := range []string{"Alpha PD", "Dallas", "TX", "75201", "30", "Law Enforcement Accreditation", "", "", ""} {
		c := row.AddCell()
		if defaultHeader[i] == DefaultAwardDateColumn {
			c.SetDate(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
			continue
		}
		c.SetString(v)
	}
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, f.Save(path))

	r, err := Load(context.Background(), path, DefaultSchema())
	require.NoError(t, err)
	require.Len(t, r.Records, 1)
	rec := r.Records[0]
	assert.Equal(t, "2020-01-01", rec.AwardRaw)
	require.NotNil(t, rec.AwardDate)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), *rec.AwardDate)
	assert.Equal(t, model.AwardAccredited, derive.AwardStatus(rec.AwardDate))
}

func TestSchemaFromConfig(t *testing.T) {
	s := SchemaFromConfig(config.ColumnsConfig{Name: " Agency ", City: ""})
	assert.Equal(t, "Agency", s.Name)
	assert.Equal(t, DefaultCityColumn, s.City)
	assert.Equal(t, DefaultAwardDateColumn, s.AwardDate)
}

func TestWriteEnriched(t *testing.T) {
	rec := model.Record{Row: 1, Values: []string{"Alpha PD", "Dallas"}, Personnel: 30}
	found := derive.Enrich(rec, model.Found(32.7767, -96.797, "mapbox"))
	missed := derive.Enrich(model.Record{Row: 2, Values: []string{"Bravo SO"}}, model.NotFound("mapbox"))

	var buf bytes.Buffer
	require.NoError(t, WriteEnriched(&buf, []string{"Name", "City"}, []model.EnrichedRecord{found, missed}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "City", "Latitude", "Longitude", "Size Category", "Award Status"}, rows[0])
	assert.Equal(t, []string{"Alpha PD", "Dallas", "32.7767", "-96.797", "Medium (25-99)", "Self-Assessment"}, rows[1])
	assert.Equal(t, []string{"Bravo SO", "", "", "", "Small (<25)", "Self-Assessment"}, rows[2])
}

func TestWriteEnriched_ReplacesExistingOutputColumns(t *testing.T) {
	header := []string{"Name", "Latitude", "Longitude", "Award Status"}
	rec := derive.Enrich(model.Record{Values: []string{"Alpha PD", "1", "2", "Accredited"}}, model.Found(10, 20, "results"))

	var buf bytes.Buffer
	require.NoError(t, WriteEnriched(&buf, header, []model.EnrichedRecord{rec}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Latitude", "Longitude", "Size Category", "Award Status"}, rows[0])
	assert.Equal(t, []string{"Alpha PD", "10", "20", "Small (<25)", "Self-Assessment"}, rows[1])
}

func TestWriteFailures(t *testing.T) {
	var buf bytes.Buffer
	recs := []model.Record{{Row: 4, Values: []string{"Bravo SO", "Nowhere"}}}
	require.NoError(t, WriteFailures(&buf, []string{"Name", "City"}, recs))
	assert.Equal(t, "Name,City\nBravo SO,Nowhere\n", buf.String())
}

func TestLoadEnriched_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, [][]string{
		defaultHeader,
		{"Alpha PD", "Dallas", "TX", "75201", "120", "Law Enforcement", "2019-05-01", "", ""},
		{"Bravo SO", "Nowhere", "ZZ", "", "3", "Communications", "", "", ""},
	})
	r, err := Load(context.Background(), src, DefaultSchema())
	require.NoError(t, err)

	enriched := []model.EnrichedRecord{
		derive.Enrich(r.Records[0], model.Found(32.78, -96.8, "mapbox")),
		derive.Enrich(r.Records[1], model.NotFound("mapbox")),
	}
	out := filepath.Join(dir, "geocoded_results.csv")
	require.NoError(t, WriteFile(out, func(w io.Writer) error {
		return WriteEnriched(w, r.Header, enriched)
	}))

	got, err := LoadEnriched(context.Background(), out, DefaultSchema())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].HasCoordinates())
	assert.InDelta(t, 32.78, got[0].Resolution.Latitude, 1e-9)
	assert.Equal(t, model.SizeLarge, got[0].SizeTier)
	assert.Equal(t, model.AwardAccredited, got[0].AwardStatus)
	assert.False(t, got[1].HasCoordinates())
	assert.Equal(t, model.AwardSelfAssessment, got[1].AwardStatus)
}

func TestLoadEnriched_RequiresCoordinates(t *testing.T) {
	path := writeCSV(t, [][]string{
		defaultHeader[:6],
		{"Alpha PD", "Dallas", "TX", "75201", "5", "Law Enforcement"},
	})

	_, err := LoadEnriched(context.Background(), path, DefaultSchema())
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{LatitudeColumn, LongitudeColumn}, se.Missing)
}
