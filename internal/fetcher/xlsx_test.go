package fetcher

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX_Basic(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Name", "City", "State"},
			{"Alpha PD", "Dallas", "TX"},
			{"Bravo SO", "Austin", "TX"},
		},
	})

	rows, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "City", "State"}, rows[0])
	assert.Equal(t, []string{"Bravo SO", "Austin", "TX"}, rows[2])
}

func TestReadXLSX_TrimSpaceAndTrailingBlanks(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{" Name ", "City"},
			{"Alpha PD ", " Dallas"},
			{"", ""},
			{" ", ""},
		},
	})

	rows, err := ReadXLSX(path, XLSXOptions{TrimSpace: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Name", "City"}, rows[0])
	assert.Equal(t, []string{"Alpha PD", "Dallas"}, rows[1])
}

func TestReadXLSX_SheetByName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Agencies": {{"Name"}, {"Alpha PD"}},
	})

	rows, err := ReadXLSX(path, XLSXOptions{SheetName: "Agencies"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Missing" not found`)
}

func TestReadXLSX_SheetIndexOutOfRange(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"a"}}})

	_, err := ReadXLSX(path, XLSXOptions{SheetIndex: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestReadXLSX_MissingFile(t *testing.T) {
	_, err := ReadXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open file")
}

func TestReadXLSX_DateCells(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	header := sheet.AddRow()
	header.AddCell().SetString("Name")
	header.AddCell().SetString("Award")
	header.AddCell().SetString("Personnel")

	row := sheet.AddRow()
	row.AddCell().SetString("Alpha PD")
	row.AddCell().SetDate(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	row.AddCell().SetInt(42)

	text := sheet.AddRow()
	text.AddCell().SetString("Bravo SO")
	text.AddCell().SetString("pending")
	text.AddCell().SetInt(7)

	path := filepath.Join(t.TempDir(), "dates.xlsx")
	require.NoError(t, f.Save(path))

	rows, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Alpha PD", "2020-01-01", "42"}, rows[1])
	assert.Equal(t, []string{"Bravo SO", "pending", "7"}, rows[2])
}
