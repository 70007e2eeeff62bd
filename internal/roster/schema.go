// Package roster loads agency rosters and writes the batch artifacts.
package roster

import (
	"strings"

	"github.com/sells-group/agency-map/internal/config"
)

// Column headers of the CALEA client export.
const (
	DefaultNameColumn        = "Parent Organization Info Name"
	DefaultCityColumn        = "Parent Organization Info Primary Address City"
	DefaultStateColumn       = "Parent Organization Info Primary Address State Code"
	DefaultPostalCodeColumn  = "Parent Organization Info Primary Address Zipcode"
	DefaultPersonnelColumn   = "Extension Program Authorized Full Time Sworn Personnel"
	DefaultProgramTypeColumn = "Program Type"
	DefaultAwardDateColumn   = "Agency Award Date (Most Recent)"
	DefaultCEONameColumn     = "CEO Full Name"
	DefaultCEOTitleColumn    = "CEO Title"
)

// Columns appended to the enriched results file.
const (
	LatitudeColumn     = "Latitude"
	LongitudeColumn    = "Longitude"
	SizeCategoryColumn = "Size Category"
	AwardStatusColumn  = "Award Status"
)

// Schema maps logical fields to column headers.
type Schema struct {
	Name        string
	City        string
	State       string
	PostalCode  string
	Personnel   string
	ProgramType string
	AwardDate   string // optional
	CEOName     string // optional
	CEOTitle    string // optional
}

// DefaultSchema returns the CALEA export layout.
func DefaultSchema() Schema {
	return Schema{
		Name:        DefaultNameColumn,
		City:        DefaultCityColumn,
		State:       DefaultStateColumn,
		PostalCode:  DefaultPostalCodeColumn,
		Personnel:   DefaultPersonnelColumn,
		ProgramType: DefaultProgramTypeColumn,
		AwardDate:   DefaultAwardDateColumn,
		CEOName:     DefaultCEONameColumn,
		CEOTitle:    DefaultCEOTitleColumn,
	}
}

// SchemaFromConfig applies non-empty column overrides to DefaultSchema.
func SchemaFromConfig(c config.ColumnsConfig) Schema {
	s := DefaultSchema()
	override := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	override(&s.Name, c.Name)
	override(&s.City, c.City)
	override(&s.State, c.State)
	override(&s.PostalCode, c.PostalCode)
	override(&s.Personnel, c.Personnel)
	override(&s.ProgramType, c.ProgramType)
	override(&s.AwardDate, c.AwardDate)
	override(&s.CEOName, c.CEOName)
	override(&s.CEOTitle, c.CEOTitle)
	return s
}

func (s Schema) required() []string {
	return []string{s.Name, s.City, s.State, s.PostalCode, s.Personnel, s.ProgramType}
}

// SchemaError reports required columns absent from a roster header.
type SchemaError struct {
	Path    string
	Missing []string
}

func (e *SchemaError) Error() string {
	msg := "roster: missing required columns: " + strings.Join(e.Missing, ", ")
	if e.Path != "" {
		msg += " (in " + e.Path + ")"
	}
	return msg
}

// columnIndex resolves headers case-insensitively after trimming.
type columnIndex map[string]int

func indexHeader(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

func (c columnIndex) lookup(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	i, ok := c[strings.ToLower(strings.TrimSpace(name))]
	return i, ok
}

// Validate checks header against the required columns.
func (s Schema) Validate(header []string) error {
	idx := indexHeader(header)
	var missing []string
	for _, col := range s.required() {
		if _, ok := idx.lookup(col); !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}
