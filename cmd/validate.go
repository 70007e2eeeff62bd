package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/agency-map/internal/derive"
	"github.com/sells-group/agency-map/internal/roster"
)

var validateInput string

// rosterSummary is the dry-run report printed by validate.
type rosterSummary struct {
	Path           string         `yaml:"path"`
	Columns        int            `yaml:"columns"`
	Records        int            `yaml:"records"`
	DistinctQuery  int            `yaml:"distinct_queries"`
	EmptyQuery     []int          `yaml:"empty_query_rows,omitempty"`
	ProgramTypes   map[string]int `yaml:"program_types"`
	SizeTiers      map[string]int `yaml:"size_tiers"`
	AwardStatuses  map[string]int `yaml:"award_statuses"`
	UnparsedAwards []int          `yaml:"unparsed_award_rows,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a roster against the column schema without geocoding",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := validateInput
		if path == "" {
			path = cfg.Input.Path
		}
		r, err := roster.Load(cmd.Context(), path, roster.SchemaFromConfig(cfg.Input.Columns))
		if err != nil {
			return err
		}

		s := summarizeRoster(r)
		if len(s.EmptyQuery) > 0 {
			zap.L().Warn("rows without any address parts will not geocode", zap.Ints("rows", s.EmptyQuery))
		}
		return printYAML(cmd, s)
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateInput, "input", "", "roster file (default from config input.path)")
	rootCmd.AddCommand(validateCmd)
}

func summarizeRoster(r *roster.Roster) rosterSummary {
	s := rosterSummary{
		Path:          r.Path,
		Columns:       len(r.Header),
		Records:       len(r.Records),
		ProgramTypes:  make(map[string]int),
		SizeTiers:     make(map[string]int),
		AwardStatuses: make(map[string]int),
	}
	queries := make(map[string]bool)
	for _, rec := range r.Records {
		if rec.Query == "" {
			s.EmptyQuery = append(s.EmptyQuery, rec.Row)
		} else {
			queries[rec.Query] = true
		}
		if rec.AwardRaw != "" && rec.AwardDate == nil {
			s.UnparsedAwards = append(s.UnparsedAwards, rec.Row)
		}
		program := rec.ProgramType
		if program == "" {
			program = "(blank)"
		}
		s.ProgramTypes[program]++
		s.SizeTiers[string(derive.SizeTier(rec.Personnel))]++
		s.AwardStatuses[string(derive.AwardStatus(rec.AwardDate))]++
	}
	s.DistinctQuery = len(queries)
	return s
}
