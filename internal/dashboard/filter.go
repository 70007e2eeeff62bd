// Package dashboard computes the filtered map, summary and table views of
// an enriched roster and serves them over HTTP.
package dashboard

import (
	"strings"

	"github.com/sells-group/agency-map/internal/model"
)

// Stats summarizes a filtered subset. Accredited + SelfAssessment == Total.
type Stats struct {
	Total          int     `json:"total"`
	Accredited     int     `json:"accredited"`
	SelfAssessment int     `json:"self_assessment"`
	AvgPersonnel   float64 `json:"avg_personnel"`
}

// LayerKey identifies one map layer.
type LayerKey struct {
	SizeTier    model.SizeTier `json:"size_tier"`
	ProgramType string         `json:"program_type"`
}

// Layer is the records sharing a LayerKey, in input order.
type Layer struct {
	Key     LayerKey
	Records []model.EnrichedRecord
}

// Aggregate is the result of Apply.
type Aggregate struct {
	Subset []model.EnrichedRecord
	Stats  Stats
	Layers []Layer // ordered by first appearance in Subset; never empty groups

	Distribution Distribution
}

// Apply filters records by sel and derives the summary, map layers and
// distribution in a single pass. Records without coordinates never appear in the output.
// records is not modified.
func Apply(records []model.EnrichedRecord, sel model.Selection) Aggregate {
	var (
		agg        Aggregate
		personnel  float64
		layerIndex = make(map[LayerKey]int)
		dist       = newDistributionBuilder()
	)

	for _, rec := range records {
		if !rec.HasCoordinates() {
			continue
		}
		if !matches(rec.ProgramType, sel.ProgramType) ||
			!matches(string(rec.SizeTier), sel.SizeTier) ||
			!matches(string(rec.AwardStatus), sel.AwardStatus) {
			continue
		}

		agg.Subset = append(agg.Subset, rec)
		agg.Stats.Total++
		if rec.AwardStatus == model.AwardAccredited {
			agg.Stats.Accredited++
		} else {
			agg.Stats.SelfAssessment++
		}
		personnel += rec.Personnel

		key := LayerKey{SizeTier: rec.SizeTier, ProgramType: rec.ProgramType}
		i, ok := layerIndex[key]
		if !ok {
			i = len(agg.Layers)
			layerIndex[key] = i
			agg.Layers = append(agg.Layers, Layer{Key: key})
		}
		agg.Layers[i].Records = append(agg.Layers[i].Records, rec)
		dist.add(rec)
	}

	agg.Distribution = dist.build()

	if agg.Stats.Total > 0 {
		agg.Stats.AvgPersonnel = personnel / float64(agg.Stats.Total)
	}
	return agg
}

// matches reports whether value satisfies a selection dimension.
// Empty and "all" (any case) match everything.
func matches(value, want string) bool {
	if want == "" || strings.EqualFold(want, model.SelectAll) {
		return true
	}
	return value == want
}

// FilterOptions lists the selectable values per dimension, each led by "all".
type FilterOptions struct {
	ProgramTypes  []string `json:"program_types"`
	SizeTiers     []string `json:"size_tiers"`
	AwardStatuses []string `json:"award_statuses"`
}

// Options returns the distinct values of each dimension among records with
// coordinates, in order of first appearance. Blank program types are skipped.
func Options(records []model.EnrichedRecord) FilterOptions {
	opts := FilterOptions{
		ProgramTypes:  []string{model.SelectAll},
		SizeTiers:     []string{model.SelectAll},
		AwardStatuses: []string{model.SelectAll},
	}
	seen := map[string]map[string]bool{"program": {}, "size": {}, "award": {}}
	add := func(dim string, list *[]string, v string) {
		if v == "" || seen[dim][v] {
			return
		}
		seen[dim][v] = true
		*list = append(*list, v)
	}

	for _, rec := range records {
		if !rec.HasCoordinates() {
			continue
		}
		add("program", &opts.ProgramTypes, rec.ProgramType)
		add("size", &opts.SizeTiers, string(rec.SizeTier))
		add("award", &opts.AwardStatuses, string(rec.AwardStatus))
	}
	return opts
}
