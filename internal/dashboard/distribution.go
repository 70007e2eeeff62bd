package dashboard

import (
	"slices"

	"github.com/sells-group/agency-map/internal/model"
)

// Count is the number of subset records sharing one value.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// PersonnelSummary is the five-number summary of personnel for one
// program type. Quartiles use linear interpolation between order
// statistics.
type PersonnelSummary struct {
	ProgramType string  `json:"program_type"`
	Count       int     `json:"count"`
	Min         float64 `json:"min"`
	Q1          float64 `json:"q1"`
	Median      float64 `json:"median"`
	Q3          float64 `json:"q3"`
	Max         float64 `json:"max"`
	Mean        float64 `json:"mean"`
}

// Distribution breaks a filtered subset down by program type and size
// tier. Every slice is ordered by first appearance in the subset, and
// each Count slice sums to the subset size.
type Distribution struct {
	ByProgram []Count            `json:"by_program"`
	BySize    []Count            `json:"by_size"`
	Personnel []PersonnelSummary `json:"personnel"`
}

// distributionBuilder accumulates a Distribution one record at a time.
type distributionBuilder struct {
	dist         Distribution
	programIndex map[string]int
	sizeIndex    map[model.SizeTier]int
	personnel    [][]float64 // aligned with dist.ByProgram
}

func newDistributionBuilder() *distributionBuilder {
	return &distributionBuilder{
		programIndex: make(map[string]int),
		sizeIndex:    make(map[model.SizeTier]int),
	}
}

func (b *distributionBuilder) add(rec model.EnrichedRecord) {
	i, ok := b.programIndex[rec.ProgramType]
	if !ok {
		i = len(b.dist.ByProgram)
		b.programIndex[rec.ProgramType] = i
		b.dist.ByProgram = append(b.dist.ByProgram, Count{Value: rec.ProgramType})
		b.personnel = append(b.personnel, nil)
	}
	b.dist.ByProgram[i].Count++
	b.personnel[i] = append(b.personnel[i], rec.Personnel)

	j, ok := b.sizeIndex[rec.SizeTier]
	if !ok {
		j = len(b.dist.BySize)
		b.sizeIndex[rec.SizeTier] = j
		b.dist.BySize = append(b.dist.BySize, Count{Value: string(rec.SizeTier)})
	}
	b.dist.BySize[j].Count++
}

func (b *distributionBuilder) build() Distribution {
	for i, values := range b.personnel {
		b.dist.Personnel = append(b.dist.Personnel, summarize(b.dist.ByProgram[i].Value, values))
	}
	return b.dist
}

func summarize(programType string, values []float64) PersonnelSummary {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return PersonnelSummary{
		ProgramType: programType,
		Count:       len(sorted),
		Min:         sorted[0],
		Q1:          quantile(sorted, 0.25),
		Median:      quantile(sorted, 0.5),
		Q3:          quantile(sorted, 0.75),
		Max:         sorted[len(sorted)-1],
		Mean:        sum / float64(len(sorted)),
	}
}

// quantile interpolates the q-th quantile of a sorted, non-empty slice.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
