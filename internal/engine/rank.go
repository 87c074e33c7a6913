// internal/engine/rank.go
package engine

import "sort"

// DefaultTopN is how many pathways a diagnosis returns unless the caller
// asks for more.
const DefaultTopN = 3

// Rank orders pathways deterministically and truncates to topN. Identical
// input always yields the identical order: score descending, then duration
// ascending, then cost ascending, then template ID ascending as the final
// fallback.
func Rank(pathways []RecommendedPathway, topN int) []RecommendedPathway {
	sort.SliceStable(pathways, func(i, j int) bool {
		a, b := &pathways[i], &pathways[j]
		if a.FeasibilityScore != b.FeasibilityScore {
			return a.FeasibilityScore > b.FeasibilityScore
		}
		if a.TotalDurationMonths != b.TotalDurationMonths {
			return a.TotalDurationMonths < b.TotalDurationMonths
		}
		if a.EstimatedCostUSD != b.EstimatedCostUSD {
			return a.EstimatedCostUSD < b.EstimatedCostUSD
		}
		return a.TemplateID < b.TemplateID
	})

	if topN <= 0 {
		topN = DefaultTopN
	}
	if len(pathways) > topN {
		pathways = pathways[:topN]
	}
	return pathways
}
