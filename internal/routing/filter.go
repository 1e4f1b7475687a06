package routing

import (
	"github.com/Jrmromao/costlens/internal/analyzer"
	"github.com/Jrmromao/costlens/internal/catalog"
)

// FilterCandidates narrows the capability table to models usable for this
// request.
//
// If the requested model is unknown there is no cost ceiling to filter
// against, so the whole table is returned (fail-open).
func FilterCandidates(
	cat *catalog.Catalog,
	requestedModel string,
	an analyzer.Analysis,
	pref Preference,
) []catalog.Capability {
	requested, known := cat.Lookup(requestedModel)
	if !known {
		return cat.All()
	}

	costCeiling := requested.CostPer1M * pref.MaxCostIncrease
	qualityFloor := pref.QualityThreshold * 100

	var out []catalog.Capability
	for _, m := range cat.All() {
		if an.Complexity > m.ComplexityThreshold {
			continue
		}
		if float64(m.QualityScore) < qualityFloor {
			continue
		}
		if an.HasTask(catalog.TaskMath) && m.HasWeakness(catalog.TaskMath) {
			continue
		}
		if an.RequiresReasoning && m.HasWeakness(catalog.WeaknessReasoning) {
			continue
		}
		if m.CostPer1M > costCeiling {
			continue
		}
		out = append(out, m)
	}
	return out
}
