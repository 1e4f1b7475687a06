package routing

import (
	"fmt"

	"github.com/Jrmromao/costlens/internal/analyzer"
	"github.com/Jrmromao/costlens/internal/catalog"
)

// QualityRisk classifies how much a substitution might degrade quality.
type QualityRisk string

// Risk levels, keyed off the selected model's quality score.
const (
	RiskLow    QualityRisk = "low"
	RiskMedium QualityRisk = "medium"
	RiskHigh   QualityRisk = "high"
)

// Decision is the outcome of routing one request.
type Decision struct {
	SelectedModel   string
	OriginalModel   string
	Confidence      float64
	Reasoning       string
	ExpectedSavings float64 // per-1M rate delta, not a realized dollar amount
	QualityRisk     QualityRisk
}

// Switched reports whether routing picked a different model than requested.
func (d Decision) Switched() bool {
	return d.SelectedModel != d.OriginalModel
}

// Scoring weights for candidate ranking.
const (
	weightQuality       = 0.4
	weightCost          = 0.3
	weightCompatibility = 0.3
)

// Select scores the candidate set and picks the best model.
//
// An empty candidate set is not an error: routing fails open to the safe
// default model at half confidence. Ties break lexicographically by model id
// so decisions are reproducible; candidates arrive sorted from the catalog.
func Select(
	cat *catalog.Catalog,
	requestedModel string,
	candidates []catalog.Capability,
	an analyzer.Analysis,
) Decision {
	if len(candidates) == 0 {
		return Decision{
			SelectedModel: catalog.SafeDefaultModel,
			OriginalModel: requestedModel,
			Confidence:    0.5,
			Reasoning:     "no candidate passed filtering; using safe default",
			QualityRisk:   RiskLow,
		}
	}

	maxCost := candidates[0].CostPer1M
	for _, m := range candidates[1:] {
		if m.CostPer1M > maxCost {
			maxCost = m.CostPer1M
		}
	}

	best := candidates[0]
	bestScore := scoreCandidate(candidates[0], an, maxCost)
	for _, m := range candidates[1:] {
		if s := scoreCandidate(m, an, maxCost); s > bestScore {
			best = m
			bestScore = s
		}
	}

	d := Decision{
		SelectedModel: best.Model,
		OriginalModel: requestedModel,
		Confidence:    clamp01(bestScore),
		QualityRisk:   riskFor(best.QualityScore),
	}

	if requested, ok := cat.Lookup(requestedModel); ok && requested.CostPer1M > best.CostPer1M {
		d.ExpectedSavings = requested.CostPer1M - best.CostPer1M
	}

	if d.Switched() {
		d.Reasoning = fmt.Sprintf("%s scores %.2f on quality/cost/task fit at complexity %.2f",
			best.Model, bestScore, an.Complexity)
	} else {
		d.Reasoning = fmt.Sprintf("requested model %s is already the best fit", best.Model)
	}

	return d
}

// scoreCandidate computes the weighted quality/cost/compatibility score.
func scoreCandidate(m catalog.Capability, an analyzer.Analysis, maxCost float64) float64 {
	quality := float64(m.QualityScore) / 100

	costScore := 0.0
	if maxCost > 0 {
		costScore = 1 - m.CostPer1M/maxCost
	}

	compat := 0.5
	for _, tag := range an.TaskTypes {
		if m.HasStrength(tag) {
			compat += 0.2
		}
		if m.HasWeakness(tag) {
			compat -= 0.3
		}
	}

	return weightQuality*quality + weightCost*costScore + weightCompatibility*clamp01(compat)
}

func riskFor(qualityScore int) QualityRisk {
	switch {
	case qualityScore >= 85:
		return RiskLow
	case qualityScore >= 75:
		return RiskMedium
	default:
		return RiskHigh
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
