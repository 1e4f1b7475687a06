// Package catalog defines the model capability table and pricing used by
// routing and cost accounting.
//
// The capability table is static configuration defined in code. Callers get
// their own *Catalog via Default() and pass it explicitly; nothing in this
// package holds process-wide mutable state.
package catalog

import "sort"

// Task tags used in strengths/weaknesses and prompt analysis.
const (
	TaskCode        = "code"
	TaskWriting     = "writing"
	TaskAnalysis    = "analysis"
	TaskMath        = "math"
	TaskTranslation = "translation"
	TaskSimple      = "simple"

	// WeaknessReasoning marks models that degrade on multi-step reasoning.
	WeaknessReasoning = "complex_reasoning"
)

// SafeDefaultModel is the fallback when no candidate survives filtering.
const SafeDefaultModel = "deepseek-chat"

// budgetCostCeiling is the per-1M blended rate under which a model counts
// as a budget model for hard-cap purposes.
const budgetCostCeiling = 1.0

// Capability describes one routable model.
type Capability struct {
	Model               string
	Provider            string
	CostPer1M           float64 // blended USD per 1M tokens, used for routing economics
	QualityScore        int     // 0-100
	Strengths           []string
	Weaknesses          []string
	ComplexityThreshold float64 // 0.0-1.0; prompts above this are filtered out
}

// HasStrength reports whether the model lists the given task tag as a strength.
func (c Capability) HasStrength(tag string) bool {
	return containsTag(c.Strengths, tag)
}

// HasWeakness reports whether the model lists the given task tag as a weakness.
func (c Capability) HasWeakness(tag string) bool {
	return containsTag(c.Weaknesses, tag)
}

// IsBudget reports whether the model is cheap enough to be forced under a
// near-limit budget cap.
func (c Capability) IsBudget() bool {
	return c.CostPer1M <= budgetCostCeiling
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Catalog holds the capability table and pricing for a set of models.
type Catalog struct {
	models []Capability
	index  map[string]int
	rates  map[string]Rate
}

// New builds a catalog from an explicit capability table and rate map.
// Models are kept sorted by id so iteration order (and therefore routing
// tie-breaks) is deterministic.
func New(models []Capability, rates map[string]Rate) *Catalog {
	sorted := make([]Capability, len(models))
	copy(sorted, models)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Model < sorted[j].Model
	})

	idx := make(map[string]int, len(sorted))
	for i, m := range sorted {
		idx[m.Model] = i
	}

	r := make(map[string]Rate, len(rates))
	for k, v := range rates {
		r[k] = v
	}

	return &Catalog{models: sorted, index: idx, rates: r}
}

// Default returns a catalog with the built-in capability table and rates.
func Default() *Catalog {
	return New(defaultCapabilities, defaultRates)
}

// Lookup returns the capability entry for a model id.
func (c *Catalog) Lookup(name string) (Capability, bool) {
	i, ok := c.index[name]
	if !ok {
		return Capability{}, false
	}
	return c.models[i], true
}

// All returns the capability table in model-id order.
func (c *Catalog) All() []Capability {
	out := make([]Capability, len(c.models))
	copy(out, c.models)
	return out
}

// Cheapest returns the lowest-cost model in the table.
func (c *Catalog) Cheapest() Capability {
	best := c.models[0]
	for _, m := range c.models[1:] {
		if m.CostPer1M < best.CostPer1M {
			best = m
		}
	}
	return best
}

// BudgetModel returns the mid-tier budget model forced when a user is
// approaching their monthly limit.
func (c *Catalog) BudgetModel() Capability {
	if m, ok := c.Lookup(SafeDefaultModel); ok {
		return m
	}
	return c.Cheapest()
}

// defaultCapabilities is the built-in capability table.
//
// QualityScore and ComplexityThreshold are hand-tuned routing inputs, not
// benchmark results. Blended CostPer1M assumes a typical 3:1 input:output mix.
var defaultCapabilities = []Capability{
	{
		Model: "gpt-4-turbo", Provider: "openai",
		CostPer1M: 20.00, QualityScore: 95,
		Strengths:           []string{TaskCode, TaskAnalysis, TaskMath},
		ComplexityThreshold: 1.0,
	},
	{
		Model: "gpt-4o", Provider: "openai",
		CostPer1M: 12.50, QualityScore: 93,
		Strengths:           []string{TaskCode, TaskAnalysis, TaskWriting},
		ComplexityThreshold: 1.0,
	},
	{
		Model: "claude-3-opus", Provider: "anthropic",
		CostPer1M: 45.00, QualityScore: 96,
		Strengths:           []string{TaskWriting, TaskAnalysis, TaskMath},
		ComplexityThreshold: 1.0,
	},
	{
		Model: "claude-3-5-sonnet", Provider: "anthropic",
		CostPer1M: 9.00, QualityScore: 92,
		Strengths:           []string{TaskCode, TaskWriting, TaskAnalysis},
		ComplexityThreshold: 0.9,
	},
	{
		Model: "gpt-3.5-turbo", Provider: "openai",
		CostPer1M: 1.00, QualityScore: 78,
		Strengths:           []string{TaskSimple, TaskTranslation},
		Weaknesses:          []string{TaskMath, WeaknessReasoning},
		ComplexityThreshold: 0.6,
	},
	{
		Model: "mistral-7b-instruct", Provider: "mistral",
		CostPer1M: 0.25, QualityScore: 72,
		Strengths:           []string{TaskSimple},
		Weaknesses:          []string{TaskMath, TaskCode, WeaknessReasoning},
		ComplexityThreshold: 0.4,
	},
	{
		Model: "deepseek-chat", Provider: "deepseek",
		CostPer1M: 0.69, QualityScore: 82,
		Strengths:           []string{TaskSimple, TaskTranslation, TaskWriting},
		Weaknesses:          []string{WeaknessReasoning},
		ComplexityThreshold: 0.7,
	},
	{
		Model: "deepseek-coder-6.7b", Provider: "deepseek",
		CostPer1M: 0.14, QualityScore: 75,
		Strengths:           []string{TaskCode, TaskSimple},
		Weaknesses:          []string{TaskWriting, TaskMath, WeaknessReasoning},
		ComplexityThreshold: 0.5,
	},
}
