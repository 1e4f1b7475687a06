package catalog

// Rate holds per-million-token prices for a model.
type Rate struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// MeteredModel is the rate applied when re-pricing ledger rows at read time.
//
// The usage ledger stores token counts but not the model that produced them,
// so monthly summaries price every row at this one model's rate. Historical
// costs are therefore wrong for any non-deepseek call and shift retroactively
// if this rate is edited. Preserved as-is pending product sign-off on storing
// model and cost per row.
const MeteredModel = "deepseek-chat"

// defaultBaselinePerMTok prices baseline cost for models missing from the
// baseline table.
const defaultBaselinePerMTok = 10.00

// defaultRates maps model ids to their per-1M-token prices.
var defaultRates = map[string]Rate{
	"gpt-4-turbo":         {InputPerMTok: 10.00, OutputPerMTok: 30.00},
	"gpt-4o":              {InputPerMTok: 5.00, OutputPerMTok: 15.00},
	"claude-3-opus":       {InputPerMTok: 15.00, OutputPerMTok: 75.00},
	"claude-3-5-sonnet":   {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"gpt-3.5-turbo":       {InputPerMTok: 0.50, OutputPerMTok: 1.50},
	"mistral-7b-instruct": {InputPerMTok: 0.10, OutputPerMTok: 0.40},
	"deepseek-chat":       {InputPerMTok: 0.27, OutputPerMTok: 1.10},
	"deepseek-coder-6.7b": {InputPerMTok: 0.07, OutputPerMTok: 0.21},
}

// Rate returns the per-1M pricing for a model and whether it was found.
func (c *Catalog) Rate(model string) (Rate, bool) {
	r, ok := c.rates[model]
	return r, ok
}

// OverrideRate replaces the pricing for one model. Used by config-file
// pricing overrides before the catalog is handed to services.
func (c *Catalog) OverrideRate(model string, r Rate) {
	c.rates[model] = r
}

// CallCost computes the USD cost of a single call. Unknown models are priced
// at the blended default baseline rate so cost is never silently zero.
func (c *Catalog) CallCost(model string, inputTokens, outputTokens int64) float64 {
	r, ok := c.rates[model]
	if !ok {
		return float64(inputTokens+outputTokens) * defaultBaselinePerMTok / 1_000_000
	}
	cost := float64(inputTokens) * r.InputPerMTok / 1_000_000
	cost += float64(outputTokens) * r.OutputPerMTok / 1_000_000
	return cost
}

// MeteredCost prices token counts at the metered model rate. This is the
// read-time valuation applied to ledger rows (see MeteredModel).
func (c *Catalog) MeteredCost(inputTokens, outputTokens int64) float64 {
	return c.CallCost(MeteredModel, inputTokens, outputTokens)
}

// BaselineRate returns the blended per-1M rate used for baseline cost
// comparisons, falling back to the default rate for unknown models.
func (c *Catalog) BaselineRate(model string) float64 {
	if m, ok := c.Lookup(model); ok {
		return m.CostPer1M
	}
	return defaultBaselinePerMTok
}

// BaselineCost computes what a call of the given size would have cost at the
// requested model's blended rate. When the requested model is unknown the
// actual model's rate is tried before the default rate, so the figure stays
// monotone in tokens either way.
func (c *Catalog) BaselineCost(requestedModel, actualModel string, tokens int64) float64 {
	rate := defaultBaselinePerMTok
	if m, ok := c.Lookup(requestedModel); ok {
		rate = m.CostPer1M
	} else if m, ok := c.Lookup(actualModel); ok {
		rate = m.CostPer1M
	}
	return float64(tokens) * rate / 1_000_000
}
