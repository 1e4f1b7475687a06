package billing

import (
	"encoding/json"
	"time"
)

// Account is one provider billing account visible to the API key.
type Account struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// SpendResponse is the raw spend report for an account.
// Amounts can arrive as numbers or strings ("12.34", "$12.34") depending on
// the provider, so they are kept as raw JSON until parsed.
type SpendResponse struct {
	TotalUSD    json.RawMessage            `json:"total_usd"`
	ByModel     map[string]json.RawMessage `json:"by_model,omitempty"`
	PeriodStart *string                    `json:"period_start,omitempty"`
	PeriodEnd   *string                    `json:"period_end,omitempty"`
}

// ParsedSpend is a normalized spend report.
type ParsedSpend struct {
	TotalUSD    float64
	ByModel     map[string]float64
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// ActualsData aggregates billed actuals for display against ledger estimates.
// Partial data is possible; Error carries the first failure.
type ActualsData struct {
	Account   Account
	Spend     *ParsedSpend
	FetchedAt time.Time
	Error     error
}
