// Package model defines domain types for costlens usage, routing, and savings data.
package model

import "time"

// PlanType identifies a subscription tier with a monthly spend ceiling.
type PlanType string

// Known plan tiers.
const (
	PlanFree       PlanType = "FREE"
	PlanPro        PlanType = "PRO"
	PlanEnterprise PlanType = "ENTERPRISE"
)

// ParsePlan normalizes a plan string, defaulting to FREE for unknown values.
func ParsePlan(s string) PlanType {
	switch PlanType(s) {
	case PlanPro:
		return PlanPro
	case PlanEnterprise:
		return PlanEnterprise
	default:
		return PlanFree
	}
}

// UsageRecord represents one tracked API call.
//
// Model is used to price the call at write time but is NOT persisted on the
// ledger row; monthly summaries re-price stored token counts at read time
// against the metered model rate. See catalog.MeteredModel.
type UsageRecord struct {
	UserID       string
	PromptID     string
	Model        string
	InputTokens  int64
	OutputTokens int64
	CacheHit     bool
	CreatedAt    time.Time
}

// FeedbackRecord is one post-hoc quality rating for a routed response.
// Append-only; never mutated or deleted.
type FeedbackRecord struct {
	UserID        string
	OriginalModel string
	SelectedModel string
	QualityRating int // 1-5
	WasHelpful    bool
	CreatedAt     time.Time
}

// PromptRun is one completed AI call with its run-time cost accounting.
// Savings is the requested-model-cost minus actual-model-cost, computed
// when the run finished and stored verbatim.
type PromptRun struct {
	UserID         string
	Model          string
	RequestedModel string
	InputTokens    int64
	OutputTokens   int64
	TokensUsed     int64
	Cost           float64
	Savings        float64
	CreatedAt      time.Time
}

// MonthlyCostSummary is the derived spend state for one user in the current
// calendar month. Rebuilt from ledger rows; cached briefly, never persisted.
type MonthlyCostSummary struct {
	UserID          string
	MonthStart      time.Time
	TotalCostUSD    float64
	TotalCredits    float64 // 1 credit = $0.01
	APICallCount    int
	ByModel         map[string]float64
	IsNearLimit     bool
	IsOverLimit     bool
	RemainingBudget float64
	MonthlyLimit    float64
}

// SavingsSummary aggregates savings over a date range for display.
type SavingsSummary struct {
	SmartRouting float64
	Caching      float64
	Optimization float64
	BaselineCost float64
	ActualCost   float64
	SavingsRate  float64 // percent
	TotalSaved   float64
}

// DailySavings is one day's slice of the savings series.
type DailySavings struct {
	Date  time.Time
	Saved float64
	Cost  float64
	Runs  int
}

// UserSpend reports one user's month-to-date spend against their limit.
// FracUsed is a 0..1 fraction of the ceiling, not a percentage.
type UserSpend struct {
	UserID       string
	TotalCostUSD float64
	MonthlyLimit float64
	FracUsed     float64
}

// PlatformCosts is the platform-wide spend aggregate for a date range.
type PlatformCosts struct {
	Start        time.Time
	End          time.Time
	TotalCostUSD float64
	TotalTokens  int64
	APICallCount int
	UserCount    int
}
