// Package tracking meters API usage against monthly plan budgets.
package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/Jrmromao/costlens/internal/catalog"
	"github.com/Jrmromao/costlens/internal/config"
	"github.com/Jrmromao/costlens/internal/model"
	"github.com/Jrmromao/costlens/internal/store"
)

// creditsPerUSD converts dollar spend to display credits (1 credit = $0.01).
const creditsPerUSD = 100

// UsageStore is the slice of the ledger the tracker needs. *store.Ledger
// satisfies it.
type UsageStore interface {
	InsertUsage(ctx context.Context, rec model.UsageRecord) error
	MonthlyUsage(ctx context.Context, userID string, start, end time.Time) (store.UsageTotals, error)
	UserMonthTotals(ctx context.Context, start, end time.Time) ([]store.UserTotals, error)
	PlatformTotals(ctx context.Context, start, end time.Time) (store.UsageTotals, int, error)
}

// Tracker records usage and answers budget questions for the current month.
type Tracker struct {
	store  UsageStore
	cat    *catalog.Catalog
	limits config.PlanLimits
	cache  SummaryCache
	now    func() time.Time

	// planFor maps a user to their plan tier. The default treats every
	// user as FREE; wire a billing lookup here when one exists.
	planFor func(userID string) model.PlanType
}

// NewTracker builds a tracker over the given ledger and plan limits.
func NewTracker(st UsageStore, cat *catalog.Catalog, limits config.PlanLimits) *Tracker {
	t := &Tracker{
		store:   st,
		cat:     cat,
		limits:  limits,
		now:     time.Now,
		planFor: func(string) model.PlanType { return model.PlanFree },
	}
	t.cache = NewMemoryCache(func() time.Time { return t.now() })
	return t
}

// SetPlanLookup replaces the user-to-plan mapping.
func (t *Tracker) SetPlanLookup(fn func(userID string) model.PlanType) {
	if fn != nil {
		t.planFor = fn
	}
}

// monthWindow returns [first of month, first of next month) around ts.
func monthWindow(ts time.Time) (time.Time, time.Time) {
	ts = ts.UTC()
	start := time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Track records one API call and returns its write-time cost, priced at the
// actual model's rate. The ledger row itself stores token counts only.
func (t *Tracker) Track(ctx context.Context, rec model.UsageRecord) (float64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = t.now().UTC()
	}
	cost := t.cat.CallCost(rec.Model, rec.InputTokens, rec.OutputTokens)

	if err := t.store.InsertUsage(ctx, rec); err != nil {
		return 0, fmt.Errorf("recording usage: %w", err)
	}
	t.cache.Invalidate(rec.UserID)
	return cost, nil
}

// UserMonthlyCost computes the user's current-month spend state. Results are
// cached briefly; ledger errors propagate so budget checks fail closed.
func (t *Tracker) UserMonthlyCost(ctx context.Context, userID string, plan model.PlanType) (model.MonthlyCostSummary, error) {
	if s, ok := t.cache.Get(userID); ok {
		return s, nil
	}

	start, end := monthWindow(t.now())
	totals, err := t.store.MonthlyUsage(ctx, userID, start, end)
	if err != nil {
		return model.MonthlyCostSummary{}, fmt.Errorf("monthly usage for %s: %w", userID, err)
	}

	cost := t.cat.MeteredCost(totals.InputTokens, totals.OutputTokens)
	limit := t.limits.LimitFor(plan)

	s := model.MonthlyCostSummary{
		UserID:       userID,
		MonthStart:   start,
		TotalCostUSD: cost,
		TotalCredits: cost * creditsPerUSD,
		APICallCount: totals.CallCount,
		ByModel:      map[string]float64{},
		MonthlyLimit: limit,
	}
	if cost > 0 {
		s.ByModel[catalog.MeteredModel] = cost
	}
	s.IsOverLimit = cost >= limit
	s.IsNearLimit = !s.IsOverLimit && cost >= limit*config.NearLimitFraction
	if remaining := limit - cost; remaining > 0 {
		s.RemainingBudget = remaining
	}

	t.cache.Set(userID, s)
	return s, nil
}

// Affordability is the answer to a pre-flight budget check.
type Affordability struct {
	Allowed         bool
	Reason          string
	EstimatedCost   float64
	RemainingBudget float64
}

// CanAfford reports whether a call of the given shape fits inside the user's
// remaining monthly budget. The estimate is priced at the named model's rate.
func (t *Tracker) CanAfford(ctx context.Context, userID, modelName string, inputTokens, outputTokens int64, plan model.PlanType) (Affordability, error) {
	s, err := t.UserMonthlyCost(ctx, userID, plan)
	if err != nil {
		return Affordability{}, err
	}
	estimatedCost := t.cat.CallCost(modelName, inputTokens, outputTokens)

	a := Affordability{
		EstimatedCost:   estimatedCost,
		RemainingBudget: s.RemainingBudget,
	}
	switch {
	case s.IsOverLimit:
		a.Reason = "monthly budget exhausted"
	case estimatedCost > s.RemainingBudget:
		a.Reason = "estimated cost exceeds remaining budget"
	default:
		a.Allowed = true
	}
	return a, nil
}

// CapDecision is the result of applying the budget hard cap to a request.
type CapDecision struct {
	Model    string
	Switched bool
	Reason   string
}

// EnforceHardCap downgrades the requested model when the user is near or
// over their monthly limit. Near-limit users get the budget model; over-limit
// users get the cheapest model in the catalog.
func (t *Tracker) EnforceHardCap(ctx context.Context, userID string, plan model.PlanType, requestedModel string) (CapDecision, error) {
	s, err := t.UserMonthlyCost(ctx, userID, plan)
	if err != nil {
		return CapDecision{}, err
	}

	d := CapDecision{Model: requestedModel}
	switch {
	case s.IsOverLimit:
		cheapest := t.cat.Cheapest()
		if requestedModel != cheapest.Model {
			d.Model = cheapest.Model
			d.Switched = true
			d.Reason = "monthly budget exhausted; forcing cheapest model"
		}
	case s.IsNearLimit:
		if m, ok := t.cat.Lookup(requestedModel); ok && m.IsBudget() {
			return d, nil
		}
		budget := t.cat.BudgetModel()
		if requestedModel != budget.Model {
			d.Model = budget.Model
			d.Switched = true
			d.Reason = "approaching monthly budget; forcing budget model"
		}
	}
	return d, nil
}

// UsersApproachingLimit returns users whose month-to-date spend is at or
// above the given fraction of their plan ceiling, sorted by user id.
func (t *Tracker) UsersApproachingLimit(ctx context.Context, threshold float64) ([]model.UserSpend, error) {
	start, end := monthWindow(t.now())
	rows, err := t.store.UserMonthTotals(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("scanning user totals: %w", err)
	}

	var out []model.UserSpend
	for _, r := range rows {
		limit := t.limits.LimitFor(t.planFor(r.UserID))
		if limit <= 0 {
			continue
		}
		cost := t.cat.MeteredCost(r.InputTokens, r.OutputTokens)
		if cost/limit < threshold {
			continue
		}
		out = append(out, model.UserSpend{
			UserID:       r.UserID,
			TotalCostUSD: cost,
			MonthlyLimit: limit,
			FracUsed:     cost / limit,
		})
	}
	return out, nil
}

// PlatformCosts aggregates spend across all users in [start, end), priced at
// the metered model rate like every other ledger read.
func (t *Tracker) PlatformCosts(ctx context.Context, start, end time.Time) (model.PlatformCosts, error) {
	totals, users, err := t.store.PlatformTotals(ctx, start, end)
	if err != nil {
		return model.PlatformCosts{}, fmt.Errorf("platform totals: %w", err)
	}
	return model.PlatformCosts{
		Start:        start,
		End:          end,
		TotalCostUSD: t.cat.MeteredCost(totals.InputTokens, totals.OutputTokens),
		TotalTokens:  totals.InputTokens + totals.OutputTokens,
		APICallCount: totals.CallCount,
		UserCount:    users,
	}, nil
}
