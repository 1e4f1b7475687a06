package tracking

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Jrmromao/costlens/internal/catalog"
	"github.com/Jrmromao/costlens/internal/config"
	"github.com/Jrmromao/costlens/internal/model"
	"github.com/Jrmromao/costlens/internal/store"
)

// fakeStore is an in-memory UsageStore that counts reads.
type fakeStore struct {
	totals       store.UsageTotals
	users        []store.UserTotals
	err          error
	monthlyCalls int
	inserted     []model.UsageRecord
}

func (f *fakeStore) InsertUsage(_ context.Context, rec model.UsageRecord) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, rec)
	return nil
}

func (f *fakeStore) MonthlyUsage(_ context.Context, _ string, _, _ time.Time) (store.UsageTotals, error) {
	f.monthlyCalls++
	if f.err != nil {
		return store.UsageTotals{}, f.err
	}
	return f.totals, nil
}

func (f *fakeStore) UserMonthTotals(_ context.Context, _, _ time.Time) ([]store.UserTotals, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users, nil
}

func (f *fakeStore) PlatformTotals(_ context.Context, _, _ time.Time) (store.UsageTotals, int, error) {
	if f.err != nil {
		return store.UsageTotals{}, 0, f.err
	}
	return f.totals, len(f.users), nil
}

func newTestTracker(fs *fakeStore) (*Tracker, *time.Time) {
	at := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	t := NewTracker(fs, catalog.Default(), config.DefaultPlanLimits())
	t.now = func() time.Time { return at }
	return t, &at
}

// usage mirroring 80 calls of 10k input and 10k output tokens each:
// $1.096 at the metered rate, 87.7% of the FREE ceiling.
func nearLimitTotals() store.UsageTotals {
	return store.UsageTotals{InputTokens: 800_000, OutputTokens: 800_000, CallCount: 80}
}

// 1000 such calls: $13.70, well past the FREE ceiling.
func overLimitTotals() store.UsageTotals {
	return store.UsageTotals{InputTokens: 10_000_000, OutputTokens: 10_000_000, CallCount: 1000}
}

func TestUserMonthlyCostPricesAtMeteredRate(t *testing.T) {
	fs := &fakeStore{totals: nearLimitTotals()}
	tr, _ := newTestTracker(fs)

	s, err := tr.UserMonthlyCost(context.Background(), "u1", model.PlanFree)
	if err != nil {
		t.Fatalf("UserMonthlyCost: %v", err)
	}
	if math.Abs(s.TotalCostUSD-1.096) > 1e-9 {
		t.Fatalf("TotalCostUSD = %v, want 1.096", s.TotalCostUSD)
	}
	if math.Abs(s.TotalCredits-109.6) > 1e-9 {
		t.Fatalf("TotalCredits = %v, want 109.6", s.TotalCredits)
	}
	if s.APICallCount != 80 {
		t.Fatalf("APICallCount = %d, want 80", s.APICallCount)
	}
	if got := s.ByModel[catalog.MeteredModel]; math.Abs(got-1.096) > 1e-9 {
		t.Fatalf("ByModel[%s] = %v, want full spend", catalog.MeteredModel, got)
	}
	if !s.IsNearLimit || s.IsOverLimit {
		t.Fatalf("flags near=%v over=%v, want near only", s.IsNearLimit, s.IsOverLimit)
	}
	if math.Abs(s.RemainingBudget-(1.25-1.096)) > 1e-9 {
		t.Fatalf("RemainingBudget = %v", s.RemainingBudget)
	}
}

func TestUserMonthlyCostOverLimit(t *testing.T) {
	fs := &fakeStore{totals: overLimitTotals()}
	tr, _ := newTestTracker(fs)

	s, err := tr.UserMonthlyCost(context.Background(), "u1", model.PlanFree)
	if err != nil {
		t.Fatalf("UserMonthlyCost: %v", err)
	}
	if !s.IsOverLimit {
		t.Fatal("IsOverLimit = false, want true at $13.70 vs $1.25")
	}
	if s.IsNearLimit {
		t.Fatal("IsNearLimit should be false once over the limit")
	}
	if s.RemainingBudget != 0 {
		t.Fatalf("RemainingBudget = %v, want 0", s.RemainingBudget)
	}
}

func TestUserMonthlyCostCachesFor60s(t *testing.T) {
	fs := &fakeStore{totals: nearLimitTotals()}
	tr, at := newTestTracker(fs)
	ctx := context.Background()

	if _, err := tr.UserMonthlyCost(ctx, "u1", model.PlanFree); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.UserMonthlyCost(ctx, "u1", model.PlanFree); err != nil {
		t.Fatal(err)
	}
	if fs.monthlyCalls != 1 {
		t.Fatalf("monthlyCalls = %d, want 1 (second read served from cache)", fs.monthlyCalls)
	}

	*at = at.Add(61 * time.Second)
	if _, err := tr.UserMonthlyCost(ctx, "u1", model.PlanFree); err != nil {
		t.Fatal(err)
	}
	if fs.monthlyCalls != 2 {
		t.Fatalf("monthlyCalls = %d, want 2 after TTL expiry", fs.monthlyCalls)
	}
}

func TestTrackInvalidatesCache(t *testing.T) {
	fs := &fakeStore{totals: nearLimitTotals()}
	tr, _ := newTestTracker(fs)
	ctx := context.Background()

	if _, err := tr.UserMonthlyCost(ctx, "u1", model.PlanFree); err != nil {
		t.Fatal(err)
	}
	cost, err := tr.Track(ctx, model.UsageRecord{
		UserID: "u1", Model: "gpt-4o", InputTokens: 1_000_000, OutputTokens: 1_000_000,
	})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	// Write-time cost uses the actual model's rate, not the metered rate.
	if math.Abs(cost-20.0) > 1e-9 {
		t.Fatalf("cost = %v, want 20.00 at gpt-4o rates", cost)
	}
	if len(fs.inserted) != 1 || fs.inserted[0].CreatedAt.IsZero() {
		t.Fatalf("inserted = %+v", fs.inserted)
	}

	if _, err := tr.UserMonthlyCost(ctx, "u1", model.PlanFree); err != nil {
		t.Fatal(err)
	}
	if fs.monthlyCalls != 2 {
		t.Fatalf("monthlyCalls = %d, want recompute after Track", fs.monthlyCalls)
	}
}

func TestUserMonthlyCostPropagatesStoreErrors(t *testing.T) {
	fs := &fakeStore{err: errors.New("db locked")}
	tr, _ := newTestTracker(fs)

	if _, err := tr.UserMonthlyCost(context.Background(), "u1", model.PlanFree); err == nil {
		t.Fatal("want error from failing store, budget checks must fail closed")
	}
	if _, err := tr.CanAfford(context.Background(), "u1", "deepseek-chat", 1000, 1000, model.PlanFree); err == nil {
		t.Fatal("CanAfford must propagate store errors")
	}
}

func TestCanAfford(t *testing.T) {
	cases := []struct {
		name     string
		totals   store.UsageTotals
		model    string
		in, out  int64
		allowed  bool
		positive bool
	}{
		{"empty ledger", store.UsageTotals{}, "deepseek-chat", 1000, 1000, true, true},
		{"near limit but fits", nearLimitTotals(), "deepseek-chat", 1000, 1000, true, true},
		{"near limit does not fit", nearLimitTotals(), "claude-3-opus", 10_000_000, 1_000_000, false, true},
		{"over limit", overLimitTotals(), "deepseek-chat", 10, 10, false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr, _ := newTestTracker(&fakeStore{totals: tc.totals})
			a, err := tr.CanAfford(context.Background(), "u1", tc.model, tc.in, tc.out, model.PlanFree)
			if err != nil {
				t.Fatalf("CanAfford: %v", err)
			}
			if a.Allowed != tc.allowed {
				t.Fatalf("Allowed = %v (reason %q), want %v", a.Allowed, a.Reason, tc.allowed)
			}
			if tc.positive && a.EstimatedCost <= 0 {
				t.Fatalf("EstimatedCost = %v, want > 0", a.EstimatedCost)
			}
			if !a.Allowed && a.Reason == "" {
				t.Fatal("denied check must carry a reason")
			}
		})
	}
}

func TestEnforceHardCapNearLimitForcesBudgetModel(t *testing.T) {
	tr, _ := newTestTracker(&fakeStore{totals: nearLimitTotals()})

	d, err := tr.EnforceHardCap(context.Background(), "u1", model.PlanFree, "gpt-4-turbo")
	if err != nil {
		t.Fatalf("EnforceHardCap: %v", err)
	}
	if d.Model != "deepseek-chat" || !d.Switched {
		t.Fatalf("decision = %+v, want switch to deepseek-chat", d)
	}

	// An already-budget request passes through.
	d, err = tr.EnforceHardCap(context.Background(), "u1", model.PlanFree, "mistral-7b-instruct")
	if err != nil {
		t.Fatal(err)
	}
	if d.Switched {
		t.Fatalf("budget model was switched: %+v", d)
	}
}

func TestEnforceHardCapOverLimitForcesCheapest(t *testing.T) {
	tr, _ := newTestTracker(&fakeStore{totals: overLimitTotals()})

	d, err := tr.EnforceHardCap(context.Background(), "u1", model.PlanFree, "gpt-4-turbo")
	if err != nil {
		t.Fatalf("EnforceHardCap: %v", err)
	}
	if d.Model != "deepseek-coder-6.7b" || !d.Switched {
		t.Fatalf("decision = %+v, want cheapest model", d)
	}
}

func TestEnforceHardCapUnderLimitKeepsRequest(t *testing.T) {
	tr, _ := newTestTracker(&fakeStore{totals: store.UsageTotals{InputTokens: 1000, OutputTokens: 1000, CallCount: 1}})

	d, err := tr.EnforceHardCap(context.Background(), "u1", model.PlanFree, "claude-3-opus")
	if err != nil {
		t.Fatal(err)
	}
	if d.Switched || d.Model != "claude-3-opus" {
		t.Fatalf("decision = %+v, want untouched request", d)
	}
}

func TestUsersApproachingLimit(t *testing.T) {
	fs := &fakeStore{users: []store.UserTotals{
		{UserID: "heavy", UsageTotals: nearLimitTotals()},
		{UserID: "light", UsageTotals: store.UsageTotals{InputTokens: 1000, OutputTokens: 1000, CallCount: 1}},
	}}
	tr, _ := newTestTracker(fs)

	got, err := tr.UsersApproachingLimit(context.Background(), 0.8)
	if err != nil {
		t.Fatalf("UsersApproachingLimit: %v", err)
	}
	if len(got) != 1 || got[0].UserID != "heavy" {
		t.Fatalf("got = %+v, want only heavy", got)
	}
	if got[0].FracUsed < 0.80 || got[0].FracUsed > 1.0 {
		t.Fatalf("FracUsed = %v, want ~0.877", got[0].FracUsed)
	}
	// The fraction feeds percent formatters directly; a 0..100 value here
	// would render as thousands of percent.
	if got[0].TotalCostUSD/got[0].MonthlyLimit != got[0].FracUsed {
		t.Fatalf("FracUsed = %v, want spend/limit fraction", got[0].FracUsed)
	}
}

func TestPlatformCosts(t *testing.T) {
	fs := &fakeStore{
		totals: store.UsageTotals{InputTokens: 2_000_000, OutputTokens: 1_000_000, CallCount: 10},
		users:  []store.UserTotals{{UserID: "u1"}, {UserID: "u2"}},
	}
	tr, at := newTestTracker(fs)

	got, err := tr.PlatformCosts(context.Background(), at.AddDate(0, 0, -7), *at)
	if err != nil {
		t.Fatalf("PlatformCosts: %v", err)
	}
	// 2M in + 1M out at the metered rate: 2*0.27 + 1*1.10.
	if math.Abs(got.TotalCostUSD-1.64) > 1e-9 {
		t.Fatalf("TotalCostUSD = %v, want 1.64", got.TotalCostUSD)
	}
	if got.TotalTokens != 3_000_000 || got.APICallCount != 10 || got.UserCount != 2 {
		t.Fatalf("aggregate = %+v", got)
	}
}
