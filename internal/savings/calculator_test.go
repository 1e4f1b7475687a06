package savings

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Jrmromao/costlens/internal/catalog"
	"github.com/Jrmromao/costlens/internal/model"
	"github.com/Jrmromao/costlens/internal/store"
)

type fakeRunStore struct {
	runs []model.PromptRun
	hits store.UsageTotals
	err  error
}

func (f *fakeRunStore) RunsInRange(_ context.Context, _ string, start, end time.Time) ([]model.PromptRun, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.PromptRun
	for _, r := range f.runs {
		if !r.CreatedAt.Before(start) && r.CreatedAt.Before(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRunStore) CacheHitTokens(_ context.Context, _ string, _, _ time.Time) (store.UsageTotals, error) {
	if f.err != nil {
		return store.UsageTotals{}, f.err
	}
	return f.hits, nil
}

func TestROI(t *testing.T) {
	cases := []struct {
		savings, cost, want float64
	}{
		{100, 9, 1011},
		{5, 9, -44},
		{10, 4, 150},
		{123, 0, 0},
		{0, 0, 0},
	}
	for _, tc := range cases {
		got := ROI(tc.savings, tc.cost)
		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Fatalf("ROI(%v, %v) = %v, want finite", tc.savings, tc.cost, got)
		}
		if math.Abs(got-tc.want) > 1e-6 {
			t.Fatalf("ROI(%v, %v) = %v, want %v", tc.savings, tc.cost, got, tc.want)
		}
	}
}

func TestRangeSplitsRoutingAndOptimization(t *testing.T) {
	at := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	fs := &fakeRunStore{
		runs: []model.PromptRun{
			// Switched run: routing savings.
			{Model: "deepseek-chat", RequestedModel: "gpt-4-turbo", TokensUsed: 1_000_000,
				Cost: 0.69, Savings: 19.31, CreatedAt: at},
			// Same-model run that still saved: optimization.
			{Model: "gpt-4o", RequestedModel: "gpt-4o", TokensUsed: 100_000,
				Cost: 1.25, Savings: 0.40, CreatedAt: at},
		},
		hits: store.UsageTotals{InputTokens: 1_000_000, OutputTokens: 0, CallCount: 3},
	}
	c := NewCalculator(fs, catalog.Default())

	s, err := c.Range(context.Background(), "u1", at.Add(-time.Hour), at.Add(time.Hour))
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if math.Abs(s.SmartRouting-19.31) > 1e-9 {
		t.Fatalf("SmartRouting = %v, want 19.31", s.SmartRouting)
	}
	if math.Abs(s.Optimization-0.40) > 1e-9 {
		t.Fatalf("Optimization = %v, want 0.40", s.Optimization)
	}
	// 1M cache-hit input tokens at the metered input rate.
	if math.Abs(s.Caching-0.27) > 1e-9 {
		t.Fatalf("Caching = %v, want 0.27", s.Caching)
	}
	if math.Abs(s.ActualCost-1.94) > 1e-9 {
		t.Fatalf("ActualCost = %v, want 1.94", s.ActualCost)
	}
	// Baselines: 1M at gpt-4-turbo blended 20.00 + 100k at gpt-4o blended 12.50.
	wantBaseline := 20.0 + 1.25
	if math.Abs(s.BaselineCost-wantBaseline) > 1e-9 {
		t.Fatalf("BaselineCost = %v, want %v", s.BaselineCost, wantBaseline)
	}
	wantRate := (wantBaseline - 1.94) / wantBaseline * 100
	if math.Abs(s.SavingsRate-wantRate) > 1e-9 {
		t.Fatalf("SavingsRate = %v, want %v", s.SavingsRate, wantRate)
	}
	if math.Abs(s.TotalSaved-(19.31+0.40+0.27)) > 1e-9 {
		t.Fatalf("TotalSaved = %v", s.TotalSaved)
	}
}

func TestRangeEmptyLedgerIsAllZero(t *testing.T) {
	c := NewCalculator(&fakeRunStore{}, catalog.Default())
	s, err := c.Range(context.Background(), "u1", time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if s.SavingsRate != 0 || s.TotalSaved != 0 || s.BaselineCost != 0 {
		t.Fatalf("summary = %+v, want zeroes with no divide-by-zero", s)
	}
}

func TestRangePropagatesStoreErrors(t *testing.T) {
	c := NewCalculator(&fakeRunStore{err: errors.New("db down")}, catalog.Default())
	if _, err := c.Range(context.Background(), "u1", time.Now().Add(-time.Hour), time.Now()); err == nil {
		t.Fatal("want store error to propagate")
	}
}

func TestBaselineCostMonotoneInTokens(t *testing.T) {
	c := NewCalculator(&fakeRunStore{}, catalog.Default())
	pairs := [][2]string{
		{"gpt-4-turbo", "deepseek-chat"},
		{"unknown-model", "deepseek-chat"},
		{"unknown-model", "also-unknown"},
	}
	for _, p := range pairs {
		prev := -1.0
		for _, tokens := range []int64{0, 1, 1000, 1_000_000, 50_000_000} {
			got := c.BaselineCost(p[0], p[1], tokens)
			if got < prev {
				t.Fatalf("BaselineCost(%s, %s, %d) = %v decreased from %v", p[0], p[1], tokens, got, prev)
			}
			prev = got
		}
	}
}

func TestDailyBucketsRunsByDay(t *testing.T) {
	now := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	fs := &fakeRunStore{
		runs: []model.PromptRun{
			{Model: "a", RequestedModel: "b", Cost: 1, Savings: 2, CreatedAt: now.AddDate(0, 0, -2)},
			{Model: "a", RequestedModel: "b", Cost: 3, Savings: 4, CreatedAt: now.AddDate(0, 0, -2).Add(time.Hour)},
			{Model: "a", RequestedModel: "b", Cost: 5, Savings: 6, CreatedAt: now},
		},
	}
	c := NewCalculator(fs, catalog.Default())
	c.now = func() time.Time { return now }

	series, err := c.Daily(context.Background(), "u1", 7)
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}
	if len(series) != 7 {
		t.Fatalf("len = %d, want 7", len(series))
	}
	if !series[0].Date.Before(series[6].Date) {
		t.Fatal("series must be oldest first")
	}

	twoAgo := series[4]
	if twoAgo.Runs != 2 || twoAgo.Cost != 4 || twoAgo.Saved != 6 {
		t.Fatalf("day -2 = %+v, want 2 runs, cost 4, saved 6", twoAgo)
	}
	today := series[6]
	if today.Runs != 1 || today.Cost != 5 {
		t.Fatalf("today = %+v", today)
	}
	if series[1].Runs != 0 {
		t.Fatalf("empty day carried runs: %+v", series[1])
	}
}

func TestTodayAndSummaryWindows(t *testing.T) {
	now := time.Date(2025, 6, 10, 23, 30, 0, 0, time.UTC)
	fs := &fakeRunStore{
		runs: []model.PromptRun{
			{Model: "a", RequestedModel: "b", Cost: 1, Savings: 1, TokensUsed: 1, CreatedAt: now.Add(-time.Hour)},
			{Model: "a", RequestedModel: "b", Cost: 1, Savings: 1, TokensUsed: 1, CreatedAt: now.AddDate(0, 0, -3)},
			{Model: "a", RequestedModel: "b", Cost: 1, Savings: 1, TokensUsed: 1, CreatedAt: now.AddDate(0, 0, -45)},
		},
	}
	c := NewCalculator(fs, catalog.Default())
	c.now = func() time.Time { return now }

	today, err := c.Today(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if today.ActualCost != 1 {
		t.Fatalf("Today cost = %v, want only today's run", today.ActualCost)
	}

	sum, err := c.Summary(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.ActualCost != 2 {
		t.Fatalf("Summary cost = %v, want 2 runs inside 30d", sum.ActualCost)
	}
}
