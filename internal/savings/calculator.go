// Package savings aggregates realized savings from completed prompt runs.
package savings

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Jrmromao/costlens/internal/catalog"
	"github.com/Jrmromao/costlens/internal/model"
	"github.com/Jrmromao/costlens/internal/store"
)

// summaryDays is the default lookback window for Summary.
const summaryDays = 30

// RunStore is the slice of the ledger the calculator reads from.
// *store.Ledger satisfies it.
type RunStore interface {
	RunsInRange(ctx context.Context, userID string, start, end time.Time) ([]model.PromptRun, error)
	CacheHitTokens(ctx context.Context, userID string, start, end time.Time) (store.UsageTotals, error)
}

// Calculator computes savings summaries over stored prompt runs.
type Calculator struct {
	store RunStore
	cat   *catalog.Catalog
	now   func() time.Time
}

// NewCalculator builds a calculator over the given ledger and catalog.
func NewCalculator(st RunStore, cat *catalog.Catalog) *Calculator {
	return &Calculator{store: st, cat: cat, now: time.Now}
}

// Range aggregates savings for a user over [start, end).
//
// Smart-routing savings are the stored per-run deltas for runs that switched
// models; runs that saved money without switching count as optimization.
// Caching savings value cache-hit tokens at the metered ledger rate.
func (c *Calculator) Range(ctx context.Context, userID string, start, end time.Time) (model.SavingsSummary, error) {
	runs, err := c.store.RunsInRange(ctx, userID, start, end)
	if err != nil {
		return model.SavingsSummary{}, fmt.Errorf("loading runs: %w", err)
	}

	var s model.SavingsSummary
	for _, run := range runs {
		if run.Savings > 0 {
			if run.Model != run.RequestedModel {
				s.SmartRouting += run.Savings
			} else {
				s.Optimization += run.Savings
			}
		}
		s.ActualCost += run.Cost
		s.BaselineCost += c.cat.BaselineCost(run.RequestedModel, run.Model, run.TokensUsed)
	}

	hits, err := c.store.CacheHitTokens(ctx, userID, start, end)
	if err != nil {
		return model.SavingsSummary{}, fmt.Errorf("loading cache hits: %w", err)
	}
	s.Caching = c.cat.MeteredCost(hits.InputTokens, hits.OutputTokens)

	if s.BaselineCost > 0 {
		s.SavingsRate = (s.BaselineCost - s.ActualCost) / s.BaselineCost * 100
	}
	s.TotalSaved = s.SmartRouting + s.Caching + s.Optimization
	return s, nil
}

// Today aggregates savings for the current UTC day.
func (c *Calculator) Today(ctx context.Context, userID string) (model.SavingsSummary, error) {
	now := c.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return c.Range(ctx, userID, start, start.AddDate(0, 0, 1))
}

// Summary aggregates savings over the trailing 30 days.
func (c *Calculator) Summary(ctx context.Context, userID string) (model.SavingsSummary, error) {
	now := c.now().UTC()
	return c.Range(ctx, userID, now.AddDate(0, 0, -summaryDays), now)
}

// Daily returns a per-day savings series for the trailing window, oldest
// first. Days without runs appear as zero entries so charts stay continuous.
func (c *Calculator) Daily(ctx context.Context, userID string, days int) ([]model.DailySavings, error) {
	if days <= 0 {
		days = summaryDays
	}
	now := c.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(days - 1))

	runs, err := c.store.RunsInRange(ctx, userID, start, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("loading runs: %w", err)
	}

	series := make([]model.DailySavings, days)
	for i := range series {
		series[i].Date = start.AddDate(0, 0, i)
	}
	for _, run := range runs {
		day := run.CreatedAt.UTC()
		idx := int(time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC).Sub(start).Hours() / 24)
		if idx < 0 || idx >= days {
			continue
		}
		series[idx].Saved += run.Savings
		series[idx].Cost += run.Cost
		series[idx].Runs++
	}
	return series, nil
}

// ROI returns the return on investment as a whole percentage, rounded to
// the nearest integer. Zero cost yields zero, never NaN or Inf.
func ROI(savings, cost float64) float64 {
	if cost == 0 {
		return 0
	}
	return math.Round((savings - cost) / cost * 100)
}

// BaselineCost prices a run of the given size at the requested model's
// blended rate.
func (c *Calculator) BaselineCost(requestedModel, actualModel string, tokens int64) float64 {
	return c.cat.BaselineCost(requestedModel, actualModel, tokens)
}
