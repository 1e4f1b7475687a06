package catalog

import (
	"math"
	"testing"
)

func TestDefaultTableInvariants(t *testing.T) {
	c := Default()

	for _, m := range c.All() {
		if m.QualityScore < 0 || m.QualityScore > 100 {
			t.Errorf("%s: QualityScore = %d, want 0-100", m.Model, m.QualityScore)
		}
		if m.ComplexityThreshold < 0 || m.ComplexityThreshold > 1 {
			t.Errorf("%s: ComplexityThreshold = %.2f, want 0-1", m.Model, m.ComplexityThreshold)
		}
		if m.CostPer1M <= 0 {
			t.Errorf("%s: CostPer1M = %.2f, want > 0", m.Model, m.CostPer1M)
		}
		if _, ok := c.Rate(m.Model); !ok {
			t.Errorf("%s: no rate entry for capability table model", m.Model)
		}
	}
}

func TestCheapestAndBudgetModels(t *testing.T) {
	c := Default()

	if got := c.Cheapest().Model; got != "deepseek-coder-6.7b" {
		t.Fatalf("Cheapest() = %q, want deepseek-coder-6.7b", got)
	}
	if got := c.BudgetModel().Model; got != "deepseek-chat" {
		t.Fatalf("BudgetModel() = %q, want deepseek-chat", got)
	}
	if !c.BudgetModel().IsBudget() {
		t.Fatal("budget model does not classify as budget")
	}
	if m, _ := c.Lookup("gpt-4-turbo"); m.IsBudget() {
		t.Fatal("gpt-4-turbo unexpectedly classifies as budget")
	}
}

func TestAllIsSortedByModelID(t *testing.T) {
	c := Default()
	models := c.All()
	for i := 1; i < len(models); i++ {
		if models[i-1].Model >= models[i].Model {
			t.Fatalf("table not sorted: %q before %q", models[i-1].Model, models[i].Model)
		}
	}
}

func TestCallCost(t *testing.T) {
	c := Default()

	// deepseek-chat at $0.27 in / $1.10 out per 1M
	got := c.CallCost("deepseek-chat", 1_000_000, 1_000_000)
	if math.Abs(got-1.37) > 1e-9 {
		t.Fatalf("CallCost(deepseek-chat, 1M, 1M) = %.4f, want 1.37", got)
	}

	// Unknown models fall back to the default rate, never zero.
	if got := c.CallCost("no-such-model", 1000, 1000); got <= 0 {
		t.Fatalf("CallCost(unknown) = %.6f, want > 0", got)
	}
}

func TestBaselineCostMonotoneInTokens(t *testing.T) {
	c := Default()

	cases := []struct{ requested, actual string }{
		{"gpt-4-turbo", "deepseek-chat"},
		{"unknown-model", "deepseek-chat"},
		{"unknown-model", "also-unknown"},
	}

	for _, tc := range cases {
		prev := -1.0
		for _, tokens := range []int64{0, 1, 100, 10_000, 1_000_000, 50_000_000} {
			cost := c.BaselineCost(tc.requested, tc.actual, tokens)
			if cost < prev {
				t.Fatalf("BaselineCost(%s, %s, %d) = %.6f decreased from %.6f",
					tc.requested, tc.actual, tokens, cost, prev)
			}
			prev = cost
		}
	}
}

func TestOverrideRate(t *testing.T) {
	c := Default()
	c.OverrideRate("deepseek-chat", Rate{InputPerMTok: 1.00, OutputPerMTok: 2.00})

	got := c.CallCost("deepseek-chat", 1_000_000, 1_000_000)
	if math.Abs(got-3.00) > 1e-9 {
		t.Fatalf("CallCost after override = %.4f, want 3.00", got)
	}

	// Default() hands out independent rate maps.
	fresh := Default()
	if got := fresh.CallCost("deepseek-chat", 1_000_000, 1_000_000); math.Abs(got-1.37) > 1e-9 {
		t.Fatalf("override leaked into fresh catalog: %.4f", got)
	}
}
