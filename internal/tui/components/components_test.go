package components

import (
	"strings"
	"testing"

	"github.com/Jrmromao/costlens/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := len(strings.Split(shortCard, "\n"))
	tallLines := len(strings.Split(tallCard, "\n"))

	if shortLines >= tallLines {
		t.Fatal("Test setup error: short card should be shorter than tall card")
	}

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")

	if len(lines) != tallLines {
		t.Errorf("Joined height should match tallest card: got %d, want %d", len(lines), tallLines)
	}

	// Padding lines after the short card ends must still carry styling,
	// otherwise they render as black squares on themed backgrounds.
	for i, line := range lines {
		if i >= shortLines && !strings.Contains(line, "\x1b[") {
			t.Errorf("Line %d has no ANSI codes", i)
		}
	}
}

func TestLayoutRowSumsExactly(t *testing.T) {
	for _, tc := range []struct {
		total, n int
	}{
		{120, 4},
		{121, 4},
		{123, 4},
		{80, 3},
		{7, 2},
	} {
		widths := LayoutRow(tc.total, tc.n)
		if len(widths) != tc.n {
			t.Fatalf("LayoutRow(%d, %d) returned %d widths", tc.total, tc.n, len(widths))
		}
		sum := 0
		for _, w := range widths {
			sum += w
		}
		if sum != tc.total {
			t.Errorf("LayoutRow(%d, %d) sums to %d", tc.total, tc.n, sum)
		}
	}
}

func TestColorForPctThresholds(t *testing.T) {
	theme.SetActive("flexoki-dark")
	th := theme.Active

	cases := []struct {
		pct  float64
		want string
	}{
		{0.10, string(th.Green)},
		{0.50, string(th.Yellow)},
		{0.80, string(th.Orange)}, // near-limit warning threshold
		{1.00, string(th.Red)},
		{1.50, string(th.Red)},
	}
	for _, tc := range cases {
		if got := ColorForPct(tc.pct); got != tc.want {
			t.Errorf("ColorForPct(%.2f) = %s, want %s", tc.pct, got, tc.want)
		}
	}
}

func TestBudgetBarShowsAmounts(t *testing.T) {
	theme.SetActive("terminal")

	bar := BudgetBar("This month", 1.10, 1.25, 12, 20)
	if !strings.Contains(bar, "$1.10 / $1.25") {
		t.Errorf("budget bar missing amounts: %q", bar)
	}
	if !strings.Contains(bar, "88%") {
		t.Errorf("budget bar missing percentage: %q", bar)
	}
}

func TestTabIdxByKey(t *testing.T) {
	if idx := TabIdxByKey('o'); idx != 0 {
		t.Errorf("TabIdxByKey('o') = %d, want 0", idx)
	}
	if idx := TabIdxByKey('x'); idx != len(Tabs)-1 {
		t.Errorf("TabIdxByKey('x') = %d, want %d", idx, len(Tabs)-1)
	}
	if idx := TabIdxByKey('z'); idx != -1 {
		t.Errorf("TabIdxByKey('z') = %d, want -1", idx)
	}
}

func TestDollarAxisLabel(t *testing.T) {
	cases := []struct {
		v    float64
		want string
	}{
		{0.05, "$0.05"},
		{0.25, "$0.25"},
		{1, "$1"},
		{12.5, "$12.5"},
		{500, "$500"},
		{1000, "$1k"},
		{1250, "$1.2k"},
	}
	for _, tc := range cases {
		if got := dollarAxisLabel(tc.v); got != tc.want {
			t.Errorf("dollarAxisLabel(%v) = %q, want %q", tc.v, got, tc.want)
		}
	}
}

func TestBarChartAxisIsDollarDenominated(t *testing.T) {
	theme.SetActive("flexoki-dark")

	chart := BarChart([]float64{0.5, 1.0, 2.5}, []string{"01", "02", "03"}, lipgloss.Color("#00ff00"), 40, 8)
	if !strings.Contains(chart, "$0") {
		t.Errorf("bar chart missing dollar origin label:\n%s", chart)
	}
	if !strings.Contains(chart, "$") {
		t.Errorf("bar chart Y axis not dollar denominated:\n%s", chart)
	}
}

func TestBarChartFallsBackToSparklineWhenCramped(t *testing.T) {
	theme.SetActive("flexoki-dark")

	got := BarChart([]float64{1, 2, 3}, nil, lipgloss.Color("#00ff00"), 10, 2)
	want := Sparkline([]float64{1, 2, 3}, lipgloss.Color("#00ff00"))
	if got != want {
		t.Errorf("cramped bar chart should render the sparkline")
	}
}
