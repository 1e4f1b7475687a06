package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Jrmromao/costlens/internal/cli"
	"github.com/Jrmromao/costlens/internal/model"
	"github.com/Jrmromao/costlens/internal/savings"
	"github.com/Jrmromao/costlens/internal/tui/components"
	"github.com/Jrmromao/costlens/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	sum := a.data.Summary
	sav := a.data.Savings
	var b strings.Builder

	// Row 1: Metric cards
	budgetDelta := cli.FormatBudget(sum.TotalCostUSD, sum.MonthlyLimit)
	switch {
	case sum.IsOverLimit:
		budgetDelta += " · over limit"
	case sum.IsNearLimit:
		budgetDelta += " · near limit"
	}

	roi := savings.ROI(sav.TotalSaved, sav.ActualCost)

	cards := []struct{ Label, Value, Delta string }{
		{"This Month", cli.FormatCost(sum.TotalCostUSD), budgetDelta},
		{"Credits", cli.FormatCredits(sum.TotalCredits), fmt.Sprintf("%d calls", sum.APICallCount)},
		{"Saved (30d)", cli.FormatCost(sav.TotalSaved), cli.FormatPercent(sav.SavingsRate/100) + " of baseline"},
		{"ROI (30d)", fmt.Sprintf("%.0f%%", roi), "savings vs actual spend"},
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Row 2: Budget gauge
	gaugeW := components.CardInnerWidth(cw) - 40
	if gaugeW < 20 {
		gaugeW = 20
	}
	gauge := components.BudgetBar("Monthly budget", sum.TotalCostUSD, sum.MonthlyLimit, 14, gaugeW)
	b.WriteString(components.ContentCard("Budget", gauge, cw))
	b.WriteString("\n")

	// Row 3: Daily savings chart
	if len(a.data.Daily) > 0 {
		vals := make([]float64, len(a.data.Daily))
		labels := make([]string, len(a.data.Daily))
		for i, d := range a.data.Daily {
			vals[i] = d.Saved
			labels[i] = d.Date.Format("01/02")
		}
		b.WriteString(components.ContentCard(
			fmt.Sprintf("Daily Savings (%dd)", a.days),
			components.BarChart(vals, labels, t.Green, components.CardInnerWidth(cw), 10),
			cw,
		))
		b.WriteString("\n")
	}

	// Row 4: Spend by model + routing switch summary
	halves := components.LayoutRow(cw, 2)
	modelCard := components.ContentCard("Spend by Model",
		renderModelSplit(a.data.Runs, components.CardInnerWidth(halves[0])), halves[0])
	routeCard := components.ContentCard("Routing",
		renderRoutingSummary(a.data.Runs, components.CardInnerWidth(halves[1])), halves[1])

	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Spend by Model",
			renderModelSplit(a.data.Runs, components.CardInnerWidth(cw)), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Routing",
			renderRoutingSummary(a.data.Runs, components.CardInnerWidth(cw)), cw))
	} else {
		b.WriteString(components.CardRow([]string{modelCard, routeCard}))
	}

	return b.String()
}

// modelSpend aggregates run cost per actual model.
func modelSpend(runs []model.PromptRun) []struct {
	Model string
	Cost  float64
} {
	byModel := make(map[string]float64)
	for _, r := range runs {
		byModel[r.Model] += r.Cost
	}
	out := make([]struct {
		Model string
		Cost  float64
	}, 0, len(byModel))
	for m, c := range byModel {
		out = append(out, struct {
			Model string
			Cost  float64
		}{m, c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cost != out[j].Cost {
			return out[i].Cost > out[j].Cost
		}
		return out[i].Model < out[j].Model
	})
	return out
}

func renderModelSplit(runs []model.PromptRun, innerW int) string {
	t := theme.Active
	split := modelSpend(runs)
	if len(split) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Render("No runs recorded yet.")
	}

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	barStyle := lipgloss.NewStyle().Foreground(t.Accent)
	costStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	limit := 6
	if len(split) < limit {
		limit = len(split)
	}
	maxCost := split[0].Cost

	nameW := innerW / 3
	if nameW < 12 {
		nameW = 12
	}
	barMax := innerW - nameW - 12
	if barMax < 1 {
		barMax = 1
	}

	var b strings.Builder
	for _, ms := range split[:limit] {
		barLen := 0
		if maxCost > 0 {
			barLen = int(ms.Cost / maxCost * float64(barMax))
		}
		fmt.Fprintf(&b, "%s %s %s\n",
			nameStyle.Render(fmt.Sprintf("%-*s", nameW, shortModel(ms.Model))),
			barStyle.Render(strings.Repeat("█", barLen)),
			costStyle.Render(cli.FormatCost(ms.Cost)))
	}
	return b.String()
}

func renderRoutingSummary(runs []model.PromptRun, innerW int) string {
	t := theme.Active
	if len(runs) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Render("No routed calls yet.")
	}

	switched := 0
	var saved float64
	for _, r := range runs {
		if r.Model != r.RequestedModel {
			switched++
		}
		saved += r.Savings
	}
	rate := float64(switched) / float64(len(runs))

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true)
	savStyle := lipgloss.NewStyle().Foreground(t.Green).Bold(true)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Calls routed     "), valStyle.Render(cli.FormatNumber(int64(len(runs)))))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Switched to cheaper"), valStyle.Render(fmt.Sprintf("%d (%s)", switched, cli.FormatPercent(rate))))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Saved by routing "), savStyle.Render(cli.FormatCost(saved)))
	return b.String()
}

// shortModel trims provider prefixes and long ids for narrow columns.
func shortModel(m string) string {
	if len(m) > 22 {
		return m[:19] + "…"
	}
	return m
}
