package tui

import (
	"fmt"
	"strings"

	"github.com/Jrmromao/costlens/internal/cli"
	"github.com/Jrmromao/costlens/internal/savings"
	"github.com/Jrmromao/costlens/internal/tui/components"
	"github.com/Jrmromao/costlens/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderSavingsTab(cw int) string {
	t := theme.Active
	sav := a.data.Savings
	var b strings.Builder

	// Row 1: Savings split by mechanism
	cards := []struct{ Label, Value, Delta string }{
		{"Smart Routing", cli.FormatCost(sav.SmartRouting), "cheaper model picked"},
		{"Caching", cli.FormatCost(sav.Caching), "cache-hit tokens"},
		{"Optimization", cli.FormatCost(sav.Optimization), "prompt-level wins"},
		{"Total Saved", cli.FormatCost(sav.TotalSaved), "last 30 days"},
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Row 2: Baseline vs actual
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true)
	savStyle := lipgloss.NewStyle().Foreground(t.Green).Bold(true)

	var cmp strings.Builder
	fmt.Fprintf(&cmp, "%s %s   %s %s   %s %s\n",
		labelStyle.Render("Baseline"), valStyle.Render(cli.FormatCost(sav.BaselineCost)),
		labelStyle.Render("Actual"), valStyle.Render(cli.FormatCost(sav.ActualCost)),
		labelStyle.Render("Rate"), savStyle.Render(fmt.Sprintf("%.1f%%", sav.SavingsRate)))
	roi := savings.ROI(sav.TotalSaved, sav.ActualCost)
	fmt.Fprintf(&cmp, "%s %s",
		labelStyle.Render("ROI     "),
		savStyle.Render(fmt.Sprintf("%.0f%% — every $1 spent avoided $%.2f of baseline cost", roi, roi/100)))
	b.WriteString(components.ContentCard("Baseline vs Actual", cmp.String(), cw))
	b.WriteString("\n")

	// Row 3: Daily saved/cost chart
	if len(a.data.Daily) > 0 {
		vals := make([]float64, len(a.data.Daily))
		labels := make([]string, len(a.data.Daily))
		var runs int
		for i, d := range a.data.Daily {
			vals[i] = d.Saved
			labels[i] = d.Date.Format("01/02")
			runs += d.Runs
		}
		b.WriteString(components.ContentCard(
			fmt.Sprintf("Saved per Day (%dd, %d runs)", a.days, runs),
			components.BarChart(vals, labels, t.Green, components.CardInnerWidth(cw), 10),
			cw,
		))
		b.WriteString("\n")

		costVals := make([]float64, len(a.data.Daily))
		for i, d := range a.data.Daily {
			costVals[i] = d.Cost
		}
		spark := components.Sparkline(costVals, t.Orange)
		b.WriteString(components.ContentCard("Actual Cost Trend", spark, cw))
	} else {
		b.WriteString(components.ContentCard("Saved per Day",
			lipgloss.NewStyle().Foreground(t.TextDim).Render("No runs in this window yet."), cw))
	}

	return b.String()
}
