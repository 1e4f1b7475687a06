package tui

import (
	"fmt"
	"strings"

	"github.com/Jrmromao/costlens/internal/cli"
	"github.com/Jrmromao/costlens/internal/tui/components"
	"github.com/Jrmromao/costlens/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderCostsTab(cw int) string {
	t := theme.Active
	sum := a.data.Summary
	plat := a.data.Platform
	var b strings.Builder

	// Row 1: Platform metric cards for the selected window
	cards := []struct{ Label, Value, Delta string }{
		{"Platform Spend", cli.FormatCost(plat.TotalCostUSD), fmt.Sprintf("last %dd", a.days)},
		{"Tokens", cli.FormatTokens(plat.TotalTokens), ""},
		{"API Calls", cli.FormatNumber(int64(plat.APICallCount)), ""},
		{"Active Users", cli.FormatNumber(int64(plat.UserCount)), ""},
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Row 2: This user's month against their plan ceiling
	gaugeW := components.CardInnerWidth(cw) - 40
	if gaugeW < 20 {
		gaugeW = 20
	}
	var gauge strings.Builder
	gauge.WriteString(components.BudgetBar("This month", sum.TotalCostUSD, sum.MonthlyLimit, 12, gaugeW))
	gauge.WriteString("\n")
	remStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	gauge.WriteString(remStyle.Render(fmt.Sprintf("Remaining %s · %s · %d calls this month",
		cli.FormatCost(sum.RemainingBudget),
		cli.FormatCredits(sum.TotalCredits),
		sum.APICallCount)))
	b.WriteString(components.ContentCard("Monthly Budget", gauge.String(), cw))
	b.WriteString("\n")

	// Row 3: Users approaching their limit + billed actuals
	usersCard := components.ContentCard("Users Near Limit",
		a.renderUsersNearLimit(components.CardInnerWidth(cw)), cw)

	if a.isCompactLayout() {
		b.WriteString(usersCard)
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Billed Actuals",
			a.renderActuals(components.CardInnerWidth(cw)), cw))
	} else {
		halves := components.LayoutRow(cw, 2)
		left := components.ContentCard("Users Near Limit",
			a.renderUsersNearLimit(components.CardInnerWidth(halves[0])), halves[0])
		right := components.ContentCard("Billed Actuals",
			a.renderActuals(components.CardInnerWidth(halves[1])), halves[1])
		b.WriteString(components.CardRow([]string{left, right}))
	}

	return b.String()
}

func (a App) renderUsersNearLimit(innerW int) string {
	t := theme.Active
	users := a.data.TopUsers
	if len(users) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Render("Nobody is above 80% of their plan.")
	}

	nameW := innerW / 3
	if nameW < 10 {
		nameW = 10
	}
	barW := innerW - nameW - 18
	if barW < 8 {
		barW = 8
	}

	limit := 8
	if len(users) < limit {
		limit = len(users)
	}

	var b strings.Builder
	for _, u := range users[:limit] {
		name := u.UserID
		if len(name) > nameW {
			name = name[:nameW-1] + "…"
		}
		b.WriteString(lipgloss.NewStyle().Foreground(t.TextPrimary).Render(fmt.Sprintf("%-*s ", nameW, name)))
		b.WriteString(components.CompactBudgetBar("", u.FracUsed, barW))
		b.WriteString(lipgloss.NewStyle().Foreground(t.TextDim).Render(
			" " + cli.FormatBudget(u.TotalCostUSD, u.MonthlyLimit)))
		b.WriteString("\n")
	}
	return b.String()
}

// renderActuals compares the ledger estimate against the provider's billed
// spend, when a billing API key is configured.
func (a App) renderActuals(innerW int) string {
	t := theme.Active
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	if a.deps.Billing == nil {
		return dimStyle.Render("No billing API key configured.\nSet billing.api_key or COSTLENS_BILLING_KEY.")
	}
	if a.actuals == nil {
		return dimStyle.Render("Fetching billed actuals…")
	}
	if a.actuals.Error != nil && a.actuals.Spend == nil {
		return lipgloss.NewStyle().Foreground(t.Red).Render("Fetch failed: " + a.actuals.Error.Error())
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Account       "),
		valStyle.Render(fmt.Sprintf("%s (%s)", a.actuals.Account.Name, a.actuals.Account.Provider)))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Billed (30d)  "),
		valStyle.Render(cli.FormatCost(a.actuals.Spend.TotalUSD)))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Ledger (30d)  "),
		valStyle.Render(cli.FormatCost(a.data.Savings.ActualCost)))

	drift := a.actuals.Spend.TotalUSD - a.data.Savings.ActualCost
	driftStyle := lipgloss.NewStyle().Foreground(t.Green)
	if drift > 0 {
		driftStyle = lipgloss.NewStyle().Foreground(t.Orange)
	}
	fmt.Fprintf(&b, "%s %s", labelStyle.Render("Drift         "),
		driftStyle.Render(fmt.Sprintf("%+.2f", drift)))
	return b.String()
}
