package tui

import (
	"fmt"
	"strings"

	"github.com/Jrmromao/costlens/internal/catalog"
	"github.com/Jrmromao/costlens/internal/cli"
	"github.com/Jrmromao/costlens/internal/tui/components"
	"github.com/Jrmromao/costlens/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderModelsTab(cw int) string {
	t := theme.Active
	var b strings.Builder

	headStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Bold(true)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	defaultStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	budgetStyle := lipgloss.NewStyle().Foreground(t.Green)

	var tbl strings.Builder
	fmt.Fprintf(&tbl, "%s\n", headStyle.Render(fmt.Sprintf(
		"%-22s %-10s %9s %9s %9s %7s %6s",
		"Model", "Provider", "In $/M", "Out $/M", "Blended", "Quality", "MaxCx")))

	for _, m := range a.deps.Catalog.All() {
		in, out := "—", "—"
		if r, ok := a.deps.Catalog.Rate(m.Model); ok {
			in = cli.FormatRate(r.InputPerMTok)
			out = cli.FormatRate(r.OutputPerMTok)
		}

		ns := nameStyle
		name := m.Model
		if m.Model == catalog.SafeDefaultModel {
			ns = defaultStyle
			name += " ◆"
		}

		line := fmt.Sprintf("%s %s %9s %9s %9s %7d %6.1f",
			ns.Render(fmt.Sprintf("%-22s", name)),
			dimStyle.Render(fmt.Sprintf("%-10s", m.Provider)),
			in, out,
			cli.FormatRate(m.CostPer1M),
			m.QualityScore,
			m.ComplexityThreshold)
		if m.IsBudget() {
			line += budgetStyle.Render("  budget")
		}
		tbl.WriteString(line)
		tbl.WriteString("\n")
	}
	tbl.WriteString("\n")
	tbl.WriteString(dimStyle.Render("◆ safe default — used when no candidate survives filtering, and as the near-limit budget model."))

	b.WriteString(components.ContentCard("Model Catalog", tbl.String(), cw))
	b.WriteString("\n")

	// Strengths/weaknesses card
	var tags strings.Builder
	for _, m := range a.deps.Catalog.All() {
		fmt.Fprintf(&tags, "%s %s",
			nameStyle.Render(fmt.Sprintf("%-22s", shortModel(m.Model))),
			budgetStyle.Render(strings.Join(m.Strengths, ", ")))
		if len(m.Weaknesses) > 0 {
			tags.WriteString(dimStyle.Render("  weak: " + strings.Join(m.Weaknesses, ", ")))
		}
		tags.WriteString("\n")
	}
	b.WriteString(components.ContentCard("Strengths & Weaknesses", tags.String(), cw))

	return b.String()
}
