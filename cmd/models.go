package cmd

import (
	"fmt"
	"strings"

	"github.com/Jrmromao/costlens/internal/catalog"
	"github.com/Jrmromao/costlens/internal/cli"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the routable model catalog with pricing",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(_ *cobra.Command, _ []string) error {
	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	fmt.Println()
	fmt.Println(cli.RenderTitle("MODEL CATALOG"))
	fmt.Println()

	rows := make([][]string, 0, 8)
	for _, m := range svc.cat.All() {
		in, out := "—", "—"
		if r, ok := svc.cat.Rate(m.Model); ok {
			in = cli.FormatRate(r.InputPerMTok)
			out = cli.FormatRate(r.OutputPerMTok)
		}

		name := m.Model
		if m.Model == catalog.SafeDefaultModel {
			name += " *"
		}
		tag := ""
		if m.IsBudget() {
			tag = "budget"
		}

		rows = append(rows, []string{
			name,
			m.Provider,
			in,
			out,
			cli.FormatRate(m.CostPer1M),
			fmt.Sprintf("%d", m.QualityScore),
			fmt.Sprintf("%.1f", m.ComplexityThreshold),
			tag,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Model", "Provider", "In", "Out", "Blended", "Quality", "MaxCx", ""},
		Rows:    rows,
	}))

	fmt.Println("  * safe default: fallback when no candidate survives filtering,")
	fmt.Println("    and the forced model when a user nears their monthly limit.")
	fmt.Println()

	for _, m := range svc.cat.All() {
		line := fmt.Sprintf("  %-22s %s", m.Model, strings.Join(m.Strengths, ", "))
		if len(m.Weaknesses) > 0 {
			line += cli.RenderMuted("  (weak: " + strings.Join(m.Weaknesses, ", ") + ")")
		}
		fmt.Println(line)
	}
	fmt.Println()
	return nil
}
