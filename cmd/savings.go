package cmd

import (
	"context"
	"fmt"

	"github.com/Jrmromao/costlens/internal/cli"
	"github.com/Jrmromao/costlens/internal/savings"

	"github.com/spf13/cobra"
)

var savingsCmd = &cobra.Command{
	Use:   "savings",
	Short: "Savings from routing, caching, and optimization",
	RunE:  runSavings,
}

func init() {
	rootCmd.AddCommand(savingsCmd)
}

func runSavings(_ *cobra.Command, _ []string) error {
	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := context.Background()

	summary, err := svc.calc.Summary(ctx, flagUser)
	if err != nil {
		return err
	}
	today, err := svc.calc.Today(ctx, flagUser)
	if err != nil {
		return err
	}

	scope := flagUser
	if scope == "" {
		scope = "all users"
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("SAVINGS  " + scope))
	fmt.Println()

	rows := [][]string{
		{"Smart routing", cli.FormatCost(summary.SmartRouting), cli.FormatCost(today.SmartRouting)},
		{"Caching", cli.FormatCost(summary.Caching), cli.FormatCost(today.Caching)},
		{"Optimization", cli.FormatCost(summary.Optimization), cli.FormatCost(today.Optimization)},
		{"---"},
		{"Total saved", cli.FormatCost(summary.TotalSaved), cli.FormatCost(today.TotalSaved)},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Source", "Last 30d", "Today"},
		Rows:    rows,
	}))

	fmt.Printf("  Baseline %s  →  Actual %s  (%s saved, %.1f%% rate)\n",
		cli.FormatCost(summary.BaselineCost),
		cli.FormatCost(summary.ActualCost),
		cli.RenderSavings(cli.FormatCost(summary.TotalSaved)),
		summary.SavingsRate)

	roi := savings.ROI(summary.TotalSaved, summary.ActualCost)
	if roi > 0 {
		fmt.Printf("  ROI: %.0f%% — every $1.00 of actual spend avoided $%.2f of baseline cost\n", roi, roi/100)
	}
	fmt.Println()
	return nil
}
