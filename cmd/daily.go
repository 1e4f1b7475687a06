package cmd

import (
	"context"
	"fmt"

	"github.com/Jrmromao/costlens/internal/cli"

	"github.com/spf13/cobra"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Day-by-day savings and spend",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(_ *cobra.Command, _ []string) error {
	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	series, err := svc.calc.Daily(context.Background(), flagUser, flagDays)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DAILY  Last %dd", flagDays)))
	fmt.Println()

	var totalSaved, totalCost float64
	var totalRuns int
	savedVals := make([]float64, len(series))

	rows := make([][]string, 0, len(series)+2)
	for i, d := range series {
		savedVals[i] = d.Saved
		totalSaved += d.Saved
		totalCost += d.Cost
		totalRuns += d.Runs
		if d.Runs == 0 {
			continue // keep the table to active days; the sparkline shows gaps
		}
		rows = append(rows, []string{
			d.Date.Format("Mon 01/02"),
			cli.FormatNumber(int64(d.Runs)),
			cli.FormatCost(d.Cost),
			cli.RenderSavings(cli.FormatCost(d.Saved)),
		})
	}

	if len(rows) == 0 {
		fmt.Println("  No runs in this window.")
		fmt.Println()
		return nil
	}

	rows = append(rows, []string{"---"})
	rows = append(rows, []string{
		"TOTAL",
		cli.FormatNumber(int64(totalRuns)),
		cli.FormatCost(totalCost),
		cli.RenderSavings(cli.FormatCost(totalSaved)),
	})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Day", "Runs", "Cost", "Saved"},
		Rows:    rows,
	}))

	fmt.Printf("  Saved  %s\n\n", cli.RenderSparkline(savedVals))
	return nil
}
