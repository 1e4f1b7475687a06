package cmd

import (
	"context"
	"fmt"

	"github.com/Jrmromao/costlens/internal/cli"
	"github.com/Jrmromao/costlens/internal/config"

	"github.com/spf13/cobra"
)

var (
	flagBudgetThreshold float64
	flagCheckModel      string
	flagCheckInput      int64
	flagCheckOutput     int64
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Users approaching their plan ceiling",
	RunE:  runBudget,
}

var budgetCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a call fits the remaining budget",
	RunE:  runBudgetCheck,
}

func init() {
	budgetCmd.Flags().Float64Var(&flagBudgetThreshold, "threshold", config.NearLimitFraction,
		"Report users above this fraction of their ceiling")

	budgetCheckCmd.Flags().StringVarP(&flagCheckModel, "model", "m", "", "Model to price the call at (required)")
	budgetCheckCmd.Flags().Int64Var(&flagCheckInput, "input", 0, "Input tokens")
	budgetCheckCmd.Flags().Int64Var(&flagCheckOutput, "output", 0, "Output tokens")
	_ = budgetCheckCmd.MarkFlagRequired("model")

	budgetCmd.AddCommand(budgetCheckCmd)
	rootCmd.AddCommand(budgetCmd)
}

func runBudget(_ *cobra.Command, _ []string) error {
	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	users, err := svc.tracker.UsersApproachingLimit(context.Background(), flagBudgetThreshold)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("BUDGET  users above %s of their ceiling", cli.FormatPercent(flagBudgetThreshold))))
	fmt.Println()

	if len(users) == 0 {
		fmt.Println("  Everyone is under the threshold.")
		fmt.Println()
		return nil
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			u.UserID,
			cli.FormatBudget(u.TotalCostUSD, u.MonthlyLimit),
			cli.FormatPercent(u.FracUsed),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"User", "Spend / Ceiling", "Used"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}

func runBudgetCheck(_ *cobra.Command, _ []string) error {
	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	afford, err := svc.tracker.CanAfford(context.Background(),
		flagUser, flagCheckModel, flagCheckInput, flagCheckOutput, activePlan())
	if err != nil {
		return err
	}

	if afford.Allowed {
		fmt.Printf("  OK: estimated %s, %s remaining\n",
			cli.FormatCost(afford.EstimatedCost), cli.FormatCost(afford.RemainingBudget))
		return nil
	}
	return fmt.Errorf("blocked: %s", afford.Reason)
}
