package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Jrmromao/costlens/internal/billing"
	"github.com/Jrmromao/costlens/internal/cli"
	"github.com/Jrmromao/costlens/internal/config"

	"github.com/spf13/cobra"
)

var flagCostsActuals bool

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Monthly spend against the plan budget",
	RunE:  runCosts,
}

func init() {
	costsCmd.Flags().BoolVar(&flagCostsActuals, "actuals", false, "Fetch billed actuals from the provider billing API")
	rootCmd.AddCommand(costsCmd)
}

func runCosts(_ *cobra.Command, _ []string) error {
	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := context.Background()

	summary, err := svc.tracker.UserMonthlyCost(ctx, flagUser, activePlan())
	if err != nil {
		return err
	}

	scope := flagUser
	if scope == "" {
		scope = "all users"
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("MONTHLY COSTS  %s  %s", scope, summary.MonthStart.Format("Jan 2006"))))
	fmt.Println()
	fmt.Println("  " + cli.RenderBudgetGauge(summary.TotalCostUSD, summary.MonthlyLimit, 40))
	fmt.Println()

	rows := [][]string{
		{"Spend", cli.FormatCost(summary.TotalCostUSD)},
		{"Credits", cli.FormatCredits(summary.TotalCredits)},
		{"API calls", cli.FormatNumber(int64(summary.APICallCount))},
		{"Plan ceiling", cli.FormatCost(summary.MonthlyLimit)},
		{"Remaining", cli.FormatCost(summary.RemainingBudget)},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if len(summary.ByModel) > 0 {
		models := make([]string, 0, len(summary.ByModel))
		for m := range summary.ByModel {
			models = append(models, m)
		}
		sort.Strings(models)

		modelRows := make([][]string, 0, len(models))
		for _, m := range models {
			modelRows = append(modelRows, []string{m, cli.FormatCost(summary.ByModel[m])})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "By Model (metered)",
			Headers: []string{"Model", "Cost"},
			Rows:    modelRows,
		}))
	}

	switch {
	case summary.IsOverLimit:
		fmt.Println("  Budget exceeded: new calls are capped to the cheapest model.")
	case summary.IsNearLimit:
		fmt.Println("  Near limit: premium requests are downgraded to the budget model.")
	}

	// Platform section only makes sense on the all-users view.
	if flagUser == "" {
		now := time.Now().UTC()
		plat, err := svc.tracker.PlatformCosts(ctx, now.AddDate(0, 0, -flagDays), now)
		if err != nil {
			return err
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   fmt.Sprintf("Platform (last %dd)", flagDays),
			Headers: []string{"Metric", "Value"},
			Rows: [][]string{
				{"Spend", cli.FormatCost(plat.TotalCostUSD)},
				{"Tokens", cli.FormatTokens(plat.TotalTokens)},
				{"API calls", cli.FormatNumber(int64(plat.APICallCount))},
				{"Active users", cli.FormatNumber(int64(plat.UserCount))},
			},
		}))
	}

	if flagCostsActuals {
		if err := printActuals(ctx, svc); err != nil {
			return err
		}
	}

	fmt.Println()
	return nil
}

// printActuals compares the ledger's 30d estimate to the provider's billed
// spend over the same window.
func printActuals(ctx context.Context, svc *services) error {
	key := config.GetBillingAPIKey(svc.cfg)
	client := billing.NewClient(key, svc.cfg.Billing.BaseURL)
	if client == nil {
		return fmt.Errorf("no billing API key: set billing.api_key or COSTLENS_BILLING_KEY")
	}

	now := time.Now()
	actuals := client.FetchActuals(ctx, now.AddDate(0, -1, 0), now)
	if actuals.Error != nil && actuals.Spend == nil {
		return fmt.Errorf("fetching billed actuals: %w", actuals.Error)
	}

	estimate, err := svc.calc.Summary(ctx, flagUser)
	if err != nil {
		return err
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Billed Actuals (30d)",
		Headers: []string{"Source", "Amount"},
		Rows: [][]string{
			{fmt.Sprintf("Billed (%s)", actuals.Account.Provider), cli.FormatCost(actuals.Spend.TotalUSD)},
			{"Ledger estimate", cli.FormatCost(estimate.ActualCost)},
			{"Drift", fmt.Sprintf("%+.2f", actuals.Spend.TotalUSD-estimate.ActualCost)},
		},
	}))
	return nil
}
