package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Jrmromao/costlens/internal/analyzer"
	"github.com/Jrmromao/costlens/internal/cli"

	"github.com/spf13/cobra"
)

var (
	flagRouteModel string
	flagRouteJSON  bool
)

var routeCmd = &cobra.Command{
	Use:   "route [prompt...]",
	Short: "Pick the cheapest capable model for a prompt",
	Long:  "Analyze the prompt, filter the catalog by complexity and preferences, and print the routing decision. Reads the prompt from args or stdin.",
	RunE:  runRoute,
}

func init() {
	routeCmd.Flags().StringVarP(&flagRouteModel, "model", "m", "", "Requested model (required)")
	routeCmd.Flags().BoolVar(&flagRouteJSON, "json", false, "Emit the decision as JSON")
	_ = routeCmd.MarkFlagRequired("model")
	rootCmd.AddCommand(routeCmd)
}

func runRoute(_ *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		data, err := io.ReadAll(os.Stdin)
		if err == nil {
			prompt = strings.TrimSpace(string(data))
		}
	}
	if prompt == "" {
		return errors.New("no prompt given (pass as args or pipe on stdin)")
	}

	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := context.Background()
	messages := []analyzer.Message{{Role: "user", Content: prompt}}

	decision := svc.router.Route(ctx, flagRouteModel, messages, flagUser)

	// Budget caps apply on top of quality-based routing.
	capd, err := svc.tracker.EnforceHardCap(ctx, flagUser, activePlan(), decision.SelectedModel)
	if err != nil {
		return err
	}
	selected := capd.Model

	if flagRouteJSON {
		out := struct {
			SelectedModel   string  `json:"selected_model"`
			OriginalModel   string  `json:"original_model"`
			Switched        bool    `json:"switched"`
			Confidence      float64 `json:"confidence"`
			Reasoning       string  `json:"reasoning"`
			ExpectedSavings float64 `json:"expected_savings"`
			QualityRisk     string  `json:"quality_risk"`
			BudgetCapped    bool    `json:"budget_capped"`
			CapReason       string  `json:"cap_reason,omitempty"`
		}{
			SelectedModel:   selected,
			OriginalModel:   decision.OriginalModel,
			Switched:        selected != decision.OriginalModel,
			Confidence:      decision.Confidence,
			Reasoning:       decision.Reasoning,
			ExpectedSavings: decision.ExpectedSavings,
			QualityRisk:     string(decision.QualityRisk),
			BudgetCapped:    capd.Switched,
			CapReason:       capd.Reason,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("ROUTING DECISION"))
	fmt.Println()

	rows := [][]string{
		{"Requested", decision.OriginalModel},
		{"Selected", selected},
		{"Confidence", cli.FormatPercent(decision.Confidence)},
		{"Quality risk", string(decision.QualityRisk)},
		{"Savings", cli.FormatRate(decision.ExpectedSavings)},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Field", "Value"},
		Rows:    rows,
	}))

	fmt.Printf("  %s\n", cli.RenderMuted(decision.Reasoning))
	if capd.Switched {
		fmt.Printf("  %s\n", cli.RenderMuted("budget cap: "+capd.Reason))
	}
	fmt.Println()
	return nil
}
