package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Jrmromao/costlens/internal/cli"
	"github.com/Jrmromao/costlens/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagTrackModel     string
	flagTrackRequested string
	flagTrackPromptID  string
	flagTrackInput     int64
	flagTrackOutput    int64
	flagTrackCacheHit  bool
	flagTrackForce     bool
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Record one API call in the ledger",
	Long:  "Check affordability, record the call's token usage, and account for routing savings when the served model differs from the requested one.",
	RunE:  runTrack,
}

func init() {
	trackCmd.Flags().StringVarP(&flagTrackModel, "model", "m", "", "Model that served the call (required)")
	trackCmd.Flags().StringVar(&flagTrackRequested, "requested-model", "", "Model originally requested (default: same as --model)")
	trackCmd.Flags().StringVar(&flagTrackPromptID, "prompt-id", "", "Prompt id for dedupe on import")
	trackCmd.Flags().Int64Var(&flagTrackInput, "input", 0, "Input tokens")
	trackCmd.Flags().Int64Var(&flagTrackOutput, "output", 0, "Output tokens")
	trackCmd.Flags().BoolVar(&flagTrackCacheHit, "cache-hit", false, "Call was served from cache")
	trackCmd.Flags().BoolVar(&flagTrackForce, "force", false, "Record even when the budget is exhausted")
	_ = trackCmd.MarkFlagRequired("model")
	rootCmd.AddCommand(trackCmd)
}

func runTrack(_ *cobra.Command, _ []string) error {
	if flagTrackInput < 0 || flagTrackOutput < 0 {
		return errors.New("token counts must be non-negative")
	}
	if flagTrackInput == 0 && flagTrackOutput == 0 {
		return errors.New("nothing to record: both token counts are zero")
	}

	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := context.Background()
	plan := activePlan()

	afford, err := svc.tracker.CanAfford(ctx, flagUser, flagTrackModel, flagTrackInput, flagTrackOutput, plan)
	if err != nil {
		return err
	}
	if !afford.Allowed && !flagTrackForce {
		return fmt.Errorf("budget exhausted: %s (use --force to record anyway)", afford.Reason)
	}

	now := time.Now().UTC()
	cost, err := svc.tracker.Track(ctx, model.UsageRecord{
		UserID:       flagUser,
		PromptID:     flagTrackPromptID,
		Model:        flagTrackModel,
		InputTokens:  flagTrackInput,
		OutputTokens: flagTrackOutput,
		CacheHit:     flagTrackCacheHit,
		CreatedAt:    now,
	})
	if err != nil {
		return err
	}

	// Run accounting: savings materialize when a cheaper model served a
	// request for a pricier one.
	requested := flagTrackRequested
	if requested == "" {
		requested = flagTrackModel
	}
	tokens := flagTrackInput + flagTrackOutput
	saved := 0.0
	if requested != flagTrackModel {
		saved = svc.calc.BaselineCost(requested, flagTrackModel, tokens) - cost
		if saved < 0 {
			saved = 0
		}
	}
	err = svc.ledger.InsertRun(ctx, model.PromptRun{
		UserID:         flagUser,
		Model:          flagTrackModel,
		RequestedModel: requested,
		InputTokens:    flagTrackInput,
		OutputTokens:   flagTrackOutput,
		TokensUsed:     tokens,
		Cost:           cost,
		Savings:        saved,
		CreatedAt:      now,
	})
	if err != nil {
		return err
	}

	if !flagQuiet {
		fmt.Printf("  Recorded %s on %s: %s", cli.FormatTokens(tokens), flagTrackModel, cli.FormatCost(cost))
		if saved > 0 {
			fmt.Printf("  (%s saved vs %s)", cli.FormatCost(saved), requested)
		}
		fmt.Println()
		fmt.Printf("  Remaining budget: %s\n", cli.FormatCost(afford.RemainingBudget-afford.EstimatedCost))
	}
	return nil
}
