package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/Jrmromao/costlens/internal/cli"
	"github.com/Jrmromao/costlens/internal/model"
	"github.com/Jrmromao/costlens/internal/source"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import JSONL usage exports into the ledger",
	Long:  "Scan a directory for *.jsonl usage exports and replay every validated call through the tracker. Records with a prompt id are deduplicated per file, keeping the last entry.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	dir := args[0]

	files, err := source.ScanDir(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Printf("  No .jsonl exports found in %s\n", dir)
		return nil
	}

	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := context.Background()

	var (
		imported    int
		parseErrors int
		totalCost   float64
		totalTokens int64
		users       = make(map[string]struct{})
	)

	for _, df := range files {
		res := source.ParseFile(df)
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "  Skipping %s: %v\n", df.Name, res.Err)
			continue
		}
		parseErrors += res.ParseErrors

		for _, call := range res.Calls {
			cost, err := svc.tracker.Track(ctx, model.UsageRecord{
				UserID:       call.UserID,
				PromptID:     call.PromptID,
				Model:        call.Model,
				InputTokens:  call.InputTokens,
				OutputTokens: call.OutputTokens,
				CacheHit:     call.CacheHit,
				CreatedAt:    call.Timestamp,
			})
			if err != nil {
				return fmt.Errorf("importing %s: %w", df.Name, err)
			}
			imported++
			totalCost += cost
			totalTokens += call.InputTokens + call.OutputTokens
			users[call.UserID] = struct{}{}
		}

		if !flagQuiet {
			fmt.Printf("  %s: %d calls (%d bad lines)\n", df.Name, len(res.Calls), res.ParseErrors)
		}
	}

	fmt.Println()
	fmt.Printf("  Imported %s calls from %d files (%d users)\n",
		cli.FormatNumber(int64(imported)), len(files), len(users))
	fmt.Printf("  %s tokens, %s at call-time rates\n",
		cli.FormatTokens(totalTokens), cli.FormatCost(totalCost))
	if parseErrors > 0 {
		fmt.Printf("  %d lines skipped as malformed or invalid\n", parseErrors)
	}
	fmt.Println()
	return nil
}
