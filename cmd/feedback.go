package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagFbOriginal string
	flagFbSelected string
	flagFbRating   int
	flagFbHelpful  bool
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Rate a routed response",
	Long:  "Record a 1-5 quality rating for a routed response. Ratings feed back into per-user routing preferences.",
	RunE:  runFeedback,
}

func init() {
	feedbackCmd.Flags().StringVar(&flagFbOriginal, "original", "", "Model originally requested (required)")
	feedbackCmd.Flags().StringVar(&flagFbSelected, "selected", "", "Model that served the response (required)")
	feedbackCmd.Flags().IntVar(&flagFbRating, "rating", 0, "Quality rating 1-5 (required)")
	feedbackCmd.Flags().BoolVar(&flagFbHelpful, "helpful", false, "Response was helpful")
	_ = feedbackCmd.MarkFlagRequired("original")
	_ = feedbackCmd.MarkFlagRequired("selected")
	_ = feedbackCmd.MarkFlagRequired("rating")
	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(_ *cobra.Command, _ []string) error {
	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	svc.router.RecordFeedback(context.Background(),
		flagUser, flagFbOriginal, flagFbSelected, flagFbRating, flagFbHelpful)

	if !flagQuiet {
		fmt.Printf("  Recorded rating %d for %s (requested %s)\n",
			clampRating(flagFbRating), flagFbSelected, flagFbOriginal)
	}
	return nil
}

func clampRating(r int) int {
	if r < 1 {
		return 1
	}
	if r > 5 {
		return 5
	}
	return r
}
