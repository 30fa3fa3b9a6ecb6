package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/topoforge-network/topoforge/pkg/advisor"
	"github.com/topoforge-network/topoforge/pkg/intent"
)

var (
	recommendIntentFile string
	recommendTopK       int

	feedbackID       string
	feedbackPattern  string
	feedbackTopology string
	feedbackRating   int
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank topology patterns for an intent",
	Long: `Score every suitable pattern for an intent using historical
performance aggregates, falling back to heuristics when history is
thin.

Examples:
  topoforge recommend -f intent.yml
  topoforge recommend -f intent.yml --top 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := intent.LoadIntent(recommendIntentFile)
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		record, recs, err := advisor.New(store).Recommend(context.Background(), in, recommendTopK)
		if err != nil {
			return err
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(struct {
				ID              string                   `json:"id"`
				Recommendations []advisor.Recommendation `json:"recommendations"`
			}{record.ID, recs})
		}
		fmt.Printf("recommendation %s:\n", record.ID)
		for i, r := range recs {
			source := "heuristic"
			if r.FromHistory {
				source = "history"
			}
			fmt.Printf("%d. %-11s score %.1f confidence %.0f (%s, ~%d links)\n",
				i+1, r.Pattern, r.Score, r.Confidence, source, r.EstimatedLinks)
			fmt.Printf("   %s\n", r.Reason)
		}
		return nil
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record the outcome of a recommendation",
	Long: `Store the user's selection and rating for a past recommendation.
Explicit ratings outweigh automated validation scores when patterns
are ranked later.

Examples:
  topoforge recommend feedback --id <rec-id> --pattern leaf-spine --rating 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		err = advisor.New(store).RecordFeedback(context.Background(),
			feedbackID, feedbackPattern, feedbackTopology, feedbackRating)
		if err != nil {
			return err
		}
		fmt.Println("feedback recorded")
		return nil
	},
}

func init() {
	recommendCmd.Flags().StringVarP(&recommendIntentFile, "file", "f", "", "intent YAML file (required)")
	recommendCmd.Flags().IntVar(&recommendTopK, "top", 5, "number of patterns to return")
	recommendCmd.MarkFlagRequired("file")

	feedbackCmd.Flags().StringVar(&feedbackID, "id", "", "recommendation id (required)")
	feedbackCmd.Flags().StringVar(&feedbackPattern, "pattern", "", "pattern the user selected")
	feedbackCmd.Flags().StringVar(&feedbackTopology, "topology-id", "", "resulting topology record id")
	feedbackCmd.Flags().IntVar(&feedbackRating, "rating", -1, "rating 1-5, or -1 for none")
	feedbackCmd.MarkFlagRequired("id")
	recommendCmd.AddCommand(feedbackCmd)
}
