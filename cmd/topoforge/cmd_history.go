package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/topoforge-network/topoforge/pkg/advisor"
)

var historyDays int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the generation history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent topology records",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		recs, err := store.Recent(context.Background(), historyDays)
		if err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(recs)
		}
		for _, r := range recs {
			fmt.Printf("%s  %-11s %3d sites %4d links  %s\n",
				r.CreatedAt.Format("2006-01-02 15:04"), r.Pattern, r.SiteCount, r.LinkCount, r.ID)
		}
		fmt.Printf("%d records in the last %d days\n", len(recs), historyDays)
		return nil
	},
}

var historyInsightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Summarize what the history shows",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		insights, err := advisor.New(store).Insights(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(insights)
		}
		if len(insights) == 0 {
			fmt.Println("no history yet")
			return nil
		}
		for _, i := range insights {
			fmt.Printf("[%s] %s\n", i.Kind, i.Text)
		}
		return nil
	},
}

var historyOptimizationsCmd = &cobra.Command{
	Use:   "optimizations",
	Short: "Show the autonomous optimizer's track record",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		summary, err := advisor.New(store).OptimizationSummary(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(summary)
		}
		fmt.Printf("%d overrides, %d measured, avg improvement %.1f\n",
			summary.Total, summary.MeasuredCount, summary.AvgImprovement)
		for change, n := range summary.Overrides {
			fmt.Printf("  %s: %d\n", change, n)
		}
		return nil
	},
}

var historyRecomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Rebuild the performance aggregates from base records",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.RecomputeMetrics(context.Background()); err != nil {
			return err
		}
		fmt.Println("performance metrics recomputed")
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntVar(&historyDays, "days", 30, "look-back window in days")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyInsightsCmd)
	historyCmd.AddCommand(historyOptimizationsCmd)
	historyCmd.AddCommand(historyRecomputeCmd)
}
