package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/topoforge-network/topoforge/pkg/intent"
	"github.com/topoforge-network/topoforge/pkg/pipeline"
)

var (
	designIntentFile string
	designSeed       int64
	designAdvise     bool
	designOutFile    string
	designNoPersist  bool
)

var designCmd = &cobra.Command{
	Use:   "design",
	Short: "Run the full design pipeline for an intent",
	Long: `Parse an intent, synthesize a topology, analyze it, simulate the
canonical failure scenarios, validate against the intent, and record
everything in the history store.

Examples:
  topoforge design -f intent.yml
  topoforge design -f intent.yml --seed 42 --advise
  topoforge design -f intent.yml -o topo.yml --no-persist`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := intent.LoadIntent(designIntentFile)
		if err != nil {
			return err
		}

		opts := pipeline.Options{Seed: designSeed, Advise: designAdvise}
		if !designNoPersist {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			opts.Store = store
		}

		report, err := pipeline.RunPipeline(context.Background(), in, opts)
		if err != nil {
			return err
		}

		if designOutFile != "" && report.Topology != nil {
			if err := report.Topology.WriteFile(designOutFile); err != nil {
				return err
			}
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(report)
		}
		fmt.Println(report.Summary())
		if report.Validation != nil {
			for _, v := range report.Validation.Violations {
				fmt.Println("  violation:", v)
			}
		}
		return nil
	},
}

func init() {
	designCmd.Flags().StringVarP(&designIntentFile, "file", "f", "", "intent YAML file (required)")
	designCmd.Flags().Int64Var(&designSeed, "seed", 0, "synthesis seed for reproducible output")
	designCmd.Flags().BoolVar(&designAdvise, "advise", false, "let history override the pattern choice")
	designCmd.Flags().StringVarP(&designOutFile, "out", "o", "", "write the synthesized topology YAML here")
	designCmd.Flags().BoolVar(&designNoPersist, "no-persist", false, "skip the history store")
	designCmd.MarkFlagRequired("file")
}
