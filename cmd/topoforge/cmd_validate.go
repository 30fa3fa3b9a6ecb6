package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/topoforge-network/topoforge/pkg/analyze"
	"github.com/topoforge-network/topoforge/pkg/intent"
	"github.com/topoforge-network/topoforge/pkg/simulate"
	"github.com/topoforge-network/topoforge/pkg/topology"
	"github.com/topoforge-network/topoforge/pkg/validate"
)

var (
	validateTopoFile   string
	validateIntentFile string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Score a topology against an intent",
	Long: `Analyze and simulate a prepared topology, then score it against the
intent's constraints.

Examples:
  topoforge validate -t topo.yml -f intent.yml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topo, err := topology.LoadFile(validateTopoFile)
		if err != nil {
			return err
		}
		in, err := intent.LoadIntent(validateIntentFile)
		if err != nil {
			return err
		}

		analysis := analyze.Analyze(topo)
		var sims []*simulate.Result
		for _, sc := range simulate.GenerateTestScenarios(topo) {
			res, err := simulate.Simulate(topo, sc)
			if err != nil {
				return err
			}
			sims = append(sims, res)
		}

		res := validate.Validate(topo, analysis, sims, in)
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(res)
		}
		fmt.Printf("overall %.1f (redundancy %.1f, diversity %.1f, resilience %.1f), satisfied %v\n",
			res.OverallScore, res.RedundancyScore, res.PathDiversityScore,
			res.ResilienceScore, res.Satisfied)
		for _, v := range res.Violations {
			fmt.Println("  violation:", v)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateTopoFile, "topology", "t", "", "topology YAML file (required)")
	validateCmd.Flags().StringVarP(&validateIntentFile, "file", "f", "", "intent YAML file (required)")
	validateCmd.MarkFlagRequired("topology")
	validateCmd.MarkFlagRequired("file")
}
