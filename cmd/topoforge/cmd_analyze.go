package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/topoforge-network/topoforge/pkg/analyze"
	"github.com/topoforge-network/topoforge/pkg/topology"
)

var analyzeTopoFile string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a topology for SPOFs, imbalance and health",
	Long: `Run the read-only analyzer on a prepared topology file.

Examples:
  topoforge analyze -t topo.yml
  topoforge analyze -t topo.yml --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topo, err := topology.LoadFile(analyzeTopoFile)
		if err != nil {
			return err
		}
		res := analyze.Analyze(topo)

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(res)
		}
		fmt.Println(res.Summary)
		for _, s := range res.SPOFs {
			fmt.Printf("  SPOF %s: %s risk, %.1f%% impact\n", s.Device, s.Risk, s.ImpactPercent)
		}
		for _, o := range res.Overloaded {
			fmt.Printf("  overloaded %s: %d links (%.0f%% of mean)\n", o.Device, o.Degree, o.LoadPercent)
		}
		for _, u := range res.UnbalancedPairs {
			fmt.Printf("  unbalanced %s-%s: %d..%d hops\n", u.A, u.B, u.MinHops, u.MaxHops)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeTopoFile, "topology", "t", "", "topology YAML file (required)")
	analyzeCmd.MarkFlagRequired("topology")
}
