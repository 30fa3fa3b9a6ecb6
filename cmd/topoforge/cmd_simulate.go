package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/topoforge-network/topoforge/pkg/simulate"
	"github.com/topoforge-network/topoforge/pkg/topology"
	"github.com/topoforge-network/topoforge/pkg/util"
)

var (
	simTopoFile  string
	simNode      string
	simLinks     []string
	simCascade   string
	simDepth     int
	simCanonical bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate failures on a topology",
	Long: `Remove nodes or links from a copy of the topology graph and report
connectivity loss, partitions and severity.

Examples:
  topoforge simulate -t topo.yml --node R1
  topoforge simulate -t topo.yml --link R1:eth1-R2:eth1
  topoforge simulate -t topo.yml --link R1-R2 --link R2-R3
  topoforge simulate -t topo.yml --cascade R1 --depth 3
  topoforge simulate -t topo.yml --canonical`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topo, err := topology.LoadFile(simTopoFile)
		if err != nil {
			return err
		}

		var scenarios []simulate.Scenario
		switch {
		case simCanonical:
			scenarios = simulate.GenerateTestScenarios(topo)
		case simNode != "":
			scenarios = []simulate.Scenario{{Kind: simulate.NodeDown, Node: simNode}}
		case simCascade != "":
			scenarios = []simulate.Scenario{{Kind: simulate.Cascade, Node: simCascade, Depth: simDepth}}
		case len(simLinks) == 1:
			ref, err := parseLinkRef(simLinks[0])
			if err != nil {
				return err
			}
			scenarios = []simulate.Scenario{{Kind: simulate.LinkDown, Links: []simulate.LinkRef{ref}}}
		case len(simLinks) > 1:
			refs := make([]simulate.LinkRef, 0, len(simLinks))
			for _, l := range simLinks {
				ref, err := parseLinkRef(l)
				if err != nil {
					return err
				}
				refs = append(refs, ref)
			}
			scenarios = []simulate.Scenario{{Kind: simulate.MultiLink, Links: refs}}
		default:
			return util.NewIntentError("scenario", "", "no failure specified",
				"use --node, --link, --cascade or --canonical")
		}

		for _, sc := range scenarios {
			res, err := simulate.Simulate(topo, sc)
			if err != nil {
				return err
			}
			if jsonOutput {
				if err := json.NewEncoder(os.Stdout).Encode(res); err != nil {
					return err
				}
				continue
			}
			fmt.Printf("%s: %.1f%% connectivity loss, severity %s, recovery ~%ds\n",
				res.Description, res.ConnectivityLoss, res.Severity, res.RecoverySeconds)
			if res.Partitioned {
				fmt.Printf("  partitioned into %d components (%d isolated)\n",
					len(res.Components), res.IsolatedCount)
			}
		}
		return nil
	},
}

// parseLinkRef accepts "A-B" or "A:ifaceA-B:ifaceB".
func parseLinkRef(s string) (simulate.LinkRef, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return simulate.LinkRef{}, util.NewIntentError("link", s,
			"link must be 'A-B' or 'A:iface-B:iface'", "")
	}
	var ref simulate.LinkRef
	a := strings.SplitN(parts[0], ":", 2)
	b := strings.SplitN(parts[1], ":", 2)
	ref.A = a[0]
	ref.B = b[0]
	if len(a) == 2 {
		ref.AIface = a[1]
	}
	if len(b) == 2 {
		ref.BIface = b[1]
	}
	return ref, nil
}

func init() {
	simulateCmd.Flags().StringVarP(&simTopoFile, "topology", "t", "", "topology YAML file (required)")
	simulateCmd.Flags().StringVar(&simNode, "node", "", "simulate failure of this device")
	simulateCmd.Flags().StringArrayVar(&simLinks, "link", nil, "simulate failure of this link (repeatable)")
	simulateCmd.Flags().StringVar(&simCascade, "cascade", "", "simulate a cascade starting at this device")
	simulateCmd.Flags().IntVar(&simDepth, "depth", 2, "cascade depth")
	simulateCmd.Flags().BoolVar(&simCanonical, "canonical", false, "run the three canonical scenarios")
	simulateCmd.MarkFlagRequired("topology")
}
