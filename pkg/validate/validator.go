// Package validate scores a synthesized topology against its intent.
// Validation is a pure function of its inputs: identical topology,
// analysis, simulation results and intent always produce an
// identical record.
package validate

import (
	"fmt"
	"sort"

	"github.com/topoforge-network/topoforge/pkg/analyze"
	"github.com/topoforge-network/topoforge/pkg/graph"
	"github.com/topoforge-network/topoforge/pkg/intent"
	"github.com/topoforge-network/topoforge/pkg/simulate"
	"github.com/topoforge-network/topoforge/pkg/topology"
	"github.com/topoforge-network/topoforge/pkg/util"
)

// Scoring weights and penalties. These are contractual; changing
// them requires migrating stored performance aggregates.
const (
	weightRedundancy    = 0.40
	weightPathDiversity = 0.35
	weightResilience    = 0.25

	penaltyMaxHops = 20
	penaltySPOF    = 30
	penaltyPattern = 15

	satisfiedThreshold = 70
)

// Result is the validation record for one topology.
type Result struct {
	TopologyName       string   `json:"topology_name"`
	Satisfied          bool     `json:"satisfied"`
	OverallScore       float64  `json:"overall_score"`
	RedundancyScore    float64  `json:"redundancy_score"`
	PathDiversityScore float64  `json:"path_diversity_score"`
	ResilienceScore    float64  `json:"resilience_score"`
	MaxHopsOK          bool     `json:"max_hops_ok"`
	ActualMaxHops      int      `json:"actual_max_hops"`
	SPOFEliminated     bool     `json:"spof_eliminated"`
	RemainingSPOFs     int      `json:"remaining_spofs"`
	PatternMatched     bool     `json:"pattern_matched"`
	Violations         []string `json:"violations"`
}

// Validate compares a topology and its analysis against the intent.
// Simulation results feed the resilience share of the overall score.
func Validate(topo *topology.Topology, analysis *analyze.Result, sims []*simulate.Result, in *intent.Intent) *Result {
	g := graph.FromTopology(topo)
	target := in.Redundancy.Target()

	res := &Result{TopologyName: topo.Name}

	// Redundancy and path diversity over the sampled pair set.
	pairs := g.SamplePairs(topo.Name)
	minEDP := -1
	meeting := 0
	for _, p := range pairs {
		edp := g.EdgeDisjointPathsUpTo(p.A, p.B, target+1)
		if minEDP == -1 || edp < minEDP {
			minEDP = edp
		}
		if edp >= target {
			meeting++
		}
	}
	if minEDP < 0 {
		minEDP = 0
	}
	res.RedundancyScore = round1(min100(100 * float64(minEDP) / float64(target)))
	if len(pairs) > 0 {
		res.PathDiversityScore = round1(100 * float64(meeting) / float64(len(pairs)))
	}

	// Resilience: invert the mean connectivity loss of the canonical
	// simulations. Without simulation data the share is neutral.
	if len(sims) > 0 {
		total := 0.0
		for _, s := range sims {
			total += s.ConnectivityLoss
		}
		res.ResilienceScore = round1(100 - total/float64(len(sims)))
	} else {
		res.ResilienceScore = 50
	}

	res.ActualMaxHops = analysis.Metrics.Diameter
	res.MaxHopsOK = res.ActualMaxHops <= in.MaxHops
	res.RemainingSPOFs = len(analysis.SPOFs)
	res.SPOFEliminated = res.RemainingSPOFs == 0
	res.PatternMatched = patternMatched(in.Pattern, topo, g)

	score := weightRedundancy*res.RedundancyScore +
		weightPathDiversity*res.PathDiversityScore +
		weightResilience*res.ResilienceScore
	if !res.MaxHopsOK {
		score -= penaltyMaxHops
	}
	if in.MinimizeSPOF && !res.SPOFEliminated {
		score -= penaltySPOF
	}
	if !res.PatternMatched {
		score -= penaltyPattern
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	res.OverallScore = round1(score)

	res.Violations = collectViolations(res, analysis, in)

	// A critical-tier SPOF fails validation even when the intent
	// tolerates SPOFs: losing more than half the network to one
	// device is never an acceptable design. Lower tiers stay
	// advisory.
	criticalSPOF := false
	for _, s := range analysis.SPOFs {
		if s.Risk == analyze.RiskCritical {
			criticalSPOF = true
			break
		}
	}

	hardViolation := !res.MaxHopsOK ||
		(in.MinimizeSPOF && !res.SPOFEliminated) ||
		!res.PatternMatched ||
		criticalSPOF
	res.Satisfied = res.OverallScore >= satisfiedThreshold && !hardViolation

	util.WithTopology(topo.Name).Infof("validation: score %.1f, satisfied %v, %d violations",
		res.OverallScore, res.Satisfied, len(res.Violations))
	return res
}

// collectViolations builds the ordered violation list: hard
// violations first, then advisory findings.
func collectViolations(res *Result, analysis *analyze.Result, in *intent.Intent) []string {
	var out []string

	if !res.MaxHopsOK {
		out = append(out, fmt.Sprintf(
			"diameter %d exceeds max_hops %d (increase max_hops or choose a denser pattern)",
			res.ActualMaxHops, in.MaxHops))
	}
	if in.MinimizeSPOF && !res.SPOFEliminated {
		out = append(out, fmt.Sprintf(
			"%d single points of failure remain despite minimize_spof (raise redundancy)",
			res.RemainingSPOFs))
	}
	if !res.PatternMatched {
		out = append(out, fmt.Sprintf("topology structure does not match the %s pattern", in.Pattern))
	}
	if res.RedundancyScore < 100 {
		out = append(out, fmt.Sprintf(
			"redundancy score %.1f below target for %s redundancy", res.RedundancyScore, in.Redundancy))
	}

	// SPOFs are reported even when the intent tolerates them; only a
	// critical-tier SPOF fails the validation (see Validate).
	if !in.MinimizeSPOF && res.RemainingSPOFs > 0 {
		names := make([]string, 0, len(analysis.SPOFs))
		for _, s := range analysis.SPOFs {
			names = append(names, fmt.Sprintf("%s (%s, %.1f%% impact)", s.Device, s.Risk, s.ImpactPercent))
		}
		sort.Strings(names)
		for _, n := range names {
			out = append(out, "single point of failure at "+n)
		}
	}
	if in.Pattern == intent.FullMesh && in.SiteCount > 10 {
		out = append(out, fmt.Sprintf(
			"full mesh over %d sites is cost-excessive; consider leaf-spine or tree", in.SiteCount))
	}
	return out
}

// patternMatched performs the structural check for the declared
// pattern.
func patternMatched(p intent.Pattern, topo *topology.Topology, g *graph.Graph) bool {
	switch p {
	case intent.FullMesh:
		return fullMeshMatched(topo, g)
	case intent.HubSpoke:
		return hubSpokeMatched(topo, g)
	case intent.Ring:
		return ringMatched(topo, g)
	case intent.Tree:
		return treeMatched(topo, g)
	case intent.LeafSpine:
		return leafSpineMatched(topo, g)
	case intent.Hybrid:
		return g.Connected()
	}
	return false
}

func fullMeshMatched(topo *topology.Topology, g *graph.Graph) bool {
	for i := range topo.Devices {
		for j := i + 1; j < len(topo.Devices); j++ {
			if !adjacent(g, topo.Devices[i].Name, topo.Devices[j].Name) {
				return false
			}
		}
	}
	return true
}

// hubSpokeMatched accepts any topology with a device adjacent to
// every other device; a dual-hub variant satisfies this through its
// primary hub.
func hubSpokeMatched(topo *topology.Topology, g *graph.Graph) bool {
	for _, hub := range topo.Devices {
		all := true
		for _, other := range topo.Devices {
			if other.Name == hub.Name {
				continue
			}
			if !adjacent(g, hub.Name, other.Name) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// ringMatched: a connected graph where every device keeps at least
// its two ring neighbors. A two-site ring collapses to one link.
func ringMatched(topo *topology.Topology, g *graph.Graph) bool {
	if !g.Connected() {
		return false
	}
	if len(topo.Devices) == 2 {
		return len(topo.Links) >= 1
	}
	for _, d := range topo.Devices {
		if len(g.Neighbors(d.Name)) < 2 {
			return false
		}
	}
	return true
}

// treeMatched: connected, hierarchical (at least one router) and
// lean — a tree with duplicated aggregation stays well under two
// links per device.
func treeMatched(topo *topology.Topology, g *graph.Graph) bool {
	if !g.Connected() {
		return false
	}
	if len(topo.Routers()) == 0 {
		return false
	}
	return len(topo.Links) <= 2*len(topo.Devices)
}

// leafSpineMatched: bipartite with every leaf adjacent to every
// spine.
func leafSpineMatched(topo *topology.Topology, g *graph.Graph) bool {
	if len(topo.Devices) < 2 {
		return false
	}
	color := make(map[string]int, len(topo.Devices))
	for _, d := range topo.Devices {
		if _, done := color[d.Name]; done {
			continue
		}
		color[d.Name] = 0
		queue := []string{d.Name}
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			for _, v := range g.Neighbors(u) {
				if c, seen := color[v]; seen {
					if c == color[u] {
						return false
					}
					continue
				}
				color[v] = 1 - color[u]
				queue = append(queue, v)
			}
		}
	}
	var side0, side1 []string
	for name, c := range color {
		if c == 0 {
			side0 = append(side0, name)
		} else {
			side1 = append(side1, name)
		}
	}
	for _, a := range side0 {
		for _, b := range side1 {
			if !adjacent(g, a, b) {
				return false
			}
		}
	}
	return true
}

func adjacent(g *graph.Graph, a, b string) bool {
	for _, n := range g.Neighbors(a) {
		if n == b {
			return true
		}
	}
	return false
}

func min100(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
