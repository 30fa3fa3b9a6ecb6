// Package analyze computes graph-theoretic findings and a health
// score for a topology. Analysis is read-only and deterministic: the
// same topology always yields the same result.
package analyze

import (
	"fmt"
	"sort"
	"strings"

	"github.com/topoforge-network/topoforge/pkg/graph"
	"github.com/topoforge-network/topoforge/pkg/topology"
	"github.com/topoforge-network/topoforge/pkg/util"
)

// RiskLevel tiers a finding by blast radius.
type RiskLevel string

const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskMedium   RiskLevel = "medium"
	RiskLow      RiskLevel = "low"
)

// riskFromImpact tiers an impact percentage: above 50 critical,
// above 25 high, 10 and above medium, else low.
func riskFromImpact(pct float64) RiskLevel {
	switch {
	case pct > 50:
		return RiskCritical
	case pct > 25:
		return RiskHigh
	case pct >= 10:
		return RiskMedium
	default:
		return RiskLow
	}
}

// SPOF is an articulation point annotated with the share of devices
// cut off from the rest of the network when it fails.
type SPOF struct {
	Device        string    `json:"device"`
	ImpactPercent float64   `json:"impact_percent"`
	Risk          RiskLevel `json:"risk"`
	Dependent     []string  `json:"dependent_devices"`
	Remedy        string    `json:"remedy"`
}

// UnbalancedPair is a device pair whose edge-disjoint paths differ
// too much in length for even load sharing.
type UnbalancedPair struct {
	A              string  `json:"a"`
	B              string  `json:"b"`
	MinHops        int     `json:"min_hops"`
	MaxHops        int     `json:"max_hops"`
	Balance        float64 `json:"balance"`
	Recommendation string  `json:"recommendation"`
}

// OverloadedNode is a device whose degree exceeds 1.5x the mean.
type OverloadedNode struct {
	Device         string  `json:"device"`
	Degree         int     `json:"degree"`
	MeanDegree     float64 `json:"mean_degree"`
	LoadPercent    float64 `json:"load_percent"`
	Recommendation string  `json:"recommendation"`
}

// Metrics summarizes the topology's shape.
type Metrics struct {
	Devices          int     `json:"devices"`
	Links            int     `json:"links"`
	Diameter         int     `json:"diameter"`
	Connectivity     float64 `json:"connectivity"`
	RedundancyFactor float64 `json:"redundancy_factor"`
	AvgDegree        float64 `json:"avg_degree"`
}

// Result is the complete analysis of one topology.
type Result struct {
	TopologyName    string           `json:"topology_name"`
	SPOFs           []SPOF           `json:"spofs"`
	UnbalancedPairs []UnbalancedPair `json:"unbalanced_pairs"`
	Overloaded      []OverloadedNode `json:"overloaded_nodes"`
	Metrics         Metrics          `json:"metrics"`
	HealthScore     float64          `json:"health_score"`
	HealthStatus    string           `json:"health_status"`
	Summary         string           `json:"summary"`
}

// Analyze inspects a topology and reports findings. Topologies with
// fewer than two devices are trivially healthy.
func Analyze(topo *topology.Topology) *Result {
	res := &Result{TopologyName: topo.Name}

	if len(topo.Devices) < 2 {
		res.HealthScore = 100
		res.HealthStatus = healthStatus(100)
		res.Summary = fmt.Sprintf("Topology %q has fewer than two devices; nothing to analyze. Score 100/100.", topo.Name)
		return res
	}

	g := graph.FromTopology(topo)
	pairs := g.SamplePairs(topo.Name)

	res.Metrics = computeMetrics(g, pairs)
	res.SPOFs = findSPOFs(topo, g)
	res.UnbalancedPairs = findUnbalanced(g, pairs)
	res.Overloaded = findOverloaded(topo, g, res.Metrics.AvgDegree)
	res.HealthScore = healthScore(res)
	res.HealthStatus = healthStatus(res.HealthScore)
	res.Summary = summarize(res)

	util.WithTopology(topo.Name).Infof("analysis complete: health %.0f/100, %d SPOFs",
		res.HealthScore, len(res.SPOFs))
	return res
}

func computeMetrics(g *graph.Graph, pairs []graph.Pair) Metrics {
	m := Metrics{
		Devices:      g.NodeCount(),
		Links:        g.EdgeCount(),
		Diameter:     g.Diameter(),
		Connectivity: g.Density(),
	}
	if m.Devices > 0 {
		m.AvgDegree = 2 * float64(m.Links) / float64(m.Devices)
	}

	if len(pairs) > 0 {
		total := 0
		for _, p := range pairs {
			total += g.EdgeDisjointPaths(p.A, p.B)
		}
		m.RedundancyFactor = float64(total) / float64(len(pairs))
	}
	return m
}

// findSPOFs annotates each articulation point with the percentage of
// devices unreachable from a fixed non-articulation anchor after the
// point is removed.
func findSPOFs(topo *topology.Topology, g *graph.Graph) []SPOF {
	aps := g.ArticulationPoints()
	if len(aps) == 0 {
		return nil
	}
	apSet := make(map[string]bool, len(aps))
	for _, ap := range aps {
		apSet[ap] = true
	}

	total := g.NodeCount()
	var spofs []SPOF
	for _, ap := range aps {
		anchor := ""
		for _, d := range topo.Devices {
			if d.Name != ap && !apSet[d.Name] {
				anchor = d.Name
				break
			}
		}

		cut := g.Copy()
		cut.RemoveNode(ap)

		reachable := 0
		var dependent []string
		if anchor != "" {
			for _, comp := range cut.ConnectedComponents() {
				found := false
				for _, n := range comp {
					if n == anchor {
						found = true
						break
					}
				}
				if found {
					reachable = len(comp)
					break
				}
			}
			inAnchorComp := make(map[string]bool)
			for _, comp := range cut.ConnectedComponents() {
				for _, n := range comp {
					if n == anchor {
						for _, m := range comp {
							inAnchorComp[m] = true
						}
					}
				}
			}
			for _, d := range topo.Devices {
				if d.Name != ap && d.Name != anchor && !inAnchorComp[d.Name] {
					dependent = append(dependent, d.Name)
				}
			}
			sort.Strings(dependent)
		}

		pct := float64(total-reachable) / float64(total) * 100

		hint := dependent
		if len(hint) > 3 {
			hint = hint[:3]
		}
		remedy := fmt.Sprintf("Add redundant links around %s (currently %d links).", ap, g.Degree(ap))
		if len(hint) > 0 {
			remedy += " Consider backup connections for: " + strings.Join(hint, ", ")
		}

		spofs = append(spofs, SPOF{
			Device:        ap,
			ImpactPercent: round1(pct),
			Risk:          riskFromImpact(pct),
			Dependent:     dependent,
			Remedy:        remedy,
		})
	}
	return spofs
}

// findUnbalanced compares hop counts across up to three edge-
// disjoint paths per pair and reports pairs with balance below 0.5.
func findUnbalanced(g *graph.Graph, pairs []graph.Pair) []UnbalancedPair {
	var out []UnbalancedPair
	for _, p := range pairs {
		lengths := disjointPathLengths(g, p.A, p.B, 3)
		if len(lengths) < 2 {
			continue
		}
		min, max := lengths[0], lengths[0]
		for _, l := range lengths[1:] {
			if l < min {
				min = l
			}
			if l > max {
				max = l
			}
		}
		if max == 0 {
			continue
		}
		balance := float64(min) / float64(max)
		if balance < 0.5 {
			out = append(out, UnbalancedPair{
				A: p.A, B: p.B,
				MinHops: min, MaxHops: max,
				Balance: round3(balance),
				Recommendation: fmt.Sprintf(
					"Paths between %s and %s range from %d to %d hops; adjust OSPF costs to rebalance.",
					p.A, p.B, min, max),
			})
		}
	}
	return out
}

// disjointPathLengths greedily extracts up to limit edge-disjoint
// shortest paths, returning their hop counts.
func disjointPathLengths(g *graph.Graph, a, b string, limit int) []int {
	work := g.Copy()
	var lengths []int
	for i := 0; i < limit; i++ {
		path, ok := work.ShortestPath(a, b)
		if !ok {
			break
		}
		lengths = append(lengths, len(path)-1)
		for j := 0; j+1 < len(path); j++ {
			work.RemoveEdge(path[j], path[j+1])
		}
	}
	return lengths
}

func findOverloaded(topo *topology.Topology, g *graph.Graph, mean float64) []OverloadedNode {
	if mean == 0 {
		return nil
	}
	var out []OverloadedNode
	for _, d := range topo.Devices {
		deg := g.Degree(d.Name)
		if float64(deg) > 1.5*mean {
			out = append(out, OverloadedNode{
				Device:      d.Name,
				Degree:      deg,
				MeanDegree:  round1(mean),
				LoadPercent: round1(float64(deg) / mean * 100),
				Recommendation: fmt.Sprintf(
					"Device %s carries %d links against a mean of %.1f; add an aggregation point to spread load.",
					d.Name, deg, mean),
			})
		}
	}
	return out
}

// healthScore applies the scoring contract: 100 minus 30/20/10/5 per
// critical/high/medium/low SPOF or unbalanced-path issue, plus 10
// when density reaches 0.6 and 10 when the redundancy factor reaches
// 2.0, clamped to [0, 100].
func healthScore(res *Result) float64 {
	score := 100.0
	for _, s := range res.SPOFs {
		score -= riskPenalty(s.Risk)
	}
	for range res.UnbalancedPairs {
		score -= riskPenalty(RiskLow)
	}
	if res.Metrics.Connectivity >= 0.6 {
		score += 10
	}
	if res.Metrics.RedundancyFactor >= 2.0 {
		score += 10
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

func riskPenalty(r RiskLevel) float64 {
	switch r {
	case RiskCritical:
		return 30
	case RiskHigh:
		return 20
	case RiskMedium:
		return 10
	default:
		return 5
	}
}

func healthStatus(score float64) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "good"
	case score >= 40:
		return "fair"
	default:
		return "poor"
	}
}

// summarize names the worst single issue and the score.
func summarize(res *Result) string {
	worst := "no structural issues"
	if len(res.SPOFs) > 0 {
		top := res.SPOFs[0]
		for _, s := range res.SPOFs[1:] {
			if riskPenalty(s.Risk) > riskPenalty(top.Risk) {
				top = s
			}
		}
		worst = fmt.Sprintf("worst issue: %s SPOF at %s (%.1f%% impact)", top.Risk, top.Device, top.ImpactPercent)
	} else if len(res.UnbalancedPairs) > 0 {
		u := res.UnbalancedPairs[0]
		worst = fmt.Sprintf("worst issue: unbalanced paths between %s and %s (balance %.2f)", u.A, u.B, u.Balance)
	}
	return fmt.Sprintf("Topology %q: %d devices, %d links, diameter %d; %s; health %.0f/100 (%s).",
		res.TopologyName, res.Metrics.Devices, res.Metrics.Links, res.Metrics.Diameter,
		worst, res.HealthScore, res.HealthStatus)
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}
