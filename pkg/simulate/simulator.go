// Package simulate removes nodes and links from a copy of a
// topology's graph and reports the connectivity impact. The input
// topology is never mutated.
package simulate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/topoforge-network/topoforge/pkg/graph"
	"github.com/topoforge-network/topoforge/pkg/topology"
	"github.com/topoforge-network/topoforge/pkg/util"
)

// ScenarioKind identifies the failure class.
type ScenarioKind string

const (
	NodeDown  ScenarioKind = "node-down"
	LinkDown  ScenarioKind = "link-down"
	MultiLink ScenarioKind = "multi-link"
	Cascade   ScenarioKind = "cascade"
)

// Recovery estimates per scenario kind, in seconds. These are a
// convention, not a measurement.
const (
	recoveryNode    = 30
	recoveryLink    = 10
	recoveryMulti   = 45
	recoveryCascade = 60
)

// LinkRef names one link by its endpoints. Interface labels
// disambiguate parallel links; empty labels match the first link
// between the pair.
type LinkRef struct {
	A      string `json:"a"`
	B      string `json:"b"`
	AIface string `json:"a_iface,omitempty"`
	BIface string `json:"b_iface,omitempty"`
}

func (r LinkRef) String() string {
	if r.AIface != "" {
		return fmt.Sprintf("%s:%s-%s:%s", r.A, r.AIface, r.B, r.BIface)
	}
	return r.A + "-" + r.B
}

// Scenario describes one failure to simulate.
type Scenario struct {
	Kind  ScenarioKind `json:"kind"`
	Node  string       `json:"node,omitempty"`  // NodeDown target or Cascade seed
	Links []LinkRef    `json:"links,omitempty"` // LinkDown (one) or MultiLink (several)
	Depth int          `json:"depth,omitempty"` // Cascade iterations
}

// Describe renders the scenario for reports and persistence.
func (s Scenario) Describe() string {
	switch s.Kind {
	case NodeDown:
		return "node failure: " + s.Node
	case LinkDown:
		if len(s.Links) > 0 {
			return "link failure: " + s.Links[0].String()
		}
		return "link failure"
	case MultiLink:
		parts := make([]string, len(s.Links))
		for i, l := range s.Links {
			parts[i] = l.String()
		}
		return "multiple link failure: " + strings.Join(parts, ", ")
	case Cascade:
		return fmt.Sprintf("cascade from %s (depth %d)", s.Node, s.Depth)
	}
	return string(s.Kind)
}

// AffectedRoute records a device pair that was reachable before the
// failure, with its pre-failure path.
type AffectedRoute struct {
	A         string   `json:"a"`
	B         string   `json:"b"`
	PrePath   []string `json:"pre_path"`
	Reachable bool     `json:"reachable_after"`
}

// Result is the outcome of one simulated failure.
type Result struct {
	TopologyName    string          `json:"topology_name"`
	Kind            ScenarioKind    `json:"kind"`
	Description     string          `json:"description"`
	BrokenRoutes    []AffectedRoute `json:"broken_routes"`
	ReachablePairs  int             `json:"reachable_pairs"`
	BrokenPairs     int             `json:"broken_pairs"`
	Partitioned     bool            `json:"partitioned"`
	Components      [][]string      `json:"components"`
	IsolatedCount   int             `json:"isolated_count"`
	ConnectivityLoss float64        `json:"connectivity_loss_pct"`
	Severity        string          `json:"severity"`
	RecoverySeconds int             `json:"recovery_seconds"`
}

// Simulate applies a failure scenario to a copy of the topology's
// graph. Unknown devices or links are rejected without touching any
// state.
func Simulate(topo *topology.Topology, sc Scenario) (*Result, error) {
	g := graph.FromTopology(topo)

	if err := checkScenario(topo, g, sc); err != nil {
		return nil, err
	}

	cut := g.Copy()
	removedNodes := applyScenario(cut, g, sc)

	pairs := g.SamplePairs(topo.Name)
	res := &Result{
		TopologyName:    topo.Name,
		Kind:            sc.Kind,
		Description:     sc.Describe(),
		RecoverySeconds: recoveryEstimate(sc.Kind),
	}

	for _, p := range pairs {
		pre, ok := g.ShortestPath(p.A, p.B)
		if !ok {
			continue
		}
		res.ReachablePairs++
		if removedNodes[p.A] || removedNodes[p.B] {
			res.BrokenPairs++
			res.BrokenRoutes = append(res.BrokenRoutes, AffectedRoute{A: p.A, B: p.B, PrePath: pre})
			continue
		}
		if _, still := cut.ShortestPath(p.A, p.B); !still {
			res.BrokenPairs++
			res.BrokenRoutes = append(res.BrokenRoutes, AffectedRoute{A: p.A, B: p.B, PrePath: pre})
		}
	}

	res.Components = cut.ConnectedComponents()
	res.Partitioned = len(res.Components) > 1
	for _, comp := range res.Components {
		if len(comp) == 1 {
			res.IsolatedCount++
		}
	}
	if res.ReachablePairs > 0 {
		res.ConnectivityLoss = round1(float64(res.BrokenPairs) / float64(res.ReachablePairs) * 100)
	}
	res.Severity = severity(res.ConnectivityLoss)

	util.WithTopology(topo.Name).Infof("simulated %s: %.1f%% connectivity loss (%s)",
		sc.Describe(), res.ConnectivityLoss, res.Severity)
	return res, nil
}

func checkScenario(topo *topology.Topology, g *graph.Graph, sc Scenario) error {
	switch sc.Kind {
	case NodeDown, Cascade:
		if !g.HasNode(sc.Node) {
			return util.NewIntentError("node", sc.Node, "device does not exist in topology",
				"name an existing device")
		}
		if sc.Kind == Cascade && sc.Depth < 0 {
			return util.NewIntentError("depth", sc.Depth, "cascade depth must be nonnegative", "")
		}
	case LinkDown:
		if len(sc.Links) != 1 {
			return util.NewIntentError("links", len(sc.Links), "link-down takes exactly one link", "")
		}
		return checkLinks(topo, sc.Links)
	case MultiLink:
		if len(sc.Links) == 0 {
			return util.NewIntentError("links", 0, "multi-link takes at least one link", "")
		}
		return checkLinks(topo, sc.Links)
	default:
		return util.NewIntentError("kind", sc.Kind, "unknown scenario kind", "")
	}
	return nil
}

func checkLinks(topo *topology.Topology, refs []LinkRef) error {
	for _, r := range refs {
		if !linkExists(topo, r) {
			return util.NewIntentError("link", r.String(), "link does not exist in topology",
				"name an existing link")
		}
	}
	return nil
}

func linkExists(topo *topology.Topology, r LinkRef) bool {
	for _, l := range topo.Links {
		if matchLink(l, r) {
			return true
		}
	}
	return false
}

func matchLink(l topology.Link, r LinkRef) bool {
	forward := l.A == r.A && l.B == r.B
	reverse := l.A == r.B && l.B == r.A
	if !forward && !reverse {
		return false
	}
	if r.AIface == "" && r.BIface == "" {
		return true
	}
	if forward {
		return l.AIface == r.AIface && l.BIface == r.BIface
	}
	return l.AIface == r.BIface && l.BIface == r.AIface
}

// applyScenario mutates the working copy and returns the set of
// removed nodes.
func applyScenario(cut, orig *graph.Graph, sc Scenario) map[string]bool {
	removed := make(map[string]bool)
	switch sc.Kind {
	case NodeDown:
		cut.RemoveNode(sc.Node)
		removed[sc.Node] = true
	case LinkDown, MultiLink:
		for _, r := range sc.Links {
			if r.AIface != "" || r.BIface != "" {
				if !cut.RemoveEdgeByIface(r.A, r.AIface, r.B, r.BIface) {
					cut.RemoveEdge(r.A, r.B)
				}
			} else {
				cut.RemoveEdge(r.A, r.B)
			}
		}
	case Cascade:
		cut.RemoveNode(sc.Node)
		removed[sc.Node] = true
		frontier := orig.Neighbors(sc.Node)
		for d := 0; d < sc.Depth; d++ {
			var next []string
			for _, n := range frontier {
				if !removed[n] && cut.Degree(n) < 1 {
					cut.RemoveNode(n)
					removed[n] = true
					next = append(next, orig.Neighbors(n)...)
				}
			}
			if len(next) == 0 {
				break
			}
			sort.Strings(next)
			frontier = next
		}
	}
	return removed
}

func recoveryEstimate(kind ScenarioKind) int {
	switch kind {
	case NodeDown:
		return recoveryNode
	case LinkDown:
		return recoveryLink
	case MultiLink:
		return recoveryMulti
	case Cascade:
		return recoveryCascade
	}
	return recoveryNode
}

// severity tiers connectivity loss at the 50/25/10 thresholds.
func severity(lossPct float64) string {
	switch {
	case lossPct >= 50:
		return "critical"
	case lossPct >= 25:
		return "high"
	case lossPct >= 10:
		return "medium"
	default:
		return "low"
	}
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
