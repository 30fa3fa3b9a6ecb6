package synth

import (
	"math"
	"sort"

	"github.com/topoforge-network/topoforge/pkg/graph"
	"github.com/topoforge-network/topoforge/pkg/intent"
	"github.com/topoforge-network/topoforge/pkg/topology"
	"github.com/topoforge-network/topoforge/pkg/util"
)

// pairScore is a device pair with its current edge-disjoint-path
// count, capped at the intent's target.
type pairScore struct {
	a, b string
	edp  int
}

// addRedundancy grows the topology until every eligible pair has at
// least the target number of edge-disjoint paths, or the pattern's
// link budget is exhausted. Candidate edges are constrained per
// pattern so augmentation never destroys the structural family the
// intent asked for.
func (s *Synthesizer) addRedundancy(b *builder, topo *topology.Topology, in *intent.Intent, cons intent.Constraints) error {
	target := cons.PathTarget
	budget := int(math.Ceil(budgetMultiplier(in.Pattern) * float64(len(topo.Links))))
	if budget < len(topo.Links) {
		budget = len(topo.Links)
	}

	if err := s.ensureMinConnections(b, topo, in, cons, budget); err != nil {
		return err
	}
	if target <= 1 {
		return nil
	}

	for {
		g := graph.FromTopology(topo)
		checked := scorePairs(g, s.eligiblePairs(g, topo, in), target)

		minEDP := target
		for _, p := range checked {
			if p.edp < minEDP {
				minEDP = p.edp
			}
		}
		if minEDP >= target {
			return nil
		}
		if len(topo.Links) >= budget {
			return util.NewSynthesisError(string(in.Pattern),
				"link budget exhausted before reaching the redundancy target",
				"lower the redundancy level or choose a denser pattern")
		}

		cands := s.candidatePairs(g, topo, in, checked)
		if len(cands) == 0 {
			return util.NewSynthesisError(string(in.Pattern),
				"no edge candidates can raise path diversity under this pattern",
				"lower the redundancy level or choose a denser pattern")
		}
		cands = scorePairs(g, cands, target)
		sort.Slice(cands, func(i, j int) bool {
			if cands[i].edp != cands[j].edp {
				return cands[i].edp < cands[j].edp
			}
			if cands[i].a != cands[j].a {
				return cands[i].a < cands[j].a
			}
			return cands[i].b < cands[j].b
		})

		pick := cands[0]
		link, err := b.link(pick.a, pick.b, classRedundancy, in.DesignGoal)
		if err != nil {
			return err
		}
		topo.Links = append(topo.Links, link)
		util.WithTopology(topo.Name).Debugf("redundancy link %s-%s (edp %d < %d)",
			pick.a, pick.b, pick.edp, target)
	}
}

// ensureMinConnections raises device degrees to the intent's
// min_connections_per_site floor before the path-diversity pass.
func (s *Synthesizer) ensureMinConnections(b *builder, topo *topology.Topology, in *intent.Intent, cons intent.Constraints, budget int) error {
	min := cons.MinConnections
	if in.MinConnsPerSite <= 0 {
		return nil
	}
	for {
		g := graph.FromTopology(topo)
		var deficit string
		for _, d := range topo.Devices {
			if g.Degree(d.Name) < min {
				deficit = d.Name
				break
			}
		}
		if deficit == "" {
			return nil
		}
		if len(topo.Links) >= budget {
			return util.NewSynthesisError(string(in.Pattern),
				"link budget exhausted before reaching min_connections_per_site",
				"lower min_connections_per_site")
		}
		peer := s.bestPeer(g, topo, in, deficit)
		if peer == "" {
			return util.NewSynthesisError(string(in.Pattern),
				"no peer available to satisfy min_connections_per_site", "")
		}
		link, err := b.link(deficit, peer, classRedundancy, in.DesignGoal)
		if err != nil {
			return err
		}
		topo.Links = append(topo.Links, link)
	}
}

// bestPeer picks the lexicographically smallest allowed peer for a
// degree-deficient device, preferring non-adjacent devices.
func (s *Synthesizer) bestPeer(g *graph.Graph, topo *topology.Topology, in *intent.Intent, dev string) string {
	adjacent := make(map[string]bool)
	for _, n := range g.Neighbors(dev) {
		adjacent[n] = true
	}
	var fallback string
	for _, d := range sortedNames(topo) {
		if d == dev || !allowedPair(in.Pattern, topo, dev, d) {
			continue
		}
		if !adjacent[d] {
			return d
		}
		if fallback == "" {
			fallback = d
		}
	}
	return fallback
}

func sortedNames(topo *topology.Topology) []string {
	names := make([]string, len(topo.Devices))
	for i, d := range topo.Devices {
		names[i] = d.Name
	}
	sort.Strings(names)
	return names
}

func scorePairs(g *graph.Graph, pairs []pairScore, target int) []pairScore {
	out := make([]pairScore, len(pairs))
	for i, p := range pairs {
		out[i] = pairScore{a: p.a, b: p.b, edp: g.EdgeDisjointPathsUpTo(p.a, p.b, target)}
	}
	return out
}

// eligiblePairs is the set of pairs the redundancy target applies
// to. Hierarchical patterns exempt access-tier switches: a tree's
// single-homed edge switch is an accepted design property, while its
// routed tiers must meet the target.
func (s *Synthesizer) eligiblePairs(g *graph.Graph, topo *topology.Topology, in *intent.Intent) []pairScore {
	hierarchical := in.Pattern == intent.Tree || in.Pattern == intent.Hybrid

	var names []string
	for _, d := range topo.Devices {
		if hierarchical && !d.IsRouter() {
			continue
		}
		names = append(names, d.Name)
	}

	if len(names) > graph.SampleLimit {
		eligible := make(map[string]bool, len(names))
		for _, n := range names {
			eligible[n] = true
		}
		var out []pairScore
		for _, p := range g.SamplePairs(topo.Name) {
			if eligible[p.A] && eligible[p.B] {
				out = append(out, pairScore{a: p.A, b: p.B})
			}
		}
		return out
	}
	var out []pairScore
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			out = append(out, pairScore{a: names[i], b: names[j]})
		}
	}
	return out
}

// candidatePairs is the set of pairs augmentation may link, filtered
// to preserve the declared pattern.
func (s *Synthesizer) candidatePairs(g *graph.Graph, topo *topology.Topology, in *intent.Intent, checked []pairScore) []pairScore {
	var out []pairScore
	seen := make(map[string]bool)
	add := func(a, b string) {
		if a > b {
			a, b = b, a
		}
		k := a + "|" + b
		if !seen[k] {
			seen[k] = true
			out = append(out, pairScore{a: a, b: b})
		}
	}

	switch in.Pattern {
	case intent.LeafSpine, intent.HubSpoke, intent.FullMesh:
		// Restricted patterns: re-linking existing adjacencies (as
		// parallel links on fresh interfaces) preserves structure.
		for _, l := range topo.Links {
			add(l.A, l.B)
		}
	default:
		for _, p := range checked {
			if allowedPair(in.Pattern, topo, p.a, p.b) {
				add(p.a, p.b)
			}
		}
	}
	return out
}

// allowedPair reports whether a new edge between two devices keeps
// the declared pattern recognizable.
func allowedPair(p intent.Pattern, topo *topology.Topology, a, b string) bool {
	if a == b {
		return false
	}
	switch p {
	case intent.LeafSpine:
		da, errA := topo.DeviceByName(a)
		db, errB := topo.DeviceByName(b)
		if errA != nil || errB != nil {
			return false
		}
		// Only leaf-spine edges keep the graph bipartite.
		return (da.Name[0] == 'L' && db.Name[0] == 'S') || (da.Name[0] == 'S' && db.Name[0] == 'L')
	case intent.HubSpoke:
		// New edges must terminate on a hub.
		return a == "R1" || b == "R1" || a == "R2" || b == "R2"
	case intent.Tree, intent.Hybrid:
		da, errA := topo.DeviceByName(a)
		db, errB := topo.DeviceByName(b)
		if errA != nil || errB != nil {
			return false
		}
		return da.IsRouter() && db.IsRouter()
	default:
		return true
	}
}
