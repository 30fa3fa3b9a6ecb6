package simulate

import (
	"sort"

	"github.com/topoforge-network/topoforge/pkg/topology"
)

// GenerateTestScenarios returns the three canonical resilience
// probes for a topology: the worst single-node failure, the worst
// single-link failure, and the worst two-link combination. "Worst"
// maximizes connectivity loss; ties break lexicographically on the
// element name.
func GenerateTestScenarios(topo *topology.Topology) []Scenario {
	var out []Scenario

	if sc, ok := worstNode(topo); ok {
		out = append(out, sc)
	}
	if sc, ok := worstLink(topo); ok {
		out = append(out, sc)
	}
	if sc, ok := worstLinkPair(topo); ok {
		out = append(out, sc)
	}
	return out
}

func worstNode(topo *topology.Topology) (Scenario, bool) {
	names := make([]string, len(topo.Devices))
	for i, d := range topo.Devices {
		names[i] = d.Name
	}
	sort.Strings(names)

	best := Scenario{}
	bestLoss := -1.0
	for _, n := range names {
		sc := Scenario{Kind: NodeDown, Node: n}
		res, err := Simulate(topo, sc)
		if err != nil {
			continue
		}
		if res.ConnectivityLoss > bestLoss {
			bestLoss = res.ConnectivityLoss
			best = sc
		}
	}
	return best, bestLoss >= 0
}

// sortedRefs returns the topology's links as refs in lexicographic
// order, which makes "first wins" the lexicographic tie-break.
func sortedRefs(topo *topology.Topology) []LinkRef {
	refs := make([]LinkRef, len(topo.Links))
	for i, l := range topo.Links {
		a, b := l.A, l.B
		ai, bi := l.AIface, l.BIface
		if a > b {
			a, b = b, a
			ai, bi = bi, ai
		}
		refs[i] = LinkRef{A: a, B: b, AIface: ai, BIface: bi}
	}
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].String() < refs[j].String()
	})
	return refs
}

func worstLink(topo *topology.Topology) (Scenario, bool) {
	refs := sortedRefs(topo)
	if len(refs) == 0 {
		return Scenario{}, false
	}
	best := Scenario{}
	bestLoss := -1.0
	for _, r := range refs {
		sc := Scenario{Kind: LinkDown, Links: []LinkRef{r}}
		res, err := Simulate(topo, sc)
		if err != nil {
			continue
		}
		if res.ConnectivityLoss > bestLoss {
			bestLoss = res.ConnectivityLoss
			best = sc
		}
	}
	return best, bestLoss >= 0
}

// worstLinkPair evaluates two-link combinations. Beyond fifty links
// the candidate set is pruned to pairs drawn from the ten worst
// single links, which keeps the probe tractable on large fabrics.
func worstLinkPair(topo *topology.Topology) (Scenario, bool) {
	refs := sortedRefs(topo)
	if len(refs) < 2 {
		return Scenario{}, false
	}

	if len(refs) > 50 {
		type scored struct {
			ref  LinkRef
			loss float64
		}
		singles := make([]scored, 0, len(refs))
		for _, r := range refs {
			res, err := Simulate(topo, Scenario{Kind: LinkDown, Links: []LinkRef{r}})
			if err != nil {
				continue
			}
			singles = append(singles, scored{ref: r, loss: res.ConnectivityLoss})
		}
		sort.SliceStable(singles, func(i, j int) bool {
			return singles[i].loss > singles[j].loss
		})
		if len(singles) > 10 {
			singles = singles[:10]
		}
		refs = refs[:0]
		for _, s := range singles {
			refs = append(refs, s.ref)
		}
		sort.Slice(refs, func(i, j int) bool {
			return refs[i].String() < refs[j].String()
		})
	}

	best := Scenario{}
	bestLoss := -1.0
	for i := 0; i < len(refs); i++ {
		for j := i + 1; j < len(refs); j++ {
			sc := Scenario{Kind: MultiLink, Links: []LinkRef{refs[i], refs[j]}}
			res, err := Simulate(topo, sc)
			if err != nil {
				continue
			}
			if res.ConnectivityLoss > bestLoss {
				bestLoss = res.ConnectivityLoss
				best = sc
			}
		}
	}
	return best, bestLoss >= 0
}
