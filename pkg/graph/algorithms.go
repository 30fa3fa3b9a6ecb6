package graph

import (
	"hash/fnv"
	"math/rand"
	"sort"
)

// ArticulationPoints returns the nodes whose removal disconnects the
// graph, sorted by name. Iterative Hopcroft-Tarjan, O(V+E); parallel
// edges between the same pair mean neither endpoint is articulated by
// that pair alone, which the per-edge parent tracking handles.
func (g *Graph) ArticulationPoints() []string {
	n := len(g.nodes)
	disc := make([]int, n)
	low := make([]int, n)
	parentEdge := make([]int, n)
	childCount := make([]int, n)
	isAP := make([]bool, n)
	for i := range disc {
		disc[i] = -1
		parentEdge[i] = -1
	}
	timer := 0

	type frame struct {
		node    int
		edgePos int
	}

	for root := range g.nodes {
		if g.gone[root] || disc[root] != -1 {
			continue
		}
		stack := []frame{{node: root}}
		disc[root] = timer
		low[root] = timer
		timer++

		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			u := f.node
			if f.edgePos < len(g.adj[u]) {
				e := g.adj[u][f.edgePos]
				f.edgePos++
				if !g.edgeAlive(e) || e == parentEdge[u] {
					continue
				}
				v := g.edges[e].U
				if v == u {
					v = g.edges[e].V
				}
				if disc[v] == -1 {
					parentEdge[v] = e
					if u == root {
						childCount[root]++
					}
					disc[v] = timer
					low[v] = timer
					timer++
					stack = append(stack, frame{node: v})
				} else if disc[v] < low[u] {
					low[u] = disc[v]
				}
			} else {
				stack = stack[:len(stack)-1]
				if len(stack) > 0 {
					p := stack[len(stack)-1].node
					if low[u] < low[p] {
						low[p] = low[u]
					}
					if p != root && low[u] >= disc[p] {
						isAP[p] = true
					}
				}
			}
		}
		if childCount[root] > 1 {
			isAP[root] = true
		}
	}

	var out []string
	for i, ap := range isAP {
		if ap && !g.gone[i] {
			out = append(out, g.nodes[i])
		}
	}
	sort.Strings(out)
	return out
}

// EdgeDisjointPaths returns the number of pairwise edge-disjoint
// paths between two named nodes (Menger), computed as unit-capacity
// max flow where each undirected edge contributes one unit.
func (g *Graph) EdgeDisjointPaths(src, dst string) int {
	return g.edgeDisjointPaths(src, dst, -1)
}

// EdgeDisjointPathsUpTo is EdgeDisjointPaths capped at limit
// augmenting rounds. The synthesizer only needs to know whether a
// pair meets its target, so capping avoids full max-flow on dense
// graphs.
func (g *Graph) EdgeDisjointPathsUpTo(src, dst string, limit int) int {
	return g.edgeDisjointPaths(src, dst, limit)
}

func (g *Graph) edgeDisjointPaths(src, dst string, limit int) int {
	s, ok := g.index[src]
	if !ok || g.gone[s] {
		return 0
	}
	t, ok := g.index[dst]
	if !ok || g.gone[t] {
		return 0
	}
	if s == t {
		return 0
	}

	// Residual capacity per edge and direction: cap[e][0] is U->V,
	// cap[e][1] is V->U. Both start at 1; flow in opposite directions
	// cancels, which is exactly the undirected reduction.
	caps := make([][2]int, len(g.edges))
	for e := range g.edges {
		if g.edgeAlive(e) {
			caps[e] = [2]int{1, 1}
		}
	}

	flow := 0
	for limit < 0 || flow < limit {
		// BFS for an augmenting path.
		prevEdge := make([]int, len(g.nodes))
		prevDir := make([]int, len(g.nodes))
		for i := range prevEdge {
			prevEdge[i] = -1
		}
		prevEdge[s] = -2
		queue := []int{s}
		found := false
		for len(queue) > 0 && !found {
			u := queue[0]
			queue = queue[1:]
			for _, e := range g.adj[u] {
				if !g.edgeAlive(e) {
					continue
				}
				dir := 0
				v := g.edges[e].V
				if g.edges[e].U != u {
					dir = 1
					v = g.edges[e].U
				}
				if caps[e][dir] == 0 || prevEdge[v] != -1 {
					continue
				}
				prevEdge[v] = e
				prevDir[v] = dir
				if v == t {
					found = true
					break
				}
				queue = append(queue, v)
			}
		}
		if !found {
			return flow
		}
		// Augment by one unit along the found path.
		for v := t; v != s; {
			e := prevEdge[v]
			dir := prevDir[v]
			caps[e][dir]--
			caps[e][1-dir]++
			if dir == 0 {
				v = g.edges[e].U
			} else {
				v = g.edges[e].V
			}
		}
		flow++
	}
	return flow
}

// Pair is an unordered node pair used for sampled pairwise metrics.
type Pair struct {
	A, B string
}

// SampleLimit is the node count above which pairwise computations
// switch from exhaustive to sampled.
const SampleLimit = 100

// samplePairCount is how many pairs a sampled computation examines.
const samplePairCount = 200

// SamplePairs returns the device pairs a pairwise analysis should
// visit. Up to SampleLimit nodes every pair is returned; beyond that
// a uniform sample of samplePairCount pairs is drawn from a stream
// seeded by the topology name, so repeated runs over the same
// topology see the same pairs.
func (g *Graph) SamplePairs(seedName string) []Pair {
	nodes := g.Nodes()
	n := len(nodes)
	if n < 2 {
		return nil
	}
	if n <= SampleLimit {
		out := make([]Pair, 0, n*(n-1)/2)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				out = append(out, Pair{A: nodes[i], B: nodes[j]})
			}
		}
		return out
	}

	rng := rand.New(rand.NewSource(seedFromName(seedName)))
	seen := make(map[[2]int]bool, samplePairCount)
	out := make([]Pair, 0, samplePairCount)
	for len(out) < samplePairCount {
		i := rng.Intn(n)
		j := rng.Intn(n)
		if i == j {
			continue
		}
		if i > j {
			i, j = j, i
		}
		k := [2]int{i, j}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, Pair{A: nodes[i], B: nodes[j]})
	}
	return out
}

func seedFromName(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(h.Sum64())
}
