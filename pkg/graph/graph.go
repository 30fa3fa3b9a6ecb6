// Package graph provides the in-memory undirected multigraph used by
// the analyzer, simulator and synthesizer. Nodes live in an arena
// keyed by device name and edges are index pairs, which keeps the
// graph cheap to copy and its iteration order deterministic.
package graph

import (
	"sort"

	"github.com/topoforge-network/topoforge/pkg/topology"
)

// Edge connects two node indices with a weight and a back-pointer to
// the originating link, when the graph was built from a topology.
type Edge struct {
	U, V    int
	Weight  int
	Link    *topology.Link
	removed bool
}

// Graph is an undirected multigraph. The zero value is not usable;
// construct with New or FromTopology.
type Graph struct {
	nodes   []string
	index   map[string]int
	adj     [][]int // node -> incident edge indices
	edges   []Edge
	gone    []bool // node removed
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{index: make(map[string]int)}
}

// FromTopology builds a graph with one node per device and one edge
// per link, preserving declared order.
func FromTopology(t *topology.Topology) *Graph {
	g := New()
	for _, d := range t.Devices {
		g.AddNode(d.Name)
	}
	for i := range t.Links {
		l := &t.Links[i]
		g.AddEdge(l.A, l.B, l.Cost, l)
	}
	return g
}

// AddNode inserts a node if absent and returns its index.
func (g *Graph) AddNode(name string) int {
	if i, ok := g.index[name]; ok {
		return i
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, name)
	g.index[name] = i
	g.adj = append(g.adj, nil)
	g.gone = append(g.gone, false)
	return i
}

// AddEdge inserts an undirected edge between two named nodes,
// creating the nodes if needed.
func (g *Graph) AddEdge(a, b string, weight int, link *topology.Link) {
	u := g.AddNode(a)
	v := g.AddNode(b)
	e := len(g.edges)
	g.edges = append(g.edges, Edge{U: u, V: v, Weight: weight, Link: link})
	g.adj[u] = append(g.adj[u], e)
	g.adj[v] = append(g.adj[v], e)
}

// HasNode reports whether the named node exists and is not removed.
func (g *Graph) HasNode(name string) bool {
	i, ok := g.index[name]
	return ok && !g.gone[i]
}

// Nodes returns the active node names in insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, 0, len(g.nodes))
	for i, n := range g.nodes {
		if !g.gone[i] {
			out = append(out, n)
		}
	}
	return out
}

// NodeCount returns the number of active nodes.
func (g *Graph) NodeCount() int {
	n := 0
	for i := range g.nodes {
		if !g.gone[i] {
			n++
		}
	}
	return n
}

// EdgeCount returns the number of active edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for i := range g.edges {
		if g.edgeAlive(i) {
			n++
		}
	}
	return n
}

func (g *Graph) edgeAlive(e int) bool {
	ed := g.edges[e]
	return !ed.removed && !g.gone[ed.U] && !g.gone[ed.V]
}

// Neighbors returns the distinct neighbor names of a node, in first-
// edge order.
func (g *Graph) Neighbors(name string) []string {
	i, ok := g.index[name]
	if !ok || g.gone[i] {
		return nil
	}
	seen := make(map[int]bool)
	var out []string
	for _, e := range g.adj[i] {
		if !g.edgeAlive(e) {
			continue
		}
		other := g.edges[e].U
		if other == i {
			other = g.edges[e].V
		}
		if !seen[other] {
			seen[other] = true
			out = append(out, g.nodes[other])
		}
	}
	return out
}

// Degree returns the number of active incident edges (parallel links
// count individually).
func (g *Graph) Degree(name string) int {
	i, ok := g.index[name]
	if !ok || g.gone[i] {
		return 0
	}
	n := 0
	for _, e := range g.adj[i] {
		if g.edgeAlive(e) {
			n++
		}
	}
	return n
}

// RemoveNode removes a node and all incident edges. Reports whether
// the node existed.
func (g *Graph) RemoveNode(name string) bool {
	i, ok := g.index[name]
	if !ok || g.gone[i] {
		return false
	}
	g.gone[i] = true
	return true
}

// RemoveEdge removes one active edge between a and b (the first in
// insertion order). Reports whether an edge was removed.
func (g *Graph) RemoveEdge(a, b string) bool {
	u, ok := g.index[a]
	if !ok {
		return false
	}
	v, ok := g.index[b]
	if !ok {
		return false
	}
	for _, e := range g.adj[u] {
		ed := &g.edges[e]
		if !g.edgeAlive(e) {
			continue
		}
		if (ed.U == u && ed.V == v) || (ed.U == v && ed.V == u) {
			ed.removed = true
			return true
		}
	}
	return false
}

// RemoveEdgeByIface removes the specific parallel edge whose
// originating link uses the given interface pair.
func (g *Graph) RemoveEdgeByIface(a, aIface, b, bIface string) bool {
	for e := range g.edges {
		ed := &g.edges[e]
		if !g.edgeAlive(e) || ed.Link == nil {
			continue
		}
		l := ed.Link
		if (l.A == a && l.AIface == aIface && l.B == b && l.BIface == bIface) ||
			(l.A == b && l.AIface == bIface && l.B == a && l.BIface == aIface) {
			ed.removed = true
			return true
		}
	}
	return false
}

// Copy returns a deep copy sharing only the link back-pointers.
func (g *Graph) Copy() *Graph {
	cp := &Graph{
		nodes: append([]string(nil), g.nodes...),
		index: make(map[string]int, len(g.index)),
		adj:   make([][]int, len(g.adj)),
		edges: append([]Edge(nil), g.edges...),
		gone:  append([]bool(nil), g.gone...),
	}
	for k, v := range g.index {
		cp.index[k] = v
	}
	for i := range g.adj {
		cp.adj[i] = append([]int(nil), g.adj[i]...)
	}
	return cp
}

// ShortestPath returns the minimum-hop path between two named nodes
// as an ordered node list, or ok=false when disconnected or unknown.
func (g *Graph) ShortestPath(src, dst string) ([]string, bool) {
	s, ok := g.index[src]
	if !ok || g.gone[s] {
		return nil, false
	}
	d, ok := g.index[dst]
	if !ok || g.gone[d] {
		return nil, false
	}
	if s == d {
		return []string{src}, true
	}
	prev := make([]int, len(g.nodes))
	for i := range prev {
		prev[i] = -1
	}
	prev[s] = s
	queue := []int{s}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, e := range g.adj[u] {
			if !g.edgeAlive(e) {
				continue
			}
			v := g.edges[e].U
			if v == u {
				v = g.edges[e].V
			}
			if prev[v] != -1 {
				continue
			}
			prev[v] = u
			if v == d {
				return g.tracePath(prev, s, d), true
			}
			queue = append(queue, v)
		}
	}
	return nil, false
}

func (g *Graph) tracePath(prev []int, s, d int) []string {
	var rev []int
	for at := d; ; at = prev[at] {
		rev = append(rev, at)
		if at == s {
			break
		}
	}
	out := make([]string, len(rev))
	for i := range rev {
		out[i] = g.nodes[rev[len(rev)-1-i]]
	}
	return out
}

// WeightedShortestPath returns the minimum-cost path by edge weight
// (Dijkstra), or ok=false when disconnected.
func (g *Graph) WeightedShortestPath(src, dst string) ([]string, int, bool) {
	s, ok := g.index[src]
	if !ok || g.gone[s] {
		return nil, 0, false
	}
	d, ok := g.index[dst]
	if !ok || g.gone[d] {
		return nil, 0, false
	}
	const inf = int(^uint(0) >> 1)
	dist := make([]int, len(g.nodes))
	prev := make([]int, len(g.nodes))
	done := make([]bool, len(g.nodes))
	for i := range dist {
		dist[i] = inf
		prev[i] = -1
	}
	dist[s] = 0
	prev[s] = s
	for {
		// Linear scan keeps the implementation simple; graphs here
		// are bounded at 500 nodes.
		u, best := -1, inf
		for i := range dist {
			if !done[i] && !g.gone[i] && dist[i] < best {
				u, best = i, dist[i]
			}
		}
		if u == -1 {
			break
		}
		if u == d {
			return g.tracePath(prev, s, d), dist[d], true
		}
		done[u] = true
		for _, e := range g.adj[u] {
			if !g.edgeAlive(e) {
				continue
			}
			v := g.edges[e].U
			if v == u {
				v = g.edges[e].V
			}
			w := g.edges[e].Weight
			if w < 1 {
				w = 1
			}
			if dist[u]+w < dist[v] {
				dist[v] = dist[u] + w
				prev[v] = u
			}
		}
	}
	return nil, 0, false
}

// ConnectedComponents partitions the active nodes. Components appear
// in order of their first node; nodes within a component follow
// insertion order.
func (g *Graph) ConnectedComponents() [][]string {
	comp := make([]int, len(g.nodes))
	for i := range comp {
		comp[i] = -1
	}
	var comps [][]int
	for i := range g.nodes {
		if g.gone[i] || comp[i] != -1 {
			continue
		}
		id := len(comps)
		var members []int
		stack := []int{i}
		comp[i] = id
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			members = append(members, u)
			for _, e := range g.adj[u] {
				if !g.edgeAlive(e) {
					continue
				}
				v := g.edges[e].U
				if v == u {
					v = g.edges[e].V
				}
				if comp[v] == -1 {
					comp[v] = id
					stack = append(stack, v)
				}
			}
		}
		sort.Ints(members)
		comps = append(comps, members)
	}
	out := make([][]string, len(comps))
	for i, members := range comps {
		names := make([]string, len(members))
		for j, m := range members {
			names[j] = g.nodes[m]
		}
		out[i] = names
	}
	return out
}

// Connected reports whether the active graph is a single component.
func (g *Graph) Connected() bool {
	if g.NodeCount() < 2 {
		return true
	}
	return len(g.ConnectedComponents()) == 1
}

// Diameter returns the maximum shortest-path hop count over all
// reachable pairs. Unreachable pairs are ignored; a graph with fewer
// than two nodes has diameter 0.
func (g *Graph) Diameter() int {
	max := 0
	for i := range g.nodes {
		if g.gone[i] {
			continue
		}
		dist := g.bfsDistances(i)
		for j, d := range dist {
			if g.gone[j] || d < 0 {
				continue
			}
			if d > max {
				max = d
			}
		}
	}
	return max
}

func (g *Graph) bfsDistances(s int) []int {
	dist := make([]int, len(g.nodes))
	for i := range dist {
		dist[i] = -1
	}
	dist[s] = 0
	queue := []int{s}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, e := range g.adj[u] {
			if !g.edgeAlive(e) {
				continue
			}
			v := g.edges[e].U
			if v == u {
				v = g.edges[e].V
			}
			if dist[v] == -1 {
				dist[v] = dist[u] + 1
				queue = append(queue, v)
			}
		}
	}
	return dist
}

// Density returns the connectivity coefficient 2|E| / (|V| (|V|-1)).
func (g *Graph) Density() float64 {
	n := g.NodeCount()
	if n < 2 {
		return 0
	}
	return 2 * float64(g.EdgeCount()) / float64(n*(n-1))
}
