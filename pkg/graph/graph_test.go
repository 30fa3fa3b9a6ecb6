package graph

import (
	"reflect"
	"testing"
)

// ringGraph builds a cycle A-B-C-D-A.
func ringGraph() *Graph {
	g := New()
	g.AddEdge("A", "B", 100, nil)
	g.AddEdge("B", "C", 100, nil)
	g.AddEdge("C", "D", 100, nil)
	g.AddEdge("D", "A", 100, nil)
	return g
}

func TestShortestPath(t *testing.T) {
	g := ringGraph()
	path, ok := g.ShortestPath("A", "C")
	if !ok {
		t.Fatal("path should exist")
	}
	if len(path) != 3 {
		t.Errorf("path length = %d hops %d, want 2 hops", len(path), len(path)-1)
	}
	if path[0] != "A" || path[2] != "C" {
		t.Errorf("path endpoints wrong: %v", path)
	}
}

func TestShortestPath_SameNode(t *testing.T) {
	g := ringGraph()
	path, ok := g.ShortestPath("A", "A")
	if !ok || len(path) != 1 {
		t.Errorf("self path = %v, ok %v", path, ok)
	}
}

func TestShortestPath_Disconnected(t *testing.T) {
	g := New()
	g.AddNode("A")
	g.AddNode("B")
	if _, ok := g.ShortestPath("A", "B"); ok {
		t.Error("no path should exist between isolated nodes")
	}
}

func TestShortestPath_UnknownNode(t *testing.T) {
	g := ringGraph()
	if _, ok := g.ShortestPath("A", "Z"); ok {
		t.Error("unknown node should report no path")
	}
}

func TestWeightedShortestPath(t *testing.T) {
	g := New()
	// A-B direct cost 300; A-C-B costs 100+100.
	g.AddEdge("A", "B", 300, nil)
	g.AddEdge("A", "C", 100, nil)
	g.AddEdge("C", "B", 100, nil)

	path, cost, ok := g.WeightedShortestPath("A", "B")
	if !ok {
		t.Fatal("path should exist")
	}
	if cost != 200 {
		t.Errorf("cost = %d, want 200", cost)
	}
	want := []string{"A", "C", "B"}
	if !reflect.DeepEqual(path, want) {
		t.Errorf("path = %v, want %v", path, want)
	}
}

func TestDegreeAndNeighbors(t *testing.T) {
	g := ringGraph()
	// Add a parallel edge A-B.
	g.AddEdge("A", "B", 100, nil)

	if got := g.Degree("A"); got != 3 {
		t.Errorf("Degree(A) = %d, want 3 (parallel edges count)", got)
	}
	n := g.Neighbors("A")
	if len(n) != 2 {
		t.Errorf("Neighbors(A) = %v, want 2 distinct", n)
	}
}

func TestRemoveNode(t *testing.T) {
	g := ringGraph()
	if !g.RemoveNode("B") {
		t.Fatal("RemoveNode should report success")
	}
	if g.HasNode("B") {
		t.Error("B should be gone")
	}
	if g.NodeCount() != 3 || g.EdgeCount() != 2 {
		t.Errorf("counts = %d nodes %d edges, want 3/2", g.NodeCount(), g.EdgeCount())
	}
	// A-C now only via D.
	path, ok := g.ShortestPath("A", "C")
	if !ok || len(path) != 3 {
		t.Errorf("A-C path after removal = %v", path)
	}
}

func TestRemoveEdge(t *testing.T) {
	g := ringGraph()
	if !g.RemoveEdge("A", "B") {
		t.Fatal("RemoveEdge should report success")
	}
	if g.RemoveEdge("A", "B") {
		t.Error("second removal should fail: no edge left")
	}
	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount = %d, want 3", g.EdgeCount())
	}
}

func TestCopy_Isolated(t *testing.T) {
	g := ringGraph()
	cp := g.Copy()
	cp.RemoveNode("A")
	if !g.HasNode("A") {
		t.Error("mutating the copy changed the original")
	}
	if g.EdgeCount() != 4 {
		t.Errorf("original EdgeCount = %d, want 4", g.EdgeCount())
	}
}

func TestConnectedComponents(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", 1, nil)
	g.AddEdge("C", "D", 1, nil)
	g.AddNode("E")

	comps := g.ConnectedComponents()
	if len(comps) != 3 {
		t.Fatalf("components = %d, want 3", len(comps))
	}
	want := [][]string{{"A", "B"}, {"C", "D"}, {"E"}}
	if !reflect.DeepEqual(comps, want) {
		t.Errorf("components = %v, want %v", comps, want)
	}
}

func TestConnected(t *testing.T) {
	g := ringGraph()
	if !g.Connected() {
		t.Error("ring should be connected")
	}
	g.RemoveNode("A")
	if !g.Connected() {
		t.Error("ring minus one node is a path, still connected")
	}
	g.RemoveEdge("B", "C")
	if g.Connected() {
		t.Error("after cutting the path it should be disconnected")
	}
}

func TestDiameter(t *testing.T) {
	g := ringGraph()
	if got := g.Diameter(); got != 2 {
		t.Errorf("ring-4 diameter = %d, want 2", got)
	}

	// Complete graph on 3 nodes: diameter 1.
	k3 := New()
	k3.AddEdge("A", "B", 1, nil)
	k3.AddEdge("B", "C", 1, nil)
	k3.AddEdge("A", "C", 1, nil)
	if got := k3.Diameter(); got != 1 {
		t.Errorf("K3 diameter = %d, want 1", got)
	}
}

func TestDensity(t *testing.T) {
	g := ringGraph()
	// 2*4 / (4*3) = 0.667
	got := g.Density()
	if got < 0.66 || got > 0.67 {
		t.Errorf("density = %f, want ~0.667", got)
	}

	single := New()
	single.AddNode("A")
	if single.Density() != 0 {
		t.Error("single node density should be 0")
	}
}
