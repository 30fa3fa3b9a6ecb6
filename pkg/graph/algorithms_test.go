package graph

import (
	"fmt"
	"reflect"
	"testing"
)

func TestArticulationPoints_Star(t *testing.T) {
	g := New()
	for i := 2; i <= 6; i++ {
		g.AddEdge("R1", fmt.Sprintf("R%d", i), 1, nil)
	}
	got := g.ArticulationPoints()
	if !reflect.DeepEqual(got, []string{"R1"}) {
		t.Errorf("articulation points = %v, want [R1]", got)
	}
}

func TestArticulationPoints_Ring(t *testing.T) {
	g := ringGraph()
	if got := g.ArticulationPoints(); len(got) != 0 {
		t.Errorf("ring has no articulation points, got %v", got)
	}
}

func TestArticulationPoints_Path(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", 1, nil)
	g.AddEdge("B", "C", 1, nil)
	g.AddEdge("C", "D", 1, nil)
	got := g.ArticulationPoints()
	want := []string{"B", "C"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("path articulation points = %v, want %v", got, want)
	}
}

func TestArticulationPoints_ParallelEdges(t *testing.T) {
	// A=B-C: parallel A-B edges mean B is still an articulation
	// point for C, but removing the A-B bridge effect needs both.
	g := New()
	g.AddEdge("A", "B", 1, nil)
	g.AddEdge("A", "B", 1, nil)
	g.AddEdge("B", "C", 1, nil)
	got := g.ArticulationPoints()
	if !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("articulation points = %v, want [B]", got)
	}
}

func TestArticulationPoints_TwoBlocks(t *testing.T) {
	// Two triangles sharing node X.
	g := New()
	g.AddEdge("A", "B", 1, nil)
	g.AddEdge("B", "X", 1, nil)
	g.AddEdge("X", "A", 1, nil)
	g.AddEdge("X", "C", 1, nil)
	g.AddEdge("C", "D", 1, nil)
	g.AddEdge("D", "X", 1, nil)
	got := g.ArticulationPoints()
	if !reflect.DeepEqual(got, []string{"X"}) {
		t.Errorf("articulation points = %v, want [X]", got)
	}
}

func TestEdgeDisjointPaths_Ring(t *testing.T) {
	g := ringGraph()
	// Opposite nodes in a ring have exactly two disjoint paths.
	if got := g.EdgeDisjointPaths("A", "C"); got != 2 {
		t.Errorf("EDP(A,C) = %d, want 2", got)
	}
	if got := g.EdgeDisjointPaths("A", "B"); got != 2 {
		t.Errorf("EDP(A,B) = %d, want 2", got)
	}
}

func TestEdgeDisjointPaths_CompleteGraph(t *testing.T) {
	g := New()
	names := []string{"A", "B", "C", "D", "E"}
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			g.AddEdge(names[i], names[j], 1, nil)
		}
	}
	// K5: edge connectivity n-1 = 4.
	if got := g.EdgeDisjointPaths("A", "E"); got != 4 {
		t.Errorf("EDP in K5 = %d, want 4", got)
	}
}

func TestEdgeDisjointPaths_Bridge(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", 1, nil)
	g.AddEdge("B", "C", 1, nil)
	if got := g.EdgeDisjointPaths("A", "C"); got != 1 {
		t.Errorf("EDP over a bridge = %d, want 1", got)
	}
}

func TestEdgeDisjointPaths_ParallelEdges(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", 1, nil)
	g.AddEdge("A", "B", 1, nil)
	if got := g.EdgeDisjointPaths("A", "B"); got != 2 {
		t.Errorf("EDP with parallel edges = %d, want 2", got)
	}
}

func TestEdgeDisjointPaths_Disconnected(t *testing.T) {
	g := New()
	g.AddNode("A")
	g.AddNode("B")
	if got := g.EdgeDisjointPaths("A", "B"); got != 0 {
		t.Errorf("EDP disconnected = %d, want 0", got)
	}
}

func TestEdgeDisjointPathsUpTo(t *testing.T) {
	g := New()
	names := []string{"A", "B", "C", "D", "E"}
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			g.AddEdge(names[i], names[j], 1, nil)
		}
	}
	if got := g.EdgeDisjointPathsUpTo("A", "B", 2); got != 2 {
		t.Errorf("capped EDP = %d, want 2", got)
	}
}

func TestSamplePairs_SmallGraphExhaustive(t *testing.T) {
	g := ringGraph()
	pairs := g.SamplePairs("seed")
	if len(pairs) != 6 {
		t.Errorf("pair count = %d, want C(4,2)=6", len(pairs))
	}
}

func TestSamplePairs_LargeGraphSampledDeterministic(t *testing.T) {
	g := New()
	for i := 0; i < 150; i++ {
		g.AddEdge(fmt.Sprintf("N%03d", i), fmt.Sprintf("N%03d", (i+1)%150), 1, nil)
	}
	a := g.SamplePairs("topo-x")
	b := g.SamplePairs("topo-x")
	if len(a) != samplePairCount {
		t.Errorf("sampled pair count = %d, want %d", len(a), samplePairCount)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed name should yield the same sample")
	}
	c := g.SamplePairs("topo-y")
	if reflect.DeepEqual(a, c) {
		t.Error("different seed names should yield different samples")
	}
}
