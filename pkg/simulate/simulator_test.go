package simulate

import (
	"errors"
	"reflect"
	"testing"

	"github.com/topoforge-network/topoforge/internal/testutil"
	"github.com/topoforge-network/topoforge/pkg/util"
)

func TestSimulate_RingLinkDown(t *testing.T) {
	topo := testutil.RingTopology(t, 4)

	for _, l := range topo.Links {
		res, err := Simulate(topo, Scenario{
			Kind:  LinkDown,
			Links: []LinkRef{{A: l.A, B: l.B, AIface: l.AIface, BIface: l.BIface}},
		})
		if err != nil {
			t.Fatalf("Simulate: %v", err)
		}
		if res.Partitioned {
			t.Errorf("removing %s-%s should not partition a ring", l.A, l.B)
		}
		if res.ConnectivityLoss != 0 {
			t.Errorf("connectivity loss = %v, want 0%%", res.ConnectivityLoss)
		}
		if res.Severity != "low" {
			t.Errorf("severity = %s, want low", res.Severity)
		}
		if res.RecoverySeconds != 10 {
			t.Errorf("recovery = %d, want 10 for link failure", res.RecoverySeconds)
		}
	}
}

func TestSimulate_StarHubDown(t *testing.T) {
	topo := testutil.StarTopology(t, 6)
	res, err := Simulate(topo, Scenario{Kind: NodeDown, Node: "R1"})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if !res.Partitioned {
		t.Error("hub removal must partition a star")
	}
	if res.IsolatedCount != 5 {
		t.Errorf("isolated = %d, want 5 lone spokes", res.IsolatedCount)
	}
	// Every one of the 15 pre-failure pairs is broken.
	if res.ConnectivityLoss != 100 {
		t.Errorf("connectivity loss = %v, want 100%%", res.ConnectivityLoss)
	}
	if res.Severity != "critical" {
		t.Errorf("severity = %s, want critical", res.Severity)
	}
	if res.RecoverySeconds != 30 {
		t.Errorf("recovery = %d, want 30 for node failure", res.RecoverySeconds)
	}
}

func TestSimulate_SpokeDown(t *testing.T) {
	topo := testutil.StarTopology(t, 6)
	res, err := Simulate(topo, Scenario{Kind: NodeDown, Node: "R3"})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	// Pairs involving R3: 5 of 15.
	if res.BrokenPairs != 5 || res.ReachablePairs != 15 {
		t.Errorf("broken/reachable = %d/%d, want 5/15", res.BrokenPairs, res.ReachablePairs)
	}
	if res.ConnectivityLoss != 33.3 {
		t.Errorf("connectivity loss = %v, want 33.3", res.ConnectivityLoss)
	}
	if res.Severity != "high" {
		t.Errorf("severity = %s, want high", res.Severity)
	}
}

func TestSimulate_BrokenRoutesCarryPrePaths(t *testing.T) {
	topo := testutil.PathTopology(t, 3)
	res, err := Simulate(topo, Scenario{Kind: NodeDown, Node: "R2"})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	found := false
	for _, r := range res.BrokenRoutes {
		if r.A == "R1" && r.B == "R3" {
			found = true
			want := []string{"R1", "R2", "R3"}
			if !reflect.DeepEqual(r.PrePath, want) {
				t.Errorf("pre-failure path = %v, want %v", r.PrePath, want)
			}
		}
	}
	if !found {
		t.Error("R1-R3 should be enumerated as a broken pair")
	}
}

func TestSimulate_MultiLink(t *testing.T) {
	topo := testutil.RingTopology(t, 6)
	res, err := Simulate(topo, Scenario{
		Kind: MultiLink,
		Links: []LinkRef{
			{A: "R1", B: "R2"},
			{A: "R4", B: "R5"},
		},
	})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if !res.Partitioned {
		t.Error("two cuts across a ring partition it")
	}
	if len(res.Components) != 2 {
		t.Errorf("components = %d, want 2", len(res.Components))
	}
	if res.RecoverySeconds != 45 {
		t.Errorf("recovery = %d, want 45 for multi-link", res.RecoverySeconds)
	}
}

func TestSimulate_Cascade(t *testing.T) {
	topo := testutil.StarTopology(t, 5)
	res, err := Simulate(topo, Scenario{Kind: Cascade, Node: "R1", Depth: 2})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	// Hub removal leaves every spoke at degree 0; the first cascade
	// round removes them all.
	if len(res.Components) != 0 {
		t.Errorf("components = %v, want none left", res.Components)
	}
	if res.RecoverySeconds != 60 {
		t.Errorf("recovery = %d, want 60 for cascade", res.RecoverySeconds)
	}
}

func TestSimulate_UnknownDevice(t *testing.T) {
	topo := testutil.RingTopology(t, 4)
	before := topo.Clone()

	_, err := Simulate(topo, Scenario{Kind: NodeDown, Node: "R99"})
	if !errors.Is(err, util.ErrInvalidIntent) {
		t.Fatalf("expected InvalidIntent-class error, got %v", err)
	}
	if !reflect.DeepEqual(before, topo) {
		t.Error("failed simulation must not mutate the topology")
	}
}

func TestSimulate_UnknownLink(t *testing.T) {
	topo := testutil.RingTopology(t, 4)
	_, err := Simulate(topo, Scenario{Kind: LinkDown, Links: []LinkRef{{A: "R1", B: "R3"}}})
	if !errors.Is(err, util.ErrInvalidIntent) {
		t.Fatalf("expected InvalidIntent-class error, got %v", err)
	}
}

func TestSimulate_InputNeverMutated(t *testing.T) {
	topo := testutil.RingTopology(t, 5)
	before := topo.Clone()
	if _, err := Simulate(topo, Scenario{Kind: NodeDown, Node: "R1"}); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(before, topo) {
		t.Error("simulation must operate on a copy")
	}
}

func TestGenerateTestScenarios_Star(t *testing.T) {
	topo := testutil.StarTopology(t, 6)
	scenarios := GenerateTestScenarios(topo)
	if len(scenarios) != 3 {
		t.Fatalf("scenarios = %d, want 3", len(scenarios))
	}
	if scenarios[0].Kind != NodeDown || scenarios[0].Node != "R1" {
		t.Errorf("worst node = %+v, want the hub R1", scenarios[0])
	}
	if scenarios[1].Kind != LinkDown {
		t.Errorf("second scenario kind = %s, want link-down", scenarios[1].Kind)
	}
	if scenarios[2].Kind != MultiLink || len(scenarios[2].Links) != 2 {
		t.Errorf("third scenario = %+v, want a two-link combination", scenarios[2])
	}
}

func TestGenerateTestScenarios_TieBreakLexicographic(t *testing.T) {
	// In a ring every node is equally harmless; the tie must break
	// to the lexicographically smallest name.
	topo := testutil.RingTopology(t, 4)
	scenarios := GenerateTestScenarios(topo)
	if scenarios[0].Node != "R1" {
		t.Errorf("worst node tie-break = %s, want R1", scenarios[0].Node)
	}
}

func TestGenerateTestScenarios_Deterministic(t *testing.T) {
	topo := testutil.RingTopology(t, 6)
	a := GenerateTestScenarios(topo)
	b := GenerateTestScenarios(topo)
	if !reflect.DeepEqual(a, b) {
		t.Error("canonical scenarios must be deterministic")
	}
}
