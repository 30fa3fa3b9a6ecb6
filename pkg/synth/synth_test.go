package synth

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/topoforge-network/topoforge/pkg/graph"
	"github.com/topoforge-network/topoforge/pkg/intent"
	"github.com/topoforge-network/topoforge/pkg/topology"
	"github.com/topoforge-network/topoforge/pkg/util"
)

func baseIntent(p intent.Pattern, sites int) *intent.Intent {
	return &intent.Intent{
		Name:       "t",
		Pattern:    p,
		SiteCount:  sites,
		Redundancy: intent.RedundancyMinimum,
		MaxHops:    10,
		Protocol:   intent.OSPF,
		DesignGoal: intent.GoalCost,
	}
}

// checkInvariants asserts the §3-style structural invariants plus
// connectivity for a synthesized topology.
func checkInvariants(t *testing.T, topo *topology.Topology) {
	t.Helper()
	if err := topo.Validate(); err != nil {
		t.Fatalf("invariants violated: %v", err)
	}
	g := graph.FromTopology(topo)
	if !g.Connected() {
		t.Fatal("synthesized topology must be a single connected component")
	}
}

func TestFullMesh_FiveSitesCritical(t *testing.T) {
	in := baseIntent(intent.FullMesh, 5)
	in.Redundancy = intent.RedundancyCritical
	in.MinimizeSPOF = true
	in.MaxHops = 2

	topo, err := NewSeeded(42).Synthesize(in)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	checkInvariants(t, topo)

	if len(topo.Devices) != 5 {
		t.Errorf("devices = %d, want 5", len(topo.Devices))
	}
	if len(topo.Links) != 10 {
		t.Errorf("links = %d, want exactly 10 (K5 meets the target untouched)", len(topo.Links))
	}
	g := graph.FromTopology(topo)
	if d := g.Diameter(); d != 1 {
		t.Errorf("diameter = %d, want 1", d)
	}
	if aps := g.ArticulationPoints(); len(aps) != 0 {
		t.Errorf("SPOFs = %v, want none", aps)
	}
	for _, p := range g.SamplePairs(topo.Name) {
		if edp := g.EdgeDisjointPaths(p.A, p.B); edp < 4 {
			t.Errorf("EDP(%s,%s) = %d, want >= 4", p.A, p.B, edp)
		}
	}
}

func TestHubSpoke_SixSitesMinimum(t *testing.T) {
	in := baseIntent(intent.HubSpoke, 6)

	topo, err := New().Synthesize(in)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	checkInvariants(t, topo)

	if len(topo.Devices) != 6 {
		t.Errorf("devices = %d, want 6", len(topo.Devices))
	}
	if len(topo.Links) != 5 {
		t.Errorf("links = %d, want 5", len(topo.Links))
	}
	g := graph.FromTopology(topo)
	aps := g.ArticulationPoints()
	if !reflect.DeepEqual(aps, []string{"R1"}) {
		t.Errorf("articulation points = %v, want exactly the hub R1", aps)
	}
}

func TestHubSpoke_SpofUnavoidable(t *testing.T) {
	in := baseIntent(intent.HubSpoke, 6)
	in.MinimizeSPOF = true // minimum redundancy: no secondary hub possible

	_, err := New().Synthesize(in)
	if !errors.Is(err, util.ErrUnsatisfiable) {
		t.Fatalf("expected Unsatisfiable for hub-spoke + minimize_spof at minimum redundancy, got %v", err)
	}
}

func TestHubSpoke_DualHubEliminatesSPOF(t *testing.T) {
	in := baseIntent(intent.HubSpoke, 6)
	in.MinimizeSPOF = true
	in.Redundancy = intent.RedundancyStandard

	topo, err := New().Synthesize(in)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	checkInvariants(t, topo)

	g := graph.FromTopology(topo)
	if aps := g.ArticulationPoints(); len(aps) != 0 {
		t.Errorf("dual-hub design should have no SPOFs, got %v", aps)
	}
	// hub-hub link plus two uplinks per spoke
	if len(topo.Links) != 9 {
		t.Errorf("links = %d, want 9", len(topo.Links))
	}
}

func TestRing_FourSitesStandard(t *testing.T) {
	in := baseIntent(intent.Ring, 4)
	in.Redundancy = intent.RedundancyStandard

	topo, err := NewSeeded(7).Synthesize(in)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	checkInvariants(t, topo)

	if len(topo.Devices) != 4 || len(topo.Links) != 4 {
		t.Errorf("got %d devices %d links, want 4/4", len(topo.Devices), len(topo.Links))
	}
	g := graph.FromTopology(topo)
	if edp := g.EdgeDisjointPaths("R1", "R3"); edp != 2 {
		t.Errorf("EDP between opposite nodes = %d, want 2", edp)
	}
}

func TestRing_HighAddsChords(t *testing.T) {
	in := baseIntent(intent.Ring, 6)
	in.Redundancy = intent.RedundancyHigh

	topo, err := New().Synthesize(in)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	checkInvariants(t, topo)
	if len(topo.Links) <= 6 {
		t.Errorf("links = %d, want chords beyond the 6 ring links", len(topo.Links))
	}
	g := graph.FromTopology(topo)
	for _, p := range g.SamplePairs(topo.Name) {
		if edp := g.EdgeDisjointPaths(p.A, p.B); edp < 3 {
			t.Errorf("EDP(%s,%s) = %d, want >= 3", p.A, p.B, edp)
		}
	}
}

func TestRing_TwoSitesCollapsesToSingleLink(t *testing.T) {
	topo, err := New().Synthesize(baseIntent(intent.Ring, 2))
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(topo.Devices) != 2 || len(topo.Links) != 1 {
		t.Errorf("got %d devices %d links, want 2/1", len(topo.Devices), len(topo.Links))
	}
}

func TestFullMesh_TwoSitesCollapsesToSingleLink(t *testing.T) {
	topo, err := New().Synthesize(baseIntent(intent.FullMesh, 2))
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(topo.Links) != 1 {
		t.Errorf("links = %d, want 1", len(topo.Links))
	}
}

func TestLeafSpineSplit(t *testing.T) {
	tests := []struct {
		sites, leaves, spines int
	}{
		{10, 7, 3},
		{4, 2, 2},
		{12, 8, 4},
	}
	for _, tt := range tests {
		leaves, spines := leafSpineSplit(tt.sites)
		if leaves+spines != tt.sites {
			t.Errorf("split(%d) = %d+%d, does not sum", tt.sites, leaves, spines)
		}
		if leaves != tt.leaves || spines != tt.spines {
			t.Errorf("split(%d) = (%d, %d), want (%d, %d)", tt.sites, leaves, spines, tt.leaves, tt.spines)
		}
	}
}

func TestLeafSpine_TenSitesCritical(t *testing.T) {
	in := baseIntent(intent.LeafSpine, 10)
	in.Redundancy = intent.RedundancyCritical
	in.MinimizeSPOF = true
	in.MaxHops = 3

	topo, err := New().Synthesize(in)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	checkInvariants(t, topo)

	if len(topo.Devices) != 10 {
		t.Errorf("devices = %d, want 10", len(topo.Devices))
	}
	leaves, spines := 0, 0
	for _, d := range topo.Devices {
		switch d.Name[0] {
		case 'L':
			leaves++
		case 'S':
			spines++
		}
	}
	if leaves != 7 || spines != 3 {
		t.Errorf("split = %d leaves %d spines, want 7/3", leaves, spines)
	}

	g := graph.FromTopology(topo)
	if d := g.Diameter(); d != 2 {
		t.Errorf("diameter = %d, want 2", d)
	}
	if aps := g.ArticulationPoints(); len(aps) != 0 {
		t.Errorf("SPOFs = %v, want none", aps)
	}
	// Augmentation may add parallel leaf-spine links but never
	// leaf-leaf or spine-spine ones.
	for _, l := range topo.Links {
		if l.A[0] == l.B[0] {
			t.Errorf("link %s-%s breaks the bipartite structure", l.A, l.B)
		}
	}
	for _, p := range g.SamplePairs(topo.Name) {
		if edp := g.EdgeDisjointPaths(p.A, p.B); edp < 4 {
			t.Errorf("EDP(%s,%s) = %d, want >= 4", p.A, p.B, edp)
		}
	}
}

func TestTree_TwentySitesStandardCost(t *testing.T) {
	in := baseIntent(intent.Tree, 20)
	in.Redundancy = intent.RedundancyStandard
	in.DesignGoal = intent.GoalCost

	topo, err := New().Synthesize(in)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	checkInvariants(t, topo)

	if len(topo.Devices) != 20 {
		t.Errorf("devices = %d, want 20", len(topo.Devices))
	}
	if len(topo.Links) > 30 {
		t.Errorf("links = %d, want <= 30 for a cost-lean tree", len(topo.Links))
	}

	g := graph.FromTopology(topo)
	aps := g.ArticulationPoints()
	aggSPOF := false
	for _, ap := range aps {
		if ap[0] == 'A' {
			aggSPOF = true
		}
	}
	if !aggSPOF {
		t.Errorf("expected at least one aggregation-layer SPOF, got %v", aps)
	}
}

func TestTree_MinimizeSPOF(t *testing.T) {
	in := baseIntent(intent.Tree, 20)
	in.Redundancy = intent.RedundancyStandard
	in.MinimizeSPOF = true

	topo, err := New().Synthesize(in)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	checkInvariants(t, topo)

	g := graph.FromTopology(topo)
	if aps := g.ArticulationPoints(); len(aps) != 0 {
		t.Errorf("minimize_spof tree should have no articulation points, got %v", aps)
	}
}

func TestHybrid_Structure(t *testing.T) {
	in := baseIntent(intent.Hybrid, 20)
	in.Redundancy = intent.RedundancyStandard

	topo, err := New().Synthesize(in)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	checkInvariants(t, topo)
	if len(topo.Devices) != 20 {
		t.Errorf("devices = %d, want 20", len(topo.Devices))
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	for _, p := range intent.Patterns() {
		in := baseIntent(p, 12)
		in.Redundancy = intent.RedundancyStandard
		if p == intent.HubSpoke {
			in.Redundancy = intent.RedundancyMinimum
		}

		a, err := NewSeeded(99).Synthesize(in)
		if err != nil {
			t.Fatalf("%s: %v", p, err)
		}
		b, err := NewSeeded(99).Synthesize(in)
		if err != nil {
			t.Fatalf("%s: %v", p, err)
		}
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%s: same seed produced different topologies", p)
		}
	}
}

func TestSynthesize_InvalidIntent(t *testing.T) {
	in := baseIntent(intent.Ring, 1)
	_, err := New().Synthesize(in)
	if !errors.Is(err, util.ErrInvalidIntent) {
		t.Fatalf("expected InvalidIntent for site_count 1, got %v", err)
	}
}

func TestSynthesize_MinConnections(t *testing.T) {
	in := baseIntent(intent.Ring, 6)
	in.MinConnsPerSite = 3

	topo, err := New().Synthesize(in)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	checkInvariants(t, topo)
	g := graph.FromTopology(topo)
	for _, d := range topo.Devices {
		if deg := g.Degree(d.Name); deg < 3 {
			t.Errorf("degree(%s) = %d, want >= 3", d.Name, deg)
		}
	}
}

func TestSynthesize_LatencyGoalAdjustsCosts(t *testing.T) {
	in := baseIntent(intent.LeafSpine, 6)
	in.DesignGoal = intent.GoalLatency

	topo, err := New().Synthesize(in)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	for _, l := range topo.Links {
		if l.Cost != costFast {
			t.Errorf("leaf-spine fabric link cost = %d, want %d under latency goal", l.Cost, costFast)
		}
	}
}

func TestSynthesize_UniqueAddressing(t *testing.T) {
	in := baseIntent(intent.FullMesh, 8)
	topo, err := New().Synthesize(in)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	subnets := make(map[string]bool)
	for _, l := range topo.Links {
		if subnets[l.Subnet] {
			t.Fatalf("subnet %s used twice", l.Subnet)
		}
		subnets[l.Subnet] = true
		if util.ComputeNeighborIP(l.AIP, 30) != l.BIP {
			t.Errorf("link %s-%s IPs %s/%s are not /30 peers", l.A, l.B, l.AIP, l.BIP)
		}
	}
}

func TestSynthesize_LargeSiteCount(t *testing.T) {
	if testing.Short() {
		t.Skip("large synthesis in -short mode")
	}
	for _, p := range []intent.Pattern{intent.HubSpoke, intent.Ring, intent.Tree, intent.Hybrid} {
		in := baseIntent(p, 500)
		topo, err := New().Synthesize(in)
		if err != nil {
			t.Fatalf("%s at 500 sites: %v", p, err)
		}
		if len(topo.Devices) != 500 {
			t.Errorf("%s: devices = %d, want 500", p, len(topo.Devices))
		}
		if !graph.FromTopology(topo).Connected() {
			t.Errorf("%s: not connected", p)
		}
	}
}

func TestBudgetMultipliers(t *testing.T) {
	// The per-pattern budgets are part of the synthesis contract.
	tests := []struct {
		p    intent.Pattern
		want float64
	}{
		{intent.FullMesh, 1.25},
		{intent.HubSpoke, 1.5},
		{intent.Ring, 2.0},
		{intent.Tree, 2.0},
		{intent.LeafSpine, 1.5},
		{intent.Hybrid, 1.75},
	}
	for _, tt := range tests {
		if got := budgetMultiplier(tt.p); got != tt.want {
			t.Errorf("budget(%s) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestInterfaceLabelsSequential(t *testing.T) {
	topo, err := New().Synthesize(baseIntent(intent.Ring, 4))
	if err != nil {
		t.Fatal(err)
	}
	counts := make(map[string]int)
	for _, l := range topo.Links {
		counts[l.A]++
		counts[l.B]++
	}
	for dev, n := range counts {
		seen := make(map[string]bool)
		for _, l := range topo.Links {
			if l.A == dev {
				seen[l.AIface] = true
			}
			if l.B == dev {
				seen[l.BIface] = true
			}
		}
		for i := 1; i <= n; i++ {
			if !seen[fmt.Sprintf("eth%d", i)] {
				t.Errorf("%s missing interface eth%d", dev, i)
			}
		}
	}
}
