package analyze

import (
	"reflect"
	"strings"
	"testing"

	"github.com/topoforge-network/topoforge/internal/testutil"
	"github.com/topoforge-network/topoforge/pkg/topology"
)

func TestAnalyze_TrivialTopology(t *testing.T) {
	topo := &topology.Topology{Name: "solo", Protocol: "ospf"}
	topo.AddDevice(topology.Device{Name: "R1", Kind: topology.DeviceRouter, RouterID: "10.1.1.1"})

	res := Analyze(topo)
	if res.HealthScore != 100 {
		t.Errorf("health = %v, want 100 for <2 devices", res.HealthScore)
	}
	if len(res.SPOFs) != 0 || len(res.UnbalancedPairs) != 0 || len(res.Overloaded) != 0 {
		t.Error("trivial topology should have no findings")
	}
}

func TestAnalyze_StarSPOF(t *testing.T) {
	topo := testutil.StarTopology(t, 6)
	res := Analyze(topo)

	if len(res.SPOFs) != 1 {
		t.Fatalf("SPOFs = %d, want 1", len(res.SPOFs))
	}
	s := res.SPOFs[0]
	if s.Device != "R1" {
		t.Errorf("SPOF device = %s, want R1", s.Device)
	}
	// Removing the hub strands the anchor spoke alone: 5 of 6
	// devices unreachable.
	if s.ImpactPercent != 83.3 {
		t.Errorf("impact = %v, want 83.3", s.ImpactPercent)
	}
	if s.Risk != RiskCritical {
		t.Errorf("risk = %s, want critical", s.Risk)
	}
	if len(s.Dependent) != 4 {
		t.Errorf("dependent = %v, want the 4 non-anchor spokes", s.Dependent)
	}
}

func TestAnalyze_RingClean(t *testing.T) {
	topo := testutil.RingTopology(t, 6)
	res := Analyze(topo)

	if len(res.SPOFs) != 0 {
		t.Errorf("ring SPOFs = %v, want none", res.SPOFs)
	}
	if res.Metrics.Diameter != 3 {
		t.Errorf("ring-6 diameter = %d, want 3", res.Metrics.Diameter)
	}
	if res.Metrics.RedundancyFactor != 2.0 {
		t.Errorf("redundancy factor = %v, want 2.0", res.Metrics.RedundancyFactor)
	}
	// Adjacent pairs pair a 1-hop path with the 5-hop way round:
	// balance 0.2, reported for all six adjacent pairs.
	if len(res.UnbalancedPairs) != 6 {
		t.Errorf("unbalanced pairs = %d, want 6", len(res.UnbalancedPairs))
	}
	// 100 - 6*5 (unbalanced, low tier) + 10 (redundancy >= 2.0).
	if res.HealthScore != 80 {
		t.Errorf("health = %v, want 80", res.HealthScore)
	}
}

func TestHealthScore_Contract(t *testing.T) {
	// The 30/20/10/5 deductions and the two +10 bonuses are a
	// contract.
	res := &Result{
		SPOFs: []SPOF{
			{Risk: RiskCritical},
			{Risk: RiskHigh},
			{Risk: RiskMedium},
			{Risk: RiskLow},
		},
		UnbalancedPairs: []UnbalancedPair{{}},
		Metrics:         Metrics{Connectivity: 0.5, RedundancyFactor: 1.0},
	}
	// 100 - 30 - 20 - 10 - 5 - 5 = 30
	if got := healthScore(res); got != 30 {
		t.Errorf("health = %v, want 30", got)
	}

	res.Metrics.Connectivity = 0.6
	if got := healthScore(res); got != 40 {
		t.Errorf("health with density bonus = %v, want 40", got)
	}

	res.Metrics.RedundancyFactor = 2.0
	if got := healthScore(res); got != 50 {
		t.Errorf("health with both bonuses = %v, want 50", got)
	}
}

func TestHealthScore_Clamped(t *testing.T) {
	res := &Result{}
	for i := 0; i < 10; i++ {
		res.SPOFs = append(res.SPOFs, SPOF{Risk: RiskCritical})
	}
	if got := healthScore(res); got != 0 {
		t.Errorf("health = %v, want clamp at 0", got)
	}
}

func TestRiskFromImpact(t *testing.T) {
	tests := []struct {
		pct  float64
		want RiskLevel
	}{
		{83.3, RiskCritical},
		{50.0, RiskHigh},
		{25.0, RiskMedium},
		{30.0, RiskHigh},
		{10.0, RiskMedium},
		{5.0, RiskLow},
	}
	for _, tt := range tests {
		if got := riskFromImpact(tt.pct); got != tt.want {
			t.Errorf("riskFromImpact(%v) = %s, want %s", tt.pct, got, tt.want)
		}
	}
}

func TestAnalyze_OverloadedNode(t *testing.T) {
	topo := testutil.StarTopology(t, 8)
	res := Analyze(topo)

	if len(res.Overloaded) != 1 {
		t.Fatalf("overloaded = %d, want 1 (the hub)", len(res.Overloaded))
	}
	o := res.Overloaded[0]
	if o.Device != "R1" || o.Degree != 7 {
		t.Errorf("overloaded = %+v", o)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	topo := testutil.RingTopology(t, 8)
	a := Analyze(topo)
	b := Analyze(topo)
	if !reflect.DeepEqual(a, b) {
		t.Error("repeated analysis of an unchanged topology must be identical")
	}
}

func TestAnalyze_SummaryNamesWorstIssue(t *testing.T) {
	topo := testutil.StarTopology(t, 6)
	res := Analyze(topo)
	if !strings.Contains(res.Summary, "R1") {
		t.Errorf("summary should name the worst SPOF: %q", res.Summary)
	}
	if !strings.Contains(res.Summary, "health") {
		t.Errorf("summary should state the score: %q", res.Summary)
	}
}

