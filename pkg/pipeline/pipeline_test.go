package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/topoforge-network/topoforge/pkg/history"
	"github.com/topoforge-network/topoforge/pkg/intent"
)

func pipelineIntent() *intent.Intent {
	return &intent.Intent{
		Name:       "pipe",
		Pattern:    intent.Ring,
		SiteCount:  6,
		Redundancy: intent.RedundancyStandard,
		MaxHops:    6,
		Protocol:   intent.OSPF,
		DesignGoal: intent.GoalCost,
	}
}

func TestRunPipeline_Success(t *testing.T) {
	store := history.NewMemoryStore()
	report, err := RunPipeline(context.Background(), pipelineIntent(), Options{Store: store, Seed: 11})
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if report.Status != StatusSuccess {
		t.Fatalf("status = %s, want success; stages %+v", report.Status, report.Stages)
	}
	if report.Topology == nil || report.Analysis == nil || report.Validation == nil {
		t.Fatal("report missing artifacts")
	}
	if len(report.Simulations) != 3 {
		t.Errorf("simulations = %d, want the three canonical scenarios", len(report.Simulations))
	}
	if report.TopologyID == "" {
		t.Error("persisted topology ID missing from report")
	}

	// The store must hold one topology, one validation, three
	// simulations, all referencing the same topology record.
	ctx := context.Background()
	topos, err := store.ListTopologies(ctx)
	if err != nil || len(topos) != 1 {
		t.Fatalf("topologies = %d (%v), want 1", len(topos), err)
	}
	if topos[0].ID != report.TopologyID {
		t.Error("report and store disagree on the topology ID")
	}
	if _, err := store.ValidationForTopology(ctx, report.TopologyID); err != nil {
		t.Errorf("validation record missing: %v", err)
	}
	sims, err := store.SimulationsForTopology(ctx, report.TopologyID)
	if err != nil || len(sims) != 3 {
		t.Errorf("simulation records = %d (%v), want 3", len(sims), err)
	}
}

func TestRunPipeline_InvalidIntentFailsEarly(t *testing.T) {
	in := pipelineIntent()
	in.SiteCount = 1

	report, err := RunPipeline(context.Background(), in, Options{})
	if err == nil {
		t.Fatal("expected error for invalid intent")
	}
	if report.Status != StatusFailed {
		t.Errorf("status = %s, want failed", report.Status)
	}
	if len(report.Stages) != 1 || report.Stages[0].Name != "parse" {
		t.Errorf("stages = %+v, want only the parse stage", report.Stages)
	}
	if report.Stages[0].ErrorKind != "InvalidIntent" {
		t.Errorf("error kind = %s, want InvalidIntent", report.Stages[0].ErrorKind)
	}
}

func TestRunPipeline_SynthesisFailureIsFatal(t *testing.T) {
	in := pipelineIntent()
	in.Pattern = intent.HubSpoke
	in.Redundancy = intent.RedundancyMinimum
	in.MinimizeSPOF = true // SpofUnavoidable

	report, err := RunPipeline(context.Background(), in, Options{})
	if err == nil {
		t.Fatal("expected fatal synthesis error")
	}
	if report.Status != StatusFailed {
		t.Errorf("status = %s, want failed", report.Status)
	}
	for _, st := range report.Stages {
		if st.Name == "analyze" || st.Name == "validate" {
			t.Errorf("stage %s must not run after fatal synthesis", st.Name)
		}
	}
}

func TestRunPipeline_CancelledBeforeSynthesis(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, _ := RunPipeline(ctx, pipelineIntent(), Options{})
	if report.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", report.Status)
	}
}

func TestRunPipeline_NoStore(t *testing.T) {
	report, err := RunPipeline(context.Background(), pipelineIntent(), Options{})
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if report.Status != StatusSuccess {
		t.Errorf("status = %s, want success without persistence", report.Status)
	}
	for _, st := range report.Stages {
		if st.Name == "persist" {
			t.Error("persist stage should be absent without a store")
		}
	}
}

func TestRunPipeline_AdviseOverride(t *testing.T) {
	store := history.NewMemoryStore()
	ctx := context.Background()

	// Ten strong leaf-spine runs and ten weak ring runs make ring a
	// choice history should override.
	seed := func(pattern string, overall float64, satisfied bool) {
		for i := 0; i < 10; i++ {
			id := fmt.Sprintf("%s-%d", pattern, i)
			store.SaveTopology(ctx, &history.TopologyRecord{
				ID: id, IntentJSON: "{}", Pattern: pattern, SiteCount: 10,
				Redundancy: "standard", DesignGoal: "cost", Protocol: "ospf",
				CreatedAt: time.Now(),
			})
			store.SaveValidation(ctx, &history.ValidationRecord{
				ID: id + "-v", TopologyID: id, Satisfied: satisfied,
				OverallScore: overall, RedundancyScore: overall, PathDiversityScore: overall,
				MaxHopsOK: true, PatternMatched: true, CreatedAt: time.Now(),
			})
		}
	}
	seed("leaf-spine", 95, true)
	seed("ring", 55, false)

	in := pipelineIntent()
	in.SiteCount = 10
	in.Redundancy = intent.RedundancyStandard

	report, err := RunPipeline(ctx, in, Options{Store: store, Advise: true})
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if report.Optimization == nil {
		t.Fatal("expected an autonomous override record")
	}
	if report.EffectivePattern != intent.LeafSpine {
		t.Errorf("effective pattern = %s, want leaf-spine", report.EffectivePattern)
	}
	if report.Topology == nil || !strings.Contains(report.Topology.Name, "leaf-spine") {
		t.Error("synthesis should have used the overridden pattern")
	}

	// The optimizer's outcome must be back-filled once validation
	// landed.
	opts, err := store.ListOptimizations(ctx)
	if err != nil || len(opts) != 1 {
		t.Fatalf("optimizations = %d (%v), want 1", len(opts), err)
	}
	if !opts[0].HasActual {
		t.Error("actual improvement should be back-filled after validation")
	}
}

func TestRunPipeline_Deterministic(t *testing.T) {
	a, err := RunPipeline(context.Background(), pipelineIntent(), Options{Seed: 42})
	if err != nil {
		t.Fatal(err)
	}
	b, err := RunPipeline(context.Background(), pipelineIntent(), Options{Seed: 42})
	if err != nil {
		t.Fatal(err)
	}
	if a.Topology.Name != b.Topology.Name || len(a.Topology.Links) != len(b.Topology.Links) {
		t.Error("same seed should reproduce the same topology")
	}
	for i := range a.Topology.Links {
		if a.Topology.Links[i] != b.Topology.Links[i] {
			t.Fatalf("link %d differs across seeded runs", i)
		}
	}
	if a.Validation.OverallScore != b.Validation.OverallScore {
		t.Error("validation must be reproducible")
	}
}

func TestReportSummary(t *testing.T) {
	report, err := RunPipeline(context.Background(), pipelineIntent(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	s := report.Summary()
	if !strings.Contains(s, "pipe") || !strings.Contains(s, "success") {
		t.Errorf("summary = %q", s)
	}
}
