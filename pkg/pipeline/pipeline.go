// Package pipeline composes parsing, synthesis, analysis,
// simulation, validation and persistence into one invocation.
// Synthesis failure is fatal; every later stage degrades to
// partial_success instead of aborting the run.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/topoforge-network/topoforge/pkg/advisor"
	"github.com/topoforge-network/topoforge/pkg/analyze"
	"github.com/topoforge-network/topoforge/pkg/graph"
	"github.com/topoforge-network/topoforge/pkg/history"
	"github.com/topoforge-network/topoforge/pkg/intent"
	"github.com/topoforge-network/topoforge/pkg/simulate"
	"github.com/topoforge-network/topoforge/pkg/synth"
	"github.com/topoforge-network/topoforge/pkg/topology"
	"github.com/topoforge-network/topoforge/pkg/util"
	"github.com/topoforge-network/topoforge/pkg/validate"
)

// Default stage deadlines.
const (
	DefaultSynthDeadline = 30 * time.Second
	DefaultStageDeadline = 10 * time.Second
)

// Options configure one pipeline run.
type Options struct {
	// Seed makes synthesis reproducible. Zero means the default seed.
	Seed int64
	// Advise consults the optimizer before synthesis and accepts its
	// pattern override.
	Advise bool
	// Store receives the run's records. Nil skips persistence.
	Store history.Store
	// SynthDeadline and StageDeadline bound individual stages.
	SynthDeadline time.Duration
	StageDeadline time.Duration
}

// Stage names as reported.
const (
	stageParse      = "parse"
	stageAdvise     = "advise"
	stageSynthesize = "synthesize"
	stageAnalyze    = "analyze"
	stageSimulate   = "simulate"
	stageValidate   = "validate"
	stagePersist    = "persist"
)

// RunPipeline executes the full design-and-evaluate flow for one
// intent. The returned report always describes every stage; the
// error is non-nil only for fatal outcomes (bad intent, failed
// synthesis, cancellation before synthesis).
func RunPipeline(ctx context.Context, in *intent.Intent, opts Options) (*Report, error) {
	if opts.SynthDeadline <= 0 {
		opts.SynthDeadline = DefaultSynthDeadline
	}
	if opts.StageDeadline <= 0 {
		opts.StageDeadline = DefaultStageDeadline
	}

	report := &Report{IntentName: in.Name, Status: StatusSuccess}
	log := util.WithField("intent", in.Name)
	log.Info("pipeline started")

	// Stage 1: parse. Failure returns early.
	st := runStage(ctx, stageParse, opts.StageDeadline, func() error {
		_, err := intent.Parse(in)
		return err
	})
	report.Stages = append(report.Stages, st)
	if !st.OK {
		if st.ErrorKind == "Cancelled" {
			report.Status = StatusCancelled
		} else {
			report.Status = StatusFailed
		}
		return report, fmt.Errorf("%s: %w", st.Name, util.ErrInvalidIntent)
	}

	// Stage 2: optional advisory override.
	effective := *in
	if opts.Advise && opts.Store != nil {
		adv := advisor.New(opts.Store)
		st = runStage(ctx, stageAdvise, opts.StageDeadline, func() error {
			pattern, rec, err := adv.Optimize(ctx, in, in.Pattern)
			if err != nil {
				return err
			}
			if rec != nil {
				effective.Pattern = pattern
				report.Optimization = rec
			}
			return nil
		})
		report.Stages = append(report.Stages, st)
		if !st.OK {
			// Advisory failure is not fatal; continue with the
			// caller's pattern.
			report.Status = StatusPartialSuccess
		}
	}
	report.EffectivePattern = effective.Pattern

	// Stage 3: synthesize. Fatal on failure.
	if err := cancelled(ctx, report); err != nil {
		return report, err
	}
	var topo *topology.Topology
	st = runStage(ctx, stageSynthesize, opts.SynthDeadline, func() error {
		seed := opts.Seed
		if seed == 0 {
			seed = synth.DefaultSeed
		}
		t, err := synth.NewSeeded(seed).Synthesize(&effective)
		if err != nil {
			return err
		}
		topo = t
		return nil
	})
	report.Stages = append(report.Stages, st)
	if !st.OK {
		report.Status = StatusFailed
		return report, fmt.Errorf("synthesis failed: %s", st.Error)
	}
	report.Topology = topo

	// Stage 4: analyze.
	if err := cancelled(ctx, report); err != nil {
		return report, nil
	}
	st = runStage(ctx, stageAnalyze, opts.StageDeadline, func() error {
		report.Analysis = analyze.Analyze(topo)
		return nil
	})
	report.Stages = append(report.Stages, st)
	if !st.OK {
		report.Status = StatusPartialSuccess
	}

	// Stage 5: canonical simulations.
	if err := cancelled(ctx, report); err != nil {
		return report, nil
	}
	var scenarios []simulate.Scenario
	st = runStage(ctx, stageSimulate, opts.StageDeadline, func() error {
		scenarios = simulate.GenerateTestScenarios(topo)
		for _, sc := range scenarios {
			res, err := simulate.Simulate(topo, sc)
			if err != nil {
				return err
			}
			report.Simulations = append(report.Simulations, res)
		}
		return nil
	})
	report.Stages = append(report.Stages, st)
	if !st.OK {
		report.Status = StatusPartialSuccess
	}

	// Stage 6: validate.
	if err := cancelled(ctx, report); err != nil {
		return report, nil
	}
	var validateMs int64
	st = runStage(ctx, stageValidate, opts.StageDeadline, func() error {
		if report.Analysis == nil {
			return fmt.Errorf("no analysis available for validation")
		}
		start := time.Now()
		report.Validation = validate.Validate(topo, report.Analysis, report.Simulations, &effective)
		validateMs = time.Since(start).Milliseconds()
		return nil
	})
	report.Stages = append(report.Stages, st)
	if !st.OK {
		report.Status = StatusPartialSuccess
	}

	// Stage 7: persist.
	if err := cancelled(ctx, report); err != nil {
		return report, nil
	}
	if opts.Store != nil {
		st = runStage(ctx, stagePersist, opts.StageDeadline, func() error {
			return persist(ctx, opts.Store, in, &effective, report, scenarios, validateMs)
		})
		report.Stages = append(report.Stages, st)
		if !st.OK {
			report.Status = StatusPartialSuccess
			report.PartialPersistence = true
		}
	}

	log.Infof("pipeline finished: %s", report.Status)
	return report, nil
}


// persist writes the run's records in reference order: the topology
// record lands before anything that points at it.
func persist(ctx context.Context, store history.Store, original, effective *intent.Intent, report *Report, scenarios []simulate.Scenario, validateMs int64) error {
	intentJSON, _ := json.Marshal(original)
	topo := report.Topology
	g := graph.FromTopology(topo)

	avgDegree := 0.0
	if len(topo.Devices) > 0 {
		avgDegree = 2 * float64(len(topo.Links)) / float64(len(topo.Devices))
	}
	diameter := g.Diameter()
	if report.Analysis != nil {
		diameter = report.Analysis.Metrics.Diameter
	}

	topoRec := &history.TopologyRecord{
		ID:           uuid.NewString(),
		IntentJSON:   string(intentJSON),
		Pattern:      string(effective.Pattern),
		SiteCount:    effective.SiteCount,
		DeviceCount:  len(topo.Devices),
		LinkCount:    len(topo.Links),
		Redundancy:   string(effective.Redundancy),
		Protocol:     string(effective.Protocol),
		DesignGoal:   string(effective.DesignGoal),
		MinimizeSPOF: effective.MinimizeSPOF,
		AvgDegree:    avgDegree,
		Diameter:     diameter,
		CreatedAt:    time.Now(),
	}
	if err := store.SaveTopology(ctx, topoRec); err != nil {
		return err
	}
	report.TopologyID = topoRec.ID

	if report.Validation != nil {
		v := report.Validation
		if err := store.SaveValidation(ctx, &history.ValidationRecord{
			ID:                 uuid.NewString(),
			TopologyID:         topoRec.ID,
			Satisfied:          v.Satisfied,
			OverallScore:       v.OverallScore,
			RedundancyScore:    v.RedundancyScore,
			PathDiversityScore: v.PathDiversityScore,
			MaxHopsOK:          v.MaxHopsOK,
			SPOFEliminated:     v.SPOFEliminated,
			PatternMatched:     v.PatternMatched,
			Violations:         v.Violations,
			DurationMs:         validateMs,
			CreatedAt:          time.Now(),
		}); err != nil {
			return err
		}
	}

	for i, res := range report.Simulations {
		payload := "{}"
		if i < len(scenarios) {
			data, _ := json.Marshal(scenarios[i])
			payload = string(data)
		}
		if err := store.SaveSimulation(ctx, &history.SimulationRecord{
			ID:               uuid.NewString(),
			TopologyID:       topoRec.ID,
			ScenarioKind:     string(res.Kind),
			ScenarioPayload:  payload,
			Partitioned:      res.Partitioned,
			IsolatedCount:    res.IsolatedCount,
			ComponentsCount:  len(res.Components),
			ResilienceImpact: res.ConnectivityLoss,
			CreatedAt:        time.Now(),
		}); err != nil {
			return err
		}
	}

	if report.Optimization != nil && report.Validation != nil {
		adv := advisor.New(store)
		if err := adv.RecordOutcome(ctx, report.Optimization.ID, effective,
			report.Optimization.OriginalPattern, report.Validation.OverallScore); err != nil {
			util.Warnf("backfilling optimization outcome: %v", err)
		}
	}
	return nil
}

// runStage executes fn under the stage deadline and converts the
// outcome into a status entry. CPU-bound stages run to completion in
// the background when they overrun; their result is discarded.
func runStage(ctx context.Context, name string, deadline time.Duration, fn func() error) StageStatus {
	start := time.Now()
	st := StageStatus{Name: name}

	done := make(chan error, 1)
	go func() { done <- fn() }()

	var err error
	select {
	case err = <-done:
	case <-time.After(deadline):
		err = fmt.Errorf("deadline %s exceeded: %w", deadline, util.ErrStageTimeout)
	case <-ctx.Done():
		err = fmt.Errorf("%v: %w", ctx.Err(), util.ErrCancelled)
	}

	st.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		st.OK = false
		st.ErrorKind = util.ErrorKind(err)
		st.Error = err.Error()
		util.WithStage(name).Warnf("stage failed: %v", err)
		return st
	}
	st.OK = true
	return st
}

// cancelled marks the remaining run as cancelled when the context is
// done at a stage boundary.
func cancelled(ctx context.Context, report *Report) error {
	if ctx.Err() == nil {
		return nil
	}
	report.Status = StatusCancelled
	return fmt.Errorf("%v: %w", ctx.Err(), util.ErrCancelled)
}
