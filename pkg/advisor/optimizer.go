package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/topoforge-network/topoforge/pkg/history"
	"github.com/topoforge-network/topoforge/pkg/intent"
	"github.com/topoforge-network/topoforge/pkg/util"
)

// Override thresholds: history must show a materially better
// pattern, with enough samples behind it, before the optimizer
// second-guesses the caller.
const (
	overrideMargin     = 10.0
	overrideConfidence = 60.0
)

// Optimize checks whether history favors a different pattern than
// the one the caller intends. When it does, the override is recorded
// and the adjusted pattern returned; otherwise the chosen pattern
// comes back unchanged with a nil record.
func (a *Advisor) Optimize(ctx context.Context, in *intent.Intent, chosen intent.Pattern) (intent.Pattern, *history.OptimizationRecord, error) {
	metrics, err := a.store.MetricsFor(ctx, string(in.Redundancy), string(in.DesignGoal))
	if err != nil {
		return chosen, nil, err
	}
	if len(metrics) == 0 {
		return chosen, nil, nil
	}

	chosenScore := heuristicScore(chosen, in)
	var best *history.PerformanceMetric
	bestScore := 0.0
	for _, m := range metrics {
		suit, ok := suitability(intent.Pattern(m.Pattern), in.SiteCount)
		if !ok {
			continue
		}
		score := composite(m) * suit
		if m.Pattern == string(chosen) {
			chosenScore = score
			continue
		}
		if m.Confidence < overrideConfidence {
			continue
		}
		if best == nil || score > bestScore || (score == bestScore && m.Pattern < best.Pattern) {
			best = m
			bestScore = score
		}
	}

	if best == nil || bestScore < chosenScore+overrideMargin {
		return chosen, nil, nil
	}

	intentJSON, _ := json.Marshal(in)
	rec := &history.OptimizationRecord{
		ID:              uuid.NewString(),
		IntentJSON:      string(intentJSON),
		OriginalPattern: string(chosen),
		AdjustedPattern: best.Pattern,
		Reason: fmt.Sprintf(
			"history shows %s scoring %.1f against %.1f for %s at confidence %.0f over %d runs",
			best.Pattern, bestScore, chosenScore, chosen, best.Confidence, best.SampleSize),
		ExpectedImprovement: round1(bestScore - chosenScore),
		CreatedAt:           time.Now(),
	}
	if err := a.store.SaveOptimization(ctx, rec); err != nil {
		return chosen, nil, err
	}

	util.WithField("intent", in.Name).Infof("autonomous override: %s -> %s (expected +%.1f)",
		chosen, best.Pattern, rec.ExpectedImprovement)
	return intent.Pattern(best.Pattern), rec, nil
}

// RecordOutcome back-fills an optimization's actual improvement once
// the resulting topology has been validated, measured against the
// historical baseline for the original pattern.
func (a *Advisor) RecordOutcome(ctx context.Context, optimizationID string, in *intent.Intent, originalPattern string, achievedOverall float64) error {
	baseline := 0.0
	if m, err := a.store.MetricFor(ctx, originalPattern, string(in.Redundancy), string(in.DesignGoal)); err == nil {
		baseline = m.AvgOverall
	}
	return a.store.SetOptimizationOutcome(ctx, optimizationID, round1(achievedOverall-baseline))
}

// Summary aggregates optimization activity: how often each override
// occurred and the mean measured improvement.
type Summary struct {
	Total          int            `json:"total"`
	Overrides      map[string]int `json:"overrides"`
	MeasuredCount  int            `json:"measured_count"`
	AvgImprovement float64        `json:"avg_improvement"`
}

// OptimizationSummary reports the optimizer's track record.
func (a *Advisor) OptimizationSummary(ctx context.Context) (*Summary, error) {
	recs, err := a.store.ListOptimizations(ctx)
	if err != nil {
		return nil, err
	}
	s := &Summary{Overrides: make(map[string]int)}
	total := 0.0
	for _, r := range recs {
		s.Total++
		s.Overrides[r.OriginalPattern+" -> "+r.AdjustedPattern]++
		if r.HasActual {
			s.MeasuredCount++
			total += r.ActualImprovement
		}
	}
	if s.MeasuredCount > 0 {
		s.AvgImprovement = round1(total / float64(s.MeasuredCount))
	}
	return s, nil
}

// Insight is one observation drawn from the aggregate history.
type Insight struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Insights summarizes what the history currently shows: the best
// performer, the most resilient configuration, the most reliable
// one, and recent activity.
func (a *Advisor) Insights(ctx context.Context) ([]Insight, error) {
	var out []Insight

	var best, resilient, reliable *history.PerformanceMetric
	for _, red := range []intent.Redundancy{
		intent.RedundancyMinimum, intent.RedundancyStandard,
		intent.RedundancyHigh, intent.RedundancyCritical,
	} {
		for _, goal := range []intent.DesignGoal{
			intent.GoalCost, intent.GoalRedundancy, intent.GoalLatency, intent.GoalScalability,
		} {
			metrics, err := a.store.MetricsFor(ctx, string(red), string(goal))
			if err != nil {
				return nil, err
			}
			for _, m := range metrics {
				if m.SampleSize == 0 {
					continue
				}
				if best == nil || m.AvgOverall > best.AvgOverall {
					best = m
				}
				if resilient == nil || m.AvgResilienceImpact < resilient.AvgResilienceImpact {
					resilient = m
				}
				if reliable == nil || m.SatisfactionRate > reliable.SatisfactionRate {
					reliable = m
				}
			}
		}
	}

	if best != nil {
		out = append(out, Insight{Kind: "best_performer", Text: fmt.Sprintf(
			"%s with %s redundancy achieves %.1f average validation score",
			best.Pattern, best.Redundancy, best.AvgOverall)})
	}
	if resilient != nil {
		out = append(out, Insight{Kind: "resilience_leader", Text: fmt.Sprintf(
			"%s shows the lowest failure impact (%.1f%% mean connectivity loss)",
			resilient.Pattern, resilient.AvgResilienceImpact)})
	}
	if reliable != nil {
		out = append(out, Insight{Kind: "reliability_leader", Text: fmt.Sprintf(
			"%s satisfies intent %.1f%% of the time",
			reliable.Pattern, reliable.SatisfactionRate)})
	}
	recent, err := a.store.Recent(ctx, 7)
	if err != nil {
		return nil, err
	}
	if len(recent) > 0 {
		out = append(out, Insight{Kind: "trend", Text: fmt.Sprintf(
			"%d topologies generated in the last 7 days", len(recent))})
	}
	return out, nil
}
