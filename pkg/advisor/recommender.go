// Package advisor scores topology patterns for an intent using the
// performance aggregates accumulated in the history store, and can
// autonomously override a caller's pattern choice when history shows
// a materially better option.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/topoforge-network/topoforge/pkg/history"
	"github.com/topoforge-network/topoforge/pkg/intent"
	"github.com/topoforge-network/topoforge/pkg/util"
)

// Composite score weights over a pattern's historical aggregates.
// Contractual; see the validator's weights for the same caveat.
const (
	weightAvgOverall   = 0.40
	weightSatisfaction = 0.35
	weightResilience   = 0.25
)

// heuristicConfidence is reported when fewer than minSamples runs
// back a metric and scoring falls back to built-in heuristics.
const (
	heuristicConfidence = 30.0
	minSamples          = 3
)

// Recommendation is one ranked pattern option.
type Recommendation struct {
	Pattern        string   `json:"pattern"`
	Score          float64  `json:"score"`
	Confidence     float64  `json:"confidence"`
	Suitability    float64  `json:"suitability"`
	FromHistory    bool     `json:"from_history"`
	EstimatedLinks int      `json:"estimated_links"`
	Pros           []string `json:"pros"`
	Cons           []string `json:"cons"`
	Reason         string   `json:"reason"`
}

// Advisor serves recommendations and autonomous optimizations.
type Advisor struct {
	store history.Store
}

// New returns an advisor reading from the given store.
func New(store history.Store) *Advisor {
	return &Advisor{store: store}
}

// Recommend ranks every suitable pattern for the intent and persists
// a RecommendationRecord for later feedback.
func (a *Advisor) Recommend(ctx context.Context, in *intent.Intent, topK int) (*history.RecommendationRecord, []Recommendation, error) {
	if topK <= 0 {
		topK = 5
	}
	metrics, err := a.store.MetricsFor(ctx, string(in.Redundancy), string(in.DesignGoal))
	if err != nil {
		return nil, nil, err
	}
	byPattern := make(map[string]*history.PerformanceMetric, len(metrics))
	for _, m := range metrics {
		byPattern[m.Pattern] = m
	}

	var recs []Recommendation
	for _, p := range intent.Patterns() {
		suit, ok := suitability(p, in.SiteCount)
		if !ok {
			continue
		}
		r := Recommendation{
			Pattern:        string(p),
			Suitability:    round1(suit * 100),
			EstimatedLinks: estimateLinks(p, in.SiteCount),
			Pros:           patternPros(p),
			Cons:           patternCons(p),
		}
		if m, has := byPattern[string(p)]; has && m.SampleSize >= minSamples {
			r.Score = round1(composite(m) * suit)
			r.Confidence = round1(m.Confidence)
			r.FromHistory = true
			r.Reason = historyReason(m)
		} else {
			r.Score = round1(heuristicScore(p, in) * suit)
			r.Confidence = heuristicConfidence
			r.Reason = fmt.Sprintf("heuristic ranking for %s redundancy with a %s pattern",
				in.Redundancy, p)
		}
		recs = append(recs, r)
	}
	if len(recs) == 0 {
		return nil, nil, util.NewIntentError("site_count", in.SiteCount,
			"no pattern is suitable for this site count", "adjust site_count")
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Pattern < recs[j].Pattern
	})
	if len(recs) > topK {
		recs = recs[:topK]
	}

	intentJSON, _ := json.Marshal(in)
	alternatives := make([]string, 0, len(recs)-1)
	for _, r := range recs[1:] {
		alternatives = append(alternatives, r.Pattern)
	}
	record := &history.RecommendationRecord{
		ID:                 uuid.NewString(),
		IntentJSON:         string(intentJSON),
		Redundancy:         string(in.Redundancy),
		DesignGoal:         string(in.DesignGoal),
		RecommendedPattern: recs[0].Pattern,
		Confidence:         recs[0].Confidence,
		Alternatives:       alternatives,
		Feedback:           -1,
		CreatedAt:          time.Now(),
	}
	if err := a.store.SaveRecommendation(ctx, record); err != nil {
		return nil, nil, err
	}

	util.WithField("intent", in.Name).Infof("recommended %s (score %.1f, confidence %.0f)",
		recs[0].Pattern, recs[0].Score, recs[0].Confidence)
	return record, recs, nil
}

// RecordFeedback stores the user's selection and rating for a
// recommendation. Explicit ratings outweigh automated scores in the
// satisfaction aggregates.
func (a *Advisor) RecordFeedback(ctx context.Context, recommendationID, selectedPattern, topologyID string, rating int) error {
	if rating != -1 && (rating < 1 || rating > 5) {
		return util.NewIntentError("feedback", rating, "rating must be 1-5 or -1", "")
	}
	return a.store.UpdateRecommendationFeedback(ctx, recommendationID, selectedPattern, topologyID, rating)
}

// composite folds a metric into a single score: validation quality,
// satisfaction, and inverted resilience impact.
func composite(m *history.PerformanceMetric) float64 {
	score := weightAvgOverall*m.AvgOverall +
		weightSatisfaction*m.SatisfactionRate +
		weightResilience*(100-m.AvgResilienceImpact)
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// suitability maps site count fitness to [0.5, 1.0], or reports the
// pattern unsuitable outside its range.
func suitability(p intent.Pattern, sites int) (float64, bool) {
	type rng struct{ min, max, ideal int }
	ranges := map[intent.Pattern]rng{
		intent.FullMesh:  {3, 10, 6},
		intent.HubSpoke:  {3, 500, 20},
		intent.Ring:      {3, 100, 10},
		intent.Tree:      {5, 500, 50},
		intent.LeafSpine: {4, 500, 30},
		intent.Hybrid:    {5, 500, 100},
	}
	r, ok := ranges[p]
	if !ok {
		return 1.0, true
	}
	if sites < r.min || sites > r.max {
		return 0, false
	}
	dist := sites - r.ideal
	if dist < 0 {
		dist = -dist
	}
	maxDist := r.ideal - r.min
	if r.max-r.ideal > maxDist {
		maxDist = r.max - r.ideal
	}
	f := 1.0 - float64(dist)/float64(maxDist)*0.5
	if f < 0.5 {
		f = 0.5
	}
	return f, true
}

// heuristicScore ranks patterns without history: base quality plus
// fit bonuses for the intent's redundancy, goal and scale.
func heuristicScore(p intent.Pattern, in *intent.Intent) float64 {
	base := map[intent.Pattern]float64{
		intent.FullMesh:  85,
		intent.LeafSpine: 82,
		intent.Hybrid:    80,
		intent.Tree:      78,
		intent.Ring:      75,
		intent.HubSpoke:  65,
	}
	score := base[p]

	switch {
	case p == intent.FullMesh && in.SiteCount <= 6:
		score += 10
	case p == intent.LeafSpine && in.SiteCount >= 8 && in.Redundancy.AtLeast(intent.RedundancyHigh):
		score += 12
	case p == intent.HubSpoke && in.DesignGoal == intent.GoalCost:
		score += 10
	case p == intent.Tree && in.SiteCount >= 20 && in.Redundancy == intent.RedundancyStandard:
		score += 10
	case p == intent.Ring && in.SiteCount >= 4 && in.SiteCount <= 12 &&
		in.Redundancy == intent.RedundancyStandard:
		score += 8
	}
	if score > 100 {
		score = 100
	}
	return score
}

func historyReason(m *history.PerformanceMetric) string {
	var parts []string
	if m.AvgOverall >= 85 {
		parts = append(parts, fmt.Sprintf("excellent validation (%.0f)", m.AvgOverall))
	} else if m.AvgOverall >= 75 {
		parts = append(parts, fmt.Sprintf("good validation (%.0f)", m.AvgOverall))
	}
	if m.SatisfactionRate >= 90 {
		parts = append(parts, fmt.Sprintf("high intent satisfaction (%.0f%%)", m.SatisfactionRate))
	} else if m.SatisfactionRate >= 75 {
		parts = append(parts, fmt.Sprintf("reliable intent satisfaction (%.0f%%)", m.SatisfactionRate))
	}
	if m.AvgResilienceImpact <= 20 {
		parts = append(parts, "strong failure resilience")
	}
	if m.SPOFEliminationRate >= 80 {
		parts = append(parts, "effective SPOF elimination")
	}
	if len(parts) == 0 {
		parts = append(parts, "proven performance")
	}
	reason := "recommended based on " + parts[0]
	for _, p := range parts[1:] {
		reason += ", " + p
	}
	return fmt.Sprintf("%s across %d runs", reason, m.SampleSize)
}

func estimateLinks(p intent.Pattern, sites int) int {
	switch p {
	case intent.FullMesh:
		return sites * (sites - 1) / 2
	case intent.HubSpoke:
		return sites - 1
	case intent.Ring:
		return sites
	case intent.Tree:
		return sites + sites/5
	case intent.LeafSpine:
		leaves := sites * 6 / 10
		return leaves * (sites - leaves)
	default:
		return sites * 3 / 2
	}
}

func patternPros(p intent.Pattern) []string {
	switch p {
	case intent.FullMesh:
		return []string{
			"maximum redundancy and path diversity",
			"single-hop reachability between all sites",
			"no single points of failure",
		}
	case intent.HubSpoke:
		return []string{
			"lowest link count and cost",
			"simple to manage and expand",
			"fits large branch networks",
		}
	case intent.Ring:
		return []string{
			"two disjoint paths with minimal links",
			"scales to hundreds of devices",
			"far cheaper than mesh",
		}
	case intent.Tree:
		return []string{
			"hierarchical, organized structure",
			"scales with clean layering",
			"core can be meshed while access stays simple",
		}
	case intent.LeafSpine:
		return []string{
			"data-center optimized",
			"predictable two-hop latency",
			"high east-west throughput",
		}
	default:
		return []string{
			"combines patterns per region",
			"optimizable per layer",
			"fits complex organizations",
		}
	}
}

func patternCons(p intent.Pattern) []string {
	switch p {
	case intent.FullMesh:
		return []string{
			"link count grows quadratically",
			"cost-excessive beyond ten sites",
		}
	case intent.HubSpoke:
		return []string{
			"hub is a single point of failure",
			"all traffic transits the hub",
		}
	case intent.Ring:
		return []string{
			"limited diversity for distant devices",
			"diameter grows linearly with size",
		}
	case intent.Tree:
		return []string{
			"aggregation layer can harbor SPOFs",
			"needs deliberate redundancy design",
		}
	case intent.LeafSpine:
		return []string{
			"more links than hierarchical designs",
			"relies on equal-cost multipath",
		}
	default:
		return []string{
			"harder to manage uniformly",
			"needs expertise to balance regions",
		}
	}
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
