package history

import (
	"time"
)

// feedbackWeight is how many validation samples one explicit user
// rating outweighs in the satisfaction aggregate.
const feedbackWeight = 5

// baseRecords is the raw material an aggregate is computed from.
// Every backend feeds its base tables through ComputeMetrics so the
// incremental and batch paths cannot disagree.
type baseRecords struct {
	topologies      []*TopologyRecord
	validations     map[string]*ValidationRecord   // by topology ID
	simulations     map[string][]*SimulationRecord // by topology ID
	recommendations []*RecommendationRecord
}

// ComputeMetrics derives every PerformanceMetric row from base
// records. Explicit user feedback weighs feedbackWeight times a
// validation sample in the satisfaction rate.
func ComputeMetrics(b baseRecords, now time.Time) []*PerformanceMetric {
	type bucket struct {
		metric         *PerformanceMetric
		overallSum     float64
		redundancySum  float64
		diversitySum   float64
		resilienceSum  float64
		resilienceN    int
		validations    int
		satisfied      int
		spofEliminated int
		feedbackSum    float64 // normalized 0-100
		feedbackN      int
	}

	buckets := make(map[string]*bucket)
	keyOf := func(pattern, redundancy, goal string) *bucket {
		k := pattern + "|" + redundancy + "|" + goal
		bk, ok := buckets[k]
		if !ok {
			bk = &bucket{metric: &PerformanceMetric{
				Pattern: pattern, Redundancy: redundancy, DesignGoal: goal,
			}}
			buckets[k] = bk
		}
		return bk
	}

	for _, t := range b.topologies {
		bk := keyOf(t.Pattern, t.Redundancy, t.DesignGoal)
		bk.metric.SampleSize++

		if v := b.validations[t.ID]; v != nil {
			bk.validations++
			bk.overallSum += v.OverallScore
			bk.redundancySum += v.RedundancyScore
			bk.diversitySum += v.PathDiversityScore
			if v.Satisfied {
				bk.satisfied++
			}
			if v.SPOFEliminated {
				bk.spofEliminated++
			}
		}
		for _, s := range b.simulations[t.ID] {
			bk.resilienceSum += s.ResilienceImpact
			bk.resilienceN++
		}
	}

	// Explicit feedback attaches to the pattern the user selected
	// (or the recommended one when no selection was recorded).
	for _, r := range b.recommendations {
		if r.Feedback < 1 {
			continue
		}
		pattern := r.UserSelected
		if pattern == "" {
			pattern = r.RecommendedPattern
		}
		bk := keyOf(pattern, r.Redundancy, r.DesignGoal)
		bk.feedbackSum += float64(r.Feedback-1) / 4 * 100
		bk.feedbackN++
	}

	var out []*PerformanceMetric
	for _, bk := range buckets {
		m := bk.metric
		if bk.validations > 0 {
			n := float64(bk.validations)
			m.AvgOverall = bk.overallSum / n
			m.AvgRedundancy = bk.redundancySum / n
			m.AvgPathDiversity = bk.diversitySum / n
			m.SPOFEliminationRate = float64(bk.spofEliminated) / n * 100
		}
		if bk.resilienceN > 0 {
			m.AvgResilienceImpact = bk.resilienceSum / float64(bk.resilienceN)
		}

		weight := float64(bk.validations) + feedbackWeight*float64(bk.feedbackN)
		if weight > 0 {
			m.SatisfactionRate = (float64(bk.satisfied)*100 + feedbackWeight*bk.feedbackSum) / weight
		}

		m.Confidence = confidence(m.SampleSize)
		m.UpdatedAt = now
		out = append(out, m)
	}
	return out
}

// confidence maps sample size to 100*min(1, n/10).
func confidence(sampleSize int) float64 {
	c := float64(sampleSize) / 10 * 100
	if c > 100 {
		c = 100
	}
	return c
}
