package history

import (
	"context"
)

// Store is the persistence boundary for the six record kinds and the
// aggregate queries the recommender consumes. Implementations must
// make inserts atomic per record kind and keep PerformanceMetric in
// agreement with a from-scratch recompute over the base tables.
type Store interface {
	SaveTopology(ctx context.Context, rec *TopologyRecord) error
	GetTopology(ctx context.Context, id string) (*TopologyRecord, error)
	ListTopologies(ctx context.Context) ([]*TopologyRecord, error)
	// Recent returns topology records created within the last N days.
	Recent(ctx context.Context, days int) ([]*TopologyRecord, error)

	SaveValidation(ctx context.Context, rec *ValidationRecord) error
	ValidationForTopology(ctx context.Context, topologyID string) (*ValidationRecord, error)

	SaveSimulation(ctx context.Context, rec *SimulationRecord) error
	SimulationsForTopology(ctx context.Context, topologyID string) ([]*SimulationRecord, error)

	SaveRecommendation(ctx context.Context, rec *RecommendationRecord) error
	ListRecommendations(ctx context.Context) ([]*RecommendationRecord, error)
	// UpdateRecommendationFeedback records the user's selection and
	// rating. Write-once: a second update is rejected.
	UpdateRecommendationFeedback(ctx context.Context, id, userSelected, topologyID string, feedback int) error

	SaveOptimization(ctx context.Context, rec *OptimizationRecord) error
	ListOptimizations(ctx context.Context) ([]*OptimizationRecord, error)
	// SetOptimizationOutcome back-fills the measured improvement.
	SetOptimizationOutcome(ctx context.Context, id string, actual float64) error

	// MetricsFor returns the aggregates matching a redundancy level
	// and design goal, one per pattern that has history.
	MetricsFor(ctx context.Context, redundancy, designGoal string) ([]*PerformanceMetric, error)
	MetricFor(ctx context.Context, pattern, redundancy, designGoal string) (*PerformanceMetric, error)
	// RecomputeMetrics rebuilds every aggregate from the base tables.
	// Maintenance entry point; the result must equal what incremental
	// upkeep produced.
	RecomputeMetrics(ctx context.Context) error

	Close() error
}
