// Package history persists every generation, validation, simulation,
// recommendation and optimization, and serves the aggregate queries
// the recommendation subsystem learns from. The storage engine is
// pluggable behind the Store interface.
package history

import (
	"time"
)

// TopologyRecord captures one synthesized topology.
type TopologyRecord struct {
	ID           string    `json:"id"`
	IntentJSON   string    `json:"intent_json"`
	Pattern      string    `json:"pattern"`
	SiteCount    int       `json:"site_count"`
	DeviceCount  int       `json:"device_count"`
	LinkCount    int       `json:"link_count"`
	Redundancy   string    `json:"redundancy"`
	Protocol     string    `json:"protocol"`
	DesignGoal   string    `json:"design_goal"`
	MinimizeSPOF bool      `json:"minimize_spof"`
	AvgDegree    float64   `json:"avg_degree"`
	Diameter     int       `json:"diameter"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidationRecord captures one validation outcome.
type ValidationRecord struct {
	ID                 string    `json:"id"`
	TopologyID         string    `json:"topology_id"`
	Satisfied          bool      `json:"satisfied"`
	OverallScore       float64   `json:"overall_score"`
	RedundancyScore    float64   `json:"redundancy_score"`
	PathDiversityScore float64   `json:"path_diversity_score"`
	MaxHopsOK          bool      `json:"max_hops_ok"`
	SPOFEliminated     bool      `json:"spof_eliminated"`
	PatternMatched     bool      `json:"pattern_matched"`
	Violations         []string  `json:"violations"`
	DurationMs         int64     `json:"duration_ms"`
	CreatedAt          time.Time `json:"created_at"`
}

// SimulationRecord captures one failure simulation outcome. The
// resilience impact is the connectivity loss percentage.
type SimulationRecord struct {
	ID               string    `json:"id"`
	TopologyID       string    `json:"topology_id"`
	ScenarioKind     string    `json:"scenario_kind"`
	ScenarioPayload  string    `json:"scenario_payload"`
	Partitioned      bool      `json:"partitioned"`
	IsolatedCount    int       `json:"isolated_count"`
	ComponentsCount  int       `json:"components_count"`
	ResilienceImpact float64   `json:"resilience_impact"`
	CreatedAt        time.Time `json:"created_at"`
}

// PerformanceMetric is the materialized aggregate keyed by
// (pattern, redundancy, design goal).
type PerformanceMetric struct {
	Pattern             string    `json:"pattern"`
	Redundancy          string    `json:"redundancy"`
	DesignGoal          string    `json:"design_goal"`
	SampleSize          int       `json:"sample_size"`
	AvgOverall          float64   `json:"avg_overall"`
	AvgRedundancy       float64   `json:"avg_redundancy"`
	AvgPathDiversity    float64   `json:"avg_path_diversity"`
	AvgResilienceImpact float64   `json:"avg_resilience_impact"`
	SPOFEliminationRate float64   `json:"spof_elimination_rate"`
	SatisfactionRate    float64   `json:"satisfaction_rate"`
	Confidence          float64   `json:"confidence"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Key returns the metric's composite key.
func (m *PerformanceMetric) Key() string {
	return m.Pattern + "|" + m.Redundancy + "|" + m.DesignGoal
}

// RecommendationRecord captures one recommendation and, later, the
// user's reaction to it. Feedback is 1-5, or -1 when absent.
type RecommendationRecord struct {
	ID                  string    `json:"id"`
	IntentJSON          string    `json:"intent_json"`
	Redundancy          string    `json:"redundancy"`
	DesignGoal          string    `json:"design_goal"`
	RecommendedPattern  string    `json:"recommended_pattern"`
	Confidence          float64   `json:"confidence"`
	Alternatives        []string  `json:"alternatives"`
	UserSelected        string    `json:"user_selected"`
	ResultingTopologyID string    `json:"resulting_topology_id"`
	Feedback            int       `json:"feedback"`
	CreatedAt           time.Time `json:"created_at"`
}

// OptimizationRecord captures one autonomous pattern override.
// ActualImprovement stays unset (HasActual false) until a validation
// for the resulting topology lands.
type OptimizationRecord struct {
	ID                  string    `json:"id"`
	IntentJSON          string    `json:"intent_json"`
	OriginalPattern     string    `json:"original_pattern"`
	AdjustedPattern     string    `json:"adjusted_pattern"`
	Reason              string    `json:"reason"`
	ExpectedImprovement float64   `json:"expected_improvement"`
	ActualImprovement   float64   `json:"actual_improvement"`
	HasActual           bool      `json:"has_actual"`
	CreatedAt           time.Time `json:"created_at"`
}
