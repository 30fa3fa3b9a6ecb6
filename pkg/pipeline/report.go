package pipeline

import (
	"fmt"
	"strings"

	"github.com/topoforge-network/topoforge/pkg/analyze"
	"github.com/topoforge-network/topoforge/pkg/history"
	"github.com/topoforge-network/topoforge/pkg/intent"
	"github.com/topoforge-network/topoforge/pkg/simulate"
	"github.com/topoforge-network/topoforge/pkg/topology"
	"github.com/topoforge-network/topoforge/pkg/validate"
)

// Pipeline outcome states.
const (
	StatusSuccess        = "success"
	StatusPartialSuccess = "partial_success"
	StatusFailed         = "failed"
	StatusCancelled      = "cancelled"
)

// StageStatus is one stage's outcome in a pipeline report.
type StageStatus struct {
	Name       string `json:"name"`
	OK         bool   `json:"ok"`
	Skipped    bool   `json:"skipped"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Report is the structured result of one pipeline invocation.
type Report struct {
	IntentName         string                       `json:"intent_name"`
	Status             string                       `json:"status"`
	Stages             []StageStatus                `json:"stages"`
	TopologyID         string                       `json:"topology_id,omitempty"`
	Topology           *topology.Topology           `json:"topology,omitempty"`
	Analysis           *analyze.Result              `json:"analysis,omitempty"`
	Simulations        []*simulate.Result           `json:"simulations,omitempty"`
	Validation         *validate.Result             `json:"validation,omitempty"`
	Optimization       *history.OptimizationRecord  `json:"optimization,omitempty"`
	EffectivePattern   intent.Pattern               `json:"effective_pattern,omitempty"`
	PartialPersistence bool                         `json:"partial_persistence,omitempty"`
}

// Summary renders a one-paragraph account of the run.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pipeline %s: %s", r.IntentName, r.Status)
	if r.Topology != nil {
		fmt.Fprintf(&b, "; %d devices, %d links", len(r.Topology.Devices), len(r.Topology.Links))
	}
	if r.Analysis != nil {
		fmt.Fprintf(&b, "; health %.0f/100, %d SPOFs", r.Analysis.HealthScore, len(r.Analysis.SPOFs))
	}
	if r.Validation != nil {
		fmt.Fprintf(&b, "; validation %.1f (satisfied %v)", r.Validation.OverallScore, r.Validation.Satisfied)
	}
	if r.Optimization != nil {
		fmt.Fprintf(&b, "; pattern overridden %s -> %s",
			r.Optimization.OriginalPattern, r.Optimization.AdjustedPattern)
	}
	var failed []string
	for _, st := range r.Stages {
		if !st.OK && !st.Skipped {
			failed = append(failed, fmt.Sprintf("%s (%s)", st.Name, st.ErrorKind))
		}
	}
	if len(failed) > 0 {
		fmt.Fprintf(&b, "; failed stages: %s", strings.Join(failed, ", "))
	}
	if r.PartialPersistence {
		b.WriteString("; persistence incomplete")
	}
	return b.String()
}
