package intent

import (
	"github.com/topoforge-network/topoforge/pkg/util"
)

// Constraints is the normalized form of an intent: the measurable
// targets that guide synthesis and validation.
type Constraints struct {
	// PathTarget is the minimum edge-disjoint-path count per pair.
	PathTarget int
	// MinConnections is the minimum degree per device.
	MinConnections int
	// MaxDiameter is the hop-count ceiling.
	MaxDiameter int
	// RequireNoSPOF means the topology must have zero articulation points.
	RequireNoSPOF bool
	// Pattern is the structural family to build.
	Pattern Pattern
	// Goal steers cost/latency trade-offs.
	Goal DesignGoal
}

// Parse validates an intent and normalizes it into constraints.
func Parse(in *Intent) (Constraints, error) {
	if err := in.Validate(); err != nil {
		return Constraints{}, err
	}

	minConns := in.Redundancy.Target()
	if in.MinConnsPerSite > minConns {
		minConns = in.MinConnsPerSite
	}

	c := Constraints{
		PathTarget:     in.Redundancy.Target(),
		MinConnections: minConns,
		MaxDiameter:    in.MaxHops,
		RequireNoSPOF:  in.MinimizeSPOF,
		Pattern:        in.Pattern,
		Goal:           in.DesignGoal,
	}

	util.WithField("intent", in.Name).Debugf(
		"parsed constraints: paths>=%d conns>=%d diameter<=%d spof=%v",
		c.PathTarget, c.MinConnections, c.MaxDiameter, c.RequireNoSPOF)

	return c, nil
}
