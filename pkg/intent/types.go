// Package intent defines the declarative intent record and the parser
// that normalizes it into concrete synthesis constraints.
package intent

import (
	"fmt"

	"github.com/topoforge-network/topoforge/pkg/util"
)

// Pattern is one of the structural families the synthesizer builds.
type Pattern string

const (
	FullMesh  Pattern = "full-mesh"
	HubSpoke  Pattern = "hub-spoke"
	Ring      Pattern = "ring"
	Tree      Pattern = "tree"
	LeafSpine Pattern = "leaf-spine"
	Hybrid    Pattern = "hybrid"
)

// Patterns lists every known pattern in a stable order.
func Patterns() []Pattern {
	return []Pattern{FullMesh, HubSpoke, Ring, Tree, LeafSpine, Hybrid}
}

// ParsePattern rejects unknown pattern labels.
func ParsePattern(s string) (Pattern, error) {
	for _, p := range Patterns() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", util.NewIntentError("pattern", s, "unknown pattern",
		"use one of full-mesh, hub-spoke, ring, tree, leaf-spine, hybrid")
}

// Redundancy expresses the desired edge-disjoint-path count.
type Redundancy string

const (
	RedundancyMinimum  Redundancy = "minimum"
	RedundancyStandard Redundancy = "standard"
	RedundancyHigh     Redundancy = "high"
	RedundancyCritical Redundancy = "critical"
)

// Target maps a redundancy level to its minimum edge-disjoint-path
// count: 1, 2, 3 and 4 respectively.
func (r Redundancy) Target() int {
	switch r {
	case RedundancyMinimum:
		return 1
	case RedundancyStandard:
		return 2
	case RedundancyHigh:
		return 3
	case RedundancyCritical:
		return 4
	}
	return 1
}

// AtLeast reports whether r is at or above the given level.
func (r Redundancy) AtLeast(other Redundancy) bool {
	return r.Target() >= other.Target()
}

// ParseRedundancy rejects unknown redundancy labels.
func ParseRedundancy(s string) (Redundancy, error) {
	switch Redundancy(s) {
	case RedundancyMinimum, RedundancyStandard, RedundancyHigh, RedundancyCritical:
		return Redundancy(s), nil
	}
	return "", util.NewIntentError("redundancy", s, "unknown redundancy level",
		"use one of minimum, standard, high, critical")
}

// Protocol is the routing protocol tag. Only OSPF is implemented by
// the core; the others are accepted and carried through as the
// topology's protocol tag, and synthesis builds the same topology
// whatever the tag.
type Protocol string

const (
	OSPF Protocol = "ospf"
	BGP  Protocol = "bgp"
	ISIS Protocol = "isis"
)

// ParseProtocol rejects unknown protocol labels.
func ParseProtocol(s string) (Protocol, error) {
	switch Protocol(s) {
	case OSPF, BGP, ISIS:
		return Protocol(s), nil
	}
	return "", util.NewIntentError("protocol", s, "unknown protocol",
		"use one of ospf, bgp, isis")
}

// DesignGoal steers optimization trade-offs.
type DesignGoal string

const (
	GoalCost        DesignGoal = "cost"
	GoalRedundancy  DesignGoal = "redundancy"
	GoalLatency     DesignGoal = "latency"
	GoalScalability DesignGoal = "scalability"
)

// ParseDesignGoal rejects unknown design goal labels.
func ParseDesignGoal(s string) (DesignGoal, error) {
	switch DesignGoal(s) {
	case GoalCost, GoalRedundancy, GoalLatency, GoalScalability:
		return DesignGoal(s), nil
	}
	return "", util.NewIntentError("design_goal", s, "unknown design goal",
		"use one of cost, redundancy, latency, scalability")
}

// Intent is the closed declarative record driving synthesis. It is
// immutable once handed to the synthesizer and stored verbatim for
// reproducibility.
type Intent struct {
	Name              string     `json:"name" yaml:"name"`
	Pattern           Pattern    `json:"pattern" yaml:"pattern"`
	SiteCount         int        `json:"site_count" yaml:"site_count"`
	Redundancy        Redundancy `json:"redundancy" yaml:"redundancy"`
	MaxHops           int        `json:"max_hops" yaml:"max_hops"`
	Protocol          Protocol   `json:"protocol" yaml:"protocol"`
	DesignGoal        DesignGoal `json:"design_goal" yaml:"design_goal"`
	MinimizeSPOF      bool       `json:"minimize_spof" yaml:"minimize_spof"`
	MinConnsPerSite   int        `json:"min_connections_per_site" yaml:"min_connections_per_site"`
}

const (
	// MinSites and MaxSites bound site_count.
	MinSites = 2
	MaxSites = 500
)

// Validate checks every field against its domain. It reports all
// problems, not just the first.
func (in *Intent) Validate() error {
	v := &util.ValidationBuilder{}

	if in.Name == "" {
		v.AddError("intent name is required")
	}
	if _, err := ParsePattern(string(in.Pattern)); err != nil {
		v.AddErrorf("pattern %q is not recognized", in.Pattern)
	}
	if in.SiteCount < MinSites || in.SiteCount > MaxSites {
		v.AddErrorf("site_count %d outside [%d, %d] (lower site_count or split the design)",
			in.SiteCount, MinSites, MaxSites)
	}
	if _, err := ParseRedundancy(string(in.Redundancy)); err != nil {
		v.AddErrorf("redundancy %q is not recognized", in.Redundancy)
	}
	if in.MaxHops <= 0 {
		v.AddErrorf("max_hops %d must be positive (increase max_hops)", in.MaxHops)
	}
	if _, err := ParseProtocol(string(in.Protocol)); err != nil {
		v.AddErrorf("protocol %q is not recognized", in.Protocol)
	}
	if _, err := ParseDesignGoal(string(in.DesignGoal)); err != nil {
		v.AddErrorf("design_goal %q is not recognized", in.DesignGoal)
	}
	if in.MinConnsPerSite < 0 {
		v.AddErrorf("min_connections_per_site %d must be nonnegative", in.MinConnsPerSite)
	}
	if in.SiteCount > 0 && in.MinConnsPerSite >= in.SiteCount {
		v.AddErrorf("min_connections_per_site %d must be below site_count %d",
			in.MinConnsPerSite, in.SiteCount)
	}

	if err := v.Build(); err != nil {
		return fmt.Errorf("%w: %v", util.ErrInvalidIntent, err)
	}
	return nil
}
