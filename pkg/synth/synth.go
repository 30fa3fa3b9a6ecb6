// Package synth builds topologies from parsed intent. Each pattern
// builder emits devices and planned edges in a deterministic order;
// materialization assigns interfaces and /30 subnets, and a
// redundancy pass adds edges until the intent's edge-disjoint-path
// target is met or the pattern's link budget runs out.
package synth

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/topoforge-network/topoforge/pkg/intent"
	"github.com/topoforge-network/topoforge/pkg/topology"
	"github.com/topoforge-network/topoforge/pkg/util"
)

// Link cost classes. Base cost is 100; the latency design goal
// lowers primary fabric links and raises redundancy links.
const (
	costBase       = 100
	costFast       = 50
	costRedundancy = 150
)

// linkClass tags a planned edge for cost assignment.
type linkClass int

const (
	classDefault linkClass = iota
	classFabric            // core mesh / leaf-spine primary links
	classRedundancy
)

// plannedEdge is an edge before interface and subnet assignment.
type plannedEdge struct {
	a, b  string
	class linkClass
}

// Synthesizer builds topologies from intent. The seed drives every
// random choice so a replay with identical inputs yields an
// identical topology.
type Synthesizer struct {
	seed int64
	rng  *rand.Rand
}

// DefaultSeed is used for unseeded synthesis; unseeded runs are
// therefore reproducible too.
const DefaultSeed = 1

// New returns a synthesizer with the default seed.
func New() *Synthesizer {
	return NewSeeded(DefaultSeed)
}

// NewSeeded returns a synthesizer whose random choices derive from
// the given seed.
func NewSeeded(seed int64) *Synthesizer {
	return &Synthesizer{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

// budgetMultiplier bounds how far the redundancy pass may grow each
// pattern beyond its base link count.
func budgetMultiplier(p intent.Pattern) float64 {
	switch p {
	case intent.FullMesh:
		return 1.25
	case intent.HubSpoke:
		return 1.5
	case intent.Ring:
		return 2.0
	case intent.Tree:
		return 2.0
	case intent.LeafSpine:
		return 1.5
	case intent.Hybrid:
		return 1.75
	}
	return 1.5
}

// Synthesize builds a topology satisfying the intent's pattern and,
// within the pattern's link budget, its redundancy target.
func (s *Synthesizer) Synthesize(in *intent.Intent) (*topology.Topology, error) {
	cons, err := intent.Parse(in)
	if err != nil {
		return nil, err
	}

	log := util.WithTopology(in.Name)
	log.Infof("synthesizing %s topology with %d sites, redundancy %s",
		in.Pattern, in.SiteCount, in.Redundancy)

	b := newBuilder(in)
	var edges []plannedEdge
	switch in.Pattern {
	case intent.FullMesh:
		edges = b.fullMesh()
	case intent.HubSpoke:
		edges, err = b.hubSpoke()
	case intent.Ring:
		edges = b.ring()
	case intent.Tree:
		edges = b.tree(s.rng)
	case intent.LeafSpine:
		edges = b.leafSpine()
	case intent.Hybrid:
		edges = b.hybrid()
	default:
		return nil, util.NewIntentError("pattern", in.Pattern, "unknown pattern", "")
	}
	if err != nil {
		return nil, err
	}

	topo, err := b.materialize(edges, in)
	if err != nil {
		return nil, err
	}

	if err := s.addRedundancy(b, topo, in, cons); err != nil {
		return nil, err
	}

	if err := topo.Validate(); err != nil {
		return nil, fmt.Errorf("synthesized topology failed invariants: %w", err)
	}

	log.Infof("synthesized %d devices, %d links", len(topo.Devices), len(topo.Links))
	return topo, nil
}

// builder accumulates devices and hands out interface labels and
// router identities in creation order.
type builder struct {
	in       *intent.Intent
	devices  []topology.Device
	names    map[string]bool
	ifaceSeq map[string]int
	routerIx int
	alloc    *topology.SubnetAllocator
}

func newBuilder(in *intent.Intent) *builder {
	return &builder{
		in:       in,
		names:    make(map[string]bool),
		ifaceSeq: make(map[string]int),
		alloc:    topology.NewSubnetAllocator(),
	}
}

func (b *builder) addRouter(name string) {
	b.devices = append(b.devices, topology.Device{
		Name:     name,
		Kind:     topology.DeviceRouter,
		RouterID: util.RouterID(b.routerIx),
		ASN:      65000 + b.routerIx,
	})
	b.routerIx++
	b.names[name] = true
}

func (b *builder) addSwitch(name string) {
	b.devices = append(b.devices, topology.Device{
		Name: name,
		Kind: topology.DeviceSwitch,
	})
	b.names[name] = true
}

func (b *builder) nextIface(device string) string {
	b.ifaceSeq[device]++
	return fmt.Sprintf("eth%d", b.ifaceSeq[device])
}

// materialize turns planned edges into links with interfaces, /30
// addressing and costs, in plan order.
func (b *builder) materialize(edges []plannedEdge, in *intent.Intent) (*topology.Topology, error) {
	topo := &topology.Topology{
		Name:     fmt.Sprintf("%s-%s", in.Name, in.Pattern),
		Protocol: string(in.Protocol),
		Devices:  b.devices,
	}
	for _, e := range edges {
		link, err := b.link(e.a, e.b, e.class, in.DesignGoal)
		if err != nil {
			return nil, err
		}
		topo.Links = append(topo.Links, link)
	}
	return topo, nil
}

func (b *builder) link(a, c string, class linkClass, goal intent.DesignGoal) (topology.Link, error) {
	sub, err := b.alloc.NextLinkSubnet()
	if err != nil {
		return topology.Link{}, err
	}
	cost := costBase
	if goal == intent.GoalLatency {
		switch class {
		case classFabric:
			cost = costFast
		case classRedundancy:
			cost = costRedundancy
		}
	}
	return topology.Link{
		A:      a,
		B:      c,
		AIface: b.nextIface(a),
		BIface: b.nextIface(c),
		AIP:    sub.First,
		BIP:    sub.Second,
		Subnet: sub.Network,
		Mask:   sub.Mask,
		Cost:   cost,
	}, nil
}

// fullMesh connects every device pair once. R1..Rn.
func (b *builder) fullMesh() []plannedEdge {
	n := b.in.SiteCount
	for i := 1; i <= n; i++ {
		b.addRouter(fmt.Sprintf("R%d", i))
	}
	var edges []plannedEdge
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			edges = append(edges, plannedEdge{a: b.devices[i].Name, b: b.devices[j].Name})
		}
	}
	return edges
}

// hubSpoke builds a star on R1. When the intent demands SPOF
// minimization a secondary hub is added and every spoke dual-homes,
// which needs at least standard redundancy to be meaningful.
func (b *builder) hubSpoke() ([]plannedEdge, error) {
	in := b.in
	dualHub := false
	if in.MinimizeSPOF {
		if !in.Redundancy.AtLeast(intent.RedundancyStandard) {
			return nil, util.NewSynthesisError(string(in.Pattern),
				"hub-spoke cannot eliminate the hub SPOF at minimum redundancy",
				"raise redundancy to standard or choose another pattern")
		}
		dualHub = true
	}

	n := in.SiteCount
	for i := 1; i <= n; i++ {
		b.addRouter(fmt.Sprintf("R%d", i))
	}

	var edges []plannedEdge
	hub := b.devices[0].Name
	firstSpoke := 1
	var hub2 string
	if dualHub && n >= 3 {
		hub2 = b.devices[1].Name
		firstSpoke = 2
		edges = append(edges, plannedEdge{a: hub, b: hub2, class: classFabric})
	}
	for i := firstSpoke; i < n; i++ {
		spoke := b.devices[i].Name
		edges = append(edges, plannedEdge{a: hub, b: spoke})
		if hub2 != "" {
			edges = append(edges, plannedEdge{a: hub2, b: spoke})
		}
	}
	return edges, nil
}

// ring connects each device to its two neighbors modulo n, plus
// diametric chords at high redundancy and above.
func (b *builder) ring() []plannedEdge {
	n := b.in.SiteCount
	for i := 1; i <= n; i++ {
		b.addRouter(fmt.Sprintf("R%d", i))
	}
	var edges []plannedEdge
	if n == 2 {
		// A two-site ring collapses to a single link.
		return []plannedEdge{{a: b.devices[0].Name, b: b.devices[1].Name}}
	}
	for i := 0; i < n; i++ {
		edges = append(edges, plannedEdge{a: b.devices[i].Name, b: b.devices[(i+1)%n].Name})
	}
	if b.in.Redundancy.AtLeast(intent.RedundancyHigh) && n >= 4 {
		for i := 0; i < n/2; i++ {
			j := (i + n/2) % n
			if j != (i+1)%n && j != (i+n-1)%n {
				edges = append(edges, plannedEdge{
					a: b.devices[i].Name, b: b.devices[j].Name, class: classRedundancy})
			}
		}
	}
	return edges
}

// tree builds the classic core / aggregation / access hierarchy.
// Core devices mesh; aggregation dual-homes to core from standard
// redundancy up; access stays single-homed unless the intent demands
// SPOF elimination, keeping the design lean for cost-driven intents.
func (b *builder) tree(rng *rand.Rand) []plannedEdge {
	in := b.in
	total := in.SiteCount

	coreCount := total / 10
	if coreCount < 1 {
		coreCount = 1
	}
	aggCount := total/3 - coreCount
	if aggCount < 1 {
		aggCount = 1
	}
	if in.MinimizeSPOF && aggCount < 2 && total >= 4 {
		aggCount = 2
	}
	accessCount := total - coreCount - aggCount
	if accessCount < 0 {
		accessCount = 0
	}

	var cores, aggs, access []string
	for i := 1; i <= coreCount; i++ {
		name := fmt.Sprintf("C%d", i)
		b.addRouter(name)
		cores = append(cores, name)
	}
	for i := 1; i <= aggCount; i++ {
		name := fmt.Sprintf("A%d", i)
		// Alternate router/switch aggregation like a collapsed
		// distribution layer.
		if i%2 == 1 {
			b.addRouter(name)
		} else {
			b.addSwitch(name)
		}
		aggs = append(aggs, name)
	}
	for i := 1; i <= accessCount; i++ {
		name := fmt.Sprintf("E%d", i)
		b.addSwitch(name)
		access = append(access, name)
	}

	var edges []plannedEdge
	for i := 0; i < len(cores); i++ {
		for j := i + 1; j < len(cores); j++ {
			edges = append(edges, plannedEdge{a: cores[i], b: cores[j], class: classFabric})
		}
	}

	uplinks := 1
	if in.Redundancy.AtLeast(intent.RedundancyStandard) {
		uplinks = 2
	}
	for i, agg := range aggs {
		targets := pickCores(cores, i, uplinks, rng)
		for _, c := range targets {
			edges = append(edges, plannedEdge{a: agg, b: c})
		}
	}

	downlinks := 1
	if in.MinimizeSPOF {
		downlinks = 2
	}
	for i, acc := range access {
		for k := 0; k < downlinks && k < len(aggs); k++ {
			edges = append(edges, plannedEdge{a: acc, b: aggs[(i+k)%len(aggs)]})
		}
	}
	return edges
}

// pickCores chooses count distinct core devices for an aggregation
// uplink. With more cores than uplinks the choice is drawn from the
// seeded stream.
func pickCores(cores []string, aggIdx, count int, rng *rand.Rand) []string {
	if count >= len(cores) {
		return cores
	}
	if len(cores) <= 2 {
		out := make([]string, 0, count)
		for k := 0; k < count; k++ {
			out = append(out, cores[(aggIdx+k)%len(cores)])
		}
		return out
	}
	perm := rng.Perm(len(cores))
	out := make([]string, count)
	for k := 0; k < count; k++ {
		out[k] = cores[perm[k]]
	}
	sort.Strings(out)
	return out
}

// leafSpine splits the sites into leaves and spines so that the
// spine count is the integer sqrt of twice the leaf count, clamped
// to [2, leaves], and connects every leaf to every spine.
func (b *builder) leafSpine() []plannedEdge {
	leaves, spines := leafSpineSplit(b.in.SiteCount)

	var leafNames, spineNames []string
	for i := 1; i <= leaves; i++ {
		name := fmt.Sprintf("L%d", i)
		b.addRouter(name)
		leafNames = append(leafNames, name)
	}
	for i := 1; i <= spines; i++ {
		name := fmt.Sprintf("S%d", i)
		b.addRouter(name)
		spineNames = append(spineNames, name)
	}

	var edges []plannedEdge
	for _, l := range leafNames {
		for _, s := range spineNames {
			edges = append(edges, plannedEdge{a: l, b: s, class: classFabric})
		}
	}
	return edges
}

// leafSpineSplit finds the leaf/spine division of siteCount where
// spines = floor(sqrt(2*leaves)) clamped to [2, leaves]. Small site
// counts fall back to an even split.
func leafSpineSplit(siteCount int) (leaves, spines int) {
	if siteCount < 4 {
		spines = siteCount / 2
		return siteCount - spines, spines
	}
	for l := siteCount - 2; l >= 2; l-- {
		s := int(math.Sqrt(float64(2 * l)))
		if s < 2 {
			s = 2
		}
		if s > l {
			s = l
		}
		if l+s == siteCount {
			return l, s
		}
	}
	spines = 2
	return siteCount - 2, spines
}

// hybrid partitions the sites into a leaf-spine core region and tree
// branch regions of up to five sites each. Branch gateways uplink to
// core leaves; a second uplink is added from standard redundancy up.
func (b *builder) hybrid() []plannedEdge {
	in := b.in
	total := in.SiteCount

	coreSize := total * 2 / 5
	if coreSize < 4 {
		coreSize = 4
	}
	if coreSize > total {
		coreSize = total
	}
	branchSites := total - coreSize

	leaves, spines := leafSpineSplit(coreSize)
	var leafNames, spineNames []string
	for i := 1; i <= leaves; i++ {
		name := fmt.Sprintf("L%d", i)
		b.addRouter(name)
		leafNames = append(leafNames, name)
	}
	for i := 1; i <= spines; i++ {
		name := fmt.Sprintf("S%d", i)
		b.addRouter(name)
		spineNames = append(spineNames, name)
	}

	var edges []plannedEdge
	for _, l := range leafNames {
		for _, s := range spineNames {
			edges = append(edges, plannedEdge{a: l, b: s, class: classFabric})
		}
	}

	// Branch regions: one gateway router plus up to four access
	// switches per region.
	const branchSize = 5
	branchCount := (branchSites + branchSize - 1) / branchSize
	site := 0
	for r := 1; r <= branchCount; r++ {
		gw := fmt.Sprintf("B%dG", r)
		b.addRouter(gw)
		site++

		uplinks := 1
		if in.Redundancy.AtLeast(intent.RedundancyStandard) {
			uplinks = 2
		}
		for k := 0; k < uplinks && k < len(leafNames); k++ {
			edges = append(edges, plannedEdge{a: gw, b: leafNames[(r-1+k)%len(leafNames)]})
		}

		for m := 1; m < branchSize && site < branchSites; m++ {
			name := fmt.Sprintf("B%dE%d", r, m)
			b.addSwitch(name)
			site++
			edges = append(edges, plannedEdge{a: name, b: gw})
		}
	}
	return edges
}
