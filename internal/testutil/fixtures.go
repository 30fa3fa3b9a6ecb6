// Package testutil provides shared topology fixtures for tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/topoforge-network/topoforge/pkg/intent"
	"github.com/topoforge-network/topoforge/pkg/topology"
	"github.com/topoforge-network/topoforge/pkg/util"
)

// TestIntent returns a valid intent with sensible defaults; tests
// override individual fields.
func TestIntent(pattern intent.Pattern, sites int) *intent.Intent {
	return &intent.Intent{
		Name:       "test",
		Pattern:    pattern,
		SiteCount:  sites,
		Redundancy: intent.RedundancyMinimum,
		MaxHops:    10,
		Protocol:   intent.OSPF,
		DesignGoal: intent.GoalCost,
	}
}

// TriangleTopology returns three routers in a cycle, fully
// addressed. The smallest 2-edge-connected fixture.
func TriangleTopology(t *testing.T) *topology.Topology {
	t.Helper()
	return buildTopology(t, "triangle", 3, [][2]int{{0, 1}, {1, 2}, {0, 2}})
}

// StarTopology returns hub R1 with n-1 spokes. R1 is the obvious
// articulation point.
func StarTopology(t *testing.T, n int) *topology.Topology {
	t.Helper()
	var edges [][2]int
	for i := 1; i < n; i++ {
		edges = append(edges, [2]int{0, i})
	}
	return buildTopology(t, "star", n, edges)
}

// RingTopology returns n routers in a cycle.
func RingTopology(t *testing.T, n int) *topology.Topology {
	t.Helper()
	var edges [][2]int
	for i := 0; i < n; i++ {
		edges = append(edges, [2]int{i, (i + 1) % n})
	}
	return buildTopology(t, "ring", n, edges)
}

// PathTopology returns n routers in a line; every interior router is
// an articulation point.
func PathTopology(t *testing.T, n int) *topology.Topology {
	t.Helper()
	var edges [][2]int
	for i := 0; i+1 < n; i++ {
		edges = append(edges, [2]int{i, i + 1})
	}
	return buildTopology(t, "path", n, edges)
}

func buildTopology(t *testing.T, name string, n int, edges [][2]int) *topology.Topology {
	t.Helper()
	topo := &topology.Topology{Name: name, Protocol: "ospf"}
	for i := 0; i < n; i++ {
		if err := topo.AddDevice(topology.Device{
			Name:     fmt.Sprintf("R%d", i+1),
			Kind:     topology.DeviceRouter,
			RouterID: util.RouterID(i),
			ASN:      65000 + i,
		}); err != nil {
			t.Fatalf("adding device: %v", err)
		}
	}
	alloc := topology.NewSubnetAllocator()
	ifaceSeq := make(map[string]int)
	nextIface := func(dev string) string {
		ifaceSeq[dev]++
		return fmt.Sprintf("eth%d", ifaceSeq[dev])
	}
	for _, e := range edges {
		sub, err := alloc.NextLinkSubnet()
		if err != nil {
			t.Fatalf("allocating subnet: %v", err)
		}
		a := topo.Devices[e[0]].Name
		b := topo.Devices[e[1]].Name
		if err := topo.AddLink(topology.Link{
			A: a, B: b,
			AIface: nextIface(a), BIface: nextIface(b),
			AIP: sub.First, BIP: sub.Second,
			Subnet: sub.Network, Mask: sub.Mask,
			Cost: 100,
		}); err != nil {
			t.Fatalf("adding link: %v", err)
		}
	}
	return topo
}
