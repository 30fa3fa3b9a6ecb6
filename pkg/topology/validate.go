package topology

import (
	"github.com/topoforge-network/topoforge/pkg/util"
)

// Validate checks the structural invariants that must hold for every
// synthesized topology:
//
//  1. every link endpoint references an existing device
//  2. each link's two IPs share a /30 and no two links share a subnet
//  3. router IDs are unique across routers
//  4. interface labels are unique within a device
//
// Connectivity (single connected component) is a graph property and
// is checked by the graph package; callers that need the full ingress
// contract combine both.
func (t *Topology) Validate() error {
	v := &util.ValidationBuilder{}

	names := make(map[string]bool, len(t.Devices))
	for _, d := range t.Devices {
		if names[d.Name] {
			v.AddErrorf("duplicate device name %q", d.Name)
		}
		names[d.Name] = true
	}

	routerIDs := make(map[string]string)
	for _, d := range t.Devices {
		if !d.IsRouter() {
			continue
		}
		if d.RouterID == "" {
			v.AddErrorf("router %s has no router ID", d.Name)
			continue
		}
		if other, dup := routerIDs[d.RouterID]; dup {
			v.AddErrorf("router ID %s assigned to both %s and %s", d.RouterID, other, d.Name)
		}
		routerIDs[d.RouterID] = d.Name
	}

	subnets := make(map[string]int)
	ifaces := make(map[string]bool)
	for i, l := range t.Links {
		if !names[l.A] {
			v.AddErrorf("link %d endpoint references unknown device %q", i, l.A)
		}
		if !names[l.B] {
			v.AddErrorf("link %d endpoint references unknown device %q", i, l.B)
		}
		if l.A == l.B {
			v.AddErrorf("link %d connects device %q to itself", i, l.A)
		}

		for _, ep := range []struct{ dev, iface string }{{l.A, l.AIface}, {l.B, l.BIface}} {
			key := ep.dev + ":" + ep.iface
			if ifaces[key] {
				v.AddErrorf("interface %s used by more than one link", key)
			}
			ifaces[key] = true
		}

		if !util.SameSubnet(l.AIP, l.BIP, 30) {
			v.AddErrorf("link %d IPs %s and %s are not in the same /30", i, l.AIP, l.BIP)
		}
		if l.Subnet != "" {
			if prev, dup := subnets[l.Subnet]; dup {
				v.AddErrorf("links %d and %d share subnet %s", prev, i, l.Subnet)
			}
			subnets[l.Subnet] = i
		}
	}

	return v.Build()
}
