package export

import (
	"github.com/topoforge-network/topoforge/pkg/topology"
	"github.com/topoforge-network/topoforge/pkg/util"
)

// OSPFNetwork is one network statement for a router's OSPF process.
type OSPFNetwork struct {
	Network  string `json:"network" yaml:"network"`
	Wildcard string `json:"wildcard" yaml:"wildcard"`
	Area     int    `json:"area" yaml:"area"`
}

// OSPFInterface is one addressed interface on a router.
type OSPFInterface struct {
	Name string `json:"name" yaml:"name"`
	IP   string `json:"ip" yaml:"ip"`
	Mask string `json:"mask" yaml:"mask"`
	Cost int    `json:"cost" yaml:"cost"`
}

// OSPFRouter is the renderer-facing OSPF intent for one router.
type OSPFRouter struct {
	Device     string          `json:"device" yaml:"device"`
	RouterID   string          `json:"router_id" yaml:"router_id"`
	Interfaces []OSPFInterface `json:"interfaces" yaml:"interfaces"`
	Networks   []OSPFNetwork   `json:"networks" yaml:"networks"`
}

// OSPFIntent extracts the per-router OSPF configuration values from
// a fully linked topology: every interface IP, the subnet's wildcard
// mask, and the backbone area for each connected network. Renderers
// stringify this into device-native text.
func OSPFIntent(topo *topology.Topology) []OSPFRouter {
	var out []OSPFRouter
	for _, d := range topo.Devices {
		if !d.IsRouter() {
			continue
		}
		r := OSPFRouter{Device: d.Name, RouterID: d.RouterID}
		for _, l := range topo.LinksOf(d.Name) {
			iface := l.AIface
			ip := l.AIP
			if l.B == d.Name {
				iface = l.BIface
				ip = l.BIP
			}
			r.Interfaces = append(r.Interfaces, OSPFInterface{
				Name: iface,
				IP:   ip,
				Mask: l.Mask,
				Cost: l.Cost,
			})
			r.Networks = append(r.Networks, OSPFNetwork{
				Network:  l.Subnet,
				Wildcard: util.WildcardMask(l.Mask),
				Area:     0,
			})
		}
		out = append(out, r)
	}
	return out
}
