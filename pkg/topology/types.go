// Package topology defines the device-and-link data model produced by
// the synthesizer and consumed by the analyzers, simulators and
// exporters.
package topology

import (
	"fmt"

	"github.com/topoforge-network/topoforge/pkg/util"
)

// DeviceKind is the closed set of device variants.
type DeviceKind string

const (
	// DeviceRouter is a layer-3 device carrying a router ID and ASN.
	DeviceRouter DeviceKind = "router"
	// DeviceSwitch is a layer-2 device with no router ID.
	DeviceSwitch DeviceKind = "switch"
)

// Device is a node in a topology. Kind is fixed at creation.
type Device struct {
	Name     string     `json:"name" yaml:"name"`
	Kind     DeviceKind `json:"kind" yaml:"kind"`
	RouterID string     `json:"router_id,omitempty" yaml:"router_id,omitempty"`
	ASN      int        `json:"asn,omitempty" yaml:"asn,omitempty"`
}

// IsRouter reports whether the device participates in routing.
func (d Device) IsRouter() bool {
	return d.Kind == DeviceRouter
}

// Link is an undirected association between two distinct devices.
// Both endpoint IPs are drawn from the same /30.
type Link struct {
	A      string `json:"a" yaml:"a"`
	B      string `json:"b" yaml:"b"`
	AIface string `json:"a_iface" yaml:"a_iface"`
	BIface string `json:"b_iface" yaml:"b_iface"`
	AIP    string `json:"a_ip" yaml:"a_ip"`
	BIP    string `json:"b_ip" yaml:"b_ip"`
	Subnet string `json:"subnet" yaml:"subnet"`
	Mask   string `json:"mask" yaml:"mask"`
	Cost   int    `json:"cost" yaml:"cost"`
}

// Endpoints returns the two "device:iface" endpoint labels.
func (l Link) Endpoints() (string, string) {
	return l.A + ":" + l.AIface, l.B + ":" + l.BIface
}

// Key returns a direction-independent identifier for the device pair.
func (l Link) Key() string {
	if l.A < l.B {
		return l.A + "|" + l.B
	}
	return l.B + "|" + l.A
}

// Topology is a named set of devices and links with a routing
// protocol tag. Devices and links keep their declared order so that
// synthesis output is reproducible.
type Topology struct {
	Name     string   `json:"name" yaml:"name"`
	Devices  []Device `json:"devices" yaml:"devices"`
	Links    []Link   `json:"links" yaml:"links"`
	Protocol string   `json:"protocol" yaml:"protocol"`
}

// DeviceByName returns the named device, or an error if absent.
func (t *Topology) DeviceByName(name string) (Device, error) {
	for _, d := range t.Devices {
		if d.Name == name {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("device %q: %w", name, util.ErrNotFound)
}

// HasDevice reports whether a device with the given name exists.
func (t *Topology) HasDevice(name string) bool {
	_, err := t.DeviceByName(name)
	return err == nil
}

// AddDevice appends a device, rejecting duplicate names.
func (t *Topology) AddDevice(d Device) error {
	if t.HasDevice(d.Name) {
		return fmt.Errorf("device %q already exists", d.Name)
	}
	t.Devices = append(t.Devices, d)
	return nil
}

// AddLink appends a link after checking both endpoints exist and the
// interface labels are free on their devices.
func (t *Topology) AddLink(l Link) error {
	if l.A == l.B {
		return fmt.Errorf("link endpoints must be distinct devices, got %q twice", l.A)
	}
	for _, name := range []string{l.A, l.B} {
		if !t.HasDevice(name) {
			return fmt.Errorf("link endpoint references unknown device %q", name)
		}
	}
	for _, existing := range t.Links {
		if existing.A == l.A && existing.AIface == l.AIface ||
			existing.B == l.A && existing.BIface == l.AIface {
			return fmt.Errorf("interface %s:%s already in use", l.A, l.AIface)
		}
		if existing.A == l.B && existing.AIface == l.BIface ||
			existing.B == l.B && existing.BIface == l.BIface {
			return fmt.Errorf("interface %s:%s already in use", l.B, l.BIface)
		}
	}
	t.Links = append(t.Links, l)
	return nil
}

// LinksOf returns the links incident to a device, in declared order.
func (t *Topology) LinksOf(name string) []Link {
	var out []Link
	for _, l := range t.Links {
		if l.A == name || l.B == name {
			out = append(out, l)
		}
	}
	return out
}

// Routers returns the router devices in declared order.
func (t *Topology) Routers() []Device {
	var out []Device
	for _, d := range t.Devices {
		if d.IsRouter() {
			out = append(out, d)
		}
	}
	return out
}

// Clone returns a deep copy. Simulation operates on copies so the
// input topology is never mutated.
func (t *Topology) Clone() *Topology {
	cp := &Topology{
		Name:     t.Name,
		Protocol: t.Protocol,
		Devices:  make([]Device, len(t.Devices)),
		Links:    make([]Link, len(t.Links)),
	}
	copy(cp.Devices, t.Devices)
	copy(cp.Links, t.Links)
	return cp
}
