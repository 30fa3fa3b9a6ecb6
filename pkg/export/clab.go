// Package export turns topologies into the canonical structures
// downstream renderers and simulators consume: a containerlab-shaped
// document and an OSPF configuration intent. Text quirks belong to
// the renderers; this package guarantees field-level correctness.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/topoforge-network/topoforge/pkg/topology"
)

// ClabTopology is the containerlab topology YAML structure.
type ClabTopology struct {
	Name     string       `yaml:"name"`
	Topology ClabTopoSpec `yaml:"topology"`
}

// ClabTopoSpec contains the nodes and links sections.
type ClabTopoSpec struct {
	Nodes map[string]*ClabNode `yaml:"nodes"`
	Links []ClabLink           `yaml:"links"`
}

// ClabNode defines a single containerlab node.
type ClabNode struct {
	Kind  string `yaml:"kind"`
	Image string `yaml:"image"`
	Type  string `yaml:"type,omitempty"`
}

// ClabLink defines a containerlab link.
type ClabLink struct {
	Endpoints []string `yaml:"endpoints"`
}

// Node images per device kind. Routers boot a FRR image so the
// exported lab actually speaks OSPF.
const (
	routerImage = "frrouting/frr:v8.4.0"
	routerKind  = "linux"
	switchImage = "frrouting/frr:v8.4.0"
	switchKind  = "linux"
)

// Containerlab converts a topology into the clab document shape.
func Containerlab(topo *topology.Topology) *ClabTopology {
	clab := &ClabTopology{
		Name: topo.Name,
		Topology: ClabTopoSpec{
			Nodes: make(map[string]*ClabNode, len(topo.Devices)),
		},
	}

	// Sort node names for deterministic output.
	names := make([]string, 0, len(topo.Devices))
	byName := make(map[string]topology.Device, len(topo.Devices))
	for _, d := range topo.Devices {
		names = append(names, d.Name)
		byName[d.Name] = d
	}
	sort.Strings(names)

	for _, name := range names {
		d := byName[name]
		node := &ClabNode{Kind: switchKind, Image: switchImage, Type: string(d.Kind)}
		if d.IsRouter() {
			node.Kind = routerKind
			node.Image = routerImage
		}
		clab.Topology.Nodes[name] = node
	}

	for _, l := range topo.Links {
		a, b := l.Endpoints()
		clab.Topology.Links = append(clab.Topology.Links, ClabLink{
			Endpoints: []string{a, b},
		})
	}
	return clab
}

// WriteClabFile marshals the containerlab document into
// <name>.clab.yml under outputDir.
func WriteClabFile(topo *topology.Topology, outputDir string) (string, error) {
	clab := Containerlab(topo)

	data, err := yaml.Marshal(clab)
	if err != nil {
		return "", fmt.Errorf("marshalling containerlab YAML: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(outputDir, topo.Name+".clab.yml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing containerlab YAML: %w", err)
	}
	return path, nil
}
