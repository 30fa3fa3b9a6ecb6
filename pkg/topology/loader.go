package topology

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile parses a topology YAML file and checks the structural
// invariants. Prepared topologies that fail the invariants are
// rejected with the full violation list.
func LoadFile(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topology file: %w", err)
	}

	var topo Topology
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&topo); err != nil {
		return nil, fmt.Errorf("parsing topology YAML: %w", err)
	}
	if topo.Name == "" {
		return nil, fmt.Errorf("topology name is required")
	}
	if err := topo.Validate(); err != nil {
		return nil, fmt.Errorf("validating topology: %w", err)
	}
	return &topo, nil
}

// WriteFile marshals a topology to YAML at path.
func (t *Topology) WriteFile(path string) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshalling topology YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing topology YAML: %w", err)
	}
	return nil
}
