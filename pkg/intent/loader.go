package intent

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadIntent parses an intent YAML file and validates every field.
// Unknown fields are rejected: the intent is a closed record, not a
// free-form overlay.
func LoadIntent(path string) (*Intent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading intent file: %w", err)
	}
	return ParseIntentYAML(data)
}

// ParseIntentYAML decodes intent YAML with strict field checking.
func ParseIntentYAML(data []byte) (*Intent, error) {
	var in Intent
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("parsing intent YAML: %w", err)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &in, nil
}
