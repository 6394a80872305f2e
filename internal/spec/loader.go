package spec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a RoomSpec YAML document from path.
// The result is parsed only; callers decide whether it passes Validate.
func Load(path string) (*RoomSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a RoomSpec from YAML bytes.
func Parse(data []byte) (*RoomSpec, error) {
	var s RoomSpec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing spec: %w", err)
	}
	return &s, nil
}
