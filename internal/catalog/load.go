/*
Package catalog
File: load.go
Description: Reads the universe YAML file from disk and freezes it into a
Catalog. Follows the same load-once pattern as the rest of the configuration.
*/

package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a universe file.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}

	var u Universe
	if err := yaml.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("parse universe file: %w", err)
	}

	cat, err := New(u)
	if err != nil {
		return nil, fmt.Errorf("validate universe file: %w", err)
	}
	return cat, nil
}
