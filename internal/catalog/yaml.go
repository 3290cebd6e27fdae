package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileFormat is the on-disk YAML shape for a catalog override.
type fileFormat struct {
	Buildings        []Building `yaml:"buildings"`
	UpgradeDurations []int64    `yaml:"upgrade_durations"`
}

// LoadFile reads a catalog override from a YAML file. The loaded rule set is
// subject to the same completeness validation as the built-in one.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c, err := New(f.Buildings, f.UpgradeDurations)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}
