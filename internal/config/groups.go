package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadCarGroups reads a YAML file mapping car names to classification
// groups, e.g.
//
//	Car_A: sedan
//	Car_B: suv
func LoadCarGroups(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading car groups file: %w", err)
	}

	groups := map[string]string{}
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("parsing car groups file: %w", err)
	}
	return groups, nil
}
