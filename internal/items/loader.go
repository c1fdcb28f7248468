package items

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// basesFile represents the structure of the bases YAML file
type basesFile struct {
	Bases []ItemBase `yaml:"bases"`
}

// LoadBasesFromYAML loads item base definitions from a YAML file
func LoadBasesFromYAML(filename string) (*BaseCatalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read bases file: %w", err)
	}

	var file basesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse bases YAML: %w", err)
	}

	catalog := NewBaseCatalog()
	for _, base := range file.Bases {
		if err := catalog.Add(base); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}
