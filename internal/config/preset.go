package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadPreset reads a YAML preset and lays it over the defaults. Keys missing
// from the file keep their default value.
func LoadPreset(path string) (OutputSpec, error) {
	spec := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return spec, fmt.Errorf("read preset: %w", err)
	}

	if err := yaml.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("%w: parse preset %s: %v", ErrInvalidSpec, path, err)
	}
	return spec, nil
}

// WritePreset stores spec as YAML.
func WritePreset(spec OutputSpec, path string) error {
	data, err := yaml.Marshal(spec)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
