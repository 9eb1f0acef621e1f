package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Weights is the on-disk shape of a scoring-weights override file.
//
// Example:
//
//	density: 0.6
//	drivetime: 0.4
type Weights struct {
	Density   float64 `yaml:"density"`
	Drivetime float64 `yaml:"drivetime"`
}

// LoadWeightsFile reads composite weights from a YAML file. The file wins
// over any environment-supplied weights.
func LoadWeightsFile(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, fmt.Errorf("reading weights file: %w", err)
	}

	var w Weights
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Weights{}, fmt.Errorf("parsing weights file %s: %w", path, err)
	}

	if w.Density < 0 || w.Drivetime < 0 {
		return Weights{}, ErrInvalidWeights
	}
	if w.Density == 0 && w.Drivetime == 0 {
		return Weights{}, fmt.Errorf("weights file %s: at least one weight must be positive", path)
	}

	return w, nil
}
