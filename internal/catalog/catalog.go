// Package catalog exposes the curated metrics catalog: the contract between
// the gold views and the people consuming them. The catalog ships embedded in
// the binary so the CLI can answer "what does this metric mean" offline.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed metrics_catalog.yml
var catalogYAML []byte

// Metric documents one published metric.
type Metric struct {
	Name        string `yaml:"name"`
	Owner       string `yaml:"owner"`
	Model       string `yaml:"model"`
	Column      string `yaml:"column"`
	Description string `yaml:"description"`
	Refresh     string `yaml:"refresh"`
}

type document struct {
	Metrics []Metric `yaml:"metrics"`
}

// Load parses the embedded catalog, sorted by metric name.
func Load() ([]Metric, error) {
	var doc document
	if err := yaml.Unmarshal(catalogYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse metrics catalog: %w", err)
	}
	sort.Slice(doc.Metrics, func(i, j int) bool {
		return doc.Metrics[i].Name < doc.Metrics[j].Name
	})
	return doc.Metrics, nil
}

// Find returns the named metric.
func Find(name string) (Metric, error) {
	metrics, err := Load()
	if err != nil {
		return Metric{}, err
	}
	for _, m := range metrics {
		if m.Name == name {
			return m, nil
		}
	}
	return Metric{}, fmt.Errorf("metric %q not in catalog", name)
}
