package charts

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed configs.yaml
var defaultConfigs []byte

// Config describes one chart of a category.
type Config struct {
	ID      string `yaml:"id" json:"id"`
	Title   string `yaml:"title" json:"title"`
	Type    string `yaml:"type" json:"type"`
	DataKey string `yaml:"dataKey" json:"data_key"`
	Unit    string `yaml:"unit,omitempty" json:"unit,omitempty"`
}

// Category is a marketing category and its charts.
type Category struct {
	Key    string   `yaml:"key" json:"key"`
	Name   string   `yaml:"name" json:"name"`
	Charts []Config `yaml:"charts" json:"charts"`
}

// Registry holds the chart configuration of every category.
type Registry struct {
	categories []Category
	byKey      map[string]int
}

// ParseRegistry reads a YAML registry document.
func ParseRegistry(data []byte) (*Registry, error) {
	var doc struct {
		Categories []Category `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse chart configs: %w", err)
	}

	r := &Registry{categories: doc.Categories, byKey: make(map[string]int, len(doc.Categories))}
	for i, c := range doc.Categories {
		if c.Key == "" {
			return nil, fmt.Errorf("chart category %d has no key", i)
		}
		if _, dup := r.byKey[c.Key]; dup {
			return nil, fmt.Errorf("duplicate chart category %q", c.Key)
		}
		for _, ch := range c.Charts {
			if ch.DataKey == "" {
				return nil, fmt.Errorf("chart %q in %q has no dataKey", ch.Title, c.Key)
			}
			if ch.Type != "line" && ch.Type != "bar" {
				return nil, fmt.Errorf("chart %q in %q has unsupported type %q", ch.Title, c.Key, ch.Type)
			}
		}
		r.byKey[c.Key] = i
	}
	return r, nil
}

// DefaultRegistry returns the embedded registry.
func DefaultRegistry() *Registry {
	r, err := ParseRegistry(defaultConfigs)
	if err != nil {
		panic(err)
	}
	return r
}

// For returns the charts configured for a category, or nil when unknown.
func (r *Registry) For(category string) []Config {
	i, ok := r.byKey[category]
	if !ok {
		return nil
	}
	return append([]Config(nil), r.categories[i].Charts...)
}

// Keys lists the category keys in declaration order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.categories))
	for i, c := range r.categories {
		keys[i] = c.Key
	}
	return keys
}

// Known reports whether the category is configured.
func (r *Registry) Known(category string) bool {
	_, ok := r.byKey[category]
	return ok
}

// Name returns the display name of a category, or the key itself when unknown.
func (r *Registry) Name(category string) string {
	if i, ok := r.byKey[category]; ok {
		return r.categories[i].Name
	}
	return category
}
