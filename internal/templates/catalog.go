// Package templates holds the read-only catalog of generated document kinds.
package templates

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"notebook/internal/domain"
)

//go:embed catalog.yaml
var builtin []byte

// Catalog is an ordered, immutable set of templates.
type Catalog struct {
	templates []domain.Template
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("templates: builtin catalog: %v", err))
	}
	return c
})

// Default returns the built-in catalog.
func Default() *Catalog { return defaultCatalog() }

// Parse decodes a YAML list of templates.
func Parse(data []byte) (*Catalog, error) {
	var list []domain.Template
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if len(list) == 0 {
		return nil, &domain.ConfigurationError{Field: "templates", Reason: "catalog is empty"}
	}
	seen := make(map[string]struct{}, len(list))
	for i, t := range list {
		if t.ID == "" || t.Name == "" {
			return nil, &domain.ConfigurationError{Field: "templates", Reason: fmt.Sprintf("entry %d needs an id and a name", i)}
		}
		if _, dup := seen[t.ID]; dup {
			return nil, &domain.ConfigurationError{Field: "templates", Reason: fmt.Sprintf("duplicate id %q", t.ID)}
		}
		seen[t.ID] = struct{}{}
	}
	return &Catalog{templates: list}, nil
}

// LoadFile reads a catalog that replaces the built-in one.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// All returns the templates in catalog order.
func (c *Catalog) All() []domain.Template {
	out := make([]domain.Template, len(c.templates))
	for i, t := range c.templates {
		t.Structure = slices.Clone(t.Structure)
		out[i] = t
	}
	return out
}

// Lookup finds a template by id, falling back to a case-insensitive name match.
func (c *Catalog) Lookup(key string) (domain.Template, error) {
	for _, t := range c.templates {
		if t.ID == key {
			t.Structure = slices.Clone(t.Structure)
			return t, nil
		}
	}
	for _, t := range c.templates {
		if t.Matches(key) {
			t.Structure = slices.Clone(t.Structure)
			return t, nil
		}
	}
	return domain.Template{}, fmt.Errorf("%w: %q", domain.ErrUnknownTemplate, key)
}
