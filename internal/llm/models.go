package llm

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var builtinModels []byte

// Model maps a display name to the API model id.
type Model struct {
	Name string `yaml:"name" json:"name"`
	ID   string `yaml:"id" json:"id"`
}

// Catalog is the set of selectable models.
type Catalog struct {
	Default string  `yaml:"default" json:"default"`
	Models  []Model `yaml:"models" json:"models"`
}

// DefaultCatalog returns the embedded model catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(builtinModels)
	if err != nil {
		panic(fmt.Sprintf("llm: embedded model catalog: %v", err))
	}
	return c
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse model catalog: %w", err)
	}
	if len(c.Models) == 0 {
		return nil, fmt.Errorf("model catalog is empty")
	}
	if c.Default == "" {
		c.Default = c.Models[0].Name
	}
	if c.Lookup(c.Default) == nil {
		return nil, fmt.Errorf("default model %q is not in the catalog", c.Default)
	}
	return &c, nil
}

// Lookup finds a model by display name or id, case-insensitively.
func (c *Catalog) Lookup(name string) *Model {
	name = strings.TrimSpace(name)
	for i := range c.Models {
		if strings.EqualFold(c.Models[i].Name, name) || strings.EqualFold(c.Models[i].ID, name) {
			return &c.Models[i]
		}
	}
	return nil
}

// Resolve returns the API id for name. Unknown names pass through unchanged
// so new models work without a catalog update; an empty name selects the
// default.
func (c *Catalog) Resolve(name string) string {
	if strings.TrimSpace(name) == "" {
		name = c.Default
	}
	if m := c.Lookup(name); m != nil {
		return m.ID
	}
	return name
}

// Names lists display names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Models))
	for i, m := range c.Models {
		names[i] = m.Name
	}
	return names
}
