package load

import (
	"github.com/tabledsl/ddbgen"
	"gopkg.in/yaml.v3"
)

// Usage is the optional usage-data document: per-entity illustrative field
// values used only to make generated example code read naturally. Absence of
// an entity or a variant is never an error.
type Usage struct {
	Entities map[string]*EntityUsage
}

// EntityUsage holds the three value variants for one entity.
type EntityUsage struct {
	Sample    map[string]any `yaml:"sample"`
	Alternate map[string]any `yaml:"alternate"`
	Update    map[string]any `yaml:"update"`
}

// ParseUsage loads a usage-data document keyed by entity name.
func ParseUsage(data []byte) (*Usage, *ddbgen.Diagnostics) {
	diags := ddbgen.NewDiagnostics()
	entities := make(map[string]*EntityUsage)
	if err := yaml.Unmarshal(data, &entities); err != nil {
		diags.Append(ddbgen.Structural("", "cannot parse usage data: %v", err))
		return &Usage{Entities: map[string]*EntityUsage{}}, diags
	}
	for name, eu := range entities {
		if eu == nil {
			entities[name] = &EntityUsage{}
		}
	}
	return &Usage{Entities: entities}, diags
}

// ForEntity returns the usage values for the named entity, or nil when the
// document carries none. Safe to call on a nil Usage.
func (u *Usage) ForEntity(name string) *EntityUsage {
	if u == nil {
		return nil
	}
	return u.Entities[name]
}
