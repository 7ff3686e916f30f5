package load

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the normalized in-memory schema document tree. The loader
// guarantees shape only; cross-references and enum membership are checked by
// the semantic validator. The document is built once per compilation run and
// is read-only thereafter.
type Document struct {
	Tables             []*Table              `yaml:"tables" validate:"required,min=1,dive,required"`
	CrossTablePatterns []*TransactionPattern `yaml:"cross_table_access_patterns" validate:"dive,required"`
}

// Table describes one wide-column table and the entities stored in it.
type Table struct {
	Name         string    `yaml:"name" validate:"required"`
	PartitionKey string    `yaml:"partition_key" validate:"required"`
	SortKey      string    `yaml:"sort_key"`
	Indexes      []*Index  `yaml:"indexes" validate:"dive,required"`
	Entities     []*Entity `yaml:"entities" validate:"required,min=1,dive,required"`
}

// Index describes a secondary index. Partition and sort keys accept either a
// single attribute name or an array of up to four (the multi-attribute form).
type Index struct {
	Name         string     `yaml:"name" validate:"required"`
	PartitionKey StringList `yaml:"partition_key" validate:"required,min=1"`
	SortKey      StringList `yaml:"sort_key"`
	Projection   string     `yaml:"projection"`
	Include      []string   `yaml:"include"`
}

// Entity describes one entity type stored in a table, with its key templates,
// index key mappings, fields and access patterns.
type Entity struct {
	Name           string             `yaml:"name" validate:"required"`
	Tag            string             `yaml:"tag"`
	PartitionKey   string             `yaml:"partition_key" validate:"required"`
	SortKey        string             `yaml:"sort_key"`
	IndexKeys      []*IndexKeyMapping `yaml:"index_keys" validate:"dive,required"`
	Fields         []*Field           `yaml:"fields" validate:"required,min=1,dive,required"`
	AccessPatterns []*AccessPattern   `yaml:"access_patterns" validate:"dive,required"`
}

// Discriminator returns the entity discriminator tag, defaulting to the
// entity name.
func (e *Entity) Discriminator() string {
	if e.Tag != "" {
		return e.Tag
	}
	return e.Name
}

// IndexKeyMapping declares how an entity projects into one secondary index:
// key templates for the index partition key and, optionally, the sort key.
type IndexKeyMapping struct {
	Index        string     `yaml:"index" validate:"required"`
	PartitionKey StringList `yaml:"partition_key" validate:"required,min=1"`
	SortKey      StringList `yaml:"sort_key"`
}

// Field describes one entity field.
type Field struct {
	Name     string `yaml:"name" validate:"required"`
	Kind     string `yaml:"kind" validate:"required"`
	Required bool   `yaml:"required"`
	Element  string `yaml:"element"`
}

// AccessPattern describes one per-entity access pattern.
type AccessPattern struct {
	ID             *int         `yaml:"id" validate:"required"`
	Name           string       `yaml:"name" validate:"required"`
	Operation      string       `yaml:"operation" validate:"required"`
	Index          string       `yaml:"index"`
	RangeCondition string       `yaml:"range_condition"`
	ConsistentRead bool         `yaml:"consistent_read"`
	Filter         *Filter      `yaml:"filter"`
	Parameters     []*Parameter `yaml:"parameters" validate:"dive,required"`
	Returns        string       `yaml:"returns"`
}

// Filter describes a filter expression: an ordered condition list joined by a
// logical combinator.
type Filter struct {
	Combinator string             `yaml:"combinator"`
	Conditions []*FilterCondition `yaml:"conditions" validate:"required,min=1,dive,required"`
}

// FilterCondition is one comparison or function application in a filter.
type FilterCondition struct {
	Field      string   `yaml:"field" validate:"required"`
	Comparator string   `yaml:"comparator" validate:"required"`
	Parameters []string `yaml:"parameters"`
}

// Parameter is one named access pattern parameter. Kind is optional; when
// omitted the resolver derives it from the field of the same name.
type Parameter struct {
	Name string `yaml:"name" validate:"required"`
	Kind string `yaml:"kind"`
}

// TransactionPattern describes one cross-table transaction pattern.
type TransactionPattern struct {
	ID           *int           `yaml:"id" validate:"required"`
	Name         string         `yaml:"name" validate:"required"`
	Operation    string         `yaml:"operation" validate:"required"`
	Participants []*Participant `yaml:"participants" validate:"required,min=1,dive,required"`
	Parameters   []*Parameter   `yaml:"parameters" validate:"dive,required"`
	Returns      string         `yaml:"returns"`
}

// Participant is one (table, entity, action) element of a cross-table
// transaction, with an optional condition expression.
type Participant struct {
	Table     string  `yaml:"table" validate:"required"`
	Entity    string  `yaml:"entity" validate:"required"`
	Action    string  `yaml:"action" validate:"required"`
	Condition *Filter `yaml:"condition"`
}

// StringList accepts either a scalar string or a sequence of strings in the
// source document. Index keys and index key mappings use it for the
// multi-attribute key form.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var v string
		if err := value.Decode(&v); err != nil {
			return err
		}
		*s = StringList{v}
		return nil
	case yaml.SequenceNode:
		var v []string
		if err := value.Decode(&v); err != nil {
			return err
		}
		*s = StringList(v)
		return nil
	default:
		return fmt.Errorf("line %d: expected string or string array", value.Line)
	}
}
