package gen

import (
	"fmt"

	"github.com/tabledsl/ddbgen/schema"
	"github.com/tabledsl/ddbgen/schema/keytemplate"
)

// ParameterRole classifies where a resolved parameter is consumed.
type ParameterRole string

const (
	RoleKey    ParameterRole = "key"
	RoleRange  ParameterRole = "range"
	RoleFilter ParameterRole = "filter"
	RoleBody   ParameterRole = "body"
)

type (
	// Resolution is the fully resolved contract set for one validated
	// document: one ResolvedPattern per access pattern, one
	// ResolvedTransaction per cross-table pattern, both in document order.
	Resolution struct {
		Patterns     []*ResolvedPattern
		Transactions []*ResolvedTransaction
	}

	// ResolvedPattern is the compiler's fully typed description of one
	// access pattern: its parameters partitioned by role, the
	// key-construction plan, and the response shape.
	ResolvedPattern struct {
		Pattern *Pattern

		KeyPlan          []KeyStep
		KeyParameters    []*Parameter
		RangeParameters  []*Parameter
		FilterParameters []*Parameter
		BodyParameters   []*Parameter
		Response         ResponseShape
	}

	// KeyStep maps one target key attribute to the compiled template that
	// produces its value.
	KeyStep struct {
		// Attribute is the table or index attribute the step populates.
		Attribute string
		Template  *keytemplate.Template
		// RawNumeric marks passthrough-eligible numeric templates: the key
		// builder returns the raw value so the store's native numeric
		// ordering applies instead of lexicographic string ordering.
		RawNumeric bool
	}

	// ResponseShape is the resolved response contract of a pattern.
	ResponseShape struct {
		Shape schema.ReturnShape
		// TypedEntity reports whether reads return the typed entity rather
		// than a raw attribute map. For Include projections it is true only
		// when every entity field excluded from the projection is optional.
		TypedEntity bool
	}

	// ResolvedTransaction is the resolved contract of one cross-table
	// transaction pattern.
	ResolvedTransaction struct {
		Pattern *TxPattern
	}
)

// Resolve projects a validated graph into per-pattern contracts. Resolution
// is pure: it cannot raise user-facing diagnostics. An error here means the
// validator let an inconsistent document through, which is a bug.
func Resolve(g *Graph) (*Resolution, error) {
	res := &Resolution{}
	for _, e := range g.Nodes {
		for _, p := range e.Patterns {
			rp, err := resolvePattern(p)
			if err != nil {
				return nil, err
			}
			res.Patterns = append(res.Patterns, rp)
		}
	}
	for _, tx := range g.Transactions {
		res.Transactions = append(res.Transactions, &ResolvedTransaction{Pattern: tx})
	}
	return res, nil
}

func resolvePattern(p *Pattern) (*ResolvedPattern, error) {
	rp := &ResolvedPattern{Pattern: p}
	var err error
	if rp.KeyPlan, err = keyPlan(p); err != nil {
		return nil, err
	}
	rp.Response = ResponseShape{Shape: p.Returns, TypedEntity: typedEntityReturn(p)}
	partitionParameters(rp)
	return rp, nil
}

// keyPlan derives the ordered key-construction steps for the key the pattern
// operates on: the entity's primary key templates, or its mapping into the
// targeted secondary index.
func keyPlan(p *Pattern) ([]KeyStep, error) {
	if p.Index == nil {
		return PrimaryKeySteps(p.Entity), nil
	}
	ik := p.IndexKey
	if ik == nil {
		return nil, fmt.Errorf("gen: internal: pattern %q targets index %q without a key mapping", p.Name, p.Index.Name)
	}
	if len(ik.PartitionKey.Templates) != len(p.Index.PartitionKeys) {
		return nil, fmt.Errorf("gen: internal: pattern %q key mapping arity mismatch on index %q", p.Name, p.Index.Name)
	}
	return IndexKeySteps(p.Entity, ik), nil
}

// PrimaryKeySteps returns the key-construction steps for the entity's
// primary table key.
func PrimaryKeySteps(e *Entity) []KeyStep {
	steps := []KeyStep{newKeyStep(e, e.Table.PartitionKey, e.PartitionKey)}
	if e.SortKey != nil && e.Table.SortKey != "" {
		steps = append(steps, newKeyStep(e, e.Table.SortKey, e.SortKey))
	}
	return steps
}

// IndexKeySteps returns the key-construction steps for one of the entity's
// secondary index mappings.
func IndexKeySteps(e *Entity, ik *IndexKey) []KeyStep {
	var steps []KeyStep
	for i, attr := range ik.Index.PartitionKeys {
		if i >= len(ik.PartitionKey.Templates) {
			break
		}
		steps = append(steps, newKeyStep(e, attr, ik.PartitionKey.Templates[i]))
	}
	if ik.SortKey != nil {
		for i, attr := range ik.Index.SortKeys {
			if i >= len(ik.SortKey.Templates) {
				break
			}
			steps = append(steps, newKeyStep(e, attr, ik.SortKey.Templates[i]))
		}
	}
	return steps
}

func newKeyStep(e *Entity, attr string, tmpl *keytemplate.Template) KeyStep {
	step := KeyStep{Attribute: attr, Template: tmpl}
	if tmpl.Passthrough() {
		if f := e.Field(tmpl.Fields()[0]); f != nil && f.Kind.Numeric() {
			step.RawNumeric = true
		}
	}
	return step
}

// partitionParameters splits the ordered parameter list into key, range,
// filter and body parameters. Filter parameters are those consumed by filter
// conditions; key parameters feed key template fields; for queries with a
// range condition the remaining parameters supply the range values in order;
// everything else is entity body input.
func partitionParameters(rp *ResolvedPattern) {
	p := rp.Pattern
	filterNames := make(map[string]bool)
	if p.Filter != nil {
		for _, c := range p.Filter.Conditions {
			for _, name := range c.Parameters {
				filterNames[name] = true
			}
		}
	}
	keyFields := make(map[string]bool)
	for _, step := range rp.KeyPlan {
		for _, f := range step.Template.Fields() {
			keyFields[f] = true
		}
	}
	hasRange := p.Operation == schema.OpQuery && p.Range != ""
	for _, param := range p.Parameters {
		switch {
		case filterNames[param.Name]:
			rp.FilterParameters = append(rp.FilterParameters, param)
		case keyFields[param.Name]:
			rp.KeyParameters = append(rp.KeyParameters, param)
		case hasRange:
			rp.RangeParameters = append(rp.RangeParameters, param)
		default:
			rp.BodyParameters = append(rp.BodyParameters, param)
		}
	}
}

// typedEntityReturn decides, once per pattern, whether reads return the
// typed entity. All-projections and primary key reads do; KeysOnly and
// Include projections do only when every field the projection omits is
// optional, since a required field cannot be absent from a typed value.
func typedEntityReturn(p *Pattern) bool {
	if p.Index == nil || p.Index.Projection == schema.ProjectAll {
		return true
	}
	projected := make(map[string]bool)
	for _, f := range p.Entity.KeyFields() {
		projected[f] = true
	}
	if ik := p.IndexKey; ik != nil {
		for _, f := range ik.PartitionKey.Fields() {
			projected[f] = true
		}
		if ik.SortKey != nil {
			for _, f := range ik.SortKey.Fields() {
				projected[f] = true
			}
		}
	}
	if p.Index.Projection == schema.ProjectInclude {
		for _, a := range p.Index.Include {
			projected[a] = true
		}
	}
	for _, f := range p.Entity.Fields {
		if !projected[f.Name] && f.Required {
			return false
		}
	}
	return true
}
