package gen

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tabledsl/ddbgen/compiler/load"
	"github.com/tabledsl/ddbgen/schema"
)

type (
	// Registry is the machine-readable catalog of every access pattern in a
	// resolution. It is emitted as a JSON artifact alongside the generated
	// code and consumed by external tooling that routes requests by pattern
	// id.
	Registry struct {
		Patterns []*RegistryEntry `json:"patterns"`
	}

	// RegistryEntry is the flattened catalog record of one pattern.
	RegistryEntry struct {
		ID             int                   `json:"id"`
		Name           string                `json:"name"`
		Operation      schema.Operation      `json:"operation"`
		Table          string                `json:"table,omitempty"`
		Entity         string                `json:"entity,omitempty"`
		Index          string                `json:"index,omitempty"`
		RangeCondition schema.RangeCondition `json:"range_condition,omitempty"`
		ConsistentRead bool                  `json:"consistent_read,omitempty"`
		Returns        schema.ReturnShape    `json:"returns"`
		TypedEntity    bool                  `json:"typed_entity"`
		Parameters     []*RegistryParameter  `json:"parameters"`
		KeyAttributes  []string              `json:"key_attributes,omitempty"`
		SampleKey      map[string]any        `json:"sample_key,omitempty"`
		Participants   []*RegistryMember     `json:"participants,omitempty"`
	}

	// RegistryParameter is one pattern parameter with its resolved role.
	RegistryParameter struct {
		Name string           `json:"name"`
		Kind schema.FieldKind `json:"kind"`
		Role ParameterRole    `json:"role"`
	}

	// RegistryMember is one participant of a transaction pattern.
	RegistryMember struct {
		Table  string                   `json:"table"`
		Entity string                   `json:"entity"`
		Action schema.ParticipantAction `json:"action"`
	}
)

// Registry builds the pattern catalog for the resolution, ordered by pattern
// id. The optional usage data supplies sample key inputs; fields it does not
// cover fall back to deterministic generated samples.
func (r *Resolution) Registry(usage *load.Usage) (*Registry, error) {
	reg := &Registry{Patterns: make([]*RegistryEntry, 0, len(r.Patterns)+len(r.Transactions))}
	for _, rp := range r.Patterns {
		entry, err := newRegistryEntry(rp, usage)
		if err != nil {
			return nil, err
		}
		reg.Patterns = append(reg.Patterns, entry)
	}
	for _, rt := range r.Transactions {
		reg.Patterns = append(reg.Patterns, newTxRegistryEntry(rt))
	}
	sort.Slice(reg.Patterns, func(i, j int) bool { return reg.Patterns[i].ID < reg.Patterns[j].ID })
	return reg, nil
}

// JSON renders the registry with stable, human-diffable formatting.
func (r *Registry) JSON() ([]byte, error) {
	buf, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("gen: encoding pattern registry: %w", err)
	}
	return append(buf, '\n'), nil
}

func newRegistryEntry(rp *ResolvedPattern, usage *load.Usage) (*RegistryEntry, error) {
	p := rp.Pattern
	entry := &RegistryEntry{
		ID:             p.ID,
		Name:           p.Name,
		Operation:      p.Operation,
		Table:          p.Entity.Table.Name,
		Entity:         p.Entity.Name,
		RangeCondition: p.Range,
		ConsistentRead: p.ConsistentRead,
		Returns:        rp.Response.Shape,
		TypedEntity:    rp.Response.TypedEntity,
	}
	if p.Index != nil {
		entry.Index = p.Index.Name
	}
	entry.Parameters = registryParameters(rp)
	for _, step := range rp.KeyPlan {
		entry.KeyAttributes = append(entry.KeyAttributes, step.Attribute)
	}
	if p.Operation.Read() {
		sample, err := rp.SampleKey(usage.ForEntity(p.Entity.Name))
		if err != nil {
			return nil, err
		}
		entry.SampleKey = sample
	}
	return entry, nil
}

func newTxRegistryEntry(rt *ResolvedTransaction) *RegistryEntry {
	tx := rt.Pattern
	entry := &RegistryEntry{
		ID:        tx.ID,
		Name:      tx.Name,
		Operation: tx.Operation,
		Returns:   tx.Returns,
	}
	for _, param := range tx.Parameters {
		entry.Parameters = append(entry.Parameters, &RegistryParameter{
			Name: param.Name, Kind: param.Kind, Role: RoleBody,
		})
	}
	for _, part := range tx.Participants {
		entry.Participants = append(entry.Participants, &RegistryMember{
			Table:  part.Table.Name,
			Entity: part.Entity.Name,
			Action: part.Action,
		})
	}
	return entry
}

func registryParameters(rp *ResolvedPattern) []*RegistryParameter {
	role := make(map[*Parameter]ParameterRole)
	for _, p := range rp.KeyParameters {
		role[p] = RoleKey
	}
	for _, p := range rp.RangeParameters {
		role[p] = RoleRange
	}
	for _, p := range rp.FilterParameters {
		role[p] = RoleFilter
	}
	for _, p := range rp.BodyParameters {
		role[p] = RoleBody
	}
	out := make([]*RegistryParameter, 0, len(rp.Pattern.Parameters))
	for _, p := range rp.Pattern.Parameters {
		out = append(out, &RegistryParameter{Name: p.Name, Kind: p.Kind, Role: role[p]})
	}
	return out
}

// SampleKey renders the pattern's key plan against the given usage sample
// and returns plain attribute values keyed by target attribute name. Fields
// the sample does not cover are filled with deterministic generated values.
func (rp *ResolvedPattern) SampleKey(eu *load.EntityUsage) (map[string]any, error) {
	usage := map[string]any{}
	if eu != nil && eu.Sample != nil {
		usage = eu.Sample
	}
	values := sampleInputs(rp.Pattern.Entity, rp.KeyPlan, usage)
	out := make(map[string]any, len(rp.KeyPlan))
	for _, step := range rp.KeyPlan {
		v, err := applyStep(step, values)
		if err != nil {
			return nil, fmt.Errorf("gen: pattern %q sample key: %w", rp.Pattern.Name, err)
		}
		out[step.Attribute] = v
	}
	return out, nil
}

// KeyItem builds the wire-level key item for one invocation of the pattern,
// marshaling each attribute through the DynamoDB attribute-value codec. This
// is the same item shape the generated repositories construct at runtime.
func (rp *ResolvedPattern) KeyItem(values map[string]any) (map[string]types.AttributeValue, error) {
	item := make(map[string]types.AttributeValue, len(rp.KeyPlan))
	for _, step := range rp.KeyPlan {
		v, err := applyStep(step, values)
		if err != nil {
			return nil, fmt.Errorf("gen: pattern %q key item: %w", rp.Pattern.Name, err)
		}
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("gen: pattern %q key attribute %q: %w", rp.Pattern.Name, step.Attribute, err)
		}
		item[step.Attribute] = av
	}
	return item, nil
}

// applyStep renders one key step: passthrough numeric steps return the raw
// field value, everything else renders to the template string.
func applyStep(step KeyStep, values map[string]any) (any, error) {
	if step.RawNumeric {
		return step.Template.ApplyRaw(values)
	}
	return step.Template.Apply(values)
}
