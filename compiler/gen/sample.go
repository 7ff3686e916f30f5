package gen

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/tabledsl/ddbgen/schema"
)

// SampleValue returns a deterministic placeholder value for one entity field.
// The value is derived from a name-based UUID so the same (entity, field)
// pair always samples to the same value, keeping generated registries and
// usage examples byte-stable across runs.
func SampleValue(entity, field string, kind schema.FieldKind) any {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(entity+"/"+field))
	switch kind {
	case schema.KindInteger:
		return int64(binary.BigEndian.Uint32(id[:4]) % 10000)
	case schema.KindDecimal:
		return float64(binary.BigEndian.Uint32(id[:4])%100000) / 100
	case schema.KindBoolean:
		return id[0]%2 == 0
	case schema.KindIdentifier:
		return id.String()
	case schema.KindList:
		return []any{}
	case schema.KindMap:
		return map[string]any{}
	default:
		return fmt.Sprintf("%s-%x", field, id[:4])
	}
}

// sampleInputs builds a value map for every field a key plan consumes,
// preferring values from the usage sample when one is provided.
func sampleInputs(e *Entity, steps []KeyStep, usage map[string]any) map[string]any {
	values := make(map[string]any)
	for _, step := range steps {
		for _, name := range step.Template.Fields() {
			if v, ok := usage[name]; ok {
				values[name] = v
				continue
			}
			kind := schema.KindText
			if f := e.Field(name); f != nil {
				kind = f.Kind
			}
			values[name] = SampleValue(e.Name, name, kind)
		}
	}
	return values
}
