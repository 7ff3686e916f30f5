package gen

import (
	"errors"
	"fmt"

	"github.com/tabledsl/ddbgen"
	"github.com/tabledsl/ddbgen/compiler/load"
	"github.com/tabledsl/ddbgen/schema"
	"github.com/tabledsl/ddbgen/schema/keytemplate"
)

// checkEntity applies the per-entity rule groups: field uniqueness and enum
// membership, key template compilation and reference resolution, index key
// mappings, and access patterns.
func (v *docValidator) checkEntity(ePath string, t *load.Table, e *load.Entity) {
	fieldNames := v.checkFields(ePath, e)
	v.checkKeyTemplate(ePath+".partition_key", e.PartitionKey, fieldNames)
	if e.SortKey != "" {
		v.checkKeyTemplate(ePath+".sort_key", e.SortKey, fieldNames)
	}
	v.checkIndexKeys(ePath, t, e, fieldNames)
	v.checkPatterns(ePath, t, e, fieldNames)
}

// checkFields enforces per-entity field name uniqueness, kind enum
// membership, and the list/element pairing. It returns the declared field
// names for reference resolution in later groups.
func (v *docValidator) checkFields(ePath string, e *load.Entity) []string {
	seen := make(map[string]string)
	names := make([]string, 0, len(e.Fields))
	for fi, f := range e.Fields {
		fPath := fmt.Sprintf("%s.fields[%d]", ePath, fi)
		if f.Name != "" {
			if prev, ok := seen[f.Name]; ok {
				v.diags.Append(ddbgen.UniquenessViolation(fPath, prev,
					"duplicate field name %q in entity %q", f.Name, e.Name))
			} else {
				seen[f.Name] = fPath
				names = append(names, f.Name)
			}
		}
		kind := schema.FieldKind(f.Kind)
		if f.Kind != "" && !kind.Valid() {
			v.diags.Append(ddbgen.EnumViolation(fPath+".kind", f.Kind,
				schema.Suggest(f.Kind, schema.FieldKinds()), schema.FieldKinds()))
			continue
		}
		switch {
		case kind == schema.KindList && f.Element == "":
			v.diags.Append(ddbgen.Structural(fPath+".element",
				"field %q has kind %q and requires an element kind", f.Name, schema.KindList))
		case kind != schema.KindList && f.Element != "":
			v.diags.Append(ddbgen.ConsistencyError(fPath+".element",
				"field %q declares an element kind but its kind is %q, not %q", f.Name, kind, schema.KindList))
		case f.Element != "" && !schema.FieldKind(f.Element).Valid():
			v.diags.Append(ddbgen.EnumViolation(fPath+".element", f.Element,
				schema.Suggest(f.Element, schema.FieldKinds()), schema.FieldKinds()))
		}
	}
	return names
}

// checkKeyTemplate compiles one key template and resolves its field
// references against the entity's declared fields. Malformed templates are
// structural; unresolved references carry a nearest-name suggestion.
func (v *docValidator) checkKeyTemplate(path, raw string, fieldNames []string) {
	tmpl, err := keytemplate.Parse(raw)
	if err != nil {
		var perr *keytemplate.ParseError
		if errors.As(err, &perr) {
			v.diags.Append(ddbgen.Structural(path, "malformed key template %q: %s", raw, perr.Message))
		} else {
			v.diags.Append(ddbgen.Structural(path, "malformed key template %q", raw))
		}
		return
	}
	for _, f := range tmpl.Fields() {
		if !contains(fieldNames, f) {
			v.diags.Append(ddbgen.ReferenceError(path, schema.Suggest(f, fieldNames),
				"key template references undeclared field %q", f))
		}
	}
}

// checkIndexKeys enforces the entity's index key mappings: the referenced
// index exists, mappings are not duplicated, composite arities stay within
// 1–4 and match the index definition, and template references resolve.
func (v *docValidator) checkIndexKeys(ePath string, t *load.Table, e *load.Entity, fieldNames []string) {
	indexNames := make([]string, 0, len(t.Indexes))
	byName := make(map[string]*load.Index, len(t.Indexes))
	for _, idx := range t.Indexes {
		indexNames = append(indexNames, idx.Name)
		byName[idx.Name] = idx
	}
	seen := make(map[string]string)
	for ki, ik := range e.IndexKeys {
		kPath := fmt.Sprintf("%s.index_keys[%d]", ePath, ki)
		idx, ok := byName[ik.Index]
		if !ok {
			v.diags.Append(ddbgen.ReferenceError(kPath+".index", schema.Suggest(ik.Index, indexNames),
				"index %q is not defined on table %q", ik.Index, t.Name))
		} else if prev, dup := seen[ik.Index]; dup {
			v.diags.Append(ddbgen.UniquenessViolation(kPath, prev,
				"duplicate key mapping for index %q", ik.Index))
		} else {
			seen[ik.Index] = kPath
		}
		v.checkComposite(kPath+".partition_key", ik.Index, ik.PartitionKey, fieldNames)
		if len(ik.SortKey) > 0 {
			v.checkComposite(kPath+".sort_key", ik.Index, ik.SortKey, fieldNames)
		}
		if idx == nil {
			continue
		}
		if len(ik.PartitionKey) != len(idx.PartitionKey) && len(ik.PartitionKey) <= schema.MaxCompositeKeyParts {
			v.diags.Append(ddbgen.CardinalityError(kPath+".partition_key",
				"mapping provides %d partition key template(s) but index %q declares %d attribute(s)",
				len(ik.PartitionKey), idx.Name, len(idx.PartitionKey)))
		}
		if len(ik.SortKey) > 0 && len(ik.SortKey) != len(idx.SortKey) && len(ik.SortKey) <= schema.MaxCompositeKeyParts {
			v.diags.Append(ddbgen.CardinalityError(kPath+".sort_key",
				"mapping provides %d sort key template(s) but index %q declares %d attribute(s)",
				len(ik.SortKey), idx.Name, len(idx.SortKey)))
		}
	}
}

// checkComposite compiles each part of a multi-attribute key mapping and
// enforces the 1–4 limit.
func (v *docValidator) checkComposite(path, index string, raws load.StringList, fieldNames []string) {
	if len(raws) > schema.MaxCompositeKeyParts {
		v.diags.Append(ddbgen.CardinalityError(path,
			"key mapping for index %q is composed of %d templates, at most %d allowed",
			index, len(raws), schema.MaxCompositeKeyParts))
	}
	for _, raw := range raws {
		v.checkKeyTemplate(path, raw, fieldNames)
	}
}
