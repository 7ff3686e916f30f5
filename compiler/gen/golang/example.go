package golang

import (
	"fmt"
	"sort"

	"github.com/dave/jennifer/jen"

	"github.com/tabledsl/ddbgen/compiler/gen"
	"github.com/tabledsl/ddbgen/compiler/load"
	"github.com/tabledsl/ddbgen/schema"
)

// exampleFile renders example constructors from the usage data: a
// Sample{Entity} function per covered entity, an Alternate{Entity} when the
// document supplies a second value set, and a Sample{Entity}Updated applying
// the update variant over the sample. Returns a nil file when no entity has
// usage values.
func exampleFile(pkg string, r *gen.Resolution, usage *load.Usage) (*jen.File, error) {
	entities := sampledEntities(r, usage)
	if len(entities) == 0 {
		return nil, nil
	}
	f := newFile(pkg)
	for _, e := range entities {
		eu := usage.ForEntity(e.Name)
		if len(eu.Sample) > 0 {
			genFactory(f, e, "Sample"+e.Name,
				fmt.Sprintf("Sample%s returns a %s populated with illustrative values.", e.Name, e.Name),
				eu.Sample)
		}
		if len(eu.Alternate) > 0 {
			genFactory(f, e, "Alternate"+e.Name,
				fmt.Sprintf("Alternate%s returns a second, distinct %s for examples needing two items.", e.Name, e.Name),
				eu.Alternate)
		}
		if len(eu.Sample) > 0 && len(eu.Update) > 0 {
			genUpdatedFactory(f, e, eu.Update)
		}
	}
	return f, nil
}

func genFactory(f *jen.File, e *gen.Entity, name, doc string, values map[string]any) {
	f.Comment(doc)
	f.Func().Id(name).Params().Op("*").Id(e.Name).Block(
		jen.Return(jen.Op("&").Id(e.Name).ValuesFunc(func(vals *jen.Group) {
			for _, fld := range e.Fields {
				v, ok := values[fld.Name]
				if !ok {
					continue
				}
				lit := sampleLiteral(fld, v)
				if lit == nil {
					continue
				}
				vals.Id(exported(fld.Name)).Op(":").Add(lit)
			}
		})),
	)
}

func genUpdatedFactory(f *jen.File, e *gen.Entity, update map[string]any) {
	f.Commentf("Sample%sUpdated returns the sample %s after applying the update values.", e.Name, e.Name)
	f.Func().Id("Sample" + e.Name + "Updated").Params().Op("*").Id(e.Name).BlockFunc(func(g *jen.Group) {
		g.Id("u").Op(":=").Id("Sample" + e.Name).Call()
		for _, fld := range e.Fields {
			v, ok := update[fld.Name]
			if !ok {
				continue
			}
			lit := sampleLiteral(fld, v)
			if lit == nil {
				continue
			}
			g.Id("u").Dot(exported(fld.Name)).Op("=").Add(lit)
		}
		g.Return(jen.Id("u"))
	})
}

// sampledEntities returns the resolution's entities that carry any usage
// variant, in stable name order.
func sampledEntities(r *gen.Resolution, usage *load.Usage) []*gen.Entity {
	seen := make(map[*gen.Entity]bool)
	var out []*gen.Entity
	for _, rp := range r.Patterns {
		e := rp.Pattern.Entity
		if seen[e] {
			continue
		}
		seen[e] = true
		if eu := usage.ForEntity(e.Name); eu != nil && (len(eu.Sample) > 0 || len(eu.Alternate) > 0 || len(eu.Update) > 0) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// sampleLiteral converts one usage value into a field literal, wrapping
// optional scalars in the aws pointer helpers. Values that do not fit the
// field kind are skipped rather than failed: usage data is illustrative.
func sampleLiteral(fld *gen.Field, v any) jen.Code {
	ptr := !fld.Required && pointerable(fld.Kind)
	switch fld.Kind {
	case schema.KindInteger:
		n, ok := asInt(v)
		if !ok {
			return nil
		}
		if ptr {
			return jen.Qual(awsPkg, "Int64").Call(jen.Lit(n))
		}
		return jen.Lit(n)
	case schema.KindDecimal:
		d, ok := asFloat(v)
		if !ok {
			return nil
		}
		if ptr {
			return jen.Qual(awsPkg, "Float64").Call(jen.Lit(d))
		}
		return jen.Lit(d)
	case schema.KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil
		}
		if ptr {
			return jen.Qual(awsPkg, "Bool").Call(jen.Lit(b))
		}
		return jen.Lit(b)
	case schema.KindList, schema.KindMap:
		return nil
	default:
		s := fmt.Sprint(v)
		if ptr {
			return jen.Qual(awsPkg, "String").Call(jen.Lit(s))
		}
		return jen.Lit(s)
	}
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
