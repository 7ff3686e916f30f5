package typescript

import (
	"fmt"
	"sort"
	"strconv"
	"text/template"

	"github.com/tabledsl/ddbgen/compiler/gen"
	"github.com/tabledsl/ddbgen/compiler/load"
	"github.com/tabledsl/ddbgen/schema"
)

var exampleTemplate = template.Must(template.New("example").Parse(`{{.Header}}

{{range .Imports}}import { {{.Names}} } from "./{{.File}}";
{{end}}{{range .Factories}}
/** {{.Doc}} */
export function {{.Name}}(): {{.Entity}} {
  return {
{{- if .Base}}
    ...{{.Base}}(),
{{- end}}
{{- range .Entries}}
    {{.Prop}}: {{.Value}},
{{- end}}
  }{{if not .Base}} as {{.Entity}}{{end}};
}
{{end}}`))

type (
	exampleData struct {
		Header    string
		Imports   []txImport
		Factories []factoryData
	}
	factoryData struct {
		Name    string
		Entity  string
		Doc     string
		Base    string
		Entries []exampleEntry
	}
	exampleEntry struct {
		Prop  string
		Value string
	}
)

// renderExample renders the usage-example file: sample and alternate
// factories per covered entity, plus an updated-sample factory spreading the
// update variant over the sample. Returns a nil buffer when no entity
// carries usage values.
func renderExample(b *Backend, r *gen.Resolution, usage *load.Usage) ([]byte, int, error) {
	entities := usageEntities(r, usage)
	if len(entities) == 0 {
		return nil, 0, nil
	}
	data := exampleData{Header: header}
	for _, e := range entities {
		eu := usage.ForEntity(e.Name)
		data.Imports = append(data.Imports, txImport{File: fileBase(e), Names: e.Name})
		if len(eu.Sample) > 0 {
			data.Factories = append(data.Factories, factoryData{
				Name:    "sample" + e.Name,
				Entity:  e.Name,
				Doc:     fmt.Sprintf("Returns a %s populated with illustrative values.", e.Name),
				Entries: exampleEntries(e, eu.Sample),
			})
		}
		if len(eu.Alternate) > 0 {
			data.Factories = append(data.Factories, factoryData{
				Name:    "alternate" + e.Name,
				Entity:  e.Name,
				Doc:     fmt.Sprintf("Returns a second, distinct %s for examples needing two items.", e.Name),
				Entries: exampleEntries(e, eu.Alternate),
			})
		}
		if len(eu.Sample) > 0 && len(eu.Update) > 0 {
			data.Factories = append(data.Factories, factoryData{
				Name:    "sample" + e.Name + "Updated",
				Entity:  e.Name,
				Doc:     fmt.Sprintf("Returns the sample %s after applying the update values.", e.Name),
				Base:    "sample" + e.Name,
				Entries: exampleEntries(e, eu.Update),
			})
		}
	}
	buf, err := execTemplate(exampleTemplate, data)
	if err != nil {
		return nil, 0, err
	}
	return buf, len(entities), nil
}

// usageEntities returns the resolution's entities with any usage variant, in
// stable name order.
func usageEntities(r *gen.Resolution, usage *load.Usage) []*gen.Entity {
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

func exampleEntries(e *gen.Entity, values map[string]any) []exampleEntry {
	var out []exampleEntry
	for _, fld := range e.Fields {
		v, ok := values[fld.Name]
		if !ok {
			continue
		}
		lit, ok := tsLiteral(fld, v)
		if !ok {
			continue
		}
		out = append(out, exampleEntry{Prop: camel(fld.Name), Value: lit})
	}
	return out
}

// tsLiteral converts one usage value into a TypeScript literal. Values that
// do not fit the field kind are skipped rather than failed: usage data is
// illustrative.
func tsLiteral(fld *gen.Field, v any) (string, bool) {
	switch fld.Kind {
	case schema.KindInteger:
		switch n := v.(type) {
		case int:
			return strconv.Itoa(n), true
		case int64:
			return strconv.FormatInt(n, 10), true
		case float64:
			return strconv.FormatInt(int64(n), 10), true
		}
		return "", false
	case schema.KindDecimal:
		switch n := v.(type) {
		case float64:
			return strconv.FormatFloat(n, 'g', -1, 64), true
		case int:
			return strconv.Itoa(n), true
		case int64:
			return strconv.FormatInt(n, 10), true
		}
		return "", false
	case schema.KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return "", false
		}
		return strconv.FormatBool(b), true
	case schema.KindList, schema.KindMap:
		return "", false
	default:
		return strconv.Quote(fmt.Sprint(v)), true
	}
}
