package typescript

import (
	"strings"
	"text/template"

	"github.com/tabledsl/ddbgen/compiler/gen"
)

var modelTemplate = template.Must(template.New("model").Parse(`{{.Header}}

export interface {{.Name}} {
{{- range .Fields}}
  {{.Prop}}{{if .Optional}}?{{end}}: {{.Type}};
{{- end}}
}

export const {{.TagConst}} = {{printf "%q" .Tag}};
{{range .Keys}}
/** Builds the {{.Doc}} for a {{$.Name}}. */
export function {{.FnName}}({{.ParamList}}): Record<string, unknown> {
  return {
{{- range .Entries}}
    {{printf "%q" .Attr}}: {{.Expr}},
{{- end}}
  };
}
{{end}}`))

type (
	modelData struct {
		Header   string
		Name     string
		Tag      string
		TagConst string
		Fields   []fieldData
		Keys     []keyFnData
	}
	fieldData struct {
		Prop     string
		Type     string
		Optional bool
	}
	keyFnData struct {
		FnName    string
		Doc       string
		ParamList string
		Entries   []entryData
	}
	entryData struct {
		Attr string
		Expr string
	}
)

func renderModel(b *Backend, e *gen.Entity) ([]byte, error) {
	data := modelData{
		Header:   header,
		Name:     e.Name,
		Tag:      e.Tag,
		TagConst: constCase(fileBase(e)) + "_TAG",
	}
	for _, fld := range e.Fields {
		data.Fields = append(data.Fields, fieldData{
			Prop:     camel(fld.Name),
			Type:     b.Primitive(fld.Kind),
			Optional: !fld.Required,
		})
	}
	data.Keys = append(data.Keys, keyFn(b, e, camel(e.Name)+"Key", "primary key", gen.PrimaryKeySteps(e)))
	for _, ik := range e.IndexKeys {
		data.Keys = append(data.Keys, keyFn(b, e,
			camel(e.Name)+pascal(ik.Index.Name)+"Key",
			ik.Index.Name+" key",
			gen.IndexKeySteps(e, ik)))
	}
	return execTemplate(modelTemplate, data)
}

func keyFn(b *Backend, e *gen.Entity, name, doc string, steps []gen.KeyStep) keyFnData {
	fn := keyFnData{FnName: name, Doc: doc}
	var params []string
	seen := make(map[string]bool)
	for _, step := range steps {
		for _, f := range step.Template.Fields() {
			if seen[f] {
				continue
			}
			seen[f] = true
			params = append(params, camel(f)+": "+fieldType(b, e, f))
		}
	}
	fn.ParamList = strings.Join(params, ", ")
	for _, step := range steps {
		fn.Entries = append(fn.Entries, entryData{
			Attr: step.Attribute,
			Expr: tsValue(step, camel),
		})
	}
	return fn
}

func fieldType(b *Backend, e *gen.Entity, field string) string {
	if fld := e.Field(field); fld != nil {
		return b.Primitive(fld.Kind)
	}
	return "string"
}
