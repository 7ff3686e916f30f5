// Package typescript renders the TypeScript artifacts for a resolved
// schema. Output targets the AWS SDK v3 document client, so generated code
// passes plain values and leaves attribute-value marshaling to the SDK.
package typescript

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tabledsl/ddbgen/compiler/gen"
	"github.com/tabledsl/ddbgen/schema"
	"github.com/tabledsl/ddbgen/schema/keytemplate"
)

const header = "// Code generated by ddbgen. DO NOT EDIT."

func init() {
	gen.RegisterBackend(&Backend{})
}

// Backend is the TypeScript language profile.
type Backend struct{}

// Name implements gen.Backend.
func (*Backend) Name() string { return "typescript" }

// Primitive implements gen.Backend.
func (*Backend) Primitive(kind schema.FieldKind) string {
	switch kind {
	case schema.KindInteger, schema.KindDecimal:
		return "number"
	case schema.KindBoolean:
		return "boolean"
	case schema.KindList:
		return "unknown[]"
	case schema.KindMap:
		return "Record<string, unknown>"
	default:
		return "string"
	}
}

// Render implements gen.Backend.
func (b *Backend) Render(g *gen.Graph, r *gen.Resolution, opts *gen.Options) ([]*gen.Artifact, error) {
	byEntity := make(map[*gen.Entity][]*gen.ResolvedPattern)
	for _, rp := range r.Patterns {
		byEntity[rp.Pattern.Entity] = append(byEntity[rp.Pattern.Entity], rp)
	}
	var out []*gen.Artifact
	for _, e := range g.Nodes {
		model, err := renderModel(b, e)
		if err != nil {
			return nil, err
		}
		out = append(out, &gen.Artifact{
			Path:        fileBase(e) + ".ts",
			Category:    gen.CategoryModel,
			Description: fmt.Sprintf("%s entity model and key builders", e.Name),
			Content:     model,
			Count:       1,
		})
		repo, err := renderRepo(b, e, byEntity[e])
		if err != nil {
			return nil, err
		}
		out = append(out, &gen.Artifact{
			Path:        fileBase(e) + "_repo.ts",
			Category:    gen.CategoryRepository,
			Description: fmt.Sprintf("%s access pattern repository", e.Name),
			Content:     repo,
			Count:       len(byEntity[e]),
		})
	}
	if len(r.Transactions) > 0 {
		tx, err := renderTransactions(b, r.Transactions)
		if err != nil {
			return nil, err
		}
		out = append(out, &gen.Artifact{
			Path:        "transactions.ts",
			Category:    gen.CategoryTransaction,
			Description: "cross-table transaction service",
			Content:     tx,
			Count:       len(r.Transactions),
		})
	}
	if opts != nil && opts.Usage != nil {
		example, entities, err := renderExample(b, r, opts.Usage)
		if err != nil {
			return nil, err
		}
		if example != nil {
			out = append(out, &gen.Artifact{
				Path:        "usage_example.ts",
				Category:    gen.CategoryExample,
				Description: "sample factories built from usage data",
				Content:     example,
				Count:       entities,
			})
		}
	}
	return out, nil
}

var titler = cases.Title(language.Und)

// pascal converts a schema name to PascalCase.
func pascal(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		parts[i] = titler.String(p)
	}
	return strings.Join(parts, "")
}

// camel converts a schema name to camelCase.
func camel(s string) string {
	p := pascal(s)
	if p == "" {
		return p
	}
	return strings.ToLower(p[:1]) + p[1:]
}

// constCase converts a schema name to CONST_CASE.
func constCase(s string) string { return strings.ToUpper(s) }

func fileBase(e *gen.Entity) string {
	var b strings.Builder
	for i, r := range e.Name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// tsValue renders the TypeScript expression producing one key step value:
// a template literal for templated steps, the bare argument for passthrough
// numeric steps.
func tsValue(step gen.KeyStep, arg func(field string) string) string {
	if step.RawNumeric {
		return arg(step.Template.Fields()[0])
	}
	return tsTemplateLiteral(step.Template, arg)
}

func tsTemplateLiteral(t *keytemplate.Template, arg func(field string) string) string {
	var b strings.Builder
	b.WriteString("`")
	for _, seg := range t.Segments {
		if seg.Field != "" {
			b.WriteString("${" + arg(seg.Field) + "}")
			continue
		}
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(seg.Literal, "\\", "\\\\"), "`", "\\`"))
	}
	b.WriteString("`")
	return b.String()
}

func execTemplate(t *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("typescript: rendering %s: %w", t.Name(), err)
	}
	return buf.Bytes(), nil
}
