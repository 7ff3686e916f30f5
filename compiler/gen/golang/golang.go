// Package golang renders the Go artifacts for a resolved schema: one model
// file and one repository file per entity, a transaction service when the
// document declares cross-table patterns, and an optional usage example.
// Files are built with jennifer so imports are tracked automatically, then
// normalized through the goimports processor.
package golang

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/tabledsl/ddbgen/compiler/gen"
	"github.com/tabledsl/ddbgen/schema"
)

const (
	dynamodbPkg  = "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypesPkg  = "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	attrValuePkg = "github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsPkg       = "github.com/aws/aws-sdk-go-v2/aws"
)

const header = "Code generated by ddbgen. DO NOT EDIT."

func init() {
	gen.RegisterBackend(&Backend{})
}

// Backend is the Go language profile.
type Backend struct{}

// Name implements gen.Backend.
func (*Backend) Name() string { return "go" }

// Primitive implements gen.Backend.
func (*Backend) Primitive(kind schema.FieldKind) string {
	switch kind {
	case schema.KindInteger:
		return "int64"
	case schema.KindDecimal:
		return "float64"
	case schema.KindBoolean:
		return "bool"
	case schema.KindList:
		return "[]any"
	case schema.KindMap:
		return "map[string]any"
	default:
		return "string"
	}
}

// Render implements gen.Backend. Entities render in parallel; the artifact
// list order does not matter because the manifest sorts it.
func (b *Backend) Render(g *gen.Graph, r *gen.Resolution, opts *gen.Options) ([]*gen.Artifact, error) {
	w := &writer{pkg: pkgName(opts), byEntity: patternsByEntity(r)}

	var eg errgroup.Group
	for _, e := range g.Nodes {
		e := e
		eg.Go(func() error {
			return w.add(modelFile(w.pkg, e), entityFileName(e), gen.CategoryModel,
				fmt.Sprintf("%s entity model and key builders", e.Name), 1)
		})
		eg.Go(func() error {
			f, err := repositoryFile(w.pkg, e, w.byEntity[e])
			if err != nil {
				return err
			}
			return w.add(f, repoFileName(e), gen.CategoryRepository,
				fmt.Sprintf("%s access pattern repository", e.Name), len(w.byEntity[e]))
		})
	}
	if len(r.Transactions) > 0 {
		eg.Go(func() error {
			return w.add(transactionFile(w.pkg, g, r.Transactions), "transactions.go",
				gen.CategoryTransaction, "cross-table transaction service", len(r.Transactions))
		})
	}
	if opts != nil && opts.Usage != nil {
		eg.Go(func() error {
			f, err := exampleFile(w.pkg, r, opts.Usage)
			if err != nil {
				return err
			}
			if f == nil {
				return nil
			}
			return w.add(f, "usage_example.go", gen.CategoryExample,
				"sample constructors built from usage data", len(sampledEntities(r, opts.Usage)))
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return w.artifacts, nil
}

// writer collects rendered artifacts from the parallel entity workers.
type writer struct {
	pkg string

	mu        sync.Mutex
	artifacts []*gen.Artifact
	byEntity  map[*gen.Entity][]*gen.ResolvedPattern
}

// add renders the file, runs it through the goimports processor, and records
// the artifact.
func (w *writer) add(f *jen.File, path string, cat gen.ArtifactCategory, desc string, count int) error {
	var buf strings.Builder
	if err := f.Render(&buf); err != nil {
		return fmt.Errorf("golang: rendering %s: %w", path, err)
	}
	src, err := imports.Process(path, []byte(buf.String()), nil)
	if err != nil {
		return fmt.Errorf("golang: formatting %s: %w", path, err)
	}
	w.mu.Lock()
	w.artifacts = append(w.artifacts, &gen.Artifact{Path: path, Category: cat, Description: desc, Content: src, Count: count})
	w.mu.Unlock()
	return nil
}

func newFile(pkg string) *jen.File {
	f := jen.NewFile(pkg)
	f.HeaderComment(header)
	return f
}

func pkgName(opts *gen.Options) string {
	if opts != nil && opts.Package != "" {
		return opts.Package
	}
	return "models"
}

func patternsByEntity(r *gen.Resolution) map[*gen.Entity][]*gen.ResolvedPattern {
	out := make(map[*gen.Entity][]*gen.ResolvedPattern)
	for _, rp := range r.Patterns {
		out[rp.Pattern.Entity] = append(out[rp.Pattern.Entity], rp)
	}
	return out
}

func entityFileName(e *gen.Entity) string { return inflect.Underscore(e.Name) + ".go" }
func repoFileName(e *gen.Entity) string   { return inflect.Underscore(e.Name) + "_repo.go" }

// exported turns a schema name into an exported Go identifier.
func exported(name string) string { return inflect.Camelize(name) }

// local turns a schema name into an unexported Go identifier.
func local(name string) string {
	s := inflect.CamelizeDownFirst(name)
	if isReserved(s) {
		return s + "Value"
	}
	return s
}

func isReserved(s string) bool {
	switch s {
	case "type", "range", "map", "func", "var", "return", "select", "case", "default", "go", "if", "else", "for":
		return true
	}
	return false
}

// goType returns the jen statement for a field's Go type. Optional scalar
// fields are pointers so absence survives a marshal round trip.
func goType(f *gen.Field) *jen.Statement {
	base := primitiveCode(f.Kind, f.Element)
	if !f.Required && pointerable(f.Kind) {
		return jen.Op("*").Add(base)
	}
	return base
}

func pointerable(kind schema.FieldKind) bool {
	switch kind {
	case schema.KindList, schema.KindMap:
		return false
	}
	return true
}

func primitiveCode(kind, element schema.FieldKind) *jen.Statement {
	switch kind {
	case schema.KindInteger:
		return jen.Int64()
	case schema.KindDecimal:
		return jen.Float64()
	case schema.KindBoolean:
		return jen.Bool()
	case schema.KindList:
		if element != "" {
			return jen.Index().Add(primitiveCode(element, ""))
		}
		return jen.Index().Any()
	case schema.KindMap:
		return jen.Map(jen.String()).Any()
	default:
		return jen.String()
	}
}

// paramType returns the Go type for a pattern parameter.
func paramType(kind schema.FieldKind) *jen.Statement { return primitiveCode(kind, "") }
