package gen

import (
	"fmt"

	"github.com/tabledsl/ddbgen"
	"github.com/tabledsl/ddbgen/compiler/load"
)

// Options configures one generation run.
type Options struct {
	// Language selects the registered backend.
	Language string
	// Package is the package or module name the generated code declares.
	// Backends apply their language's convention when it is empty.
	Package string
	// Usage optionally supplies sample entity values. When present, the
	// backend emits a usage example artifact and the pattern registry
	// prefers the sample values over generated ones.
	Usage *load.Usage
}

// Generate compiles a loaded document into a manifest of generated
// artifacts. It refuses to generate against a document with any outstanding
// diagnostic: callers distinguish refusal from backend failure with
// ddbgen.IsRefused.
func Generate(doc *load.Document, opts *Options) (*Manifest, error) {
	if opts == nil {
		opts = &Options{}
	}
	if diags := Validate(doc); !diags.Empty() {
		return nil, ddbgen.NewRefusedError(diags)
	}
	backend, err := LookupBackend(opts.Language)
	if err != nil {
		return nil, err
	}
	graph, err := NewGraph(doc)
	if err != nil {
		return nil, err
	}
	res, err := Resolve(graph)
	if err != nil {
		return nil, err
	}
	artifacts, err := backend.Render(graph, res, opts)
	if err != nil {
		return nil, fmt.Errorf("gen: rendering %s artifacts: %w", backend.Name(), err)
	}
	registry, err := res.Registry(opts.Usage)
	if err != nil {
		return nil, err
	}
	buf, err := registry.JSON()
	if err != nil {
		return nil, err
	}
	artifacts = append(artifacts, &Artifact{
		Path:        "pattern_registry.json",
		Category:    CategoryRegistry,
		Description: "machine-readable access pattern catalog",
		Content:     buf,
		Count:       len(registry.Patterns),
	})
	return newManifest(backend.Name(), artifacts), nil
}
