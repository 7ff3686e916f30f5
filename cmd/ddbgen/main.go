// ddbgen compiles a wide-column schema document into generated data access
// code and a machine-readable pattern registry.
//
// # Usage
//
//	ddbgen -schema schema.yaml -lang go -package models -out ./models
//
// Use -validate to check a document without writing anything, and -watch to
// keep regenerating while the schema or usage file changes:
//
//	ddbgen -schema schema.yaml -validate
//	ddbgen -schema schema.yaml -usage usage.yaml -out ./models -watch
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/tabledsl/ddbgen"
	"github.com/tabledsl/ddbgen/compiler/gen"
	_ "github.com/tabledsl/ddbgen/compiler/gen/golang"
	_ "github.com/tabledsl/ddbgen/compiler/gen/typescript"
	"github.com/tabledsl/ddbgen/compiler/load"
)

func main() {
	var (
		schemaPath = flag.String("schema", "", "path to the schema document (required)")
		usagePath  = flag.String("usage", "", "path to an optional usage-data document")
		lang       = flag.String("lang", "go", "target language: "+strings.Join(gen.Languages(), ", "))
		pkg        = flag.String("package", "", "package or module name for generated code")
		out        = flag.String("out", ".", "output directory")
		validate   = flag.Bool("validate", false, "validate the document and exit without generating")
		watch      = flag.Bool("watch", false, "regenerate whenever the schema or usage file changes")
	)
	flag.Parse()

	if *schemaPath == "" {
		fmt.Fprintln(os.Stderr, "ddbgen: -schema is required")
		flag.Usage()
		os.Exit(2)
	}

	r := &runner{
		schemaPath: *schemaPath,
		usagePath:  *usagePath,
		lang:       *lang,
		pkg:        *pkg,
		out:        *out,
		cache:      gen.NewManifestCache(),
	}

	var err error
	if *validate {
		err = r.validate()
	} else {
		err = r.generate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ddbgen: %v\n", err)
		if !*watch {
			os.Exit(1)
		}
	}
	if *watch {
		if err := r.watch(*validate); err != nil {
			fmt.Fprintf(os.Stderr, "ddbgen: %v\n", err)
			os.Exit(1)
		}
	}
}

type runner struct {
	schemaPath string
	usagePath  string
	lang       string
	pkg        string
	out        string
	cache      *gen.ManifestCache
}

// read loads and parses both input documents, printing every diagnostic the
// loader collects.
func (r *runner) read() (*load.Document, *load.Usage, []byte, []byte, error) {
	schemaRaw, err := os.ReadFile(r.schemaPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	doc, diags := load.Parse(schemaRaw)
	if !diags.Empty() {
		printDiagnostics(diags)
		return nil, nil, nil, nil, ddbgen.NewRefusedError(diags)
	}

	var (
		usage    *load.Usage
		usageRaw []byte
	)
	if r.usagePath != "" {
		usageRaw, err = os.ReadFile(r.usagePath)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		var udiags *ddbgen.Diagnostics
		usage, udiags = load.ParseUsage(usageRaw)
		if !udiags.Empty() {
			printDiagnostics(udiags)
			return nil, nil, nil, nil, ddbgen.NewRefusedError(udiags)
		}
	}
	return doc, usage, schemaRaw, usageRaw, nil
}

func (r *runner) validate() error {
	doc, _, _, _, err := r.read()
	if err != nil {
		return err
	}
	if diags := gen.Validate(doc); !diags.Empty() {
		printDiagnostics(diags)
		return ddbgen.NewRefusedError(diags)
	}
	fmt.Printf("ddbgen: %s is valid\n", r.schemaPath)
	return nil
}

func (r *runner) generate() error {
	doc, usage, schemaRaw, usageRaw, err := r.read()
	if err != nil {
		return err
	}

	key := gen.CacheKey(schemaRaw, usageRaw, r.lang, r.pkg)
	m, ok := r.cache.Get(key)
	if !ok {
		m, err = gen.Generate(doc, &gen.Options{Language: r.lang, Package: r.pkg, Usage: usage})
		if err != nil {
			var refused *ddbgen.RefusedError
			if errors.As(err, &refused) {
				printDiagnostics(refused.Diagnostics)
			}
			return err
		}
		if err := r.cache.Put(key, m); err != nil {
			return err
		}
	}

	if err := m.Write(r.out); err != nil {
		return err
	}
	fmt.Printf("ddbgen: generated %d %s artifacts in %s\n", len(m.Artifacts), m.Language, r.out)
	return nil
}

// watch regenerates on every change to the schema or usage file until
// interrupted. The containing directories are watched because editors
// replace files instead of writing them in place.
func (r *runner) watch(validateOnly bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	targets := map[string]bool{filepath.Clean(r.schemaPath): true}
	if r.usagePath != "" {
		targets[filepath.Clean(r.usagePath)] = true
	}
	dirs := map[string]bool{}
	for t := range targets {
		dirs[filepath.Dir(t)] = true
	}
	for d := range dirs {
		if err := watcher.Add(d); err != nil {
			return err
		}
	}

	fmt.Printf("ddbgen: watching %s\n", r.schemaPath)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !targets[filepath.Clean(event.Name)] {
				continue
			}
			var err error
			if validateOnly {
				err = r.validate()
			} else {
				err = r.generate()
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "ddbgen: %v\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "ddbgen: watch: %v\n", err)
		}
	}
}

func printDiagnostics(diags *ddbgen.Diagnostics) {
	for _, d := range diags.Sorted() {
		fmt.Fprintln(os.Stderr, d.String())
	}
}
