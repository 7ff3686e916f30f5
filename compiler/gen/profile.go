package gen

import (
	"sort"
	"sync"

	"github.com/tabledsl/ddbgen"
	"github.com/tabledsl/ddbgen/schema"
)

// Backend renders the generated artifacts for one target language. A backend
// owns the full mapping from the resolved model to source text: primitive
// type names, naming conventions, and file layout.
type Backend interface {
	// Name is the language tag the backend registers under.
	Name() string
	// Primitive maps a field kind to the language's type name.
	Primitive(kind schema.FieldKind) string
	// Render produces every source artifact for the resolution. Artifacts
	// are returned in any order; the manifest sorts them.
	Render(g *Graph, r *Resolution, opts *Options) ([]*Artifact, error)
}

var backends struct {
	sync.RWMutex
	byName map[string]Backend
}

// RegisterBackend makes a language backend available to Generate. It is
// intended to be called from backend package init functions and panics on a
// duplicate name, since that is always a programming error.
func RegisterBackend(b Backend) {
	backends.Lock()
	defer backends.Unlock()
	if backends.byName == nil {
		backends.byName = make(map[string]Backend)
	}
	if _, ok := backends.byName[b.Name()]; ok {
		panic("gen: duplicate backend " + b.Name())
	}
	backends.byName[b.Name()] = b
}

// LookupBackend returns the backend registered under the language tag. The
// returned error lists the known languages so callers can surface them.
func LookupBackend(language string) (Backend, error) {
	backends.RLock()
	defer backends.RUnlock()
	b, ok := backends.byName[language]
	if !ok {
		return nil, ddbgen.NewUnknownLanguageError(language, languagesLocked())
	}
	return b, nil
}

// Languages returns the registered language tags in sorted order.
func Languages() []string {
	backends.RLock()
	defer backends.RUnlock()
	return languagesLocked()
}

func languagesLocked() []string {
	out := make([]string, 0, len(backends.byName))
	for name := range backends.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
