package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ArtifactCategory groups generated artifacts by purpose. Categories order
// the manifest: models first, then the code that operates on them, then the
// machine-readable catalog, then examples.
type ArtifactCategory string

const (
	CategoryModel       ArtifactCategory = "model"
	CategoryRepository  ArtifactCategory = "repository"
	CategoryTransaction ArtifactCategory = "transaction"
	CategoryRegistry    ArtifactCategory = "registry"
	CategoryExample     ArtifactCategory = "example"
)

var categoryRank = map[ArtifactCategory]int{
	CategoryModel:       0,
	CategoryRepository:  1,
	CategoryTransaction: 2,
	CategoryRegistry:    3,
	CategoryExample:     4,
}

type (
	// Artifact is one generated output file.
	Artifact struct {
		// Path is relative to the generation target directory, using forward
		// slashes on every platform.
		Path        string
		Category    ArtifactCategory
		Description string
		Content     []byte
		// Count is the number of rendered units the artifact carries:
		// entities for models and examples, patterns for repositories,
		// transactions for the transaction service, entries for the registry.
		Count int
	}

	// Manifest is the complete, ordered output of one generation run.
	Manifest struct {
		Language  string
		Artifacts []*Artifact
	}
)

// newManifest sorts the artifacts into their stable order: by category rank,
// then by path. Two runs over the same document produce identical manifests.
func newManifest(language string, artifacts []*Artifact) *Manifest {
	m := &Manifest{Language: language, Artifacts: artifacts}
	sort.SliceStable(m.Artifacts, func(i, j int) bool {
		a, b := m.Artifacts[i], m.Artifacts[j]
		if categoryRank[a.Category] != categoryRank[b.Category] {
			return categoryRank[a.Category] < categoryRank[b.Category]
		}
		return a.Path < b.Path
	})
	return m
}

// Lookup returns the artifact at the given relative path, or nil.
func (m *Manifest) Lookup(path string) *Artifact {
	for _, a := range m.Artifacts {
		if a.Path == path {
			return a
		}
	}
	return nil
}

// Bytes returns the total content size of the manifest.
func (m *Manifest) Bytes() int {
	var n int
	for _, a := range m.Artifacts {
		n += len(a.Content)
	}
	return n
}

// Write materializes every artifact under dir, creating directories as
// needed. Existing files are overwritten: the target directory is owned by
// the generator.
func (m *Manifest) Write(dir string) error {
	for _, a := range m.Artifacts {
		target := filepath.Join(dir, filepath.FromSlash(a.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("gen: creating %s: %w", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, a.Content, 0o644); err != nil {
			return fmt.Errorf("gen: writing %s: %w", target, err)
		}
	}
	return nil
}
