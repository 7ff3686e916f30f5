package gen

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledsl/ddbgen"
	"github.com/tabledsl/ddbgen/schema"
)

// stubBackend renders one artifact per entity, enough to exercise the
// orchestration without a real language profile.
type stubBackend struct{}

func (stubBackend) Name() string                           { return "stub" }
func (stubBackend) Primitive(kind schema.FieldKind) string { return string(kind) }

func (stubBackend) Render(g *Graph, r *Resolution, opts *Options) ([]*Artifact, error) {
	var out []*Artifact
	for _, e := range g.Nodes {
		out = append(out, &Artifact{
			Path:     fmt.Sprintf("%s.txt", e.Name),
			Category: CategoryModel,
			Content:  []byte(e.Name),
			Count:    1,
		})
	}
	return out, nil
}

func init() { RegisterBackend(stubBackend{}) }

func TestGenerate(t *testing.T) {
	t.Run("renders artifacts plus the registry", func(t *testing.T) {
		doc := parseDoc(t, baseDoc)
		m, err := Generate(doc, &Options{Language: "stub"})
		require.NoError(t, err)
		assert.Equal(t, "stub", m.Language)
		require.Len(t, m.Artifacts, 2)
		assert.Equal(t, "User.txt", m.Artifacts[0].Path)
		reg := m.Lookup("pattern_registry.json")
		require.NotNil(t, reg)
		assert.Equal(t, CategoryRegistry, reg.Category)
		assert.Equal(t, 6, reg.Count)
	})
	t.Run("refuses invalid documents", func(t *testing.T) {
		doc := parseDoc(t, baseDoc)
		user(doc).Fields[0].Kind = "txt"
		_, err := Generate(doc, &Options{Language: "stub"})
		require.Error(t, err)
		assert.True(t, ddbgen.IsRefused(err))
		var refused *ddbgen.RefusedError
		require.ErrorAs(t, err, &refused)
		assert.False(t, refused.Diagnostics.Empty())
	})
	t.Run("unknown language", func(t *testing.T) {
		doc := parseDoc(t, baseDoc)
		_, err := Generate(doc, &Options{Language: "cobol"})
		require.Error(t, err)
		assert.True(t, ddbgen.IsUnknownLanguage(err))
		var unknown *ddbgen.UnknownLanguageError
		require.ErrorAs(t, err, &unknown)
		assert.Contains(t, unknown.Known, "stub")
	})
	t.Run("identical runs produce identical manifests", func(t *testing.T) {
		doc := parseDoc(t, baseDoc)
		a, err := Generate(doc, &Options{Language: "stub"})
		require.NoError(t, err)
		b, err := Generate(doc, &Options{Language: "stub"})
		require.NoError(t, err)
		require.Len(t, b.Artifacts, len(a.Artifacts))
		for i := range a.Artifacts {
			assert.Equal(t, a.Artifacts[i].Path, b.Artifacts[i].Path)
			assert.Equal(t, a.Artifacts[i].Content, b.Artifacts[i].Content)
		}
	})
}
