package gen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest(t *testing.T) {
	artifacts := []*Artifact{
		{Path: "examples/usage.go", Category: CategoryExample, Content: []byte("e")},
		{Path: "pattern_registry.json", Category: CategoryRegistry, Content: []byte("{}")},
		{Path: "user_repo.go", Category: CategoryRepository, Content: []byte("r")},
		{Path: "account.go", Category: CategoryModel, Content: []byte("m")},
		{Path: "user.go", Category: CategoryModel, Content: []byte("m")},
	}

	t.Run("ordered by category then path", func(t *testing.T) {
		m := newManifest("go", artifacts)
		var paths []string
		for _, a := range m.Artifacts {
			paths = append(paths, a.Path)
		}
		assert.Equal(t, []string{
			"account.go", "user.go", "user_repo.go", "pattern_registry.json", "examples/usage.go",
		}, paths)
	})
	t.Run("lookup", func(t *testing.T) {
		m := newManifest("go", artifacts)
		require.NotNil(t, m.Lookup("user.go"))
		assert.Nil(t, m.Lookup("missing.go"))
	})
	t.Run("bytes", func(t *testing.T) {
		m := newManifest("go", artifacts)
		assert.Equal(t, 6, m.Bytes())
	})
	t.Run("write materializes the tree", func(t *testing.T) {
		dir := t.TempDir()
		m := newManifest("go", artifacts)
		require.NoError(t, m.Write(dir))
		buf, err := os.ReadFile(filepath.Join(dir, "examples", "usage.go"))
		require.NoError(t, err)
		assert.Equal(t, "e", string(buf))
	})
}

func TestManifestCache(t *testing.T) {
	t.Run("key changes with every input", func(t *testing.T) {
		base := CacheKey([]byte("schema"), []byte("usage"), "go", "models")
		assert.NotEqual(t, base, CacheKey([]byte("schema2"), []byte("usage"), "go", "models"))
		assert.NotEqual(t, base, CacheKey([]byte("schema"), []byte("usage2"), "go", "models"))
		assert.NotEqual(t, base, CacheKey([]byte("schema"), []byte("usage"), "typescript", "models"))
		assert.NotEqual(t, base, CacheKey([]byte("schema"), []byte("usage"), "go", "other"))
		assert.Equal(t, base, CacheKey([]byte("schema"), []byte("usage"), "go", "models"))
	})
	t.Run("roundtrip", func(t *testing.T) {
		cache := NewManifestCache()
		key := CacheKey([]byte("s"), nil, "go", "")
		_, ok := cache.Get(key)
		assert.False(t, ok)

		m := newManifest("go", []*Artifact{
			{Path: "user.go", Category: CategoryModel, Description: "entity model", Content: []byte("package models"), Count: 1},
		})
		require.NoError(t, cache.Put(key, m))
		got, ok := cache.Get(key)
		require.True(t, ok)
		assert.Equal(t, "go", got.Language)
		require.Len(t, got.Artifacts, 1)
		assert.Equal(t, m.Artifacts[0].Content, got.Artifacts[0].Content)
		assert.Equal(t, 1, got.Artifacts[0].Count)
		assert.Equal(t, 1, cache.Len())
	})
	t.Run("cached entries are isolated from later mutation", func(t *testing.T) {
		cache := NewManifestCache()
		m := newManifest("go", []*Artifact{{Path: "a.go", Category: CategoryModel, Content: []byte("x")}})
		require.NoError(t, cache.Put("k", m))
		m.Artifacts[0].Content = []byte("mutated")
		got, ok := cache.Get("k")
		require.True(t, ok)
		assert.Equal(t, []byte("x"), got.Artifacts[0].Content)
	})
}
