package gen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// CacheKey derives the cache identity of one generation run from everything
// that can change its output: the raw schema and usage documents, the target
// language, and the declared package name.
func CacheKey(schema, usage []byte, language, pkg string) string {
	h := sha256.New()
	h.Write(schema)
	h.Write([]byte{0})
	h.Write(usage)
	h.Write([]byte{0})
	h.Write([]byte(language))
	h.Write([]byte{0})
	h.Write([]byte(pkg))
	return hex.EncodeToString(h.Sum(nil))
}

// ManifestCache memoizes generation results by cache key. Manifests are
// stored in their encoded form, so a cached entry is immune to later
// mutation of the manifest it was built from.
type ManifestCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewManifestCache() *ManifestCache {
	return &ManifestCache{entries: make(map[string][]byte)}
}

// Get returns the cached manifest for the key, or (nil, false).
func (c *ManifestCache) Get(key string) (*Manifest, bool) {
	c.mu.RLock()
	buf, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	var m Manifest
	if err := msgpack.Unmarshal(buf, &m); err != nil {
		// An undecodable entry is treated as a miss and dropped.
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return &m, true
}

// Put stores the manifest under the key.
func (c *ManifestCache) Put(key string, m *Manifest) error {
	buf, err := msgpack.Marshal(m)
	if err != nil {
		return fmt.Errorf("gen: encoding cached manifest: %w", err)
	}
	c.mu.Lock()
	c.entries[key] = buf
	c.mu.Unlock()
	return nil
}

// Len returns the number of cached manifests.
func (c *ManifestCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
