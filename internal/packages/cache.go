package packages

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-showcase/internal/manifest"
)

type cachedManifest struct {
	data    []byte
	modTime time.Time
	size    int64
}

// ManifestCache keeps manifest bytes in memory keyed by absolute path. Every
// read stats the file and refreshes the entry when modtime or size changed,
// so a stale entry is never served even without the watcher.
type ManifestCache struct {
	mu      sync.RWMutex
	entries map[string]cachedManifest
	hits    func()
}

var _ manifest.Reader = (*ManifestCache)(nil)

// NewManifestCache returns an empty cache.
func NewManifestCache() *ManifestCache {
	return &ManifestCache{entries: make(map[string]cachedManifest)}
}

// OnHit registers a callback invoked on every cache hit.
func (c *ManifestCache) OnHit(fn func()) {
	c.mu.Lock()
	c.hits = fn
	c.mu.Unlock()
}

func (c *ManifestCache) ReadFile(path string) ([]byte, error) {
	key := cacheKey(path)
	info, err := os.Stat(key)
	if err != nil {
		c.Evict(key)
		return nil, err
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	hit := c.hits
	c.mu.RUnlock()
	if ok && entry.size == info.Size() && entry.modTime.Equal(info.ModTime()) {
		if hit != nil {
			hit()
		}
		return entry.data, nil
	}

	data, err := os.ReadFile(key)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[key] = cachedManifest{data: data, modTime: info.ModTime(), size: info.Size()}
	c.mu.Unlock()
	return data, nil
}

// Evict drops the entry for path.
func (c *ManifestCache) Evict(path string) {
	key := cacheKey(path)
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// EvictDir drops every entry under dir.
func (c *ManifestCache) EvictDir(dir string) int {
	prefix := cacheKey(dir) + string(filepath.Separator)
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of cached manifests.
func (c *ManifestCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
