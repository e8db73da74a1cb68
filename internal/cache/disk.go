package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskCache persists embedding vectors as little-endian float32 files;
// expiry is derived from the file modification time.
type DiskCache struct {
	dir string
	ttl time.Duration
}

// NewDiskCache creates a new disk cache
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{
		dir: dir,
		ttl: ttl,
	}
}

// GetVector retrieves an embedding from the disk cache. A file that no
// longer decodes is removed and treated as a miss.
func (c *DiskCache) GetVector(key string) ([]float32, bool) {
	path := c.path(key)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		_ = os.Remove(path)
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	vec := DecodeVector(data)
	if vec == nil {
		_ = os.Remove(path)
		return nil, false
	}
	return vec, true
}

// SetVector stores an embedding in the disk cache. The per-entry ttl is
// ignored; the cache-wide ttl applies (entry age is tracked by file
// mtime).
func (c *DiskCache) SetVector(key string, vec []float32, _ time.Duration) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(c.path(key), EncodeVector(vec), 0644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

// Delete removes an embedding from the disk cache
func (c *DiskCache) Delete(key string) error {
	return os.Remove(c.path(key))
}

// Clear removes all cached files
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// path generates the file path for a cache key
func (c *DiskCache) path(key string) string {
	return filepath.Join(c.dir, strings.ReplaceAll(key, ":", "_")+".cache")
}
