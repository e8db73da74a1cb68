package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps recently used embedding vectors in process memory.
// Vectors stay unserialized here; encoding is the disk layer's concern.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// GetVector retrieves an embedding from the cache
func (c *MemoryCache) GetVector(key string) ([]float32, bool) {
	if val, found := c.cache.Get(key); found {
		return val.([]float32), true
	}
	return nil, false
}

// SetVector stores an embedding in the cache with the given TTL
func (c *MemoryCache) SetVector(key string, vec []float32, ttl time.Duration) error {
	c.cache.Set(key, vec, ttl)
	return nil
}

// Delete removes an embedding from the cache
func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear removes all embeddings from the cache
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}
