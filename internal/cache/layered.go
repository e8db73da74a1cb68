package cache

import "time"

// LayeredCache layers a memory cache over a disk cache. Embeddings are
// read-heavy and expensive to recompute, so disk hits are promoted
// into memory where they stay decoded.
type LayeredCache struct {
	memory Cache
	disk   Cache
}

// NewLayeredCache creates a new layered cache
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL, 10*time.Minute),
		disk:   NewDiskCache(diskDir, diskTTL),
	}
}

// GetVector retrieves an embedding, checking memory first, then disk
func (c *LayeredCache) GetVector(key string) ([]float32, bool) {
	if vec, found := c.memory.GetVector(key); found {
		return vec, true
	}

	if vec, found := c.disk.GetVector(key); found {
		// Promote so the next lookup skips the decode
		_ = c.memory.SetVector(key, vec, 0)
		return vec, true
	}

	return nil, false
}

// SetVector stores an embedding in both layers
func (c *LayeredCache) SetVector(key string, vec []float32, ttl time.Duration) error {
	if err := c.memory.SetVector(key, vec, ttl); err != nil {
		return err
	}
	return c.disk.SetVector(key, vec, ttl)
}

// Delete removes an embedding from both layers
func (c *LayeredCache) Delete(key string) error {
	_ = c.memory.Delete(key)
	_ = c.disk.Delete(key)
	return nil
}

// Clear removes all embeddings from both layers
func (c *LayeredCache) Clear() error {
	_ = c.memory.Clear()
	_ = c.disk.Clear()
	return nil
}
