package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"time"
)

// Cache stores embedding vectors keyed by content hash. Vectors are
// the only artifact worth caching across runs, so the interface is
// typed to them and each backend handles its own serialization.
type Cache interface {
	GetVector(key string) ([]float32, bool)
	SetVector(key string, vec []float32, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// EmbeddingKey generates a cache key for a content unit's embedding.
// Keyed by content hash so identical text shares one entry across
// submissions and runs.
func EmbeddingKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return "attestor:v1:emb:" + hex.EncodeToString(hash[:])
}

// EncodeVector serializes an embedding for cache and index storage
func EncodeVector(vec []float32) []byte {
	out := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// DecodeVector deserializes an embedding; returns nil for malformed input
func DecodeVector(data []byte) []float32 {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec
}
