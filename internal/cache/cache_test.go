package cache

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	vec := []float32{0.25, -1, 4}
	if err := c.SetVector("key", vec, 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	got, found := c.GetVector("key")
	if !found {
		t.Fatal("Expected a hit")
	}
	if !reflect.DeepEqual(got, vec) {
		t.Errorf("Expected %v, got %v", vec, got)
	}

	if _, found := c.GetVector("absent"); found {
		t.Error("Expected a miss for an absent key")
	}
}

func TestDiskCache_SetGetDelete(t *testing.T) {
	c := NewDiskCache(filepath.Join(t.TempDir(), "cache"), time.Hour)

	key := EmbeddingKey("some unit text")
	vec := []float32{1.5, 0, -0.5}
	if err := c.SetVector(key, vec, 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	got, found := c.GetVector(key)
	if !found || !reflect.DeepEqual(got, vec) {
		t.Errorf("Expected %v, got %v (found=%v)", vec, got, found)
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("Expected no error on delete, got %v", err)
	}
	if _, found := c.GetVector(key); found {
		t.Error("Expected a miss after delete")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(filepath.Join(t.TempDir(), "cache"), time.Nanosecond)

	if err := c.SetVector("k", []float32{1}, 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, found := c.GetVector("k"); found {
		t.Error("Expected the entry to expire")
	}
}

func TestDiskCache_CorruptFileIsAMiss(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDiskCache(dir, time.Hour)

	if err := c.SetVector("k", []float32{1, 2}, 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Truncate the stored file mid-float
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("Expected one cache file, got %v (%v)", entries, err)
	}
	path := filepath.Join(dir, entries[0].Name())
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0644); err != nil {
		t.Fatal(err)
	}

	if _, found := c.GetVector("k"); found {
		t.Error("Expected a corrupt file to be treated as a miss")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected the corrupt file to be removed")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewLayeredCache(time.Minute, dir, time.Hour)

	vec := []float32{0.125, 8}
	if err := c.SetVector("k", vec, 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// A fresh layered cache over the same directory has a cold memory
	// layer but should still hit via disk
	c2 := NewLayeredCache(time.Minute, dir, time.Hour)
	got, found := c2.GetVector("k")
	if !found || !reflect.DeepEqual(got, vec) {
		t.Errorf("Expected a disk hit through the new instance, got %v (found=%v)", got, found)
	}
}

func TestEmbeddingKey_StableAndDistinct(t *testing.T) {
	a := EmbeddingKey("text one")
	b := EmbeddingKey("text one")
	c := EmbeddingKey("text two")

	if a != b {
		t.Error("Expected identical text to produce identical keys")
	}
	if a == c {
		t.Error("Expected different text to produce different keys")
	}
	if !strings.HasPrefix(a, "attestor:v1:emb:") {
		t.Errorf("Expected the versioned key prefix, got %q", a)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	vec := []float32{0.5, -1.25, 3e7, 0}
	got := DecodeVector(EncodeVector(vec))
	if !reflect.DeepEqual(vec, got) {
		t.Errorf("Round trip mismatch: %v vs %v", vec, got)
	}
}

func TestDecodeVector_Malformed(t *testing.T) {
	if DecodeVector(nil) != nil {
		t.Error("Expected nil for empty input")
	}
	if DecodeVector([]byte{1, 2, 3}) != nil {
		t.Error("Expected nil for input not divisible by 4")
	}
}
