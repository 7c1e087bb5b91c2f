package cache

import (
	"testing"
	"time"
)

func TestEmbeddingCachePutGet(t *testing.T) {
	ec := NewEmbeddingCache(10, 0)
	vec := []float32{0.1, 0.2, 0.3}

	ec.Put("ctx-1", "node-a", vec)

	got, ok := ec.Get("ctx-1", "node-a")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 3 || got[0] != 0.1 {
		t.Errorf("got %v, want %v", got, vec)
	}
}

func TestEmbeddingCacheIsolatesByContext(t *testing.T) {
	ec := NewEmbeddingCache(10, 0)
	ec.Put("ctx-1", "node-a", []float32{1, 0})
	ec.Put("ctx-2", "node-a", []float32{0, 1})

	v1, _ := ec.Get("ctx-1", "node-a")
	v2, _ := ec.Get("ctx-2", "node-a")

	if v1[0] != 1 || v2[1] != 1 {
		t.Errorf("cross-context collision: ctx-1=%v ctx-2=%v", v1, v2)
	}
}

func TestEmbeddingCacheMissReturnsFalse(t *testing.T) {
	ec := NewEmbeddingCache(10, 0)
	_, ok := ec.Get("ctx-1", "missing")
	if ok {
		t.Error("expected cache miss")
	}
}

func TestEmbeddingCacheInvalidate(t *testing.T) {
	ec := NewEmbeddingCache(10, 0)
	ec.Put("ctx-1", "node-a", []float32{1})

	ec.Invalidate("ctx-1", "node-a")

	_, ok := ec.Get("ctx-1", "node-a")
	if ok {
		t.Error("expected miss after invalidate")
	}
}

func TestEmbeddingCacheExpiresAfterTTL(t *testing.T) {
	ec := NewEmbeddingCache(10, 10*time.Millisecond)
	ec.Put("ctx-1", "node-a", []float32{1})

	time.Sleep(20 * time.Millisecond)

	_, ok := ec.Get("ctx-1", "node-a")
	if ok {
		t.Error("expected expiration after TTL")
	}
}

func TestEmbeddingCacheStatsTracksHitsAndMisses(t *testing.T) {
	ec := NewEmbeddingCache(10, 0)
	ec.Put("ctx-1", "node-a", []float32{1})

	ec.Get("ctx-1", "node-a")
	ec.Get("ctx-1", "missing")

	stats := ec.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit, 1 miss", stats)
	}
}
