package cache

import (
	"time"
)

// EmbeddingCache caches embedding vectors keyed by (context_id, node_id),
// per §5's concurrency model: "embedding cache keyed (context_id, node_id)
// with serialized writes." It sits in front of an Embedder so an
// enrichment round that revisits the same node — because a prior round's
// commit hasn't landed in the vector store yet, or because two adapters
// both touch the node in one ingest call — doesn't pay for a second
// embedding call.
//
// Built on QueryCache's LRU+TTL engine rather than a bare map: the same
// bounded-memory and staleness concerns apply (a long-lived process
// embeds far more nodes across far more contexts than it should hold
// onto indefinitely).
type EmbeddingCache struct {
	cache *QueryCache
}

// NewEmbeddingCache builds an embedding cache holding up to maxSize
// vectors, each expiring after ttl (0 = no expiration).
func NewEmbeddingCache(maxSize int, ttl time.Duration) *EmbeddingCache {
	return &EmbeddingCache{cache: NewQueryCache(maxSize, ttl)}
}

// Get returns the cached embedding for (contextID, nodeID), if present
// and unexpired.
func (e *EmbeddingCache) Get(contextID, nodeID string) ([]float32, bool) {
	v, ok := e.cache.Get(e.key(contextID, nodeID))
	if !ok {
		return nil, false
	}
	vec, ok := v.([]float32)
	return vec, ok
}

// Put caches vector for (contextID, nodeID). Writes are serialized by
// QueryCache's own mutex — concurrent Put calls for the same key never
// interleave partial updates.
func (e *EmbeddingCache) Put(contextID, nodeID string, vector []float32) {
	e.cache.Put(e.key(contextID, nodeID), vector)
}

// Invalidate drops any cached embedding for (contextID, nodeID), e.g.
// after a node's embeddable text changes and the stale vector would
// otherwise linger until TTL.
func (e *EmbeddingCache) Invalidate(contextID, nodeID string) {
	e.cache.Remove(e.key(contextID, nodeID))
}

// Stats reports hit/miss/size counters for the underlying LRU.
func (e *EmbeddingCache) Stats() CacheStats {
	return e.cache.Stats()
}

// key composes a (context_id, node_id) pair into QueryCache's uint64 key
// space by hashing contextID + ":" + nodeID. Ids may themselves contain
// ':' (e.g. "concept:travel"), so two pairs whose joined strings are
// equal (context "a:b" with node "c", context "a" with node "b:c") share
// a key.
func (e *EmbeddingCache) key(contextID, nodeID string) uint64 {
	return e.cache.Key(contextID+":"+nodeID, nil)
}
