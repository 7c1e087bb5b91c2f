// Package vectorstore implements the per-context KNN trait (§4.11): store
// L2-normalized embeddings keyed by node id and find the nodes whose
// embedding is most similar to a query vector. Exact brute-force search,
// adapted from the single-namespace VectorIndex the search package used for
// document embeddings — here scoped to a dimension per context (Invariant
// V1) and reporting cosine similarity from squared L2 distance on
// normalized vectors (Invariant V2) instead of from a raw dot product.
package vectorstore

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/orneryd/plexusgraph/pkg/graph"
	"github.com/orneryd/plexusgraph/pkg/math/vector"
)

var ErrDimensionMismatch = errors.New("vectorstore: dimension mismatch")

// Match pairs a node id with its cosine similarity to the query vector.
type Match struct {
	NodeID     graph.NodeID
	Similarity float64
}

// Store is the vector store trait: per-context storage and KNN search over
// L2-normalized embeddings.
type Store interface {
	// Store L2-normalizes vec and persists it under (contextID, nodeID),
	// replacing any prior vector for that node.
	Store(contextID graph.ContextID, nodeID graph.NodeID, vec []float32) error

	Has(contextID graph.ContextID, nodeID graph.NodeID) bool

	// FindSimilar returns every node in contextID whose cosine similarity
	// to query is >= threshold, sorted by similarity descending.
	FindSimilar(ctx context.Context, contextID graph.ContextID, query []float32, threshold float64) ([]Match, error)

	Remove(contextID graph.ContextID, nodeID graph.NodeID)
}

// namespace is one context's isolated vector space (Invariant V1).
type namespace struct {
	mu      sync.RWMutex
	vectors map[graph.NodeID][]float32
}

// MemoryStore is an in-memory, brute-force Store: one namespace per
// context, safe for concurrent use.
type MemoryStore struct {
	dimensions int

	mu         sync.RWMutex
	namespaces map[graph.ContextID]*namespace
}

// NewMemoryStore builds a store whose vectors must all have the given
// dimensionality.
func NewMemoryStore(dimensions int) *MemoryStore {
	return &MemoryStore{dimensions: dimensions, namespaces: make(map[graph.ContextID]*namespace)}
}

func (s *MemoryStore) namespaceFor(contextID graph.ContextID) *namespace {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.namespaces[contextID]
	if !ok {
		ns = &namespace{vectors: make(map[graph.NodeID][]float32)}
		s.namespaces[contextID] = ns
	}
	return ns
}

func (s *MemoryStore) Store(contextID graph.ContextID, nodeID graph.NodeID, vec []float32) error {
	if len(vec) != s.dimensions {
		return ErrDimensionMismatch
	}
	ns := s.namespaceFor(contextID)
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.vectors[nodeID] = vector.Normalize(vec)
	return nil
}

func (s *MemoryStore) Has(contextID graph.ContextID, nodeID graph.NodeID) bool {
	s.mu.RLock()
	ns, ok := s.namespaces[contextID]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	_, ok = ns.vectors[nodeID]
	return ok
}

func (s *MemoryStore) Remove(contextID graph.ContextID, nodeID graph.NodeID) {
	s.mu.RLock()
	ns, ok := s.namespaces[contextID]
	s.mu.RUnlock()
	if !ok {
		return
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()
	delete(ns.vectors, nodeID)
}

// FindSimilar computes cosine similarity from squared L2 distance between
// normalized vectors (Invariant V2: cos_sim = 1 - d²/2), scoped to
// contextID's namespace alone (Invariant V1).
func (s *MemoryStore) FindSimilar(ctx context.Context, contextID graph.ContextID, query []float32, threshold float64) ([]Match, error) {
	if len(query) != s.dimensions {
		return nil, ErrDimensionMismatch
	}

	s.mu.RLock()
	ns, ok := s.namespaces[contextID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	normalizedQuery := vector.Normalize(query)

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	var matches []Match
	for id, vec := range ns.vectors {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		sim := cosineFromSquaredL2(normalizedQuery, vec)
		if sim >= threshold {
			matches = append(matches, Match{NodeID: id, Similarity: sim})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	return matches, nil
}

// cosineFromSquaredL2 applies Invariant V2 directly: for unit vectors a, b,
// ||a-b||² = 2 - 2·cos_sim, so cos_sim = 1 - ||a-b||²/2.
func cosineFromSquaredL2(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sumSq float64
	for i := range a {
		d := float64(a[i] - b[i])
		sumSq += d * d
	}
	return 1 - sumSq/2
}
