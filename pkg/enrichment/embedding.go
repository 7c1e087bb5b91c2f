package enrichment

import (
	"context"
	"fmt"

	"github.com/orneryd/plexusgraph/pkg/adapter"
	"github.com/orneryd/plexusgraph/pkg/cache"
	"github.com/orneryd/plexusgraph/pkg/graph"
	"github.com/orneryd/plexusgraph/pkg/vectorstore"
)

// Embedder embeds a batch of texts into one vector per text. Production
// code wires in a real model; tests use a deterministic stub.
type Embedder interface {
	EmbedBatch(texts []string) ([][]float32, error)
}

// EmbeddingSimilarity reacts to NodesAdded events by embedding new nodes'
// "label" property, comparing the result against every vector already
// cached for the context, and emitting symmetric output-relationship edge
// pairs above a similarity threshold. Backed by pkg/vectorstore.Store for
// per-context KNN (Invariant V1 isolation applies here too).
type EmbeddingSimilarity struct {
	similarityThreshold float64
	outputRelationship  string
	dimensionFilter     graph.Dimension
	id                  string
	embedder            Embedder
	store               vectorstore.Store
	embedCache          *cache.EmbeddingCache
}

// WithEmbeddingCache layers a (context_id, node_id)-keyed cache in front
// of the embedder, per §5's concurrency model. Without it, a node
// revisited by a second enrichment round before its embedding has been
// committed to the vector store pays for a second embedding call; with
// it, the second round's Enrich call hits the cache instead.
func (e *EmbeddingSimilarity) WithEmbeddingCache(c *cache.EmbeddingCache) *EmbeddingSimilarity {
	e.embedCache = c
	return e
}

// NewEmbeddingSimilarity builds an embedding similarity enrichment over
// store. modelName is encoded into the enrichment id so differently
// configured instances coexist in a registry.
func NewEmbeddingSimilarity(modelName string, similarityThreshold float64, outputRelationship string, embedder Embedder, store vectorstore.Store) *EmbeddingSimilarity {
	return &EmbeddingSimilarity{
		similarityThreshold: similarityThreshold,
		outputRelationship:  outputRelationship,
		dimensionFilter:     graph.DimensionSemantic,
		id:                  fmt.Sprintf("embedding:%s", modelName),
		embedder:            embedder,
		store:               store,
	}
}

// WithDimensionFilter overrides the dimension new nodes must belong to
// (default: semantic).
func (e *EmbeddingSimilarity) WithDimensionFilter(dim graph.Dimension) *EmbeddingSimilarity {
	e.dimensionFilter = dim
	return e
}

func (e *EmbeddingSimilarity) ID() string { return e.id }

func (e *EmbeddingSimilarity) Enrich(events []adapter.GraphEvent, snapshot *graph.Context) (adapter.Emission, bool) {
	if !hasAnyEvent(events, adapter.EventNodesAdded) {
		return adapter.Emission{}, false
	}

	contextID := snapshot.ID

	var candidateIDs []graph.NodeID
	var candidateTexts []string
	for _, event := range events {
		if event.Kind != adapter.EventNodesAdded {
			continue
		}
		for _, nodeID := range event.NodeIDs {
			node, ok := snapshot.GetNode(nodeID)
			if !ok || node.Dimension != e.dimensionFilter {
				continue
			}
			if e.store.Has(contextID, nodeID) {
				continue
			}
			label, ok := node.Properties["label"]
			if !ok {
				continue
			}
			text, ok := label.String()
			if !ok {
				continue
			}
			candidateIDs = append(candidateIDs, nodeID)
			candidateTexts = append(candidateTexts, text)
		}
	}
	if len(candidateIDs) == 0 {
		return adapter.Emission{}, false
	}

	// Serve from the embedding cache where possible (§5: "embedding cache
	// keyed (context_id, node_id) with serialized writes"); only the
	// remainder goes to the embedder.
	nodeIDs := make([]graph.NodeID, 0, len(candidateIDs))
	vectors := make([][]float32, 0, len(candidateIDs))
	var toEmbedIDs []graph.NodeID
	var toEmbedTexts []string
	for i, nodeID := range candidateIDs {
		if e.embedCache != nil {
			if vec, ok := e.embedCache.Get(string(contextID), string(nodeID)); ok {
				nodeIDs = append(nodeIDs, nodeID)
				vectors = append(vectors, vec)
				continue
			}
		}
		toEmbedIDs = append(toEmbedIDs, nodeID)
		toEmbedTexts = append(toEmbedTexts, candidateTexts[i])
	}

	if len(toEmbedTexts) > 0 {
		embedded, err := e.embedder.EmbedBatch(toEmbedTexts)
		if err != nil || len(embedded) != len(toEmbedIDs) {
			return adapter.Emission{}, false
		}
		for i, nodeID := range toEmbedIDs {
			if e.embedCache != nil {
				e.embedCache.Put(string(contextID), string(nodeID), embedded[i])
			}
			nodeIDs = append(nodeIDs, nodeID)
			vectors = append(vectors, embedded[i])
		}
	}

	emission := adapter.NewEmission()

	for i, nodeID := range nodeIDs {
		vec := vectors[i]

		similar, err := e.store.FindSimilar(context.Background(), contextID, vec, e.similarityThreshold)
		if err == nil {
			for _, match := range similar {
				if match.NodeID == nodeID {
					continue
				}
				if !relationshipEdgeExists(snapshot, nodeID, match.NodeID, e.outputRelationship) {
					forward := graph.NewEdgeInDimension(nodeID, match.NodeID, e.outputRelationship, graph.DimensionSemantic)
					forward.RawWeight = float32(match.Similarity)
					emission = emission.WithEdge(forward)
				}
				if !relationshipEdgeExists(snapshot, match.NodeID, nodeID, e.outputRelationship) {
					reverse := graph.NewEdgeInDimension(match.NodeID, nodeID, e.outputRelationship, graph.DimensionSemantic)
					reverse.RawWeight = float32(match.Similarity)
					emission = emission.WithEdge(reverse)
				}
			}
		}

		// Store the new embedding after comparing, so a node never matches
		// itself and so later nodes in this same batch can match it.
		_ = e.store.Store(contextID, nodeID, vec)
	}

	if emission.IsEmpty() {
		return adapter.Emission{}, false
	}
	return emission, true
}
