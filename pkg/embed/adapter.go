package embed

import (
	"context"
	"strings"

	"github.com/orneryd/plexusgraph/pkg/graph"
)

// BatchEmbedder adapts an Embedder to the narrower signature
// enrichment.EmbeddingSimilarity expects: EmbedBatch(texts []string)
// ([][]float32, error), with no context parameter. The enrichment
// registry runs inside the engine's own mutation path rather than
// against a caller-supplied context.Context, so this adapter supplies
// context.Background() for every call.
type BatchEmbedder struct {
	base Embedder
}

// NewBatchEmbedder wraps base so it satisfies the enrichment package's
// Embedder interface. Wrap a CachedEmbedder here, not a bare
// OllamaEmbedder/OpenAIEmbedder, to avoid re-embedding the same label
// on every enrichment round.
func NewBatchEmbedder(base Embedder) *BatchEmbedder {
	return &BatchEmbedder{base: base}
}

func (b *BatchEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	return b.base.EmbedBatch(context.Background(), texts)
}

// ExtractLabel pulls the "label" property off a node, falling back to
// ExtractEmbeddableText over its other properties and finally to its
// node type, for feeding into an Embedder. EmbeddingSimilarity embeds
// whatever this returns, so a node with nothing textual at all embeds
// by its node type rather than failing.
func ExtractLabel(n graph.Node) string {
	if v, ok := n.Properties["label"]; ok {
		if s, ok := v.String(); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	if text := ExtractEmbeddableText(propertiesToAny(n.Properties)); text != "" {
		return text
	}
	return n.NodeType
}

// propertiesToAny flattens a graph.Properties map down to the
// map[string]any shape ExtractEmbeddableText expects, keeping only the
// string-valued properties it would ever look at.
func propertiesToAny(props graph.Properties) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if s, ok := v.String(); ok {
			out[k] = s
		}
	}
	return out
}
