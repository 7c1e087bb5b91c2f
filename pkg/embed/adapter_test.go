package embed

import (
	"context"
	"testing"

	"github.com/orneryd/plexusgraph/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	dims int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, s.dims)
		if len(t) > 0 {
			v[0] = float32(len(t))
		}
		out[i] = v
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int { return s.dims }
func (s *stubEmbedder) Model() string   { return "stub" }

func TestBatchEmbedderDropsContextParameter(t *testing.T) {
	adapter := NewBatchEmbedder(&stubEmbedder{dims: 4})

	vecs, err := adapter.EmbedBatch([]string{"travel", "a"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, float32(6), vecs[0][0])
	assert.Equal(t, float32(1), vecs[1][0])
}

func TestExtractLabelPrefersLabelProperty(t *testing.T) {
	n := graph.NewNode("concept", graph.ContentConcept)
	n = n.WithProperty("label", graph.StringValue("travel"))
	assert.Equal(t, "travel", ExtractLabel(n))
}

func TestExtractLabelFallsBackToNodeType(t *testing.T) {
	n := graph.NewNode("concept", graph.ContentConcept)
	assert.Equal(t, "concept", ExtractLabel(n))
}

func TestExtractLabelFallsBackOnBlankLabel(t *testing.T) {
	n := graph.NewNode("concept", graph.ContentConcept)
	n = n.WithProperty("label", graph.StringValue("   "))
	assert.Equal(t, "concept", ExtractLabel(n))
}

func TestExtractLabelFallsBackToEmbeddableTextWithoutLabel(t *testing.T) {
	n := graph.NewNode("document", graph.ContentDocument)
	n = n.WithProperty("title", graph.StringValue("Introduction to graphs"))
	n = n.WithProperty("content", graph.StringValue("Nodes and edges."))
	assert.Equal(t, "Nodes and edges. Introduction to graphs", ExtractLabel(n))
}
