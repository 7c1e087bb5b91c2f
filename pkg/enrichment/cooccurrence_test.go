package enrichment

import (
	"testing"

	"github.com/orneryd/plexusgraph/pkg/adapter"
	"github.com/orneryd/plexusgraph/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFragmentGraph mirrors what a fragment-extraction adapter commits:
// one "fragment" node per text, "tagged_with" edges to one concept node
// per tag.
func buildFragmentGraph(fragments map[string][]string) graph.Context {
	ctx := graph.NewContext("test")
	for fragmentID, tags := range fragments {
		fragment := graph.NewNodeInDimension("fragment", graph.ContentDocument, graph.DimensionStructure)
		fragment.ID = graph.NodeID(fragmentID)
		ctx.AddNode(fragment)

		for _, tag := range tags {
			concept := conceptNode(tag)
			ctx.AddNode(concept)
			edge := graph.NewEdge(fragment.ID, concept.ID, "tagged_with")
			ctx.AddEdge(edge)
		}
	}
	return ctx
}

func TestCoOccurrenceDetectsSharedFragment(t *testing.T) {
	ctx := buildFragmentGraph(map[string][]string{"F1": {"travel", "avignon"}})

	enrichment := NewCoOccurrence()
	emission, ok := enrichment.Enrich([]adapter.GraphEvent{edgesAddedEvent()}, &ctx)
	require.True(t, ok)
	require.Len(t, emission.Edges, 2, "symmetric pair")

	travel := graph.NodeID("concept:travel")
	avignon := graph.NodeID("concept:avignon")

	var hasTA, hasAT bool
	for _, ae := range emission.Edges {
		if ae.Edge.Source == travel && ae.Edge.Target == avignon && ae.Edge.Relationship == "may_be_related" {
			hasTA = true
		}
		if ae.Edge.Source == avignon && ae.Edge.Target == travel && ae.Edge.Relationship == "may_be_related" {
			hasAT = true
		}
	}
	assert.True(t, hasTA, "travel->avignon")
	assert.True(t, hasAT, "avignon->travel")
}

func TestCoOccurrenceSymmetricPairsHaveEqualScores(t *testing.T) {
	ctx := buildFragmentGraph(map[string][]string{"F1": {"travel", "avignon"}})

	enrichment := NewCoOccurrence()
	emission, ok := enrichment.Enrich([]adapter.GraphEvent{edgesAddedEvent()}, &ctx)
	require.True(t, ok)
	require.Len(t, emission.Edges, 2)
	assert.Equal(t, emission.Edges[0].Edge.RawWeight, emission.Edges[1].Edge.RawWeight)
}

func TestCoOccurrenceNormalizedScores(t *testing.T) {
	ctx := graph.NewContext("test")
	f1 := graph.NewNodeInDimension("fragment", graph.ContentDocument, graph.DimensionStructure)
	f1.ID = "F1"
	ctx.AddNode(f1)
	f2 := graph.NewNodeInDimension("fragment", graph.ContentDocument, graph.DimensionStructure)
	f2.ID = "F2"
	ctx.AddNode(f2)

	travel := conceptNode("travel")
	avignon := conceptNode("avignon")
	paris := conceptNode("paris")
	ctx.AddNode(travel)
	ctx.AddNode(avignon)
	ctx.AddNode(paris)

	ctx.AddEdge(graph.NewEdge(f1.ID, travel.ID, "tagged_with"))
	ctx.AddEdge(graph.NewEdge(f1.ID, avignon.ID, "tagged_with"))
	ctx.AddEdge(graph.NewEdge(f2.ID, travel.ID, "tagged_with"))
	ctx.AddEdge(graph.NewEdge(f2.ID, avignon.ID, "tagged_with"))
	ctx.AddEdge(graph.NewEdge(f2.ID, paris.ID, "tagged_with"))

	enrichment := NewCoOccurrence()
	emission, ok := enrichment.Enrich([]adapter.GraphEvent{edgesAddedEvent()}, &ctx)
	require.True(t, ok)

	var taWeight, tpWeight float32
	for _, ae := range emission.Edges {
		if ae.Edge.Source == travel.ID && ae.Edge.Target == avignon.ID {
			taWeight = ae.Edge.RawWeight
		}
		if ae.Edge.Source == travel.ID && ae.Edge.Target == paris.ID {
			tpWeight = ae.Edge.RawWeight
		}
	}
	assert.Equal(t, float32(1.0), taWeight, "travel<->avignon: 2 shared / 2 max")
	assert.Equal(t, float32(0.5), tpWeight, "travel<->paris: 1 shared / 2 max")
}

func TestCoOccurrenceNoSharedFragmentsReturnsNotOK(t *testing.T) {
	ctx := buildFragmentGraph(map[string][]string{"F1": {"travel"}, "F2": {"morning"}})

	enrichment := NewCoOccurrence()
	_, ok := enrichment.Enrich([]adapter.GraphEvent{edgesAddedEvent()}, &ctx)
	assert.False(t, ok)
}

func TestCoOccurrenceIdempotentSkipsExistingEdges(t *testing.T) {
	ctx := buildFragmentGraph(map[string][]string{"F1": {"travel", "avignon"}})
	travel := graph.NodeID("concept:travel")
	avignon := graph.NodeID("concept:avignon")

	edgeTA := graph.NewEdgeInDimension(travel, avignon, "may_be_related", graph.DimensionSemantic)
	edgeTA.RawWeight = 1.0
	ctx.AddEdge(edgeTA)
	edgeAT := graph.NewEdgeInDimension(avignon, travel, "may_be_related", graph.DimensionSemantic)
	edgeAT.RawWeight = 1.0
	ctx.AddEdge(edgeAT)

	enrichment := NewCoOccurrence()
	_, ok := enrichment.Enrich([]adapter.GraphEvent{edgesAddedEvent()}, &ctx)
	assert.False(t, ok)
}

func TestCoOccurrenceQuiescentOnNonStructuralEvents(t *testing.T) {
	ctx := buildFragmentGraph(map[string][]string{"F1": {"travel", "avignon"}})

	enrichment := NewCoOccurrence()
	events := []adapter.GraphEvent{{Kind: adapter.EventNodesRemoved, NodeIDs: []graph.NodeID{"some-node"}}}
	_, ok := enrichment.Enrich(events, &ctx)
	assert.False(t, ok)
}

func TestCoOccurrenceEmptyGraphReturnsNotOK(t *testing.T) {
	ctx := graph.NewContext("test")
	enrichment := NewCoOccurrence()
	_, ok := enrichment.Enrich([]adapter.GraphEvent{nodesAddedEvent("n1")}, &ctx)
	assert.False(t, ok)
}
