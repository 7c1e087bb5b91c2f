package adapter

import (
	"sync"
	"testing"
	"time"

	"github.com/orneryd/plexusgraph/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSink() (*EngineSink, *sync.Mutex, *graph.Context) {
	ctx := graph.NewContext("test")
	mu := &sync.Mutex{}
	return NewEngineSink(mu, &ctx), mu, &ctx
}

func testNode(id string) graph.Node {
	n := graph.NewNode("concept", graph.ContentConcept)
	n.ID = graph.NodeID(id)
	return n
}

func testEdge(source, target string) graph.Edge {
	return graph.NewEdge(graph.NodeID(source), graph.NodeID(target), "related_to")
}

func TestEmitValidEmissionCommitsAll(t *testing.T) {
	sink, _, ctx := makeSink()

	result, err := sink.Emit(NewEmission().
		WithNode(testNode("A")).
		WithNode(testNode("B")).
		WithEdge(testEdge("A", "B")))

	require.Nil(t, err)
	assert.Equal(t, 2, result.NodesCommitted)
	assert.Equal(t, 1, result.EdgesCommitted)
	assert.True(t, result.IsFullyCommitted())

	_, ok := ctx.GetNode("A")
	assert.True(t, ok)
	_, ok = ctx.GetNode("B")
	assert.True(t, ok)
	assert.Equal(t, 1, ctx.EdgeCount())
}

func TestEmitEdgeMissingEndpointRejectedValidItemsCommit(t *testing.T) {
	sink, _, _ := makeSink()
	sink.ctx.AddNode(testNode("A"))

	result, err := sink.Emit(NewEmission().
		WithNode(testNode("B")).
		WithEdge(testEdge("A", "B")).
		WithEdge(testEdge("B", "C"))) // C doesn't exist

	require.Nil(t, err)
	assert.Equal(t, 1, result.NodesCommitted)
	assert.Equal(t, 1, result.EdgesCommitted)
	require.Len(t, result.Rejections, 1)
	assert.True(t, result.Rejections[0].Reason.Equal(MissingEndpoint("C")))
}

func TestEmitEdgeEndpointsFromSameEmission(t *testing.T) {
	sink, _, ctx := makeSink()

	result, err := sink.Emit(NewEmission().
		WithNode(testNode("X")).
		WithNode(testNode("Y")).
		WithEdge(testEdge("X", "Y")))

	require.Nil(t, err)
	assert.True(t, result.IsFullyCommitted())
	assert.Equal(t, 1, ctx.EdgeCount())
}

func TestEmitEdgeEndpointFromPriorEmission(t *testing.T) {
	sink, _, _ := makeSink()
	_, err := sink.Emit(NewEmission().WithNode(testNode("A")))
	require.Nil(t, err)

	result, err := sink.Emit(NewEmission().
		WithNode(testNode("B")).
		WithEdge(testEdge("A", "B")))
	require.Nil(t, err)
	assert.True(t, result.IsFullyCommitted())
}

func TestEmitDuplicateNodeIDUpserts(t *testing.T) {
	sink, _, ctx := makeSink()

	a1 := testNode("A").WithProperty("name", graph.StringValue("alpha"))
	_, err := sink.Emit(NewEmission().WithNode(a1))
	require.Nil(t, err)

	a2 := testNode("A").WithProperty("name", graph.StringValue("alpha-updated"))
	_, err = sink.Emit(NewEmission().WithNode(a2))
	require.Nil(t, err)

	updated, ok := ctx.GetNode("A")
	require.True(t, ok)
	name, _ := updated.Properties["name"].String()
	assert.Equal(t, "alpha-updated", name)
	assert.Equal(t, 1, ctx.NodeCount())
}

func TestEmitRemovalOfNonexistentNodeIsNoop(t *testing.T) {
	sink, _, ctx := makeSink()

	result, err := sink.Emit(NewEmission().WithRemoval("Z"))
	require.Nil(t, err)
	assert.Equal(t, 0, result.RemovalsCommitted)
	assert.Empty(t, result.Rejections)
	assert.Equal(t, 0, ctx.NodeCount())
}

func TestEmitEmptyEmissionIsNoop(t *testing.T) {
	sink, _, _ := makeSink()

	result, err := sink.Emit(NewEmission())
	require.Nil(t, err)
	assert.True(t, result.IsNoop())
}

func TestEmitSelfReferencingEdgeAllowed(t *testing.T) {
	sink, _, ctx := makeSink()

	result, err := sink.Emit(NewEmission().
		WithNode(testNode("A")).
		WithEdge(testEdge("A", "A")))

	require.Nil(t, err)
	assert.True(t, result.IsFullyCommitted())
	require.Equal(t, 1, ctx.EdgeCount())
	assert.Equal(t, ctx.EdgeList[0].Source, ctx.EdgeList[0].Target)
}

func TestEmitBadEdgeRejectedValidItemsCommit(t *testing.T) {
	sink, _, ctx := makeSink()

	result, err := sink.Emit(NewEmission().
		WithNode(testNode("A")).
		WithNode(testNode("B")).
		WithEdge(testEdge("A", "B")).
		WithEdge(testEdge("A", "Z")))

	require.Nil(t, err)
	assert.Equal(t, 2, result.NodesCommitted)
	assert.Equal(t, 1, result.EdgesCommitted)
	require.Len(t, result.Rejections, 1)
	assert.Equal(t, 1, ctx.EdgeCount())
}

func TestEmitNodeRemovalCascadesEdges(t *testing.T) {
	sink, _, ctx := makeSink()

	_, err := sink.Emit(NewEmission().
		WithNode(testNode("A")).
		WithNode(testNode("B")).
		WithEdge(testEdge("A", "B")))
	require.Nil(t, err)

	result, err := sink.Emit(NewEmission().WithRemoval("A"))
	require.Nil(t, err)
	assert.Equal(t, 1, result.RemovalsCommitted)

	_, ok := ctx.GetNode("A")
	assert.False(t, ok)
	assert.Equal(t, 0, ctx.EdgeCount())
}

func TestEmitAllEdgesRejectedNodesCommit(t *testing.T) {
	sink, _, ctx := makeSink()

	result, err := sink.Emit(NewEmission().
		WithNode(testNode("A")).
		WithEdge(testEdge("A", "Z")))

	require.Nil(t, err)
	assert.Equal(t, 1, result.NodesCommitted)
	assert.Equal(t, 0, result.EdgesCommitted)
	require.Len(t, result.Rejections, 1)
	assert.Equal(t, 0, ctx.EdgeCount())
}

func TestEmitEdgeRawWeightPreserved(t *testing.T) {
	sink, _, ctx := makeSink()

	e := testEdge("A", "B")
	e.RawWeight = 0.42

	_, err := sink.Emit(NewEmission().
		WithNode(testNode("A")).
		WithNode(testNode("B")).
		WithEdge(e))
	require.Nil(t, err)
	assert.Equal(t, float32(0.42), ctx.EdgeList[0].RawWeight)
}

func TestEmitPropertyUpdateMergesIntoExistingNode(t *testing.T) {
	sink, _, ctx := makeSink()

	_, err := sink.Emit(NewEmission().WithNode(
		testNode("A").WithProperty("a", graph.StringValue("1")),
	))
	require.Nil(t, err)

	props := graph.Properties{"b": graph.StringValue("2")}
	result, err := sink.Emit(NewEmission().WithPropertyUpdate("A", props))
	require.Nil(t, err)
	assert.Equal(t, 1, result.PropertiesCommitted)

	updated, _ := ctx.GetNode("A")
	a, _ := updated.Properties["a"].String()
	b, _ := updated.Properties["b"].String()
	assert.Equal(t, "1", a)
	assert.Equal(t, "2", b)
}

func TestEmitPropertyUpdateAgainstNodeSlatedForRemovalStillApplies(t *testing.T) {
	sink, _, _ := makeSink()

	_, err := sink.Emit(NewEmission().WithNode(testNode("A")))
	require.Nil(t, err)

	props := graph.Properties{"archived": graph.BoolValue(true)}
	result, err := sink.Emit(NewEmission().
		WithPropertyUpdate("A", props).
		WithRemoval("A"))

	require.Nil(t, err)
	assert.Equal(t, 1, result.PropertiesCommitted)
	assert.Equal(t, 1, result.RemovalsCommitted)
}

// === Provenance construction ===

func makeSinkWithProvenance() (*EngineSink, *graph.Context) {
	ctx := graph.NewContext("test")
	mu := &sync.Mutex{}
	sink := NewEngineSink(mu, &ctx).WithFrameworkContext(FrameworkContext{
		AdapterID:    "document-adapter",
		ContextID:    "manza-session-1",
		InputSummary: "file.md",
	})
	return sink, &ctx
}

func TestEmitAnnotatedNodeReceivesFullProvenance(t *testing.T) {
	sink, _ := makeSinkWithProvenance()

	annotation := NewAnnotation().
		WithConfidence(0.85).
		WithMethod("llm-extraction").
		WithSourceLocation("file.md:87")

	annotated := NewAnnotatedNode(testNode("A")).WithAnnotation(annotation)

	result, err := sink.Emit(NewEmission().WithAnnotatedNode(annotated))
	require.Nil(t, err)
	require.Len(t, result.Provenance, 1)

	entry := result.Provenance[0]
	assert.Equal(t, graph.NodeID("A"), entry.NodeID)
	assert.Equal(t, "document-adapter", entry.Entry.AdapterID)
	assert.Equal(t, "manza-session-1", entry.Entry.ContextID)
	assert.Equal(t, "file.md", entry.Entry.InputSummary)

	require.NotNil(t, entry.Entry.Annotation)
	assert.Equal(t, 0.85, *entry.Entry.Annotation.Confidence)
	assert.Equal(t, "llm-extraction", entry.Entry.Annotation.Method)
	assert.Equal(t, "file.md:87", entry.Entry.Annotation.SourceLocation)
}

func TestEmitNodeWithoutAnnotationGetsStructuralProvenance(t *testing.T) {
	sink, _ := makeSinkWithProvenance()

	result, err := sink.Emit(NewEmission().WithNode(testNode("B")))
	require.Nil(t, err)
	require.Len(t, result.Provenance, 1)

	entry := result.Provenance[0]
	assert.Equal(t, graph.NodeID("B"), entry.NodeID)
	assert.Nil(t, entry.Entry.Annotation)
}

func TestEmitEachEmissionGetsOwnTimestamp(t *testing.T) {
	sink, _ := makeSinkWithProvenance()

	prev := clock
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(2 * time.Millisecond)
	calls := 0
	clock = func() time.Time {
		calls++
		if calls == 1 {
			return t1
		}
		return t2
	}
	defer func() { clock = prev }()

	r1, err := sink.Emit(NewEmission().WithNode(testNode("A")))
	require.Nil(t, err)
	r2, err := sink.Emit(NewEmission().WithNode(testNode("B")))
	require.Nil(t, err)

	assert.True(t, r2.Provenance[0].Entry.Timestamp.After(r1.Provenance[0].Entry.Timestamp) ||
		r2.Provenance[0].Entry.Timestamp.Equal(r1.Provenance[0].Entry.Timestamp))
}

func TestEmitMultipleNodesShareFrameworkContext(t *testing.T) {
	sink, _ := makeSinkWithProvenance()

	a := NewAnnotatedNode(testNode("A")).WithAnnotation(NewAnnotation().WithConfidence(0.9))
	b := NewAnnotatedNode(testNode("B")).WithAnnotation(NewAnnotation().WithConfidence(0.6))

	result, err := sink.Emit(NewEmission().WithAnnotatedNode(a).WithAnnotatedNode(b))
	require.Nil(t, err)
	require.Len(t, result.Provenance, 2)

	e1, e2 := result.Provenance[0].Entry, result.Provenance[1].Entry
	assert.Equal(t, e1.AdapterID, e2.AdapterID)
	assert.Equal(t, e1.ContextID, e2.ContextID)
	assert.Equal(t, e1.Timestamp, e2.Timestamp)
	assert.Equal(t, 0.9, *e1.Annotation.Confidence)
	assert.Equal(t, 0.6, *e2.Annotation.Confidence)
}

func TestEmitNoProvenanceWithoutFrameworkContext(t *testing.T) {
	sink, _, _ := makeSink()

	result, err := sink.Emit(NewEmission().WithNode(testNode("A")))
	require.Nil(t, err)
	assert.Empty(t, result.Provenance)
}

// === Graph events ===

func TestEmitNodesAddedEventFires(t *testing.T) {
	sink, _, _ := makeSink()

	result, err := sink.Emit(NewEmission().WithNode(testNode("A")).WithNode(testNode("B")))
	require.Nil(t, err)

	var found *GraphEvent
	for i := range result.Events {
		if result.Events[i].Kind == EventNodesAdded {
			found = &result.Events[i]
		}
	}
	require.NotNil(t, found)
	assert.ElementsMatch(t, []graph.NodeID{"A", "B"}, found.NodeIDs)
}

func TestEmitEdgesAddedEventFires(t *testing.T) {
	sink, _, _ := makeSink()
	sink.ctx.AddNode(testNode("A"))
	sink.ctx.AddNode(testNode("B"))

	result, err := sink.Emit(NewEmission().WithEdge(testEdge("A", "B")))
	require.Nil(t, err)

	var found *GraphEvent
	for i := range result.Events {
		if result.Events[i].Kind == EventEdgesAdded {
			found = &result.Events[i]
		}
	}
	require.NotNil(t, found)
	assert.Len(t, found.EdgeIDs, 1)
}

func TestEmitNodesRemovedAndCascadeEventsFire(t *testing.T) {
	sink, _, _ := makeSink()
	_, err := sink.Emit(NewEmission().
		WithNode(testNode("A")).
		WithNode(testNode("B")).
		WithEdge(testEdge("A", "B")))
	require.Nil(t, err)

	result, err := sink.Emit(NewEmission().WithRemoval("A"))
	require.Nil(t, err)

	var removed, cascaded *GraphEvent
	for i := range result.Events {
		switch result.Events[i].Kind {
		case EventNodesRemoved:
			removed = &result.Events[i]
		case EventEdgesRemoved:
			cascaded = &result.Events[i]
		}
	}
	require.NotNil(t, removed)
	require.NotNil(t, cascaded)
	assert.Equal(t, RemovalCascade, cascaded.Reason)
}

func TestEmitPropertiesUpdatedEventFires(t *testing.T) {
	sink, _, _ := makeSink()
	_, err := sink.Emit(NewEmission().WithNode(testNode("A")))
	require.Nil(t, err)

	result, err := sink.Emit(NewEmission().WithPropertyUpdate("A", graph.Properties{
		"k": graph.StringValue("v"),
	}))
	require.Nil(t, err)

	var found *GraphEvent
	for i := range result.Events {
		if result.Events[i].Kind == EventPropertiesUpdated {
			found = &result.Events[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, []graph.NodeID{"A"}, found.NodeIDs)
}

func TestEmitEventsAccumulateAcrossCallsOnSameSink(t *testing.T) {
	sink, _, _ := makeSink()

	_, err := sink.Emit(NewEmission().WithNode(testNode("A")))
	require.Nil(t, err)
	_, err = sink.Emit(NewEmission().WithNode(testNode("B")))
	require.Nil(t, err)

	assert.Len(t, sink.Events(), 2)
}
