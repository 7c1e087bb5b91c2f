package engine

import (
	"testing"

	"github.com/orneryd/plexusgraph/pkg/graph"
	"github.com/orneryd/plexusgraph/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertAndGetContextReturnsClone(t *testing.T) {
	e := New(nil)
	ctx := graph.NewContext("ctx-1")
	require.NoError(t, e.UpsertContext(ctx))

	snapshot, ok := e.GetContext("ctx-1")
	require.True(t, ok)
	assert.Equal(t, graph.ContextID("ctx-1"), snapshot.ID)

	// Mutating the in-memory engine state must not mutate snapshot.
	_, err := e.AddNode("ctx-1", graph.NewNode("doc", graph.ContentDocument))
	require.NoError(t, err)
	assert.Equal(t, 0, snapshot.NodeCount())
}

func TestGetContextMissingReturnsFalse(t *testing.T) {
	e := New(nil)
	_, ok := e.GetContext("missing")
	assert.False(t, ok)
}

func TestAddNodeAndEdgePersistsThroughStore(t *testing.T) {
	store := storage.NewMemoryEngine()
	e := New(store)
	require.NoError(t, e.UpsertContext(graph.NewContext("ctx-1")))

	n := graph.NewNode("concept", graph.ContentConcept)
	id, err := e.AddNode("ctx-1", n)
	require.NoError(t, err)

	loaded, ok, err := store.LoadNode("ctx-1", id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, loaded.ID)
}

func TestReinforceEdgePersists(t *testing.T) {
	store := storage.NewMemoryEngine()
	e := New(store)
	require.NoError(t, e.UpsertContext(graph.NewContext("ctx-1")))

	a, _ := e.AddNode("ctx-1", graph.NewNode("c", graph.ContentConcept))
	b, _ := e.AddNode("ctx-1", graph.NewNode("c", graph.ContentConcept))
	edge := graph.NewEdge(a, b, "related_to")
	edgeID, err := e.AddEdge("ctx-1", edge)
	require.NoError(t, err)

	require.NoError(t, e.ReinforceEdge("ctx-1", edgeID, graph.NewReinforcement(graph.ReinforcementUserValidation)))

	edges, err := store.EdgesFrom("ctx-1", a)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Greater(t, edges[0].Strength, float32(0))
}

func TestDecayEdgesAppliesToAll(t *testing.T) {
	e := New(nil)
	require.NoError(t, e.UpsertContext(graph.NewContext("ctx-1")))
	a, _ := e.AddNode("ctx-1", graph.NewNode("c", graph.ContentConcept))
	b, _ := e.AddNode("ctx-1", graph.NewNode("c", graph.ContentConcept))
	edge := graph.NewEdge(a, b, "related_to")
	edge.Strength = 0.5
	_, err := e.AddEdge("ctx-1", edge)
	require.NoError(t, err)

	require.NoError(t, e.DecayEdges("ctx-1", 0.5))

	snapshot, _ := e.GetContext("ctx-1")
	assert.InDelta(t, 0.25, snapshot.EdgeList[0].Strength, 1e-6)
}

func TestPruneWeakEdgesRemovesBelowThreshold(t *testing.T) {
	e := New(nil)
	require.NoError(t, e.UpsertContext(graph.NewContext("ctx-1")))
	a, _ := e.AddNode("ctx-1", graph.NewNode("c", graph.ContentConcept))
	b, _ := e.AddNode("ctx-1", graph.NewNode("c", graph.ContentConcept))

	weak := graph.NewEdge(a, b, "related_to")
	weak.Strength = 0.1
	strong := graph.NewEdge(a, b, "related_to")
	strong.Strength = 0.9
	_, _ = e.AddEdge("ctx-1", weak)
	_, _ = e.AddEdge("ctx-1", strong)

	removed, err := e.PruneWeakEdges("ctx-1", 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	snapshot, _ := e.GetContext("ctx-1")
	assert.Len(t, snapshot.EdgeList, 1)
}

func TestLoadAllIsIdempotent(t *testing.T) {
	store := storage.NewMemoryEngine()
	require.NoError(t, store.SaveContext(graph.NewContext("ctx-1")))

	e := New(store)
	n1, err := e.LoadAll()
	require.NoError(t, err)
	n2, err := e.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, 1, n1)
	assert.Equal(t, 1, n2)
}

func TestRemoveContextDeletesFromStoreThenMemory(t *testing.T) {
	store := storage.NewMemoryEngine()
	e := New(store)
	require.NoError(t, e.UpsertContext(graph.NewContext("ctx-1")))

	existed, err := e.RemoveContext("ctx-1")
	require.NoError(t, err)
	assert.True(t, existed)

	_, ok := e.GetContext("ctx-1")
	assert.False(t, ok)
	_, found, err := store.LoadContext("ctx-1")
	require.NoError(t, err)
	assert.False(t, found)
}
