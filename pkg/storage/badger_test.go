package storage

import (
	"testing"

	"github.com/orneryd/plexusgraph/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBadger(t *testing.T) *BadgerEngine {
	t.Helper()
	eng, err := OpenBadgerInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

// Invariant S1 — round-trip fidelity, including PropertyValue's int/float
// distinction and the Reinforcement wire rename.
func TestBadgerRoundTrip(t *testing.T) {
	eng := newTestBadger(t)

	ctx := graph.NewContext("ctx-1")
	require.NoError(t, eng.SaveContext(ctx))

	n := graph.NewNodeInDimension("concept", graph.ContentConcept, graph.DimensionSemantic).
		WithProperty("count", graph.IntValue(7)).
		WithProperty("score", graph.FloatValue(0.5))
	require.NoError(t, eng.SaveNode(ctx.ID, n))

	loaded, ok, err := eng.LoadNode(ctx.ID, n.ID)
	require.NoError(t, err)
	require.True(t, ok)
	count, _ := loaded.Properties["count"].Int()
	assert.Equal(t, int64(7), count)
	score, _ := loaded.Properties["score"].Float()
	assert.Equal(t, 0.5, score)

	e := graph.NewEdge(n.ID, n.ID, "self")
	e.Reinforce(graph.NewReinforcement(graph.ReinforcementUserValidation))
	require.NoError(t, eng.SaveEdge(ctx.ID, e))

	edges, err := eng.EdgesFrom(ctx.ID, n.ID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, graph.ReinforcementUserValidation, edges[0].Reinforcements[0].Kind)
	assert.InDelta(t, float32(0.1), edges[0].Strength, 1e-6)
}

// Invariant S2 — deleting a context removes its nodes and edges.
func TestBadgerDeleteContextCascades(t *testing.T) {
	eng := newTestBadger(t)
	ctx := graph.NewContext("ctx-1")
	require.NoError(t, eng.SaveContext(ctx))

	n := graph.NewNode("doc", graph.ContentDocument)
	require.NoError(t, eng.SaveNode(ctx.ID, n))

	existed, err := eng.DeleteContext(ctx.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	_, ok, err := eng.LoadNode(ctx.ID, n.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = eng.LoadContext(ctx.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Invariant S3 — deleting a node cascades to every edge touching it.
func TestBadgerDeleteNodeCascadesEdges(t *testing.T) {
	eng := newTestBadger(t)
	ctx := graph.NewContext("ctx-1")
	require.NoError(t, eng.SaveContext(ctx))

	a := graph.NewNode("concept", graph.ContentConcept)
	b := graph.NewNode("concept", graph.ContentConcept)
	require.NoError(t, eng.SaveNode(ctx.ID, a))
	require.NoError(t, eng.SaveNode(ctx.ID, b))

	e := graph.NewEdge(a.ID, b.ID, "relates_to")
	require.NoError(t, eng.SaveEdge(ctx.ID, e))

	existed, err := eng.DeleteNode(ctx.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	outgoing, err := eng.EdgesFrom(ctx.ID, a.ID)
	require.NoError(t, err)
	assert.Empty(t, outgoing)

	incoming, err := eng.EdgesTo(ctx.ID, b.ID)
	require.NoError(t, err)
	assert.Empty(t, incoming)
}

func TestBadgerDeleteNonexistentNodeIsNoOp(t *testing.T) {
	eng := newTestBadger(t)
	ctx := graph.NewContext("ctx-1")
	require.NoError(t, eng.SaveContext(ctx))

	existed, err := eng.DeleteNode(ctx.ID, "missing")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestBadgerFindNodesFiltersByDimension(t *testing.T) {
	eng := newTestBadger(t)
	ctx := graph.NewContext("ctx-1")
	require.NoError(t, eng.SaveContext(ctx))

	sem := graph.NewNodeInDimension("concept", graph.ContentConcept, graph.DimensionSemantic)
	temp := graph.NewNodeInDimension("event", graph.ContentDocument, graph.DimensionTemporal)
	require.NoError(t, eng.SaveNode(ctx.ID, sem))
	require.NoError(t, eng.SaveNode(ctx.ID, temp))

	found, err := eng.FindNodes(ctx.ID, NodeFilter{Dimension: graph.DimensionSemantic})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, sem.ID, found[0].ID)
}

// Invariant S4 — subgraph edges are included only when both endpoints are
// in the visited node set.
func TestBadgerLoadSubgraphRespectsDepthAndEndpoints(t *testing.T) {
	eng := newTestBadger(t)
	ctx := graph.NewContext("ctx-1")
	require.NoError(t, eng.SaveContext(ctx))

	a := graph.NewNode("n", graph.ContentConcept)
	b := graph.NewNode("n", graph.ContentConcept)
	c := graph.NewNode("n", graph.ContentConcept)
	for _, n := range []graph.Node{a, b, c} {
		require.NoError(t, eng.SaveNode(ctx.ID, n))
	}
	require.NoError(t, eng.SaveEdge(ctx.ID, graph.NewEdge(a.ID, b.ID, "rel")))
	require.NoError(t, eng.SaveEdge(ctx.ID, graph.NewEdge(b.ID, c.ID, "rel")))

	sub, err := eng.LoadSubgraph(ctx.ID, []graph.NodeID{a.ID}, 1)
	require.NoError(t, err)
	assert.Len(t, sub.Nodes, 2) // a, b only at depth 1
	assert.Len(t, sub.Edges, 1) // a->b only; b->c excluded, c not visited
}

func TestBadgerListContexts(t *testing.T) {
	eng := newTestBadger(t)
	require.NoError(t, eng.SaveContext(graph.NewContext("ctx-1")))
	require.NoError(t, eng.SaveContext(graph.NewContext("ctx-2")))

	ids, err := eng.ListContexts()
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestBadgerDeleteEdge(t *testing.T) {
	eng := newTestBadger(t)
	ctx := graph.NewContext("ctx-1")
	require.NoError(t, eng.SaveContext(ctx))

	a := graph.NewNode("n", graph.ContentConcept)
	b := graph.NewNode("n", graph.ContentConcept)
	require.NoError(t, eng.SaveNode(ctx.ID, a))
	require.NoError(t, eng.SaveNode(ctx.ID, b))

	e := graph.NewEdge(a.ID, b.ID, "rel")
	require.NoError(t, eng.SaveEdge(ctx.ID, e))

	existed, err := eng.DeleteEdge(ctx.ID, string(e.ID))
	require.NoError(t, err)
	assert.True(t, existed)

	edges, err := eng.EdgesFrom(ctx.ID, a.ID)
	require.NoError(t, err)
	assert.Empty(t, edges)
}
