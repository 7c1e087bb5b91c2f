// Package storage implements the persistent backend behind the graph
// engine: durable save/load/delete for contexts, nodes, and edges, plus
// bounded subgraph extraction. BadgerEngine is the production backend;
// MemoryEngine is a dependency-free in-memory implementation used by tests
// and by callers that don't configure persistence at all.
package storage

import (
	"errors"

	"github.com/orneryd/plexusgraph/pkg/graph"
)

// Sentinel errors returned by GraphStore implementations.
var (
	ErrNotFound      = errors.New("storage: not found")
	ErrAlreadyClosed = errors.New("storage: already closed")
)

// NodeFilter narrows FindNodes to nodes matching every non-zero field.
type NodeFilter struct {
	NodeType    string
	ContentType graph.ContentType
	Dimension   graph.Dimension
	Limit       int
}

// EdgeFilter narrows edge queries to edges matching every non-zero field.
type EdgeFilter struct {
	Relationship          string
	MinStrength            float32
	SourceDimension        graph.Dimension
	TargetDimension        graph.Dimension
	CrossDimensionalOnly   bool
	Limit                  int
}

// Subgraph is the result of a bounded traversal rooted at one or more
// seed nodes: every visited node, and every edge where both endpoints are
// in that node set (Invariant S4).
type Subgraph struct {
	Nodes []graph.Node
	Edges []graph.Edge
}

// GraphStore is the durable backend contract every graph engine mutation
// ultimately goes through. Implementations must be safe for concurrent use.
type GraphStore interface {
	SaveContext(ctx graph.Context) error
	LoadContext(id graph.ContextID) (graph.Context, bool, error)
	DeleteContext(id graph.ContextID) (bool, error)
	ListContexts() ([]graph.ContextID, error)

	SaveNode(contextID graph.ContextID, n graph.Node) error
	LoadNode(contextID graph.ContextID, id graph.NodeID) (graph.Node, bool, error)
	DeleteNode(contextID graph.ContextID, id graph.NodeID) (bool, error)
	FindNodes(contextID graph.ContextID, filter NodeFilter) ([]graph.Node, error)

	SaveEdge(contextID graph.ContextID, e graph.Edge) error
	EdgesFrom(contextID graph.ContextID, id graph.NodeID) ([]graph.Edge, error)
	EdgesTo(contextID graph.ContextID, id graph.NodeID) ([]graph.Edge, error)
	DeleteEdge(contextID graph.ContextID, edgeID string) (bool, error)

	LoadSubgraph(contextID graph.ContextID, seeds []graph.NodeID, maxDepth int) (Subgraph, error)

	Close() error
}
