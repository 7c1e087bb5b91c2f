// Package graph defines the core property-graph data model shared by every
// other package in the module: identifiers, property values, nodes, edges,
// and the per-context container that owns them.
//
// Ids are plain strings rather than a dedicated id type with parsing rules.
// NewNode and NewEdge default to a random UUID, but callers are free to
// assign domain-meaningful ids instead — "concept:travel",
// "chain:manual-fragment:journal" — and the declarative adapter does
// exactly that, deriving deterministic UUID v5 ids from template content so
// repeated ingestion of the same input upserts rather than duplicates. See
// dimension.go for the closed set of facet tags a node or edge can carry.
package graph

// NodeID uniquely identifies a node within a Context. Comparable by value.
type NodeID string

// EdgeID uniquely identifies an edge within a Context. Comparable by value.
type EdgeID string

// ContextID uniquely identifies a Context.
type ContextID string

func (n NodeID) String() string    { return string(n) }
func (e EdgeID) String() string    { return string(e) }
func (c ContextID) String() string { return string(c) }
