package adapter

import "github.com/orneryd/plexusgraph/pkg/graph"

// GraphEventKind discriminates the GraphEvent variants.
type GraphEventKind string

const (
	EventNodesAdded        GraphEventKind = "NodesAdded"
	EventEdgesAdded        GraphEventKind = "EdgesAdded"
	EventNodesRemoved      GraphEventKind = "NodesRemoved"
	EventEdgesRemoved      GraphEventKind = "EdgesRemoved"
	EventPropertiesUpdated GraphEventKind = "PropertiesUpdated"
)

// RemovalReason distinguishes a direct edge removal from one cascaded by a
// node removal.
type RemovalReason string

const (
	RemovalDirect  RemovalReason = "direct"
	RemovalCascade RemovalReason = "cascade"
)

// GraphEvent is fired when an emission is committed. Exactly one event per
// non-empty group in a commit; no event for an empty group. Higher-level
// domain events are modeled as nodes/edges emitted by reflexive adapters,
// not as additional GraphEvent variants.
type GraphEvent struct {
	Kind       GraphEventKind
	NodeIDs    []graph.NodeID
	EdgeIDs    []graph.EdgeID
	AdapterID  string
	ContextID  string
	Reason     RemovalReason // only meaningful for EventEdgesRemoved
}

func nodesAdded(ids []graph.NodeID, adapterID, contextID string) GraphEvent {
	return GraphEvent{Kind: EventNodesAdded, NodeIDs: ids, AdapterID: adapterID, ContextID: contextID}
}

func edgesAdded(ids []graph.EdgeID, adapterID, contextID string) GraphEvent {
	return GraphEvent{Kind: EventEdgesAdded, EdgeIDs: ids, AdapterID: adapterID, ContextID: contextID}
}

func nodesRemoved(ids []graph.NodeID, adapterID, contextID string) GraphEvent {
	return GraphEvent{Kind: EventNodesRemoved, NodeIDs: ids, AdapterID: adapterID, ContextID: contextID}
}

func edgesRemoved(ids []graph.EdgeID, adapterID, contextID string, reason RemovalReason) GraphEvent {
	return GraphEvent{Kind: EventEdgesRemoved, EdgeIDs: ids, AdapterID: adapterID, ContextID: contextID, Reason: reason}
}

func propertiesUpdated(ids []graph.NodeID, adapterID, contextID string) GraphEvent {
	return GraphEvent{Kind: EventPropertiesUpdated, NodeIDs: ids, AdapterID: adapterID, ContextID: contextID}
}
