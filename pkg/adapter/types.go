// Package adapter implements the emission/sink/router/enrichment machinery
// that sits between external input and the graph engine: adapters turn
// domain-specific data into Emissions, sinks validate and commit them,
// enrichments react to the resulting events, and the ingest pipeline ties
// all of it into a single write endpoint.
package adapter

import "github.com/orneryd/plexusgraph/pkg/graph"

// Annotation is adapter-provided metadata describing how a single
// extraction was made. The engine wraps it with framework context to
// produce a provenance entry.
type Annotation struct {
	Confidence     *float64
	Method         string
	SourceLocation string
	Detail         map[string]string
}

func NewAnnotation() Annotation {
	return Annotation{}
}

func (a Annotation) WithConfidence(c float64) Annotation {
	a.Confidence = &c
	return a
}

func (a Annotation) WithMethod(method string) Annotation {
	a.Method = method
	return a
}

func (a Annotation) WithSourceLocation(loc string) Annotation {
	a.SourceLocation = loc
	return a
}

func (a Annotation) WithDetail(key, value string) Annotation {
	if a.Detail == nil {
		a.Detail = make(map[string]string)
	}
	a.Detail[key] = value
	return a
}

// AnnotatedNode pairs a node with an optional annotation.
type AnnotatedNode struct {
	Node       graph.Node
	Annotation *Annotation
}

func NewAnnotatedNode(n graph.Node) AnnotatedNode {
	return AnnotatedNode{Node: n}
}

func (a AnnotatedNode) WithAnnotation(ann Annotation) AnnotatedNode {
	a.Annotation = &ann
	return a
}

// AnnotatedEdge pairs an edge with an optional annotation.
type AnnotatedEdge struct {
	Edge       graph.Edge
	Annotation *Annotation
}

func NewAnnotatedEdge(e graph.Edge) AnnotatedEdge {
	return AnnotatedEdge{Edge: e}
}

func (a AnnotatedEdge) WithAnnotation(ann Annotation) AnnotatedEdge {
	a.Annotation = &ann
	return a
}

// Removal requests that a node (and its incident edges, cascaded) be
// deleted.
type Removal struct {
	NodeID graph.NodeID
}

// PropertyUpdate addresses a node by id with properties to merge into it,
// without replacing the rest of the node.
type PropertyUpdate struct {
	NodeID     graph.NodeID
	Properties graph.Properties
}

// Emission is the payload of a single sink Emit call: a bundle of
// annotated nodes, annotated edges, removals, and property updates. Each
// emission is validated and committed per-item, not all-or-nothing.
type Emission struct {
	Nodes           []AnnotatedNode
	Edges           []AnnotatedEdge
	Removals        []Removal
	PropertyUpdates []PropertyUpdate
}

func NewEmission() Emission {
	return Emission{}
}

func (e Emission) WithNode(n graph.Node) Emission {
	e.Nodes = append(e.Nodes, NewAnnotatedNode(n))
	return e
}

func (e Emission) WithAnnotatedNode(n AnnotatedNode) Emission {
	e.Nodes = append(e.Nodes, n)
	return e
}

func (e Emission) WithEdge(edge graph.Edge) Emission {
	e.Edges = append(e.Edges, NewAnnotatedEdge(edge))
	return e
}

func (e Emission) WithAnnotatedEdge(edge AnnotatedEdge) Emission {
	e.Edges = append(e.Edges, edge)
	return e
}

func (e Emission) WithRemoval(id graph.NodeID) Emission {
	e.Removals = append(e.Removals, Removal{NodeID: id})
	return e
}

func (e Emission) WithPropertyUpdate(id graph.NodeID, props graph.Properties) Emission {
	e.PropertyUpdates = append(e.PropertyUpdates, PropertyUpdate{NodeID: id, Properties: props})
	return e
}

// IsEmpty reports whether all four collections are empty.
func (e Emission) IsEmpty() bool {
	return len(e.Nodes) == 0 && len(e.Edges) == 0 && len(e.Removals) == 0 && len(e.PropertyUpdates) == 0
}
