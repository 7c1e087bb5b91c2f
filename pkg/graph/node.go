package graph

import (
	"time"

	"github.com/google/uuid"
)

// ContentType classifies what a node represents. Serialized lowercase per
// the storage contract (Invariant S1); the set is open-ended, these are the
// values the core and built-in enrichments recognize.
type ContentType string

const (
	ContentDocument   ContentType = "document"
	ContentCode       ContentType = "code"
	ContentConcept    ContentType = "concept"
	ContentProvenance ContentType = "provenance"
	ContentAgent      ContentType = "agent"
	ContentMovement   ContentType = "movement"
	ContentNarrative  ContentType = "narrative"
)

// NodeMetadata carries the bookkeeping fields that ride alongside a node
// but are not themselves domain properties.
type NodeMetadata struct {
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
	Source     string     `json:"source,omitempty"`
}

// Node is a single vertex in a Context's property graph.
//
// Invariant N1: Dimension must be one of the closed set in dimension.go.
// Invariant N2: re-ingesting an id upserts — new properties overwrite
// stored ones, every other field is replaced wholesale, CreatedAt is
// preserved and ModifiedAt advances.
type Node struct {
	ID          NodeID      `json:"id"`
	NodeType    string      `json:"node_type"`
	ContentType ContentType `json:"content_type"`
	Dimension   Dimension   `json:"dimension"`
	Properties  Properties  `json:"properties"`
	Metadata    NodeMetadata `json:"metadata"`
}

// NewNode builds a node in the default dimension. Use NewNodeInDimension
// to place it in a specific facet.
func NewNode(nodeType string, contentType ContentType) Node {
	return NewNodeInDimension(nodeType, contentType, DimensionDefault)
}

func NewNodeInDimension(nodeType string, contentType ContentType, dim Dimension) Node {
	return Node{
		ID:          NodeID(uuid.NewString()),
		NodeType:    nodeType,
		ContentType: contentType,
		Dimension:   dim,
		Properties:  make(Properties),
		Metadata:    NodeMetadata{CreatedAt: clock()},
	}
}

// WithProperty returns n with key set to value, for fluent construction.
func (n Node) WithProperty(key string, value PropertyValue) Node {
	if n.Properties == nil {
		n.Properties = make(Properties)
	}
	n.Properties[key] = value
	return n
}

func (n Node) WithSource(source string) Node {
	n.Metadata.Source = source
	return n
}

// upsertFrom applies Invariant N2: properties merge in, everything else
// (node_type, content_type, dimension, source) is replaced wholesale from
// incoming, CreatedAt is preserved, ModifiedAt advances.
func (n Node) upsertFrom(incoming Node, now time.Time) Node {
	merged := incoming
	merged.ID = n.ID
	merged.Properties = n.Properties.Merge(incoming.Properties)
	merged.Metadata.CreatedAt = n.Metadata.CreatedAt
	merged.Metadata.ModifiedAt = &now
	return merged
}

// clock is overridden in tests that need deterministic timestamps; the
// engine never calls time.Now() directly so it can be swapped consistently.
var clock = time.Now
