package adapter

import (
	"fmt"

	"github.com/orneryd/plexusgraph/pkg/graph"
)

// RejectionReason is why a single item within an otherwise-successful
// emission was not committed.
type RejectionReason struct {
	kind             string
	missingEndpoint  graph.NodeID
	invalidRelation  string
	other            string
}

func MissingEndpoint(id graph.NodeID) RejectionReason {
	return RejectionReason{kind: "missing_endpoint", missingEndpoint: id}
}

func InvalidRelationshipType(rel string) RejectionReason {
	return RejectionReason{kind: "invalid_relationship_type", invalidRelation: rel}
}

func RemovalNotAllowed() RejectionReason {
	return RejectionReason{kind: "removal_not_allowed"}
}

func OtherRejection(msg string) RejectionReason {
	return RejectionReason{kind: "other", other: msg}
}

func (r RejectionReason) String() string {
	switch r.kind {
	case "missing_endpoint":
		return fmt.Sprintf("missing endpoint %s", r.missingEndpoint)
	case "invalid_relationship_type":
		return fmt.Sprintf("invalid relationship type: %s", r.invalidRelation)
	case "removal_not_allowed":
		return "removal not allowed"
	default:
		return r.other
	}
}

// Equal supports value comparison in tests without exposing internal fields.
func (r RejectionReason) Equal(o RejectionReason) bool {
	return r == o
}

// Rejection is a single rejected item from an emission, with a
// human-readable description and the reason it was rejected.
type Rejection struct {
	Description string
	Reason      RejectionReason
}

func NewRejection(description string, reason RejectionReason) Rejection {
	return Rejection{Description: description, Reason: reason}
}

// EmitResult describes what an Emit call committed and rejected. Partial
// success is the normal case: valid items commit even when some items in
// the same emission are rejected.
type EmitResult struct {
	NodesCommitted      int
	EdgesCommitted      int
	RemovalsCommitted   int
	PropertiesCommitted int
	Rejections          []Rejection
	Provenance          []ProvenanceNodeEntry
	Events              []GraphEvent
}

// ProvenanceNodeEntry pairs a committed node id with the provenance entry
// constructed for it.
type ProvenanceNodeEntry struct {
	NodeID graph.NodeID
	Entry  ProvenanceEntry
}

func EmptyResult() EmitResult {
	return EmitResult{}
}

// IsFullyCommitted reports whether no items were rejected.
func (r EmitResult) IsFullyCommitted() bool {
	return len(r.Rejections) == 0
}

// IsNoop reports whether nothing was committed and nothing was rejected.
func (r EmitResult) IsNoop() bool {
	return r.NodesCommitted == 0 && r.EdgesCommitted == 0 &&
		r.RemovalsCommitted == 0 && r.PropertiesCommitted == 0 && len(r.Rejections) == 0
}

// AdapterErrorKind discriminates AdapterError without a custom exception
// hierarchy — see pkg/plexuserr for the matching sentinels.
type AdapterErrorKind string

const (
	ErrKindInvalidInput    AdapterErrorKind = "invalid_input"
	ErrKindContextNotFound AdapterErrorKind = "context_not_found"
	ErrKindSkipped         AdapterErrorKind = "skipped"
	ErrKindCancelled       AdapterErrorKind = "cancelled"
	ErrKindInternal        AdapterErrorKind = "internal"
)

// AdapterError is returned from adapter processing and sink emission —
// distinct from per-item Rejections, which are not errors.
type AdapterError struct {
	Kind    AdapterErrorKind
	Message string
}

func (e *AdapterError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

func InvalidInputErr() *AdapterError {
	return &AdapterError{Kind: ErrKindInvalidInput, Message: "expected different data type"}
}

func ContextNotFoundErr(contextID string) *AdapterError {
	return &AdapterError{Kind: ErrKindContextNotFound, Message: contextID}
}

// SkippedErr signals graceful, intentional inactivity — a signal, not a
// fatal error.
func SkippedErr(reason string) *AdapterError {
	return &AdapterError{Kind: ErrKindSkipped, Message: reason}
}

func CancelledErr() *AdapterError {
	return &AdapterError{Kind: ErrKindCancelled}
}

func InternalErr(format string, args ...any) *AdapterError {
	return &AdapterError{Kind: ErrKindInternal, Message: fmt.Sprintf(format, args...)}
}

// AdapterSink is the interface through which adapters push graph
// mutations into the engine. Each emission is validated and committed
// per-item: valid items commit, invalid items are individually rejected.
type AdapterSink interface {
	Emit(emission Emission) (EmitResult, *AdapterError)
}
