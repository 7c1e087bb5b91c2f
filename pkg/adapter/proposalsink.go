package adapter

import "fmt"

// AllowedRelationship is the only edge relationship reflexive adapters
// (enrichments acting through a ProposalSink) are permitted to emit.
const AllowedRelationship = "may_be_related"

// ProposalSink wraps any AdapterSink and enforces the propose-don't-merge
// invariant structurally: edges must use AllowedRelationship and have
// their raw weight clamped to a cap; node removals are rejected outright;
// nodes and property updates pass through unchanged.
type ProposalSink struct {
	inner     AdapterSink
	weightCap float32
}

func NewProposalSink(inner AdapterSink, weightCap float32) *ProposalSink {
	return &ProposalSink{inner: inner, weightCap: weightCap}
}

func (p *ProposalSink) Emit(emission Emission) (EmitResult, *AdapterError) {
	if emission.IsEmpty() {
		return p.inner.Emit(emission)
	}

	var rejections []Rejection
	var filteredEdges []AnnotatedEdge

	for _, ae := range emission.Edges {
		if ae.Edge.Relationship != AllowedRelationship {
			rejections = append(rejections, NewRejection(
				fmt.Sprintf("edge %s->%s (relationship: %s)", ae.Edge.Source, ae.Edge.Target, ae.Edge.Relationship),
				InvalidRelationshipType(ae.Edge.Relationship),
			))
			continue
		}
		if ae.Edge.RawWeight > p.weightCap {
			ae.Edge.RawWeight = p.weightCap
		}
		filteredEdges = append(filteredEdges, ae)
	}

	for _, rm := range emission.Removals {
		rejections = append(rejections, NewRejection(
			fmt.Sprintf("removal of node %s", rm.NodeID),
			RemovalNotAllowed(),
		))
	}

	filtered := Emission{
		Nodes:           emission.Nodes,
		Edges:           filteredEdges,
		Removals:        nil,
		PropertyUpdates: emission.PropertyUpdates,
	}

	result, err := p.inner.Emit(filtered)
	if err != nil {
		return EmitResult{}, err
	}

	result.Rejections = append(rejections, result.Rejections...)
	return result, nil
}
