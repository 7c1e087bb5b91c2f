package enrichment

import (
	"github.com/orneryd/plexusgraph/pkg/adapter"
	"github.com/orneryd/plexusgraph/pkg/graph"
)

// DiscoveryGap detects concept pairs connected by a "trigger" relationship
// (typically embedding similarity) that have no other structural edge
// between them, and emits a symmetric "output" relationship pair to
// surface the gap. Structure-aware: fires on relationship name, not node
// content type.
type DiscoveryGap struct {
	triggerRelationship string
	outputRelationship  string
	id                  string
}

func NewDiscoveryGap(triggerRelationship, outputRelationship string) *DiscoveryGap {
	return &DiscoveryGap{
		triggerRelationship: triggerRelationship,
		outputRelationship:  outputRelationship,
		id:                  "discovery_gap:" + triggerRelationship + ":" + outputRelationship,
	}
}

func (d *DiscoveryGap) ID() string { return d.id }

func (d *DiscoveryGap) Enrich(events []adapter.GraphEvent, snapshot *graph.Context) (adapter.Emission, bool) {
	if !hasAnyEvent(events, adapter.EventEdgesAdded) {
		return adapter.Emission{}, false
	}

	emission := adapter.NewEmission()

	for _, edge := range snapshot.Edges() {
		if edge.Relationship != d.triggerRelationship {
			continue
		}
		a, b := edge.Source, edge.Target

		if d.hasStructuralEvidence(snapshot, a, b) {
			continue
		}
		if relationshipEdgeExists(snapshot, a, b, d.outputRelationship) {
			continue
		}

		contribution := edge.RawWeight

		forward := graph.NewEdgeInDimension(a, b, d.outputRelationship, graph.DimensionSemantic)
		forward.RawWeight = contribution
		emission = emission.WithEdge(forward)

		if !relationshipEdgeExists(snapshot, b, a, d.outputRelationship) {
			reverse := graph.NewEdgeInDimension(b, a, d.outputRelationship, graph.DimensionSemantic)
			reverse.RawWeight = contribution
			emission = emission.WithEdge(reverse)
		}
	}

	if emission.IsEmpty() {
		return adapter.Emission{}, false
	}
	return emission, true
}

// hasStructuralEvidence reports whether any edge other than the trigger or
// output relationship connects a and b, in either direction.
func (d *DiscoveryGap) hasStructuralEvidence(ctx *graph.Context, a, b graph.NodeID) bool {
	for _, e := range ctx.Edges() {
		connects := (e.Source == a && e.Target == b) || (e.Source == b && e.Target == a)
		if connects && e.Relationship != d.triggerRelationship && e.Relationship != d.outputRelationship {
			return true
		}
	}
	return false
}
