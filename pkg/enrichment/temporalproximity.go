package enrichment

import (
	"fmt"

	"github.com/orneryd/plexusgraph/pkg/adapter"
	"github.com/orneryd/plexusgraph/pkg/graph"
)

// TemporalProximity detects nodes carrying a numeric timestamp property
// within threshold of each other and emits a symmetric output-relationship
// edge pair. Structure-aware: fires on timestamp property presence, not
// node content type.
type TemporalProximity struct {
	timestampProperty  string
	thresholdMillis    int64
	outputRelationship string
	id                 string
}

func NewTemporalProximity(timestampProperty string, thresholdMillis int64, outputRelationship string) *TemporalProximity {
	return &TemporalProximity{
		timestampProperty:  timestampProperty,
		thresholdMillis:    thresholdMillis,
		outputRelationship: outputRelationship,
		id:                 fmt.Sprintf("temporal:%s:%d:%s", timestampProperty, thresholdMillis, outputRelationship),
	}
}

func (t *TemporalProximity) ID() string { return t.id }

func (t *TemporalProximity) Enrich(events []adapter.GraphEvent, snapshot *graph.Context) (adapter.Emission, bool) {
	if !hasAnyEvent(events, adapter.EventNodesAdded) {
		return adapter.Emission{}, false
	}

	type stamped struct {
		id graph.NodeID
		ts int64
	}
	var timestamped []stamped
	for _, n := range snapshot.Nodes() {
		if ts, ok := extractTimestamp(n.Properties, t.timestampProperty); ok {
			timestamped = append(timestamped, stamped{id: n.ID, ts: ts})
		}
	}

	emission := adapter.NewEmission()

	for i := 0; i < len(timestamped); i++ {
		for j := i + 1; j < len(timestamped); j++ {
			a, b := timestamped[i], timestamped[j]
			diff := a.ts - b.ts
			if diff < 0 {
				diff = -diff
			}
			if diff > t.thresholdMillis {
				continue
			}

			if !relationshipEdgeExists(snapshot, a.id, b.id, t.outputRelationship) {
				edge := graph.NewEdgeInDimension(a.id, b.id, t.outputRelationship, graph.DimensionSemantic)
				emission = emission.WithEdge(edge)
			}
			if !relationshipEdgeExists(snapshot, b.id, a.id, t.outputRelationship) {
				edge := graph.NewEdgeInDimension(b.id, a.id, t.outputRelationship, graph.DimensionSemantic)
				emission = emission.WithEdge(edge)
			}
		}
	}

	if emission.IsEmpty() {
		return adapter.Emission{}, false
	}
	return emission, true
}

// extractTimestamp reads a numeric (or numeric-string) timestamp from
// properties[key], accepting int, float, or a parseable string.
func extractTimestamp(props graph.Properties, key string) (int64, bool) {
	v, ok := props[key]
	if !ok {
		return 0, false
	}
	if i, ok := v.Int(); ok {
		return i, true
	}
	if f, ok := v.Float(); ok {
		return int64(f), true
	}
	if s, ok := v.String(); ok {
		var n int64
		if _, err := fmt.Sscanf(s, "%d", &n); err == nil {
			return n, true
		}
	}
	return 0, false
}
