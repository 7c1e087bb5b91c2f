// Package enrichment provides the built-in adapter.Enrichment
// implementations: bridging tags to concepts, detecting co-occurrence and
// discovery gaps, temporal proximity, and embedding similarity. Each reacts
// to graph events against a cloned snapshot and is idempotent, so the
// ingest pipeline's enrichment loop reaches quiescence.
package enrichment

import (
	"strings"

	"github.com/orneryd/plexusgraph/pkg/adapter"
	"github.com/orneryd/plexusgraph/pkg/graph"
)

// TagConceptBridger creates cross-dimensional edges between marks
// (provenance) and concepts (semantic) when their tags match: a new mark
// bridges to existing concepts sharing its tags, and a new concept bridges
// to existing marks tagged with it.
type TagConceptBridger struct {
	relationship string
	id           string
}

// NewTagConceptBridger builds a bridger using the default "references"
// relationship.
func NewTagConceptBridger() *TagConceptBridger {
	return &TagConceptBridger{relationship: "references", id: "tag_bridger:references"}
}

// NewTagConceptBridgerWithRelationship builds a bridger using relationship
// instead of "references", for running multiple differently-labeled
// instances side by side.
func NewTagConceptBridgerWithRelationship(relationship string) *TagConceptBridger {
	return &TagConceptBridger{relationship: relationship, id: "tag_bridger:" + relationship}
}

func (b *TagConceptBridger) ID() string { return b.id }

func (b *TagConceptBridger) Enrich(events []adapter.GraphEvent, snapshot *graph.Context) (adapter.Emission, bool) {
	emission := adapter.NewEmission()

	for _, event := range events {
		if event.Kind != adapter.EventNodesAdded {
			continue
		}
		for _, nodeID := range event.NodeIDs {
			node, ok := snapshot.GetNode(nodeID)
			if !ok {
				continue
			}

			if node.Dimension == graph.DimensionSemantic && strings.HasPrefix(string(nodeID), "concept:") {
				conceptTag := strings.TrimPrefix(string(nodeID), "concept:")
				for _, mark := range snapshot.Nodes() {
					if mark.Dimension != graph.DimensionProvenance {
						continue
					}
					if markHasTag(mark, conceptTag) && !bridgeEdgeExists(snapshot, mark.ID, nodeID, b.relationship) {
						emission = emission.WithEdge(makeBridgeEdge(mark.ID, nodeID, b.relationship))
					}
				}
			} else if node.Dimension == graph.DimensionProvenance {
				seen := make(map[string]bool)
				for _, tag := range normalizedTags(node) {
					if seen[tag] {
						continue
					}
					seen[tag] = true
					conceptID := graph.NodeID("concept:" + tag)
					if _, ok := snapshot.GetNode(conceptID); ok && !bridgeEdgeExists(snapshot, nodeID, conceptID, b.relationship) {
						emission = emission.WithEdge(makeBridgeEdge(nodeID, conceptID, b.relationship))
					}
				}
			}
		}
	}

	if emission.IsEmpty() {
		return adapter.Emission{}, false
	}
	return emission, true
}

func markHasTag(node graph.Node, conceptTag string) bool {
	for _, tag := range normalizedTags(node) {
		if tag == conceptTag {
			return true
		}
	}
	return false
}

// normalizedTags extracts a node's "tags" array property, stripping a
// leading "#" and lowercasing each entry.
func normalizedTags(node graph.Node) []string {
	v, ok := node.Properties["tags"]
	if !ok {
		return nil
	}
	arr, ok := v.Array()
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := e.String()
		if !ok {
			continue
		}
		out = append(out, strings.ToLower(strings.TrimPrefix(s, "#")))
	}
	return out
}

func bridgeEdgeExists(ctx *graph.Context, source, target graph.NodeID, relationship string) bool {
	for _, e := range ctx.Edges() {
		if e.Source == source && e.Target == target && e.Relationship == relationship {
			return true
		}
	}
	return false
}

func makeBridgeEdge(markID, conceptID graph.NodeID, relationship string) adapter.AnnotatedEdge {
	edge := graph.NewEdge(markID, conceptID, relationship)
	edge.SourceDimension = graph.DimensionProvenance
	edge.TargetDimension = graph.DimensionSemantic
	edge.RawWeight = 1.0
	return adapter.NewAnnotatedEdge(edge)
}
