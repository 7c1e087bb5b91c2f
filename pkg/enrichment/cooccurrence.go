package enrichment

import (
	"sort"

	"github.com/orneryd/plexusgraph/pkg/adapter"
	"github.com/orneryd/plexusgraph/pkg/graph"
)

// CoOccurrence detects concepts that share fragments (via "tagged_with"
// edges) and emits symmetric "may_be_related" edge pairs scored by
// count/max_count.
type CoOccurrence struct{}

func NewCoOccurrence() *CoOccurrence { return &CoOccurrence{} }

func (c *CoOccurrence) ID() string { return "co-occurrence" }

func (c *CoOccurrence) Enrich(events []adapter.GraphEvent, snapshot *graph.Context) (adapter.Emission, bool) {
	if !hasAnyEvent(events, adapter.EventNodesAdded, adapter.EventEdgesAdded) {
		return adapter.Emission{}, false
	}

	pairs := detectCooccurrencePairs(snapshot)
	if len(pairs) == 0 {
		return adapter.Emission{}, false
	}

	var maxCount int
	for _, count := range pairs {
		if count > maxCount {
			maxCount = count
		}
	}

	emission := adapter.NewEmission()
	for pair, count := range pairs {
		score := float32(count) / float32(maxCount)

		if !relationshipEdgeExists(snapshot, pair.a, pair.b, "may_be_related") {
			edge := graph.NewEdgeInDimension(pair.a, pair.b, "may_be_related", graph.DimensionSemantic)
			edge.RawWeight = score
			emission = emission.WithEdge(edge)
		}
		if !relationshipEdgeExists(snapshot, pair.b, pair.a, "may_be_related") {
			edge := graph.NewEdgeInDimension(pair.b, pair.a, "may_be_related", graph.DimensionSemantic)
			edge.RawWeight = score
			emission = emission.WithEdge(edge)
		}
	}

	if emission.IsEmpty() {
		return adapter.Emission{}, false
	}
	return emission, true
}

type conceptPair struct{ a, b graph.NodeID }

// detectCooccurrencePairs builds a reverse index (fragment -> concepts via
// "tagged_with" edges) and counts shared fragments for each concept pair,
// canonicalizing pair order so (a, b) and (b, a) count as the same pair.
func detectCooccurrencePairs(ctx *graph.Context) map[conceptPair]int {
	fragmentToConcepts := make(map[graph.NodeID]map[graph.NodeID]bool)

	for _, edge := range ctx.Edges() {
		if edge.Relationship != "tagged_with" {
			continue
		}
		target, ok := ctx.GetNode(edge.Target)
		if !ok || target.ContentType != graph.ContentConcept {
			continue
		}
		if fragmentToConcepts[edge.Source] == nil {
			fragmentToConcepts[edge.Source] = make(map[graph.NodeID]bool)
		}
		fragmentToConcepts[edge.Source][edge.Target] = true
	}

	counts := make(map[conceptPair]int)
	for _, concepts := range fragmentToConcepts {
		ids := make([]string, 0, len(concepts))
		for id := range concepts {
			ids = append(ids, string(id))
		}
		sort.Strings(ids)

		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				counts[conceptPair{a: graph.NodeID(ids[i]), b: graph.NodeID(ids[j])}]++
			}
		}
	}
	return counts
}

func relationshipEdgeExists(ctx *graph.Context, source, target graph.NodeID, relationship string) bool {
	for _, e := range ctx.Edges() {
		if e.Source == source && e.Target == target && e.Relationship == relationship {
			return true
		}
	}
	return false
}

func hasAnyEvent(events []adapter.GraphEvent, kinds ...adapter.GraphEventKind) bool {
	for _, e := range events {
		for _, k := range kinds {
			if e.Kind == k {
				return true
			}
		}
	}
	return false
}
