package adapter

import (
	"fmt"
	"sync"
	"time"

	"github.com/orneryd/plexusgraph/pkg/graph"
)

// clock is overridden in tests for deterministic provenance timestamps.
var clock = time.Now

// EngineSink is the AdapterSink backed by a live, mutex-guarded Context.
// It implements the validation policy from §4.1:
//   - nodes: upsert unconditionally
//   - edges: both endpoints must already exist, or have been committed
//     earlier in this same emission; otherwise rejected individually
//   - removals: no-op if the node doesn't exist; cascades incident edges
//   - property updates: merge into the addressed node if it exists
//
// Never returns a partial-failure AdapterError for per-item problems —
// those are Rejections. AdapterError is reserved for poisoned state.
type EngineSink struct {
	mu        *sync.Mutex
	ctx       *graph.Context
	framework *FrameworkContext
	events    []GraphEvent
}

// NewEngineSink builds a sink over a shared, mutex-guarded context with no
// framework context attached (no provenance entries will be produced).
func NewEngineSink(mu *sync.Mutex, ctx *graph.Context) *EngineSink {
	return &EngineSink{mu: mu, ctx: ctx}
}

func (s *EngineSink) WithFrameworkContext(fw FrameworkContext) *EngineSink {
	s.framework = &fw
	return s
}

// Events returns every GraphEvent committed through this sink across all
// of its Emit calls so far, in commit order.
func (s *EngineSink) Events() []GraphEvent {
	return s.events
}

func (s *EngineSink) Emit(emission Emission) (EmitResult, *AdapterError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if emission.IsEmpty() {
		return EmptyResult(), nil
	}

	result := EmptyResult()
	timestamp := clock()

	var adapterID, contextID string
	if s.framework != nil {
		adapterID = s.framework.AdapterID
		contextID = s.framework.ContextID
	}

	// Phase 1: nodes (upsert).
	var committedNodeIDs []graph.NodeID
	for _, an := range emission.Nodes {
		id := an.Node.ID
		s.ctx.AddNode(an.Node)
		result.NodesCommitted++
		committedNodeIDs = append(committedNodeIDs, id)

		if s.framework != nil {
			entry := newProvenanceEntry(*s.framework, timestamp, an.Annotation)
			result.Provenance = append(result.Provenance, ProvenanceNodeEntry{NodeID: id, Entry: entry})
		}
	}

	// Phase 2: edges (validate endpoints, then commit).
	var committedEdgeIDs []graph.EdgeID
	for _, ae := range emission.Edges {
		e := ae.Edge
		_, sourceOK := s.ctx.GetNode(e.Source)
		_, targetOK := s.ctx.GetNode(e.Target)

		if !sourceOK {
			result.Rejections = append(result.Rejections, NewRejection(
				fmt.Sprintf("edge %s->%s", e.Source, e.Target),
				MissingEndpoint(e.Source),
			))
			continue
		}
		if !targetOK {
			result.Rejections = append(result.Rejections, NewRejection(
				fmt.Sprintf("edge %s->%s", e.Source, e.Target),
				MissingEndpoint(e.Target),
			))
			continue
		}

		s.ctx.AddEdge(e)
		result.EdgesCommitted++
		committedEdgeIDs = append(committedEdgeIDs, e.ID)
	}

	// Phase 3: property updates, merged into the addressed node if it
	// exists. Runs before removals so a property update addressing a node
	// also slated for removal in the same emission still applies against
	// current state.
	var updatedNodeIDs []graph.NodeID
	for _, pu := range emission.PropertyUpdates {
		n, ok := s.ctx.GetNode(pu.NodeID)
		if !ok {
			continue
		}
		n.Properties = n.Properties.Merge(pu.Properties)
		s.ctx.SetNode(n)
		result.PropertiesCommitted++
		updatedNodeIDs = append(updatedNodeIDs, pu.NodeID)
	}

	// Phase 4: removals (no-op if missing, cascade otherwise).
	var removedNodeIDs []graph.NodeID
	var cascadedEdgeIDs []graph.EdgeID
	for _, rm := range emission.Removals {
		if _, ok := s.ctx.GetNode(rm.NodeID); !ok {
			continue
		}
		cascaded := s.ctx.RemoveNode(rm.NodeID)
		cascadedEdgeIDs = append(cascadedEdgeIDs, cascaded...)
		result.RemovalsCommitted++
		removedNodeIDs = append(removedNodeIDs, rm.NodeID)
	}

	// Event ordering: NodesAdded, EdgesAdded, PropertiesUpdated,
	// NodesRemoved, EdgesRemoved(cascade). No event for an empty group.
	if len(committedNodeIDs) > 0 {
		result.Events = append(result.Events, nodesAdded(committedNodeIDs, adapterID, contextID))
	}
	if len(committedEdgeIDs) > 0 {
		result.Events = append(result.Events, edgesAdded(committedEdgeIDs, adapterID, contextID))
	}
	if len(updatedNodeIDs) > 0 {
		result.Events = append(result.Events, propertiesUpdated(updatedNodeIDs, adapterID, contextID))
	}
	if len(removedNodeIDs) > 0 {
		result.Events = append(result.Events, nodesRemoved(removedNodeIDs, adapterID, contextID))
	}
	if len(cascadedEdgeIDs) > 0 {
		result.Events = append(result.Events, edgesRemoved(cascadedEdgeIDs, adapterID, contextID, RemovalCascade))
	}

	s.events = append(s.events, result.Events...)
	return result, nil
}
