package storage

import (
	"sync"

	"github.com/orneryd/plexusgraph/pkg/graph"
)

// MemoryEngine is an in-memory GraphStore. It exists for tests and for
// engines configured with no persistent backend; it implements the full
// contract (including subgraph extraction) but loses all state on process
// exit.
type MemoryEngine struct {
	mu       sync.RWMutex
	contexts map[graph.ContextID]graph.Context
	closed   bool
}

func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{contexts: make(map[graph.ContextID]graph.Context)}
}

func (m *MemoryEngine) SaveContext(ctx graph.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrAlreadyClosed
	}
	m.contexts[ctx.ID] = ctx.Clone()
	return nil
}

func (m *MemoryEngine) LoadContext(id graph.ContextID) (graph.Context, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ctx, ok := m.contexts[id]
	if !ok {
		return graph.Context{}, false, nil
	}
	return ctx.Clone(), true, nil
}

func (m *MemoryEngine) DeleteContext(id graph.ContextID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contexts[id]; !ok {
		return false, nil
	}
	delete(m.contexts, id)
	return true, nil
}

func (m *MemoryEngine) ListContexts() ([]graph.ContextID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]graph.ContextID, 0, len(m.contexts))
	for id := range m.contexts {
		out = append(out, id)
	}
	return out, nil
}

func (m *MemoryEngine) SaveNode(contextID graph.ContextID, n graph.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, ok := m.contexts[contextID]
	if !ok {
		return ErrNotFound
	}
	ctx.AddNode(n)
	m.contexts[contextID] = ctx
	return nil
}

func (m *MemoryEngine) LoadNode(contextID graph.ContextID, id graph.NodeID) (graph.Node, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ctx, ok := m.contexts[contextID]
	if !ok {
		return graph.Node{}, false, nil
	}
	n, ok := ctx.GetNode(id)
	return n, ok, nil
}

func (m *MemoryEngine) DeleteNode(contextID graph.ContextID, id graph.NodeID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, ok := m.contexts[contextID]
	if !ok {
		return false, ErrNotFound
	}
	if _, ok := ctx.GetNode(id); !ok {
		return false, nil
	}
	ctx.RemoveNode(id)
	m.contexts[contextID] = ctx
	return true, nil
}

func (m *MemoryEngine) FindNodes(contextID graph.ContextID, filter NodeFilter) ([]graph.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ctx, ok := m.contexts[contextID]
	if !ok {
		return nil, ErrNotFound
	}
	var out []graph.Node
	for _, n := range ctx.Nodes() {
		if filter.NodeType != "" && n.NodeType != filter.NodeType {
			continue
		}
		if filter.ContentType != "" && n.ContentType != filter.ContentType {
			continue
		}
		if filter.Dimension != "" && n.Dimension != filter.Dimension {
			continue
		}
		out = append(out, n)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// SaveEdge stores e, replacing a stored edge with the same ID, as the
// badger backend's ID-keyed write does.
func (m *MemoryEngine) SaveEdge(contextID graph.ContextID, e graph.Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, ok := m.contexts[contextID]
	if !ok {
		return ErrNotFound
	}
	replaced := false
	for i := range ctx.EdgeList {
		if ctx.EdgeList[i].ID == e.ID {
			ctx.EdgeList[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		ctx.AddEdge(e)
	}
	m.contexts[contextID] = ctx
	return nil
}

func (m *MemoryEngine) EdgesFrom(contextID graph.ContextID, id graph.NodeID) ([]graph.Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ctx, ok := m.contexts[contextID]
	if !ok {
		return nil, ErrNotFound
	}
	return ctx.OutgoingEdges(id), nil
}

func (m *MemoryEngine) EdgesTo(contextID graph.ContextID, id graph.NodeID) ([]graph.Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ctx, ok := m.contexts[contextID]
	if !ok {
		return nil, ErrNotFound
	}
	return ctx.IncomingEdges(id), nil
}

func (m *MemoryEngine) DeleteEdge(contextID graph.ContextID, edgeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, ok := m.contexts[contextID]
	if !ok {
		return false, ErrNotFound
	}
	kept := ctx.EdgeList[:0:0]
	found := false
	for _, e := range ctx.EdgeList {
		if string(e.ID) == edgeID {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	ctx.EdgeList = kept
	m.contexts[contextID] = ctx
	return found, nil
}

func (m *MemoryEngine) LoadSubgraph(contextID graph.ContextID, seeds []graph.NodeID, maxDepth int) (Subgraph, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ctx, ok := m.contexts[contextID]
	if !ok {
		return Subgraph{}, ErrNotFound
	}
	return bidirectionalSubgraph(&ctx, seeds, maxDepth), nil
}

func (m *MemoryEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// bidirectionalSubgraph performs a bidirectional BFS out to maxDepth from
// every seed, then keeps only edges whose both endpoints are in the
// resulting node set (Invariant S4).
func bidirectionalSubgraph(ctx *graph.Context, seeds []graph.NodeID, maxDepth int) Subgraph {
	visited := make(map[graph.NodeID]bool)
	frontier := make([]graph.NodeID, 0, len(seeds))
	for _, s := range seeds {
		if !visited[s] {
			visited[s] = true
			frontier = append(frontier, s)
		}
	}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []graph.NodeID
		for _, id := range frontier {
			for _, e := range ctx.OutgoingEdges(id) {
				if !visited[e.Target] {
					visited[e.Target] = true
					next = append(next, e.Target)
				}
			}
			for _, e := range ctx.IncomingEdges(id) {
				if !visited[e.Source] {
					visited[e.Source] = true
					next = append(next, e.Source)
				}
			}
		}
		frontier = next
	}

	var nodes []graph.Node
	for id := range visited {
		if n, ok := ctx.GetNode(id); ok {
			nodes = append(nodes, n)
		}
	}
	var edges []graph.Edge
	for _, e := range ctx.Edges() {
		if visited[e.Source] && visited[e.Target] {
			edges = append(edges, e)
		}
	}
	return Subgraph{Nodes: nodes, Edges: edges}
}
