// Package engine owns the live, concurrent map of contexts that every
// other package ultimately reads from or writes through: the adapter
// sinks, the ingest pipeline, and the query surface all operate against
// an Engine rather than touching storage directly.
package engine

import (
	"fmt"
	"sync"

	"github.com/orneryd/plexusgraph/pkg/graph"
	"github.com/orneryd/plexusgraph/pkg/plexuserr"
	"github.com/orneryd/plexusgraph/pkg/plexuslog"
	"github.com/orneryd/plexusgraph/pkg/storage"
)

var logger = plexuslog.New("engine")

// entry pairs a context with the mutex that makes it a writer-exclusive
// unit (§5): every mutation — from a direct engine call or from an
// adapter's sink — takes this lock before touching ctx.
type entry struct {
	mu  sync.Mutex
	ctx graph.Context
}

// Engine is the concurrent map of contexts keyed by id, backed by an
// optional persistent GraphStore. With no store configured, mutations
// only ever live in memory for the process lifetime.
type Engine struct {
	mu       sync.RWMutex
	contexts map[graph.ContextID]*entry
	store    storage.GraphStore
}

// New builds an Engine over store. A nil store is valid — persistence
// calls become no-ops — useful for tests that only exercise in-process
// graph semantics.
func New(store storage.GraphStore) *Engine {
	return &Engine{contexts: make(map[graph.ContextID]*entry), store: store}
}

// UpsertContext registers ctx (replacing any prior in-memory entry of the
// same id) and persists it if a store is configured.
func (e *Engine) UpsertContext(ctx graph.Context) error {
	e.mu.Lock()
	e.contexts[ctx.ID] = &entry{ctx: ctx}
	e.mu.Unlock()

	if e.store == nil {
		return nil
	}
	if err := e.store.SaveContext(ctx); err != nil {
		return fmt.Errorf("engine: persist context %s: %w", ctx.ID, err)
	}
	return nil
}

// GetContext returns a cloned snapshot of the context, safe to read
// without holding any engine lock.
func (e *Engine) GetContext(id graph.ContextID) (graph.Context, bool) {
	ent, ok := e.lookup(id)
	if !ok {
		return graph.Context{}, false
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.ctx.Clone(), true
}

func (e *Engine) lookup(id graph.ContextID) (*entry, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ent, ok := e.contexts[id]
	return ent, ok
}

// RemoveContext deletes a context from the store first, then from
// memory — so a crash mid-removal never leaves storage and memory
// disagreeing in a way that resurrects the context on next LoadAll.
func (e *Engine) RemoveContext(id graph.ContextID) (bool, error) {
	if _, ok := e.lookup(id); !ok {
		return false, nil
	}
	if e.store != nil {
		if _, err := e.store.DeleteContext(id); err != nil {
			return false, fmt.Errorf("engine: delete context %s: %w", id, err)
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.contexts, id)
	return true, nil
}

// PersistContext writes the current in-memory state of id to the store.
// A no-op if no store is configured.
func (e *Engine) PersistContext(id graph.ContextID) error {
	if e.store == nil {
		return nil
	}
	ent, ok := e.lookup(id)
	if !ok {
		return plexuserr.ErrContextNotFound
	}
	ent.mu.Lock()
	snapshot := ent.ctx.Clone()
	ent.mu.Unlock()

	if err := e.store.SaveContext(snapshot); err != nil {
		return fmt.Errorf("engine: persist context %s: %w", id, err)
	}
	return nil
}

// LoadAll rehydrates every context from the store into memory,
// overwriting any in-memory entry of the same id. Idempotent: calling it
// twice in a row yields the same in-memory state. Returns the number of
// contexts loaded.
func (e *Engine) LoadAll() (int, error) {
	if e.store == nil {
		return 0, nil
	}
	ids, err := e.store.ListContexts()
	if err != nil {
		return 0, fmt.Errorf("engine: list contexts: %w", err)
	}

	count := 0
	for _, id := range ids {
		ctx, ok, err := e.store.LoadContext(id)
		if err != nil {
			logger.Printf("load context %s: %v", id, err)
			continue
		}
		if !ok {
			continue
		}
		e.mu.Lock()
		e.contexts[id] = &entry{ctx: ctx}
		e.mu.Unlock()
		count++
	}
	return count, nil
}

// AddNode upserts n into contextID and persists on success.
func (e *Engine) AddNode(contextID graph.ContextID, n graph.Node) (graph.NodeID, error) {
	ent, ok := e.lookup(contextID)
	if !ok {
		return "", plexuserr.ErrContextNotFound
	}
	ent.mu.Lock()
	id := ent.ctx.AddNode(n)
	merged, _ := ent.ctx.GetNode(id)
	ent.mu.Unlock()

	if e.store != nil {
		if err := e.store.SaveNode(contextID, merged); err != nil {
			return id, fmt.Errorf("engine: persist node %s: %w", id, err)
		}
	}
	return id, nil
}

// AddEdge appends e to contextID and persists on success.
func (e *Engine) AddEdge(contextID graph.ContextID, edge graph.Edge) (graph.EdgeID, error) {
	ent, ok := e.lookup(contextID)
	if !ok {
		return "", plexuserr.ErrContextNotFound
	}
	ent.mu.Lock()
	id := ent.ctx.AddEdge(edge)
	ent.mu.Unlock()

	if e.store != nil {
		if err := e.store.SaveEdge(contextID, edge); err != nil {
			return id, fmt.Errorf("engine: persist edge %s: %w", id, err)
		}
	}
	return id, nil
}

// ReinforceEdge applies r to the named edge and persists the result.
func (e *Engine) ReinforceEdge(contextID graph.ContextID, edgeID graph.EdgeID, r graph.Reinforcement) error {
	ent, ok := e.lookup(contextID)
	if !ok {
		return plexuserr.ErrContextNotFound
	}
	ent.mu.Lock()
	var found *graph.Edge
	for i := range ent.ctx.EdgeList {
		if ent.ctx.EdgeList[i].ID == edgeID {
			ent.ctx.EdgeList[i].Reinforce(r)
			found = &ent.ctx.EdgeList[i]
			break
		}
	}
	ent.mu.Unlock()

	if found == nil {
		return plexuserr.ErrNodeNotFound
	}
	if e.store != nil {
		if err := e.store.SaveEdge(contextID, *found); err != nil {
			return fmt.Errorf("engine: persist reinforced edge %s: %w", edgeID, err)
		}
	}
	return nil
}

// DecayEdges applies Decay(factor) to every edge in contextID and
// persists each changed edge. Acts over all edges without facet
// filtering — by design, matching the original decay/prune helpers.
func (e *Engine) DecayEdges(contextID graph.ContextID, factor float32) error {
	ent, ok := e.lookup(contextID)
	if !ok {
		return plexuserr.ErrContextNotFound
	}
	ent.mu.Lock()
	for i := range ent.ctx.EdgeList {
		ent.ctx.EdgeList[i].Decay(factor)
	}
	edges := append([]graph.Edge{}, ent.ctx.EdgeList...)
	ent.mu.Unlock()

	if e.store == nil {
		return nil
	}
	for _, edge := range edges {
		if err := e.store.SaveEdge(contextID, edge); err != nil {
			return fmt.Errorf("engine: persist decayed edge %s: %w", edge.ID, err)
		}
	}
	return nil
}

// PruneWeakEdges removes every edge in contextID whose Strength is below
// threshold, persists the context, and returns the count removed.
func (e *Engine) PruneWeakEdges(contextID graph.ContextID, threshold float32) (int, error) {
	ent, ok := e.lookup(contextID)
	if !ok {
		return 0, plexuserr.ErrContextNotFound
	}
	ent.mu.Lock()
	kept := ent.ctx.EdgeList[:0:0]
	removed := 0
	for _, edge := range ent.ctx.EdgeList {
		if edge.Strength < threshold {
			removed++
			continue
		}
		kept = append(kept, edge)
	}
	ent.ctx.EdgeList = kept
	snapshot := ent.ctx.Clone()
	ent.mu.Unlock()

	if e.store != nil && removed > 0 {
		if err := e.store.SaveContext(snapshot); err != nil {
			return removed, fmt.Errorf("engine: persist context %s after prune: %w", contextID, err)
		}
	}
	return removed, nil
}

// SinkTarget exposes the mutex-guarded context backing contextID so an
// adapter.EngineSink can be constructed directly over live engine state
// (not a clone) — mutations an adapter commits through that sink are
// immediately visible to subsequent GetContext calls.
func (e *Engine) SinkTarget(contextID graph.ContextID) (mu *sync.Mutex, ctx *graph.Context, ok bool) {
	ent, found := e.lookup(contextID)
	if !found {
		return nil, nil, false
	}
	return &ent.mu, &ent.ctx, true
}
