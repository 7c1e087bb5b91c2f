// Package decay runs the background job that ages edge strength across
// contexts and prunes whatever falls below the archive threshold.
//
// Edge.Reinforce and Edge.Decay (graph/edge.go) already implement the
// additive-reinforcement / multiplicative-decay primitives (Invariant E4);
// this package is the scheduler that calls them on an interval instead of
// making every caller remember to. It exists because nothing else in the
// engine decides *when* decay happens — engine.DecayEdges and
// engine.PruneWeakEdges act on command, once, over a single context.
//
// Example Usage:
//
//	mgr := decay.New(eng, decay.DefaultConfig())
//	mgr.Start(func() []graph.ContextID {
//		return registry.ListContextIDs()
//	})
//	defer mgr.Stop()
package decay

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/orneryd/plexusgraph/pkg/engine"
	"github.com/orneryd/plexusgraph/pkg/graph"
	"github.com/orneryd/plexusgraph/pkg/plexuslog"
)

var logger = plexuslog.New("decay")

// Config tunes the background decay job.
type Config struct {
	// Interval is how often RunOnce fires when driven by Start.
	Interval time.Duration
	// HalfLife is the duration over which an edge's strength halves if
	// it is never reinforced in the meantime. Applied uniformly across
	// every edge in every context passed to RunOnce — decay acts over
	// all edges without facet or dimension filtering, same as
	// engine.DecayEdges itself.
	HalfLife time.Duration
	// ArchiveThreshold is the strength below which PruneWeakEdges
	// removes an edge after each decay pass.
	ArchiveThreshold float32
}

// DefaultConfig returns sensible defaults: hourly decay recalculation at
// a 69-day half-life (roughly NornicDB's old "semantic" tier), pruning
// edges under 0.05 strength.
func DefaultConfig() *Config {
	return &Config{
		Interval:         time.Hour,
		HalfLife:         69 * 24 * time.Hour,
		ArchiveThreshold: 0.05,
	}
}

// lambda is the exponential decay constant implied by HalfLife, in
// units of 1/hour: halfLife = ln(2)/lambda.
func (c *Config) lambda() float64 {
	if c.HalfLife <= 0 {
		return 0
	}
	return math.Ln2 / c.HalfLife.Hours()
}

// intervalFactor is the fraction of strength an edge loses over one
// Interval at the configured half-life — the argument RunOnce passes to
// engine.DecayEdges.
func (c *Config) intervalFactor() float32 {
	lambda := c.lambda()
	if lambda == 0 {
		return 0
	}
	retained := math.Exp(-lambda * c.Interval.Hours())
	return float32(1 - retained)
}

// ContextLister supplies the set of contexts a scheduled run should
// decay. Callers typically close over an engine's own context registry;
// Engine itself exposes no enumeration method, so Manager never assumes
// one.
type ContextLister func() []graph.ContextID

// Manager periodically decays and prunes edges across a caller-supplied
// set of contexts. It does not own the Engine or any context registry —
// it just drives engine.DecayEdges / engine.PruneWeakEdges on a ticker.
type Manager struct {
	eng    *engine.Engine
	config *Config

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a Manager over eng using config. config must not be nil;
// use DefaultConfig() for sensible defaults.
func New(eng *engine.Engine, config *Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{eng: eng, config: config, ctx: ctx, cancel: cancel}
}

// RunOnce decays every edge in each listed context by one interval's
// worth of strength loss, then prunes whatever falls below
// ArchiveThreshold. Returns the total number of edges pruned.
//
// A context that errors (e.g. because it no longer exists) is logged
// and skipped rather than aborting the whole pass — one stale id should
// not block decay for the rest.
func (m *Manager) RunOnce(contextIDs []graph.ContextID) int {
	factor := m.config.intervalFactor()
	pruned := 0
	for _, id := range contextIDs {
		if err := m.eng.DecayEdges(id, factor); err != nil {
			logger.Printf("decay: context %s: %v", id, err)
			continue
		}
		n, err := m.eng.PruneWeakEdges(id, m.config.ArchiveThreshold)
		if err != nil {
			logger.Printf("prune: context %s: %v", id, err)
			continue
		}
		pruned += n
	}
	if pruned > 0 {
		logger.Printf("pruned %d weak edges across %d contexts", pruned, len(contextIDs))
	}
	return pruned
}

// Start launches a background goroutine that calls RunOnce every
// Config.Interval, asking list for the current set of context ids fresh
// on each tick so newly created contexts are picked up without
// restarting the manager. Non-blocking; call Stop to shut it down.
func (m *Manager) Start(list ContextLister) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.config.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.RunOnce(list())
			}
		}
	}()
}

// Stop signals the background goroutine to exit and waits for it to
// finish. Safe to call even if Start was never called.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancel()
	m.wg.Wait()
}
