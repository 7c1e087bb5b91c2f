package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/orneryd/plexusgraph/pkg/engine"
	"github.com/orneryd/plexusgraph/pkg/graph"
	"github.com/orneryd/plexusgraph/pkg/plexuslog"
)

var ingestLogger = plexuslog.New("ingest")

// IngestPipeline is the single write endpoint over an Engine: it routes
// input to registered adapters, runs the enrichment loop, and returns the
// outbound events each adapter's TransformEvents produces.
type IngestPipeline struct {
	eng         *engine.Engine
	router      *InputRouter
	enrichments *EnrichmentRegistry
}

// NewIngestPipeline builds a pipeline with no adapters or enrichments
// registered.
func NewIngestPipeline(eng *engine.Engine) *IngestPipeline {
	return &IngestPipeline{
		eng:         eng,
		router:      NewInputRouter(),
		enrichments: EmptyEnrichmentRegistry(),
	}
}

// RegisterAdapter adds a standalone adapter with no enrichments.
func (p *IngestPipeline) RegisterAdapter(a Adapter) {
	p.router.Register(a)
}

// RegisterIntegration adds an adapter bundled with the enrichments it
// contributes, deduplicated by id against whatever is already registered.
func (p *IngestPipeline) RegisterIntegration(a Adapter, enrichments ...Enrichment) {
	p.router.Register(a)
	p.enrichments = p.enrichments.Merge(enrichments...)
}

// RegisterEnrichments adds enrichments with no adapter of their own —
// e.g. embedding similarity, which reacts to NodesAdded events from
// whichever adapter produced them rather than owning an input kind.
// Deduplicated by id against whatever is already registered.
func (p *IngestPipeline) RegisterEnrichments(enrichments ...Enrichment) {
	p.enrichments = p.enrichments.Merge(enrichments...)
}

// EnrichmentRegistry exposes the pipeline's registry, e.g. to run the
// enrichment loop independently of ingest.
func (p *IngestPipeline) EnrichmentRegistry() *EnrichmentRegistry {
	return p.enrichments
}

// RegisteredInputKinds lists the input kinds handled by registered
// adapters, in registration order (with duplicates if more than one
// adapter shares a kind).
func (p *IngestPipeline) RegisteredInputKinds() []string {
	var out []string
	for _, a := range p.router.adapters {
		out = append(out, a.InputKind())
	}
	return out
}

// RegisterSpecsFromDir scans dir for *.yaml files, parses each as a
// declarative spec, validates it, and registers the resulting adapter.
// Invalid specs are logged and skipped; returns the count registered.
func (p *IngestPipeline) RegisterSpecsFromDir(dir string, specLoader func(path string) (Adapter, error)) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		ingestLogger.Printf("cannot read %s: %v", dir, err)
		return 0
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		a, err := specLoader(path)
		if err != nil {
			ingestLogger.Printf("invalid spec %s: %v", path, err)
			continue
		}
		ingestLogger.Printf("registered %s (input_kind=%s)", path, a.InputKind())
		p.RegisterAdapter(a)
		count++
	}
	return count
}

// Ingest is the single write endpoint (§4.6):
//  1. verify context exists
//  2. find adapters matching input_kind; none -> internal error naming the kind
//  3. each adapter processes via a fresh engine-backed sink -> primary events
//  4. if events accumulated and enrichments are registered, run the loop
//  5. re-fetch the snapshot and call transform_events per adapter
//  6. return the concatenated outbound events
func (p *IngestPipeline) Ingest(contextID, inputKind string, data any) ([]OutboundEvent, *AdapterError) {
	if _, ok := p.eng.GetContext(graph.ContextID(contextID)); !ok {
		return nil, ContextNotFoundErr(contextID)
	}

	input := NewAdapterInput(inputKind, data, contextID)
	matching := p.router.Matching(inputKind)
	if len(matching) == 0 {
		return nil, InternalErr("no adapter registered for input_kind '%s'", inputKind)
	}

	var allEvents []GraphEvent
	for _, a := range matching {
		mu, ctx, ok := p.eng.SinkTarget(graph.ContextID(contextID))
		if !ok {
			return nil, ContextNotFoundErr(contextID)
		}
		sink := NewEngineSink(mu, ctx).WithFrameworkContext(FrameworkContext{
			AdapterID: a.ID(),
			ContextID: contextID,
		})
		if err := a.Process(&input, sink); err != nil {
			if err.Kind != ErrKindSkipped {
				return nil, err
			}
			ingestLogger.Printf("adapter %s skipped: %s", a.ID(), err.Message)
		}
		allEvents = append(allEvents, sink.Events()...)

		if err := p.eng.PersistContext(graph.ContextID(contextID)); err != nil {
			ingestLogger.Printf("persist after %s: %v", a.ID(), err)
		}
	}

	if len(p.enrichments.Enrichments()) > 0 && len(allEvents) > 0 {
		enrichmentEvents, warn := p.runEnrichmentLoop(graph.ContextID(contextID), allEvents)
		if warn != "" {
			ingestLogger.Printf("%s", warn)
		}
		allEvents = append(allEvents, enrichmentEvents...)
	}

	snapshot, ok := p.eng.GetContext(graph.ContextID(contextID))
	if !ok {
		return nil, ContextNotFoundErr(contextID)
	}

	var outbound []OutboundEvent
	for _, a := range matching {
		outbound = append(outbound, a.TransformEvents(allEvents, &snapshot)...)
	}
	return outbound, nil
}

// runEnrichmentLoop implements §4.5's round algorithm: each round calls
// every enrichment with the prior round's events against a snapshot
// taken at round start; mutations within a round are visible only to the
// next round. All-none stops the loop; max_rounds stops it unconditionally.
func (p *IngestPipeline) runEnrichmentLoop(contextID graph.ContextID, seedEvents []GraphEvent) ([]GraphEvent, string) {
	var accumulated []GraphEvent
	roundEvents := seedEvents

	for round := 0; round < p.enrichments.MaxRounds(); round++ {
		snapshot, ok := p.eng.GetContext(contextID)
		if !ok {
			return accumulated, ""
		}

		var merged Emission
		produced := false
		for _, en := range p.enrichments.Enrichments() {
			emission, ok := en.Enrich(roundEvents, &snapshot)
			if !ok {
				continue
			}
			produced = true
			merged.Nodes = append(merged.Nodes, emission.Nodes...)
			merged.Edges = append(merged.Edges, emission.Edges...)
			merged.Removals = append(merged.Removals, emission.Removals...)
			merged.PropertyUpdates = append(merged.PropertyUpdates, emission.PropertyUpdates...)
		}
		if !produced {
			return accumulated, ""
		}

		mu, ctx, ok := p.eng.SinkTarget(contextID)
		if !ok {
			return accumulated, ""
		}
		sink := NewEngineSink(mu, ctx)
		result, err := sink.Emit(merged)
		if err != nil {
			return accumulated, fmt.Sprintf("enrichment round %d: %v", round, err)
		}

		if p.eng != nil {
			_ = p.eng.PersistContext(contextID)
		}

		accumulated = append(accumulated, result.Events...)
		roundEvents = result.Events
	}

	return accumulated, fmt.Sprintf("enrichment loop hit max_rounds=%d, committed mutations kept", p.enrichments.MaxRounds())
}
