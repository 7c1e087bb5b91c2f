package adapter

import "github.com/orneryd/plexusgraph/pkg/graph"

// DefaultMaxRounds is the enrichment loop's safety valve: the loop stops
// unconditionally after this many rounds even if enrichments keep
// producing emissions, surfacing a diagnostic but keeping already
// committed mutations.
const DefaultMaxRounds = 10

// Enrichment is a reactive component that responds to graph events with
// additional mutations — bridging between dimensions within the graph,
// as distinct from an Adapter, which bridges between external input and
// the graph. Implementations must be idempotent, monotone with respect
// to their own outputs, and context-scoped (no cross-context state): the
// registry's max-rounds valve is a fallback, not a substitute.
type Enrichment interface {
	ID() string

	// Enrich reacts to events from the previous round against a cloned
	// snapshot of the context. A nil Emission (ok=false) signals
	// quiescence for this round.
	Enrich(events []GraphEvent, snapshot *graph.Context) (Emission, bool)
}

// EnrichmentRegistry holds enrichments deduplicated by ID, plus the
// max-rounds safety valve for the enrichment loop.
type EnrichmentRegistry struct {
	enrichments []Enrichment
	maxRounds   int
}

// NewEnrichmentRegistry builds a registry from enrichments, silently
// deduplicated by ID — the first registration of a given ID wins.
func NewEnrichmentRegistry(enrichments ...Enrichment) *EnrichmentRegistry {
	seen := make(map[string]bool, len(enrichments))
	var deduped []Enrichment
	for _, e := range enrichments {
		if seen[e.ID()] {
			continue
		}
		seen[e.ID()] = true
		deduped = append(deduped, e)
	}
	return &EnrichmentRegistry{enrichments: deduped, maxRounds: DefaultMaxRounds}
}

func EmptyEnrichmentRegistry() *EnrichmentRegistry {
	return &EnrichmentRegistry{maxRounds: DefaultMaxRounds}
}

func (r *EnrichmentRegistry) WithMaxRounds(max int) *EnrichmentRegistry {
	r.maxRounds = max
	return r
}

func (r *EnrichmentRegistry) Enrichments() []Enrichment {
	return r.enrichments
}

func (r *EnrichmentRegistry) MaxRounds() int {
	return r.maxRounds
}

// Merge returns a new registry combining r's enrichments with extra,
// deduplicated by ID (r's entries win on collision since they're seen
// first), preserving r's max-rounds setting.
func (r *EnrichmentRegistry) Merge(extra ...Enrichment) *EnrichmentRegistry {
	all := append(append([]Enrichment{}, r.enrichments...), extra...)
	merged := NewEnrichmentRegistry(all...)
	merged.maxRounds = r.maxRounds
	return merged
}
