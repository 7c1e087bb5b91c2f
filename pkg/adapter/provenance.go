package adapter

import "time"

// FrameworkContext binds a sink to the adapter and context it is acting
// on behalf of, plus an optional human-readable summary of the input that
// triggered this emission. An EngineSink is bound to at most one, via
// WithFrameworkContext; a sink without one produces no provenance entries.
type FrameworkContext struct {
	AdapterID    string
	ContextID    string
	InputSummary string // empty means "not provided"
}

// ProvenanceEntry records why and how a node ended up in the graph:
// framework context (who committed it, for which context), the adapter's
// own annotation (if any), and a single timestamp shared by every entry
// produced within one emission.
type ProvenanceEntry struct {
	AdapterID    string
	ContextID    string
	InputSummary string
	Timestamp    time.Time
	Annotation   *Annotation
}

func newProvenanceEntry(fw FrameworkContext, ts time.Time, ann *Annotation) ProvenanceEntry {
	return ProvenanceEntry{
		AdapterID:    fw.AdapterID,
		ContextID:    fw.ContextID,
		InputSummary: fw.InputSummary,
		Timestamp:    ts,
		Annotation:   ann,
	}
}
