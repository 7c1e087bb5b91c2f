package graph

import (
	"time"

	"github.com/google/uuid"
)

// ReinforcementKind is the closed-but-extensible set of reasons an edge's
// strength was bumped.
type ReinforcementKind string

const (
	ReinforcementSuccessfulExecution ReinforcementKind = "SuccessfulExecution"
	ReinforcementUserValidation      ReinforcementKind = "UserValidation"
	ReinforcementCoOccurrence        ReinforcementKind = "CoOccurrence"
)

// Reinforcement is a single dated record bumping an edge's strength.
//
// The in-memory field is named Kind but the wire form — per the storage
// contract — uses "type"; the json tag carries that rename.
type Reinforcement struct {
	Kind      ReinforcementKind `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	ContextID string            `json:"context_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func NewReinforcement(kind ReinforcementKind) Reinforcement {
	return Reinforcement{Kind: kind, Timestamp: clock()}
}

func (r Reinforcement) InContext(contextID string) Reinforcement {
	r.ContextID = contextID
	return r
}

func (r Reinforcement) WithMetadata(key, value string) Reinforcement {
	if r.Metadata == nil {
		r.Metadata = make(map[string]string)
	}
	r.Metadata[key] = value
	return r
}

// Edge is a directed, weighted, reinforceable arc between two nodes in the
// same Context.
//
// Invariant E1: SourceDimension == TargetDimension means in-dimension,
// otherwise cross-dimensional; both endpoints must exist in the context at
// commit time. Invariant E3: RawWeight is authoritative and never rewritten
// by normalization. Invariant E4: reinforcement is additive and capped at
// 1.0; decay is multiplicative and floored at 0.0.
type Edge struct {
	ID               EdgeID            `json:"id"`
	Source           NodeID            `json:"source"`
	Target           NodeID            `json:"target"`
	Relationship     string            `json:"relationship"`
	SourceDimension  Dimension         `json:"source_dimension"`
	TargetDimension  Dimension         `json:"target_dimension"`
	RawWeight        float32           `json:"weight"`
	Strength         float32           `json:"strength"`
	Confidence       float32           `json:"confidence"`
	Reinforcements   []Reinforcement   `json:"reinforcements"`
	Contributions    map[string]float32 `json:"contributions,omitempty"`
	Properties       Properties        `json:"properties"`
	CreatedAt        time.Time         `json:"created_at"`
	LastReinforced   *time.Time        `json:"last_reinforced,omitempty"`
}

// NewEdge creates an edge with SourceDimension and TargetDimension left
// empty; use NewEdgeInDimension, or set the two fields directly, to place it.
func NewEdge(source, target NodeID, relationship string) Edge {
	return Edge{
		ID:             EdgeID(uuid.NewString()),
		Source:         source,
		Target:         target,
		Relationship:   relationship,
		Strength:       0,
		Confidence:     1,
		Properties:     make(Properties),
		Contributions:  make(map[string]float32),
		Reinforcements: nil,
		CreatedAt:      clock(),
	}
}

func NewEdgeInDimension(source, target NodeID, relationship string, dim Dimension) Edge {
	e := NewEdge(source, target, relationship)
	e.SourceDimension = dim
	e.TargetDimension = dim
	return e
}

// CrossDimensional reports whether the edge's endpoints sit in different
// dimensions (Invariant E1).
func (e Edge) CrossDimensional() bool {
	return e.SourceDimension != e.TargetDimension
}

// Contribute records adapterID's share of this edge's raw weight, adding
// amount to any existing contribution.
func (e *Edge) Contribute(adapterID string, amount float32) {
	if e.Contributions == nil {
		e.Contributions = make(map[string]float32)
	}
	e.Contributions[adapterID] += amount
}

// Reinforce bumps Strength additively, capped at 1.0 (Invariant E4).
func (e *Edge) Reinforce(r Reinforcement) {
	e.Strength += 0.1
	if e.Strength > 1 {
		e.Strength = 1
	}
	e.Reinforcements = append(e.Reinforcements, r)
	ts := r.Timestamp
	e.LastReinforced = &ts
}

// Decay multiplies Strength by (1 - factor), floored at 0.0 (Invariant E4).
func (e *Edge) Decay(factor float32) {
	e.Strength *= 1 - factor
	if e.Strength < 0 {
		e.Strength = 0
	}
}
