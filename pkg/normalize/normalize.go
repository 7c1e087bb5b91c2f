// Package normalize implements query-time reinterpretation of raw edge
// weights. A Strategy never mutates the graph — it is a pure function over
// a node's outgoing edges — which is what makes "Hebbian weakening"
// emergent rather than a separate mechanism: add a new outgoing edge and
// every sibling's normalized share shrinks, purely as a side effect of the
// denominator growing (Invariant E3, §4.10).
package normalize

import (
	"math"

	"github.com/orneryd/plexusgraph/pkg/graph"
)

// Weighted pairs a raw edge with its normalized weight under some Strategy.
type Weighted struct {
	Edge   graph.Edge
	Weight float64
}

// Strategy computes normalized weights for a node's outgoing edges. It must
// be stable: calling it twice without intervening mutation yields identical
// results (Testable Properties, normalization stability).
type Strategy interface {
	Normalize(nodeID graph.NodeID, outgoing []graph.Edge) []Weighted
}

// Divisive normalizes each outgoing edge's raw weight by the sum of raw
// weights over all outgoing edges from the same node. A zero sum yields all
// zero weights rather than dividing by zero.
//
// Normalization conservation: the outputs sum to 1.0 (within float error)
// whenever the input sum is nonzero.
type Divisive struct{}

func (Divisive) Normalize(_ graph.NodeID, outgoing []graph.Edge) []Weighted {
	var sum float64
	for _, e := range outgoing {
		sum += float64(e.RawWeight)
	}
	out := make([]Weighted, len(outgoing))
	if sum == 0 {
		for i, e := range outgoing {
			out[i] = Weighted{Edge: e, Weight: 0}
		}
		return out
	}
	for i, e := range outgoing {
		out[i] = Weighted{Edge: e, Weight: float64(e.RawWeight) / sum}
	}
	return out
}

// Softmax normalizes via exp(raw - max) / sum(exp(raw_k - max)), the
// max-subtraction keeping the exponentials numerically stable.
type Softmax struct{}

func (Softmax) Normalize(_ graph.NodeID, outgoing []graph.Edge) []Weighted {
	out := make([]Weighted, len(outgoing))
	if len(outgoing) == 0 {
		return out
	}
	maxRaw := float64(outgoing[0].RawWeight)
	for _, e := range outgoing[1:] {
		if float64(e.RawWeight) > maxRaw {
			maxRaw = float64(e.RawWeight)
		}
	}
	var sum float64
	exps := make([]float64, len(outgoing))
	for i, e := range outgoing {
		exps[i] = math.Exp(float64(e.RawWeight) - maxRaw)
		sum += exps[i]
	}
	for i, e := range outgoing {
		w := 0.0
		if sum != 0 {
			w = exps[i] / sum
		}
		out[i] = Weighted{Edge: e, Weight: w}
	}
	return out
}

// Normalize applies strategy to ctx's edges outgoing from nodeID.
func Normalize(ctx *graph.Context, nodeID graph.NodeID, strategy Strategy) []Weighted {
	return strategy.Normalize(nodeID, ctx.OutgoingEdges(nodeID))
}
