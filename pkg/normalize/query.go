package normalize

import (
	"github.com/orneryd/plexusgraph/pkg/graph"
)

// Direction constrains which edges TraverseQuery follows from a node.
type Direction int

const (
	DirectionOutgoing Direction = iota
	DirectionIncoming
	DirectionBoth
)

// FindQuery filters nodes in a context by type, content type, dimension,
// and arbitrary property predicates. Result order is unspecified (§4.9).
type FindQuery struct {
	NodeType    string
	ContentType graph.ContentType
	Dimension   graph.Dimension
	Predicate   func(graph.Node) bool
	Limit       int
}

// Find returns nodes in ctx matching q. Zero-value fields are treated as
// "don't filter on this".
func Find(ctx *graph.Context, q FindQuery) []graph.Node {
	var out []graph.Node
	for _, n := range ctx.Nodes() {
		if q.NodeType != "" && n.NodeType != q.NodeType {
			continue
		}
		if q.ContentType != "" && n.ContentType != q.ContentType {
			continue
		}
		if q.Dimension != "" && n.Dimension != q.Dimension {
			continue
		}
		if q.Predicate != nil && !q.Predicate(n) {
			continue
		}
		out = append(out, n)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out
}

// TraverseQuery bounds a breadth-first walk from a seed node.
type TraverseQuery struct {
	Seed         graph.NodeID
	MaxDepth     int
	Direction    Direction
	Relationship string  // optional filter; empty matches any
	MinWeight    float32 // optional filter; edges below are not followed
}

// TraverseResult groups visited node ids by BFS level, level 0 being the
// seed itself.
type TraverseResult struct {
	Levels [][]graph.NodeID
}

func Traverse(ctx *graph.Context, q TraverseQuery) TraverseResult {
	visited := map[graph.NodeID]bool{q.Seed: true}
	levels := [][]graph.NodeID{{q.Seed}}
	frontier := []graph.NodeID{q.Seed}

	for depth := 0; depth < q.MaxDepth && len(frontier) > 0; depth++ {
		var next []graph.NodeID
		for _, id := range frontier {
			for _, id2 := range neighbors(ctx, id, q.Direction, q.Relationship, q.MinWeight) {
				if visited[id2] {
					continue
				}
				visited[id2] = true
				next = append(next, id2)
			}
		}
		if len(next) == 0 {
			break
		}
		levels = append(levels, next)
		frontier = next
	}
	return TraverseResult{Levels: levels}
}

func neighbors(ctx *graph.Context, id graph.NodeID, dir Direction, relationship string, minWeight float32) []graph.NodeID {
	var out []graph.NodeID
	consider := func(e graph.Edge, other graph.NodeID) {
		if relationship != "" && e.Relationship != relationship {
			return
		}
		if e.RawWeight < minWeight {
			return
		}
		out = append(out, other)
	}
	if dir == DirectionOutgoing || dir == DirectionBoth {
		for _, e := range ctx.OutgoingEdges(id) {
			consider(e, e.Target)
		}
	}
	if dir == DirectionIncoming || dir == DirectionBoth {
		for _, e := range ctx.IncomingEdges(id) {
			consider(e, e.Source)
		}
	}
	return out
}

// PathResult is the outcome of a PathQuery.
type PathResult struct {
	Nodes []graph.NodeID
	Found bool
}

// ShortestPath finds a minimum-hop path from→to, breaking ties by the
// deterministic order edges appear in the context (BFS with a stable
// frontier order is deterministic for a fixed context).
func ShortestPath(ctx *graph.Context, from, to graph.NodeID) PathResult {
	if from == to {
		return PathResult{Nodes: []graph.NodeID{from}, Found: true}
	}
	visited := map[graph.NodeID]bool{from: true}
	prev := map[graph.NodeID]graph.NodeID{}
	queue := []graph.NodeID{from}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range ctx.OutgoingEdges(id) {
			if visited[e.Target] {
				continue
			}
			visited[e.Target] = true
			prev[e.Target] = id
			if e.Target == to {
				return PathResult{Nodes: reconstruct(prev, from, to), Found: true}
			}
			queue = append(queue, e.Target)
		}
	}
	return PathResult{Found: false}
}

func reconstruct(prev map[graph.NodeID]graph.NodeID, from, to graph.NodeID) []graph.NodeID {
	path := []graph.NodeID{to}
	cur := to
	for cur != from {
		cur = prev[cur]
		path = append([]graph.NodeID{cur}, path...)
	}
	return path
}
