package graph

import "time"

// ContextMetadata holds bookkeeping that rides alongside a Context.
type ContextMetadata struct {
	CreatedAt time.Time         `json:"created_at"`
	Tags      []string          `json:"tags,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Context is a bounded, writer-exclusive subgraph: a named set of nodes
// keyed by id plus an ordered, non-deduplicated sequence of edges.
//
// Invariant C1: iteration over Nodes/Edges yields only this context's own
// entities. Invariant C2: nodes and edges are expected to form a connected
// multigraph, though nothing here enforces that — it is a modeling
// convention, not a checked constraint.
type Context struct {
	ID          ContextID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	NodesByID   map[NodeID]Node `json:"nodes"`
	EdgeList    []Edge          `json:"edges"`
	Metadata    ContextMetadata `json:"metadata"`
}

func NewContext(id string) Context {
	return Context{
		ID:        ContextID(id),
		Name:      id,
		NodesByID: make(map[NodeID]Node),
		Metadata:  ContextMetadata{CreatedAt: clock()},
	}
}

func (c Context) WithDescription(desc string) Context {
	c.Description = desc
	return c
}

func (c Context) WithTag(tag string) Context {
	c.Metadata.Tags = append(c.Metadata.Tags, tag)
	return c
}

// Nodes returns every node in the context. Order is map iteration order and
// therefore unspecified.
func (c *Context) Nodes() []Node {
	out := make([]Node, 0, len(c.NodesByID))
	for _, n := range c.NodesByID {
		out = append(out, n)
	}
	return out
}

func (c *Context) Edges() []Edge {
	return c.EdgeList
}

func (c *Context) NodeCount() int { return len(c.NodesByID) }
func (c *Context) EdgeCount() int { return len(c.EdgeList) }

func (c *Context) GetNode(id NodeID) (Node, bool) {
	n, ok := c.NodesByID[id]
	return n, ok
}

// SetNode writes n back into the context, keyed by n.ID. Pairs with
// GetNode for call sites that read a copy, mutate it, and persist it —
// Go maps don't hand out addressable values, so there is no GetNodeMut.
func (c *Context) SetNode(n Node) {
	if c.NodesByID == nil {
		c.NodesByID = make(map[NodeID]Node)
	}
	c.NodesByID[n.ID] = n
}

// AddNode upserts n per Invariant N2 and returns the committed id.
func (c *Context) AddNode(n Node) NodeID {
	if c.NodesByID == nil {
		c.NodesByID = make(map[NodeID]Node)
	}
	now := clock()
	if existing, ok := c.NodesByID[n.ID]; ok {
		n = existing.upsertFrom(n, now)
	} else if n.Metadata.CreatedAt.IsZero() {
		n.Metadata.CreatedAt = now
	}
	c.NodesByID[n.ID] = n
	return n.ID
}

// AddEdge appends e without deduplication (by design — see spec open
// questions on additive reinforcement).
func (c *Context) AddEdge(e Edge) EdgeID {
	c.EdgeList = append(c.EdgeList, e)
	return e.ID
}

// RemoveNode deletes the node and cascades removal of every incident edge
// (Invariant N3), returning the ids of the edges removed as a side effect.
// Removing a node that doesn't exist is a no-op.
func (c *Context) RemoveNode(id NodeID) []EdgeID {
	if _, ok := c.NodesByID[id]; !ok {
		return nil
	}
	delete(c.NodesByID, id)

	var cascaded []EdgeID
	kept := c.EdgeList[:0:0]
	for _, e := range c.EdgeList {
		if e.Source == id || e.Target == id {
			cascaded = append(cascaded, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	c.EdgeList = kept
	return cascaded
}

// OutgoingEdges returns edges whose Source is id, in context order.
func (c *Context) OutgoingEdges(id NodeID) []Edge {
	var out []Edge
	for _, e := range c.EdgeList {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// IncomingEdges returns edges whose Target is id, in context order.
func (c *Context) IncomingEdges(id NodeID) []Edge {
	var out []Edge
	for _, e := range c.EdgeList {
		if e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

// Clone performs a deep-enough copy that mutating the clone never affects
// the original: used to hand out snapshots from the engine (§4.7,
// get_context returns a cloned snapshot).
func (c Context) Clone() Context {
	out := c
	out.NodesByID = make(map[NodeID]Node, len(c.NodesByID))
	for k, v := range c.NodesByID {
		v.Properties = v.Properties.Clone()
		out.NodesByID[k] = v
	}
	out.EdgeList = make([]Edge, len(c.EdgeList))
	copy(out.EdgeList, c.EdgeList)
	for i := range out.EdgeList {
		out.EdgeList[i].Properties = out.EdgeList[i].Properties.Clone()
		reinf := make([]Reinforcement, len(out.EdgeList[i].Reinforcements))
		copy(reinf, out.EdgeList[i].Reinforcements)
		out.EdgeList[i].Reinforcements = reinf
	}
	out.Metadata.Tags = append([]string(nil), c.Metadata.Tags...)
	return out
}
