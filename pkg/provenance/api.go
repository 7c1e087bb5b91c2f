package provenance

import (
	"fmt"
	"sort"

	"github.com/orneryd/plexusgraph/pkg/engine"
	"github.com/orneryd/plexusgraph/pkg/graph"
	"github.com/orneryd/plexusgraph/pkg/plexuserr"
)

// API is a context-scoped provenance surface over an Engine.
type API struct {
	eng       *engine.Engine
	contextID graph.ContextID
}

// New builds a provenance API scoped to contextID.
func New(eng *engine.Engine, contextID string) *API {
	return &API{eng: eng, contextID: graph.ContextID(contextID)}
}

// === Chain operations ===

// CreateChain creates a new active provenance chain and returns its id.
func (a *API) CreateChain(name, description string) (string, error) {
	node := graph.NewNodeInDimension("chain", graph.ContentProvenance, graph.DimensionProvenance)
	node = node.WithProperty("name", graph.StringValue(name))
	if description != "" {
		node = node.WithProperty("description", graph.StringValue(description))
	}
	node = node.WithProperty("status", graph.StringValue(string(ChainActive)))

	id, err := a.eng.AddNode(a.contextID, node)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ListChains returns every chain, optionally filtered by status.
func (a *API) ListChains(status *ChainStatus) ([]ChainView, error) {
	ctx, ok := a.eng.GetContext(a.contextID)
	if !ok {
		return nil, plexuserr.ErrContextNotFound
	}

	var out []ChainView
	for _, n := range ctx.Nodes() {
		if n.NodeType != "chain" || n.Dimension != graph.DimensionProvenance {
			continue
		}
		view := nodeToChainView(n)
		if status != nil && view.Status != *status {
			continue
		}
		out = append(out, view)
	}
	return out, nil
}

// GetChain returns a chain and every mark it contains, via "contains"
// edges from the chain node.
func (a *API) GetChain(chainID string) (ChainView, []MarkView, error) {
	ctx, ok := a.eng.GetContext(a.contextID)
	if !ok {
		return ChainView{}, nil, plexuserr.ErrContextNotFound
	}

	chainNodeID := graph.NodeID(chainID)
	chainNode, ok := ctx.GetNode(chainNodeID)
	if !ok {
		return ChainView{}, nil, plexuserr.ErrNodeNotFound
	}
	chainView := nodeToChainView(chainNode)

	var marks []MarkView
	for _, e := range ctx.OutgoingEdges(chainNodeID) {
		if e.Relationship != "contains" {
			continue
		}
		markNode, ok := ctx.GetNode(e.Target)
		if !ok {
			continue
		}
		marks = append(marks, nodeToMarkView(markNode))
	}
	return chainView, marks, nil
}

// ArchiveChain marks a chain archived.
func (a *API) ArchiveChain(chainID string) error {
	return a.setChainStatus(chainID, ChainArchived)
}

func (a *API) setChainStatus(chainID string, status ChainStatus) error {
	mu, ctx, ok := a.eng.SinkTarget(a.contextID)
	if !ok {
		return plexuserr.ErrContextNotFound
	}
	mu.Lock()
	node, ok := ctx.GetNode(graph.NodeID(chainID))
	if !ok {
		mu.Unlock()
		return plexuserr.ErrNodeNotFound
	}
	node = node.WithProperty("status", graph.StringValue(string(status)))
	ctx.SetNode(node)
	mu.Unlock()

	return a.eng.PersistContext(a.contextID)
}

// === Mark operations ===

// MarkInput is the set of fields AddMark accepts; Column, MarkType, and
// Tags are optional (zero value / nil means absent).
type MarkInput struct {
	File       string
	Line       int64
	Annotation string
	Column     *int64
	MarkType   string
	Tags       []string
}

// AddMark adds a mark to chainID and connects it with a "contains" edge.
// Tag-to-concept bridging (a separate enrichment) happens only for marks
// created through the ingest pipeline, not through this direct API.
func (a *API) AddMark(chainID string, in MarkInput) (string, error) {
	ctx, ok := a.eng.GetContext(a.contextID)
	if !ok {
		return "", plexuserr.ErrContextNotFound
	}
	chainNodeID := graph.NodeID(chainID)
	if _, ok := ctx.GetNode(chainNodeID); !ok {
		return "", fmt.Errorf("provenance: chain not found: %s: %w", chainID, plexuserr.ErrNodeNotFound)
	}

	node := graph.NewNodeInDimension("mark", graph.ContentProvenance, graph.DimensionProvenance)
	node = node.WithProperty("chain_id", graph.StringValue(chainID))
	node = node.WithProperty("file", graph.StringValue(in.File))
	node = node.WithProperty("line", graph.IntValue(in.Line))
	node = node.WithProperty("annotation", graph.StringValue(in.Annotation))
	if in.Column != nil {
		node = node.WithProperty("column", graph.IntValue(*in.Column))
	}
	if in.MarkType != "" {
		node = node.WithProperty("type", graph.StringValue(in.MarkType))
	}
	if in.Tags != nil {
		node = node.WithProperty("tags", tagsToPropertyValue(in.Tags))
	}

	markID, err := a.eng.AddNode(a.contextID, node)
	if err != nil {
		return "", err
	}

	edge := graph.NewEdgeInDimension(chainNodeID, markID, "contains", graph.DimensionProvenance)
	if _, err := a.eng.AddEdge(a.contextID, edge); err != nil {
		return "", err
	}

	return markID.String(), nil
}

// MarkUpdate is a partial update to a mark: nil fields are left unchanged.
// Tags, if non-nil, replaces the mark's tag list wholesale (including with
// an empty slice, which clears it).
type MarkUpdate struct {
	Annotation *string
	Line       *int64
	Column     *int64
	MarkType   *string
	Tags       []string
}

// UpdateMark applies a partial update to an existing mark.
func (a *API) UpdateMark(markID string, update MarkUpdate) error {
	mu, ctx, ok := a.eng.SinkTarget(a.contextID)
	if !ok {
		return plexuserr.ErrContextNotFound
	}
	mu.Lock()
	node, ok := ctx.GetNode(graph.NodeID(markID))
	if !ok {
		mu.Unlock()
		return plexuserr.ErrNodeNotFound
	}

	if update.Annotation != nil {
		node = node.WithProperty("annotation", graph.StringValue(*update.Annotation))
	}
	if update.Line != nil {
		node = node.WithProperty("line", graph.IntValue(*update.Line))
	}
	if update.Column != nil {
		node = node.WithProperty("column", graph.IntValue(*update.Column))
	}
	if update.MarkType != nil {
		node = node.WithProperty("type", graph.StringValue(*update.MarkType))
	}
	if update.Tags != nil {
		node = node.WithProperty("tags", tagsToPropertyValue(update.Tags))
	}
	ctx.SetNode(node)
	mu.Unlock()

	return a.eng.PersistContext(a.contextID)
}

// MarkFilter narrows ListMarks; empty fields impose no constraint.
type MarkFilter struct {
	ChainID  string
	File     string
	MarkType string
	Tag      string
}

// ListMarks returns every mark matching filter.
func (a *API) ListMarks(filter MarkFilter) ([]MarkView, error) {
	ctx, ok := a.eng.GetContext(a.contextID)
	if !ok {
		return nil, plexuserr.ErrContextNotFound
	}

	var out []MarkView
	for _, n := range ctx.Nodes() {
		if n.NodeType != "mark" || n.Dimension != graph.DimensionProvenance {
			continue
		}
		if filter.ChainID != "" && propStr(n.Properties, "chain_id") != filter.ChainID {
			continue
		}
		if filter.File != "" && propStr(n.Properties, "file") != filter.File {
			continue
		}
		if filter.MarkType != "" && propStr(n.Properties, "type") != filter.MarkType {
			continue
		}
		if filter.Tag != "" && !containsTag(propTags(n.Properties), filter.Tag) {
			continue
		}
		out = append(out, nodeToMarkView(n))
	}
	return out, nil
}

// === Link operations ===

// GetLinks returns a mark's outgoing and incoming "links_to" edges, as
// node ids.
func (a *API) GetLinks(markID string) (outgoing, incoming []string, err error) {
	ctx, ok := a.eng.GetContext(a.contextID)
	if !ok {
		return nil, nil, plexuserr.ErrContextNotFound
	}
	nodeID := graph.NodeID(markID)
	if _, ok := ctx.GetNode(nodeID); !ok {
		return nil, nil, plexuserr.ErrNodeNotFound
	}

	for _, e := range ctx.OutgoingEdges(nodeID) {
		if e.Relationship == "links_to" {
			outgoing = append(outgoing, e.Target.String())
		}
	}
	for _, e := range ctx.IncomingEdges(nodeID) {
		if e.Relationship == "links_to" {
			incoming = append(incoming, e.Source.String())
		}
	}
	return outgoing, incoming, nil
}

// ListTags returns every unique tag used across all marks, sorted.
func (a *API) ListTags() ([]string, error) {
	ctx, ok := a.eng.GetContext(a.contextID)
	if !ok {
		return nil, plexuserr.ErrContextNotFound
	}

	seen := make(map[string]struct{})
	for _, n := range ctx.Nodes() {
		if n.NodeType != "mark" || n.Dimension != graph.DimensionProvenance {
			continue
		}
		for _, t := range propTags(n.Properties) {
			seen[t] = struct{}{}
		}
	}

	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, nil
}

// === helpers ===

func nodeToChainView(n graph.Node) ChainView {
	status := ChainActive
	if s := propStr(n.Properties, "status"); s != "" {
		status = ChainStatus(s)
	}
	return ChainView{
		ID:          n.ID.String(),
		Name:        propStr(n.Properties, "name"),
		Description: propStr(n.Properties, "description"),
		Status:      status,
		CreatedAt:   n.Metadata.CreatedAt,
		ModifiedAt:  n.Metadata.ModifiedAt,
	}
}

func nodeToMarkView(n graph.Node) MarkView {
	view := MarkView{
		ID:         n.ID.String(),
		ChainID:    propStr(n.Properties, "chain_id"),
		File:       propStr(n.Properties, "file"),
		Annotation: propStr(n.Properties, "annotation"),
		MarkType:   propStr(n.Properties, "type"),
		Tags:       propTags(n.Properties),
		CreatedAt:  n.Metadata.CreatedAt,
		ModifiedAt: n.Metadata.ModifiedAt,
	}
	if line, ok := n.Properties["line"].Int(); ok {
		view.Line = line
	}
	if col, ok := n.Properties["column"].Int(); ok {
		view.Column = &col
	}
	return view
}

func propStr(props graph.Properties, key string) string {
	v, ok := props[key]
	if !ok {
		return ""
	}
	s, _ := v.String()
	return s
}

func propTags(props graph.Properties) []string {
	v, ok := props["tags"]
	if !ok {
		return nil
	}
	arr, ok := v.Array()
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.String(); ok {
			out = append(out, s)
		}
	}
	return out
}

func tagsToPropertyValue(tags []string) graph.PropertyValue {
	vals := make([]graph.PropertyValue, len(tags))
	for i, t := range tags {
		vals[i] = graph.StringValue(t)
	}
	return graph.ArrayValue(vals...)
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
