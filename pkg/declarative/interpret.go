package declarative

import (
	"fmt"

	"github.com/orneryd/plexusgraph/pkg/adapter"
	"github.com/orneryd/plexusgraph/pkg/graph"
)

func resolveDimension(name string) (graph.Dimension, error) {
	switch name {
	case "structure":
		return graph.DimensionStructure, nil
	case "semantic":
		return graph.DimensionSemantic, nil
	case "provenance":
		return graph.DimensionProvenance, nil
	case "relational":
		return graph.DimensionRelational, nil
	case "temporal":
		return graph.DimensionTemporal, nil
	case "default":
		return graph.DimensionDefault, nil
	default:
		return "", fmt.Errorf("declarative: unknown dimension: %s", name)
	}
}

// resolveContentType maps a spec's node_type string to a ContentType;
// anything not recognized falls back to Document, covering artifacts,
// fragments, and other generic node types a spec author introduces.
func resolveContentType(nodeType string) graph.ContentType {
	switch nodeType {
	case "concept":
		return graph.ContentConcept
	case "code":
		return graph.ContentCode
	case "movement":
		return graph.ContentMovement
	case "narrative":
		return graph.ContentNarrative
	case "agent":
		return graph.ContentAgent
	case "provenance", "mark", "chain":
		return graph.ContentProvenance
	default:
		return graph.ContentDocument
	}
}

// interpretPrimitives runs a spec's emit list (or a for_each body) against
// ctx, producing one combined Emission.
func interpretPrimitives(primitives []Primitive, ctx templateContext) (adapter.Emission, error) {
	emission := adapter.NewEmission()

	for _, p := range primitives {
		switch p.Kind {
		case KindCreateNode:
			n, err := interpretCreateNode(*p.CreateNode, ctx)
			if err != nil {
				return adapter.Emission{}, err
			}
			emission = emission.WithAnnotatedNode(adapter.NewAnnotatedNode(n))

		case KindCreateEdge:
			e, err := interpretCreateEdge(*p.CreateEdge, ctx)
			if err != nil {
				return adapter.Emission{}, err
			}
			emission = emission.WithAnnotatedEdge(adapter.NewAnnotatedEdge(e))

		case KindForEach:
			items, err := interpretForEach(*p.ForEach, ctx)
			if err != nil {
				return adapter.Emission{}, err
			}
			for _, item := range items {
				emission.Nodes = append(emission.Nodes, item.Nodes...)
				emission.Edges = append(emission.Edges, item.Edges...)
			}

		case KindCreateProvenance:
			prov, err := interpretCreateProvenance(*p.CreateProvenance, ctx)
			if err != nil {
				return adapter.Emission{}, err
			}
			emission.Nodes = append(emission.Nodes, prov.Nodes...)
			emission.Edges = append(emission.Edges, prov.Edges...)
		}
	}

	return emission, nil
}

func interpretCreateNode(cn CreateNodePrimitive, ctx templateContext) (graph.Node, error) {
	nodeID, err := resolveID(cn.ID, ctx)
	if err != nil {
		return graph.Node{}, err
	}
	dim, err := resolveDimension(cn.Dimension)
	if err != nil {
		return graph.Node{}, err
	}

	node := graph.NewNodeInDimension(cn.NodeType, resolveContentType(cn.NodeType), dim)
	node.ID = graph.NodeID(nodeID)

	for key, tmpl := range cn.Properties {
		rendered, err := renderTemplate(tmpl, ctx)
		if err != nil {
			return graph.Node{}, err
		}
		node = node.WithProperty(key, graph.StringValue(rendered))
	}

	return node, nil
}

func interpretCreateEdge(ce CreateEdgePrimitive, ctx templateContext) (graph.Edge, error) {
	sourceID, err := renderTemplate(ce.Source, ctx)
	if err != nil {
		return graph.Edge{}, err
	}
	targetID, err := renderTemplate(ce.Target, ctx)
	if err != nil {
		return graph.Edge{}, err
	}

	var edge graph.Edge
	if ce.SourceDimension != "" && ce.TargetDimension != "" {
		srcDim, err := resolveDimension(ce.SourceDimension)
		if err != nil {
			return graph.Edge{}, err
		}
		tgtDim, err := resolveDimension(ce.TargetDimension)
		if err != nil {
			return graph.Edge{}, err
		}
		if srcDim == tgtDim {
			edge = graph.NewEdgeInDimension(graph.NodeID(sourceID), graph.NodeID(targetID), ce.Relationship, srcDim)
		} else {
			edge = graph.NewEdge(graph.NodeID(sourceID), graph.NodeID(targetID), ce.Relationship)
			edge.SourceDimension = srcDim
			edge.TargetDimension = tgtDim
		}
	} else {
		edge = graph.NewEdgeInDimension(graph.NodeID(sourceID), graph.NodeID(targetID), ce.Relationship, graph.DimensionDefault)
	}

	if ce.Weight != nil {
		edge.RawWeight = *ce.Weight
	} else {
		edge.RawWeight = 1.0
	}
	return edge, nil
}

// interpretForEach binds each item of a resolved array accessor to
// fe.Variable and interprets fe.Emit once per item.
func interpretForEach(fe ForEachPrimitive, ctx templateContext) ([]adapter.Emission, error) {
	collection, err := resolveAccessor(fe.Collection, ctx)
	if err != nil {
		return nil, err
	}
	items, ok := collection.([]any)
	if !ok {
		return nil, fmt.Errorf("declarative: for_each collection '%s' is not an array", fe.Collection)
	}

	emissions := make([]adapter.Emission, 0, len(items))
	for _, item := range items {
		itemCtx := templateContext{
			input:     withLoopVariable(ctx.input, fe.Variable, item),
			adapterID: ctx.adapterID,
			contextID: ctx.contextID,
		}
		emission, err := interpretPrimitives(fe.Emit, itemCtx)
		if err != nil {
			return nil, err
		}
		emissions = append(emissions, emission)
	}
	return emissions, nil
}

// withLoopVariable returns a shallow copy of input (when it's a JSON
// object) with variable bound to item, leaving the original untouched so
// sibling iterations don't see each other's binding.
func withLoopVariable(input any, variable string, item any) any {
	m, ok := input.(map[string]any)
	if !ok {
		return input
	}
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[variable] = item
	return out
}

// interpretCreateProvenance builds a chain node, a mark node carrying the
// rendered annotation (and tags, if present), and the contains edge
// between them.
func interpretCreateProvenance(cp CreateProvenancePrimitive, ctx templateContext) (adapter.Emission, error) {
	chainIDStr, err := renderTemplate(cp.ChainID, ctx)
	if err != nil {
		return adapter.Emission{}, err
	}
	markAnnotation, err := renderTemplate(cp.MarkAnnotation, ctx)
	if err != nil {
		return adapter.Emission{}, err
	}

	chainID := graph.NodeID(chainIDStr)
	markID := graph.NodeID(fmt.Sprintf("mark:%s:%s", ctx.adapterID, chainIDStr))

	chainNode := graph.NewNodeInDimension("chain", graph.ContentProvenance, graph.DimensionProvenance)
	chainNode.ID = chainID

	markNode := graph.NewNodeInDimension("mark", graph.ContentProvenance, graph.DimensionProvenance)
	markNode.ID = markID
	markNode = markNode.WithProperty("annotation", graph.StringValue(markAnnotation))

	if cp.Tags != "" {
		if tagsValue, err := resolveAccessor(cp.Tags, ctx); err == nil {
			switch tv := tagsValue.(type) {
			case []any:
				vals := make([]graph.PropertyValue, 0, len(tv))
				for _, t := range tv {
					if s, ok := t.(string); ok {
						vals = append(vals, graph.StringValue(s))
					}
				}
				markNode = markNode.WithProperty("tags", graph.ArrayValue(vals...))
			case string:
				markNode = markNode.WithProperty("tags", graph.ArrayValue(graph.StringValue(tv)))
			}
		}
	}

	containsEdge := graph.NewEdgeInDimension(chainID, markID, "contains", graph.DimensionProvenance)

	return adapter.NewEmission().
		WithAnnotatedNode(adapter.NewAnnotatedNode(chainNode)).
		WithAnnotatedNode(adapter.NewAnnotatedNode(markNode)).
		WithAnnotatedEdge(adapter.NewAnnotatedEdge(containsEdge)), nil
}
