// Package declarative interprets YAML-authored adapter specs (ADR-020):
// external consumers describe an adapter as a list of primitives
// (create_node, create_edge, for_each, create_provenance) instead of
// writing Go. DeclarativeAdapter interprets a validated Spec against each
// inbound payload to produce an Emission, the same contract a hand-written
// adapter.Adapter satisfies.
package declarative

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// InputField describes one field a spec requires or permits on its input.
type InputField struct {
	Name      string `yaml:"name"`
	FieldType string `yaml:"field_type"`
	Required  bool   `yaml:"required"`
}

// IDStrategy is how a create_node primitive derives a node's id: either a
// rendered template string, or a list of rendered fields hashed into a
// deterministic UUID v5 (see ids.go) so repeated ingestion of the same
// input upserts instead of duplicating.
type IDStrategy struct {
	Template string
	Hash     []string
}

// UnmarshalYAML accepts `{template: "..."}` or `{hash: ["...", "..."]}`.
func (s *IDStrategy) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Template string   `yaml:"template"`
		Hash     []string `yaml:"hash"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	s.Template = raw.Template
	s.Hash = raw.Hash
	return nil
}

func (s IDStrategy) isHash() bool { return len(s.Hash) > 0 }

// CreateNodePrimitive creates or upserts a single node.
type CreateNodePrimitive struct {
	ID         IDStrategy        `yaml:"id"`
	NodeType   string            `yaml:"node_type"`
	Dimension  string            `yaml:"dimension"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

// CreateEdgePrimitive creates an edge. Dimensions default to "default" when
// neither endpoint dimension is given; when both are given and differ, the
// edge is cross-dimensional.
type CreateEdgePrimitive struct {
	Source          string   `yaml:"source"`
	Target          string   `yaml:"target"`
	Relationship    string   `yaml:"relationship"`
	SourceDimension string   `yaml:"source_dimension,omitempty"`
	TargetDimension string   `yaml:"target_dimension,omitempty"`
	Weight          *float32 `yaml:"weight,omitempty"`
}

// ForEachPrimitive iterates an array accessor, binding each item to
// Variable and interpreting Emit once per item.
type ForEachPrimitive struct {
	Collection string      `yaml:"collection"`
	Variable   string      `yaml:"variable"`
	Emit       []Primitive `yaml:"emit"`
}

// CreateProvenancePrimitive builds a chain node, a mark node, and the
// contains edge between them in one step. Tags, if set, names an accessor
// (e.g. "input.tags") resolved against the same input as every template.
type CreateProvenancePrimitive struct {
	ChainID        string `yaml:"chain_id"`
	MarkAnnotation string `yaml:"mark_annotation"`
	Tags           string `yaml:"tags,omitempty"`
}

// PrimitiveKind discriminates which alternative of Primitive is populated.
type PrimitiveKind string

const (
	KindCreateNode       PrimitiveKind = "create_node"
	KindCreateEdge       PrimitiveKind = "create_edge"
	KindForEach          PrimitiveKind = "for_each"
	KindCreateProvenance PrimitiveKind = "create_provenance"
)

// Primitive is one step in a spec's emit list. Exactly one of the pointer
// fields matching Kind is populated.
type Primitive struct {
	Kind PrimitiveKind

	CreateNode       *CreateNodePrimitive
	CreateEdge       *CreateEdgePrimitive
	ForEach          *ForEachPrimitive
	CreateProvenance *CreateProvenancePrimitive
}

// UnmarshalYAML expects exactly one key per emit list item, naming the
// primitive kind — `- create_node: {...}`, `- for_each: {...}`, and so on.
func (p *Primitive) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]yaml.Node
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return fmt.Errorf("declarative: emit item must have exactly one primitive key, got %d", len(raw))
	}
	for key, node := range raw {
		node := node
		switch PrimitiveKind(key) {
		case KindCreateNode:
			var cn CreateNodePrimitive
			if err := node.Decode(&cn); err != nil {
				return err
			}
			p.Kind, p.CreateNode = KindCreateNode, &cn
		case KindCreateEdge:
			var ce CreateEdgePrimitive
			if err := node.Decode(&ce); err != nil {
				return err
			}
			p.Kind, p.CreateEdge = KindCreateEdge, &ce
		case KindForEach:
			var fe ForEachPrimitive
			if err := node.Decode(&fe); err != nil {
				return err
			}
			p.Kind, p.ForEach = KindForEach, &fe
		case KindCreateProvenance:
			var cp CreateProvenancePrimitive
			if err := node.Decode(&cp); err != nil {
				return err
			}
			p.Kind, p.CreateProvenance = KindCreateProvenance, &cp
		default:
			return fmt.Errorf("declarative: unknown emit primitive %q", key)
		}
	}
	return nil
}

// Spec is a validated declarative adapter definition, parsed from one YAML
// document: required adapter_id, input_kind, emit; optional input_schema.
type Spec struct {
	AdapterID   string       `yaml:"adapter_id"`
	InputKind   string       `yaml:"input_kind"`
	InputSchema []InputField `yaml:"input_schema,omitempty"`
	Emit        []Primitive  `yaml:"emit"`
}
