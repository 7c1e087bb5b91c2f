package declarative

import (
	"fmt"
	"os"

	"github.com/orneryd/plexusgraph/pkg/adapter"
	"gopkg.in/yaml.v3"
)

// DeclarativeAdapter interprets a validated Spec at runtime (ADR-020). All
// input is a decoded JSON value (map[string]any / []any / string / float64
// / bool / nil, as encoding/json's Unmarshal-into-any produces).
type DeclarativeAdapter struct {
	adapter.BaseAdapter
	spec Spec
}

// NewDeclarativeAdapter validates spec (Invariant D1: dual obligation)
// before returning the adapter that will interpret it.
func NewDeclarativeAdapter(spec Spec) (*DeclarativeAdapter, error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}
	return &DeclarativeAdapter{spec: spec}, nil
}

func (a *DeclarativeAdapter) ID() string        { return a.spec.AdapterID }
func (a *DeclarativeAdapter) InputKind() string { return a.spec.InputKind }

func (a *DeclarativeAdapter) Process(input *adapter.AdapterInput, sink adapter.AdapterSink) *adapter.AdapterError {
	if len(a.spec.InputSchema) > 0 {
		if err := validateInput(input.Data, a.spec.InputSchema); err != nil {
			return adapter.InvalidInputErr()
		}
	}

	ctx := templateContext{input: input.Data, adapterID: a.spec.AdapterID, contextID: input.ContextID}

	emission, err := interpretPrimitives(a.spec.Emit, ctx)
	if err != nil {
		return adapter.InternalErr("%v", err)
	}

	if emission.IsEmpty() {
		return nil
	}
	_, aerr := sink.Emit(emission)
	return aerr
}

// validateSpec enforces Invariant D1 at registration time: a spec using
// create_provenance (at any nesting depth through for_each) must also
// create at least one semantic-dimension node, or provenance marks would
// accumulate with nothing for them to document.
func validateSpec(spec Spec) error {
	hasProvenance := hasPrimitiveRecursive(spec.Emit, func(p Primitive) bool {
		return p.Kind == KindCreateProvenance
	})
	if !hasProvenance {
		return nil
	}

	hasSemanticNode := hasPrimitiveRecursive(spec.Emit, func(p Primitive) bool {
		return p.Kind == KindCreateNode && p.CreateNode.Dimension == "semantic"
	})
	if !hasSemanticNode {
		return fmt.Errorf("declarative: %s violates the dual obligation invariant: create_provenance with no semantic create_node", spec.AdapterID)
	}
	return nil
}

func hasPrimitiveRecursive(primitives []Primitive, pred func(Primitive) bool) bool {
	for _, p := range primitives {
		if pred(p) {
			return true
		}
		if p.Kind == KindForEach && p.ForEach != nil && hasPrimitiveRecursive(p.ForEach.Emit, pred) {
			return true
		}
	}
	return false
}

// validateInput checks input (a decoded JSON value) against schema: every
// required field must be present and non-null; every present field whose
// type is declared must match it.
func validateInput(input any, schema []InputField) error {
	m, _ := input.(map[string]any)

	for _, field := range schema {
		value, present := m[field.Name]
		if field.Required && (!present || value == nil) {
			return fmt.Errorf("declarative: missing required field %s", field.Name)
		}
		if present && value != nil && !typeMatches(value, field.FieldType) {
			return fmt.Errorf("declarative: field %s has wrong type, expected %s", field.Name, field.FieldType)
		}
	}
	return nil
}

func typeMatches(value any, fieldType string) bool {
	switch fieldType {
	case "string":
		_, ok := value.(string)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "number":
		_, ok := value.(float64)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

// ParseSpec decodes one YAML document into a Spec.
func ParseSpec(data []byte) (Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return Spec{}, err
	}
	if spec.AdapterID == "" {
		return Spec{}, fmt.Errorf("declarative: spec missing adapter_id")
	}
	if spec.InputKind == "" {
		return Spec{}, fmt.Errorf("declarative: spec %s missing input_kind", spec.AdapterID)
	}
	return spec, nil
}

// LoadSpecFile reads and parses a YAML spec file, building the adapter it
// describes. Matches the specLoader signature IngestPipeline.RegisterSpecsFromDir
// expects.
func LoadSpecFile(path string) (adapter.Adapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	spec, err := ParseSpec(data)
	if err != nil {
		return nil, err
	}
	return NewDeclarativeAdapter(spec)
}
