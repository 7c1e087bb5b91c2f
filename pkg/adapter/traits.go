package adapter

// AdapterInput carries an opaque payload, tagged with the input kind it
// claims to satisfy and the context it targets. The framework never
// inspects Data itself; adapters downcast it via InputAs.
type AdapterInput struct {
	Kind      string
	ContextID string
	Data      any
}

func NewAdapterInput(kind string, data any, contextID string) AdapterInput {
	return AdapterInput{Kind: kind, ContextID: contextID, Data: data}
}

// InputAs downcasts an AdapterInput's opaque Data to T, the idiomatic-Go
// replacement for the original's Any::downcast. ok is false when the
// payload doesn't hold a T — adapters map that to InvalidInputErr().
func InputAs[T any](input *AdapterInput) (T, bool) {
	v, ok := input.Data.(T)
	return v, ok
}

// Adapter turns domain-specific input into graph mutations. Its process
// method is only ever called with input whose Kind matches InputKind.
type Adapter interface {
	ID() string
	InputKind() string
	Process(input *AdapterInput, sink AdapterSink) *AdapterError

	// TransformEvents translates accumulated graph events into
	// domain-meaningful outbound events, given a snapshot of the context
	// taken after the ingest call's mutations settled. The default
	// (adapters that don't need this) returns nil.
	TransformEvents(events []GraphEvent, snapshot any) []OutboundEvent
}

// OutboundEvent is a domain-meaningful event an adapter surfaces to
// ingest's caller, distinct from the low-level GraphEvent stream.
type OutboundEvent struct {
	Kind    string
	Payload any
}

// BaseAdapter implements the optional TransformEvents hook as a no-op so
// concrete adapters can embed it and only implement Process.
type BaseAdapter struct{}

func (BaseAdapter) TransformEvents(events []GraphEvent, snapshot any) []OutboundEvent {
	return nil
}
