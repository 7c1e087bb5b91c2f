package adapter

// RouteResult reports how many adapters a router invoked and any
// per-adapter errors. One adapter's error never prevents others from
// running.
type RouteResult struct {
	AdaptersInvoked int
	Errors          []AdapterInvocationError
}

// AdapterInvocationError pairs an adapter id with the error it returned.
type AdapterInvocationError struct {
	AdapterID string
	Err       *AdapterError
}

// SinkFactory builds a fresh sink for the named adapter — each matching
// adapter gets its own, so their emissions never interleave.
type SinkFactory func(adapterID string) AdapterSink

// InputRouter dispatches input to every registered adapter whose
// InputKind matches, sequentially, each through its own sink.
type InputRouter struct {
	adapters []Adapter
}

func NewInputRouter() *InputRouter {
	return &InputRouter{}
}

func (r *InputRouter) Register(a Adapter) {
	r.adapters = append(r.adapters, a)
}

// Matching returns every registered adapter whose InputKind equals kind,
// in registration order.
func (r *InputRouter) Matching(kind string) []Adapter {
	var out []Adapter
	for _, a := range r.adapters {
		if a.InputKind() == kind {
			out = append(out, a)
		}
	}
	return out
}

// Route dispatches input to every matching adapter, sequentially, each
// with its own sink from sinkFactory. No matching adapter is not an
// error at this layer — zero invocations, zero errors.
func (r *InputRouter) Route(input *AdapterInput, sinkFactory SinkFactory) RouteResult {
	result := RouteResult{}
	for _, a := range r.Matching(input.Kind) {
		sink := sinkFactory(a.ID())
		result.AdaptersInvoked++
		if err := a.Process(input, sink); err != nil {
			result.Errors = append(result.Errors, AdapterInvocationError{AdapterID: a.ID(), Err: err})
		}
	}
	return result
}
