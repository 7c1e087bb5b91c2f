// Package plexuserr defines sentinel errors. Call sites wrap these with
// fmt.Errorf("...: %w", ...) for context; callers discriminate with
// errors.Is, mirroring the teacher's storage.ErrNotFound style rather than
// a custom exception hierarchy. The engine and provenance packages return
// ErrContextNotFound and ErrNodeNotFound; the adapter and ingest layers
// report their failures as adapter.AdapterError kinds, and no code in this
// module returns ErrInvalidInput, ErrSkipped, ErrCancelled or ErrInternal.
package plexuserr

import "errors"

var (
	// ErrContextNotFound is returned when an operation names a context id
	// that does not exist.
	ErrContextNotFound = errors.New("plexus: context not found")

	// ErrNodeNotFound is returned when an operation names a node id that
	// does not exist in the addressed context.
	ErrNodeNotFound = errors.New("plexus: node not found")

	// ErrInvalidInput is returned when an adapter receives a payload that
	// doesn't match its declared input kind.
	ErrInvalidInput = errors.New("plexus: invalid input")

	// ErrSkipped signals graceful, intentional inactivity — not a failure.
	ErrSkipped = errors.New("plexus: skipped")

	// ErrCancelled is returned when external cancellation interrupts
	// in-flight work between commit-safe boundaries.
	ErrCancelled = errors.New("plexus: cancelled")

	// ErrInternal covers poisoned shared state and other failures that
	// don't fit a more specific sentinel. An input kind with no registered
	// adapter is reported by the ingest pipeline as adapter.InternalErr, an
	// AdapterError of kind Internal, not through this sentinel.
	ErrInternal = errors.New("plexus: internal error")
)
