// Package emit provides pluggable observability for entity scheduler
// execution.
package emit

import "context"

// Emitter receives observability events from the scheduler loop.
//
// Implementations must be non-blocking and safe for concurrent use — a
// scheduler may drive many entity instances concurrently, each emitting on
// its own goroutine. Emit must not panic; emission failures should be
// logged internally rather than surfaced to the caller.
type Emitter interface {
	Emit(event Event)

	// EmitBatch emits several events as one operation, preserving order.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until all buffered events are sent or ctx is done.
	Flush(ctx context.Context) error
}
