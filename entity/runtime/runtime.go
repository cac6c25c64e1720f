// Package runtime defines the durable-orchestration collaborator the
// entity scheduler depends on (§6) and an in-memory reference
// implementation for driving the scheduler loop deterministically.
package runtime

import (
	"context"

	"github.com/entityscheduler/entityscheduler/entity"
)

// Runtime is the narrow interface the scheduler loop depends on for the
// primitives that a durable-orchestration host provides but this module
// does not implement: activating an orchestration instance, persisting a
// continuation and re-entering the loop, delivering a message to another
// instance's mailbox, and completing a short-lived activity out of line.
//
// Grounded on the teacher's pattern of depending on narrow interfaces
// (store.Store, emit.Emitter) rather than a concrete engine — Runtime
// plays the same role for the pieces of the host this package never
// implements.
type Runtime interface {
	// Activate starts or resumes the orchestration instance for id,
	// ensuring it is listening for inbound messages.
	Activate(ctx context.Context, id entity.EntityId) error

	// ContinueAsNew persists nextState as the instance's continuation and
	// lets the host schedule the next activation — the
	// "continue as new" primitive §4.1's loop relies on instead of letting
	// orchestration history grow unbounded.
	ContinueAsNew(ctx context.Context, id entity.EntityId, nextState entity.SchedulerState) error

	// SendMessage delivers msg to targetInstanceID's mailbox: an
	// operation, a signal, or a lock-protocol message.
	SendMessage(ctx context.Context, targetInstanceID string, msg entity.RequestMessage) error

	// RaiseEvent delivers resp back to whoever is awaiting the
	// correlation id it carries — typically a client's CallEntity, or
	// another entity's pending request.
	RaiseEvent(ctx context.Context, targetInstanceID string, resp entity.ResponseMessage) error

	// CallActivity executes a short-lived, non-entity unit of work and
	// returns its JSON-encoded result. entity.Context has no activity
	// method of its own; callers invoke CallActivity on the runtime.
	CallActivity(ctx context.Context, name string, input string) (string, error)
}
