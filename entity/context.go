package entity

import (
	"context"
	"encoding/json"
)

// StateHandle is a view onto an entity's state, returned by
// Context.GetState, holding the decoded value for one dispatch and whether
// the handler wrote it. It is made explicit rather than ambient (§9 Design Notes: "Replace
// [thread-local current context] with explicit context passing into each
// user handler").
type StateHandle[T any] struct {
	value   T
	loaded  bool
	written bool
}

// Get returns the current state value. The dispatcher decodes the stored
// blob before the handler runs, not on first access; when the entity has
// no state yet, the value is the type's zero value.
func (h *StateHandle[T]) Get() T {
	return h.value
}

// Set replaces the state value and marks the handle dirty so the
// dispatcher re-serializes it on write-back (§4.5 "Write-back").
func (h *StateHandle[T]) Set(v T) {
	h.value = v
	h.written = true
}

// Context is the execution-time surface exposed to user operation handlers
// (§4.5). A Context is lent to the handler for the duration of one
// dispatch and reclaimed at return (§9 Design Notes: "borrow" model — no
// long-lived reference escapes).
type Context[T any] struct {
	ctx context.Context

	self              EntityId
	operationName     string
	input             string
	isReplaying       bool
	isNewlyConstructed bool

	state *StateHandle[T]

	result        string
	hasResult     bool
	destructOnExit bool

	signals []pendingSignal
}

// pendingSignal is a buffered outbound signal awaiting outbox flush.
type pendingSignal struct {
	target    EntityId
	operation string
	input     string
}

// newContext constructs a Context for one operation dispatch. initial is
// the deserialized state value read from SchedulerState.EntityState (or the
// zero value, if the entity did not yet exist).
func newContext[T any](ctx context.Context, self EntityId, msg RequestMessage, isReplaying bool, isNewlyConstructed bool, initial T) *Context[T] {
	return &Context[T]{
		ctx:                ctx,
		self:               self,
		operationName:      msg.Operation,
		input:              msg.Input,
		isReplaying:        isReplaying,
		isNewlyConstructed: isNewlyConstructed,
		state:              &StateHandle[T]{value: initial, loaded: true},
	}
}

// GetState returns the stateful handle for reading or writing entity state.
func (c *Context[T]) GetState() *StateHandle[T] {
	return c.state
}

// OperationName returns the name of the operation currently being handled.
func (c *Context[T]) OperationName() string {
	return c.operationName
}

// Key returns this entity's key component.
func (c *Context[T]) Key() string {
	return c.self.Key
}

// Self returns this entity's full identity.
func (c *Context[T]) Self() EntityId {
	return c.self
}

// IsReplaying reports whether this dispatch is occurring during replay
// rather than live execution (§4.5, §5 Replay determinism).
func (c *Context[T]) IsReplaying() bool {
	return c.isReplaying
}

// IsNewlyConstructed reports whether this operation is the one that first
// brought the entity into existence, or recreated it after a same-batch
// destructOnExit (§4.4: "Subsequent operations in the same batch observe
// isNewlyConstructed == true").
func (c *Context[T]) IsNewlyConstructed() bool {
	return c.isNewlyConstructed
}

// GetOperationContent deserializes the operation's input payload into v.
func (c *Context[T]) GetOperationContent(v any) error {
	if c.input == "" {
		return nil
	}
	return json.Unmarshal([]byte(c.input), v)
}

// Return records the operation's result. Ignored for signals (§4.5).
func (c *Context[T]) Return(value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.result = string(encoded)
	c.hasResult = true
	return nil
}

// DestructOnExit flags the entity for deletion at the end of this
// operation (§4.5, §9 Design Notes: "a flag, not a throw").
func (c *Context[T]) DestructOnExit() {
	c.destructOnExit = true
}

// SignalEntity buffers an inter-entity signal into the outbox, to be
// flushed after the batch completes (§4.5, §4.1 step 6).
func (c *Context[T]) SignalEntity(target EntityId, operation string, input any) error {
	encoded, err := json.Marshal(input)
	if err != nil {
		return err
	}
	c.signals = append(c.signals, pendingSignal{target: target, operation: operation, input: string(encoded)})
	return nil
}

// Context returns the underlying context.Context, for use with
// CallActivityAsync-style runtime delegation (§4.5).
func (c *Context[T]) Context() context.Context {
	return c.ctx
}
