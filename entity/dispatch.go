package entity

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handler is a registered user operation implementation for entity state
// type T (§9 Design Notes: "a registry: className → (operationName →
// handler(ctx, input))").
type Handler[T any] func(c *Context[T]) error

// OperationRegistry maps operation names to their handlers for one entity
// class.
type OperationRegistry[T any] map[string]Handler[T]

// OutboxEntry is a message ready to flush: either a response to a
// non-signal request, or a freshly minted inter-entity request (a signal or
// a forwarded/initiated lock request).
type OutboxEntry struct {
	// TargetInstanceID is the scheduler instance id to deliver to.
	TargetInstanceID string

	// Response is set when this entry is a ResponseMessage delivery.
	Response *ResponseMessage

	// Request is set when this entry is a fresh RequestMessage delivery
	// (a signal, or a forwarded/completed lock protocol message).
	Request *RequestMessage
}

// OutOfProcessResponse is one positional reply in an OutOfProcessResult,
// mapped onto non-signal requests by position (§4.4).
type OutOfProcessResponse struct {
	Result  string
	IsError bool
	Details string
}

// OutOfProcessSignal is a freshly emitted signal from an out-of-process
// batch invocation (§4.4).
type OutOfProcessSignal struct {
	Target    EntityId
	Operation string
	Input     string
}

// OutOfProcessResult is the JSON document an out-of-process worker returns
// for one batch (§4.4): "{ entityExists, entityState, responses:
// [{result,isError}], signals: [{target,name,input}] }".
type OutOfProcessResult struct {
	EntityExists bool
	EntityState  string
	Responses    []OutOfProcessResponse
	Signals      []OutOfProcessSignal
}

// Invoker dispatches one whole batch to an out-of-process worker (§4.4
// "Out-of-process (batched)"). The scheduler applies the returned
// entityExists/entityState, maps Responses onto non-signal requests by
// position, and emits Signals as fresh RequestMessages.
type Invoker interface {
	InvokeBatch(ctx context.Context, className string, entityExists bool, entityState string, ops []RequestMessage) (OutOfProcessResult, error)
}

// Dispatcher invokes user operations for one entity class and captures
// their results into outbox entries (§4.4 Operation Dispatch).
type Dispatcher[T any] struct {
	className string
	registry  OperationRegistry[T]
	opts      SchedulerOptions
	invoker   Invoker
}

// NewDispatcher constructs a Dispatcher bound to one entity class's
// operation registry.
func NewDispatcher[T any](className string, registry OperationRegistry[T], options ...interface{}) (*Dispatcher[T], error) {
	opts := resolveOptions(options)
	if opts.OutOfProcess {
		return nil, &SchedulerError{Type: ExceptionFatalStartup, Message: ErrOutOfProcessUnsupported.Error()}
	}
	return &Dispatcher[T]{className: className, registry: registry, opts: opts}, nil
}

// NewOutOfProcessDispatcher constructs a Dispatcher that delegates every
// batch to invoker instead of an in-process registry (§4.4).
func NewOutOfProcessDispatcher[T any](className string, invoker Invoker, options ...interface{}) *Dispatcher[T] {
	opts := resolveOptions(options)
	opts.OutOfProcess = true
	return &Dispatcher[T]{className: className, opts: opts, invoker: invoker}
}

// DispatchResult is the outcome of dispatching one batch's operations.
type DispatchResult struct {
	// Outbox holds responses and freshly emitted signals to flush.
	Outbox []OutboxEntry

	// FirstFailure is the first handler failure observed this iteration,
	// surfaced for diagnostics in addition to being captured per-response
	// (§4.4, §7: "The first such failure per iteration is additionally
	// surfaced as a runtime failure for diagnostics").
	FirstFailure error
}

// Dispatch executes every operation/signal in batch.Items against state, in
// order, mutating state in place and returning the outbox entries to flush
// (§4.4).
func (d *Dispatcher[T]) Dispatch(ctx context.Context, self EntityId, state *SchedulerState, items []RequestMessage, isReplaying bool) DispatchResult {
	if d.opts.OutOfProcess {
		return d.dispatchOutOfProcess(ctx, state, items)
	}
	return d.dispatchInProcess(ctx, self, state, items, isReplaying)
}

func (d *Dispatcher[T]) dispatchInProcess(ctx context.Context, self EntityId, state *SchedulerState, items []RequestMessage, isReplaying bool) DispatchResult {
	var result DispatchResult

	for _, msg := range items {
		if msg.IsUnlock() {
			// §4.3 Release: atomic with clearing lockedBy, no response ever.
			state.releaseLock()
			continue
		}

		isNewlyConstructed := !state.EntityExists
		initial := d.deserializeState(state)

		c := newContext[T](ctx, self, msg, isReplaying, isNewlyConstructed, initial)
		// §4.4: the entity is considered to exist from the first operation
		// that touches it, even if the operation raises.
		state.EntityExists = true

		err := d.invokeHandler(c, msg.Operation)
		// Write back only a handle the handler wrote, or the first blob of a
		// newly existing entity (invariant 1); a read leaves the blob as is.
		if err == nil && (c.state.written || state.EntityState == nil) {
			if encoded, marshalErr := json.Marshal(c.state.value); marshalErr != nil {
				err = fmt.Errorf("serialize state: %w", marshalErr)
			} else {
				state.setState(string(encoded))
			}
		}

		if err != nil && result.FirstFailure == nil {
			result.FirstFailure = err
		}

		if err == nil {
			for _, sig := range c.signals {
				result.Outbox = append(result.Outbox, OutboxEntry{
					TargetInstanceID: NewSchedulerInstanceID(sig.target),
					Request: &RequestMessage{
						ID:               NewRequestID(),
						ParentInstanceID: NewSchedulerInstanceID(self),
						Operation:        sig.operation,
						Input:            sig.input,
						IsSignal:         true,
					},
				})
			}
		}

		if !msg.IsSignal {
			resp := ResponseMessage{CorrelationID: msg.ID}
			switch {
			case err != nil:
				resp.ExceptionType = ExceptionUser
				resp.ExceptionDetails = err.Error()
			case c.hasResult:
				resp.Result = c.result
			}
			result.Outbox = append(result.Outbox, OutboxEntry{TargetInstanceID: msg.ParentInstanceID, Response: &resp})
		}

		// destructOnExit is a flag, not a throw (§9 Design Notes): it is
		// honored whether or not the operation raised.
		if c.destructOnExit {
			state.clearState()
		}
	}

	return result
}

// invokeHandler looks up and calls the registered handler, translating a
// missing registration into ErrUnknownOperation (§8 scenario 6).
func (d *Dispatcher[T]) invokeHandler(c *Context[T], operation string) error {
	h, ok := d.registry[operation]
	if !ok {
		return ErrUnknownOperation
	}
	return h(c)
}

// deserializeState decodes the current opaque state blob into T, yielding
// the zero value when the entity does not yet exist (§4.5).
func (d *Dispatcher[T]) deserializeState(state *SchedulerState) T {
	var v T
	if state.EntityState == nil {
		return v
	}
	_ = json.Unmarshal([]byte(*state.EntityState), &v)
	return v
}

func (d *Dispatcher[T]) dispatchOutOfProcess(ctx context.Context, state *SchedulerState, items []RequestMessage) DispatchResult {
	var result DispatchResult

	var plain []RequestMessage
	for _, msg := range items {
		if msg.IsUnlock() {
			state.releaseLock()
			continue
		}
		plain = append(plain, msg)
	}
	if len(plain) == 0 {
		return result
	}

	currentState := ""
	if state.EntityState != nil {
		currentState = *state.EntityState
	}

	out, err := d.invoker.InvokeBatch(ctx, d.className, state.EntityExists, currentState, plain)
	if err != nil {
		// Fatal per-batch error (§4.4: "Non-JSON output is a fatal
		// per-batch error"): every non-signal request in the batch fails.
		result.FirstFailure = err
		for _, msg := range plain {
			if msg.IsSignal {
				continue
			}
			result.Outbox = append(result.Outbox, OutboxEntry{
				TargetInstanceID: msg.ParentInstanceID,
				Response: &ResponseMessage{
					CorrelationID:    msg.ID,
					ExceptionType:    ExceptionSerialization,
					ExceptionDetails: err.Error(),
				},
			})
		}
		return result
	}

	state.EntityExists = out.EntityExists
	if out.EntityExists {
		state.setState(out.EntityState)
	} else {
		state.clearState()
	}

	responseIdx := 0
	for _, msg := range plain {
		if msg.IsSignal {
			continue
		}
		resp := ResponseMessage{CorrelationID: msg.ID}
		if responseIdx < len(out.Responses) {
			r := out.Responses[responseIdx]
			if r.IsError {
				resp.ExceptionType = ExceptionUser
				resp.ExceptionDetails = r.Details
				if result.FirstFailure == nil {
					result.FirstFailure = fmt.Errorf("%s", r.Details)
				}
			} else {
				resp.Result = r.Result
			}
			responseIdx++
		}
		result.Outbox = append(result.Outbox, OutboxEntry{TargetInstanceID: msg.ParentInstanceID, Response: &resp})
	}

	for _, sig := range out.Signals {
		result.Outbox = append(result.Outbox, OutboxEntry{
			TargetInstanceID: NewSchedulerInstanceID(sig.Target),
			Request: &RequestMessage{
				ID:               NewRequestID(),
				ParentInstanceID: NewSchedulerInstanceID(EntityId{ClassName: d.className}),
				Operation:        sig.Operation,
				Input:            sig.Input,
				IsSignal:         true,
			},
		})
	}

	return result
}
