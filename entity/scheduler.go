package entity

import (
	"context"

	"github.com/entityscheduler/entityscheduler/entity/emit"
)

// Scheduler is the replayable, per-entity driver that implements §4.1's
// loop: on each activation it ingests inbound messages into the queue,
// builds one batch (§4.2), executes it (§4.4), applies the lock protocol
// (§4.3) when the batch ends in a lock request, and reports the state to
// write back plus whether the orchestration may terminate.
//
// Grounded on the teacher's Engine[S].Run / runConcurrentFromCheckpoint
// pair (graph/engine.go): rehydrate-from-checkpoint, execute one step,
// checkpoint-and-continue. A Scheduler holds no per-entity mutable state
// itself — SchedulerState, passed by value into RunIteration and returned,
// is the sole iteration-to-iteration carrier (§5 Replay determinism).
type Scheduler[T any] struct {
	self       EntityId
	dispatcher *Dispatcher[T]
	opts       SchedulerOptions
}

// NewScheduler constructs a Scheduler for one entity, bound to a
// Dispatcher carrying that entity class's operation registry.
func NewScheduler[T any](self EntityId, dispatcher *Dispatcher[T], options ...interface{}) *Scheduler[T] {
	opts := resolveOptions(options)
	if dispatcher.opts.OutOfProcess {
		opts.OutOfProcess = true
	}
	return &Scheduler[T]{self: self, dispatcher: dispatcher, opts: opts}
}

// RunIteration executes exactly one activation of the scheduler loop
// (§4.1). inbound is the count-N envelope the runtime delivered for this
// activation (step 2); isReplaying indicates this activation is a replay
// rather than a live execution (propagated into the Context seen by user
// handlers, §4.5).
//
// Termination follows §4.1 step 4's first branch: entity does not exist,
// no lock is held, and nothing is left queued. It is checked both when the
// batch is empty and after a batch has executed, so an operation that
// destructs the entity, or an unlock that leaves a latent entity idle, ends
// the orchestration in the same iteration. Any other outcome (entity
// still exists, or a lock is blocking) reports terminate=false — the
// runtime is expected to park and redeliver once more messages arrive,
// which manifests as another RunIteration call, not an internal retry
// loop, since message delivery is the runtime's concern (§6).
func (s *Scheduler[T]) RunIteration(ctx context.Context, state SchedulerState, inbound []RequestMessage, isReplaying bool) (SchedulerState, bool, []OutboxEntry, error) {
	for _, msg := range inbound {
		state.Enqueue(msg)
	}

	batch, residual := BuildBatch(state, s.opts.MaxBatchSize)
	state.Queue = residual
	s.opts.Metrics.ObserveQueueDepth(s.self, len(state.Queue))

	if batch.Empty() {
		terminate := !state.EntityExists && !state.IsLocked()
		s.opts.Metrics.ObserveIteration(s.self.ClassName, terminate)
		return state, terminate, nil, nil
	}

	s.opts.Metrics.ObserveBatch(s.self.ClassName, len(batch.Items))
	s.emit("batch_start", map[string]interface{}{"batch_size": len(batch.Items)})

	var outbox []OutboxEntry

	dispatchResult := s.dispatcher.Dispatch(ctx, s.self, &state, batch.Items, isReplaying)
	outbox = append(outbox, dispatchResult.Outbox...)
	if dispatchResult.FirstFailure != nil {
		op := currentOperationName(batch.Items)
		s.opts.Metrics.ObserveOperationFailure(s.self.ClassName, op)
		s.emit("operation_failure", map[string]interface{}{"operation": op, "error": dispatchResult.FirstFailure.Error()})
	}
	s.emit("batch_end", map[string]interface{}{"batch_size": len(batch.Items)})

	if batch.LockRequest != nil {
		applyLockOutcome(&state, *batch.LockRequest, batch.AcquiresLock)
		if state.IsLocked() {
			s.opts.Metrics.SetLockedEntities(s.self.ClassName, 1)
			s.emit("lock_acquired", map[string]interface{}{"holder": *state.LockedBy})
		}
		lockEntries, err := HandleLockRequest(s.self, *batch.LockRequest)
		if err != nil {
			// Protocol violation (§7): logged and dropped, scheduler does
			// not crash. A lock this request just acquired is released
			// again; the rest of the batch's outbox is still flushed.
			if batch.AcquiresLock {
				state.releaseLock()
			}
			s.opts.Metrics.ObserveIteration(s.self.ClassName, false)
			s.emit("protocol_violation", map[string]interface{}{"error": err.Error()})
			return state, false, outbox, err
		}
		outbox = append(outbox, lockEntries...)
	}

	terminate := !state.EntityExists && !state.IsLocked() && len(state.Queue) == 0
	s.opts.Metrics.ObserveIteration(s.self.ClassName, terminate)
	return state, terminate, outbox, nil
}

// emit forwards one event to the configured Emitter, if any.
func (s *Scheduler[T]) emit(msg string, meta map[string]interface{}) {
	if s.opts.Emitter == nil {
		return
	}
	s.opts.Emitter.Emit(emit.Event{
		InstanceID: NewSchedulerInstanceID(s.self),
		ClassName:  s.self.ClassName,
		Msg:        msg,
		Meta:       meta,
	})
}

// currentOperationName reports the last non-lock operation name in a batch,
// used to label an operation-failure metric when the dispatcher does not
// pinpoint which item failed.
func currentOperationName(items []RequestMessage) string {
	for i := len(items) - 1; i >= 0; i-- {
		if !items[i].IsLockRequest() && !items[i].IsUnlock() {
			return items[i].Operation
		}
	}
	return ""
}

// Status produces the §4.6 diagnostic snapshot. currentOperation is always
// nil here: a Scheduler's RunIteration executes a batch to completion
// before returning, so there is never an in-flight operation to report
// between calls — unlike a long-running in-process handler awaiting an
// activity, which is outside this package's scope (§1).
func (s *Scheduler[T]) Status(state SchedulerState) Status {
	return NewStatus(state)
}
