package runtime

import (
	"context"
	"errors"
	"sync"

	"github.com/entityscheduler/entityscheduler/entity"
	"github.com/entityscheduler/entityscheduler/entity/store"
)

// ActivityFunc implements one named activity invoked via CallActivity.
type ActivityFunc func(ctx context.Context, input string) (string, error)

// FakeRuntime is an in-memory Runtime: one goroutine per active scheduler
// instance, fed by a buffered channel mailbox, persisting through a
// store.Store between activations. It exists to drive entity.Scheduler end
// to end deterministically, the way the teacher's MemStore and LogEmitter
// let tests exercise graph.Engine without a real backend.
//
// FakeRuntime does not implement durable replay: every activation runs
// live (isReplaying is always false). It is a faithful driver of the
// scheduler loop's message accounting and lock protocol, not a substitute
// for a real durable-orchestration host's crash-recovery story.
type FakeRuntime struct {
	registry entity.ClassRegistry
	store    store.Store

	mu         sync.Mutex
	mailboxes  map[string]chan entity.RequestMessage
	pending    map[string]chan entity.ResponseMessage
	activities map[string]ActivityFunc
	breaker    *breakerSend

	wg sync.WaitGroup
}

// NewFakeRuntime constructs a FakeRuntime backed by registry (for
// constructing schedulable Instances on demand) and st (for persisting
// SchedulerState between activations).
func NewFakeRuntime(registry entity.ClassRegistry, st store.Store) *FakeRuntime {
	return &FakeRuntime{
		registry:   registry,
		store:      st,
		mailboxes:  make(map[string]chan entity.RequestMessage),
		pending:    make(map[string]chan entity.ResponseMessage),
		activities: make(map[string]ActivityFunc),
		breaker:    newBreakerSend("entity-mailbox"),
	}
}

// RegisterActivity makes name available to CallActivity.
func (r *FakeRuntime) RegisterActivity(name string, fn ActivityFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities[name] = fn
}

// Activate ensures id's mailbox goroutine is running. It is also called
// implicitly by SendMessage, so external callers rarely need it directly;
// it is useful to warm an entity before its first message arrives.
func (r *FakeRuntime) Activate(_ context.Context, id entity.EntityId) error {
	r.mailboxFor(entity.NewSchedulerInstanceID(id))
	return nil
}

// ContinueAsNew persists nextState for id. FakeRuntime's run loop saves
// state through the same store after every iteration; exposed on the interface for handlers
// or tests that want to force a checkpoint outside the normal loop.
func (r *FakeRuntime) ContinueAsNew(ctx context.Context, id entity.EntityId, nextState entity.SchedulerState) error {
	return r.store.SaveState(ctx, entity.NewSchedulerInstanceID(id), nextState)
}

// SendMessage enqueues msg on targetInstanceID's mailbox, spawning the
// instance's run loop if it is not already active.
func (r *FakeRuntime) SendMessage(ctx context.Context, targetInstanceID string, msg entity.RequestMessage) error {
	mbox := r.mailboxFor(targetInstanceID)
	return r.breaker.do(func() error {
		select {
		case mbox <- msg:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// RaiseEvent delivers resp to whatever CallEntity call is waiting on its
// correlation id. Responses with no known waiter (the caller already gave
// up, or the message was a signal) are dropped.
func (r *FakeRuntime) RaiseEvent(_ context.Context, _ string, resp entity.ResponseMessage) error {
	r.mu.Lock()
	wait, ok := r.pending[resp.CorrelationID]
	if ok {
		delete(r.pending, resp.CorrelationID)
	}
	r.mu.Unlock()
	if ok {
		wait <- resp
	}
	return nil
}

// CallActivity runs the named activity synchronously.
func (r *FakeRuntime) CallActivity(ctx context.Context, name string, input string) (string, error) {
	r.mu.Lock()
	fn, ok := r.activities[name]
	r.mu.Unlock()
	if !ok {
		return "", errors.New("entity/runtime: unregistered activity " + name)
	}
	return fn(ctx, input)
}

// SignalEntity fires a one-way operation at target: no response is ever
// produced or awaited (§3 RequestMessage.isSignal).
func (r *FakeRuntime) SignalEntity(ctx context.Context, target entity.EntityId, operation, input string) error {
	msg := entity.RequestMessage{
		ID:        entity.NewRequestID(),
		Operation: operation,
		Input:     input,
		IsSignal:  true,
	}
	return r.SendMessage(ctx, entity.NewSchedulerInstanceID(target), msg)
}

// CallEntity sends a non-signal operation and blocks for its response,
// surfacing a captured user exception as a *entity.SchedulerError.
func (r *FakeRuntime) CallEntity(ctx context.Context, target entity.EntityId, operation, input string) (string, error) {
	msg := entity.RequestMessage{
		ID:               entity.NewRequestID(),
		ParentInstanceID: clientInstanceID,
		Operation:        operation,
		Input:            input,
	}

	wait := make(chan entity.ResponseMessage, 1)
	r.mu.Lock()
	r.pending[msg.ID] = wait
	r.mu.Unlock()

	if err := r.SendMessage(ctx, entity.NewSchedulerInstanceID(target), msg); err != nil {
		r.mu.Lock()
		delete(r.pending, msg.ID)
		r.mu.Unlock()
		return "", err
	}

	select {
	case resp := <-wait:
		if resp.IsError() {
			return "", &entity.SchedulerError{Type: resp.ExceptionType, Message: resp.ExceptionDetails, EntityID: target}
		}
		return resp.Result, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ReadEntityStatus loads the persisted state for target, if any, and
// derives its §4.6 status snapshot without activating the instance.
func (r *FakeRuntime) ReadEntityStatus(ctx context.Context, target entity.EntityId) (entity.Status, error) {
	instanceID := entity.NewSchedulerInstanceID(target)
	state, err := r.store.LoadState(ctx, instanceID)
	if errors.Is(err, store.ErrNotFound) {
		return entity.Status{}, nil
	}
	if err != nil {
		return entity.Status{}, err
	}
	inst, err := r.registry.New(target)
	if err != nil {
		return entity.Status{}, err
	}
	return inst.Status(state), nil
}

// Wait blocks until every spawned instance goroutine has exited (all
// orchestrations terminated). Intended for tests driving a bounded
// scenario to completion.
func (r *FakeRuntime) Wait() {
	r.wg.Wait()
}

// clientInstanceID marks requests originated by a runtime client call
// rather than another entity, so responses to it are never mistaken for
// an inter-entity signal echo.
const clientInstanceID = "@client@"

func (r *FakeRuntime) mailboxFor(instanceID string) chan entity.RequestMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.mailboxes[instanceID]; ok {
		return ch
	}
	ch := make(chan entity.RequestMessage, 64)
	r.mailboxes[instanceID] = ch
	r.wg.Add(1)
	go r.run(instanceID, ch)
	return ch
}

// run drives one entity's scheduler loop until it terminates (§4.1 step 4)
// or its mailbox is closed.
func (r *FakeRuntime) run(instanceID string, mbox chan entity.RequestMessage) {
	defer r.wg.Done()

	id, err := entity.ParseSchedulerInstanceID(instanceID)
	if err != nil {
		return
	}
	inst, err := r.registry.New(id)
	if err != nil {
		return
	}

	ctx := context.Background()
	state, err := r.store.LoadState(ctx, instanceID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return
	}

	progressed := false
	for {
		var inbound []entity.RequestMessage
		if !progressed || len(state.Queue) == 0 {
			var ok bool
			inbound, ok = r.drain(mbox)
			if !ok {
				return
			}
		}
		before := len(state.Queue) + len(inbound)

		next, terminate, outbox, _ := inst.RunIteration(ctx, state, inbound, false)
		state = next
		// A batch that consumed messages may leave more queued behind it
		// (after a lock request, or past MaxBatchSize); run again before
		// waiting for new mail so they are not stranded.
		progressed = len(state.Queue) < before

		if err := r.store.SaveState(ctx, instanceID, state); err != nil {
			continue
		}

		for _, entry := range outbox {
			r.flush(ctx, entry)
		}

		if terminate {
			_ = r.store.DeleteState(ctx, instanceID)
			r.mu.Lock()
			delete(r.mailboxes, instanceID)
			r.mu.Unlock()
			return
		}
	}
}

// drain blocks for the first message, then greedily collects whatever else
// is already queued, mirroring a durable-orchestration host batching
// multiple delivered events into one activation.
func (r *FakeRuntime) drain(mbox chan entity.RequestMessage) ([]entity.RequestMessage, bool) {
	first, ok := <-mbox
	if !ok {
		return nil, false
	}
	batch := []entity.RequestMessage{first}
	for {
		select {
		case msg, ok := <-mbox:
			if !ok {
				return batch, true
			}
			batch = append(batch, msg)
		default:
			return batch, true
		}
	}
}

func (r *FakeRuntime) flush(ctx context.Context, entry entity.OutboxEntry) {
	if entry.Request != nil {
		_ = r.SendMessage(ctx, entry.TargetInstanceID, *entry.Request)
		return
	}
	if entry.Response != nil {
		_ = r.RaiseEvent(ctx, entry.TargetInstanceID, *entry.Response)
	}
}
