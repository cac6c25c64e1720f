package entity

import "context"

// Instance is the non-generic surface the scheduler loop exposes to a
// durable-workflow runtime driver. Scheduler[T] implements Instance for
// every concrete state type T, letting a runtime hold a heterogeneous set
// of entity schedulers behind one interface (§9 Design Notes: the registry
// is "className → (operationName → handler)"; Instance is one level up,
// "className → constructor of a schedulable entity").
type Instance interface {
	// RunIteration executes exactly one scheduler-loop iteration (§4.1):
	// ingest inbound, build and execute one batch, and report whether the
	// entity should terminate its orchestration (latent, empty queue, no
	// lock held).
	RunIteration(ctx context.Context, state SchedulerState, inbound []RequestMessage, isReplaying bool) (next SchedulerState, terminate bool, outbox []OutboxEntry, err error)

	// Status produces the §4.6 diagnostic snapshot for the given state.
	Status(state SchedulerState) Status
}

// Factory constructs a schedulable Instance for one entity of a given
// class. Constructed fresh per activation since Scheduler[T] carries no
// mutable per-entity state of its own — only SchedulerState does.
type Factory func(self EntityId) Instance

// ClassRegistry maps an entity class name to the factory that builds its
// scheduler instances, the runtime-facing half of the dynamic operation
// dispatch design (§9 Design Notes).
type ClassRegistry map[string]Factory

// New looks up the factory for id.ClassName and constructs an Instance, or
// reports an error if the class is unregistered.
func (r ClassRegistry) New(id EntityId) (Instance, error) {
	factory, ok := r[id.ClassName]
	if !ok {
		return nil, &SchedulerError{
			Type:     ExceptionFatalStartup,
			Message:  "unregistered entity class " + id.ClassName,
			EntityID: id,
		}
	}
	return factory(id), nil
}
