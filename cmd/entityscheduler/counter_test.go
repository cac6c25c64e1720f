package main

import (
	"context"
	"testing"

	"github.com/entityscheduler/entityscheduler/entity"
)

func newCounterInstance(t *testing.T, self entity.EntityId) entity.Instance {
	t.Helper()
	factory := newCounterFactory(nil, nil)
	return factory(self)
}

func TestCounterFactory_AddAndGet(t *testing.T) {
	self := entity.EntityId{ClassName: "Counter", Key: "a"}
	inst := newCounterInstance(t, self)
	ctx := context.Background()

	state, terminate, outbox, err := inst.RunIteration(ctx, entity.NewSchedulerState(), []entity.RequestMessage{
		{ID: "1", ParentInstanceID: "@client@", Operation: "add", Input: "4"},
	}, false)
	if err != nil {
		t.Fatalf("RunIteration: %v", err)
	}
	if terminate {
		t.Fatal("expected terminate false: entity now exists")
	}
	if len(outbox) != 1 || outbox[0].Response == nil || outbox[0].Response.Result != "4" {
		t.Fatalf("outbox = %+v, want a single response with result 4", outbox)
	}

	state, terminate, outbox, err = inst.RunIteration(ctx, state, []entity.RequestMessage{
		{ID: "2", ParentInstanceID: "@client@", Operation: "get"},
	}, false)
	if err != nil {
		t.Fatalf("RunIteration: %v", err)
	}
	if len(outbox) != 1 || outbox[0].Response.Result != "4" {
		t.Fatalf("outbox = %+v, want result 4", outbox)
	}
	_ = state
}

// TestCounterFactory_SetAddGet runs the set(5), add(3), get() sequence of
// spec.md §8 scenario 1 against the CLI's own Counter factory, one
// iteration per operation. This Counter's add returns the new total, so
// the responses are [null, 8, 8].
func TestCounterFactory_SetAddGet(t *testing.T) {
	self := entity.EntityId{ClassName: "Counter", Key: "c1"}
	inst := newCounterInstance(t, self)
	ctx := context.Background()

	state, _, outbox, err := inst.RunIteration(ctx, entity.NewSchedulerState(), []entity.RequestMessage{
		{ID: "1", ParentInstanceID: "@client@", Operation: "set", Input: "5"},
	}, false)
	if err != nil {
		t.Fatalf("RunIteration set: %v", err)
	}
	if len(outbox) != 1 || outbox[0].Response.IsError() || outbox[0].Response.Result != "" {
		t.Fatalf("outbox = %+v, want a single non-error response with no result", outbox)
	}

	state, _, outbox, err = inst.RunIteration(ctx, state, []entity.RequestMessage{
		{ID: "2", ParentInstanceID: "@client@", Operation: "add", Input: "3"},
	}, false)
	if err != nil {
		t.Fatalf("RunIteration add: %v", err)
	}
	if len(outbox) != 1 || outbox[0].Response.IsError() || outbox[0].Response.Result != "8" {
		t.Fatalf("outbox = %+v, want a single response with result 8", outbox)
	}

	_, _, outbox, err = inst.RunIteration(ctx, state, []entity.RequestMessage{
		{ID: "3", ParentInstanceID: "@client@", Operation: "get"},
	}, false)
	if err != nil {
		t.Fatalf("RunIteration get: %v", err)
	}
	if len(outbox) != 1 || outbox[0].Response.Result != "8" {
		t.Fatalf("outbox = %+v, want result 8", outbox)
	}
}

func TestCounterFactory_Reset(t *testing.T) {
	self := entity.EntityId{ClassName: "Counter", Key: "a"}
	inst := newCounterInstance(t, self)
	ctx := context.Background()

	state, _, _, err := inst.RunIteration(ctx, entity.NewSchedulerState(), []entity.RequestMessage{
		{ID: "1", ParentInstanceID: "@client@", Operation: "add", Input: "10"},
	}, false)
	if err != nil {
		t.Fatalf("RunIteration add: %v", err)
	}

	state, _, _, err = inst.RunIteration(ctx, state, []entity.RequestMessage{
		{ID: "2", ParentInstanceID: "@client@", Operation: "reset", IsSignal: true},
	}, false)
	if err != nil {
		t.Fatalf("RunIteration reset: %v", err)
	}

	_, _, outbox, err := inst.RunIteration(ctx, state, []entity.RequestMessage{
		{ID: "3", ParentInstanceID: "@client@", Operation: "get"},
	}, false)
	if err != nil {
		t.Fatalf("RunIteration get: %v", err)
	}
	if outbox[0].Response.Result != "0" {
		t.Errorf("result after reset = %q, want %q", outbox[0].Response.Result, "0")
	}
}
