package runtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/entityscheduler/entityscheduler/entity"
	"github.com/entityscheduler/entityscheduler/entity/store"
)

type counterState struct {
	Value int `json:"value"`
}

func newCounterRegistry() entity.ClassRegistry {
	ops := entity.OperationRegistry[counterState]{
		"add": func(c *entity.Context[counterState]) error {
			var delta int
			if err := c.GetOperationContent(&delta); err != nil {
				return err
			}
			v := c.GetState().Get()
			v.Value += delta
			c.GetState().Set(v)
			return c.Return(v.Value)
		},
		"get": func(c *entity.Context[counterState]) error {
			return c.Return(c.GetState().Get().Value)
		},
	}
	return entity.ClassRegistry{
		"Counter": func(self entity.EntityId) entity.Instance {
			d, err := entity.NewDispatcher[counterState]("Counter", ops)
			if err != nil {
				panic(err)
			}
			return entity.NewScheduler[counterState](self, d)
		},
	}
}

func withTimeout(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func TestFakeRuntime_SignalThenQuery(t *testing.T) {
	rt := NewFakeRuntime(newCounterRegistry(), store.NewMemStore())
	ctx, cancel := withTimeout(t)
	defer cancel()

	target := entity.EntityId{ClassName: "Counter", Key: "a"}
	if err := rt.SignalEntity(ctx, target, "add", "5"); err != nil {
		t.Fatalf("SignalEntity: %v", err)
	}

	result, err := rt.CallEntity(ctx, target, "get", "")
	if err != nil {
		t.Fatalf("CallEntity: %v", err)
	}
	if result != "5" {
		t.Errorf("CallEntity(get) = %q, want %q", result, "5")
	}
}

func TestFakeRuntime_CallEntityAccumulatesAcrossCalls(t *testing.T) {
	rt := NewFakeRuntime(newCounterRegistry(), store.NewMemStore())
	ctx, cancel := withTimeout(t)
	defer cancel()

	target := entity.EntityId{ClassName: "Counter", Key: "b"}
	for i := 0; i < 3; i++ {
		if _, err := rt.CallEntity(ctx, target, "add", "1"); err != nil {
			t.Fatalf("CallEntity add #%d: %v", i, err)
		}
	}

	result, err := rt.CallEntity(ctx, target, "get", "")
	if err != nil {
		t.Fatalf("CallEntity get: %v", err)
	}
	if result != "3" {
		t.Errorf("CallEntity(get) = %q, want %q", result, "3")
	}
}

func TestFakeRuntime_UnknownOperationSurfacesAsSchedulerError(t *testing.T) {
	rt := NewFakeRuntime(newCounterRegistry(), store.NewMemStore())
	ctx, cancel := withTimeout(t)
	defer cancel()

	target := entity.EntityId{ClassName: "Counter", Key: "c"}
	_, err := rt.CallEntity(ctx, target, "no-such-operation", "")
	if err == nil {
		t.Fatal("expected an error for an unknown operation")
	}
	var schedErr *entity.SchedulerError
	if !errors.As(err, &schedErr) {
		t.Fatalf("error = %v (%T), want *entity.SchedulerError", err, err)
	}
	if schedErr.Type != entity.ExceptionUser {
		t.Errorf("schedErr.Type = %q, want %q", schedErr.Type, entity.ExceptionUser)
	}
}

func TestFakeRuntime_UserExceptionIsolatedToOneEntity(t *testing.T) {
	rt := NewFakeRuntime(newCounterRegistry(), store.NewMemStore())
	ctx, cancel := withTimeout(t)
	defer cancel()

	good := entity.EntityId{ClassName: "Counter", Key: "good"}
	bad := entity.EntityId{ClassName: "Counter", Key: "bad"}

	if _, err := rt.CallEntity(ctx, good, "add", "2"); err != nil {
		t.Fatalf("CallEntity add on good: %v", err)
	}
	if _, err := rt.CallEntity(ctx, bad, "missing-op", ""); err == nil {
		t.Fatal("expected failure calling an unknown operation on a separate entity")
	}

	result, err := rt.CallEntity(ctx, good, "get", "")
	if err != nil {
		t.Fatalf("CallEntity get on good after bad's failure: %v", err)
	}
	if result != "2" {
		t.Errorf("CallEntity(get) on good = %q, want %q: unaffected by bad's failure", result, "2")
	}
}

func TestFakeRuntime_ReadEntityStatus(t *testing.T) {
	rt := NewFakeRuntime(newCounterRegistry(), store.NewMemStore())
	ctx, cancel := withTimeout(t)
	defer cancel()

	target := entity.EntityId{ClassName: "Counter", Key: "status"}

	status, err := rt.ReadEntityStatus(ctx, target)
	if err != nil {
		t.Fatalf("ReadEntityStatus on never-touched entity: %v", err)
	}
	if status.EntityExists {
		t.Error("expected EntityExists false before any activity")
	}

	if _, err := rt.CallEntity(ctx, target, "add", "1"); err != nil {
		t.Fatalf("CallEntity add: %v", err)
	}

	status, err = rt.ReadEntityStatus(ctx, target)
	if err != nil {
		t.Fatalf("ReadEntityStatus: %v", err)
	}
	if !status.EntityExists {
		t.Error("expected EntityExists true after a successful operation")
	}
}

func TestFakeRuntime_LockChainAcrossTwoEntities(t *testing.T) {
	rt := NewFakeRuntime(newCounterRegistry(), store.NewMemStore())
	ctx, cancel := withTimeout(t)
	defer cancel()

	a := entity.EntityId{ClassName: "Counter", Key: "lock-a"}
	b := entity.EntityId{ClassName: "Counter", Key: "lock-b"}

	lockSet, err := entity.NewLockSet(a, b)
	if err != nil {
		t.Fatalf("NewLockSet: %v", err)
	}
	coordinator := entity.NewSchedulerInstanceID(entity.EntityId{ClassName: "coordinator", Key: "demo"})
	lockReq, target, err := entity.NewLockRequest(coordinator, lockSet)
	if err != nil {
		t.Fatalf("NewLockRequest: %v", err)
	}
	if err := rt.SendMessage(ctx, target, lockReq); err != nil {
		t.Fatalf("SendMessage lock request: %v", err)
	}

	// Give the chain a moment to propagate through both entities' goroutines.
	time.Sleep(50 * time.Millisecond)

	statusA, err := rt.ReadEntityStatus(ctx, a)
	if err != nil {
		t.Fatalf("ReadEntityStatus a: %v", err)
	}
	if statusA.LockedBy == nil {
		t.Fatal("expected lock-a to be locked")
	}

	statusB, err := rt.ReadEntityStatus(ctx, b)
	if err != nil {
		t.Fatalf("ReadEntityStatus b: %v", err)
	}
	if statusB.LockedBy == nil {
		t.Fatal("expected lock-b to be locked")
	}

	if err := rt.SendMessage(ctx, target, entity.NewUnlockMessage(coordinator)); err != nil {
		t.Fatalf("SendMessage unlock a: %v", err)
	}
	bInstanceID := entity.NewSchedulerInstanceID(b)
	if err := rt.SendMessage(ctx, bInstanceID, entity.NewUnlockMessage(coordinator)); err != nil {
		t.Fatalf("SendMessage unlock b: %v", err)
	}
}

func TestFakeRuntime_CallActivity(t *testing.T) {
	rt := NewFakeRuntime(newCounterRegistry(), store.NewMemStore())
	rt.RegisterActivity("double", func(ctx context.Context, input string) (string, error) {
		return input + input, nil
	})

	ctx, cancel := withTimeout(t)
	defer cancel()

	got, err := rt.CallActivity(ctx, "double", "ab")
	if err != nil {
		t.Fatalf("CallActivity: %v", err)
	}
	if got != "abab" {
		t.Errorf("CallActivity result = %q, want %q", got, "abab")
	}

	if _, err := rt.CallActivity(ctx, "missing", ""); err == nil {
		t.Error("expected error for an unregistered activity")
	}
}
