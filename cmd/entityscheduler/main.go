// Command entityscheduler is a CLI harness driving an in-memory entity
// scheduler runtime end to end: it registers a Counter and a StringStore
// entity class and walks through the core end-to-end scenarios a durable
// entity host is expected to support.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/entityscheduler/entityscheduler/client"
	"github.com/entityscheduler/entityscheduler/entity"
	"github.com/entityscheduler/entityscheduler/entity/runtime"
	"github.com/entityscheduler/entityscheduler/entity/store"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	emitter := newZapEmitter(logger)

	metrics := entity.NewSchedulerMetrics(prometheus.NewRegistry())

	registry := entity.ClassRegistry{
		"Counter":     newCounterFactory(emitter, metrics),
		"StringStore": newStringStoreFactory(emitter, metrics),
	}

	rt := runtime.NewFakeRuntime(registry, store.NewMemStore())
	c := client.New(rt)
	ctx := context.Background()

	runCounterScenario(ctx, c)
	runCreateThenDestructScenario(ctx, c, rt)
	runSignalThenQueryScenario(ctx, c)
	runLockScenario(ctx, rt)
	runUserExceptionIsolationScenario(ctx, c)
}

func runCounterScenario(ctx context.Context, c *client.Client) {
	fmt.Println("=== Counter basic ===")
	id := entity.EntityId{ClassName: "Counter", Key: "basic"}
	for i := 0; i < 3; i++ {
		if err := c.SignalEntity(ctx, id, "add", 1); err != nil {
			log.Fatalf("signal add: %v", err)
		}
	}
	var total int
	if err := c.CallEntity(ctx, id, "get", nil, &total); err != nil {
		log.Fatalf("call get: %v", err)
	}
	fmt.Printf("counter total = %d\n\n", total)
}

func runCreateThenDestructScenario(ctx context.Context, c *client.Client, rt *runtime.FakeRuntime) {
	fmt.Println("=== Create-then-destruct ===")
	id := entity.EntityId{ClassName: "StringStore", Key: "missing"}
	var out string
	err := c.CallEntity(ctx, id, "get", nil, &out)
	fmt.Printf("get on unset key: err=%v\n", err)

	status, err := rt.ReadEntityStatus(ctx, id)
	if err != nil {
		log.Fatalf("read status: %v", err)
	}
	fmt.Printf("entityExists after failed get = %v\n\n", status.EntityExists)
}

func runSignalThenQueryScenario(ctx context.Context, c *client.Client) {
	fmt.Println("=== Signal then query ===")
	id := entity.EntityId{ClassName: "StringStore", Key: "greeting"}
	if err := c.SignalEntity(ctx, id, "set", "hello"); err != nil {
		log.Fatalf("signal set: %v", err)
	}
	var value string
	if err := c.CallEntity(ctx, id, "get", nil, &value); err != nil {
		log.Fatalf("call get: %v", err)
	}
	fmt.Printf("stored value = %q\n\n", value)
}

func runLockScenario(ctx context.Context, rt *runtime.FakeRuntime) {
	fmt.Println("=== Two-entity lock ===")
	a := entity.EntityId{ClassName: "Counter", Key: "lock-a"}
	b := entity.EntityId{ClassName: "Counter", Key: "lock-b"}
	lockSet, err := entity.NewLockSet(a, b)
	if err != nil {
		log.Fatalf("build lock set: %v", err)
	}

	coordinator := entity.NewSchedulerInstanceID(entity.EntityId{ClassName: "coordinator", Key: "demo"})
	lockReq, target, err := entity.NewLockRequest(coordinator, lockSet)
	if err != nil {
		log.Fatalf("build lock request: %v", err)
	}
	if err := rt.SendMessage(ctx, target, lockReq); err != nil {
		log.Fatalf("send lock request: %v", err)
	}

	// Wait until the forwarded request has locked lock-b, so the unlocks
	// below cannot overtake it.
	for {
		status, err := rt.ReadEntityStatus(ctx, b)
		if err != nil {
			log.Fatalf("read lock-b status: %v", err)
		}
		if status.LockedBy != nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := rt.SendMessage(ctx, target, entity.NewUnlockMessage(coordinator)); err != nil {
		log.Fatalf("send unlock to lock-a: %v", err)
	}
	bInstanceID := entity.NewSchedulerInstanceID(b)
	if err := rt.SendMessage(ctx, bInstanceID, entity.NewUnlockMessage(coordinator)); err != nil {
		log.Fatalf("send unlock to lock-b: %v", err)
	}
	fmt.Println("lock chain acquired across lock-a, lock-b and released")
	fmt.Println()
}

func runUserExceptionIsolationScenario(ctx context.Context, c *client.Client) {
	fmt.Println("=== User exception isolation ===")
	id := entity.EntityId{ClassName: "StringStore", Key: "isolated"}
	if err := c.SignalEntity(ctx, id, "set", "present"); err != nil {
		log.Fatalf("signal set: %v", err)
	}

	other := entity.EntityId{ClassName: "StringStore", Key: "isolated-missing"}
	var out string
	err := c.CallEntity(ctx, other, "get", nil, &out)
	fmt.Printf("unrelated entity failure: err=%v\n", err)

	var value string
	if err := c.CallEntity(ctx, id, "get", nil, &value); err != nil {
		log.Fatalf("call get on unaffected entity: %v", err)
	}
	fmt.Printf("unaffected entity still reads %q\n", value)
}
