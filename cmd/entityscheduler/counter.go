package main

import (
	"github.com/entityscheduler/entityscheduler/entity"
	"github.com/entityscheduler/entityscheduler/entity/emit"
)

// CounterState is the persisted document for the Counter entity class: a
// running total, accumulated across "add" operations.
type CounterState struct {
	Value int `json:"value"`
}

// newCounterFactory builds the entity.Factory for the Counter class,
// wiring its operation registry into a fresh Scheduler per entity.
func newCounterFactory(emitter emit.Emitter, metrics *entity.SchedulerMetrics) entity.Factory {
	registry := entity.OperationRegistry[CounterState]{
		"set": func(c *entity.Context[CounterState]) error {
			var value int
			if err := c.GetOperationContent(&value); err != nil {
				return err
			}
			c.GetState().Set(CounterState{Value: value})
			return nil
		},
		"add": func(c *entity.Context[CounterState]) error {
			var delta int
			if err := c.GetOperationContent(&delta); err != nil {
				return err
			}
			state := c.GetState()
			current := state.Get()
			current.Value += delta
			state.Set(current)
			return c.Return(current.Value)
		},
		"get": func(c *entity.Context[CounterState]) error {
			return c.Return(c.GetState().Get().Value)
		},
		"reset": func(c *entity.Context[CounterState]) error {
			c.GetState().Set(CounterState{})
			return nil
		},
	}

	return func(self entity.EntityId) entity.Instance {
		dispatcher, err := entity.NewDispatcher[CounterState]("Counter", registry)
		if err != nil {
			// Only raised when OutOfProcess is misconfigured at construction
			// time; this factory never sets it, so this is unreachable.
			panic(err)
		}
		return entity.NewScheduler[CounterState](self, dispatcher,
			entity.WithEmitter(emitter),
			entity.WithSchedulerMetrics(metrics),
		)
	}
}
