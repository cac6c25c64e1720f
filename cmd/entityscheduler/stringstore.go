package main

import (
	"fmt"

	"github.com/entityscheduler/entityscheduler/entity"
	"github.com/entityscheduler/entityscheduler/entity/emit"
)

// StringState is the persisted document for the StringStore entity class:
// a single string value.
type StringState struct {
	Value string `json:"value"`
}

// newStringStoreFactory builds the entity.Factory for the StringStore
// class. Its "get" handler demonstrates the create-then-destruct pattern
// (§8 scenario 2): reading a key that was never set raises a user error
// and marks the entity for destruction rather than leaving behind an
// entity that exists with an empty value.
func newStringStoreFactory(emitter emit.Emitter, metrics *entity.SchedulerMetrics) entity.Factory {
	registry := entity.OperationRegistry[StringState]{
		"set": func(c *entity.Context[StringState]) error {
			var v string
			if err := c.GetOperationContent(&v); err != nil {
				return err
			}
			c.GetState().Set(StringState{Value: v})
			return nil
		},
		"get": func(c *entity.Context[StringState]) error {
			if c.IsNewlyConstructed() {
				c.DestructOnExit()
				return fmt.Errorf("stringstore: key %q: %w", c.Key(), entity.ErrEntityNotFound)
			}
			return c.Return(c.GetState().Get().Value)
		},
		"delete": func(c *entity.Context[StringState]) error {
			c.DestructOnExit()
			return nil
		},
	}

	return func(self entity.EntityId) entity.Instance {
		dispatcher, err := entity.NewDispatcher[StringState]("StringStore", registry)
		if err != nil {
			panic(err)
		}
		return entity.NewScheduler[StringState](self, dispatcher,
			entity.WithEmitter(emitter),
			entity.WithSchedulerMetrics(metrics),
		)
	}
}
