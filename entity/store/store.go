// Package store provides persistence implementations for scheduler instance
// state, keyed by scheduler instance id (entity.NewSchedulerInstanceID).
package store

import (
	"context"
	"errors"

	"github.com/entityscheduler/entityscheduler/entity"
)

// ErrNotFound is returned when a requested instance id has no persisted
// state.
var ErrNotFound = errors.New("store: not found")

// Store persists the single durable document an entity's scheduler loop
// reads and writes each activation: its SchedulerState (§5 Replay
// determinism — "the orchestration's local variables ARE the
// SchedulerState... rehydrated on every replay").
//
// Implementations can back this with memory (testing), a relational
// database, or a key-value store. Writes are whole-document upserts: the
// scheduler loop always submits the complete post-iteration SchedulerState,
// never a delta.
type Store interface {
	// SaveState persists state as the current document for instanceID,
	// replacing whatever was there before.
	SaveState(ctx context.Context, instanceID string, state entity.SchedulerState) error

	// LoadState retrieves the current document for instanceID. Returns
	// ErrNotFound if no state has ever been saved for this instance —
	// callers should treat that the same as a fresh SchedulerState{}.
	LoadState(ctx context.Context, instanceID string) (entity.SchedulerState, error)

	// DeleteState removes the persisted document for instanceID, used once
	// an orchestration has terminated (§4.1 step 4) and its history need
	// not be retained.
	DeleteState(ctx context.Context, instanceID string) error
}
