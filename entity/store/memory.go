package store

import (
	"context"
	"sync"

	"github.com/entityscheduler/entityscheduler/entity"
)

// MemStore is an in-memory Store, safe for concurrent use. Intended for
// tests and single-process development; state does not survive restart.
type MemStore struct {
	mu    sync.RWMutex
	state map[string]entity.SchedulerState
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{state: make(map[string]entity.SchedulerState)}
}

func (m *MemStore) SaveState(_ context.Context, instanceID string, state entity.SchedulerState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state[instanceID] = state
	return nil
}

func (m *MemStore) LoadState(_ context.Context, instanceID string) (entity.SchedulerState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.state[instanceID]
	if !ok {
		return entity.SchedulerState{}, ErrNotFound
	}
	return s, nil
}

func (m *MemStore) DeleteState(_ context.Context, instanceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, instanceID)
	return nil
}
