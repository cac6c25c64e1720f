package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/entityscheduler/entityscheduler/entity"
	goredis "github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed Store, suitable for distributed deployments
// where many runtime workers share scheduler state and want low-latency
// reads between activations. Each entity's document is stored under a
// single string key derived from its instance id.
type RedisStore struct {
	client    *goredis.Client
	keyPrefix string
}

// NewRedisStore wraps an existing Redis client. keyPrefix namespaces keys
// (e.g. "entityscheduler:") to share a Redis instance with other subsystems.
func NewRedisStore(client *goredis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) key(instanceID string) string {
	return s.keyPrefix + instanceID
}

func (s *RedisStore) SaveState(ctx context.Context, instanceID string, state entity.SchedulerState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("entity/store: marshal state: %w", err)
	}
	if err := s.client.Set(ctx, s.key(instanceID), blob, 0).Err(); err != nil {
		return fmt.Errorf("entity/store: save state: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadState(ctx context.Context, instanceID string) (entity.SchedulerState, error) {
	blob, err := s.client.Get(ctx, s.key(instanceID)).Bytes()
	if err == goredis.Nil {
		return entity.SchedulerState{}, ErrNotFound
	}
	if err != nil {
		return entity.SchedulerState{}, fmt.Errorf("entity/store: load state: %w", err)
	}
	var state entity.SchedulerState
	if err := json.Unmarshal(blob, &state); err != nil {
		return entity.SchedulerState{}, fmt.Errorf("entity/store: decode state: %w", err)
	}
	return state, nil
}

func (s *RedisStore) DeleteState(ctx context.Context, instanceID string) error {
	if err := s.client.Del(ctx, s.key(instanceID)).Err(); err != nil {
		return fmt.Errorf("entity/store: delete state: %w", err)
	}
	return nil
}
