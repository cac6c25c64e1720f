// Package client provides the minimal caller-facing surface for
// interacting with entities through a runtime.Runtime (§6): signal,
// call-and-wait, and read status.
package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/entityscheduler/entityscheduler/entity"
)

// entityRuntime is the slice of runtime.FakeRuntime's (or any other
// Runtime-backed driver's) surface this client needs. Declared locally
// rather than importing entity/runtime's Runtime interface directly,
// since SignalEntity/CallEntity/ReadEntityStatus are the caller-facing
// shape of §6, distinct from the host-facing Activate/SendMessage/...
// primitives runtime.Runtime exposes to the scheduler loop itself.
type entityRuntime interface {
	SignalEntity(ctx context.Context, target entity.EntityId, operation, input string) error
	CallEntity(ctx context.Context, target entity.EntityId, operation, input string) (string, error)
	ReadEntityStatus(ctx context.Context, target entity.EntityId) (entity.Status, error)
}

// Client is a thin, JSON-marshaling wrapper over an entityRuntime.
type Client struct {
	runtime entityRuntime
}

// New constructs a Client over runtime.
func New(runtime entityRuntime) *Client {
	return &Client{runtime: runtime}
}

// SignalEntity fires a one-way operation at target. input is JSON-encoded;
// pass nil for no payload.
func (c *Client) SignalEntity(ctx context.Context, target entity.EntityId, operation string, input any) error {
	encoded, err := encode(input)
	if err != nil {
		return err
	}
	return c.runtime.SignalEntity(ctx, target, operation, encoded)
}

// CallEntity sends operation to target and waits for its response,
// decoding the result into out (pass nil to discard it).
func (c *Client) CallEntity(ctx context.Context, target entity.EntityId, operation string, input any, out any) error {
	encoded, err := encode(input)
	if err != nil {
		return err
	}
	result, err := c.runtime.CallEntity(ctx, target, operation, encoded)
	if err != nil {
		return err
	}
	if out == nil || result == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(result), out); err != nil {
		return fmt.Errorf("client: decode result: %w", err)
	}
	return nil
}

// ReadEntityStatus returns the §4.6 diagnostic snapshot for target.
func (c *Client) ReadEntityStatus(ctx context.Context, target entity.EntityId) (entity.Status, error) {
	return c.runtime.ReadEntityStatus(ctx, target)
}

func encode(input any) (string, error) {
	if input == nil {
		return "", nil
	}
	if s, ok := input.(string); ok {
		return s, nil
	}
	encoded, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("client: encode input: %w", err)
	}
	return string(encoded), nil
}
