package runtime

import (
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// breakerSend wraps the mailbox-delivery primitive in a circuit breaker so
// a flapping transport trips open and fails fast instead of retrying the
// outbox flush forever — §7's "runtime error... propagated to the
// runtime; iteration aborted and re-run" assumes the runtime itself can
// detect and stop hammering a dead target.
type breakerSend struct {
	cb *gobreaker.CircuitBreaker
}

func newBreakerSend(name string) *breakerSend {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &breakerSend{cb: gobreaker.NewCircuitBreaker(settings)}
}

// do executes send through the breaker, translating a tripped breaker into
// a plain error the caller can fold into an ExceptionRuntime failure.
func (b *breakerSend) do(send func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, send()
	})
	if err == gobreaker.ErrOpenState {
		return fmt.Errorf("entity/runtime: mailbox delivery circuit open: %w", err)
	}
	return err
}
