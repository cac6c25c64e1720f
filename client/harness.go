package client

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunConcurrent issues every call concurrently, letting them race against
// the same entities the way independent orchestrators would. Useful for
// driving the §8 multi-entity lock scenarios from tests without hand
// rolling goroutine and WaitGroup bookkeeping. Returns the first non-nil
// error; the context passed to every call is cancelled once one fails.
func (c *Client) RunConcurrent(ctx context.Context, calls ...func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, call := range calls {
		call := call
		g.Go(func() error { return call(gctx) })
	}
	return g.Wait()
}
