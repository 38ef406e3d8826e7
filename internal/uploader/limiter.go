package uploader

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// runBatches executes fn for every index in [0, n) in batches of at most
// maxConcurrency. A batch must fully resolve before the next one starts;
// within a batch the first failure cancels the batch context and is
// returned, and no further batches run.
func runBatches(ctx context.Context, n, maxConcurrency int, fn func(ctx context.Context, i int) error) error {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	for start := 0; start < n; start += maxConcurrency {
		end := start + maxConcurrency
		if end > n {
			end = n
		}
		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				return fn(gctx, i)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}
