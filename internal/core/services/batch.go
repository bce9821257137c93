package services

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Two batch strategies are deliberately kept separate: ingestion must abort
// with in-order attribution, resolution must never abort on a single item.

// failFast runs prepare for items concurrently (at most limit at once) and
// commit strictly in input order. The first item, in input order, whose
// prepare or commit fails ends the batch: commit never runs for that item or
// any later one, and in-flight prepares see a cancelled context.
// Items complete out of order; their outcomes are buffered until every
// earlier item has committed. On failure the index of the failing item is
// returned with the error; items skipped after cancellation fail with the
// bare context error at their own index. On success the index is -1.
func failFast(
	ctx context.Context,
	n, limit int,
	prepare func(ctx context.Context, i int) error,
	commit func(ctx context.Context, i int) error,
) (int, error) {
	if n == 0 {
		return -1, nil
	}
	if limit <= 0 {
		limit = 1
	}

	pctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make([]error, n)
	ready := make([]chan struct{}, n)
	for i := range ready {
		ready[i] = make(chan struct{})
	}

	var g errgroup.Group
	g.SetLimit(limit)

	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i := 0; i < n; i++ {
			if err := pctx.Err(); err != nil {
				errs[i] = err
				close(ready[i])
				continue
			}
			g.Go(func() error {
				defer close(ready[i])
				errs[i] = prepare(pctx, i)
				return nil
			})
		}
	}()

	stop := func() {
		cancel()
		<-launched
		_ = g.Wait()
	}

	for i := 0; i < n; i++ {
		<-ready[i]
		if errs[i] != nil {
			stop()
			return i, errs[i]
		}
		if err := commit(ctx, i); err != nil {
			stop()
			return i, err
		}
	}

	stop()
	return -1, nil
}

// collectAll runs fn for every item concurrently (at most limit at once) and
// waits for all of them. Items have no way to fail the batch; each records
// its own outcome.
func collectAll(ctx context.Context, n, limit int, fn func(ctx context.Context, i int)) {
	if limit <= 0 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
}
