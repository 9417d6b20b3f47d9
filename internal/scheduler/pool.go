package scheduler

import (
	"context"
	"sync"
)

// runFunc executes one QueueItem to completion (or cancellation) and
// returns its ItemResult. The scheduler supplies this from internal/runner;
// keeping it as a plain function keeps the worker pool itself free of any
// Transport/runner dependency.
type runFunc func(ctx context.Context, item QueueItem) ItemResult

// runBatch executes items concurrently through a fixed-size worker pool,
// grounded on pkg/engine/scheduler.go's executeLevelParallel: a closed
// buffered work channel feeding workerCount goroutines, drained by a
// sync.WaitGroup. Every item's result is recorded regardless of success,
// order is not preserved in the channel but IS preserved in the returned
// slice (indexed by the caller's original position) so callers can zip
// results back against their items.
func runBatch(ctx context.Context, items []QueueItem, workers int, tracker *completionTracker, run runFunc) []ItemResult {
	results := make([]ItemResult, len(items))
	if len(items) == 0 {
		return results
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	type work struct {
		pos  int
		item QueueItem
	}
	workCh := make(chan work, len(items))
	for i, it := range items {
		workCh <- work{pos: i, item: it}
	}
	close(workCh)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for wk := range workCh {
				select {
				case <-ctx.Done():
					results[wk.pos] = ItemResult{Index: wk.item.Index, Skipped: true, Err: ctx.Err()}
					continue
				default:
				}

				tracker.start(wk.item.Index)
				res := run(ctx, wk.item)
				tracker.finish(wk.item.Index)
				results[wk.pos] = res
			}
		}()
	}
	wg.Wait()

	return results
}
