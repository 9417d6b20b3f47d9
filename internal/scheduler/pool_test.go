package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestRunBatchExecutesEveryItemAndPreservesOrder(t *testing.T) {
	items := make([]QueueItem, 5)
	for i := range items {
		items[i] = QueueItem{Index: i}
	}
	tracker := newCompletionTracker(nil)
	results := runBatch(context.Background(), items, 2, tracker, func(_ context.Context, it QueueItem) ItemResult {
		return ItemResult{Index: it.Index, ExitCode: it.Index}
	})
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Index != i || r.ExitCode != i {
			t.Fatalf("result %d out of order or wrong: %+v", i, r)
		}
	}
}

func TestRunBatchRespectsWorkerCap(t *testing.T) {
	var concurrent int32
	var maxSeen int32
	items := make([]QueueItem, 10)
	for i := range items {
		items[i] = QueueItem{Index: i}
	}
	tracker := newCompletionTracker(nil)
	runBatch(context.Background(), items, 3, tracker, func(_ context.Context, it QueueItem) ItemResult {
		n := atomic.AddInt32(&concurrent, 1)
		for {
			cur := atomic.LoadInt32(&maxSeen)
			if n <= cur || atomic.CompareAndSwapInt32(&maxSeen, cur, n) {
				break
			}
		}
		atomic.AddInt32(&concurrent, -1)
		return ItemResult{Index: it.Index}
	})
	if maxSeen > 3 {
		t.Fatalf("expected at most 3 concurrent, saw %d", maxSeen)
	}
}

func TestRunBatchCanceledContextSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	items := []QueueItem{{Index: 0}, {Index: 1}}
	tracker := newCompletionTracker(nil)
	results := runBatch(ctx, items, 2, tracker, func(_ context.Context, it QueueItem) ItemResult {
		return ItemResult{Index: it.Index, ExitCode: 0}
	})
	for _, r := range results {
		if !r.Skipped {
			t.Fatalf("expected all items skipped under a pre-canceled context, got %+v", r)
		}
	}
}
