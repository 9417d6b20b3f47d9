package scheduler

import (
	"sync"
	"testing"
)

func TestCompletionTrackerPublishesMinAndOnlyLast(t *testing.T) {
	var mu sync.Mutex
	values := map[string]string{}
	tr := newCompletionTracker(func(k, v string) {
		mu.Lock()
		values[k] = v
		mu.Unlock()
	})

	tr.start(5)
	tr.start(2)
	mu.Lock()
	if values["pabot_min_queue_index_executing"] != "2" {
		t.Fatalf("expected min 2, got %v", values["pabot_min_queue_index_executing"])
	}
	if values["pabot_only_last_executing"] != "0" {
		t.Fatalf("expected not only-last with two executing, got %v", values["pabot_only_last_executing"])
	}
	mu.Unlock()

	tr.finish(2)
	mu.Lock()
	if values["pabot_min_queue_index_executing"] != "5" {
		t.Fatalf("expected min 5 after 2 finishes, got %v", values["pabot_min_queue_index_executing"])
	}
	if values["pabot_only_last_executing"] != "1" {
		t.Fatalf("expected only-last once one item remains, got %v", values["pabot_only_last_executing"])
	}
	mu.Unlock()
}

func TestCompletionTrackerNilPublishIsNoop(t *testing.T) {
	tr := newCompletionTracker(nil)
	tr.start(1)
	tr.finish(1) // must not panic
}
