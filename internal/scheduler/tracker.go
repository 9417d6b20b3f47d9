package scheduler

import (
	"fmt"
	"sort"
	"sync"
)

// completionTracker maintains which QueueItem indices are currently
// executing and publishes the two coordination parallel values
// PabotLib.run_teardown_only_once/run_on_last_process poll:
// pabot_min_queue_index_executing (the lowest index still running, so a
// teardown waiting on an earlier index knows when it's safe) and
// pabot_only_last_executing (1 once exactly one item, necessarily the
// highest-indexed one, remains).
type completionTracker struct {
	mu        sync.Mutex
	executing map[int]bool
	publish   func(key, value string)
}

func newCompletionTracker(publish func(key, value string)) *completionTracker {
	if publish == nil {
		publish = func(string, string) {}
	}
	return &completionTracker{executing: make(map[int]bool), publish: publish}
}

func (t *completionTracker) start(index int) {
	t.mu.Lock()
	t.executing[index] = true
	t.mu.Unlock()
	t.refresh()
}

func (t *completionTracker) finish(index int) {
	t.mu.Lock()
	delete(t.executing, index)
	t.mu.Unlock()
	t.refresh()
}

func (t *completionTracker) refresh() {
	t.mu.Lock()
	indices := make([]int, 0, len(t.executing))
	for idx := range t.executing {
		indices = append(indices, idx)
	}
	t.mu.Unlock()

	sort.Ints(indices)

	if len(indices) == 0 {
		return
	}
	t.publish("pabot_min_queue_index_executing", fmt.Sprintf("%d", indices[0]))
	if len(indices) == 1 {
		t.publish("pabot_only_last_executing", "1")
	} else {
		t.publish("pabot_only_last_executing", "0")
	}
}
