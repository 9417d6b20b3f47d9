// Package scheduler implements the worker-pool scheduler (C5): it runs a
// planner.Unit plan to completion, stage by stage (static mode) or fully
// dependency-driven (dynamic mode), through a runner.Transport.
package scheduler

import (
	"time"

	"github.com/pabotd/pabotd/internal/planner"
)

// QueueItem wraps one planner.Unit with everything the subprocess driver
// and the coordination signaling need to run and track it: its global
// queue position, its staging directory, the exact runner invocation, and
// the teardown last_level computed across the whole run.
type QueueItem struct {
	Index            int
	Unit             planner.Unit
	StageIndex       int
	OutsDir          string
	RunnerCmd        []string
	Timeout          time.Duration
	SleepBeforeStart time.Duration
	Skip             bool
	LastLevel        string
	DisplayName      string
	ArgfileIndex     string
	WorkerID         int
	IsLastInWorker   bool
	Processes        int
}

// ItemResult is the outcome of running one QueueItem.
type ItemResult struct {
	Index    int
	ExitCode int
	Elapsed  time.Duration
	TimedOut bool
	Skipped  bool
	Err      error
}

// Passed reports whether the item's subprocess is considered successful for
// dependency-satisfaction and exit-code purposes.
func (r ItemResult) Passed() bool {
	return !r.Skipped && r.Err == nil && r.ExitCode == 0
}

// FailurePolicy governs how dynamic mode treats items whose dependency
// failed: "skip" marks every transitive dependent as skipped without
// running it; "run_all" runs every item regardless of upstream failures.
type FailurePolicy string

const (
	FailurePolicySkip    FailurePolicy = "skip"
	FailurePolicyRunAll  FailurePolicy = "run_all"
)

// Options configures one scheduling run.
type Options struct {
	Processes     int
	FailurePolicy FailurePolicy
	// SetParallelValue pushes a coordination-library parallel value, used
	// to publish pabot_min_queue_index_executing/pabot_only_last_executing
	// so that PabotLib.run_teardown_only_once/run_on_last_process can poll
	// them from inside the running suites. Nil is a valid no-op for tests
	// and for runs without a coordination server.
	SetParallelValue func(key, value string)
	// PollAddedSuites retrieves suites dynamically queued by
	// add_suite_to_execution_queue; static mode calls it after its planned
	// stages, and again after each added stage, until it returns none.
	PollAddedSuites func() []planner.Unit
}

func (o Options) workers(n int) int {
	w := o.Processes
	if w <= 0 {
		w = 1
	}
	if n < w {
		w = n
	}
	return w
}
