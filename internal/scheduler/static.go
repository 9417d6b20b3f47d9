package scheduler

import (
	"context"

	"github.com/pabotd/pabotd/internal/planner"
)

// RunStatic executes a stage-by-stage plan (the #WAIT/dependency-partition
// layers planner.Plan produced) the way pabot's default (non-dependency)
// mode does: every stage is drained by a worker pool before the next stage
// starts. Once the planned stages are done, suites added via
// add_suite_to_execution_queue are polled; each non-empty poll runs as one
// more stage of its own, and polling repeats until it returns nothing, so
// dynamically discovered work still runs before the pool shuts down.
func RunStatic(ctx context.Context, stages [][]planner.Unit, opts Options, run runFunc) []ItemResult {
	tracker := newCompletionTracker(opts.SetParallelValue)

	names := namesAcrossStages(stages)
	lastLevels := ComputeLastLevels(names)

	var all []ItemResult
	index := 0

	runStage := func(stage []planner.Unit) {
		items := assignQueueItems(stage, &index, lastLevels, opts.Processes)
		results := runBatch(ctx, items, opts.workers(len(items)), tracker, run)
		all = append(all, results...)
	}

	for _, stage := range stages {
		select {
		case <-ctx.Done():
			return all
		default:
		}
		runStage(stage)
	}

	if opts.PollAddedSuites != nil {
		for {
			added := opts.PollAddedSuites()
			if len(added) == 0 {
				break
			}
			names = append(names, unitNames(added)...)
			lastLevels = ComputeLastLevels(names)
			runStage(added)
		}
	}

	return all
}

func namesAcrossStages(stages [][]planner.Unit) []string {
	var names []string
	for _, stage := range stages {
		names = append(names, unitNames(stage)...)
	}
	return names
}

func unitNames(units []planner.Unit) []string {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.DisplayName()
	}
	return names
}

// assignQueueItems turns one stage's units into QueueItems with a global
// index, round-robin worker assignment (mirroring pabot's executor-pool
// round robin), and the matching slice of the pre-computed last_level list.
// *index is advanced by the number of units consumed so the next stage
// continues the same global numbering.
func assignQueueItems(stage []planner.Unit, index *int, lastLevels []string, processes int) []QueueItem {
	workers := processes
	if workers <= 0 {
		workers = 1
	}
	if workers > len(stage) {
		workers = len(stage)
	}

	items := make([]QueueItem, len(stage))
	lastByWorker := make(map[int]int)
	for i := range stage {
		worker := 0
		if workers > 0 {
			worker = i % workers
		}
		lastByWorker[worker] = i
	}

	for i, u := range stage {
		worker := 0
		if workers > 0 {
			worker = i % workers
		}
		items[i] = QueueItem{
			Index:            *index,
			Unit:             u,
			SleepBeforeStart: secondsToDuration(u.SleepSeconds),
			LastLevel:        lastLevels[*index],
			DisplayName:      u.DisplayName(),
			WorkerID:         worker,
			IsLastInWorker:   lastByWorker[worker] == i,
			Processes:        processes,
		}
		*index++
	}
	return items
}
