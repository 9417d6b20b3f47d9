package scheduler

import (
	"context"

	"github.com/pabotd/pabotd/internal/planner"
)

// RunDynamic executes a dependency-driven plan (§4.5's "dynamic mode"):
// rather than draining one #WAIT stage at a time, every unit in the whole
// plan becomes ready to run as soon as its own #DEPENDS targets have
// completed, regardless of which stage either belongs to. Units are still
// assigned their QueueItem index from their original flattened position
// (matching pabot.py's _construct_last_levels/_initialize_queue_index,
// which number items by plan position, not by execution order), but they
// may run out of that order.
//
// failurePolicy decides what happens to a unit whose dependency failed:
// FailurePolicySkip marks it (and anything depending on it, transitively)
// skipped without running it; FailurePolicyRunAll runs it regardless.
func RunDynamic(ctx context.Context, stages [][]planner.Unit, opts Options, run runFunc) []ItemResult {
	tracker := newCompletionTracker(opts.SetParallelValue)

	flat := flattenStages(stages)
	lastLevels := ComputeLastLevels(unitNames(flat))

	items := make([]QueueItem, len(flat))
	for i, u := range flat {
		items[i] = QueueItem{
			Index:            i,
			Unit:             u,
			SleepBeforeStart: secondsToDuration(u.SleepSeconds),
			LastLevel:        lastLevels[i],
			DisplayName:      u.DisplayName(),
			Processes:        opts.Processes,
		}
	}

	results := make([]ItemResult, len(items))
	done := make([]bool, len(items))
	scheduled := make([]bool, len(items))
	remaining := len(items)

	for remaining > 0 {
		select {
		case <-ctx.Done():
			for i := range items {
				if !scheduled[i] {
					results[i] = ItemResult{Index: items[i].Index, Skipped: true, Err: ctx.Err()}
					scheduled[i] = true
					done[i] = true
				}
			}
			return results
		default:
		}

		var readyIdx []int
		var skipIdx []int
		for i, it := range items {
			if scheduled[i] {
				continue
			}
			state := dependencyState(it.Unit, items, done, results)
			switch state {
			case depsSatisfied:
				readyIdx = append(readyIdx, i)
			case depsFailed:
				if opts.FailurePolicy == FailurePolicySkip {
					skipIdx = append(skipIdx, i)
				} else {
					readyIdx = append(readyIdx, i)
				}
			}
		}

		for _, i := range skipIdx {
			results[i] = ItemResult{Index: items[i].Index, Skipped: true}
			scheduled[i] = true
			done[i] = true
			remaining--
		}

		if len(readyIdx) == 0 {
			if len(skipIdx) == 0 {
				// Nothing ready and nothing skippable: a cycle slipped past
				// planner.VerifyDependencies, or every remaining unit
				// depends on a unit that will never complete. Stop rather
				// than spin.
				return results
			}
			continue
		}

		batch := make([]QueueItem, len(readyIdx))
		for j, i := range readyIdx {
			batch[j] = items[i]
			scheduled[i] = true
		}

		batchResults := runBatch(ctx, batch, opts.workers(len(batch)), tracker, run)
		for j, i := range readyIdx {
			results[i] = batchResults[j]
			done[i] = true
			remaining--
		}
	}

	return results
}

type depState int

const (
	depsPending depState = iota
	depsSatisfied
	depsFailed
)

func dependencyState(u planner.Unit, items []QueueItem, done []bool, results []ItemResult) depState {
	wanted := u.Depends()
	if len(wanted) == 0 {
		return depsSatisfied
	}
	satisfied := true
	for _, name := range wanted {
		found := false
		for i, it := range items {
			if !it.Unit.Covers(name) {
				continue
			}
			found = true
			if !done[i] {
				return depsPending
			}
			if !results[i].Passed() {
				return depsFailed
			}
		}
		if !found {
			satisfied = false
		}
	}
	if !satisfied {
		return depsPending
	}
	return depsSatisfied
}

func flattenStages(stages [][]planner.Unit) []planner.Unit {
	var out []planner.Unit
	for _, s := range stages {
		out = append(out, s...)
	}
	return out
}
