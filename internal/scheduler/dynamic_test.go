package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/pabotd/pabotd/internal/planitem"
	"github.com/pabotd/pabotd/internal/planner"
)

func unitWithDeps(name string, depends ...string) planner.Unit {
	return planner.Unit{Items: []planitem.Item{{Kind: planitem.KindSuite, Name: name, Depends: depends}}}
}

func TestRunDynamicRunsDependencyAfterItsTarget(t *testing.T) {
	stages := [][]planner.Unit{
		{unitWithDeps("Tests.A"), unitWithDeps("Tests.B", "Tests.A")},
	}

	var mu sync.Mutex
	var order []string
	results := RunDynamic(context.Background(), stages, Options{Processes: 2}, func(_ context.Context, it QueueItem) ItemResult {
		mu.Lock()
		order = append(order, it.DisplayName)
		mu.Unlock()
		return ItemResult{Index: it.Index, ExitCode: 0}
	})

	if len(order) != 2 || order[0] != "Tests.A" || order[1] != "Tests.B" {
		t.Fatalf("expected A before B, got %v", order)
	}
	for _, r := range results {
		if !r.Passed() {
			t.Fatalf("expected every item to pass, got %+v", r)
		}
	}
}

func TestRunDynamicSkipPolicyPropagatesTransitively(t *testing.T) {
	stages := [][]planner.Unit{
		{
			unitWithDeps("Tests.A"),
			unitWithDeps("Tests.B", "Tests.A"),
			unitWithDeps("Tests.C", "Tests.B"),
		},
	}
	opts := Options{Processes: 3, FailurePolicy: FailurePolicySkip}
	results := RunDynamic(context.Background(), stages, opts, func(_ context.Context, it QueueItem) ItemResult {
		if it.DisplayName == "Tests.A" {
			return ItemResult{Index: it.Index, ExitCode: 1, Err: nil}
		}
		return ItemResult{Index: it.Index, ExitCode: 0}
	})
	// A ran and failed; B and C must be skipped without running.
	if results[0].Passed() {
		t.Fatalf("expected Tests.A to fail, got %+v", results[0])
	}
	if !results[1].Skipped || !results[2].Skipped {
		t.Fatalf("expected B and C transitively skipped, got %+v %+v", results[1], results[2])
	}
}

func TestRunDynamicRunAllPolicyIgnoresUpstreamFailure(t *testing.T) {
	stages := [][]planner.Unit{
		{unitWithDeps("Tests.A"), unitWithDeps("Tests.B", "Tests.A")},
	}
	opts := Options{Processes: 2, FailurePolicy: FailurePolicyRunAll}
	var ranB bool
	RunDynamic(context.Background(), stages, opts, func(_ context.Context, it QueueItem) ItemResult {
		if it.DisplayName == "Tests.A" {
			return ItemResult{Index: it.Index, ExitCode: 1}
		}
		ranB = true
		return ItemResult{Index: it.Index, ExitCode: 0}
	})
	if !ranB {
		t.Fatal("expected Tests.B to run despite Tests.A's failure under run_all policy")
	}
}
