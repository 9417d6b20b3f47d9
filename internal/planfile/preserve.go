package planfile

import "github.com/pabotd/pabotd/internal/planitem"

// Preserve reconciles a freshly discovered plan (newItems) against the
// previously cached ordering (oldItems): items common to both keep their
// old positions, items only in newItems append in their natural order,
// items only in oldItems are dropped, and container/contained conflicts are
// resolved via FixContainment. This is the direct port of the source's
// _preserve_order, invariant 8 requires it be idempotent:
// Preserve(new, Preserve(new, old)) == Preserve(new, old).
func Preserve(newItems, oldItems []planitem.Item) []planitem.Item {
	if len(oldItems) == 0 {
		return newItems
	}

	oldContainsTests := anyKind(oldItems, planitem.KindTest)
	oldContainsSuites := anyKind(oldItems, planitem.KindSuite)
	oldItems = planitem.FixContainment(oldItems)

	newContainsTests := anyKind(newItems, planitem.KindTest)
	if oldContainsTests && oldContainsSuites && !newContainsTests {
		newItems = splitPartiallyToTests(newItems, oldItems)
	}

	preserve, ignorable := getPreserveAndIgnore(newItems, oldItems, oldContainsTests && oldContainsSuites)

	existsInOldAndNew := make([]planitem.Item, 0, len(oldItems))
	for _, s := range oldItems {
		if (containsEqual(newItems, s) && !containsEqual(ignorable, s)) || containsEqual(preserve, s) {
			existsInOldAndNew = append(existsInOldAndNew, s)
		}
	}

	existsOnlyInNew := make([]planitem.Item, 0, len(newItems))
	for _, s := range newItems {
		if !containsEqual(oldItems, s) && !containsEqual(ignorable, s) {
			existsOnlyInNew = append(existsOnlyInNew, s)
		}
	}

	return planitem.FixContainment(append(existsInOldAndNew, existsOnlyInNew...))
}

func anyKind(items []planitem.Item, kind planitem.Kind) bool {
	for _, it := range items {
		if it.Kind == kind {
			return true
		}
	}
	return false
}

func containsEqual(items []planitem.Item, target planitem.Item) bool {
	for _, it := range items {
		if planitem.Equal(it, target) {
			return true
		}
	}
	return false
}

// getPreserveAndIgnore finds, for every old item that strictly contains a
// new item (a new suite/test that has since been subsumed by an old
// ancestor), the pair to preserve (the old ancestor) and ignore (the new
// descendant), plus carries forward every structural old Wait/Group token
// unconditionally. A preserve candidate that is itself contained by another,
// distinct preserve candidate is dropped so only the outermost ancestor
// survives.
func getPreserveAndIgnore(newItems, oldItems []planitem.Item, oldHasSuitesAndTests bool) (preserve, ignorable []planitem.Item) {
	for _, oldItem := range oldItems {
		for _, newItem := range newItems {
			if oldItem.Contains(newItem) && !planitem.Equal(newItem, oldItem) &&
				(newItem.Kind == planitem.KindSuite || oldHasSuitesAndTests) {
				preserve = append(preserve, oldItem)
				ignorable = append(ignorable, newItem)
			}
		}
		if oldItem.Kind == planitem.KindWait || oldItem.Kind == planitem.KindGroupStart || oldItem.Kind == planitem.KindGroupEnd {
			preserve = append(preserve, oldItem)
		}
	}

	filtered := make([]planitem.Item, 0, len(preserve))
	for _, p := range preserve {
		contained := false
		for _, q := range preserve {
			if q.Contains(p) && !planitem.Equal(q, p) {
				contained = true
				break
			}
		}
		if !contained {
			filtered = append(filtered, p)
		}
	}
	return filtered, ignorable
}

// splitPartiallyToTests handles the "old plan was suites+tests mixed, new
// discovery is suites-only" reconciliation: any new suite that contains an
// old Test item is broken into its known Test children so the old
// test-level granularity survives the merge.
func splitPartiallyToTests(newSuites, oldItems []planitem.Item) []planitem.Item {
	out := make([]planitem.Item, 0, len(newSuites))
	for _, s := range newSuites {
		split := false
		for _, oldTest := range oldItems {
			if oldTest.Kind == planitem.KindTest && s.Contains(oldTest) {
				split = true
				break
			}
		}
		if split {
			for _, t := range s.Tests {
				out = append(out, planitem.Item{Kind: planitem.KindTest, Name: t})
			}
		} else {
			out = append(out, s)
		}
	}
	return out
}
