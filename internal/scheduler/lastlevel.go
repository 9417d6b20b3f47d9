package scheduler

import "strings"

// ComputeLastLevels assigns each item in the globally-ordered queue its
// teardown "last level": the dotted-name prefix shared with every later
// item it differs from, at the deepest point any of them diverges. A
// library's run_teardown_only_once only fires once execution has reached
// that prefix for every process, so later code can safely run cleanup
// logic that depends on the whole subtree being done.
//
// Grounded on pabot.py's _find_ending_level/_construct_last_levels: name
// is split on ".", and for each later name the first differing segment
// index is found; the level is the deepest (max) such index across all
// later names. If some later name shares name's entire prefix (no
// divergence at all, i.e. it's a descendant or identical), the suffix
// ".PABOT_noend" is appended instead, meaning no prefix is ever safe
// (teardown must wait for literal completion, not a level barrier).
func ComputeLastLevels(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = findEndingLevel(name, names[i+1:])
	}
	return out
}

func findEndingLevel(name string, later []string) string {
	n := strings.Split(name, ".")
	level := -1
	for _, other := range later {
		o := strings.Split(other, ".")
		diff := firstDiffIndex(o, n)
		if diff >= 0 {
			if diff > level {
				level = diff
			}
		} else {
			return name + ".PABOT_noend"
		}
	}
	return strings.Join(n[:level+1], ".")
}

// firstDiffIndex returns the first index at which o and n differ, within
// the shorter of the two lengths, or -1 if they agree throughout (one is a
// prefix of the other, or they're identical).
func firstDiffIndex(o, n []string) int {
	min := len(o)
	if len(n) < min {
		min = len(n)
	}
	for i := 0; i < min; i++ {
		if o[i] != n[i] {
			return i
		}
	}
	return -1
}
