package planner

import "github.com/pabotd/pabotd/internal/planitem"

// ApplySleep folds each Sleep{s} token's seconds onto the next item in the
// sequence (a GroupStart opens a group that receives the delay as a whole,
// per §4.3 step 4), removing the Sleep token itself. A trailing Sleep with
// nothing after it is dropped: there is nothing left to delay.
func ApplySleep(items []planitem.Item) ([]planitem.Item, map[int]int) {
	out := make([]planitem.Item, 0, len(items))
	pending := 0
	sleepBefore := make(map[int]int)
	for _, it := range items {
		if it.Kind == planitem.KindSleep {
			pending += it.Seconds
			continue
		}
		if pending > 0 {
			sleepBefore[len(out)] = pending
			pending = 0
		}
		out = append(out, it)
	}
	return out, sleepBefore
}
