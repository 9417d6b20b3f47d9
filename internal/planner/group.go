package planner

import "github.com/pabotd/pabotd/internal/planitem"

// GroupAndStage implements §4.3 steps 5 and 6 in one pass: the item sequence
// is split at Wait tokens into stages, and each GroupStart...GroupEnd block
// within a stage collapses into a single Unit whose items run sequentially
// in one subprocess. A group or stage left with no runnable items vanishes
// rather than producing an empty Unit or stage.
func GroupAndStage(items []planitem.Item, sleepBefore map[int]int) [][]Unit {
	var stages [][]Unit
	var current []Unit
	var groupItems []planitem.Item
	groupStartIdx := -1
	inGroup := false

	flushGroup := func() {
		if len(groupItems) > 0 {
			current = append(current, Unit{Items: groupItems, SleepSeconds: sleepBefore[groupStartIdx]})
		}
		groupItems = nil
	}

	for i, it := range items {
		switch it.Kind {
		case planitem.KindWait:
			if len(current) > 0 {
				stages = append(stages, current)
				current = nil
			}
		case planitem.KindGroupStart:
			inGroup = true
			groupStartIdx = i
			groupItems = nil
		case planitem.KindGroupEnd:
			inGroup = false
			flushGroup()
		default:
			if !it.Runnable() {
				continue
			}
			if inGroup {
				groupItems = append(groupItems, it)
			} else {
				current = append(current, Unit{Items: []planitem.Item{it}, SleepSeconds: sleepBefore[i]})
			}
		}
	}
	if len(current) > 0 {
		stages = append(stages, current)
	}
	return stages
}
