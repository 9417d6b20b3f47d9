package planner

import (
	"github.com/pabotd/pabotd/internal/planfile"
	"github.com/pabotd/pabotd/internal/planitem"
)

// ApplyOrdering re-sorts items into the order prescribed by an ordering file
// (same grammar as the plan cache), then re-applies the preserve-order
// algorithm so the two reconcile exactly as a cached plan would against a
// fresh discovery. An empty ordering leaves items untouched.
func ApplyOrdering(items, ordering []planitem.Item) []planitem.Item {
	if len(ordering) == 0 {
		return items
	}
	return planfile.Preserve(items, ordering)
}
