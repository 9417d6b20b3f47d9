// Package planner implements the dependency planner (C3): it turns the flat,
// ordered ExecutionItem plan produced by the resolver into stages of
// concurrently runnable units, honoring #DEPENDS, #WAIT, grouping, and
// sharding.
package planner

import "github.com/pabotd/pabotd/internal/planitem"

// Unit is one schedulable piece of work: either a single ExecutionItem, or
// (when it came from a GroupStart...GroupEnd block) several items that must
// run sequentially inside one subprocess. SleepSeconds carries a pending
// #SLEEP annotation applied to whichever item or group it preceded.
type Unit struct {
	Items        []planitem.Item
	SleepSeconds int
}

// DisplayName is the unit's primary item's name, used for logging and for
// resolving #DEPENDS references onto units.
func (u Unit) DisplayName() string {
	if len(u.Items) == 0 {
		return ""
	}
	return u.Items[0].Name
}

// Depends is the union of every #DEPENDS reference carried by the unit's
// items (a group's dependencies are the union of its members').
func (u Unit) Depends() []string {
	var out []string
	for _, it := range u.Items {
		out = append(out, it.Depends...)
	}
	return out
}

// Covers reports whether the unit is the one a #DEPENDS reference to name
// resolves to: any of its items equals or contains name under the tolerant
// naming rule.
func (u Unit) Covers(name string) bool {
	target := planitem.Item{Kind: planitem.KindTest, Name: name}
	for _, it := range u.Items {
		if planitem.Equal(it, target) {
			return true
		}
		if it.Kind == planitem.KindSuite {
			suiteTarget := planitem.Item{Kind: planitem.KindSuite, Name: name}
			if planitem.Equal(it, suiteTarget) || it.Contains(target) || it.Contains(suiteTarget) {
				return true
			}
		}
	}
	return false
}

// IsGroup reports whether the unit was built from a GroupStart...GroupEnd
// block (more than one item, run sequentially by the subprocess driver).
func (u Unit) IsGroup() bool {
	return len(u.Items) > 1
}
