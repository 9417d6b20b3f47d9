package planner

import (
	"fmt"

	"github.com/pabotd/pabotd/internal/planitem"
	"github.com/pabotd/pabotd/pkg/perrors"
)

// VerifyDependencies checks invariant 1 of §4.3 over the whole plan: every
// #DEPENDS reference names an existing runnable item, no item depends on
// itself, and the dependency graph has no cycles.
func VerifyDependencies(items []planitem.Item) error {
	resolve := func(name string) (int, bool) {
		target := planitem.Item{Kind: planitem.KindTest, Name: name}
		suiteTarget := planitem.Item{Kind: planitem.KindSuite, Name: name}
		for i, it := range items {
			if !it.Runnable() {
				continue
			}
			if planitem.Equal(it, target) || planitem.Equal(it, suiteTarget) {
				return i, true
			}
			if it.Kind == planitem.KindSuite && (it.Contains(target) || it.Contains(suiteTarget)) {
				return i, true
			}
		}
		return 0, false
	}

	edges := make(map[int][]int, len(items))
	for i, it := range items {
		if !it.Runnable() {
			continue
		}
		for _, dep := range it.Depends {
			j, ok := resolve(dep)
			if !ok {
				return perrors.NewConfigurationError(
					fmt.Sprintf("item %q depends on unknown item %q", it.Name, dep), nil,
				).WithCode(perrors.ErrCodeMissingDependency).WithItem(it.Name)
			}
			if j == i {
				return perrors.NewConfigurationError(
					fmt.Sprintf("item %q depends on itself", it.Name), nil,
				).WithCode(perrors.ErrCodeCyclicDependency).WithItem(it.Name)
			}
			edges[i] = append(edges[i], j)
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[int]int, len(items))
	var visit func(i int) error
	visit = func(i int) error {
		color[i] = gray
		for _, j := range edges[i] {
			switch color[j] {
			case gray:
				return perrors.NewConfigurationError(
					fmt.Sprintf("cyclic dependency involving %q", items[i].Name), nil,
				).WithCode(perrors.ErrCodeCyclicDependency).WithItem(items[i].Name)
			case white:
				if err := visit(j); err != nil {
					return err
				}
			}
		}
		color[i] = black
		return nil
	}
	for i := range items {
		if color[i] == white {
			if err := visit(i); err != nil {
				return err
			}
		}
	}
	return nil
}
