package planner

import "github.com/pabotd/pabotd/pkg/perrors"

// PartitionByDependencies implements §4.3 step 7: classic Kahn's-algorithm
// topological layering, generalized from the source's PlanUnit IDs to
// ExecutionItem names resolved via Unit.Covers. Only dependency targets
// present within the same stage produce an edge: a target satisfied by an
// earlier #WAIT-delimited stage is already guaranteed complete.
func PartitionByDependencies(stage []Unit) ([][]Unit, error) {
	n := len(stage)
	dependents := make([][]int, n)
	indeg := make([]int, n)

	for i, u := range stage {
		for _, depName := range u.Depends() {
			for j, v := range stage {
				if j == i {
					continue
				}
				if v.Covers(depName) {
					dependents[j] = append(dependents[j], i)
					indeg[i]++
				}
			}
		}
	}

	remaining := append([]int(nil), indeg...)
	done := make([]bool, n)
	var layers [][]Unit
	processed := 0
	for processed < n {
		var layerIdx []int
		for i := 0; i < n; i++ {
			if !done[i] && remaining[i] == 0 {
				layerIdx = append(layerIdx, i)
			}
		}
		if len(layerIdx) == 0 {
			return nil, perrors.NewConfigurationError("cyclic dependency within stage", nil).
				WithCode(perrors.ErrCodeCyclicDependency)
		}
		layer := make([]Unit, 0, len(layerIdx))
		for _, i := range layerIdx {
			layer = append(layer, stage[i])
			done[i] = true
			processed++
		}
		for _, i := range layerIdx {
			for _, dep := range dependents[i] {
				remaining[dep]--
			}
		}
		layers = append(layers, layer)
	}
	return layers, nil
}
