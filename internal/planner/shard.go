package planner

import (
	"fmt"

	"github.com/pabotd/pabotd/internal/planitem"
	"github.com/pabotd/pabotd/pkg/perrors"
)

// ShardSpec is a parsed "<index>/<total>" shard specification.
type ShardSpec struct {
	Index int // 1-based
	Total int
}

// Shard selects the i-th evenly sized contiguous slice of items, with the
// remainder distributed over the first r shards, per §4.3 step 3. It
// operates only over runnable items: structural tokens (#WAIT, group
// brackets, #SLEEP) are not counted toward the shard size and are carried
// along with whichever runnable items end up selected, preserving relative
// order.
func Shard(items []planitem.Item, spec ShardSpec) ([]planitem.Item, error) {
	if spec.Total <= 1 {
		return items, nil
	}
	if spec.Index < 1 || spec.Index > spec.Total {
		return nil, perrors.NewConfigurationError(
			fmt.Sprintf("shard index %d out of range for %d shards", spec.Index, spec.Total), nil,
		).WithCode(perrors.ErrCodeInvalidShard)
	}

	var runnableIdx []int
	for i, it := range items {
		if it.Runnable() {
			runnableIdx = append(runnableIdx, i)
		}
	}
	if len(runnableIdx) < spec.Total {
		return nil, perrors.NewConfigurationError(
			fmt.Sprintf("cannot split %d runnable items into %d shards", len(runnableIdx), spec.Total), nil,
		).WithCode(perrors.ErrCodeInvalidShard)
	}

	base := len(runnableIdx) / spec.Total
	remainder := len(runnableIdx) % spec.Total

	start := 0
	for s := 1; s < spec.Index; s++ {
		size := base
		if s <= remainder {
			size++
		}
		start += size
	}
	size := base
	if spec.Index <= remainder {
		size++
	}
	end := start + size

	selected := make(map[int]bool, size)
	for _, idx := range runnableIdx[start:end] {
		selected[idx] = true
	}

	out := make([]planitem.Item, 0, len(items))
	for i, it := range items {
		if it.Runnable() {
			if selected[i] {
				out = append(out, it)
			}
			continue
		}
		out = append(out, it)
	}
	return planitem.CollapseWaits(out), nil
}
