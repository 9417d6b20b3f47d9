package planner

import "github.com/pabotd/pabotd/internal/planitem"

// Input bundles everything the dependency planner needs for one run.
type Input struct {
	Items    []planitem.Item
	Ordering []planitem.Item // nil when no ordering file was supplied
	Shard    ShardSpec       // zero value (Total==0) means no sharding
}

// Plan runs §4.3's full algorithm end to end: dependency verification,
// ordering, sharding, sleep folding, Wait/group staging, and per-stage
// dependency partitioning. The result is a flat, ordered list of stages,
// each a concurrent bag of Units; stages run sequentially, Units within a
// stage run concurrently.
func Plan(in Input) ([][]Unit, error) {
	if err := VerifyDependencies(in.Items); err != nil {
		return nil, err
	}

	items := ApplyOrdering(in.Items, in.Ordering)

	shard := in.Shard
	if shard.Total == 0 {
		shard.Total = 1
		shard.Index = 1
	}
	sharded, err := Shard(items, shard)
	if err != nil {
		return nil, err
	}

	folded, sleepBefore := ApplySleep(sharded)
	rawStages := GroupAndStage(folded, sleepBefore)

	var out [][]Unit
	for _, stage := range rawStages {
		layers, err := PartitionByDependencies(stage)
		if err != nil {
			return nil, err
		}
		out = append(out, layers...)
	}
	return out, nil
}
