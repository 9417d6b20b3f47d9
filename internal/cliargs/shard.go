package cliargs

import "github.com/pabotd/pabotd/internal/planner"

// Shard returns the planner.ShardSpec implied by the parsed --shard option.
// Absent --shard, this is the identity spec (Total<=1, Shard is a no-op).
func (o Options) Shard() planner.ShardSpec {
	return planner.ShardSpec{Index: o.ShardIndex, Total: o.ShardCount}
}
