// Package cliargs implements the argument partitioner (C1): it splits a raw
// argument vector into orchestrator options, runner passthrough options, and
// data sources, mirroring the teacher's cobra command surface while handling
// the open-ended, opaque-to-us runner option set the way pabot.py's
// arguments module does.
package cliargs

import "runtime"

// Options holds every orchestrator-recognized flag, defaulted the way
// pabot.py's _parse_pabot_args seeds its dict before scanning argv.
type Options struct {
	Command               []string
	Verbose               bool
	Help                  bool
	Version               bool
	TestLevelSplit        bool
	PabotLib              bool
	PabotLibHost          string
	PabotLibPort          int
	Processes             int // 0 means "all" (auto-detect at run time)
	ProcessTimeoutSeconds int
	Artifacts             []string
	ArtifactsInSubfolders bool
	ShardIndex            int
	ShardCount            int
	Chunk                 bool
	NoRebot               bool
	Hive                  string
	ResourceFile          string
	Ordering              string
	SuitesFrom            string
	PabotPrerunModifier   string

	// ArgumentFiles maps a "1".."9" index (from --argumentfileN) to path,
	// in the order encountered.
	ArgumentFiles []ArgumentFileRef
}

// ArgumentFileRef is one --argumentfileN occurrence.
type ArgumentFileRef struct {
	Index string
	Path  string
}

func defaultOptions() Options {
	return Options{
		Command:      []string{"robot"},
		PabotLib:     true,
		PabotLibHost: "127.0.0.1",
		PabotLibPort: 8270,
		Processes:    processesCount(),
		Artifacts:    []string{"png"},
		ShardIndex:   0,
		ShardCount:   1,
	}
}

// ResolvedProcesses returns the worker count to hand the scheduler: the
// explicit value, or the host's CPU count when --processes all asked for
// auto-detection (stored as the 0 sentinel).
func (o Options) ResolvedProcesses() int {
	if o.Processes <= 0 {
		return processesCount()
	}
	return o.Processes
}

// processesCount defaults to the host's logical CPU count, floored at 2, the
// same floor pabot.py's _processes_count applies.
func processesCount() int {
	n := runtime.NumCPU()
	if n < 2 {
		return 2
	}
	return n
}
