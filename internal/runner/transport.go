// Package runner implements the subprocess driver (C6): it builds the
// runner-cmd/argfile/--variable invocation for one QueueItem and executes it
// through a pluggable Transport, local or remote.
package runner

import (
	"context"
	"time"
)

// Command is one fully-built invocation: an argv, a working directory, and
// the environment it should see. The caller has already resolved the
// runner-cmd, the -A argfile path, and every --variable injection into Argv.
type Command struct {
	Argv     []string
	Dir      string
	Env      []string
	StdoutTo string // path to write merged stdout/stderr for streaming/heartbeat
	Timeout  time.Duration
}

// Result is the outcome of running one Command.
type Result struct {
	ExitCode int
	Elapsed  time.Duration
	TimedOut bool
}

// Transport runs a Command to completion or until ctx is canceled. Canceling
// ctx must terminate the whole process tree the command spawned, not just
// the immediate child (§5's tree-termination requirement for cancellation
// and per-item timeout).
type Transport interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}
