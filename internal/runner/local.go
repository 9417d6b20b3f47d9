package runner

import (
	"context"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/pabotd/pabotd/pkg/perrors"
)

// LocalTransport runs commands as local subprocesses via os/exec, grounded
// on the micro-runner's exec handler. Each child is placed in its own
// process group so that cancellation or a per-item timeout can terminate
// the whole tree the runner spawned (e.g. a shell wrapper and its
// children), not just the immediate child.
type LocalTransport struct{}

func NewLocalTransport() *LocalTransport { return &LocalTransport{} }

func (t *LocalTransport) Run(ctx context.Context, cmd Command) (Result, error) {
	start := time.Now()

	runCtx := ctx
	var cancel context.CancelFunc
	if cmd.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.Command(cmd.Argv[0], cmd.Argv[1:]...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if cmd.StdoutTo != "" {
		f, err := os.Create(cmd.StdoutTo)
		if err != nil {
			return Result{}, perrors.NewInternalError("opening item output file", err)
		}
		defer f.Close()
		c.Stdout = f
		c.Stderr = f
	}

	if err := c.Start(); err != nil {
		return Result{}, perrors.NewItemFailureError("starting subprocess", err)
	}

	done := make(chan error, 1)
	go func() { done <- c.Wait() }()

	select {
	case err := <-done:
		elapsed := time.Since(start)
		return result(c, err, elapsed, false), nil
	case <-runCtx.Done():
		killProcessGroup(c)
		<-done
		elapsed := time.Since(start)
		if runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return Result{ExitCode: -1, Elapsed: elapsed, TimedOut: true},
				perrors.NewItemTimeoutError("item exceeded its timeout", runCtx.Err())
		}
		return Result{ExitCode: -1, Elapsed: elapsed},
			perrors.NewCancellationError("item canceled", ctx.Err())
	}
}

// killProcessGroup sends SIGTERM, then escalates to SIGKILL after a short
// grace period, to the whole process group so that any children the
// subprocess spawned are also terminated.
func killProcessGroup(c *exec.Cmd) {
	if c.Process == nil {
		return
	}
	pgid, err := syscall.Getpgid(c.Process.Pid)
	if err != nil {
		_ = c.Process.Kill()
		return
	}
	_ = syscall.Kill(-pgid, syscall.SIGTERM)
	time.Sleep(200 * time.Millisecond)
	_ = syscall.Kill(-pgid, syscall.SIGKILL)
}

func result(c *exec.Cmd, err error, elapsed time.Duration, timedOut bool) Result {
	if err == nil {
		return Result{ExitCode: 0, Elapsed: elapsed, TimedOut: timedOut}
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return Result{ExitCode: exitErr.ExitCode(), Elapsed: elapsed, TimedOut: timedOut}
	}
	return Result{ExitCode: -1, Elapsed: elapsed, TimedOut: timedOut}
}
