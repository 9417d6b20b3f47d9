package runner

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pabotd/pabotd/pkg/perrors"
	"github.com/pabotd/pabotd/pkg/transports/ssh"
)

// HiveHost names one remote execution target in the Hive transport pool
// (§11.3): a host pabotd can dispatch a QueueItem's subprocess to instead of
// running it on the local machine.
type HiveHost struct {
	Name       string
	SSHConfig  *ssh.Config
	RemoteRoot string // working directory on the remote host for argfiles/outs
}

// HiveTransport runs commands on a remote host over SSH, uploading the
// argfile the caller staged locally and streaming the remote command's
// combined output back to a local file. It is grounded on
// pkg/transports/ssh's SSHClient/executor/fileTransfer, generalized from a
// single ad-hoc command string to the QueueItem invocation's argv.
type HiveTransport struct {
	host   HiveHost
	client *ssh.SSHClient
}

// NewHiveTransport connects to host's SSH config up front so that a dead
// remote is detected before any item is scheduled onto it.
func NewHiveTransport(ctx context.Context, host HiveHost) (*HiveTransport, error) {
	client, err := ssh.NewSSHClient(host.SSHConfig)
	if err != nil {
		return nil, perrors.NewCoordinationUnreachableError("building ssh client for hive host "+host.Name, err)
	}
	if err := client.Connect(ctx); err != nil {
		return nil, perrors.NewCoordinationUnreachableError("connecting to hive host "+host.Name, err)
	}
	return &HiveTransport{host: host, client: client}, nil
}

func (t *HiveTransport) Run(ctx context.Context, cmd Command) (Result, error) {
	start := time.Now()

	runCtx := ctx
	var cancel context.CancelFunc
	if cmd.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	remoteArgfile, err := t.uploadArgfile(runCtx, cmd)
	if err != nil {
		return Result{}, err
	}

	remoteArgv := rewriteArgfilePath(cmd.Argv, remoteArgfile)
	shellCmd := fmt.Sprintf("cd %s && %s", shellQuote(t.host.RemoteRoot), strings.Join(quoteArgv(remoteArgv), " "))

	stdout, stderr, err := t.client.ExecuteCommand(runCtx, shellCmd)
	elapsed := time.Since(start)

	if cmd.StdoutTo != "" {
		_ = os.WriteFile(cmd.StdoutTo, []byte(stdout+stderr), 0o644)
	}

	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return Result{ExitCode: -1, Elapsed: elapsed, TimedOut: true},
				perrors.NewItemTimeoutError("item exceeded its timeout on hive host "+t.host.Name, err)
		}
		if ctx.Err() != nil {
			return Result{ExitCode: -1, Elapsed: elapsed},
				perrors.NewCancellationError("item canceled on hive host "+t.host.Name, ctx.Err())
		}
		return Result{ExitCode: 1, Elapsed: elapsed},
			perrors.NewItemFailureError("item failed on hive host "+t.host.Name, err)
	}

	return Result{ExitCode: 0, Elapsed: elapsed}, nil
}

// uploadArgfile copies the locally-staged argfile referenced by cmd.Argv (an
// "-A <path>" pair, per internal/runner/command.go) to the remote host's
// working directory via SFTP, and returns the remote path.
func (t *HiveTransport) uploadArgfile(ctx context.Context, cmd Command) (string, error) {
	local := argfilePath(cmd.Argv)
	if local == "" {
		return "", nil
	}

	remote := path.Join(t.host.RemoteRoot, path.Base(local))
	if err := t.client.UploadFile(ctx, local, remote, 0o644); err != nil {
		return "", perrors.NewCoordinationUnreachableError("uploading argfile to hive host "+t.host.Name, err)
	}
	return remote, nil
}

func argfilePath(argv []string) string {
	for i, a := range argv {
		if a == "-A" && i+1 < len(argv) {
			return argv[i+1]
		}
	}
	return ""
}

func rewriteArgfilePath(argv []string, remotePath string) []string {
	if remotePath == "" {
		return argv
	}
	out := make([]string, len(argv))
	copy(out, argv)
	for i, a := range out {
		if a == "-A" && i+1 < len(out) {
			out[i+1] = remotePath
		}
	}
	return out
}

func quoteArgv(argv []string) []string {
	out := make([]string, len(argv))
	for i, a := range argv {
		out[i] = shellQuote(a)
	}
	return out
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
