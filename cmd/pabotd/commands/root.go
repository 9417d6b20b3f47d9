package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pabotd/pabotd/internal/orchestrate"
)

// Execute runs the root command and returns the process exit code pabotd
// should terminate with: orchestrate.Run's own exit codes for the default
// (no subcommand) invocation, or 0 on success and 255 on error for the
// "lib" subcommand.
func Execute(ctx context.Context, version, commit, buildDate string) (int, error) {
	exitCode := orchestrate.ExitOK
	var runErr error

	rootCmd := &cobra.Command{
		Use:   "pabotd [pabot options] [runner options] datasources...",
		Short: "Parallel Robot Framework test executor",
		Long: `pabotd splits a Robot Framework suite across a worker pool of runner
subprocesses, coordinates them through a shared library server, and merges
their results back into one output.xml, grounded on pabot's architecture.

Unlike most CLI tools, pabotd's own flags and the runner's passthrough
flags are interleaved on one command line; flag parsing is handed off to
the argument partitioner (internal/cliargs) rather than cobra, so this
root command's own flags are disabled and its full argv is forwarded
unchanged.`,
		Version:            fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := workDir()
			if err != nil {
				return err
			}
			code, err := orchestrate.Run(ctx, orchestrate.Config{
				Args:    args,
				WorkDir: wd,
				Logger:  log.Logger,
			})
			exitCode = code
			runErr = err
			return err
		},
	}

	rootCmd.AddCommand(newLibCommand())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if runErr != nil {
			return exitCode, runErr
		}
		return 255, err
	}
	return exitCode, nil
}
