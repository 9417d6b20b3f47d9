package orchestrate

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pabotd/pabotd/internal/cliargs"
	"github.com/pabotd/pabotd/internal/planitem"
	"github.com/pabotd/pabotd/internal/planner"
	"github.com/pabotd/pabotd/internal/runner"
	"github.com/pabotd/pabotd/internal/scheduler"
	"github.com/pabotd/pabotd/pkg/telemetry"
)

// executorConfig bundles everything newExecutor needs to turn one
// scheduler.QueueItem into a runner.Command and run it.
type executorConfig struct {
	Transport         runner.Transport
	RunCommand        []string
	SubprocessOptions []string
	DataSources       []string
	ResultsDir        string
	PabotLibURI       string
	Processes         int
	ProcessTimeout    int
	ArgumentFiles     []cliargs.ArgumentFileRef

	// Events/RunID, when Events is non-nil, publish item.started/
	// completed/failed around each item, the per-item analogue of Run's
	// own run.started/completed/failed bracket.
	Events *telemetry.EventPublisher
	RunID  string
}

// newExecutor returns the scheduler's runFunc: the Go analogue of
// pabot.py's execute_and_wait_with, building one subprocess invocation per
// QueueItem and handing it to the configured Transport.
func newExecutor(cfg executorConfig) func(ctx context.Context, item scheduler.QueueItem) scheduler.ItemResult {
	return func(ctx context.Context, item scheduler.QueueItem) scheduler.ItemResult {
		unitID := strconv.Itoa(item.Index)
		if cfg.Events != nil {
			_ = cfg.Events.PublishItemStarted(cfg.RunID, unitID, item.DisplayName)
		}

		outsDir := filepath.Join(cfg.ResultsDir, strconv.Itoa(item.Index))

		baseArgs := append([]string{}, cfg.SubprocessOptions...)
		baseArgs = append(baseArgs, selectorArgs(item.Unit)...)

		spec := runner.ExecSpec{
			RunCommand:   cfg.RunCommand,
			BaseArgs:     baseArgs,
			DataSources:  cfg.DataSources,
			OutsDir:      outsDir,
			CallerID:     newCallerID(),
			PabotLibURI:  cfg.PabotLibURI,
			PoolID:       item.WorkerID,
			IsLast:       item.IsLastInWorker,
			Processes:    cfg.Processes,
			QueueIndex:   item.Index,
			LastLevel:    item.LastLevel,
			Skip:         item.Skip,
			ArgumentFile: argumentFileFor(item.ArgfileIndex, cfg.ArgumentFiles),
		}

		cmd, err := runner.BuildCommand(spec, cfg.ProcessTimeout)
		if err != nil {
			if cfg.Events != nil {
				_ = cfg.Events.PublishItemFailed(cfg.RunID, unitID, item.DisplayName, err.Error())
			}
			return scheduler.ItemResult{Index: item.Index, Err: err}
		}

		res, err := cfg.Transport.Run(ctx, cmd)
		result := scheduler.ItemResult{
			Index:    item.Index,
			ExitCode: res.ExitCode,
			Elapsed:  res.Elapsed,
			TimedOut: res.TimedOut,
			Err:      err,
		}

		if cfg.Events != nil {
			if result.Passed() {
				_ = cfg.Events.PublishItemCompleted(cfg.RunID, unitID, item.DisplayName, res.Elapsed)
			} else {
				reason := fmt.Sprintf("exit code %d", res.ExitCode)
				if err != nil {
					reason = err.Error()
				}
				_ = cfg.Events.PublishItemFailed(cfg.RunID, unitID, item.DisplayName, reason)
			}
		}
		return result
	}
}

func argumentFileFor(index string, files []cliargs.ArgumentFileRef) string {
	if index == "" {
		return ""
	}
	for _, f := range files {
		if f.Index == index {
			return f.Path
		}
	}
	return ""
}

// selectorArgs builds the --suite/--test flags (and any variable
// injections) a unit's items contribute to its subprocess invocation,
// grounded on execution_items.py's modify_options_for_executor family:
// a plain Suite or Test contributes one --suite/--test flag; a Test also
// gets its glob-special characters ([, ], ?, *) escaped the way Robot
// Framework's own TestNames option does; a DynamicSuite contributes a
// --suite flag plus its injected --variable bindings; a DynamicTest
// contributes its parent suite's --suite flag plus a DYNAMICTEST:<name>
// variable; a group (several items run sequentially in one subprocess)
// accumulates every member's flags.
func selectorArgs(u planner.Unit) []string {
	var args []string
	for _, it := range u.Items {
		switch it.Kind {
		case planitem.KindSuite:
			args = append(args, "--suite", it.Name)
		case planitem.KindTest:
			args = append(args, "--test", escapeGlob(it.Name))
		case planitem.KindDynamicSuite:
			args = append(args, "--suite", it.Name)
			args = append(args, variableArgs(it.Variables)...)
		case planitem.KindDynamicTest:
			args = append(args, "--suite", it.ParentSuiteName)
			args = append(args, "--variable", fmt.Sprintf("DYNAMICTEST:%s", it.Name))
		}
	}
	return args
}

func variableArgs(vars map[string]string) []string {
	if len(vars) == 0 {
		return nil
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		args = append(args, "--variable", fmt.Sprintf("%s:%s", k, vars[k]))
	}
	return args
}

// escapeGlob wraps each glob-special character in its own single-character
// class so Robot Framework's --test option matches the literal test name
// rather than treating it as a glob pattern, grounded on pabot.py's
// TestItem.modify_options_for_executor (RF >= 3.1 compatibility path).
func escapeGlob(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '[', ']', '?', '*':
			b.WriteByte('[')
			b.WriteRune(r)
			b.WriteByte(']')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
