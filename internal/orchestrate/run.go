// Package orchestrate wires C1 through C7 into the single end-to-end run
// cmd/pabotd's root command drives: partition argv, resolve the plan,
// build dependency stages, start the coordination server, drive the
// worker-pool scheduler over a Transport, and merge per-item results.
package orchestrate

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pabotd/pabotd/internal/cliargs"
	"github.com/pabotd/pabotd/internal/discover"
	"github.com/pabotd/pabotd/internal/planfile"
	"github.com/pabotd/pabotd/internal/planitem"
	"github.com/pabotd/pabotd/internal/planner"
	"github.com/pabotd/pabotd/internal/resultmerge"
	"github.com/pabotd/pabotd/internal/runner"
	"github.com/pabotd/pabotd/internal/scheduler"
	"github.com/pabotd/pabotd/pkg/perrors"
	"github.com/pabotd/pabotd/pkg/telemetry"
)

// Config bundles everything one Run invocation needs from its caller.
type Config struct {
	Args    []string
	WorkDir string
	Logger  zerolog.Logger
}

// Exit codes, mirroring pabot.py's documented return codes.
const (
	ExitOK          = 0
	ExitTestFailure = 1
	ExitNoTests     = 252
)

// Run executes the full C1->C7 pipeline and returns the process exit code.
// It wraps runPipeline to bracket the whole attempt with run.started/
// run.completed/run.failed telemetry events, grounded on pkg/telemetry's
// own PublishRunStarted/Completed/Failed lifecycle.
func Run(ctx context.Context, cfg Config) (int, error) {
	events, err := telemetry.NewEventPublisher(telemetry.EventsConfig{
		Enabled:       true,
		BufferSize:    256,
		FlushInterval: time.Second,
		MaxBatchSize:  64,
		EnableAsync:   true,
	})
	if err != nil {
		return 255, err
	}
	defer events.Shutdown(ctx)

	runID := newCallerID()
	start := time.Now()
	_ = events.PublishRunStarted(runID, os.Getenv("USER"))

	code, err := runPipeline(ctx, cfg, runID, events)
	if err != nil {
		_ = events.PublishRunFailed(runID, err.Error())
		return code, err
	}

	status := "passed"
	if code != ExitOK {
		status = "failed"
	}
	_ = events.PublishRunCompleted(runID, status, time.Since(start))
	return code, nil
}

func runPipeline(ctx context.Context, cfg Config, runID string, events *telemetry.EventPublisher) (int, error) {
	res, err := cliargs.Parse(cfg.Args)
	if err != nil {
		return 255, err
	}

	resultsDir := filepath.Join(cfg.WorkDir, "pabot_results")
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return 255, perrors.NewTransientIOError("creating results directory", err)
	}

	lib, err := startCoordination(ctx, res.Pabot, cfg.Logger)
	if err != nil {
		return 255, err
	}

	disc := discover.RobotDiscoverer{
		Transport:  runner.NewLocalTransport(),
		RunCommand: res.Pabot.Command,
		RunnerArgs: res.RunnerOptions,
		WorkDir:    cfg.WorkDir,
	}

	items, err := planfile.Resolve(ctx, planfile.ResolveInput{
		DataSources:    res.DataSources,
		Options:        cliargs.OptionsMap(res.RunnerOptions),
		TestLevelSplit: res.Pabot.TestLevelSplit,
		RunEmptySuite:  cliargs.OptionsMap(res.RunnerOptions)["runemptysuite"] == "true",
		SuitesFrom:     res.Pabot.SuitesFrom,
		WorkDir:        cfg.WorkDir,
		OnCacheWriteFailure: func(err error) {
			cfg.Logger.Warn().Err(err).Msg("plan cache write failed, continuing with in-memory plan")
		},
	}, disc, discover.OutputXMLSuitesFromReader{})
	if err != nil {
		if re, ok := err.(*perrors.RunError); ok && re.Code == perrors.ErrCodeNoTestsToRun {
			cfg.Logger.Info().Msg("no tests to execute")
			return ExitNoTests, nil
		}
		return 255, err
	}

	ordering, err := readOrderingFile(res.Pabot.Ordering)
	if err != nil {
		return 255, err
	}

	stages, err := planner.Plan(planner.Input{
		Items:    items,
		Ordering: ordering,
		Shard:    res.Pabot.Shard(),
	})
	if err != nil {
		return 255, err
	}

	transport, err := buildTransport(ctx, res.Pabot, cfg.Logger)
	if err != nil {
		return 255, err
	}

	run := newExecutor(executorConfig{
		Transport:         transport,
		RunCommand:        res.Pabot.Command,
		SubprocessOptions: res.SubprocessOptions,
		DataSources:       res.DataSources,
		ResultsDir:        resultsDir,
		PabotLibURI:       lib.uri,
		Processes:         res.Pabot.ResolvedProcesses(),
		ProcessTimeout:    res.Pabot.ProcessTimeoutSeconds,
		ArgumentFiles:     res.Pabot.ArgumentFiles,
		Events:            events,
		RunID:             runID,
	})

	opts := scheduler.Options{
		Processes:        res.Pabot.ResolvedProcesses(),
		FailurePolicy:    scheduler.FailurePolicySkip,
		SetParallelValue: lib.setParallelValue,
		PollAddedSuites:  lib.pollAddedSuites,
	}

	var results []scheduler.ItemResult
	if anyDependency(stages) {
		results = scheduler.RunDynamic(ctx, stages, opts, run)
	} else {
		results = scheduler.RunStatic(ctx, stages, opts, run)
	}

	publishSkippedItems(events, runID, stages, results)

	outputPaths := collectOutputPaths(resultsDir, len(results))
	merged, err := resultmerge.Merge(outputPaths, res.Pabot.Artifacts, func(path string, err error) {
		cfg.Logger.Warn().Str("path", path).Err(err).Msg("skipping invalid result artifact")
	})
	if err != nil {
		return 255, err
	}

	finalOutput := filepath.Join(cfg.WorkDir, "output.xml")
	if err := resultmerge.Write(finalOutput, merged, len(results)); err != nil {
		return 255, err
	}

	if !res.Pabot.NoRebot {
		cfg.Logger.Info().Str("output", finalOutput).Msg("merged result ready for the external report generator")
	}

	return exitCode(results), nil
}

func exitCode(results []scheduler.ItemResult) int {
	for _, r := range results {
		if !r.Passed() {
			return ExitTestFailure
		}
	}
	return ExitOK
}

// publishSkippedItems emits item.skipped for every result the dynamic
// scheduler marked Skipped without ever handing it to newExecutor's runFunc
// (so executor.go itself never sees it to publish item.started/failed for).
// The mapping from ItemResult.Index back to a display name mirrors
// scheduler.flattenStages's own ordering: stages concatenated in order.
func publishSkippedItems(events *telemetry.EventPublisher, runID string, stages [][]planner.Unit, results []scheduler.ItemResult) {
	if events == nil {
		return
	}
	var flat []planner.Unit
	for _, stage := range stages {
		flat = append(flat, stage...)
	}
	for _, r := range results {
		if !r.Skipped || r.Index < 0 || r.Index >= len(flat) {
			continue
		}
		_ = events.PublishItemSkipped(runID, strconv.Itoa(r.Index), flat[r.Index].DisplayName(), "upstream dependency failed")
	}
}

func anyDependency(stages [][]planner.Unit) bool {
	for _, stage := range stages {
		for _, u := range stage {
			if len(u.Depends()) > 0 {
				return true
			}
		}
	}
	return false
}

func readOrderingFile(path string) ([]planitem.Item, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, perrors.NewConfigurationError("reading ordering file", err)
	}
	defer f.Close()

	var items []planitem.Item
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		item, err := planitem.ParseLine(line)
		if err != nil {
			return nil, perrors.NewConfigurationError(fmt.Sprintf("parsing ordering file line %q", line), err)
		}
		items = append(items, item)
	}
	if err := sc.Err(); err != nil {
		return nil, perrors.NewConfigurationError("reading ordering file", err)
	}
	return items, nil
}

func collectOutputPaths(resultsDir string, count int) []string {
	var paths []string
	for i := 0; i < count; i++ {
		p := filepath.Join(resultsDir, strconv.Itoa(i), "output.xml")
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}
	return paths
}

func newCallerID() string {
	return uuid.New().String()
}
