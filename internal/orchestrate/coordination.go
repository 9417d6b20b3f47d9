package orchestrate

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pabotd/pabotd/internal/cliargs"
	"github.com/pabotd/pabotd/internal/coordination"
	"github.com/pabotd/pabotd/internal/planitem"
	"github.com/pabotd/pabotd/internal/planner"
)

// libHandle is what the rest of the orchestrator needs back from the
// coordination server it started (or didn't, per --pabotlib=false): the
// URI subprocesses receive via PABOTLIBURI, and the two scheduler seams
// (SetParallelValue/PollAddedSuites) that only make sense when a server is
// actually running.
type libHandle struct {
	uri              string
	setParallelValue func(key, value string)
	pollAddedSuites  func() []planner.Unit
}

// startCoordination starts the coordination library server unless the run
// asked it disabled, grounded on pabot.py's PabotLib subprocess: one server,
// shared State, bound at --pabotlibhost:--pabotlibport (falling back to a
// free port on bind failure, per coordination.NewServer).
func startCoordination(ctx context.Context, opts cliargs.Options, logger zerolog.Logger) (*libHandle, error) {
	if !opts.PabotLib {
		return &libHandle{}, nil
	}

	state := coordination.NewState()

	if opts.ResourceFile != "" {
		sets, err := coordination.ParseResourceFile(opts.ResourceFile)
		if err != nil {
			return nil, err
		}
		state.LoadValueSets(sets)

		go func() {
			if err := coordination.WatchResourceFile(ctx, opts.ResourceFile, state, logger); err != nil {
				logger.Warn().Err(err).Msg("resource file watcher stopped")
			}
		}()
	}

	host := opts.PabotLibHost
	if host == "" {
		host = "127.0.0.1"
	}
	server, err := coordination.NewServer(fmt.Sprintf("%s:%d", host, opts.PabotLibPort), state, logger)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := server.Serve(ctx); err != nil {
			logger.Warn().Err(err).Msg("coordination server stopped")
		}
	}()

	return &libHandle{
		uri:              fmt.Sprintf("http://%s", server.Addr().String()),
		setParallelValue: state.SetParallelValue,
		pollAddedSuites:  func() []planner.Unit { return addedSuitesToUnits(state.GetAddedSuites()) },
	}, nil
}

// addedSuitesToUnits converts suites injected via
// add_suite_to_execution_queue into schedulable Units, grounded on
// pabot.py's DynamicSuiteItem: one suite per added entry, its variables
// carried through to modify_options_for_executor's --variable injection.
func addedSuitesToUnits(added []coordination.AddedSuite) []planner.Unit {
	if len(added) == 0 {
		return nil
	}
	units := make([]planner.Unit, len(added))
	for i, a := range added {
		units[i] = planner.Unit{Items: []planitem.Item{{
			Kind:      planitem.KindDynamicSuite,
			Name:      a.Name,
			Variables: a.Variables,
		}}}
	}
	return units
}
