// Package discover implements the one seam planfile.Resolve leaves open onto
// the external test runner: dry-run suite discovery and suitesfrom-file
// extraction, grounded on original_source/src/pabot/pabot.py's
// generate_suite_names_with_builder and _suites_from_outputxml.
package discover

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/pabotd/pabotd/internal/planitem"
	"github.com/pabotd/pabotd/internal/resultmerge"
	"github.com/pabotd/pabotd/internal/runner"
	"github.com/pabotd/pabotd/pkg/perrors"
)

// RobotDiscoverer runs the configured runner command in dry-run mode and
// parses the resulting suite_names.xml into leaf SuiteItems, implementing
// planfile.Discoverer.
type RobotDiscoverer struct {
	Transport  runner.Transport
	RunCommand []string
	RunnerArgs []string // the already-partitioned passthrough robot options
	WorkDir    string
}

// Discover runs "<command> <args> --dryrun --output suite_names.xml
// <dataSources>" and collects every leaf suite (one with no child suites)
// into a SuiteItem carrying its known test longnames, the Go analogue of
// generate_suite_names_with_builder's get_all_suites_from_main_suite pass.
func (d RobotDiscoverer) Discover(ctx context.Context, dataSources []string, _ map[string]string) ([]planitem.Item, error) {
	dryRunDir, err := os.MkdirTemp(d.WorkDir, "pabotd-dryrun-")
	if err != nil {
		return nil, perrors.NewTransientIOError("creating dry-run scratch directory", err)
	}
	defer os.RemoveAll(dryRunDir)

	argv := append([]string{}, d.RunCommand...)
	argv = append(argv, d.RunnerArgs...)
	argv = append(argv,
		"--log", "NONE",
		"--report", "NONE",
		"--xunit", "NONE",
		"--output", "suite_names.xml",
		"--outputdir", dryRunDir,
		"--variable", "PABOTQUEUEINDEX:-1",
		"--dryrun",
	)
	argv = append(argv, dataSources...)

	if _, err := d.Transport.Run(ctx, runner.Command{Argv: argv, Dir: d.WorkDir}); err != nil {
		return nil, perrors.NewConfigurationError("dry-run suite discovery failed", err)
	}

	res, err := resultmerge.Parse(filepath.Join(dryRunDir, "suite_names.xml"))
	if err != nil {
		return nil, perrors.NewConfigurationError("parsing dry-run suite_names.xml", err)
	}

	items := leafSuiteItems(res.Suite)
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return dedupeByName(items), nil
}

func leafSuiteItems(s *resultmerge.Suite) []planitem.Item {
	if len(s.Suites) == 0 {
		return []planitem.Item{suiteItem(s)}
	}
	var out []planitem.Item
	for _, child := range s.Suites {
		out = append(out, leafSuiteItems(child)...)
	}
	return out
}

func suiteItem(s *resultmerge.Suite) planitem.Item {
	tests := make([]string, 0, len(s.Tests))
	for _, t := range s.Tests {
		tests = append(tests, t.LongName)
	}
	return planitem.Item{Kind: planitem.KindSuite, Name: longName(s), Tests: tests}
}

func longName(s *resultmerge.Suite) string {
	if s.Parent == nil {
		return s.Name
	}
	return longName(s.Parent) + "." + s.Name
}

func dedupeByName(items []planitem.Item) []planitem.Item {
	seen := make(map[string]bool, len(items))
	out := make([]planitem.Item, 0, len(items))
	for _, it := range items {
		if seen[it.Name] {
			continue
		}
		seen[it.Name] = true
		out = append(out, it)
	}
	return out
}
