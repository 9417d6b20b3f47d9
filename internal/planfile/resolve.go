package planfile

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/pabotd/pabotd/internal/planitem"
	"github.com/pabotd/pabotd/pkg/perrors"
)

// Discoverer asks the runner to enumerate suites in dry-run mode. This is
// the one seam onto the out-of-scope external runner: the plan resolver
// never parses suite source files itself.
type Discoverer interface {
	Discover(ctx context.Context, dataSources []string, options map[string]string) ([]planitem.Item, error)
}

// SuitesFromReader extracts SuiteItem entries from an external result file
// (the suitesfrom option), ordered failed-before-passed, longer elapsed
// first. It is a second, optional seam onto the external report reader.
type SuitesFromReader interface {
	ReadSuites(path string) ([]planitem.Item, error)
}

// ResolveInput bundles the inputs to Resolve.
type ResolveInput struct {
	DataSources    []string
	Options        map[string]string
	TestLevelSplit bool
	RunEmptySuite  bool
	SuitesFrom     string
	WorkDir        string

	// OnCacheWriteFailure, if set, receives a transient-I/O warning when the
	// plan cache file cannot be written. The run always continues with the
	// in-memory plan regardless, per §7's transient-I/O policy.
	OnCacheWriteFailure func(error)
}

func (in ResolveInput) warnCacheWriteFailure(err error) {
	if in.OnCacheWriteFailure != nil {
		in.OnCacheWriteFailure(perrors.NewTransientIOError("writing plan cache", err))
	}
}

// Resolve implements the plan resolver (C2) algorithm of §4.2: compute the
// three input hashes, read or regenerate the plan cache (writing the cache
// itself whenever it regenerates), and return the ordered ExecutionItem
// list.
func Resolve(ctx context.Context, in ResolveInput, disc Discoverer, sfr SuitesFromReader) ([]planitem.Item, error) {
	dataHash, err := HashDataSources(in.DataSources)
	if err != nil {
		return nil, perrors.NewConfigurationError("hashing data sources", err).WithCode(perrors.ErrCodeNoDataSources)
	}
	cmdHash := HashOptions(in.Options, in.TestLevelSplit)
	suitesFromHash, err := HashSuitesFrom(in.SuitesFrom)
	if err != nil {
		return nil, perrors.NewConfigurationError("hashing suitesfrom file", err)
	}
	want := Hashes{DataSources: dataHash, CommandLineOptions: cmdHash, SuitesFrom: suitesFromHash}

	cachePath := filepath.Join(in.WorkDir, CacheFileName)

	cache, readErr := Read(cachePath)
	switch {
	case readErr == nil:
		if cache.Hashes == want {
			return cache.Items, nil
		}
		if cache.Hashes.DataSources != want.DataSources && cache.Hashes.SuitesFrom == want.SuitesFrom {
			// Suite sources changed but the external result file (if any)
			// did not: regenerate discovery and reconcile against the old
			// order rather than discarding it outright.
			fresh, err := generate(ctx, in, disc, sfr)
			if err != nil {
				return nil, err
			}
			merged := Preserve(fresh, cache.Items)
			if err := Write(cachePath, want, merged); err != nil {
				in.warnCacheWriteFailure(err)
			}
			return merged, nil
		}
		fresh, err := generate(ctx, in, disc, sfr)
		if err != nil {
			return nil, err
		}
		if err := Write(cachePath, want, fresh); err != nil {
			in.warnCacheWriteFailure(err)
		}
		return fresh, nil
	case errors.Is(readErr, ErrCorrupt):
		fallthrough
	default:
		// Missing file or any other read failure falls through to full
		// regeneration, per §4.2's failure semantics.
		fresh, err := generate(ctx, in, disc, sfr)
		if err != nil {
			return nil, err
		}
		if err := Write(cachePath, want, fresh); err != nil {
			in.warnCacheWriteFailure(err)
		}
		return fresh, nil
	}
}

func generate(ctx context.Context, in ResolveInput, disc Discoverer, sfr SuitesFromReader) ([]planitem.Item, error) {
	var items []planitem.Item
	var err error

	if in.SuitesFrom != "" && sfr != nil {
		items, err = sfr.ReadSuites(in.SuitesFrom)
		if err != nil {
			return nil, perrors.NewConfigurationError("reading suitesfrom file", err)
		}
	} else {
		if disc == nil {
			return nil, perrors.NewConfigurationError("no discoverer configured and no suitesfrom file given", nil).
				WithCode(perrors.ErrCodeNoDataSources)
		}
		items, err = disc.Discover(ctx, in.DataSources, in.Options)
		if err != nil {
			return nil, perrors.NewConfigurationError("discovering suites", err)
		}
	}

	if in.TestLevelSplit {
		items = levelSplit(items, in.RunEmptySuite)
	}

	if len(items) == 0 {
		if !in.RunEmptySuite {
			return nil, perrors.NewConfigurationError("no tests to execute", nil).WithCode(perrors.ErrCodeNoTestsToRun)
		}
	}

	return items, nil
}

// levelSplit flattens Suite items with known Tests into individual Test
// items, falling back to running the whole suite when it has no known tests
// and empty-suite execution is enabled (otherwise it is dropped, letting
// the no-tests-to-execute check above fire if nothing remains).
func levelSplit(items []planitem.Item, runEmptySuite bool) []planitem.Item {
	out := make([]planitem.Item, 0, len(items))
	for _, it := range items {
		if it.Kind != planitem.KindSuite {
			out = append(out, it)
			continue
		}
		if len(it.Tests) == 0 {
			if runEmptySuite {
				out = append(out, it)
			}
			continue
		}
		for _, t := range it.Tests {
			out = append(out, planitem.Item{Kind: planitem.KindTest, Name: t, Depends: it.Depends})
		}
	}
	return out
}

