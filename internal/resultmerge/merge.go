package resultmerge

import (
	"fmt"

	"github.com/pabotd/pabotd/pkg/perrors"
)

// Merger accumulates one result tree by splicing further ExecutionResults
// into it, grounded on result_merger.py's ResultMerger(SuiteVisitor).
type Merger struct {
	Root     *Suite
	Errors   Errors
	patterns []artifactPattern
}

// NewMerger starts a merge rooted at base's suite tree. copiedArtifacts
// names output files (screenshots, downloaded pages, ...) that were copied
// into the merged output directory under a per-item prefix; message links
// referencing them need that prefix spliced into the path (see links.go).
func NewMerger(base *ExecutionResult, copiedArtifacts []string) *Merger {
	return &Merger{
		Root:     base.Suite,
		Errors:   base.Errors,
		patterns: compileArtifactPatterns(copiedArtifacts),
	}
}

// Merge splices one more parsed result into the accumulated tree.
// Grounded on ResultMerger.merge: rewrite that result's message links with
// its own artifact prefix first, then recursively splice suite-by-suite,
// then fold in its top-level metadata and errors.
func (m *Merger) Merge(res *ExecutionResult) error {
	if res.Suite.Name != m.Root.Name {
		return perrors.NewCorruptArtifactError(
			fmt.Sprintf("result root suite name mismatch: %q != %q", m.Root.Name, res.Suite.Name), nil)
	}

	rewriteLinks(res.Suite, artifactPrefix(res.Source), m.patterns)

	mergeSuite(m.Root, res.Suite)
	for _, item := range res.Suite.Metadata {
		m.Root.Metadata = upsertMetadata(m.Root.Metadata, item)
	}
	m.Errors.Msgs = append(m.Errors.Msgs, res.Errors.Msgs...)
	return nil
}

// mergeSuite splices incoming's subtree into current in place: children
// current doesn't yet have (by name+source identity) are appended whole;
// children it does have are recursively merged; tests missing from
// current's own test list are appended; and the node's own time bounds are
// widened to cover both sides. This mirrors start_suite (find-or-append)
// composed with end_suite (merge_missing_tests/merge_time) from the
// original SuiteVisitor's pre-order/post-order pair.
func mergeSuite(current, incoming *Suite) {
	for _, incomingChild := range incoming.Suites {
		if match := findChildSuite(current.Suites, incomingChild); match != nil {
			mergeSuite(match, incomingChild)
			continue
		}
		incomingChild.Parent = current
		current.Suites = append(current.Suites, incomingChild)
	}
	mergeMissingTests(current, incoming)
	mergeTime(current, incoming)
	cleanPabotlibWaitingKeywords(current)
}

func findChildSuite(items []*Suite, target *Suite) *Suite {
	for _, it := range items {
		if it.Name == target.Name && it.Source == target.Source {
			return it
		}
	}
	return nil
}

// mergeMissingTests appends any of incoming's direct tests current doesn't
// already carry, matched by fully-qualified long name (robust across
// independently parsed result trees where pointer identity means nothing).
func mergeMissingTests(current, incoming *Suite) {
	for _, test := range incoming.Tests {
		found := false
		for _, t := range current.Tests {
			if t.LongName == test.LongName {
				found = true
				break
			}
		}
		if !found {
			current.Tests = append(current.Tests, test)
		}
	}
}

// mergeTime widens current's status time bounds to also cover incoming's.
func mergeTime(current, incoming *Suite) {
	if incoming.Status == nil {
		return
	}
	if current.Status == nil {
		current.Status = incoming.Status
		return
	}
	if current.Status.EndTime == "" || incoming.Status.EndTime > current.Status.EndTime {
		current.Status.EndTime = incoming.Status.EndTime
	}
	if current.Status.StartTime == "" || incoming.Status.StartTime < current.Status.StartTime {
		current.Status.StartTime = incoming.Status.StartTime
	}
}

// cleanPabotlibWaitingKeywords drops a PabotLib.Run* keyword left with no
// children, the trace of a run_on_last_process/run_teardown_only_once call
// that never actually fired in this process because another process ran
// it instead (or because it was still waiting when the suite ended).
func cleanPabotlibWaitingKeywords(suite *Suite) {
	if suite.Setup == nil {
		return
	}
	if suite.Setup.LibName == "pabot.PabotLib" && len(suite.Setup.Inner) == 0 {
		suite.Setup = nil
	}
}

func upsertMetadata(items []MetaItem, item MetaItem) []MetaItem {
	for i, existing := range items {
		if existing.Name == item.Name {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}
