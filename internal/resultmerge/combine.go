package resultmerge

import "fmt"

// MergedResult is the final merge output: either a single combined suite
// tree (the common case, one root suite across every item) or several, one
// per distinct root suite name, when the run's data sources produced more
// than one top-level suite.
type MergedResult struct {
	Suites []*Suite
	Errors Errors
}

// Merge groups result_files by their root suite name, splices every result
// in a group into one tree via Merger, and returns the combined set,
// grounded on result_merger.py's merge/merge_groups/group_by_root.
// invalidXMLCallback is invoked once per file that failed to parse (a
// corrupt or missing output.xml), letting the caller flip the
// abnormal-exit bit without aborting the rest of the merge.
func Merge(paths []string, copiedArtifacts []string, invalidXMLCallback func(path string, err error)) (*MergedResult, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("resultmerge: no result files to merge")
	}
	if invalidXMLCallback == nil {
		invalidXMLCallback = func(string, error) {}
	}

	groups := map[string][]*ExecutionResult{}
	var order []string
	for _, path := range paths {
		res, err := Parse(path)
		if err != nil {
			invalidXMLCallback(path, err)
			continue
		}
		if _, seen := groups[res.Suite.Name]; !seen {
			order = append(order, res.Suite.Name)
		}
		groups[res.Suite.Name] = append(groups[res.Suite.Name], res)
	}

	out := &MergedResult{}
	for _, name := range order {
		group := groups[name]
		merger := NewMerger(group[0], copiedArtifacts)
		for _, res := range group[1:] {
			if err := merger.Merge(res); err != nil {
				return nil, err
			}
		}
		out.Suites = append(out.Suites, merger.Root)
		out.Errors.Msgs = append(out.Errors.Msgs, merger.Errors.Msgs...)
	}

	if len(out.Suites) == 0 {
		return nil, fmt.Errorf("resultmerge: every result file was invalid")
	}
	return out, nil
}
