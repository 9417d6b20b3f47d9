package resultmerge

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/pabotd/pabotd/pkg/perrors"
)

// Parse reads and decodes one item's output.xml, grounded on
// result_merger.py's ExecutionResult(src): an unreadable or malformed file
// yields a CorruptArtifactError, which Merge reports to its
// invalidXMLCallback before skipping the file rather than aborting the
// whole merge, matching group_by_root's DataError handling.
func Parse(path string) (*ExecutionResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perrors.NewCorruptArtifactError(fmt.Sprintf("opening result artifact %s", path), err)
	}
	defer f.Close()

	var res ExecutionResult
	if err := xml.NewDecoder(f).Decode(&res); err != nil {
		return nil, perrors.NewCorruptArtifactError(fmt.Sprintf("parsing result artifact %s", path), err)
	}
	if res.Suite == nil {
		return nil, perrors.NewCorruptArtifactError(fmt.Sprintf("result artifact %s has no root suite", path), nil)
	}
	res.Source = path
	linkParents(res.Suite, nil)
	assignLongNames(res.Suite, "")
	return &res, nil
}

func linkParents(s *Suite, parent *Suite) {
	s.Parent = parent
	for _, child := range s.Suites {
		linkParents(child, s)
	}
}

func assignLongNames(s *Suite, prefix string) {
	full := s.Name
	if prefix != "" {
		full = prefix + "." + s.Name
	}
	for _, t := range s.Tests {
		t.LongName = full + "." + t.Name
	}
	for _, child := range s.Suites {
		assignLongNames(child, full)
	}
}
