package resultmerge

import (
	"encoding/xml"
	"fmt"
	"os"
)

// Write serializes a MergedResult back to one output.xml-shaped file.
// Grounded on result_merger.merge's single-vs-wrapper decision: when
// there's exactly one root suite its doc gets pabotd's default attribution
// line if it doesn't already have one; when there's more than one (the
// run's data sources produced several distinct top-level suites) they're
// wrapped under one synthetic root, the Go analogue of ResultsCombiner.
func Write(path string, merged *MergedResult, executionCount int) error {
	root := wrapRoot(merged.Suites, executionCount)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("resultmerge: creating %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(xml.Header); err != nil {
		return err
	}

	out := struct {
		XMLName xml.Name `xml:"robot"`
		Suite   *Suite   `xml:"suite"`
		Errors  Errors   `xml:"errors"`
	}{Suite: root, Errors: merged.Errors}

	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	return enc.Encode(out)
}

func wrapRoot(suites []*Suite, executionCount int) *Suite {
	if len(suites) == 1 {
		if suites[0].Doc == "" {
			suites[0].Doc = fmt.Sprintf("Pabotd result from %d executions.", executionCount)
		}
		return suites[0]
	}
	return &Suite{Name: "Pabotd Results", Suites: suites}
}
