// Package resultmerge implements the result merger (C7): it splices every
// parallel item's output.xml back into one Robot Framework result tree that
// looks exactly like a single-process run would have produced, grounded on
// original_source/src/pabot/result_merger.py's ResultMerger(SuiteVisitor).
package resultmerge

import "encoding/xml"

// Status carries a node's pass/fail outcome and timing, common to both
// <suite> and <test> elements in Robot Framework's output.xml.
type Status struct {
	Status    string `xml:"status,attr"`
	StartTime string `xml:"starttime,attr"`
	EndTime   string `xml:"endtime,attr"`
}

// Msg is a single log message; html messages may carry src=/href=
// references to copied artifact files that need their paths rewritten
// after merging moves everything under one output directory.
type Msg struct {
	Timestamp string `xml:"timestamp,attr"`
	Level     string `xml:"level,attr"`
	HTML      string `xml:"html,attr"`
	Text      string `xml:",chardata"`
}

// Keyword is a generic setup/teardown/body keyword node. Its inner content
// is preserved as raw XML so the merger never needs to understand robot's
// full keyword schema to pass it through unchanged.
type Keyword struct {
	Name    string  `xml:"name,attr"`
	Type    string  `xml:"type,attr"`
	LibName string  `xml:"library,attr"`
	Inner   []byte  `xml:",innerxml"`
	Status  *Status `xml:"status"`
	Msgs    []Msg   `xml:"msg"`
}

// Test is one <test> element. Only the fields the merger needs to compare
// (LongName via the enclosing suite path) and preserve are modeled; the
// rest of the node's content is kept as raw XML.
type Test struct {
	Name   string  `xml:"name,attr"`
	Inner  []byte  `xml:",innerxml"`
	Status *Status `xml:"status"`

	// LongName is not part of the XML; it's computed at parse time as
	// "<suite path>.<name>" so merge_missing_tests can compare tests
	// across independently-parsed output.xml files by identity.
	LongName string `xml:"-"`
}

// Suite is one <suite> element: a tree of nested suites and tests plus the
// metadata/doc/status the merger needs to reconcile across parallel runs.
type Suite struct {
	Name     string     `xml:"name,attr"`
	Source   string     `xml:"source,attr"`
	Doc      string     `xml:"doc"`
	Metadata []MetaItem `xml:"metadata>item"`
	Suites   []*Suite   `xml:"suite"`
	Tests    []*Test    `xml:"test"`
	Status   *Status    `xml:"status"`
	Setup    *Keyword   `xml:"kw"`

	// Parent is not serialized; it's set while building the tree so
	// end_suite-equivalent merge logic can walk back up.
	Parent *Suite `xml:"-"`
}

// MetaItem is one <metadata><item name="...">value</item></metadata> entry.
type MetaItem struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

// Errors carries the top-level <errors> element, combined (not merged:
// pabot.py's `self.errors.add(merged.errors)`) across every parsed result.
type Errors struct {
	Msgs []Msg `xml:"msg"`
}

// ExecutionResult is one parsed output.xml: its root suite plus the
// top-level errors list and the source path it came from (used to derive
// the artifact-link rewrite prefix).
type ExecutionResult struct {
	XMLName xml.Name `xml:"robot"`
	Suite   *Suite   `xml:"suite"`
	Errors  Errors   `xml:"errors"`
	Source  string   `xml:"-"`
}
