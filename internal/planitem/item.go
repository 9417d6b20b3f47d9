// Package planitem defines the tagged-variant ExecutionItem model and its
// line-oriented serialization grammar used by the plan cache file.
package planitem

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the variant an Item carries. Dispatch on Kind keeps plan-file
// round-tripping exhaustive without subclass polymorphism.
type Kind string

const (
	KindSuite        Kind = "suite"
	KindTest         Kind = "test"
	KindDynamicTest  Kind = "dynamic_test"
	KindDynamicSuite Kind = "dynamic_suite"
	KindInclude      Kind = "include"
	KindWait         Kind = "wait"
	KindGroupStart   Kind = "group_start"
	KindGroupEnd     Kind = "group_end"
	KindSleep        Kind = "sleep"
)

// Item is one ExecutionItem. Only the fields relevant to Kind are populated;
// the zero value of the others is ignored by Line and Contains.
type Item struct {
	Kind Kind

	// Name is the dotted longname for Suite/Test/DynamicTest/DynamicSuite,
	// or the tag text for Include.
	Name string

	// Tests/Suites are the optional known children of a Suite, as produced
	// by dry-run discovery; nil when not yet known.
	Tests  []string
	Suites []string

	// Depends lists the dotted longnames this item must wait for.
	Depends []string

	// ParentSuiteName is set on DynamicTest: the suite it was discovered under.
	ParentSuiteName string

	// Variables are the bindings carried by a DynamicSuite injection.
	Variables map[string]string

	// Seconds is the pending delay carried by a Sleep token (0 <= s <= 3600).
	Seconds int
}

// Runnable reports whether the item spawns a subprocess on its own (as
// opposed to being a structural or annotation token).
func (it Item) Runnable() bool {
	switch it.Kind {
	case KindSuite, KindTest, KindDynamicTest, KindDynamicSuite:
		return true
	default:
		return false
	}
}

// Contains reports whether it "covers" other for the purposes of the
// _fix_items/preserve-order de-duplication pass: true when the two compare
// Equal under the tolerant naming rule (so an item trivially "contains"
// itself and its near-duplicates), or when it is a Suite and other's dotted
// name begins with it's name followed by a dot (it is a strict ancestor
// suite of a descendant suite/test). Only Suite items can be strict
// ancestors; every other kind's containment reduces to Equal.
func (it Item) Contains(other Item) bool {
	if Equal(it, other) {
		return true
	}
	if it.Kind != KindSuite || !other.Runnable() {
		return false
	}
	return strings.HasPrefix(other.Name, it.Name+".")
}

// Difference returns the known children of a Suite item (its Tests if any,
// else its Suites) that are not present in exclude, compared with Equal.
// Non-Suite items have no children and always return nil.
func (it Item) Difference(exclude []Item) []Item {
	if it.Kind != KindSuite {
		return nil
	}
	pick := func(names []string, kind Kind) []Item {
		out := make([]Item, 0, len(names))
		for _, n := range names {
			child := Item{Kind: kind, Name: n}
			if !containsEqual(exclude, child) {
				out = append(out, child)
			}
		}
		return out
	}
	if len(it.Tests) > 0 {
		return pick(it.Tests, KindTest)
	}
	if len(it.Suites) > 0 {
		return pick(it.Suites, KindSuite)
	}
	return nil
}

func containsEqual(items []Item, target Item) bool {
	for _, it := range items {
		if Equal(it, target) {
			return true
		}
	}
	return false
}

// Equal implements the source's deliberately tolerant SuiteItem equality:
// two names are equal if one ends with "." + the other, in addition to
// ordinary equality. Only meaningful for Suite/Test/DynamicTest items.
func Equal(a, b Item) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Name == b.Name {
		return true
	}
	return strings.HasSuffix(a.Name, "."+b.Name) || strings.HasSuffix(b.Name, "."+a.Name)
}

// Less orders items for the @total_ordering-equivalent sort used when
// reconciling suitesfrom output (passed before failed, longer elapsed first
// is applied by the caller; Less here is the fallback lexicographic order).
func Less(a, b Item) bool {
	return a.Name < b.Name
}

// Line serializes the item into one payload line of the plan cache grammar.
func (it Item) Line() string {
	switch it.Kind {
	case KindSuite:
		return appendDepends("--suite "+it.Name, it.Depends)
	case KindTest:
		return appendDepends("--test "+it.Name, it.Depends)
	case KindInclude:
		return "--include " + it.Name
	case KindDynamicTest:
		return fmt.Sprintf("DYNAMICTEST %s :: %s", it.ParentSuiteName, it.Name)
	case KindDynamicSuite:
		// Dynamic suites are never written to the plan cache file; they are
		// re-discovered each run via the coordination server's added-suites
		// queue. Serialized only for in-memory diagnostics.
		return fmt.Sprintf("# dynamic-suite %s %s", it.Name, formatVariables(it.Variables))
	case KindWait:
		return "#WAIT"
	case KindGroupStart:
		return "{"
	case KindGroupEnd:
		return "}"
	case KindSleep:
		return fmt.Sprintf("#SLEEP %d", it.Seconds)
	default:
		return ""
	}
}

func appendDepends(prefix string, depends []string) string {
	if len(depends) == 0 {
		return prefix
	}
	var b strings.Builder
	b.WriteString(prefix)
	for _, d := range depends {
		b.WriteString(" #DEPENDS ")
		b.WriteString(d)
	}
	return b.String()
}

func formatVariables(vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+vars[k])
	}
	return strings.Join(parts, ",")
}

// ParseLine parses one payload line of the plan cache grammar. Any line that
// does not match a recognized form returns an error; the caller must treat
// the whole file as corrupted and regenerate, per the plan cache contract.
func ParseLine(line string) (Item, error) {
	line = strings.TrimRight(line, "\n")
	switch {
	case line == "#WAIT":
		return Item{Kind: KindWait}, nil
	case line == "{":
		return Item{Kind: KindGroupStart}, nil
	case line == "}":
		return Item{Kind: KindGroupEnd}, nil
	case strings.HasPrefix(line, "#SLEEP "):
		secs, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "#SLEEP ")))
		if err != nil {
			return Item{}, fmt.Errorf("planitem: invalid #SLEEP line %q: %w", line, err)
		}
		if secs < 0 || secs > 3600 {
			return Item{}, fmt.Errorf("planitem: #SLEEP seconds %d out of range [0,3600]", secs)
		}
		return Item{Kind: KindSleep, Seconds: secs}, nil
	case strings.HasPrefix(line, "--suite "):
		name, deps := splitDepends(strings.TrimPrefix(line, "--suite "))
		return Item{Kind: KindSuite, Name: name, Depends: deps}, nil
	case strings.HasPrefix(line, "--test "):
		name, deps := splitDepends(strings.TrimPrefix(line, "--test "))
		return Item{Kind: KindTest, Name: name, Depends: deps}, nil
	case strings.HasPrefix(line, "--include "):
		return Item{Kind: KindInclude, Name: strings.TrimPrefix(line, "--include ")}, nil
	case strings.HasPrefix(line, "DYNAMICTEST "):
		rest := strings.TrimPrefix(line, "DYNAMICTEST ")
		parts := strings.SplitN(rest, " :: ", 2)
		if len(parts) != 2 {
			return Item{}, fmt.Errorf("planitem: malformed DYNAMICTEST line %q", line)
		}
		return Item{Kind: KindDynamicTest, ParentSuiteName: parts[0], Name: parts[1]}, nil
	default:
		return Item{}, fmt.Errorf("planitem: unrecognized plan line %q", line)
	}
}

func splitDepends(rest string) (name string, depends []string) {
	tok := strings.Split(rest, " #DEPENDS ")
	name = tok[0]
	if len(tok) > 1 {
		depends = tok[1:]
	}
	return name, depends
}

// SuiteItems is the "chunk" variant produced by dry-run discovery: one
// subprocess is spawned per chunk, each chunk covering one or more
// consecutive leaf suites.
type SuiteItems struct {
	Suites []Item
}
