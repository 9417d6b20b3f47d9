package planitem

import "testing"

func TestLineRoundTrip(t *testing.T) {
	cases := []Item{
		{Kind: KindSuite, Name: "Tests.Login"},
		{Kind: KindSuite, Name: "Tests.Login", Depends: []string{"Tests.Setup"}},
		{Kind: KindTest, Name: "Tests.Login.Smoke", Depends: []string{"Tests.Login.Bootstrap", "Tests.Other"}},
		{Kind: KindInclude, Name: "smoke"},
		{Kind: KindDynamicTest, ParentSuiteName: "Tests.Login", Name: "Generated Case"},
		{Kind: KindWait},
		{Kind: KindGroupStart},
		{Kind: KindGroupEnd},
		{Kind: KindSleep, Seconds: 5},
	}
	for _, want := range cases {
		line := want.Line()
		got, err := ParseLine(line)
		if err != nil {
			t.Fatalf("ParseLine(%q) error: %v", line, err)
		}
		if got.Kind != want.Kind || got.Name != want.Name || got.Seconds != want.Seconds || got.ParentSuiteName != want.ParentSuiteName {
			t.Fatalf("round-trip mismatch for %q: got %+v, want %+v", line, got, want)
		}
		if len(got.Depends) != len(want.Depends) {
			t.Fatalf("round-trip depends mismatch for %q: got %v, want %v", line, got.Depends, want.Depends)
		}
		for i := range got.Depends {
			if got.Depends[i] != want.Depends[i] {
				t.Fatalf("round-trip depends mismatch for %q: got %v, want %v", line, got.Depends, want.Depends)
			}
		}
	}
}

func TestParseLineRejectsGarbage(t *testing.T) {
	for _, line := range []string{"", "--bogus foo", "DYNAMICTEST missing-separator", "#SLEEP abc", "#SLEEP 99999"} {
		if _, err := ParseLine(line); err == nil {
			t.Errorf("ParseLine(%q) expected error, got nil", line)
		}
	}
}

func TestContainsPartialNameTolerance(t *testing.T) {
	a := Item{Kind: KindSuite, Name: "Tests.Suite"}
	b := Item{Kind: KindTest, Name: "Tests.Suite.Case"}
	if !a.Contains(b) {
		t.Fatalf("expected Tests.Suite to contain Tests.Suite.Case")
	}
	if !a.Contains(a) {
		t.Fatalf("an item trivially contains itself for de-duplication purposes")
	}
}

func TestEqualPartialNameTolerance(t *testing.T) {
	a := Item{Kind: KindSuite, Name: "Tests.Suite"}
	b := Item{Kind: KindSuite, Name: "Suite"}
	if !Equal(a, b) {
		t.Fatalf("expected %q and %q to compare equal under the partial-name tolerance", a.Name, b.Name)
	}
}

func TestCollapseWaits(t *testing.T) {
	in := []Item{
		{Kind: KindWait},
		{Kind: KindSuite, Name: "A"},
		{Kind: KindWait},
		{Kind: KindWait},
		{Kind: KindSuite, Name: "B"},
		{Kind: KindWait},
	}
	out := CollapseWaits(in)
	wantKinds := []Kind{KindSuite, KindWait, KindSuite}
	if len(out) != len(wantKinds) {
		t.Fatalf("got %d items, want %d: %+v", len(out), len(wantKinds), out)
	}
	for i, k := range wantKinds {
		if out[i].Kind != k {
			t.Fatalf("index %d: got kind %s, want %s", i, out[i].Kind, k)
		}
	}
}

func TestValidateSequenceRejectsMixedGroup(t *testing.T) {
	items := []Item{
		{Kind: KindGroupStart},
		{Kind: KindSuite, Name: "A"},
		{Kind: KindTest, Name: "B"},
		{Kind: KindGroupEnd},
	}
	if err := ValidateSequence(items); err == nil {
		t.Fatalf("expected error for mixed-kind group")
	}
}

func TestFixContainmentSplitsAncestorAppearingAfter(t *testing.T) {
	// Descendant listed first, ancestor (with known children) appears after:
	// invariant 4 resolves this by expanding the ancestor to the difference.
	items := []Item{
		{Kind: KindSuite, Name: "Tests.A"},
		{Kind: KindSuite, Name: "Tests", Suites: []string{"Tests.A", "Tests.B"}},
	}
	out := FixContainment(items)
	if len(out) != 2 {
		t.Fatalf("expected descendant kept plus ancestor reduced to the difference, got %+v", out)
	}
	if out[0].Name != "Tests.A" {
		t.Fatalf("expected original descendant first, got %+v", out)
	}
	if out[1].Kind != KindSuite || out[1].Name != "Tests.B" {
		t.Fatalf("expected ancestor expanded to its remaining child Tests.B, got %+v", out[1])
	}
}

func TestFixContainmentDropsRedundantDescendantAppearingAfter(t *testing.T) {
	// Ancestor appears first and already enumerates its children; a
	// separately listed descendant afterward is pure redundancy and is
	// dropped outright rather than split.
	items := []Item{
		{Kind: KindSuite, Name: "Tests", Suites: []string{"Tests.A", "Tests.B"}},
		{Kind: KindSuite, Name: "Tests.A"},
	}
	out := FixContainment(items)
	if len(out) != 1 || out[0].Name != "Tests" {
		t.Fatalf("expected redundant later descendant dropped, got %+v", out)
	}
}
