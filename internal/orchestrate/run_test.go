package orchestrate

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pabotd/pabotd/internal/planitem"
	"github.com/pabotd/pabotd/internal/planner"
	"github.com/pabotd/pabotd/internal/scheduler"
)

func TestAnyDependencyFalseForIndependentStages(t *testing.T) {
	stages := [][]planner.Unit{{
		{Items: []planitem.Item{{Kind: planitem.KindSuite, Name: "Tests.A"}}},
		{Items: []planitem.Item{{Kind: planitem.KindSuite, Name: "Tests.B"}}},
	}}
	if anyDependency(stages) {
		t.Fatal("expected no dependency among independent units")
	}
}

func TestAnyDependencyTrueWhenAnyUnitDependsOnAnother(t *testing.T) {
	stages := [][]planner.Unit{{
		{Items: []planitem.Item{{Kind: planitem.KindSuite, Name: "Tests.A"}}},
		{Items: []planitem.Item{{Kind: planitem.KindSuite, Name: "Tests.B", Depends: []string{"Tests.A"}}}},
	}}
	if !anyDependency(stages) {
		t.Fatal("expected dependency detected, triggering the dynamic scheduler")
	}
}

func TestReadOrderingFileEmptyPathReturnsNil(t *testing.T) {
	items, err := readOrderingFile("")
	if err != nil || items != nil {
		t.Fatalf("expected nil/nil for empty path, got %v %v", items, err)
	}
}

func TestReadOrderingFileParsesEachLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "order.txt")
	content := "--suite Tests.A\n--suite Tests.B #DEPENDS Tests.A\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	items, err := readOrderingFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []planitem.Item{
		{Kind: planitem.KindSuite, Name: "Tests.A"},
		{Kind: planitem.KindSuite, Name: "Tests.B", Depends: []string{"Tests.A"}},
	}
	if !reflect.DeepEqual(items, want) {
		t.Fatalf("got %+v, want %+v", items, want)
	}
}

func TestReadOrderingFileMissingFileErrors(t *testing.T) {
	if _, err := readOrderingFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected an error for a missing ordering file")
	}
}

func TestCollectOutputPathsSkipsMissingWorkers(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "0"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "0", "output.xml"), []byte("<robot/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	// worker 1 never produced an output.xml (e.g. it crashed before writing one)

	got := collectOutputPaths(dir, 2)
	want := []string{filepath.Join(dir, "0", "output.xml")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExitCodeAllPassed(t *testing.T) {
	results := []scheduler.ItemResult{{ExitCode: 0}, {ExitCode: 0}}
	if got := exitCode(results); got != ExitOK {
		t.Fatalf("got %d, want %d", got, ExitOK)
	}
}

func TestExitCodeAnyFailurePropagates(t *testing.T) {
	results := []scheduler.ItemResult{{ExitCode: 0}, {ExitCode: 1}}
	if got := exitCode(results); got != ExitTestFailure {
		t.Fatalf("got %d, want %d", got, ExitTestFailure)
	}
}
