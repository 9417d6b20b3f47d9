package resultmerge

import (
	"os"
	"path/filepath"
	"testing"
)

func writeOutputXML(t *testing.T, dir, rootName, childName, testName string) string {
	t.Helper()
	content := `<?xml version="1.0" encoding="UTF-8"?>
<robot generator="Robot">
  <suite name="` + rootName + `" source="/suites">
    <suite name="` + childName + `" source="/suites/` + childName + `.robot">
      <test name="` + testName + `">
        <status status="PASS" starttime="20260101 00:00:00.000" endtime="20260101 00:00:01.000"/>
      </test>
    </suite>
    <status status="PASS" starttime="20260101 00:00:00.000" endtime="20260101 00:00:01.000"/>
  </suite>
  <errors></errors>
</robot>`
	path := filepath.Join(dir, childName+"_output.xml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMergeCombinesSameRootAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	p1 := writeOutputXML(t, dir, "Tests", "A", "One")
	p2 := writeOutputXML(t, dir, "Tests", "B", "Two")

	merged, err := Merge([]string{p1, p2}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(merged.Suites) != 1 {
		t.Fatalf("expected one combined root suite, got %d", len(merged.Suites))
	}
	if len(merged.Suites[0].Suites) != 2 {
		t.Fatalf("expected both A and B spliced under the root, got %d children", len(merged.Suites[0].Suites))
	}
}

func TestMergeSkipsInvalidFilesViaCallback(t *testing.T) {
	dir := t.TempDir()
	good := writeOutputXML(t, dir, "Tests", "A", "One")
	bad := filepath.Join(dir, "bad_output.xml")
	if err := os.WriteFile(bad, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	var invalid []string
	merged, err := Merge([]string{good, bad}, nil, func(path string, _ error) {
		invalid = append(invalid, path)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(invalid) != 1 || invalid[0] != bad {
		t.Fatalf("expected the bad file reported invalid, got %v", invalid)
	}
	if len(merged.Suites) != 1 {
		t.Fatalf("expected the good file to still produce a merged result, got %d suites", len(merged.Suites))
	}
}

func TestMergeAllInvalidReturnsError(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad_output.xml")
	os.WriteFile(bad, []byte("garbage"), 0o644)

	_, err := Merge([]string{bad}, nil, func(string, error) {})
	if err == nil {
		t.Fatal("expected an error when every result file is invalid")
	}
}
