package resultmerge

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleOutputXML = `<?xml version="1.0" encoding="UTF-8"?>
<robot generator="Robot">
  <suite name="Tests" source="/suites">
    <suite name="A" source="/suites/a.robot">
      <test name="One">
        <status status="PASS" starttime="20260101 00:00:00.000" endtime="20260101 00:00:01.000"/>
      </test>
    </suite>
    <status status="PASS" starttime="20260101 00:00:00.000" endtime="20260101 00:00:01.000"/>
  </suite>
  <errors></errors>
</robot>`

func TestParseAssignsLongNamesAndParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "output.xml")
	if err := os.WriteFile(path, []byte(sampleOutputXML), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Suite.Name != "Tests" {
		t.Fatalf("expected root Tests, got %q", res.Suite.Name)
	}
	childA := res.Suite.Suites[0]
	if childA.Parent != res.Suite {
		t.Fatal("expected child A's parent to be the root suite")
	}
	if childA.Tests[0].LongName != "Tests.A.One" {
		t.Fatalf("expected long name Tests.A.One, got %q", childA.Tests[0].LongName)
	}
}

func TestParseMissingFileIsCorruptArtifactError(t *testing.T) {
	_, err := Parse("/nonexistent/output.xml")
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestParseMalformedXMLIsCorruptArtifactError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "output.xml")
	if err := os.WriteFile(path, []byte("not xml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(path); err == nil {
		t.Fatal("expected an error for malformed xml")
	}
}
