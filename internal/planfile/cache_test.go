package planfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pabotd/pabotd/internal/planitem"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, CacheFileName)

	h := Hashes{DataSources: "dh", CommandLineOptions: "ch", SuitesFrom: "sh"}
	items := []planitem.Item{
		{Kind: planitem.KindSuite, Name: "Tests.A"},
		{Kind: planitem.KindWait},
		{Kind: planitem.KindSuite, Name: "Tests.B", Depends: []string{"Tests.A"}},
	}

	if err := Write(path, h, items); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Hashes != h {
		t.Fatalf("hashes mismatch: got %+v want %+v", got.Hashes, h)
	}
	if len(got.Items) != len(items) {
		t.Fatalf("items length mismatch: got %d want %d", len(got.Items), len(items))
	}
	for i := range items {
		if got.Items[i].Kind != items[i].Kind || got.Items[i].Name != items[i].Name {
			t.Fatalf("item %d mismatch: got %+v want %+v", i, got.Items[i], items[i])
		}
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), CacheFileName)); err == nil {
		t.Fatalf("expected error reading a missing cache file")
	}
}

func TestReadCorruptTamperedPayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, CacheFileName)
	items := []planitem.Item{{Kind: planitem.KindSuite, Name: "Tests.A"}}
	h := Hashes{DataSources: "dh", CommandLineOptions: "ch", SuitesFrom: "sh"}
	if err := Write(path, h, items); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	tampered := string(raw) + "--suite Tests.Injected\n"
	if err := os.WriteFile(path, []byte(tampered), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Read(path); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt for a tampered payload, got %v", err)
	}
}

func TestReadCorruptTruncatedHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, CacheFileName)
	if err := os.WriteFile(path, []byte("datasources:dh\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt for a truncated header, got %v", err)
	}
}

func TestWriteIsAtomicNoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, CacheFileName)
	if err := Write(path, Hashes{}, nil); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != CacheFileName {
		t.Fatalf("expected only the final cache file to remain, got %v", entries)
	}
}
