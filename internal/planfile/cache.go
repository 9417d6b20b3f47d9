package planfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pabotd/pabotd/internal/planitem"
)

// CacheFileName is the plan cache file's fixed name in the working directory.
const CacheFileName = ".pabotsuitenames"

// Hashes are the three input hashes bound together by the file: header.
type Hashes struct {
	DataSources        string
	CommandLineOptions string
	SuitesFrom         string
}

// Cache is the parsed plan cache file: its input hashes and the ordered
// ExecutionItems that make up the plan.
type Cache struct {
	Hashes Hashes
	Items  []planitem.Item
}

// Read parses the plan cache file at path. It returns ErrCorrupt when any
// header is missing, the file: hash does not match, or any payload line
// fails to parse — the caller falls through to full regeneration in every
// case, per §4.2's failure semantics.
func Read(path string) (Cache, error) {
	f, err := os.Open(path)
	if err != nil {
		return Cache{}, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return Cache{}, fmt.Errorf("planfile: reading %s: %w", path, err)
	}
	if len(lines) < 5 {
		return Cache{}, ErrCorrupt
	}

	const (
		dataSourcesPrefix = "datasources:"
		cmdOptionsPrefix  = "commandlineoptions:"
		suitesFromPrefix  = "suitesfrom:"
		filePrefix        = "file:"
	)
	if !hasPrefix(lines[0], dataSourcesPrefix) ||
		!hasPrefix(lines[1], cmdOptionsPrefix) ||
		!hasPrefix(lines[2], suitesFromPrefix) ||
		!hasPrefix(lines[3], filePrefix) {
		return Cache{}, ErrCorrupt
	}

	h := Hashes{
		DataSources:        lines[0][len(dataSourcesPrefix):],
		CommandLineOptions: lines[1][len(cmdOptionsPrefix):],
		SuitesFrom:         lines[2][len(suitesFromPrefix):],
	}
	wantFileHash := lines[3][len(filePrefix):]
	payload := lines[4:]

	gotFileHash := FileHash(h.DataSources, h.CommandLineOptions, h.SuitesFrom, payload)
	if gotFileHash != wantFileHash {
		return Cache{}, ErrCorrupt
	}

	items := make([]planitem.Item, 0, len(payload))
	for _, line := range payload {
		it, err := planitem.ParseLine(line)
		if err != nil {
			return Cache{}, ErrCorrupt
		}
		items = append(items, it)
	}

	return Cache{Hashes: h, Items: items}, nil
}

// ErrCorrupt is returned by Read for any condition that invalidates the
// cache file: missing headers, a file: hash mismatch, or an unparsable
// payload line.
var ErrCorrupt = fmt.Errorf("planfile: cache file is missing, incomplete, or corrupt")

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// Write atomically rewrites the plan cache file at path with the given
// hashes and items: a temp file in the same directory is written and
// renamed over the destination so a concurrent reader never observes a
// partial file. Per §7, failures here are logged by the caller as a
// transient-I/O warning and never abort the run.
func Write(path string, h Hashes, items []planitem.Item) error {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, it.Line())
	}
	fileHash := FileHash(h.DataSources, h.CommandLineOptions, h.SuitesFrom, lines)

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".pabotsuitenames-*")
	if err != nil {
		return fmt.Errorf("planfile: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := bufio.NewWriter(tmp)
	fmt.Fprintf(w, "datasources:%s\n", h.DataSources)
	fmt.Fprintf(w, "commandlineoptions:%s\n", h.CommandLineOptions)
	fmt.Fprintf(w, "suitesfrom:%s\n", h.SuitesFrom)
	fmt.Fprintf(w, "file:%s\n", fileHash)
	for _, line := range lines {
		fmt.Fprintf(w, "%s\n", line)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("planfile: writing %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("planfile: closing %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("planfile: renaming %s to %s: %w", tmpPath, path, err)
	}
	return nil
}
