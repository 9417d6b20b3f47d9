package coordination

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseResourceFile parses the coordination server's resource file: a
// classic section/key=value grammar where each "[name]" section becomes a
// ValueSet, and a reserved "tags=a,b,c" field expands into ValueSet.Tags.
// A missing or unreadable file is not itself an error: per §4.4 the server
// starts with zero value sets and operations that require one fail loudly
// instead. This parser is deliberately stdlib-only (bufio+strings): it is a
// fixed ~20-line leaf grammar (see DESIGN.md); optional CUE schema checking
// of the parsed sets lives in ValidateValueSetsAgainstSchema.
func ParseResourceFile(path string) ([]*ValueSet, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("coordination: opening resource file %s: %w", path, err)
	}
	defer f.Close()
	return parseResource(f)
}

func parseResource(r io.Reader) ([]*ValueSet, error) {
	var sets []*ValueSet
	var current *ValueSet

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			current = &ValueSet{Name: strings.TrimSpace(line[1 : len(line)-1]), Fields: map[string]string{}}
			sets = append(sets, current)
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("coordination: resource file line %d: key=value before any [section]", lineNo)
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("coordination: resource file line %d: expected key=value, got %q", lineNo, line)
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		if key == "tags" {
			for _, t := range strings.Split(val, ",") {
				t = strings.TrimSpace(t)
				if t != "" {
					current.Tags = append(current.Tags, t)
				}
			}
			continue
		}
		current.Fields[key] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("coordination: reading resource file: %w", err)
	}
	return sets, nil
}
