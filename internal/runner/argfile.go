package runner

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// WriteArgfile writes one robot-framework argument file, one CLI token per
// line ("--flag value" pairs on one line, bare flags on their own), grounded
// on pabot.py's _write_internal_argument_file.
func WriteArgfile(path string, args []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("runner: writing argfile %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := 0; i < len(args); i++ {
		cur := args[i]
		if strings.HasPrefix(cur, "-") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			fmt.Fprintf(w, "%s %s\n", cur, args[i+1])
			i++
			continue
		}
		fmt.Fprintf(w, "%s\n", cur)
	}
	return w.Flush()
}
