package resultmerge

import (
	"path/filepath"
	"regexp"
	"strings"
)

type artifactPattern struct {
	re *regexp.Regexp
}

// compileArtifactPatterns builds one regexp per copied artifact name,
// grounded on ResultMerger.__init__'s src|href pattern: it matches
// src="..." or href="..." attributes whose final path segment is exactly
// that artifact's filename.
func compileArtifactPatterns(artifacts []string) []artifactPattern {
	patterns := make([]artifactPattern, 0, len(artifacts))
	for _, a := range artifacts {
		pattern := `(src|href)="([^"]*[\\/]+)?(` + regexp.QuoteMeta(a) + `)"`
		patterns = append(patterns, artifactPattern{re: regexp.MustCompile(pattern)})
	}
	return patterns
}

// artifactPrefix is the per-item directory name a message link's copied
// artifact was staged under, grounded on result_merger.py's prefix():
// the parent directory name of the item's own output.xml.
func artifactPrefix(source string) string {
	return filepath.Base(filepath.Dir(source))
}

// rewriteLinks walks a suite's message tree, correcting the upward-relative
// src="../../ and href="../../ paths robot writes (they assumed the
// per-item output directory, not the merged one) and, for any artifact
// that was copied into the merged output directory, inserting that item's
// prefix ahead of the bare filename so the moved artifact is still found.
// Test message rewriting happens inside Inner (raw XML) for keywords and
// messages nested under a test; Inner is carried through byte-for-byte
// into the merged tree rather than re-parsed. Only messages modeled as
// Keyword.Msgs (a suite-level setup/teardown) are rewritten directly here.
func rewriteLinks(suite *Suite, prefix string, patterns []artifactPattern) {
	if suite.Setup != nil {
		for j := range suite.Setup.Msgs {
			rewriteMsg(&suite.Setup.Msgs[j], prefix, patterns)
		}
	}
	for _, child := range suite.Suites {
		rewriteLinks(child, prefix, patterns)
	}
}

func rewriteMsg(msg *Msg, prefix string, patterns []artifactPattern) {
	if msg.HTML != "yes" {
		// robot only emits src=/href= links inside html messages.
		return
	}
	msg.Text = strings.ReplaceAll(msg.Text, `src="../../`, `src="`)
	msg.Text = strings.ReplaceAll(msg.Text, `href="../../`, `href="`)

	if len(patterns) == 0 {
		return
	}
	if !strings.Contains(msg.Text, "src=") && !strings.Contains(msg.Text, "href=") {
		return
	}
	for _, p := range patterns {
		msg.Text = p.re.ReplaceAllString(msg.Text, `${1}="${2}`+prefix+`-${3}"`)
	}
}
