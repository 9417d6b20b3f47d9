// Package planfile implements the plan cache file (.pabotsuitenames-style):
// its content hashes, its on-disk grammar, and the order-preservation
// algorithm used to reconcile a freshly discovered plan against a cached
// one. This is deliberately stdlib-only (crypto/sha1, bufio): the hash and
// line-grammar algorithms are a fixed, small leaf contract defined bit-for-bit
// by the on-disk format itself (§6/§8 of the spec), not a concern any
// third-party library in the retrieval pack addresses.
package planfile

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// knownSuiteExtensions limits the recursive data-source hash to files the
// runner would actually discover as suites.
var knownSuiteExtensions = []string{".robot", ".resource", ".txt"}

// presentationOnlyOptions are excluded from the command-line options hash:
// they affect only how results are reported, never which items are planned.
var presentationOnlyOptions = map[string]struct{}{
	"pythonpath":       {},
	"outputdir":        {},
	"output":           {},
	"log":              {},
	"report":           {},
	"removekeywords":   {},
	"flattenkeywords":  {},
	"tagstatinclude":   {},
	"tagstatexclude":   {},
	"tagstatcombine":   {},
	"critical":         {},
	"noncritical":      {},
	"tagstatlink":      {},
	"metadata":         {},
	"tagdoc":           {},
}

// HashDataSources computes the recursive content+path hash of the given data
// sources (files or directories), limited to known suite extensions. Path
// separators are normalized to "/" so the hash is platform independent.
func HashDataSources(sources []string) (string, error) {
	h := sha1.New()
	for _, src := range sources {
		if err := hashPath(h, src); err != nil {
			return "", fmt.Errorf("planfile: hashing data source %q: %w", src, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashPath(h io.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return hashOneFile(h, path)
	}
	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if hasSuiteExtension(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, f := range files {
		digestString(h, normPath(filepath.Dir(f)))
		digestString(h, filepath.Base(f))
		if err := hashOneFile(h, f); err != nil {
			return err
		}
	}
	return nil
}

func hasSuiteExtension(p string) bool {
	for _, ext := range knownSuiteExtensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

func hashOneFile(h io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(h, f)
	return err
}

func digestString(h io.Writer, s string) {
	sum := sha1.Sum([]byte(s))
	h.Write(sum[:])
}

func normPath(path string) string {
	return strings.ReplaceAll(filepath.Clean(path), string(os.PathSeparator), "/")
}

// HashOptions hashes the orchestrator-visible command-line options,
// excluding presentation-only keys, plus an explicit testLevelSplit flag
// folded in (mirroring the source's special-casing of that one option).
func HashOptions(options map[string]string, testLevelSplit bool) string {
	keys := make([]string, 0, len(options))
	for k := range options {
		if _, ignored := presentationOnlyOptions[k]; ignored {
			continue
		}
		if options[k] == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s;", k, options[k])
	}
	if testLevelSplit {
		b.WriteString("testlevelsplit=true;")
	}
	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// sentinelNoSuitesFrom is returned by HashSuitesFrom when no suitesfrom
// option was given, so its absence is distinguishable from an empty file.
const sentinelNoSuitesFrom = "no-suites-from-option"

// HashSuitesFrom hashes the external suitesfrom result file, or returns the
// fixed sentinel when path is empty.
func HashSuitesFrom(path string) (string, error) {
	if path == "" {
		return sentinelNoSuitesFrom, nil
	}
	h := sha1.New()
	if err := hashOneFile(h, path); err != nil {
		return "", fmt.Errorf("planfile: hashing suitesfrom %q: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// xorExcluded are payload lines excluded from the XOR hash: structural
// tokens that carry no identity of their own.
var xorExcluded = map[string]struct{}{"#WAIT": {}, "{": {}, "}": {}}

// XORLines computes the XOR of the SHA-1 (as a big integer) of every payload
// line, excluding #WAIT/{/} tokens, per invariant 7.
func XORLines(lines []string) *big.Int {
	acc := new(big.Int)
	for _, line := range lines {
		if _, excluded := xorExcluded[line]; excluded {
			continue
		}
		sum := sha1.Sum([]byte(line))
		n := new(big.Int).SetBytes(sum[:])
		acc.Xor(acc, n)
	}
	return acc
}

// FileHash computes the `file:` header: a SHA-1 binding the three other
// header values plus the decimal XOR accumulator of the payload lines.
func FileHash(dataSources, commandLineOptions, suitesFrom string, lines []string) string {
	h := sha1.New()
	h.Write([]byte("datasources:" + dataSources))
	h.Write([]byte("commandlineoptions:" + commandLineOptions))
	h.Write([]byte("suitesfrom:" + suitesFrom))
	h.Write([]byte(XORLines(lines).String()))
	return hex.EncodeToString(h.Sum(nil))
}
