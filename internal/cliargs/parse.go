package cliargs

import (
	"fmt"
	"os"
	"strings"

	"github.com/pabotd/pabotd/pkg/perrors"
)

// Result is the output of the argument partitioner: the orchestrator's own
// options, the runner passthrough options reparsed two ways, and the shared
// data sources. Grounded on pabot.py's parse_args, which returns
// (options, datasources, pabot_args, options_for_subprocesses).
type Result struct {
	Pabot Options

	// RunnerOptions is what the plan-resolver's dry-run discovery invocation
	// receives: passthrough options with --argumentfile occurrences expanded
	// in place.
	RunnerOptions []string

	// SubprocessOptions is what every per-item subprocess invocation
	// receives: passthrough options left unexpanded, since each subprocess
	// reads its own --argumentfile again.
	SubprocessOptions []string

	DataSources []string
}

// Parse splits argv into orchestrator options, the two passthrough option
// views, and data sources, per §4.1. It rejects data sources placed inside an
// argument file (pabot does not support that) and defaults --name to
// "Suites" when more than one data source is given and no name was set.
func Parse(args []string) (*Result, error) {
	remaining, pabotArgs, err := parsePabotArgs(args)
	if err != nil {
		return nil, err
	}

	expanded, err := expandArgumentFiles(remaining)
	if err != nil {
		return nil, err
	}

	runnerOpts, sourcesExpanded := splitDataSources(expanded)
	subprocessOpts, sourcesUnexpanded := splitDataSources(remaining)

	if len(sourcesExpanded) != len(sourcesUnexpanded) {
		return nil, perrors.NewConfigurationError(
			"pabot does not support datasources in argumentfiles; please move datasources to the command line",
			nil,
		).WithCode(perrors.ErrCodeUnknownOption)
	}

	if len(sourcesUnexpanded) > 1 && !hasNameOption(runnerOpts) {
		runnerOpts = append(runnerOpts, "--name", "Suites")
		subprocessOpts = append(subprocessOpts, "--name", "Suites")
	}

	return &Result{
		Pabot:             pabotArgs,
		RunnerOptions:     runnerOpts,
		SubprocessOptions: subprocessOpts,
		DataSources:       sourcesUnexpanded,
	}, nil
}

// OptionsMap flattens a passthrough option view into the map[string]string
// shape planfile.HashOptions hashes: value-taking options map to their
// value, boolean flags map to "true". Repeated options keep their last
// occurrence, matching a dict-of-options model rather than a multi-value one.
func OptionsMap(args []string) map[string]string {
	out := make(map[string]string)
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if !strings.HasPrefix(tok, "-") {
			continue
		}
		key := strings.TrimLeft(tok, "-")
		if isValueTakingRunnerOption(tok) && i+1 < len(args) {
			out[key] = args[i+1]
			i++
			continue
		}
		out[key] = "true"
	}
	return out
}

func hasNameOption(opts []string) bool {
	for i, o := range opts {
		if o == "--name" && i+1 < len(opts) {
			return true
		}
	}
	return false
}

// splitDataSources walks args left to right, consuming each known
// value-taking runner option together with its value as passthrough, and
// collecting every remaining non-flag token as a data source. This mirrors
// what robot's ArgumentParser does internally with its full option table;
// §4.1's data sources are always the paths left over once every option (and
// the option's value, for the options that take one) is accounted for.
func splitDataSources(args []string) (opts []string, sources []string) {
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if !strings.HasPrefix(tok, "-") {
			sources = append(sources, tok)
			continue
		}
		opts = append(opts, tok)
		if isValueTakingRunnerOption(tok) && i+1 < len(args) {
			i++
			opts = append(opts, args[i])
		}
	}
	return opts, sources
}

// expandArgumentFiles substitutes every "--argumentfile <path>" occurrence
// with the tokens read from that file. Each non-blank, non-comment line is
// either a bare data source or an option optionally paired with its value
// ("--include tag1" or "--include=tag1"), the standard robot argument-file
// grammar; auto_argumentfile=True in pabot.py's first ArgumentParser call is
// what triggers this same expansion upstream.
func expandArgumentFiles(args []string) ([]string, error) {
	var out []string
	for i := 0; i < len(args); i++ {
		if args[i] != "--argumentfile" {
			out = append(out, args[i])
			continue
		}
		if i+1 >= len(args) {
			return nil, perrors.NewConfigurationError("--argumentfile requires a value", nil).
				WithCode(perrors.ErrCodeUnknownOption)
		}
		tokens, err := readArgumentFile(args[i+1])
		if err != nil {
			return nil, perrors.NewConfigurationError(
				fmt.Sprintf("could not read argument file %s", args[i+1]), err,
			).WithCode(perrors.ErrCodeUnknownOption)
		}
		out = append(out, tokens...)
		i++
	}
	return out, nil
}

func readArgumentFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tokens []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "-") {
			tokens = append(tokens, line)
			continue
		}
		if name, value, hasValue := strings.Cut(line, "="); hasValue {
			tokens = append(tokens, name, value)
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		tokens = append(tokens, fields[0])
		if len(fields) == 2 && strings.TrimSpace(fields[1]) != "" {
			tokens = append(tokens, strings.TrimSpace(fields[1]))
		}
	}
	return tokens, nil
}
