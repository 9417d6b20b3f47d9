package cliargs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pabotd/pabotd/pkg/perrors"
)

var argfileIndexPattern = regexp.MustCompile(`^argumentfile(\d)$`)

// flagArgs takes no value; valueArgs takes exactly one following token.
var flagArgs = map[string]bool{
	"verbose":               true,
	"help":                  true,
	"testlevelsplit":        true,
	"artifactsinsubfolders": true,
	"chunk":                 true,
	"no-rebot":              true,
}

// parsePabotArgs walks argv left to right pulling out every orchestrator
// option, leaving everything else (runner passthrough flags and data
// sources, still interleaved) in remaining, in original order. Grounded on
// pabot.py's _parse_pabot_args scanning loop.
func parsePabotArgs(args []string) (remaining []string, opts Options, err error) {
	opts = defaultOptions()

	var sawPabotLibFlag, sawNoPabotLib bool

	for i := 0; i < len(args); {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			remaining = append(remaining, arg)
			i++
			continue
		}
		name := arg[2:]

		switch name {
		case "no-pabotlib":
			sawNoPabotLib = true
			opts.PabotLib = false
			i++
			continue
		case "pabotlib":
			sawPabotLibFlag = true
			i++
			continue
		case "command":
			end := indexOf(args, "--end-command", i)
			if end < 0 {
				return nil, opts, perrors.NewConfigurationError(
					"--command requires matching --end-command", nil,
				).WithCode(perrors.ErrCodeUnknownOption)
			}
			opts.Command = append([]string(nil), args[i+1:end]...)
			i = end + 1
			continue
		}

		if flagArgs[name] {
			setFlag(&opts, name)
			i++
			continue
		}

		if m := argfileIndexPattern.FindStringSubmatch(name); m != nil {
			if i+1 >= len(args) {
				return nil, opts, missingValueErr(arg)
			}
			opts.ArgumentFiles = append(opts.ArgumentFiles, ArgumentFileRef{Index: m[1], Path: args[i+1]})
			i += 2
			continue
		}

		if setter, ok := valueSetters[name]; ok {
			if i+1 >= len(args) {
				return nil, opts, missingValueErr(arg)
			}
			if err := setter(&opts, args[i+1]); err != nil {
				return nil, opts, perrors.NewConfigurationError(
					fmt.Sprintf("invalid value for --%s: %s", name, args[i+1]), err,
				).WithCode(perrors.ErrCodeUnknownOption)
			}
			i += 2
			continue
		}

		remaining = append(remaining, arg)
		i++
	}

	if sawPabotLibFlag && sawNoPabotLib {
		return nil, opts, perrors.NewConfigurationError(
			"cannot use both --pabotlib and --no-pabotlib options together", nil,
		).WithCode(perrors.ErrCodeConflictingOptions)
	}

	return remaining, opts, nil
}

func setFlag(opts *Options, name string) {
	switch name {
	case "verbose":
		opts.Verbose = true
	case "help":
		opts.Help = true
	case "testlevelsplit":
		opts.TestLevelSplit = true
	case "artifactsinsubfolders":
		opts.ArtifactsInSubfolders = true
	case "chunk":
		opts.Chunk = true
	case "no-rebot":
		opts.NoRebot = true
	}
}

var valueSetters = map[string]func(*Options, string) error{
	"hive": func(o *Options, v string) error { o.Hive = v; return nil },
	"processes": func(o *Options, v string) error {
		if v == "all" {
			o.Processes = 0
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		o.Processes = n
		return nil
	},
	"resourcefile":  func(o *Options, v string) error { o.ResourceFile = v; return nil },
	"pabotlibhost": func(o *Options, v string) error {
		o.PabotLib = false
		o.PabotLibHost = v
		return nil
	},
	"pabotlibport": func(o *Options, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		o.PabotLibPort = n
		return nil
	},
	"pabotprerunmodifier": func(o *Options, v string) error { o.PabotPrerunModifier = v; return nil },
	"processtimeout": func(o *Options, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		o.ProcessTimeoutSeconds = n
		return nil
	},
	"ordering":    func(o *Options, v string) error { o.Ordering = v; return nil },
	"suitesfrom":  func(o *Options, v string) error { o.SuitesFrom = v; return nil },
	"artifacts":   func(o *Options, v string) error { o.Artifacts = strings.Split(v, ","); return nil },
	"shard": func(o *Options, v string) error {
		idx, count, err := parseShard(v)
		if err != nil {
			return err
		}
		o.ShardIndex, o.ShardCount = idx, count
		return nil
	},
}

func parseShard(v string) (index, count int, err error) {
	parts := strings.SplitN(v, "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected <index>/<count>, got %q", v)
	}
	index, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	count, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return index, count, nil
}

func indexOf(args []string, target string, from int) int {
	for i := from; i < len(args); i++ {
		if args[i] == target {
			return i
		}
	}
	return -1
}

func missingValueErr(arg string) error {
	return perrors.NewConfigurationError(
		fmt.Sprintf("%s requires a value", arg), nil,
	).WithCode(perrors.ErrCodeUnknownOption)
}
