package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExecSpec is everything needed to build one item's invocation: the base
// robot options, plus the per-item variables §4.6 requires every pabotd
// subprocess to receive. It is the Go analogue of pabot.py's
// _options_for_executor parameters.
type ExecSpec struct {
	RunCommand  []string // e.g. []string{"robot"} or a custom runner
	BaseArgs    []string // user-supplied robot options, minus output artifacts
	DataSources []string
	OutsDir     string
	CallerID    string
	PabotLibURI string
	PoolID      int
	IsLast      bool
	Processes   int
	QueueIndex  int
	LastLevel   string // empty when not applicable
	Skip        bool   // dry-run-with-skip-listener for canceled/downstream-of-failed items
	ArgumentFile string // a user-supplied --argumentfile slot (argfile_index case), if any
}

// BuildArgs assembles the full CLI token list for one item's subprocess,
// grounded on pabot.py's _options_for_executor: output artifacts disabled
// (the merger reconstructs them), the CALLER_ID/PABOTLIBURI/
// PABOTEXECUTIONPOOLID/PABOTISLASTEXECUTIONINPOOL/PABOTNUMBEROFPROCESSES/
// PABOTQUEUEINDEX/PABOTLASTLEVEL variable injections, and the skip-listener
// dry-run substitution for items that must not actually execute.
func (s ExecSpec) BuildArgs() []string {
	args := append([]string{}, s.BaseArgs...)
	args = append(args,
		"--log", "NONE",
		"--report", "NONE",
		"--xunit", "NONE",
		"--outputdir", s.OutsDir,
	)

	variables := []string{
		"CALLER_ID:" + s.CallerID,
		"PABOTLIBURI:" + s.PabotLibURI,
		fmt.Sprintf("PABOTEXECUTIONPOOLID:%d", s.PoolID),
		fmt.Sprintf("PABOTISLASTEXECUTIONINPOOL:%s", boolFlag(s.IsLast)),
		fmt.Sprintf("PABOTNUMBEROFPROCESSES:%d", s.Processes),
		fmt.Sprintf("PABOTQUEUEINDEX:%d", s.QueueIndex),
	}
	if s.LastLevel != "" {
		variables = append(variables, "PABOTLASTLEVEL:"+s.LastLevel)
	}
	for _, v := range variables {
		args = append(args, "--variable", v)
	}

	if s.ArgumentFile != "" {
		args = append(args, "--argumentfile", s.ArgumentFile)
	}

	if s.Skip {
		args = append(args, "--dryrun", "--listener", skipListenerPath(), "--exitonfailure")
	}

	args = append(args, s.DataSources...)
	return args
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// skipListenerPath resolves the bundled skip-listener script shipped
// alongside the pabotd binary, the Go port of pabot.py's
// listener/skip_listener.py.
func skipListenerPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "skip_listener.py"
	}
	return filepath.Join(filepath.Dir(exe), "skip_listener.py")
}

// BuildCommand stages the argfile on disk at outs_dir/<runner>_argfile.txt
// and returns the Command a Transport will execute: run_command + "-A"
// <argfile>, grounded on pabot.py's _run (the outer '-A argfile_path'
// wrapping).
func BuildCommand(spec ExecSpec, timeoutSeconds int) (Command, error) {
	commandName := strings.TrimSuffix(filepath.Base(spec.RunCommand[0]), filepath.Ext(spec.RunCommand[0]))
	argfilePath := filepath.Join(spec.OutsDir, commandName+"_argfile.txt")
	if err := WriteArgfile(argfilePath, spec.BuildArgs()); err != nil {
		return Command{}, err
	}

	argv := append([]string{}, spec.RunCommand...)
	argv = append(argv, "-A", argfilePath)

	return Command{
		Argv:     argv,
		Dir:      spec.OutsDir,
		Env:      os.Environ(),
		StdoutTo: filepath.Join(spec.OutsDir, commandName+".log"),
		Timeout:  secondsToDuration(timeoutSeconds),
	}, nil
}

func secondsToDuration(seconds int) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
