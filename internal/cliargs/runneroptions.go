package cliargs

import "strings"

// valueTakingRunnerOptions is the set of Robot Framework CLI long options
// (and their short forms) that consume exactly one following token as a
// value. This table is fixed by the runner's own published CLI contract, not
// something pabot's variable injection invents, so hardcoding it here (the
// way pabot.py instead gets it for free by importing robot.utils
// ArgumentParser) is how this Go port resolves the option/data-source
// boundary without misreading the last option's value as a data source.
var valueTakingRunnerOptions = map[string]bool{
	"--argumentfile": true, "-A": true,
	"--outputdir": true, "-d": true,
	"--output": true, "-o": true,
	"--log": true, "-l": true,
	"--report": true, "-r": true,
	"--xunit": true, "-x": true,
	"--debugfile": true, "-b": true,
	"--name": true, "-N": true,
	"--doc": true, "-D": true,
	"--metadata": true, "-M": true,
	"--tagdoc": true, "-G": true,
	"--tagstatinclude": true,
	"--tagstatexclude": true,
	"--tagstatcombine": true,
	"--tagstatlink":    true,
	"--removekeywords": true,
	"--flattenkeywords": true,
	"--listener": true,
	"--include":  true, "-i": true,
	"--exclude": true, "-e": true,
	"--suite": true, "-s": true,
	"--test": true, "-t": true,
	"--task":          true,
	"--skip":          true,
	"--skiponfailure": true,
	"--variable":      true, "-v": true,
	"--variablefile": true, "-V": true,
	"--randomize":         true,
	"--prerebotmodifier":  true,
	"--console":           true,
	"--consolewidth": true, "-W": true,
	"--consolemarkers": true,
	"--consolecolors":  true,
	"--maxerrorlines":  true,
	"--loglevel": true, "-L": true,
	"--suitestatlevel": true,
	"--settag":         true,
	"--parseinclude":   true,
	"--language": true, "--lang": true,
	"--pythonpath": true, "-P": true,
	"--logtitle":         true,
	"--reporttitle":      true,
	"--reportbackground": true,
}

func isValueTakingRunnerOption(token string) bool {
	if !strings.HasPrefix(token, "-") {
		return false
	}
	return valueTakingRunnerOptions[token]
}
