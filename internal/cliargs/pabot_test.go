package cliargs

import (
	"reflect"
	"testing"
)

func TestParsePabotArgsDefaults(t *testing.T) {
	remaining, opts, err := parsePabotArgs([]string{"--include", "smoke", "tests.robot"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(remaining, []string{"--include", "smoke", "tests.robot"}) {
		t.Fatalf("expected non-pabot args untouched, got %v", remaining)
	}
	if !opts.PabotLib || opts.PabotLibPort != 8270 || opts.PabotLibHost != "127.0.0.1" {
		t.Fatalf("expected default pabotlib settings, got %+v", opts)
	}
}

func TestParsePabotArgsProcessesAll(t *testing.T) {
	_, opts, err := parsePabotArgs([]string{"--processes", "all"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Processes != 0 {
		t.Fatalf("expected processes=all to mean 0 (auto), got %d", opts.Processes)
	}
}

func TestParsePabotArgsProcessesNumber(t *testing.T) {
	_, opts, err := parsePabotArgs([]string{"--processes", "4"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Processes != 4 {
		t.Fatalf("expected 4, got %d", opts.Processes)
	}
}

func TestParsePabotArgsNoPabotlibAndPabotlibConflict(t *testing.T) {
	_, _, err := parsePabotArgs([]string{"--pabotlib", "--no-pabotlib"})
	if err == nil {
		t.Fatal("expected a conflicting-options error")
	}
}

func TestParsePabotArgsPabotlibHostDisablesPabotlib(t *testing.T) {
	_, opts, err := parsePabotArgs([]string{"--pabotlibhost", "10.0.0.5"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.PabotLib {
		t.Fatal("expected --pabotlibhost to set pabotlib=false, matching pabot.py's quirk")
	}
	if opts.PabotLibHost != "10.0.0.5" {
		t.Fatalf("got %q", opts.PabotLibHost)
	}
}

func TestParsePabotArgsCommandUntilEndCommand(t *testing.T) {
	remaining, opts, err := parsePabotArgs([]string{"--command", "java", "-jar", "robot.jar", "--end-command", "--include", "x"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(opts.Command, []string{"java", "-jar", "robot.jar"}) {
		t.Fatalf("got %v", opts.Command)
	}
	if !reflect.DeepEqual(remaining, []string{"--include", "x"}) {
		t.Fatalf("got %v", remaining)
	}
}

func TestParsePabotArgsCommandWithoutEndCommandErrors(t *testing.T) {
	_, _, err := parsePabotArgs([]string{"--command", "java"})
	if err == nil {
		t.Fatal("expected an error for --command missing --end-command")
	}
}

func TestParsePabotArgsShard(t *testing.T) {
	_, opts, err := parsePabotArgs([]string{"--shard", "2/5"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.ShardIndex != 2 || opts.ShardCount != 5 {
		t.Fatalf("got index=%d count=%d", opts.ShardIndex, opts.ShardCount)
	}
}

func TestParsePabotArgsArgumentFileIndex(t *testing.T) {
	_, opts, err := parsePabotArgs([]string{"--argumentfile1", "a.txt", "--argumentfile2", "b.txt"})
	if err != nil {
		t.Fatal(err)
	}
	want := []ArgumentFileRef{{Index: "1", Path: "a.txt"}, {Index: "2", Path: "b.txt"}}
	if !reflect.DeepEqual(opts.ArgumentFiles, want) {
		t.Fatalf("got %v", opts.ArgumentFiles)
	}
}

func TestParsePabotArgsArtifactsSplitsOnComma(t *testing.T) {
	_, opts, err := parsePabotArgs([]string{"--artifacts", "png,jpg,gif"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(opts.Artifacts, []string{"png", "jpg", "gif"}) {
		t.Fatalf("got %v", opts.Artifacts)
	}
}

func TestParsePabotArgsMissingValueErrors(t *testing.T) {
	_, _, err := parsePabotArgs([]string{"--processes"})
	if err == nil {
		t.Fatal("expected a missing-value error")
	}
}
