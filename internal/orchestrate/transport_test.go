package orchestrate

import (
	"testing"

	"github.com/pabotd/pabotd/pkg/transports/ssh"
)

func TestParseHiveSpecUserHostPortAndRoot(t *testing.T) {
	host, err := parseHiveSpec("robot@ci-runner-1:2222/srv/suites")
	if err != nil {
		t.Fatal(err)
	}
	if host.Name != "ci-runner-1" || host.RemoteRoot != "srv/suites" {
		t.Fatalf("got name=%q root=%q", host.Name, host.RemoteRoot)
	}
	if host.SSHConfig.User != "robot" || host.SSHConfig.Port != 2222 {
		t.Fatalf("got user=%q port=%d", host.SSHConfig.User, host.SSHConfig.Port)
	}
	if host.SSHConfig.AuthMethod != ssh.AuthMethodAgent {
		t.Fatalf("expected agent auth by default, got %v", host.SSHConfig.AuthMethod)
	}
}

func TestParseHiveSpecBareHostDefaultsPortAndRoot(t *testing.T) {
	host, err := parseHiveSpec("ci-runner-2")
	if err != nil {
		t.Fatal(err)
	}
	if host.Name != "ci-runner-2" || host.RemoteRoot != "." {
		t.Fatalf("got name=%q root=%q", host.Name, host.RemoteRoot)
	}
	if host.SSHConfig.Port != 22 {
		t.Fatalf("expected default ssh port 22, got %d", host.SSHConfig.Port)
	}
	if host.SSHConfig.User != "" {
		t.Fatalf("expected no user parsed from a bare host, got %q", host.SSHConfig.User)
	}
}
