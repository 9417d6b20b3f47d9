package ssh

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// agentSigners dials the ssh-agent listening on SSH_AUTH_SOCK and returns
// the signers it holds, so AuthMethodAgent authenticates with whatever
// identities the caller's agent already has loaded rather than requiring a
// key path on disk.
func agentSigners() ([]ssh.Signer, error) {
	sockPath := os.Getenv("SSH_AUTH_SOCK")
	if sockPath == "" {
		return nil, fmt.Errorf("SSH_AUTH_SOCK is not set")
	}

	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("dialing ssh-agent socket: %w", err)
	}

	signers, err := agent.NewClient(conn).Signers()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("listing ssh-agent identities: %w", err)
	}
	return signers, nil
}
