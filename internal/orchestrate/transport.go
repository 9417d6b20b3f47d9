package orchestrate

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pabotd/pabotd/internal/cliargs"
	"github.com/pabotd/pabotd/internal/runner"
	"github.com/pabotd/pabotd/pkg/transports/ssh"
)

// buildTransport picks the local or hive transport for this run. --hive is
// a simplification of pabot.py's hive-config-file feature (§11.3): a
// "user@host[:port][/remote-root]" string naming one remote target,
// authenticated via the local SSH agent. A real hive-config file's
// multi-host pooling and per-host credentials are out of scope here; see
// DESIGN.md.
func buildTransport(ctx context.Context, opts cliargs.Options, logger zerolog.Logger) (runner.Transport, error) {
	if opts.Hive == "" {
		return runner.NewLocalTransport(), nil
	}

	host, err := parseHiveSpec(opts.Hive)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("host", host.Name).Msg("dispatching items to hive host")
	return runner.NewHiveTransport(ctx, host)
}

func parseHiveSpec(spec string) (runner.HiveHost, error) {
	userHost, remoteRoot := spec, "."
	if idx := strings.Index(spec, "/"); idx >= 0 {
		userHost, remoteRoot = spec[:idx], spec[idx+1:]
	}

	user, hostPort := "", userHost
	if idx := strings.Index(userHost, "@"); idx >= 0 {
		user, hostPort = userHost[:idx], userHost[idx+1:]
	}

	host, portStr := hostPort, ""
	if idx := strings.Index(hostPort, ":"); idx >= 0 {
		host, portStr = hostPort[:idx], hostPort[idx+1:]
	}

	port := 22
	if portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err == nil {
			port = p
		}
	}

	return runner.HiveHost{
		Name:       host,
		RemoteRoot: remoteRoot,
		SSHConfig: &ssh.Config{
			Host:       host,
			Port:       port,
			User:       user,
			AuthMethod: ssh.AuthMethodAgent,
		},
	}, nil
}
