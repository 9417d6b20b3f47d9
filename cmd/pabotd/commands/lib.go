package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pabotd/pabotd/internal/coordination"
)

// newLibCommand starts the coordination library server standalone, the Go
// analogue of running `python -m robotremoteserver pabotlib.py` on its own
// rather than letting a pabotd run start and own it, for cases where
// several separate pabotd invocations need to share one lock/value-set/
// parallel-value state.
func newLibCommand() *cobra.Command {
	var host string
	var port int
	var resourceFile string

	cmd := &cobra.Command{
		Use:   "lib",
		Short: "Run the coordination library server standalone",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			state := coordination.NewState()

			if resourceFile != "" {
				sets, err := coordination.ParseResourceFile(resourceFile)
				if err != nil {
					return err
				}
				state.LoadValueSets(sets)

				go func() {
					if err := coordination.WatchResourceFile(ctx, resourceFile, state, log.Logger); err != nil {
						log.Warn().Err(err).Msg("resource file watcher stopped")
					}
				}()
			}

			server, err := coordination.NewServer(fmt.Sprintf("%s:%d", host, port), state, log.Logger)
			if err != nil {
				return err
			}

			log.Info().Str("addr", server.Addr().String()).Msg("coordination library server listening")
			return server.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "address to bind the coordination server to")
	cmd.Flags().IntVar(&port, "port", 8270, "port to bind the coordination server to")
	cmd.Flags().StringVar(&resourceFile, "resourcefile", "", "path to the value-set resource file")

	return cmd
}
