package coordination

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// WatchResourceFile re-parses path on every write/create event and reloads
// it into state, so a long-lived coordination server reused across runs via
// pabotlibhost/pabotlibport picks up value-set edits without restart
// (§11.7), following pkg/policy/loader.go's Watch/processEvents pattern.
func WatchResourceFile(ctx context.Context, path string, state *State, logger zerolog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		var reloadTimer *time.Timer
		const debounce = 300 * time.Millisecond

		reload := func() {
			sets, err := ParseResourceFile(path)
			if err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("failed to reload resource file")
				return
			}
			state.LoadValueSets(sets)
			logger.Info().Str("path", path).Int("sets", len(sets)).Msg("resource file reloaded")
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if reloadTimer != nil {
					reloadTimer.Stop()
				}
				reloadTimer = time.AfterFunc(debounce, reload)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn().Err(err).Msg("resource file watcher error")
			}
		}
	}()
	return nil
}
