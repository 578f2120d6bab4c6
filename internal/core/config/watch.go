package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watch reloads the config file whenever it changes on disk and hands every
// valid result to onChange. Invalid edits are logged and skipped. Watch
// blocks until ctx is cancelled.
func Watch(ctx context.Context, configPath string, logger zerolog.Logger, onChange func(*Config)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	// Editors replace files on save, so watch the directory rather than the file.
	dir := filepath.Dir(configPath)
	if err := fsw.Add(dir); err != nil {
		logger.Debug().Err(err).Str("dir", dir).Msg("config directory not watchable, live reload disabled")
		<-ctx.Done()
		return nil
	}

	target := filepath.Clean(configPath)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(configPath)
			if err != nil {
				logger.Warn().Err(err).Msg("ignoring invalid config change")
				continue
			}
			logger.Info().Str("path", configPath).Msg("config reloaded")
			onChange(cfg)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("config watcher error")
		}
	}
}
