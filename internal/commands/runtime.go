package commands

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/hay-kot/ccdash/internal/core/config"
)

// reloadConfig applies config file edits to the running registry, watcher
// and dashboard until ctx is cancelled.
func reloadConfig(ctx context.Context, f *Flags) error {
	if f.ConfigPath == "" {
		<-ctx.Done()
		return nil
	}

	logger := log.With().Str("component", "config").Logger()

	return config.Watch(ctx, f.ConfigPath, logger, func(cfg *config.Config) {
		settings, err := cfg.Settings()
		if err != nil {
			logger.Warn().Err(err).Msg("ignoring config change")
			return
		}

		f.Registry.Configure(settings)
		f.Watcher.SetInterval(cfg.PollInterval)
		f.Dashboard.SetDefaultModel(cfg.Model())
	})
}
