package cmd

import (
	"github.com/rs/zerolog"

	"SwiftBackuper/internal/config"
	"SwiftBackuper/internal/notifier"
)

// notifierFromConfig returns the configured notifier. A misconfigured Discord block is
// logged and replaced by a no-op notifier so that backups still run.
func notifierFromConfig(cfg *config.Config, log zerolog.Logger) notifier.Notifier {
	n, err := notifier.New(cfg.Notifications)
	if err != nil {
		log.Warn().Err(err).Msg("discord notifications disabled")
		return notifier.Nop{}
	}
	return n
}

func warnNotify(log zerolog.Logger, event string, err error) {
	if err != nil {
		log.Warn().Err(err).Str("event", event).Msg("notification failed")
	}
}
