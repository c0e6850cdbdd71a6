package notifier

import (
	"context"
	"time"

	"SwiftBackuper/internal/blobstore"
	"SwiftBackuper/internal/config"
)

const (
	EventStart   = "start"
	EventSuccess = "success"
	EventError   = "error"
	EventPrune   = "prune"
)

// Notifier reports run outcomes to a side channel. Its errors never change a run's result.
type Notifier interface {
	NotifyStart(ctx context.Context, jobName string) error
	NotifySuccess(ctx context.Context, jobName string, obj blobstore.Object, duration time.Duration, pruned int) error
	NotifyError(ctx context.Context, jobName string, err error) error
	NotifyPrune(ctx context.Context, jobName string, deleted []string, retained int) error
}

// New returns the configured notifier, or a no-op one when notifications are off.
func New(cfg *config.NotificationsConfig) (Notifier, error) {
	if !config.NotificationsEnabled(cfg) {
		return Nop{}, nil
	}
	return NewDiscordNotifier(cfg.Discord)
}

type Nop struct{}

func (Nop) NotifyStart(context.Context, string) error { return nil }
func (Nop) NotifySuccess(context.Context, string, blobstore.Object, time.Duration, int) error {
	return nil
}
func (Nop) NotifyError(context.Context, string, error) error { return nil }
func (Nop) NotifyPrune(context.Context, string, []string, int) error { return nil }
