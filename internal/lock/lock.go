package lock

import (
	"context"
	"errors"
	"fmt"
)

// ErrLocked is returned by Acquire when another run holds the lock.
var ErrLocked = errors.New("lock is held by another run")

type Locker interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// Do runs fn while holding l. A release failure is reported only when fn succeeded.
func Do(ctx context.Context, l Locker, fn func() error) (err error) {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer func() {
		if rerr := l.Release(context.WithoutCancel(ctx)); rerr != nil && err == nil {
			err = fmt.Errorf("release lock: %w", rerr)
		}
	}()
	return fn()
}
