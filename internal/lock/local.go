package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"SwiftBackuper/internal/config"
)

// errWouldBlock is returned by tryLock when another descriptor holds the lock.
var errWouldBlock = errors.New("lock is held")

// acquireAttempts bounds retries when the lock file is replaced between open and lock.
const acquireAttempts = 5

// LocalLocker is an advisory lock on dir/name.lock, one per job. The file holds
// the owner's pid. The kernel drops the lock when the owner exits, so a file left
// behind by a crashed run does not block the next one.
type LocalLocker struct {
	path string
	file *os.File
	mu   sync.Mutex
	held bool
}

type LocalOptions struct {
	Dir  string
	Name string
}

func NewLocal(opts LocalOptions) (*LocalLocker, error) {
	dir := opts.Dir
	if dir == "" {
		dir = config.DefaultLockDir
	}
	name := opts.Name
	if name == "" {
		return nil, fmt.Errorf("lock: name is required")
	}
	if filepath.Base(name) != name {
		return nil, fmt.Errorf("lock: invalid name %q", name)
	}
	return &LocalLocker{path: filepath.Join(dir, name+".lock")}, nil
}

func (l *LocalLocker) Path() string {
	return l.path
}

func (l *LocalLocker) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return fmt.Errorf("%w: %s already held by this process", ErrLocked, l.path)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}

	for i := 0; i < acquireAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0640)
		if err != nil {
			return fmt.Errorf("open lock file: %w", err)
		}
		if err := tryLock(file); err != nil {
			_ = file.Close()
			if errors.Is(err, errWouldBlock) {
				return l.lockedError()
			}
			return fmt.Errorf("lock %s: %w", l.path, err)
		}
		// A releasing owner unlinks the file before unlocking it; a lock taken on
		// the unlinked inode guards nothing.
		current, err := l.isCurrent(file)
		if err != nil {
			_ = file.Close()
			return err
		}
		if !current {
			_ = file.Close()
			continue
		}
		if err := writeOwner(file); err != nil {
			_ = file.Close()
			return err
		}
		l.file = file
		l.held = true
		return nil
	}
	return fmt.Errorf("%w: %s keeps being replaced", ErrLocked, l.path)
}

func (l *LocalLocker) isCurrent(f *os.File) (bool, error) {
	held, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("stat lock file: %w", err)
	}
	onDisk, err := os.Stat(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat lock file: %w", err)
	}
	return os.SameFile(held, onDisk), nil
}

func (l *LocalLocker) lockedError() error {
	if pid, ok := readOwner(l.path); ok {
		return fmt.Errorf("%w: %s (pid %d)", ErrLocked, l.path, pid)
	}
	return fmt.Errorf("%w: %s", ErrLocked, l.path)
}

func writeOwner(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncate lock file: %w", err)
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0); err != nil {
		return fmt.Errorf("write lock file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync lock file: %w", err)
	}
	return nil
}

func readOwner(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// Release removes the lock file and then drops the lock.
func (l *LocalLocker) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held {
		return nil
	}
	var errs []error
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, err)
	}
	if err := l.file.Close(); err != nil {
		errs = append(errs, err)
	}
	l.file = nil
	l.held = false
	return errors.Join(errs...)
}

var _ Locker = (*LocalLocker)(nil)
