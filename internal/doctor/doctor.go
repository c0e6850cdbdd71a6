package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"SwiftBackuper/internal/blobstore"
	"SwiftBackuper/internal/config"
	"SwiftBackuper/internal/lock"
	"SwiftBackuper/internal/swift"
)

type CheckResult struct {
	Name   string
	OK     bool
	Detail string
}

// StoreFactory builds the blob store for the storage check.
type StoreFactory func(ctx context.Context, sc config.StorageConfig) (blobstore.Store, error)

func Run(ctx context.Context, cfg *config.Config, newStore StoreFactory) []CheckResult {
	var results []CheckResult

	results = append(results, CheckResult{
		Name:   "config",
		OK:     cfg != nil,
		Detail: "configuration loaded",
	})
	if cfg == nil {
		return results
	}

	ok, detail := checkStorage(ctx, cfg, newStore)
	results = append(results, CheckResult{Name: "storage", OK: ok, Detail: detail})

	ok, detail = checkTmpPath(cfg.TmpPath)
	results = append(results, CheckResult{Name: "tmp path", OK: ok, Detail: detail})

	ok, detail = checkLocalLock(cfg.LockDir)
	results = append(results, CheckResult{Name: "local lock", OK: ok, Detail: detail})

	if cfg.Archiver == config.ArchiverTar {
		ok, detail = checkTarBinary()
		results = append(results, CheckResult{Name: "archiver", OK: ok, Detail: detail})
	}

	for _, j := range cfg.Jobs {
		if !j.Enabled {
			continue
		}
		ok, detail = checkSource(j.Source)
		results = append(results, CheckResult{Name: "job " + j.Name, OK: ok, Detail: detail})
	}

	return results
}

func checkStorage(ctx context.Context, cfg *config.Config, newStore StoreFactory) (bool, string) {
	if newStore == nil {
		return false, "storage not configured"
	}
	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		return false, fmt.Sprintf("%s client init failed: %v", cfg.Storage.Provider, err)
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	objs, err := store.List(ctx, cfg.Storage.Container)
	if swift.IsUnauthorised(err) {
		return false, fmt.Sprintf("%s credentials rejected for user %q: %v", cfg.Storage.Provider, cfg.Storage.Username, err)
	}
	if err != nil {
		return false, fmt.Sprintf("%s list failed: %v", cfg.Storage.Provider, err)
	}
	return true, fmt.Sprintf("%s OK (container=%s, objects=%d)", cfg.Storage.Provider, cfg.Storage.Container, len(objs))
}

func checkLocalLock(dir string) (bool, string) {
	l, err := lock.NewLocal(lock.LocalOptions{Dir: dir, Name: "doctor"})
	if err != nil {
		return false, fmt.Sprintf("local lock init failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Acquire(ctx); err != nil {
		return false, fmt.Sprintf("local lock acquire failed: %v", err)
	}
	if err := l.Release(context.Background()); err != nil {
		return false, fmt.Sprintf("local lock release failed: %v", err)
	}
	return true, fmt.Sprintf("local lock dir accessible (%s)", dir)
}

func checkTmpPath(dir string) (bool, string) {
	f, err := os.CreateTemp(dir, "swiftbackuper-doctor-*")
	if err != nil {
		return false, fmt.Sprintf("create temp file failed in %s: %v", dir, err)
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString("test"); err != nil {
		_ = f.Close()
		return false, fmt.Sprintf("write temp file failed: %v", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Sprintf("close temp file failed: %v", err)
	}
	return true, fmt.Sprintf("tmp path writable (%s)", dir)
}

func checkTarBinary() (bool, string) {
	path, err := exec.LookPath("tar")
	if err != nil {
		return false, "tar not found in PATH"
	}
	return true, fmt.Sprintf("tar found (%s)", path)
}

func checkSource(dir string) (bool, string) {
	info, err := os.Stat(dir)
	if err != nil {
		return false, fmt.Sprintf("source unreadable: %v", err)
	}
	if !info.IsDir() {
		return false, fmt.Sprintf("source %s is not a directory", dir)
	}
	return true, fmt.Sprintf("source readable (%s)", dir)
}
