// Package archiver turns a source directory into a gzip-compressed tar file on local disk.
package archiver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"SwiftBackuper/internal/config"
)

var ErrSourceNotDir = errors.New("source is not a directory")

// Archiver writes sourceDir to destPath. Entries are rooted at the base name of
// sourceDir, the layout `cd $(dirname src) && tar -zcf dest $(basename src)` produces.
type Archiver interface {
	Compress(ctx context.Context, sourceDir, destPath string) error
}

func New(kind string, level int) (Archiver, error) {
	switch kind {
	case config.ArchiverBuiltin, "":
		return NewTarGz(level), nil
	case config.ArchiverTar:
		return NewCommand(), nil
	default:
		return nil, fmt.Errorf("%w: got %q", config.ErrInvalidArchiver, kind)
	}
}

func checkSource(sourceDir string) (string, error) {
	abs, err := filepath.Abs(sourceDir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", abs, ErrSourceNotDir)
	}
	return abs, nil
}
