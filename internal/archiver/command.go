package archiver

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Command shells out to the system tar.
type Command struct {
	Path string
}

func NewCommand() *Command {
	return &Command{Path: "tar"}
}

func (c *Command) Compress(ctx context.Context, sourceDir, destPath string) error {
	root, err := checkSource(sourceDir)
	if err != nil {
		return err
	}
	dest, err := filepath.Abs(destPath)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, c.Path, "-zcf", dest, "-C", filepath.Dir(root), filepath.Base(root))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", c.Path, err, msg)
		}
		return fmt.Errorf("%s: %w", c.Path, err)
	}
	return nil
}

var _ Archiver = (*Command)(nil)
