package archiver

import (
	"archive/tar"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

type TarGz struct {
	level int
}

func NewTarGz(level int) *TarGz {
	if level < gzip.BestSpeed || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	return &TarGz{level: level}
}

// Compress writes the archive in place. A partial file is removed on failure.
func (a *TarGz) Compress(ctx context.Context, sourceDir, destPath string) (err error) {
	root, err := checkSource(sourceDir)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(destPath)
		}
	}()

	gw, err := gzip.NewWriterLevel(f, a.level)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(gw)

	base := filepath.Base(root)
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if err := writeDirHeader(tw, info, base); err != nil {
		return err
	}
	if err := a.walk(ctx, tw, root, base, destPath); err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gw.Close()
}

func (a *TarGz) walk(ctx context.Context, tw *tar.Writer, dir, prefix, destPath string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		full := filepath.Join(dir, e.Name())
		// The archive may be written inside the tree being archived.
		if same, _ := samePath(full, destPath); same {
			continue
		}
		tarName := prefix + "/" + e.Name()

		info, err := e.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}

		switch mode := info.Mode(); {
		case mode&os.ModeSymlink != 0:
			link, err := os.Readlink(full)
			if err != nil {
				return err
			}
			hdr, err := tar.FileInfoHeader(info, link)
			if err != nil {
				return err
			}
			hdr.Name = tarName
			if err := tw.WriteHeader(hdr); err != nil {
				return err
			}
		case info.IsDir():
			if err := writeDirHeader(tw, info, tarName); err != nil {
				return err
			}
			if err := a.walk(ctx, tw, full, tarName, destPath); err != nil {
				return err
			}
		case mode.IsRegular():
			if err := writeFile(tw, full, info, tarName); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeDirHeader(tw *tar.Writer, info os.FileInfo, name string) error {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name + "/"
	return tw.WriteHeader(hdr)
}

func writeFile(tw *tar.Writer, full string, info os.FileInfo, name string) error {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	f, err := os.Open(full)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.CopyN(tw, f, hdr.Size)
	return err
}

func samePath(a, b string) (bool, error) {
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return filepath.Clean(a) == absB, nil
}

var _ Archiver = (*TarGz)(nil)
