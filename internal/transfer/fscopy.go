package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/kriansa/mtp-copy/internal/log"
)

// ErrDestinationExists is returned when a file would be replaced without
// overwrite being enabled
var ErrDestinationExists = errors.New("destination file already exists")

// FSCopier copies files and trees within a single afero filesystem
type FSCopier struct {
	fs afero.Fs
}

// NewFSCopier creates a copier on fs
func NewFSCopier(fs afero.Fs) *FSCopier {
	return &FSCopier{fs: fs}
}

// CopyFile copies src into destDir, creating destDir if needed
func (c *FSCopier) CopyFile(ctx context.Context, src, destDir string, overwrite bool) (int64, error) {
	if err := c.fs.MkdirAll(destDir, 0o755); err != nil {
		return 0, fmt.Errorf("create destination directory: %w", err)
	}
	return c.copyFile(ctx, src, filepath.Join(destDir, filepath.Base(src)), overwrite)
}

// CopyDir copies the tree at src to dest, creating intermediate directories
func (c *FSCopier) CopyDir(ctx context.Context, src, dest string, overwrite bool) (int64, error) {
	var total int64
	err := afero.Walk(c.fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("relative path: %w", err)
		}
		target := filepath.Join(dest, rel)

		switch {
		case info.IsDir():
			if err := c.fs.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
		case info.Mode().IsRegular():
			n, err := c.copyFile(ctx, path, target, overwrite)
			total += n
			if err != nil {
				return err
			}
		default:
			log.Debug("skipping special file", "path", path, "mode", info.Mode().String())
		}
		return nil
	})
	return total, err
}

func (c *FSCopier) copyFile(ctx context.Context, src, dest string, overwrite bool) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if !overwrite {
		if _, err := c.fs.Stat(dest); err == nil {
			return 0, fmt.Errorf("%w: %s", ErrDestinationExists, dest)
		} else if !os.IsNotExist(err) {
			return 0, fmt.Errorf("stat destination: %w", err)
		}
	}

	in, err := c.fs.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}

	out, err := c.fs.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, fmt.Errorf("create destination: %w", err)
	}

	n, err := io.Copy(out, in)
	if err != nil {
		_ = out.Close()
		return n, fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return n, fmt.Errorf("close destination: %w", err)
	}

	if err := c.fs.Chtimes(dest, info.ModTime(), info.ModTime()); err != nil {
		log.Debug("failed to preserve modification time", "path", dest, "error", err)
	}

	return n, nil
}
