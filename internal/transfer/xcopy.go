package transfer

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/kriansa/mtp-copy/internal/command"
	"github.com/kriansa/mtp-copy/internal/log"
)

// XCopier copies with the Windows xcopy tool
type XCopier struct {
	runner command.Runner
	// fs creates destination directories and measures what was copied
	fs afero.Fs
}

// NewXCopier creates an xcopy based copier
func NewXCopier(runner command.Runner, fs afero.Fs) *XCopier {
	return &XCopier{runner: runner, fs: fs}
}

// CopyFile runs xcopy SRC DEST [/Y]. destDir is created first, otherwise
// xcopy asks whether DEST names a file or a directory.
func (c *XCopier) CopyFile(ctx context.Context, src, destDir string, overwrite bool) (int64, error) {
	if err := c.fs.MkdirAll(destDir, 0o755); err != nil {
		return 0, fmt.Errorf("create destination directory: %w", err)
	}
	return c.xcopy(ctx, src, []string{src, destDir}, overwrite)
}

// CopyDir runs xcopy SRC DEST /E /I [/Y]
func (c *XCopier) CopyDir(ctx context.Context, src, dest string, overwrite bool) (int64, error) {
	return c.xcopy(ctx, src, []string{src, dest, "/E", "/I"}, overwrite)
}

func (c *XCopier) xcopy(ctx context.Context, src string, args []string, overwrite bool) (int64, error) {
	if overwrite {
		args = append(args, "/Y")
	}

	// Without /Y xcopy may ask before replacing files, so the operator
	// has to see it.
	if _, err := c.runner.Run(ctx, command.Command{
		Name:   "xcopy",
		Args:   args,
		Attach: !overwrite,
	}); err != nil {
		return 0, err
	}

	return c.sizeOf(src), nil
}

// sizeOf sums the size of regular files under path
func (c *XCopier) sizeOf(path string) int64 {
	var total int64
	err := afero.Walk(c.fs, path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		log.Debug("failed to measure copied data", "path", path, "error", err)
	}
	return total
}
