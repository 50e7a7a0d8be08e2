package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/kriansa/mtp-copy/internal/command"
	"github.com/kriansa/mtp-copy/internal/log"
	"github.com/kriansa/mtp-copy/internal/validation"
)

// Copier is the mechanism that moves data to the destination. Any error it
// returns is fatal for the transfer.
type Copier interface {
	// CopyFile copies the file src into the directory destDir
	CopyFile(ctx context.Context, src, destDir string, overwrite bool) (int64, error)
	// CopyDir copies the tree rooted at src so that it becomes dest
	CopyDir(ctx context.Context, src, dest string, overwrite bool) (int64, error)
}

const (
	// BackendXCopy copies with the Windows xcopy tool
	BackendXCopy = "xcopy"
	// BackendNative copies in-process
	BackendNative = "native"
)

// NewCopier creates a Copier for the given backend. The runner is only used
// by the xcopy backend.
func NewCopier(backend string, runner command.Runner, fs afero.Fs) (Copier, error) {
	switch backend {
	case BackendXCopy:
		return NewXCopier(runner, fs), nil
	case BackendNative:
		return NewFSCopier(fs), nil
	default:
		return nil, fmt.Errorf("unknown copier backend: %s (use '%s' or '%s')", backend, BackendXCopy, BackendNative)
	}
}

// Engine transfers items to a destination on one drive
type Engine struct {
	drive  validation.DriveLetter
	copier Copier
	decide Decider
	fs     afero.Fs
}

// EngineOption is a functional option for Engine
type EngineOption func(*Engine)

// WithFs sets the filesystem used to classify source paths
func WithFs(fs afero.Fs) EngineOption {
	return func(e *Engine) {
		e.fs = fs
	}
}

// NewEngine creates an engine for the given drive. A nil decide cancels at
// the first invalid item.
func NewEngine(drive validation.DriveLetter, copier Copier, decide Decider, opts ...EngineOption) *Engine {
	if decide == nil {
		decide = CancelAll
	}

	e := &Engine{
		drive:  drive,
		copier: copier,
		decide: decide,
		fs:     afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Transfer copies items in order into destRoot.
//
// A destination outside the engine's drive fails before anything is copied
// and returns a nil report. A copy failure stops the transfer and is
// returned as a *CopyError alongside the report built so far. When ctx is
// done the next item is recorded as Aborted and ctx's error is returned.
func (e *Engine) Transfer(ctx context.Context, items []Item, destRoot string, overwrite bool) (*Report, error) {
	if err := validation.CheckDestination(destRoot, e.drive); err != nil {
		return nil, err
	}
	dest := NormalizeDestination(destRoot)

	report := &Report{Entries: make([]Entry, 0, len(items))}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			report.Entries = append(report.Entries, Entry{Item: item, Source: item.SourcePath, Outcome: Aborted, Err: err})
			log.Warn("transfer interrupted", "path", item.SourcePath, "error", err)
			return report, fmt.Errorf("transfer interrupted: %w", err)
		}

		entry := e.transferItem(ctx, item, dest, overwrite)
		report.Entries = append(report.Entries, entry)

		if entry.Outcome != Aborted {
			continue
		}
		if entry.Kind == KindInvalid {
			log.Info("transfer cancelled", "path", entry.Source)
			return report, nil
		}
		return report, &CopyError{Path: entry.Source, Kind: entry.Kind, Err: entry.Err}
	}

	return report, nil
}

func (e *Engine) transferItem(ctx context.Context, item Item, dest string, overwrite bool) Entry {
	entry := Entry{Item: item, Source: item.SourcePath}

	src, invalid := e.resolve(item)
	entry.Kind = KindInvalid
	if invalid == nil {
		entry.Source = src
		entry.Kind, invalid = e.classify(src)
	}

	switch entry.Kind {
	case KindFile:
		log.Debug("copying file", "source", src, "destination", dest)
		entry.Bytes, entry.Err = e.copier.CopyFile(ctx, src, dest, overwrite)
	case KindDirectory:
		target := filepath.Join(dest, filepath.Base(src))
		log.Debug("copying directory", "source", src, "destination", target)
		entry.Bytes, entry.Err = e.copier.CopyDir(ctx, src, target, overwrite)
	default:
		entry.Err = invalid
		decision := e.decide(invalid)
		log.Debug("invalid item", "path", invalid.Path, "reason", invalid.Reason, "decision", decision.String())
		if decision == Skip {
			entry.Outcome = Skipped
			log.Warn("skipped item", "path", invalid.Path, "reason", invalid.Reason)
		} else {
			entry.Outcome = Aborted
		}
		return entry
	}

	if entry.Err != nil {
		entry.Outcome = Aborted
		log.Error("copy failed", "source", src, "kind", entry.Kind.String(), "error", entry.Err)
		return entry
	}

	entry.Outcome = Copied
	log.Info("copied", "source", src, "kind", entry.Kind.String(), "bytes", entry.Bytes)
	return entry
}

// resolve turns the source path into an absolute path
func (e *Engine) resolve(item Item) (string, *InvalidItemError) {
	if strings.TrimSpace(item.SourcePath) == "" {
		return "", &InvalidItemError{Path: item.SourcePath, Reason: "is empty"}
	}

	src, err := filepath.Abs(item.SourcePath)
	if err != nil {
		return "", &InvalidItemError{Path: item.SourcePath, Reason: fmt.Sprintf("cannot be resolved: %v", err)}
	}
	return src, nil
}

// classify stats src right before it is copied
func (e *Engine) classify(src string) (Kind, *InvalidItemError) {
	info, err := e.fs.Stat(src)
	switch {
	case err != nil && os.IsNotExist(err):
		return KindInvalid, &InvalidItemError{Path: src, Reason: "does not exist"}
	case err != nil:
		return KindInvalid, &InvalidItemError{Path: src, Reason: fmt.Sprintf("cannot be read: %v", err)}
	case info.Mode().IsRegular():
		return KindFile, nil
	case info.IsDir():
		return KindDirectory, nil
	default:
		return KindInvalid, &InvalidItemError{Path: src, Reason: "is not a file or directory"}
	}
}

// NormalizeDestination converts a drive-rooted destination to the host's
// separator style, so V:\DCIM and V:/DCIM name the same place
func NormalizeDestination(dest string) string {
	return filepath.Clean(filepath.FromSlash(strings.ReplaceAll(dest, `\`, "/")))
}
