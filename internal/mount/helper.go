package mount

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kriansa/mtp-copy/internal/command"
	"github.com/kriansa/mtp-copy/internal/log"
	"github.com/kriansa/mtp-copy/internal/validation"
)

// ErrHelperNotFound is returned when the helper path is not a regular file
var ErrHelperNotFound = errors.New("mount helper not found")

// HelperFailedError reports a non-zero exit of the mount helper.
// ExitCode is -1 when the helper could not be started at all.
type HelperFailedError struct {
	Operation Operation
	ExitCode  int
	Output    string
	Err       error
}

func (e *HelperFailedError) Error() string {
	msg := fmt.Sprintf("failed to %s storage: helper exited with code %d", e.Operation, e.ExitCode)
	if e.ExitCode == -1 && e.Err != nil {
		msg = fmt.Sprintf("failed to %s storage: %v", e.Operation, e.Err)
	}
	if e.Output != "" {
		msg += fmt.Sprintf(" (output: %q)", e.Output)
	}
	return msg
}

func (e *HelperFailedError) Unwrap() error {
	return e.Err
}

// HelperMounter implements Mounter by invoking an external helper as
// <helper> <mount|unmount> <device> <storage> <drive>
type HelperMounter struct {
	path   string
	runner command.Runner
}

// NewHelperMounter creates a mounter for the helper executable at path
func NewHelperMounter(path string, runner command.Runner) (*HelperMounter, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q does not exist", ErrHelperNotFound, path)
		}
		return nil, fmt.Errorf("stat mount helper: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %q is not a file", ErrHelperNotFound, path)
	}

	return &HelperMounter{
		path:   path,
		runner: runner,
	}, nil
}

// Execute runs the helper for op and maps its exit status
func (m *HelperMounter) Execute(ctx context.Context, id DeviceIdentity, drive validation.DriveLetter, op Operation) error {
	log.Debug("running mount helper", "operation", op, "device", id.DeviceName, "storage", id.StorageName, "drive", drive.String())

	output, err := m.runner.Run(ctx, command.Command{
		Name: m.path,
		Args: []string{string(op), id.DeviceName, id.StorageName, drive.String()},
	})
	if err != nil {
		return &HelperFailedError{
			Operation: op,
			ExitCode:  command.ExitCode(err),
			Output:    strings.TrimSpace(string(output)),
			Err:       err,
		}
	}

	log.Debug("mount helper succeeded", "operation", op, "drive", drive.String())
	return nil
}
