package procguard

import (
	"context"
	"fmt"

	"github.com/kriansa/mtp-copy/internal/command"
)

const (
	// BackendProcess reads the host process table through gopsutil
	BackendProcess = "process"
	// BackendCLI shells out to tasklist and taskkill
	BackendCLI = "cli"
)

// Guard finds and terminates helper processes by executable name.
// Names are compared exactly, ignoring case.
type Guard interface {
	// IsRunning reports whether a process with the given name is running.
	// It returns false when the process table cannot be queried.
	IsRunning(ctx context.Context, name string) bool

	// Terminate force-kills every process with the given name. It succeeds
	// when nothing matches and only fails when a running process could not
	// be killed.
	Terminate(ctx context.Context, name string) error
}

// TerminationFailedError is returned when a confirmed running process could
// not be terminated
type TerminationFailedError struct {
	Name string
	// PID is 0 when the backend terminates by name
	PID int32
	Err error
}

func (e *TerminationFailedError) Error() string {
	if e.PID != 0 {
		return fmt.Sprintf("terminate %s (pid %d): %v", e.Name, e.PID, e.Err)
	}
	return fmt.Sprintf("terminate %s: %v", e.Name, e.Err)
}

func (e *TerminationFailedError) Unwrap() error {
	return e.Err
}

// NewGuard creates a Guard for the given backend. The runner is only used by
// the cli backend.
func NewGuard(backend string, runner command.Runner) (Guard, error) {
	switch backend {
	case BackendProcess:
		return NewTableGuard(), nil
	case BackendCLI:
		return NewCLIGuard(runner), nil
	default:
		return nil, fmt.Errorf("unknown process guard backend: %s (use '%s' or '%s')", backend, BackendProcess, BackendCLI)
	}
}
