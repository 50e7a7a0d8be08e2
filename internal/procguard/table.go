package procguard

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/kriansa/mtp-copy/internal/log"
)

// Process is the subset of a process table entry the guard needs
type Process interface {
	PID() int32
	Name(ctx context.Context) (string, error)
	Kill(ctx context.Context) error
}

// ListFunc returns a snapshot of the process table
type ListFunc func(ctx context.Context) ([]Process, error)

// TableGuard implements Guard on top of the host process table
type TableGuard struct {
	list ListFunc
}

// TableGuardOption is a functional option for TableGuard
type TableGuardOption func(*TableGuard)

// WithLister replaces the process table source (for testing)
func WithLister(list ListFunc) TableGuardOption {
	return func(g *TableGuard) {
		g.list = list
	}
}

// NewTableGuard creates a guard backed by gopsutil
func NewTableGuard(opts ...TableGuardOption) *TableGuard {
	g := &TableGuard{list: listSystemProcesses}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsRunning reports whether any process is named name
func (g *TableGuard) IsRunning(ctx context.Context, name string) bool {
	procs, err := g.find(ctx, name)
	if err != nil {
		log.Debug("process table query failed, assuming not running", "name", name, "error", err)
		return false
	}
	return len(procs) > 0
}

// Terminate kills every process named name
func (g *TableGuard) Terminate(ctx context.Context, name string) error {
	procs, err := g.find(ctx, name)
	if err != nil {
		log.Warn("process table query failed, nothing terminated", "name", name, "error", err)
		return nil
	}

	if len(procs) == 0 {
		log.Debug("no process to terminate", "name", name)
		return nil
	}

	var errs []error
	for _, p := range procs {
		if err := p.Kill(ctx); err != nil {
			if errors.Is(err, os.ErrProcessDone) {
				continue
			}
			log.Debug("failed to kill process", "name", name, "pid", p.PID(), "error", err)
			errs = append(errs, &TerminationFailedError{Name: name, PID: p.PID(), Err: err})
			continue
		}
		log.Debug("killed process", "name", name, "pid", p.PID())
	}

	return errors.Join(errs...)
}

// find returns the processes whose name equals name, ignoring case.
// Entries that vanish or cannot be read while scanning are skipped.
func (g *TableGuard) find(ctx context.Context, name string) ([]Process, error) {
	procs, err := g.list(ctx)
	if err != nil {
		return nil, err
	}

	var matched []Process
	for _, p := range procs {
		pname, err := p.Name(ctx)
		if err != nil {
			continue
		}
		if strings.EqualFold(pname, name) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// systemProcess adapts a gopsutil process to Process
type systemProcess struct {
	p *process.Process
}

func (s systemProcess) PID() int32 {
	return s.p.Pid
}

func (s systemProcess) Name(ctx context.Context) (string, error) {
	return s.p.NameWithContext(ctx)
}

func (s systemProcess) Kill(ctx context.Context) error {
	return s.p.KillWithContext(ctx)
}

func listSystemProcesses(ctx context.Context) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Process, 0, len(procs))
	for _, p := range procs {
		result = append(result, systemProcess{p: p})
	}
	return result, nil
}
