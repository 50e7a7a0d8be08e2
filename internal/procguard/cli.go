package procguard

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/kriansa/mtp-copy/internal/command"
	"github.com/kriansa/mtp-copy/internal/log"
)

// CLIGuard implements Guard with the Windows tasklist and taskkill tools
type CLIGuard struct {
	runner command.Runner
}

// NewCLIGuard creates a guard that shells out through runner
func NewCLIGuard(runner command.Runner) *CLIGuard {
	return &CLIGuard{runner: runner}
}

// IsRunning reports whether tasklist shows a process named name
func (g *CLIGuard) IsRunning(ctx context.Context, name string) bool {
	running, err := g.isRunning(ctx, name)
	if err != nil {
		log.Debug("tasklist failed, assuming not running", "name", name, "error", err)
		return false
	}
	return running
}

func (g *CLIGuard) isRunning(ctx context.Context, name string) (bool, error) {
	output, err := g.runner.Run(ctx, command.Command{
		Name: "tasklist",
		Args: []string{"/fi", "imagename eq " + name, "/fo", "csv", "/nh"},
	})
	if err != nil {
		return false, err
	}

	names, err := parseTasklist(string(output))
	if err != nil {
		return false, fmt.Errorf("parse tasklist output: %w", err)
	}

	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true, nil
		}
	}
	return false, nil
}

// Terminate runs taskkill /f /im name when name is running
func (g *CLIGuard) Terminate(ctx context.Context, name string) error {
	running, err := g.isRunning(ctx, name)
	if err != nil {
		log.Warn("tasklist failed, nothing terminated", "name", name, "error", err)
		return nil
	}

	if !running {
		log.Debug("no process to terminate", "name", name)
		return nil
	}

	if _, err := g.runner.Run(ctx, command.Command{
		Name: "taskkill",
		Args: []string{"/f", "/im", name},
	}); err != nil {
		return &TerminationFailedError{Name: name, Err: err}
	}

	log.Debug("killed process", "name", name)
	return nil
}

// parseTasklist extracts image names from tasklist /fo csv /nh output.
// Example:
// "mtpmount-x64.exe","4212","Console","1","12,344 K"
// When nothing matches tasklist prints an INFO line instead, which yields no names.
func parseTasklist(output string) ([]string, error) {
	var names []string

	r := csv.NewReader(strings.NewReader(output))
	r.FieldsPerRecord = -1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if len(record) < 2 || strings.HasPrefix(record[0], "INFO:") {
			continue
		}
		names = append(names, strings.TrimSpace(record[0]))
	}

	return names, nil
}
