// Package command runs external programs on behalf of the mount helper,
// process guard and copy backends.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/kriansa/mtp-copy/internal/log"
)

// Command describes a single program invocation
type Command struct {
	Name string
	Args []string
	// Attach connects the program to the terminal even when output is
	// normally captured, so it can prompt the operator
	Attach bool
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner executes commands. It is an interface so tests can replace it.
type Runner interface {
	// Run executes the command and waits for it to exit. Captured output is
	// returned even on failure. A non-zero exit yields an *ExitError.
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

// ExitError reports a program that ran but exited with a non-zero status
type ExitError struct {
	Command string
	Code    int
	Output  []byte
}

func (e *ExitError) Error() string {
	if len(e.Output) > 0 {
		return fmt.Sprintf("%s: exit status %d (output: %q)", e.Command, e.Code, strings.TrimSpace(string(e.Output)))
	}
	return fmt.Sprintf("%s: exit status %d", e.Command, e.Code)
}

// ExitCode extracts the exit status from err. It returns 0 for nil and -1
// when the program could not be started or was killed.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	// Verbose streams program output instead of capturing it
	Verbose bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates a runner wired to the process' standard streams
func NewExecRunner(verbose bool) *ExecRunner {
	return &ExecRunner{
		Verbose: verbose,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Run executes the command
func (r *ExecRunner) Run(ctx context.Context, c Command) ([]byte, error) {
	log.Debug("running command", "command", c.String(), "attach", c.Attach)

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Stdin = r.Stdin

	var output []byte
	var err error
	if r.Verbose || c.Attach {
		cmd.Stdout = r.Stdout
		cmd.Stderr = r.Stderr
		err = cmd.Run()
	} else {
		var buf bytes.Buffer
		cmd.Stdout = &buf
		cmd.Stderr = &buf
		err = cmd.Run()
		output = buf.Bytes()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
			return output, &ExitError{Command: c.String(), Code: exitErr.ExitCode(), Output: output}
		}
		return output, fmt.Errorf("%s: %w", c.String(), err)
	}

	return output, nil
}
