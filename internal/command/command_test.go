package command

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kriansa/mtp-copy/internal/log"
)

func TestMain(m *testing.M) {
	log.Setup(false)
	os.Exit(m.Run())
}

func TestExecRunner_Run(t *testing.T) {
	runner := &ExecRunner{}
	ctx := context.Background()

	t.Run("successful command", func(t *testing.T) {
		out, err := runner.Run(ctx, Command{Name: "sh", Args: []string{"-c", "echo hello"}})
		require.NoError(t, err)
		assert.Equal(t, "hello\n", string(out))
	})

	t.Run("non-zero exit", func(t *testing.T) {
		out, err := runner.Run(ctx, Command{Name: "sh", Args: []string{"-c", "echo oops >&2; exit 3"}})
		require.Error(t, err)

		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 3, exitErr.Code)
		assert.Equal(t, "oops\n", string(out))
		assert.Contains(t, err.Error(), "exit status 3")
		assert.Equal(t, 3, ExitCode(err))
	})

	t.Run("missing program", func(t *testing.T) {
		_, err := runner.Run(ctx, Command{Name: "nonexistent_command_that_should_not_exist_12345"})
		require.Error(t, err)

		var exitErr *ExitError
		assert.False(t, errors.As(err, &exitErr))
		assert.Equal(t, -1, ExitCode(err))
	})
}

func TestExecRunner_RunStreams(t *testing.T) {
	var stdout bytes.Buffer
	runner := &ExecRunner{Verbose: true, Stdout: &stdout, Stderr: &stdout}

	out, err := runner.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo streamed"}})
	require.NoError(t, err)
	assert.Empty(t, out, "streamed output is not captured")
	assert.Equal(t, "streamed\n", stdout.String())
}

func TestExecRunner_RunAttach(t *testing.T) {
	var stdout bytes.Buffer
	runner := &ExecRunner{Stdin: bytes.NewBufferString("y\n"), Stdout: &stdout, Stderr: &stdout}

	_, err := runner.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "read a; echo got $a"}, Attach: true})
	require.NoError(t, err)
	assert.Equal(t, "got y\n", stdout.String())
}

func TestExecRunner_RunCapturedReadsStdin(t *testing.T) {
	runner := &ExecRunner{Stdin: bytes.NewBufferString("d\n")}

	out, err := runner.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "read a; echo answer $a"}})
	require.NoError(t, err)
	assert.Equal(t, "answer d\n", string(out))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 7, ExitCode(&ExitError{Code: 7}))
	assert.Equal(t, -1, ExitCode(errors.New("boom")))
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "taskkill /f /im mtpmount-x64.exe", Command{Name: "taskkill", Args: []string{"/f", "/im", "mtpmount-x64.exe"}}.String())
	assert.Equal(t, "xcopy", Command{Name: "xcopy"}.String())
}

var _ Runner = (*ExecRunner)(nil)
