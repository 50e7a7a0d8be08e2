package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestSetupWithWriter_Levels(t *testing.T) {
	var buf bytes.Buffer
	SetupWithWriter(&buf, false)
	t.Cleanup(func() { SetupWithWriter(&bytes.Buffer{}, false) })

	Debug("hidden")
	Info("shown", "drive", "V")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0]["message"])
	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "V", entries[0]["drive"])
}

func TestSetupWithWriter_Verbose(t *testing.T) {
	var buf bytes.Buffer
	SetupWithWriter(&buf, true)
	t.Cleanup(func() { SetupWithWriter(&bytes.Buffer{}, false) })

	Debug("visible")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "debug", entries[0]["level"])
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	SetupWithWriter(&buf, false)
	t.Cleanup(func() { SetupWithWriter(&bytes.Buffer{}, false) })

	l := With("session", "abc")
	l.Warn("unmount failed", "error", errors.New("exit status 1"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0]["session"])
	assert.Equal(t, "exit status 1", entries[0]["error"])
	assert.Equal(t, "warn", entries[0]["level"])
}
