package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kriansa/mtp-copy/internal/mount"
)

func TestRun_VersionWithoutDest(t *testing.T) {
	err := newCommand().Run(context.Background(), []string{"mtp-copy", "--version"})
	require.NoError(t, err)
}

func TestRun_MissingDest(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	err := newCommand().Run(context.Background(), []string{
		"mtp-copy", "--config", cfgPath, "--device", "Phone-X", "--storage", "Internal", "--drive", "V", "/tmp/a.jpg",
	})
	assert.EqualError(t, err, "--dest is required")
}

func TestHintFor(t *testing.T) {
	mountErr := fmt.Errorf("mount: %w", &mount.HelperFailedError{Operation: mount.Mount, ExitCode: 1})
	unmountErr := fmt.Errorf("unmount: %w", &mount.HelperFailedError{Operation: mount.Unmount, ExitCode: 1})

	tests := []struct {
		name    string
		err     error
		verbose bool
		want    string
	}{
		{name: "mount failure", err: mountErr, want: mountHint},
		{name: "mount failure in verbose mode", err: mountErr, verbose: true, want: ""},
		{name: "unmount failure", err: unmountErr, want: ""},
		{name: "other error", err: errors.New("boom"), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hintFor(tt.err, tt.verbose))
		})
	}
}
