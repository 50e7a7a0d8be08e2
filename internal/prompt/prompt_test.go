package prompt

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kriansa/mtp-copy/internal/log"
	"github.com/kriansa/mtp-copy/internal/transfer"
)

func TestMain(m *testing.M) {
	log.Setup(false)
	os.Exit(m.Run())
}

func TestPrompter_Decide(t *testing.T) {
	item := &transfer.InvalidItemError{Path: "/tmp/missing.jpg", Reason: "does not exist"}

	tests := []struct {
		name      string
		input     string
		want      transfer.Decision
		wantAsked int
	}{
		{"yes skips", "y\n", transfer.Skip, 1},
		{"upper case yes", "Y\n", transfer.Skip, 1},
		{"no cancels", "n\n", transfer.Cancel, 1},
		{"windows line ending", "N\r\n", transfer.Cancel, 1},
		{"asks again on bad input", "maybe\n\nyes\ny\n", transfer.Skip, 4},
		{"answer without newline", "y", transfer.Skip, 1},
		{"end of input cancels", "", transfer.Cancel, 1},
		{"end of input after bad answers", "what\n", transfer.Cancel, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			got := p.Decide(item)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantAsked, strings.Count(out.String(), question))
			assert.Contains(t, out.String(), `the path "/tmp/missing.jpg" does not exist`)
		})
	}
}

func TestPrompter_SharedInput(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("y\nn\n"), &out)
	item := &transfer.InvalidItemError{Path: "x", Reason: "does not exist"}

	assert.Equal(t, transfer.Skip, p.Decide(item))
	assert.Equal(t, transfer.Cancel, p.Decide(item))
}

func TestNewDecider(t *testing.T) {
	item := &transfer.InvalidItemError{Path: "x", Reason: "does not exist"}

	d, err := NewDecider(PolicySkip, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, transfer.Skip, d(item))

	d, err = NewDecider(PolicyCancel, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, transfer.Cancel, d(item))

	d, err = NewDecider(PolicyPrompt, strings.NewReader("y\n"), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, transfer.Skip, d(item))

	_, err = NewDecider("retry", nil, nil)
	assert.Error(t, err)
}
