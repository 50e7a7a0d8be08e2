// Package prompt provides the deciders used when a transfer item is invalid:
// an interactive question on the terminal or a fixed policy.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/kriansa/mtp-copy/internal/log"
	"github.com/kriansa/mtp-copy/internal/transfer"
)

const (
	PolicyPrompt = "prompt"
	PolicySkip   = "skip"
	PolicyCancel = "cancel"
)

// Policies lists the accepted policy names
var Policies = []string{PolicyPrompt, PolicySkip, PolicyCancel}

const question = "Do you want to skip this item, or cancel the operation? Y (skip), N (cancel): "

// Prompter asks the operator on every invalid item. It blocks until a
// valid answer is read.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a prompter reading answers from in
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Decide asks until the answer is y or n. Input ending before an answer
// is read cancels.
func (p *Prompter) Decide(item *transfer.InvalidItemError) transfer.Decision {
	for {
		fmt.Fprintf(p.out, "%v\n%s", item, question)

		line, err := p.in.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y":
			return transfer.Skip
		case "n":
			return transfer.Cancel
		}

		if err != nil {
			fmt.Fprintln(p.out)
			log.Warn("no answer on input, cancelling", "path", item.Path, "error", err)
			return transfer.Cancel
		}
	}
}

// NewDecider returns the Decider for a policy name. in and out are only
// used by the prompt policy.
func NewDecider(policy string, in io.Reader, out io.Writer) (transfer.Decider, error) {
	switch policy {
	case PolicyPrompt:
		return NewPrompter(in, out).Decide, nil
	case PolicySkip:
		return transfer.SkipAll, nil
	case PolicyCancel:
		return transfer.CancelAll, nil
	default:
		return nil, fmt.Errorf("unknown invalid item policy: %q (use one of %s)", policy, strings.Join(Policies, ", "))
	}
}
