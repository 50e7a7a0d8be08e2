// Package transfer copies an ordered list of files and directory trees to a
// mounted drive, letting the caller decide what happens to missing items.
package transfer

import (
	"fmt"
)

// Kind classifies a source path at the moment it is processed
type Kind int

const (
	KindUnknown Kind = iota
	KindFile
	KindDirectory
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of one item
type Outcome int

const (
	Copied Outcome = iota + 1
	Skipped
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Copied:
		return "copied"
	case Skipped:
		return "skipped"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Decision is the caller's answer to an invalid item
type Decision int

const (
	// Skip records the item as skipped and continues with the next one
	Skip Decision = iota + 1
	// Cancel records the item as aborted and stops the transfer
	Cancel
)

func (d Decision) String() string {
	switch d {
	case Skip:
		return "skip"
	case Cancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Decider is asked what to do with an item that cannot be copied because it
// does not exist or is not a file or directory. It may block, e.g. on a prompt.
type Decider func(*InvalidItemError) Decision

// SkipAll is a Decider for unattended use that skips every invalid item
func SkipAll(*InvalidItemError) Decision { return Skip }

// CancelAll is a Decider that stops at the first invalid item
func CancelAll(*InvalidItemError) Decision { return Cancel }

// Item is one source path to transfer. Its kind is not known until the
// engine reaches it.
type Item struct {
	SourcePath string
}

// Items builds an item list from paths, keeping their order
func Items(paths ...string) []Item {
	items := make([]Item, 0, len(paths))
	for _, p := range paths {
		items = append(items, Item{SourcePath: p})
	}
	return items
}

// InvalidItemError is the recoverable condition raised for an invalid item
type InvalidItemError struct {
	Path   string
	Reason string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("the path %q %s", e.Path, e.Reason)
}

// CopyError is a fatal failure of the copy mechanism for one item. It stops
// the whole transfer.
type CopyError struct {
	Path string
	Kind Kind
	Err  error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("copy %s %q: %v", e.Kind, e.Path, e.Err)
}

func (e *CopyError) Unwrap() error {
	return e.Err
}

// Entry is the result for a single item
type Entry struct {
	Item Item
	// Source is the resolved absolute path
	Source  string
	Kind    Kind
	Outcome Outcome
	// Bytes is the amount of data copied, 0 when unknown
	Bytes int64
	// Err explains a skipped or aborted item
	Err error
}

// Report lists the entries in the order the items were processed. Items
// after a cancelled or failed one have no entry.
type Report struct {
	Entries []Entry
}

// Completed reports whether no item was aborted
func (r *Report) Completed() bool {
	if r == nil {
		return false
	}
	return r.Count(Aborted) == 0
}

// Cancelled reports whether the operator stopped the transfer at an invalid item
func (r *Report) Cancelled() bool {
	if r == nil || len(r.Entries) == 0 {
		return false
	}
	last := r.Entries[len(r.Entries)-1]
	return last.Outcome == Aborted && last.Kind == KindInvalid
}

// Count returns how many entries have the given outcome
func (r *Report) Count(o Outcome) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, e := range r.Entries {
		if e.Outcome == o {
			n++
		}
	}
	return n
}

// Bytes returns the total amount of data copied
func (r *Report) Bytes() int64 {
	if r == nil {
		return 0
	}
	var total int64
	for _, e := range r.Entries {
		total += e.Bytes
	}
	return total
}
