package session

// State is where a session's drive binding currently is
type State int

const (
	Unmounted State = iota
	Mounting
	Mounted
	Transferring
	Unmounting
	// Failed means a mount or unmount step did not succeed
	Failed
)

func (s State) String() string {
	switch s {
	case Unmounted:
		return "unmounted"
	case Mounting:
		return "mounting"
	case Mounted:
		return "mounted"
	case Transferring:
		return "transferring"
	case Unmounting:
		return "unmounting"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
