// Package session runs one mount, transfer and unmount cycle against an MTP
// storage exposed as a drive letter by an external helper.
//
// Every session that gets past destination validation terminates the helper
// process when it ends, and every successful mount is followed by exactly
// one unmount attempt, whatever happens in between.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"

	"github.com/kriansa/mtp-copy/internal/log"
	"github.com/kriansa/mtp-copy/internal/mount"
	"github.com/kriansa/mtp-copy/internal/notify"
	"github.com/kriansa/mtp-copy/internal/procguard"
	"github.com/kriansa/mtp-copy/internal/transfer"
	"github.com/kriansa/mtp-copy/internal/validation"
)

var (
	// ErrDriveUnavailable is returned when the helper reported a successful
	// mount but the drive root cannot be reached
	ErrDriveUnavailable = errors.New("mounted drive is not available")
	// ErrSessionUsed is returned when Run is called a second time
	ErrSessionUsed = errors.New("session has already run")
)

// Transferrer copies items to the mounted drive
type Transferrer interface {
	Transfer(ctx context.Context, items []transfer.Item, destRoot string, overwrite bool) (*transfer.Report, error)
}

// Options identifies what a session mounts and which helper it supervises
type Options struct {
	Identity mount.DeviceIdentity
	Drive    validation.DriveLetter
	// HelperProcess is the executable name of the mount helper
	HelperProcess string
}

// Result describes a finished session
type Result struct {
	SessionID string
	// State is where the drive binding ended: Unmounted, or Failed when
	// mounting, verifying the drive or unmounting failed
	State  State
	Report *transfer.Report
	// CleanupErr is set when the helper could not be terminated at the end.
	// It does not affect the session outcome.
	CleanupErr error

	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the session ran
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Session owns the drive letter and the helper process for one transfer.
// It is not safe for concurrent use and runs only once.
type Session struct {
	id    uuid.UUID
	opts  Options
	state State
	used  bool

	guard    procguard.Guard
	mounter  mount.Mounter
	engine   Transferrer
	fs       afero.Fs
	clock    clockwork.Clock
	notifier notify.Notifier
	log      log.Logger
}

// Option is a functional option for Session
type Option func(*Session)

// WithFs sets the filesystem used to check that the drive is reachable
func WithFs(fs afero.Fs) Option {
	return func(s *Session) {
		s.fs = fs
	}
}

// WithClock sets the clock used to time the session (for testing)
func WithClock(clock clockwork.Clock) Option {
	return func(s *Session) {
		s.clock = clock
	}
}

// WithNotifier sends a notification when the session ends
func WithNotifier(n notify.Notifier) Option {
	return func(s *Session) {
		s.notifier = n
	}
}

// New creates a session
func New(opts Options, guard procguard.Guard, mounter mount.Mounter, engine Transferrer, options ...Option) (*Session, error) {
	if opts.HelperProcess == "" {
		return nil, errors.New("helper process name is required")
	}
	if opts.Drive == 0 {
		return nil, errors.New("drive letter is required")
	}

	id := uuid.New()
	s := &Session{
		id:       id,
		opts:     opts,
		state:    Unmounted,
		guard:    guard,
		mounter:  mounter,
		engine:   engine,
		fs:       afero.NewOsFs(),
		clock:    clockwork.NewRealClock(),
		notifier: notify.Nop{},
		log:      log.With("session", id.String()),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// ID returns the session identifier used in logs
func (s *Session) ID() string {
	return s.id.String()
}

// State returns the current state
func (s *Session) State() State {
	return s.state
}

// Run mounts the storage, transfers items to destRoot and unmounts again.
//
// The destination is validated before the device is touched. After that the
// helper process is terminated on every exit path, panics included, and a
// successful mount is always followed by an unmount, even when ctx is
// cancelled. The returned Result is never nil unless the session was
// already used.
func (s *Session) Run(ctx context.Context, items []transfer.Item, destRoot string, overwrite bool) (res *Result, err error) {
	if s.used {
		return nil, ErrSessionUsed
	}
	s.used = true

	res = &Result{SessionID: s.id.String(), StartedAt: s.clock.Now()}
	defer func() {
		if errors.Is(err, ErrDriveUnavailable) {
			s.setState(Failed)
		}
		res.State = s.state
		res.FinishedAt = s.clock.Now()
		if p := recover(); p != nil {
			s.finish(res, fmt.Errorf("panic: %v", p))
			panic(p)
		}
		s.finish(res, err)
	}()

	if err := validation.CheckDestination(destRoot, s.opts.Drive); err != nil {
		return res, err
	}

	s.log.Info("starting session",
		"device", s.opts.Identity.DeviceName,
		"storage", s.opts.Identity.StorageName,
		"drive", s.opts.Drive.String(),
		"destination", destRoot,
		"items", len(items),
	)

	s.ensureClear(ctx)
	defer s.cleanup(ctx, res)

	if err := s.mount(ctx); err != nil {
		return res, err
	}
	defer func() {
		if uerr := s.unmount(ctx); uerr != nil {
			err = errors.Join(err, uerr)
		}
	}()

	if err := s.verify(); err != nil {
		return res, err
	}

	s.setState(Transferring)
	report, terr := s.engine.Transfer(ctx, items, destRoot, overwrite)
	res.Report = report
	s.setState(Mounted)
	if terr != nil {
		return res, fmt.Errorf("transfer: %w", terr)
	}

	return res, nil
}

// ensureClear terminates a helper left over from an earlier session
func (s *Session) ensureClear(ctx context.Context) {
	if s.guard.IsRunning(ctx, s.opts.HelperProcess) {
		s.log.Info("stale helper process found, terminating", "process", s.opts.HelperProcess)
	}
	if err := s.guard.Terminate(ctx, s.opts.HelperProcess); err != nil {
		s.log.Warn("failed to terminate stale helper process", "process", s.opts.HelperProcess, "error", err)
	}
}

func (s *Session) mount(ctx context.Context) error {
	s.setState(Mounting)
	if err := s.mounter.Execute(ctx, s.opts.Identity, s.opts.Drive, mount.Mount); err != nil {
		s.setState(Failed)
		s.log.Error("mount failed", "device", s.opts.Identity.DeviceName, "storage", s.opts.Identity.StorageName, "error", err)
		return fmt.Errorf("mount: %w", err)
	}

	s.setState(Mounted)
	s.log.Info("storage mounted", "drive", s.opts.Drive.String())
	return nil
}

// verify checks that the drive root is reachable after mounting
func (s *Session) verify() error {
	root := s.opts.Drive.Root()
	info, err := s.fs.Stat(transfer.NormalizeDestination(root))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDriveUnavailable, root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDriveUnavailable, root)
	}
	return nil
}

// unmount runs even when ctx was cancelled
func (s *Session) unmount(ctx context.Context) error {
	s.setState(Unmounting)
	if err := s.mounter.Execute(context.WithoutCancel(ctx), s.opts.Identity, s.opts.Drive, mount.Unmount); err != nil {
		s.setState(Failed)
		s.log.Error("unmount failed", "drive", s.opts.Drive.String(), "error", err)
		return fmt.Errorf("unmount: %w", err)
	}

	s.setState(Unmounted)
	s.log.Info("storage unmounted", "drive", s.opts.Drive.String())
	return nil
}

// cleanup terminates the helper unconditionally. Failure is recorded on res.
func (s *Session) cleanup(ctx context.Context, res *Result) {
	if err := s.guard.Terminate(context.WithoutCancel(ctx), s.opts.HelperProcess); err != nil {
		res.CleanupErr = err
		s.log.Warn("failed to terminate helper process", "process", s.opts.HelperProcess, "error", err)
		return
	}
	s.log.Debug("helper process cleaned up", "process", s.opts.HelperProcess)
}

func (s *Session) setState(state State) {
	if s.state == state {
		return
	}
	s.log.Debug("session state changed", "from", s.state.String(), "to", state.String())
	s.state = state
}

// finish logs the outcome and notifies the user
func (s *Session) finish(res *Result, err error) {
	summary, body := describe(res, err)

	if err != nil {
		s.log.Error("session failed", "state", res.State.String(), "duration", res.Duration(), "error", err)
	} else {
		s.log.Info("session finished", "state", res.State.String(), "duration", res.Duration())
	}

	if nerr := s.notifier.Notify(summary, body); nerr != nil {
		s.log.Warn("failed to send notification", "error", nerr)
	}
}

func describe(res *Result, err error) (summary, body string) {
	r := res.Report
	body = fmt.Sprintf("%d copied, %d skipped", r.Count(transfer.Copied), r.Count(transfer.Skipped))

	switch {
	case err != nil:
		return "Transfer failed", err.Error()
	case r.Cancelled():
		return "Transfer cancelled", body
	default:
		return "Transfer complete", body
	}
}
