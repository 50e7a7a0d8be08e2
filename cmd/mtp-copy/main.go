package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"

	"github.com/kriansa/mtp-copy/internal/command"
	"github.com/kriansa/mtp-copy/internal/config"
	"github.com/kriansa/mtp-copy/internal/log"
	"github.com/kriansa/mtp-copy/internal/mount"
	"github.com/kriansa/mtp-copy/internal/notify"
	"github.com/kriansa/mtp-copy/internal/procguard"
	"github.com/kriansa/mtp-copy/internal/prompt"
	"github.com/kriansa/mtp-copy/internal/session"
	"github.com/kriansa/mtp-copy/internal/transfer"
	"github.com/kriansa/mtp-copy/internal/version"
)

// exitCancelled is the exit code when the operator cancelled the transfer
const exitCancelled = 2

const mountHint = "check that the device is connected and the details are correct"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		code := 1
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(code)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      version.Name,
		Usage:     "Mount an MTP device storage as a drive, copy files to it and unmount it again",
		ArgsUsage: "SOURCE...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "device",
				Usage: "MTP device name",
			},
			&cli.StringFlag{
				Name:  "storage",
				Usage: "Storage name on the device",
			},
			&cli.StringFlag{
				Name:    "drive",
				Aliases: []string{"d"},
				Usage:   "Drive letter to mount the storage on (D-Z)",
			},
			&cli.StringFlag{
				Name:    "dest",
				Aliases: []string{"t"},
				Usage:   "Destination path on the mounted drive, e.g. V:/DCIM",
			},
			&cli.BoolFlag{
				Name:    "overwrite",
				Aliases: []string{"y"},
				Usage:   "Replace existing files without asking",
			},
			&cli.StringFlag{
				Name:  "helper",
				Usage: "Path to the mount helper executable",
			},
			&cli.StringFlag{
				Name:  "process",
				Usage: "Process name of the mount helper (default: helper file name)",
			},
			&cli.StringFlag{
				Name:  "on-invalid",
				Usage: "What to do with missing or unreadable sources: prompt, skip or cancel",
			},
			&cli.StringFlag{
				Name:  "guard",
				Usage: "Process guard backend: process or cli",
			},
			&cli.StringFlag{
				Name:  "copier",
				Usage: "Copy backend: xcopy or native",
			},
			&cli.BoolFlag{
				Name:  "notify",
				Usage: "Show a desktop notification when done",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Configuration file path",
				Value:   config.DefaultConfigPath(),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging and show helper output",
			},
			&cli.BoolFlag{
				Name:    "version",
				Aliases: []string{"V"},
				Usage:   "Print version information",
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("version") {
		fmt.Println(version.String())
		return nil
	}

	dest := cmd.String("dest")
	if dest == "" {
		return errors.New("--dest is required")
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cfg.Merge(config.Flags{
		Helper:    cmd.String("helper"),
		Process:   cmd.String("process"),
		Device:    cmd.String("device"),
		Storage:   cmd.String("storage"),
		Drive:     cmd.String("drive"),
		OnInvalid: cmd.String("on-invalid"),
		Guard:     cmd.String("guard"),
		Copier:    cmd.String("copier"),
		Overwrite: cmd.Bool("overwrite"),
		Verbose:   cmd.Bool("verbose"),
		Notify:    cmd.Bool("notify"),
	})
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log.Setup(cfg.Verbose)

	sources := cmd.Args().Slice()
	if len(sources) == 0 {
		return errors.New("at least one source path is required")
	}

	if cfg.OnInvalid == prompt.PolicyPrompt && !isTerminal(os.Stdin) {
		return errors.New("--on-invalid prompt needs an interactive terminal (use skip or cancel)")
	}

	runner := command.NewExecRunner(cfg.Verbose)
	fs := afero.NewOsFs()
	drive := cfg.DriveLetter()

	mounter, err := mount.NewHelperMounter(cfg.Helper, runner)
	if err != nil {
		return err
	}
	guard, err := procguard.NewGuard(cfg.Guard, runner)
	if err != nil {
		return fmt.Errorf("create process guard: %w", err)
	}
	copier, err := transfer.NewCopier(cfg.Copier, runner, fs)
	if err != nil {
		return fmt.Errorf("create copier: %w", err)
	}
	decide, err := prompt.NewDecider(cfg.OnInvalid, os.Stdin, os.Stderr)
	if err != nil {
		return err
	}

	engine := transfer.NewEngine(drive, copier, decide, transfer.WithFs(fs))

	opts := []session.Option{session.WithFs(fs)}
	if cfg.Notify {
		var notifyOpts []notify.DBusNotifierOption
		if cfg.NotifyIcon != "" {
			notifyOpts = append(notifyOpts, notify.WithIcon(cfg.NotifyIcon))
		}
		notifier, err := notify.NewDBusNotifier(notifyOpts...)
		if err != nil {
			log.Warn("desktop notifications unavailable", "error", err)
		} else {
			defer notifier.Close()
			opts = append(opts, session.WithNotifier(notifier))
		}
	}

	s, err := session.New(session.Options{
		Identity: mount.DeviceIdentity{
			DeviceName:  cfg.Device,
			StorageName: cfg.Storage,
		},
		Drive:         drive,
		HelperProcess: cfg.Process,
	}, guard, mounter, engine, opts...)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	res, err := s.Run(ctx, transfer.Items(sources...), dest, cfg.Overwrite)
	if res != nil && res.Report != nil {
		printSummary(res)
	}
	if err != nil {
		if hint := hintFor(err, cfg.Verbose); hint != "" {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
		}
		return err
	}

	if res.Report.Cancelled() {
		return cli.Exit("transfer cancelled", exitCancelled)
	}
	return nil
}

// hintFor returns advice for a failed mount. In verbose mode the helper's
// own output is already on the terminal, so there is none.
func hintFor(err error, verbose bool) string {
	if verbose {
		return ""
	}
	var helperErr *mount.HelperFailedError
	if errors.As(err, &helperErr) && helperErr.Operation == mount.Mount {
		return mountHint
	}
	return ""
}

func printSummary(res *session.Result) {
	r := res.Report
	fmt.Printf("%d copied (%s), %d skipped in %s\n",
		r.Count(transfer.Copied),
		humanize.Bytes(uint64(r.Bytes())),
		r.Count(transfer.Skipped),
		res.Duration().Round(100*time.Millisecond),
	)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
