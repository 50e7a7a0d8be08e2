package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/kriansa/mtp-copy/internal/procguard"
	"github.com/kriansa/mtp-copy/internal/prompt"
	"github.com/kriansa/mtp-copy/internal/transfer"
	"github.com/kriansa/mtp-copy/internal/validation"
	"github.com/kriansa/mtp-copy/internal/version"
)

const (
	// DefaultHelperPath is where the mount helper is looked up when not configured
	DefaultHelperPath = "tools/mtpmount-x64.exe"
	// DefaultGuard is the default process guard backend
	DefaultGuard = procguard.BackendProcess
	// DefaultOnInvalid is the default policy for invalid items
	DefaultOnInvalid = prompt.PolicyPrompt
)

// DefaultConfigPath returns the default location for the config file,
// $XDG_CONFIG_HOME/mtp-copy/config.toml or the OS equivalent
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, version.Name, "config.toml")
}

// DefaultCopier returns the copier backend used when none is configured.
// xcopy only exists on Windows.
func DefaultCopier() string {
	if runtime.GOOS == "windows" {
		return transfer.BackendXCopy
	}
	return transfer.BackendNative
}

// Config holds the tool configuration
type Config struct {
	// Helper is the path to the mount helper executable
	Helper string `toml:"helper" validate:"required"`
	// Process is the helper's process name; defaults to the base name of Helper
	Process string `toml:"process"`
	// Device is the MTP device name as the helper knows it
	Device string `toml:"device" validate:"required"`
	// Storage is the storage name on the device
	Storage string `toml:"storage" validate:"required"`
	// Drive is the drive letter the storage is mounted on
	Drive string `toml:"drive" validate:"required"`
	// OnInvalid decides what happens to invalid items: "prompt", "skip" or "cancel"
	OnInvalid string `toml:"on_invalid" validate:"oneof=prompt skip cancel"`
	// Guard is the process guard backend: "process" or "cli"
	Guard string `toml:"guard" validate:"oneof=process cli"`
	// Copier is the copy backend: "xcopy" or "native"
	Copier    string `toml:"copier" validate:"oneof=xcopy native"`
	Overwrite bool   `toml:"overwrite"`
	Verbose   bool   `toml:"verbose"`
	Notify    bool   `toml:"notify"`

	// NotifyIcon is the icon name or path shown with notifications
	NotifyIcon string `toml:"notify_icon"`
}

// Flags are the values given on the command line. Empty strings and false
// booleans mean the flag was not set.
type Flags struct {
	Helper    string
	Process   string
	Device    string
	Storage   string
	Drive     string
	OnInvalid string
	Guard     string
	Copier    string
	Overwrite bool
	Verbose   bool
	Notify    bool
}

// Load loads configuration from a TOML file
// Returns an empty config if the file doesn't exist
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}

// Merge merges CLI flags into the config, with CLI flags taking precedence
// over config file values. Empty CLI values are ignored.
func (c *Config) Merge(f Flags) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Helper, f.Helper)
	set(&c.Process, f.Process)
	set(&c.Device, f.Device)
	set(&c.Storage, f.Storage)
	set(&c.Drive, f.Drive)
	set(&c.OnInvalid, f.OnInvalid)
	set(&c.Guard, f.Guard)
	set(&c.Copier, f.Copier)

	c.Overwrite = c.Overwrite || f.Overwrite
	c.Verbose = c.Verbose || f.Verbose
	c.Notify = c.Notify || f.Notify
}

// ApplyDefaults applies default values for any unset fields
func (c *Config) ApplyDefaults() {
	if c.Helper == "" {
		c.Helper = DefaultHelperPath
	}
	if c.Process == "" {
		c.Process = filepath.Base(filepath.FromSlash(c.Helper))
	}
	if c.OnInvalid == "" {
		c.OnInvalid = DefaultOnInvalid
	}
	if c.Guard == "" {
		c.Guard = DefaultGuard
	}
	if c.Copier == "" {
		c.Copier = DefaultCopier()
	}
}

// Validate validates the configuration
// Note: the helper path and the device are checked when the session starts
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return describe(verrs[0])
		}
		return err
	}

	if _, err := validation.ParseDriveLetter(c.Drive); err != nil {
		return err
	}

	return nil
}

// DriveLetter returns the parsed drive letter. Call Validate first.
func (c *Config) DriveLetter() validation.DriveLetter {
	drive, _ := validation.ParseDriveLetter(c.Drive)
	return drive
}

// newValidator reports fields by their TOML key
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("toml"), ",", 2)[0]
	})
	return v
}

// describe turns a validator failure into a message naming the TOML key and
// the matching flag
func describe(fe validator.FieldError) error {
	key := fe.Field()
	flag := strings.ReplaceAll(key, "_", "-")

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required (use --%s or set '%s' in config file)", key, flag, key)
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", key, fe.Param(), fe.Value())
	default:
		return fmt.Errorf("invalid %s: failed %q check", key, fe.Tag())
	}
}
