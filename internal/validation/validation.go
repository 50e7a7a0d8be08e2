package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// FirstDriveLetter is the lowest drive letter a storage may be mounted to.
	// A through C are conventionally taken by floppy and system drives.
	FirstDriveLetter = 'D'
	// LastDriveLetter is the highest drive letter
	LastDriveLetter = 'Z'
)

var (
	// ErrInvalidDriveLetter is matched by every *InvalidDriveLetterError
	ErrInvalidDriveLetter = errors.New("invalid drive letter")
	// ErrInvalidDestinationFormat is returned when a destination is not a
	// drive-rooted path such as V:/ or V:\
	ErrInvalidDestinationFormat = errors.New("invalid drive path format (e.g. X:/)")
)

// drivePathPattern matches a drive-rooted path with either separator style
var drivePathPattern = regexp.MustCompile(`^[A-Za-z]:[/\\]`)

// DriveLetter is a validated, upper-case drive letter in the D-Z range.
// The zero value is not valid; use ParseDriveLetter.
type DriveLetter byte

// String returns the letter without a colon, e.g. "V"
func (d DriveLetter) String() string {
	return string(rune(d))
}

// Root returns the drive root in forward slash form, e.g. "V:/"
func (d DriveLetter) Root() string {
	return d.String() + ":/"
}

// InvalidDriveLetterError reports input that is not a single letter in D-Z
type InvalidDriveLetterError struct {
	Given string
}

func (e *InvalidDriveLetterError) Error() string {
	return fmt.Sprintf("%q is not a valid drive letter (%c-%c)", e.Given, FirstDriveLetter, LastDriveLetter)
}

func (e *InvalidDriveLetterError) Is(target error) bool {
	return target == ErrInvalidDriveLetter
}

// ParseDriveLetter validates a single ASCII letter in the D-Z range,
// case-insensitive. It does not check whether the host already uses it.
func ParseDriveLetter(s string) (DriveLetter, error) {
	if len(s) != 1 {
		return 0, &InvalidDriveLetterError{Given: s}
	}

	c := s[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}

	if c < FirstDriveLetter || c > LastDriveLetter {
		return 0, &InvalidDriveLetterError{Given: s}
	}

	return DriveLetter(c), nil
}

// DestinationMismatchError reports a transfer destination that is not rooted
// at the mounted drive
type DestinationMismatchError struct {
	Destination string
	Drive       DriveLetter
	// Err is ErrInvalidDestinationFormat when the letter matched but the
	// path is not drive-rooted, nil otherwise
	Err error
}

func (e *DestinationMismatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("destination %q: %v", e.Destination, e.Err)
	}
	return fmt.Sprintf("destination %q does not match the drive letter of the device (%q)", e.Destination, e.Drive.String())
}

func (e *DestinationMismatchError) Unwrap() error {
	return e.Err
}

// CheckDestination verifies that dest starts with the drive letter
// (case-insensitive) and has the <letter>:/ shape. Either separator is accepted.
func CheckDestination(dest string, drive DriveLetter) error {
	if dest == "" || !strings.EqualFold(dest[:1], drive.String()) {
		return &DestinationMismatchError{Destination: dest, Drive: drive}
	}

	if !drivePathPattern.MatchString(dest) {
		return &DestinationMismatchError{Destination: dest, Drive: drive, Err: ErrInvalidDestinationFormat}
	}

	return nil
}
