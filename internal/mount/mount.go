package mount

import (
	"context"

	"github.com/kriansa/mtp-copy/internal/validation"
)

// Operation selects what the mount helper does
type Operation string

const (
	Mount   Operation = "mount"
	Unmount Operation = "unmount"
)

// DeviceIdentity names the MTP device and the storage on it
type DeviceIdentity struct {
	// DeviceName is the device's friendly name, e.g. "Pixel 7"
	DeviceName string
	// StorageName is the logical storage on the device, e.g. "Internal shared storage"
	StorageName string
}

// Mounter attaches and detaches device storage to and from a drive letter
type Mounter interface {
	// Execute runs op for the storage identified by id on the given drive
	Execute(ctx context.Context, id DeviceIdentity, drive validation.DriveLetter, op Operation) error
}
