package brightness

import (
	"errors"
	"fmt"
)

var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrWrite          = errors.New("brightness write failed")
)

// DeviceNotFoundError reports that the requested monitor is absent or cannot
// be used for brightness control. Name is "N/A" when no name was requested.
type DeviceNotFoundError struct {
	Name string
	Err  error
}

func (e *DeviceNotFoundError) Error() string {
	msg := fmt.Sprintf("requested device '%s' does not exist", e.Name)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DeviceNotFoundError) Unwrap() error { return e.Err }

func (e *DeviceNotFoundError) Is(target error) bool { return target == ErrDeviceNotFound }

// WriteError is returned when the monitor rejects a brightness write.
// The device state is left unchanged.
type WriteError struct {
	Value uint32
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to set brightness to %d: %v", e.Value, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Is(target error) bool { return target == ErrWrite }
