// Package ch341 binds the CH341 USB to I2C bridge.
//
// The bridge is driven through whatever the platform offers: the vendor
// DLL on Windows and the kernel i2c adapter on Linux. Callers only see the
// Driver capability and address bridges by index, the same way the vendor
// API does.
package ch341

import (
	"errors"
	"fmt"

	"github.com/aliher1911/ch341scan/logging"
)

var lg = logging.New("ch341")

// NoDevice is what a read returns when nothing drives the bus.
const NoDevice = 0xFF

// Driver is a bridge driver. All operations block until the transfer
// completes.
type Driver interface {
	// Open acquires the bridge with the given index.
	Open(index int) error
	// ReadI2C reads a single byte from register reg of device addr.
	// On failure b is left unchanged.
	ReadI2C(index int, addr, reg byte, b *byte) error
	// StreamI2C writes w and then reads len(r) bytes. First byte of w is
	// the device address in 8 bit form (addr << 1).
	StreamI2C(index int, w, r []byte) error
	// Reset resets the bridge.
	Reset(index int) error
	// Close releases the bridge. Closing a bridge that was never opened
	// is allowed.
	Close(index int) error
}

// ErrDeviceOpen is matched by every DeviceOpenError.
var ErrDeviceOpen = errors.New("failed to open device")

// DeviceOpenError is returned when the bridge can't be acquired.
type DeviceOpenError struct {
	Index int
	Err   error
}

func (e *DeviceOpenError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ch341: %s %d", ErrDeviceOpen, e.Index)
	}
	return fmt.Sprintf("ch341: %s %d: %s", ErrDeviceOpen, e.Index, e.Err)
}

func (e *DeviceOpenError) Unwrap() error {
	return e.Err
}

func (e *DeviceOpenError) Is(target error) bool {
	return target == ErrDeviceOpen
}

// WriteAddr converts 7 bit address into address byte used by streams.
func WriteAddr(addr uint8) byte {
	return addr << 1
}
