//go:build !linux && !windows

package ch341

import (
	"errors"
	"runtime"
)

var errUnsupported = errors.New("no ch341 driver for " + runtime.GOOS)

type unsupported struct{}

// New returns a driver that fails to open any bridge.
func New(bus int) Driver {
	return unsupported{}
}

func (unsupported) Open(index int) error {
	return &DeviceOpenError{Index: index, Err: errUnsupported}
}

func (unsupported) ReadI2C(index int, addr, reg byte, b *byte) error {
	return errUnsupported
}

func (unsupported) StreamI2C(index int, w, r []byte) error {
	return errUnsupported
}

func (unsupported) Reset(index int) error {
	return errUnsupported
}

func (unsupported) Close(index int) error {
	return nil
}
