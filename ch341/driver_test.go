package ch341

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceOpenErrorMatching(t *testing.T) {
	var err error = &DeviceOpenError{Index: 2, Err: fs.ErrNotExist}
	require.ErrorIs(t, err, ErrDeviceOpen)
	require.ErrorIs(t, err, fs.ErrNotExist)

	var oe *DeviceOpenError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, 2, oe.Index)
	assert.Contains(t, err.Error(), "failed to open device 2")
}

func TestDeviceOpenErrorWithoutCause(t *testing.T) {
	err := &DeviceOpenError{Index: 0}
	assert.Equal(t, "ch341: failed to open device 0", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}

func TestWriteAddr(t *testing.T) {
	assert.Equal(t, byte(0x80), WriteAddr(0x40))
	assert.Equal(t, byte(0x20), WriteAddr(0x10))
	assert.Equal(t, byte(0xFE), WriteAddr(0x7F))
}
