//go:build linux

package ch341

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAdapters(t *testing.T, names map[int]string) string {
	root := t.TempDir()
	for bus, name := range names {
		dir := filepath.Join(root, fmt.Sprintf("i2c-%d", bus))
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "name"), []byte(name+"\n"), 0o644))
	}
	return root
}

func TestFindBus(t *testing.T) {
	root := fakeAdapters(t, map[int]string{
		0:  "bcm2835 (i2c@7e804000)",
		11: "i2c-ch341-usb at bus 001 device 007",
		7:  "CH341 I2C USB bus 003 device 002",
	})

	bus, err := findBus(root, 0)
	require.NoError(t, err)
	assert.Equal(t, 7, bus)

	bus, err = findBus(root, 1)
	require.NoError(t, err)
	assert.Equal(t, 11, bus)

	_, err = findBus(root, 2)
	require.ErrorContains(t, err, "found 2 ch341 adapters")
}

func TestDevfsOpenWithoutAdapter(t *testing.T) {
	d := &Devfs{Bus: -1, SysfsRoot: fakeAdapters(t, nil)}
	err := d.Open(0)
	require.ErrorIs(t, err, ErrDeviceOpen)
	// Close is allowed regardless.
	require.NoError(t, d.Close(0))
}

func TestDevfsOpenMissingNode(t *testing.T) {
	d := New(99999)
	err := d.Open(0)
	require.ErrorIs(t, err, ErrDeviceOpen)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDevfsTransfersRequireOpen(t *testing.T) {
	d := New(-1)
	var b byte = 0x42
	require.ErrorContains(t, d.ReadI2C(0, 0x10, 0, &b), "not open")
	assert.Equal(t, byte(0x42), b)
	require.ErrorContains(t, d.StreamI2C(0, []byte{0x80, 0x00}, nil), "not open")
	require.ErrorContains(t, d.Reset(0), "not open")
}

func TestIdleBus(t *testing.T) {
	assert.True(t, idleBus(syscall.ENXIO))
	assert.True(t, idleBus(&os.PathError{Op: "read", Path: "/dev/i2c-1", Err: syscall.EREMOTEIO}))
	assert.True(t, idleBus(fmt.Errorf("wrapped: %w", syscall.EIO)))
	assert.False(t, idleBus(syscall.EBUSY))
	assert.False(t, idleBus(os.ErrPermission))
}
