//go:build windows

package ch341

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDLLNew(t *testing.T) {
	assert.Equal(t, DLL{}, New(-1))
	assert.Equal(t, DLL{}, New(3))
}

func TestDLLName(t *testing.T) {
	assert.Contains(t, []string{"CH341DLL.DLL", "CH341DLLA64.DLL"}, dllName())
}

// Hosts without the vendor DLL fail to load it and hosts without a bridge
// get an invalid handle. Both are open errors.
func TestDLLOpenWithoutBridge(t *testing.T) {
	if err := dll.Load(); err == nil {
		t.Skip("vendor DLL is installed, bridge may be attached")
	}
	d := New(-1)
	err := d.Open(0)
	require.ErrorIs(t, err, ErrDeviceOpen)

	var b byte = 0x42
	require.Error(t, d.ReadI2C(0, 0x10, 0, &b))
	assert.Equal(t, byte(0x42), b)
	require.Error(t, d.StreamI2C(0, []byte{0x80, 0x00}, make([]byte, 2)))
}

func TestDLLCloseUnopened(t *testing.T) {
	d := New(-1)
	assert.NotPanics(t, func() {
		_ = d.Close(7)
	})
}
