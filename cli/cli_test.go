package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aliher1911/ch341scan/ch341"
	"github.com/aliher1911/ch341scan/ch341/ch341test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs root command against bridge b and returns its output.
func execute(t *testing.T, b *ch341test.Bridge, args ...string) (string, error) {
	t.Helper()
	flagIndex = 0
	flagBus = -1
	flagResetProbe = false
	flagVerbose = false
	flagConfig = ""
	flagInterval = time.Millisecond
	flagSamples = 0
	flagListOptions = false

	var gotBus int
	prev := newDriver
	newDriver = func(bus int) ch341.Driver {
		gotBus = bus
		return b
	}
	defer func() { newDriver = prev }()

	if args == nil {
		args = []string{}
	}
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetErr(nil)

	err := rootCmd.Execute()
	if err == nil && b.Opens > 0 {
		require.Equal(t, flagBus, gotBus)
	}
	return buf.String(), err
}

func TestScanCommand(t *testing.T) {
	b := ch341test.New(0x10, 0x50)
	out, err := execute(t, b)
	require.NoError(t, err)
	assert.Equal(t, `CH341 I2C Scanner
Scanning...
I2C device found at address 0x20 0x10
I2C device found at address 0xA0 0x50
`, out)
	assert.Equal(t, 1, b.Closes)
}

func TestScanCommandOpenFailure(t *testing.T) {
	b := ch341test.New(0x10)
	b.OpenErr = errors.New("unplugged")
	out, err := execute(t, b)
	require.NoError(t, err)
	assert.Equal(t, "CH341 I2C Scanner\n", out)
	assert.Equal(t, 1, b.Closes)
}

func TestScanCommandFlags(t *testing.T) {
	b := ch341test.New(0x10)
	b.FailReads[0x11] = true
	out, err := execute(t, b, "--index", "2", "--bus", "5", "--reset-probe")
	require.NoError(t, err)
	assert.Equal(t, 2, flagIndex)
	assert.Equal(t, 1, strings.Count(out, "device found"))
}

func TestScanCommandRejectsArgs(t *testing.T) {
	_, err := execute(t, ch341test.New(), "extra")
	require.Error(t, err)
}

func TestINA219Command(t *testing.T) {
	b := ch341test.New(0x40)
	dev := b.Devices[0x40]
	dev.Registers[0x02] = []byte{0x9C, 0x40} // 5000 << 3 = 20V
	dev.Registers[0x04] = []byte{0x07, 0xD0} // 2000 = 0.1A
	dev.Registers[0x03] = []byte{0x07, 0xD0} // 2000 = 2W

	out, err := execute(t, b, "ina219", "--samples", "3")
	require.NoError(t, err)
	line := "bus=20.00 V (max 32.00 V) current=0.10 A (max 0.40 A) power=2.00 W\n"
	assert.Equal(t, strings.Repeat(line, 3), out)
	assert.Equal(t, 1, b.Resets)
	assert.Equal(t, 1, b.Closes)
}

func TestINA219CommandConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("address: 0x41\nbus_voltage_range: BUS_VOLTAGE_RANGE_16V\n"), 0o644))

	b := ch341test.New(0x41)
	out, err := execute(t, b, "ina219", "-n", "1", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(max 16.00 V)")
	assert.Len(t, b.Devices[0x41].Writes, 2)
}

func TestINA219CommandErrors(t *testing.T) {
	b := ch341test.New(0x40)
	b.OpenErr = errors.New("unplugged")
	_, err := execute(t, b, "ina219", "-n", "1")
	require.ErrorIs(t, err, ch341.ErrDeviceOpen)
	require.ErrorContains(t, err, "no communication with CH341 device")
	assert.Zero(t, b.Closes)

	_, err = execute(t, ch341test.New(), "ina219", "--config", filepath.Join(t.TempDir(), "none.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestINA219ListOptions(t *testing.T) {
	b := ch341test.New()
	out, err := execute(t, b, "ina219", "--list-options")
	require.NoError(t, err)
	assert.Contains(t, out, "gain: GAIN_1_40MV, GAIN_2_80MV, GAIN_4_160MV, GAIN_8_320MV\n")
	assert.True(t, strings.HasPrefix(out, "bus_adc: "))
	assert.Zero(t, b.Opens)
}
