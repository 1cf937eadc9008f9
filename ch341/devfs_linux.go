//go:build linux

package ch341

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	i2c "github.com/aliher1911/go-i2c"
)

const sysfsAdapters = "/sys/class/i2c-adapter"

// Devfs drives the bridge through the CH341 kernel i2c adapter
// (/dev/i2c-N). The i2c-dev module has to be loaded.
type Devfs struct {
	// Bus pins the i2c bus number. Negative value means bridge index is
	// resolved against adapters registered by the CH341 kernel driver.
	Bus int
	// SysfsRoot overrides adapter directory for discovery.
	SysfsRoot string

	buses map[int]int
}

// New returns the kernel adapter driver. bus < 0 enables discovery.
func New(bus int) Driver {
	return &Devfs{Bus: bus}
}

func (d *Devfs) Open(index int) error {
	bus := d.Bus
	if bus < 0 {
		var err error
		if bus, err = findBus(d.sysfsRoot(), index); err != nil {
			return &DeviceOpenError{Index: index, Err: err}
		}
	}
	f, err := os.OpenFile(fmt.Sprintf("/dev/i2c-%d", bus), os.O_RDWR, os.ModeDevice)
	if err != nil {
		return &DeviceOpenError{Index: index, Err: err}
	}
	f.Close()
	if d.buses == nil {
		d.buses = make(map[int]int)
	}
	d.buses[index] = bus
	lg.Debugf("opened device %d as /dev/i2c-%d", index, bus)
	return nil
}

func (d *Devfs) ReadI2C(index int, addr, reg byte, b *byte) error {
	buf := []byte{0}
	if err := d.StreamI2C(index, []byte{WriteAddr(addr), reg}, buf); err != nil {
		if !idleBus(err) {
			return err
		}
		buf[0] = NoDevice
	}
	*b = buf[0]
	return nil
}

func (d *Devfs) StreamI2C(index int, w, r []byte) error {
	bus, ok := d.buses[index]
	if !ok {
		return fmt.Errorf("device %d is not open", index)
	}
	if len(w) == 0 {
		return errors.New("stream requires device address")
	}
	dev, err := i2c.NewI2C(w[0]>>1, bus)
	if err != nil {
		return err
	}
	defer dev.Close()

	if len(w) > 1 {
		c, err := dev.WriteBytes(w[1:])
		if err != nil {
			return err
		}
		if exp := len(w) - 1; exp != c {
			return fmt.Errorf("expected to write %d bytes, wrote %d", exp, c)
		}
	}
	if len(r) > 0 {
		c, err := dev.ReadBytes(r)
		if err != nil {
			return err
		}
		if exp := len(r); exp != c {
			return fmt.Errorf("expected to read %d bytes, read %d", exp, c)
		}
	}
	return nil
}

// Reset is a no-op, kernel driver owns the bridge state.
func (d *Devfs) Reset(index int) error {
	if _, ok := d.buses[index]; !ok {
		return fmt.Errorf("device %d is not open", index)
	}
	return nil
}

func (d *Devfs) Close(index int) error {
	delete(d.buses, index)
	return nil
}

func (d *Devfs) sysfsRoot() string {
	if d.SysfsRoot != "" {
		return d.SysfsRoot
	}
	return sysfsAdapters
}

// idleBus tells if error is a missing acknowledge. Vendor DLL reports
// those as successful reads of a pulled up bus.
func idleBus(err error) bool {
	return errors.Is(err, syscall.ENXIO) || errors.Is(err, syscall.EREMOTEIO) || errors.Is(err, syscall.EIO)
}

// findBus returns bus number of index-th CH341 adapter ordered by bus
// number.
func findBus(root string, index int) (int, error) {
	names, err := filepath.Glob(filepath.Join(root, "i2c-*", "name"))
	if err != nil {
		return 0, err
	}
	var buses []int
	for _, n := range names {
		b, err := os.ReadFile(n)
		if err != nil {
			continue
		}
		if !strings.Contains(strings.ToLower(string(b)), "ch341") {
			continue
		}
		num, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(filepath.Dir(n)), "i2c-"))
		if err != nil {
			continue
		}
		buses = append(buses, num)
	}
	sort.Ints(buses)
	if index < 0 || index >= len(buses) {
		return 0, fmt.Errorf("found %d ch341 adapters in %s", len(buses), root)
	}
	return buses[index], nil
}
