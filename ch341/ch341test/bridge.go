// Package ch341test provides an in-memory bridge for tests.
package ch341test

import (
	"errors"
	"fmt"

	"github.com/aliher1911/ch341scan/ch341"
)

// ErrNotOpen is returned by transfers on a bridge that is not open.
var ErrNotOpen = errors.New("bridge is not open")

// Device is a fake I2C device. Registers maps register pointer to its
// content.
type Device struct {
	Registers map[byte][]byte
	// Writes records every payload written after the register pointer.
	Writes [][]byte

	pointer byte
}

// Bridge implements ch341.Driver on top of a set of fake devices.
// Absent devices read as ch341.NoDevice.
type Bridge struct {
	// OpenErr is returned as DeviceOpenError cause when set.
	OpenErr error
	// FailReads lists addresses where ReadI2C fails without touching
	// the result byte.
	FailReads map[byte]bool
	Devices   map[byte]*Device

	Opens  int
	Closes int
	Resets int
	// Probes is the ordered list of addresses passed to ReadI2C.
	Probes []byte

	open map[int]bool
}

// New creates bridge with devices at given 7 bit addresses.
func New(addrs ...byte) *Bridge {
	b := &Bridge{
		FailReads: make(map[byte]bool),
		Devices:   make(map[byte]*Device),
	}
	for _, a := range addrs {
		b.Devices[a] = &Device{Registers: make(map[byte][]byte)}
	}
	return b
}

func (b *Bridge) Open(index int) error {
	b.Opens++
	if b.OpenErr != nil {
		return &ch341.DeviceOpenError{Index: index, Err: b.OpenErr}
	}
	if b.open == nil {
		b.open = make(map[int]bool)
	}
	b.open[index] = true
	return nil
}

func (b *Bridge) ReadI2C(index int, addr, reg byte, v *byte) error {
	b.Probes = append(b.Probes, addr)
	if !b.open[index] {
		return ErrNotOpen
	}
	if b.FailReads[addr] {
		return fmt.Errorf("read from 0x%02X failed", addr)
	}
	d, ok := b.Devices[addr]
	if !ok {
		*v = ch341.NoDevice
		return nil
	}
	*v = 0
	if r := d.Registers[reg]; len(r) > 0 {
		*v = r[0]
	}
	return nil
}

func (b *Bridge) StreamI2C(index int, w, r []byte) error {
	if !b.open[index] {
		return ErrNotOpen
	}
	if len(w) == 0 {
		return errors.New("stream requires device address")
	}
	d, ok := b.Devices[w[0]>>1]
	if !ok {
		for i := range r {
			r[i] = ch341.NoDevice
		}
		return nil
	}
	if len(w) > 1 {
		d.pointer = w[1]
	}
	if len(w) > 2 {
		payload := append([]byte(nil), w[2:]...)
		d.Writes = append(d.Writes, payload)
		d.Registers[d.pointer] = payload
	}
	if len(r) > 0 {
		for i := range r {
			r[i] = 0
		}
		copy(r, d.Registers[d.pointer])
	}
	return nil
}

func (b *Bridge) Reset(index int) error {
	if !b.open[index] {
		return ErrNotOpen
	}
	b.Resets++
	return nil
}

func (b *Bridge) Close(index int) error {
	b.Closes++
	delete(b.open, index)
	return nil
}
