package i2cdev

import (
	"fmt"

	"github.com/aliher1911/ch341scan/ch341"
)

type Field struct {
	Addr  int
	Shift byte
	Mask  byte
}

type Registers []Field

// Stream is the part of the bridge driver devices need.
type Stream interface {
	StreamI2C(index int, w, r []byte) error
}

// BulkDevice allows reading packed registers of arbitrary sizes from
// I2C bus.
// Read ops first read packed byte array from the register, then
// use configured mapping to extract packed values.
// Write ops first need to pack data into buffer then write it as a bus
// op.
type BulkDevice struct {
	bus       Stream
	c         Conf
	readRegs  Registers
	writeRegs Registers

	readBuf  []byte
	writeBuf []byte
}

func NewBulkDevice(bus Stream, c Conf, readRegs Registers, writeRegs Registers) *BulkDevice {
	return &BulkDevice{
		bus:       bus,
		c:         c,
		readRegs:  readRegs,
		writeRegs: writeRegs,
		readBuf:   regSlice(readRegs),
		writeBuf:  regSlice(writeRegs),
	}
}

func regSlice(regs Registers) []byte {
	if len(regs) == 0 {
		return nil
	}
	rs := 0
	for _, f := range regs {
		if f.Addr > rs {
			rs = f.Addr
		}
	}
	return make([]byte, rs+1)
}

func (d *BulkDevice) ReadReg(id int) byte {
	f := d.readRegs[id]
	v := d.readBuf[f.Addr]
	return (v & f.Mask) >> f.Shift
}

func (d *BulkDevice) WriteReg(id int, v byte) {
	f := d.writeRegs[id]
	v = (v << f.Shift) & f.Mask
	d.writeBuf[f.Addr] = (d.writeBuf[f.Addr] & ^f.Mask) | v
}

// WriteBuf exposes packed write buffer.
func (d *BulkDevice) WriteBuf() []byte {
	return d.writeBuf
}

// ReadBus sets register pointer to reg and reads the packed buffer.
func (d *BulkDevice) ReadBus(reg byte) error {
	w := []byte{ch341.WriteAddr(d.c.Addr), reg}
	if err := d.bus.StreamI2C(d.c.Index, w, d.readBuf); err != nil {
		return fmt.Errorf("failed to read register 0x%02X of 0x%02X: %w", reg, d.c.Addr, err)
	}
	return nil
}

// WriteBus writes packed buffer into register reg.
func (d *BulkDevice) WriteBus(reg byte) error {
	w := make([]byte, 2, 2+len(d.writeBuf))
	w[0], w[1] = ch341.WriteAddr(d.c.Addr), reg
	w = append(w, d.writeBuf...)
	if err := d.bus.StreamI2C(d.c.Index, w, nil); err != nil {
		return fmt.Errorf("failed to write register 0x%02X of 0x%02X: %w", reg, d.c.Addr, err)
	}
	return nil
}
