// Package ina219 reads bus voltage, current and power from an INA219
// current sensor connected to a CH341 bridge.
package ina219

import (
	"fmt"
	"time"

	"github.com/aliher1911/ch341scan/ch341"
	i2cdev "github.com/aliher1911/ch341scan/i2c"
	"github.com/aliher1911/ch341scan/logging"

	"golang.org/x/exp/constraints"
)

var lg = logging.New("ina219")

const (
	REG_CONFIG      = 0x00
	REG_SHUNT       = 0x01
	REG_BUS_VOLTAGE = 0x02
	REG_POWER       = 0x03
	REG_CURRENT     = 0x04
	REG_CALIBRATION = 0x05
)

const (
	RST int = iota
	BRNG
	PG
	BADC_H
	BADC_L
	SADC
	MODE
)

var configRegs = i2cdev.Registers{
	// RST
	i2cdev.Field{Addr: 0, Shift: 7, Mask: 0b10000000},
	// BRNG
	i2cdev.Field{Addr: 0, Shift: 5, Mask: 0b00100000},
	// PG
	i2cdev.Field{Addr: 0, Shift: 3, Mask: 0b00011000},
	// BADC
	i2cdev.Field{Addr: 0, Shift: 0, Mask: 0b00000111},
	i2cdev.Field{Addr: 1, Shift: 7, Mask: 0b10000000},
	// SADC
	i2cdev.Field{Addr: 1, Shift: 3, Mask: 0b01111000},
	// MODE
	i2cdev.Field{Addr: 1, Shift: 0, Mask: 0b00000111},
}

const (
	WORD_H int = iota
	WORD_L
)

var wordRegs = i2cdev.Registers{
	i2cdev.Field{Addr: 0, Shift: 0, Mask: 0b11111111},
	i2cdev.Field{Addr: 1, Shift: 0, Mask: 0b11111111},
}

// Delay after calibration and configuration writes.
const settle = 10 * time.Millisecond

type Reading struct {
	BusVoltage float64
	Current    float64
	Power      float64
}

type INA219 struct {
	d   ch341.Driver
	c   i2cdev.Conf
	cal Calibration

	config *i2cdev.BulkDevice
	word   *i2cdev.BulkDevice

	// Last values within range. Returned when reading is out of range.
	lastVolts float64
	lastAmps  float64
}

// New creates sensor on an already opened bridge. Conf address defaults
// to one from settings.
func New(d ch341.Driver, c i2cdev.Conf, s Settings) (*INA219, error) {
	c.Default(s.Addr)
	cal, err := s.Calibrate()
	if err != nil {
		return nil, err
	}
	f, _ := s.fields()

	config := i2cdev.NewBulkDevice(d, c, nil, configRegs)
	config.WriteReg(BRNG, f.brng)
	config.WriteReg(PG, f.pg)
	config.WriteReg(BADC_H, f.badc>>1)
	config.WriteReg(BADC_L, f.badc&1)
	config.WriteReg(SADC, f.sadc)
	config.WriteReg(MODE, f.mode)

	return &INA219{
		d:      d,
		c:      c,
		cal:    cal,
		config: config,
		word:   i2cdev.NewBulkDevice(d, c, wordRegs, wordRegs),
	}, nil
}

func (s *INA219) Calibration() Calibration {
	return s.cal
}

// ConfigValue is the configuration register value written by Start.
func (s *INA219) ConfigValue() uint16 {
	b := s.config.WriteBuf()
	return uint16(b[0])<<8 | uint16(b[1])
}

// Start resets the bridge and programs calibration and configuration
// registers.
func (s *INA219) Start() error {
	if err := s.d.Reset(s.c.Index); err != nil {
		return fmt.Errorf("failed to reset bridge: %w", err)
	}
	if err := s.writeWord(REG_CALIBRATION, s.cal.Value); err != nil {
		return err
	}
	<-time.After(settle)
	if err := s.config.WriteBus(REG_CONFIG); err != nil {
		return err
	}
	<-time.After(settle)
	lg.Debugf("configured sensor 0x%02X: config=0x%04X calibration=%d", s.c.Addr, s.ConfigValue(), s.cal.Value)
	return nil
}

// BusVoltage returns bus voltage in volts.
func (s *INA219) BusVoltage() (float64, error) {
	raw, err := s.readWord(REG_BUS_VOLTAGE)
	if err != nil {
		return 0, err
	}
	// Value is in bits 15-3 with 4mV LSB.
	v := float64((raw>>3)*4) * 0.001
	if v > s.cal.MaxVolts {
		lg.Debugf("bus voltage %.3fV over range", v)
		return s.lastVolts, nil
	}
	s.lastVolts = v
	return v, nil
}

// Current returns current through shunt in amps.
func (s *INA219) Current() (float64, error) {
	raw, err := s.readWord(REG_CURRENT)
	if err != nil {
		return 0, err
	}
	a := float64(int16(raw)) * s.cal.CurrentLSB
	if abs(a) > s.cal.MaxAmps {
		lg.Debugf("current %.3fA over range", a)
		return s.lastAmps, nil
	}
	s.lastAmps = a
	return a, nil
}

// Power returns power in watts.
func (s *INA219) Power() (float64, error) {
	raw, err := s.readWord(REG_POWER)
	if err != nil {
		return 0, err
	}
	return float64(raw) * s.cal.PowerLSB, nil
}

func (s *INA219) Read() (Reading, error) {
	var r Reading
	var err error
	if r.BusVoltage, err = s.BusVoltage(); err != nil {
		return r, err
	}
	if r.Current, err = s.Current(); err != nil {
		return r, err
	}
	if r.Power, err = s.Power(); err != nil {
		return r, err
	}
	return r, nil
}

func (s *INA219) readWord(reg byte) (uint16, error) {
	if err := s.word.ReadBus(reg); err != nil {
		return 0, err
	}
	return uint16(s.word.ReadReg(WORD_H))<<8 | uint16(s.word.ReadReg(WORD_L)), nil
}

func (s *INA219) writeWord(reg byte, v uint16) error {
	s.word.WriteReg(WORD_H, byte(v>>8))
	s.word.WriteReg(WORD_L, byte(v))
	return s.word.WriteBus(reg)
}

func abs[T constraints.Signed | constraints.Float](val T) T {
	if val < 0 {
		return -val
	}
	return val
}
