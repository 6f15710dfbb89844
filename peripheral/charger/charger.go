// Package charger drives a Smart Battery charger.
package charger

import (
	"encoding/binary"
	"errors"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Address is the 7-bit address of a Smart Battery charger
const Address = 0x09

// Smart charger registers
const (
	RegChargerMode     = 0x12
	RegChargerStatus   = 0x13
	RegChargingCurrent = 0x14
	RegChargingVoltage = 0x15
)

// ChargerStatus bits
const (
	StatusChargeInhibited = 0x0001
	StatusLevel2          = 0x0004
	StatusCurrentOR       = 0x0400
	StatusVoltageOR       = 0x0800
	StatusResOR           = 0x1000
	StatusACPresent       = 0x8000
)

// ChargerMode bits
const ModeInhibitCharge = 0x0001

// ErrOutOfRange is returned for settings that do not fit a register
var ErrOutOfRange = errors.New("charger: setting out of range")

// Charger is a Smart Battery charger. Its words are little-endian.
type Charger struct {
	dev i2c.Dev
}

// New creates a charger on bus at addr; zero selects the standard address
func New(bus i2c.Bus, addr uint16) *Charger {
	if addr == 0 {
		addr = Address
	}
	return &Charger{dev: i2c.Dev{Bus: bus, Addr: addr}}
}

func (c *Charger) String() string {
	return c.dev.String()
}

func (c *Charger) read(reg uint8) (uint16, error) {
	var b [2]byte
	if err := c.dev.Tx([]byte{reg}, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func (c *Charger) write(reg uint8, v uint16) error {
	w := []byte{reg, 0, 0}
	binary.LittleEndian.PutUint16(w[1:], v)
	_, err := c.dev.Write(w)
	return err
}

// Status returns the ChargerStatus register
func (c *Charger) Status() (uint16, error) {
	return c.read(RegChargerStatus)
}

// ACPresent reports whether external power is connected
func (c *Charger) ACPresent() (bool, error) {
	st, err := c.Status()
	return st&StatusACPresent != 0, err
}

// Inhibit stops or resumes charging
func (c *Charger) Inhibit(on bool) error {
	var mode uint16
	if on {
		mode = ModeInhibitCharge
	}
	return c.write(RegChargerMode, mode)
}

// ChargingCurrent returns the requested charge current
func (c *Charger) ChargingCurrent() (physic.ElectricCurrent, error) {
	v, err := c.read(RegChargingCurrent)
	return physic.ElectricCurrent(v) * physic.MilliAmpere, err
}

// SetChargingCurrent requests a charge current, in whole milliamperes
func (c *Charger) SetChargingCurrent(i physic.ElectricCurrent) error {
	ma := i / physic.MilliAmpere
	if ma < 0 || ma > 0xffff {
		return ErrOutOfRange
	}
	return c.write(RegChargingCurrent, uint16(ma))
}

// ChargingVoltage returns the requested charge voltage
func (c *Charger) ChargingVoltage() (physic.ElectricPotential, error) {
	v, err := c.read(RegChargingVoltage)
	return physic.ElectricPotential(v) * physic.MilliVolt, err
}

// SetChargingVoltage requests a charge voltage, in whole millivolts
func (c *Charger) SetChargingVoltage(v physic.ElectricPotential) error {
	mv := v / physic.MilliVolt
	if mv < 0 || mv > 0xffff {
		return ErrOutOfRange
	}
	return c.write(RegChargingVoltage, uint16(mv))
}
