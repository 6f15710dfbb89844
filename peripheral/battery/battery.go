// Package battery talks to the Smart Battery gauge on the battery bus and
// to the rail monitor measuring the system input.
package battery

import (
	"ecbus/core"
	"ecbus/i2c"
)

// Address is the 7-bit address of a Smart Battery
const Address = 0x0b

// Smart Battery Data registers
const (
	RegBatteryMode        = 0x03
	RegTemperature        = 0x08
	RegVoltage            = 0x09
	RegCurrent            = 0x0a
	RegRelativeSOC        = 0x0d
	RegRemainingCapacity  = 0x0f
	RegFullChargeCapacity = 0x10
	RegBatteryStatus      = 0x16
	RegDesignCapacity     = 0x18
)

// BatteryStatus bits
const (
	StatusFullyDischarged = 0x0010
	StatusFullyCharged    = 0x0020
	StatusDischarging     = 0x0040
	StatusInitialized     = 0x0080
	StatusOverTemp        = 0x1000
	StatusOverCharged     = 0x8000
)

// Bus is the register access the gauge needs
type Bus interface {
	ReadRegister16(t *core.Task, port i2c.Port, addr i2c.Addr, offset uint8) (uint16, error)
	WriteRegister16(t *core.Task, port i2c.Port, addr i2c.Addr, offset uint8, value uint16) error
}

// Gauge is a Smart Battery gauge. SBS words are little-endian.
type Gauge struct {
	bus  Bus
	t    *core.Task
	port i2c.Port
	addr i2c.Addr
}

// NewGauge creates a gauge on port accessed from task t
func NewGauge(bus Bus, t *core.Task, port i2c.Port) *Gauge {
	return &Gauge{bus: bus, t: t, port: port, addr: i2c.Addr7(Address)}
}

// Read returns the raw value of an SBS register
func (g *Gauge) Read(reg uint8) (uint16, error) {
	return g.bus.ReadRegister16(g.t, g.port, g.addr, reg)
}

// Write stores a raw value in an SBS register
func (g *Gauge) Write(reg uint8, v uint16) error {
	return g.bus.WriteRegister16(g.t, g.port, g.addr, reg, v)
}

// SetMode writes the BatteryMode register
func (g *Gauge) SetMode(mode uint16) error {
	return g.Write(RegBatteryMode, mode)
}

// Info is a snapshot of the gauge
type Info struct {
	Temperature        uint16 // 0.1 K
	Voltage            uint16 // mV
	Current            int16  // mA, negative while discharging
	StateOfCharge      uint16 // percent
	RemainingCapacity  uint16 // mAh
	FullChargeCapacity uint16 // mAh
	DesignCapacity     uint16 // mAh
	Status             uint16
}

// Charging reports whether the pack is taking current
func (i *Info) Charging() bool {
	return i.Status&StatusDischarging == 0 && i.Current > 0
}

// Snapshot reads every field of Info. It stops at the first failed read.
func (g *Gauge) Snapshot() (Info, error) {
	var info Info
	fields := []struct {
		reg uint8
		dst *uint16
	}{
		{RegTemperature, &info.Temperature},
		{RegVoltage, &info.Voltage},
		{RegRelativeSOC, &info.StateOfCharge},
		{RegRemainingCapacity, &info.RemainingCapacity},
		{RegFullChargeCapacity, &info.FullChargeCapacity},
		{RegDesignCapacity, &info.DesignCapacity},
		{RegBatteryStatus, &info.Status},
	}
	for _, f := range fields {
		v, err := g.Read(f.reg)
		if err != nil {
			return Info{}, err
		}
		*f.dst = v
	}

	cur, err := g.Read(RegCurrent)
	if err != nil {
		return Info{}, err
	}
	info.Current = int16(cur)
	return info, nil
}
