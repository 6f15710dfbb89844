package battery

import (
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ina260"
)

// RailMonitor measures the system input rail with an INA260
type RailMonitor struct {
	dev ina260.Device
}

// NewRailMonitor creates a monitor at the 7-bit address addr; zero selects
// the INA260 default.
func NewRailMonitor(bus drivers.I2C, addr uint16) *RailMonitor {
	m := &RailMonitor{dev: ina260.New(bus)}
	if addr != 0 {
		m.dev.Address = addr
	}
	return m
}

// Configure puts the monitor in continuous voltage and current mode
func (m *RailMonitor) Configure() {
	m.dev.Configure(ina260.Config{
		AverageMode:     ina260.AVGMODE_16,
		VoltConvTime:    ina260.CONVTIME_1100USEC,
		CurrentConvTime: ina260.CONVTIME_1100USEC,
		Mode:            ina260.MODE_CONTINUOUS | ina260.MODE_VOLTAGE | ina260.MODE_CURRENT,
	})
}

// Connected checks the manufacturer and die ids
func (m *RailMonitor) Connected() bool {
	return m.dev.Connected()
}

// Voltage returns the bus voltage
func (m *RailMonitor) Voltage() physic.ElectricPotential {
	return physic.ElectricPotential(m.dev.Voltage()) * physic.MicroVolt
}

// Current returns the shunt current
func (m *RailMonitor) Current() physic.ElectricCurrent {
	return physic.ElectricCurrent(m.dev.Current()) * physic.MicroAmpere
}

// Power returns the computed power
func (m *RailMonitor) Power() physic.Power {
	return physic.Power(m.dev.Power()) * physic.MicroWatt
}
