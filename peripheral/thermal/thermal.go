// Package thermal reads the board temperature sensors on the thermal bus.
package thermal

import (
	"errors"

	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/tmp102"
)

// ErrNotConnected is returned when the sensor does not identify itself
var ErrNotConnected = errors.New("thermal: sensor not connected")

// Sensor is a TMP102-compatible sensor
type Sensor struct {
	Name string
	addr uint8
	dev  tmp102.Device
}

// New creates a sensor at the 7-bit address addr; zero selects the
// default TMP102 address.
func New(bus drivers.I2C, name string, addr uint8) *Sensor {
	if addr == 0 {
		addr = tmp102.Address
	}
	s := &Sensor{Name: name, addr: addr, dev: tmp102.New(bus)}
	s.dev.Configure(tmp102.Config{Address: addr})
	return s
}

// Address returns the 7-bit address of the sensor
func (s *Sensor) Address() uint8 {
	return s.addr
}

// Connected checks the configuration register for its power-on value
func (s *Sensor) Connected() bool {
	return s.dev.Connected()
}

// Check returns ErrNotConnected unless the sensor responds as expected
func (s *Sensor) Check() error {
	if !s.dev.Connected() {
		return ErrNotConnected
	}
	return nil
}

// ReadMilliCelsius returns the temperature in thousandths of a degree Celsius
func (s *Sensor) ReadMilliCelsius() (int32, error) {
	return s.dev.ReadTemperature()
}

// Read returns the temperature as a physic.Temperature
func (s *Sensor) Read() (physic.Temperature, error) {
	mc, err := s.dev.ReadTemperature()
	if err != nil {
		return 0, err
	}
	return FromMilliCelsius(mc), nil
}

// FromMilliCelsius converts thousandths of a degree Celsius
func FromMilliCelsius(mc int32) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(mc)*physic.MilliKelvin
}

// Kelvin returns t in whole kelvin, rounded to nearest
func Kelvin(t physic.Temperature) int32 {
	return int32((t + physic.Kelvin/2) / physic.Kelvin)
}
