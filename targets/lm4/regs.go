//go:build tinygo && lm4

package main

import (
	"runtime/volatile"
	"unsafe"

	"ecbus/i2c"
)

// LM4 I2C master register block memory map
const (
	i2cBase   = 0x40020000
	i2cStride = 0x1000

	offMSA  = 0x000 // Master slave address
	offMCS  = 0x004 // Master control (write) / status (read)
	offMDR  = 0x008 // Master data
	offMTPR = 0x00C // Master timer period
	offMIMR = 0x010 // Master interrupt mask
	offMRIS = 0x014 // Master raw interrupt status
	offMMIS = 0x018 // Master masked interrupt status
	offMICR = 0x01C // Master interrupt clear
	offMCR  = 0x020 // Master configuration
)

// mmio implements i2c.Registers on the memory-mapped controllers
type mmio struct{}

var _ i2c.Registers = mmio{}

func reg(port i2c.Port, off uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(i2cBase) + uintptr(port)*i2cStride + off))
}

func (mmio) SetSlaveAddress(p i2c.Port, v uint32) { reg(p, offMSA).Set(v) }
func (mmio) SetData(p i2c.Port, v uint32) { reg(p, offMDR).Set(v) }
func (mmio) Data(p i2c.Port) uint32 { return reg(p, offMDR).Get() }
func (mmio) SetControl(p i2c.Port, v uint32) { reg(p, offMCS).Set(v) }
func (mmio) Status(p i2c.Port) uint32 { return reg(p, offMCS).Get() }
func (mmio) SetInterruptMask(p i2c.Port, v uint32) { reg(p, offMIMR).Set(v) }
func (mmio) MaskedInterruptStatus(p i2c.Port) uint32 { return reg(p, offMMIS).Get() }
func (mmio) ClearInterrupt(p i2c.Port, v uint32) { reg(p, offMICR).Set(v) }
func (mmio) SetTimerPeriod(p i2c.Port, v uint32) { reg(p, offMTPR).Set(v) }
func (mmio) SetMasterConfig(p i2c.Port, v uint32) { reg(p, offMCR).Set(v) }
