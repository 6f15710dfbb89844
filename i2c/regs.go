package i2c

// Port is the index of one I2C controller instance
type Port uint8

// NumPorts is the number of controller instances on the chip
const NumPorts = 6

// Master control/status (MCS) command bits, written to start a phase
const (
	CmdRun   = 0x01 // transfer one byte
	CmdStart = 0x02 // generate (repeated) START
	CmdStop  = 0x04 // generate STOP after the byte
	CmdAck   = 0x08 // acknowledge the received byte
)

// MCS status bits, read back while polling
const (
	StatBusy    = 0x01 // controller busy with the current phase
	StatError   = 0x02 // last phase failed
	StatAdrAck  = 0x04 // address not acknowledged
	StatDatAck  = 0x08 // data not acknowledged
	StatArbLost = 0x10 // arbitration lost
	StatIdle    = 0x20 // controller idle
	StatBusBusy = 0x40 // bus busy (another master or stuck line)
)

// Interrupt mask / status bits
const (
	IntMaster       = 0x01 // phase complete or error
	IntClockTimeout = 0x02 // SCL held low too long
)

// MasterFunctionEnable is the master-mode enable bit of the configuration register
const MasterFunctionEnable = 0x10

// AddrRead is the direction bit of the slave address register
const AddrRead = 0x01

// Registers is per-port access to the controller's register block.
// Writes have no side effects beyond the register semantics below;
// SetControl starts a phase and is the only call that makes the bus busy.
type Registers interface {
	// SetSlaveAddress writes the slave address register (8-bit form, bit 0 = read).
	SetSlaveAddress(port Port, v uint32)
	// SetData loads the byte to transmit next.
	SetData(port Port, v uint32)
	// Data returns the last received byte.
	Data(port Port) uint32
	// SetControl writes a phase command (Cmd* bits).
	SetControl(port Port, v uint32)
	// Status returns the live status bits (Stat*).
	Status(port Port) uint32
	// SetInterruptMask selects which interrupt sources (Int*) are enabled.
	SetInterruptMask(port Port, v uint32)
	// MaskedInterruptStatus returns the pending, enabled interrupt sources.
	MaskedInterruptStatus(port Port) uint32
	// ClearInterrupt acknowledges the given interrupt sources.
	ClearInterrupt(port Port, v uint32)
	// SetTimerPeriod programs the SCL clock divisor.
	SetTimerPeriod(port Port, v uint32)
	// SetMasterConfig writes the master configuration register.
	SetMasterConfig(port Port, v uint32)
}

// IRQ registers one interrupt handler per port with the interrupt controller
type IRQ interface {
	Register(port Port, priority int, handler func())
}
