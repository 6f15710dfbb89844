// Package i2c is an interrupt-driven master driver for LM4-style I2C
// controllers. A transfer is a sequence of phases; after each phase the
// calling task blocks until the port's interrupt reports completion or the
// wait budget runs out.
//
// The driver does not serialise callers: at most one transfer may be in
// flight per port, and callers sharing a port must hold their own lock.
package i2c

import (
	"sync/atomic"

	"ecbus/core"
)

// Scheduler is the task block/wake primitive the driver consumes
type Scheduler interface {
	Now() uint32
	Suspend(t *core.Task, ticks uint32) core.WakeReason
	SendWake(id core.TaskID)
}

// Driver owns the register block, the waiter table and the per-port
// configuration for every controller instance
type Driver struct {
	regs    Registers
	sched   Scheduler
	irq     IRQ
	timeout uint32
	cfg     Config
	buses   [NumPorts]*BusConfig

	// waiters[p] is the task blocked on port p, nil when none
	waiters [NumPorts]atomic.Pointer[core.Task]
}

// New creates a driver. irq may be nil when the register implementation
// delivers interrupts itself.
func New(regs Registers, sched Scheduler, irq IRQ, cfg Config) (*Driver, error) {
	buses, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	d := &Driver{
		regs:    regs,
		sched:   sched,
		irq:     irq,
		timeout: cfg.Timeout,
		cfg:     cfg,
		buses:   buses,
	}
	if d.timeout == 0 {
		d.timeout = DefaultTimeout
	}
	return d, nil
}

// Init programs every configured port as an interrupt-capable master at its
// bit rate and clears the waiter table. Registers are rewritten on every call.
func (d *Driver) Init() error {
	for i := range d.waiters {
		d.waiters[i].Store(nil)
	}

	for _, b := range d.buses {
		if b == nil {
			continue
		}
		tpr, err := Divisor(d.cfg.CoreClock, b.Rate)
		if err != nil {
			return err
		}

		port := b.Port
		d.regs.SetInterruptMask(port, 0)
		d.regs.SetMasterConfig(port, MasterFunctionEnable)
		d.regs.SetTimerPeriod(port, tpr)
		if d.irq != nil {
			d.irq.Register(port, IRQPriority, func() { d.HandleInterrupt(port) })
		}

		core.LogInfo(core.ComponentI2C, "port configured",
			"port", int(port), "bus", b.Name, "rate", b.Rate.String(), "tpr", tpr)
	}
	return nil
}

// Timeout returns the per-phase wait budget in ticks
func (d *Driver) Timeout() uint32 {
	return d.timeout
}

// BusConfig returns the configuration of port, or nil if it is not configured
func (d *Driver) BusConfig(port Port) *BusConfig {
	if port >= NumPorts {
		return nil
	}
	return d.buses[port]
}

// Ports returns the configured ports in ascending order
func (d *Driver) Ports() []Port {
	var ports []Port
	for _, b := range d.buses {
		if b != nil {
			ports = append(ports, b.Port)
		}
	}
	return ports
}

// Waiter returns the id of the task blocked on port, if any
func (d *Driver) Waiter(port Port) (core.TaskID, bool) {
	if port >= NumPorts {
		return core.TaskIDInvalid, false
	}
	if t := d.waiters[port].Load(); t != nil {
		return t.ID, true
	}
	return core.TaskIDInvalid, false
}

// check validates the arguments common to every operation
func (d *Driver) check(t *core.Task, port Port) error {
	if port >= NumPorts || d.buses[port] == nil {
		return ErrInvalidPort
	}
	if t == nil {
		panic("i2c: nil task")
	}
	return nil
}
