package i2c

import "ecbus/core"

// HandleInterrupt is the interrupt handler for port. It acknowledges the
// pending sources and wakes the waiting task, if there is one. It never
// blocks and leaves status interpretation to the woken task.
func (d *Driver) HandleInterrupt(port Port) {
	if port >= NumPorts {
		return
	}

	pending := d.regs.MaskedInterruptStatus(port)
	d.regs.ClearInterrupt(port, pending)

	t := d.waiters[port].Load()
	if t == nil {
		// Late interrupt after a timeout, or spurious
		core.RecordBusEvent(core.EvtOrphanIRQ, uint8(port), d.sched.Now(), pending, 0)
		return
	}

	core.RecordBusEvent(core.EvtWake, uint8(port), d.sched.Now(), uint32(t.ID), pending)
	d.sched.SendWake(t.ID)
}
