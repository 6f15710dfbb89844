package i2c

import "ecbus/core"

// wait blocks t until port's current phase completes or the budget runs
// out. An idle port is checked without suspending. The waiter entry and the
// interrupt mask are cleared on every path out of the blocking branch.
func (d *Driver) wait(t *core.Task, port Port) Status {
	status := d.regs.Status(port)
	if status&StatBusy != 0 {
		t.ClearEvents()
		d.waiters[port].Store(t)
		d.regs.SetInterruptMask(port, IntMaster|IntClockTimeout)
		core.RecordBusEvent(core.EvtSuspend, uint8(port), d.sched.Now(), uint32(t.ID), 0)

		reason := d.sched.Suspend(t, d.timeout)

		d.regs.SetInterruptMask(port, 0)
		d.waiters[port].Store(nil)

		if reason.TimedOut() {
			core.RecordBusEvent(core.EvtTimeout, uint8(port), d.sched.Now(), uint32(t.ID), 0)
			return Timeout
		}
		status = d.regs.Status(port)
	}

	if status&StatError != 0 {
		return BusError
	}
	return Success
}
