package i2c

import "ecbus/core"

// issue starts phase p. Any completion latched by an earlier phase is
// acknowledged first so it cannot satisfy the wait for this one.
func (d *Driver) issue(port Port, p Phase) {
	d.regs.ClearInterrupt(port, IntMaster|IntClockTimeout)
	d.regs.SetControl(port, p.Command())
	core.RecordBusEvent(core.EvtPhase, uint8(port), d.sched.Now(), uint32(p), p.Command())
}

// step issues p and waits for it
func (d *Driver) step(t *core.Task, port Port, p Phase) Status {
	d.issue(port, p)
	return d.wait(t, port)
}

// fail records a failed phase and builds the error returned to the caller.
// The bus is left as the controller left it; no STOP is forced.
func (d *Driver) fail(port Port, addr Addr, offset uint8, p Phase, st Status) error {
	if st == BusError {
		core.RecordBusEvent(core.EvtBusError, uint8(port), d.sched.Now(), uint32(p), d.regs.Status(port))
	}
	if st == Timeout && core.IsDebugEnabled() {
		core.DumpBusEvents(core.DebugPrintln)
	}
	core.LogWarn(core.ComponentI2C, "transfer failed",
		"port", int(port), "addr", addr.String(), "offset", offset,
		"phase", p.String(), "status", st.String())
	return &Error{Port: port, Addr: addr, Offset: offset, Phase: p, Status: st}
}

// ReadRegister16 reads the 16-bit register at offset from the slave at addr.
// The byte-order flag in addr decides whether the first byte received is
// the high or the low byte. On failure the value is zero and the error
// unwraps to ErrTimeout or ErrBus.
func (d *Driver) ReadRegister16(t *core.Task, port Port, addr Addr, offset uint8) (uint16, error) {
	if err := d.check(t, port); err != nil {
		return 0, err
	}

	// Transmit the offset; leave the master in transmit state
	d.regs.SetSlaveAddress(port, addr.write())
	d.regs.SetData(port, uint32(offset))
	if st := d.step(t, port, StartWrite); st != Success {
		return 0, d.fail(port, addr, offset, StartWrite, st)
	}

	// Repeated start, then receive
	d.regs.SetSlaveAddress(port, addr.read())
	if st := d.step(t, port, StartRead); st != Success {
		return 0, d.fail(port, addr, offset, StartRead, st)
	}
	first := byte(d.regs.Data(port))

	if st := d.step(t, port, ReceiveAndStop); st != Success {
		return 0, d.fail(port, addr, offset, ReceiveAndStop, st)
	}
	second := byte(d.regs.Data(port))

	return addr.combine(first, second), nil
}

// WriteRegister16 writes value to the 16-bit register at offset of the
// slave at addr, in the byte order selected by addr.
func (d *Driver) WriteRegister16(t *core.Task, port Port, addr Addr, offset uint8, value uint16) error {
	if err := d.check(t, port); err != nil {
		return err
	}

	d.regs.SetData(port, uint32(offset))
	d.regs.SetSlaveAddress(port, addr.write())
	if st := d.step(t, port, StartWrite); st != Success {
		return d.fail(port, addr, offset, StartWrite, st)
	}

	first, second := addr.order(value)
	d.regs.SetData(port, uint32(first))
	if st := d.step(t, port, ContinueWrite); st != Success {
		return d.fail(port, addr, offset, ContinueWrite, st)
	}

	d.regs.SetData(port, uint32(second))
	if st := d.step(t, port, WriteAndStop); st != Success {
		return d.fail(port, addr, offset, WriteAndStop, st)
	}
	return nil
}

// Transfer writes w then reads len(r) bytes from the slave at addr, with a
// repeated start between the two halves. Either half may be empty; both
// empty is an address-only probe.
func (d *Driver) Transfer(t *core.Task, port Port, addr Addr, w, r []byte) error {
	if err := d.check(t, port); err != nil {
		return err
	}

	var offset uint8
	if len(w) > 0 {
		offset = w[0]
	}
	if len(w) == 0 && len(r) == 0 {
		if st := d.probe(t, port, addr); st != Success {
			return d.fail(port, addr, offset, StartAndStop, st)
		}
		return nil
	}

	if len(w) > 0 {
		d.regs.SetSlaveAddress(port, addr.write())
		for i, b := range w {
			last := i == len(w)-1
			var p Phase
			switch {
			case i == 0 && last && len(r) == 0:
				p = StartAndStop
			case i == 0:
				p = StartWrite
			case last && len(r) == 0:
				p = WriteAndStop
			default:
				p = ContinueWrite
			}
			d.regs.SetData(port, uint32(b))
			if st := d.step(t, port, p); st != Success {
				return d.fail(port, addr, offset, p, st)
			}
		}
	}

	if len(r) > 0 {
		d.regs.SetSlaveAddress(port, addr.read())
		for i := range r {
			last := i == len(r)-1
			var p Phase
			switch {
			case i == 0 && last:
				p = StartAndStop
			case i == 0:
				p = StartRead
			case last:
				p = ReceiveAndStop
			default:
				p = ContinueRead
			}
			if st := d.step(t, port, p); st != Success {
				return d.fail(port, addr, offset, p, st)
			}
			r[i] = byte(d.regs.Data(port))
		}
	}
	return nil
}
