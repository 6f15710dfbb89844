package i2c

import (
	"io"
	"iter"

	"ecbus/core"
)

// probe attempts a single-byte read from addr: address phase, receive, STOP
func (d *Driver) probe(t *core.Task, port Port, addr Addr) Status {
	d.regs.SetSlaveAddress(port, addr.read())
	return d.step(t, port, StartAndStop)
}

// Scan sweeps every even bus address in [0x00, 0xff] with a one-byte read
// and yields the addresses that acknowledge. Probing is lazy: stopping the
// iteration stops the sweep. Each range over the result starts a new sweep.
// Failures of any kind mean "no device" and are not reported.
func (d *Driver) Scan(t *core.Task, port Port) iter.Seq[Addr] {
	return func(yield func(Addr) bool) {
		if d.check(t, port) != nil {
			return
		}
		for a := 0; a < 0x100; a += 2 {
			if d.probe(t, port, Addr(a)) != Success {
				continue
			}
			if !yield(Addr(a)) {
				return
			}
		}
	}
}

// ScanReport runs a sweep of port and prints progress to out: one dot per
// probe and a line for every responding address. It returns the hits.
func (d *Driver) ScanReport(t *core.Task, port Port, out io.Writer) []Addr {
	name := "unknown"
	if b := d.BusConfig(port); b != nil && b.Name != "" {
		name = b.Name
	}
	io.WriteString(out, "Scanning "+name+" I2C bus...\n")

	var found []Addr
	if d.check(t, port) != nil {
		io.WriteString(out, "\n")
		return found
	}
	for a := 0; a < 0x100; a += 2 {
		io.WriteString(out, ".")
		if d.probe(t, port, Addr(a)) == Success {
			io.WriteString(out, "\nFound device at "+Addr(a).String()+"\n")
			found = append(found, Addr(a))
		}
	}
	io.WriteString(out, "\n")
	return found
}
