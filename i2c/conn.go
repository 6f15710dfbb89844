package i2c

import (
	"strconv"

	"ecbus/core"

	periphi2c "periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// Conn adapts one port to the Tx-style bus interfaces device drivers
// expect. Every transaction runs on the bound task. Bytes are passed in
// wire order, so 16-bit register accesses map onto ReadRegister16 and
// WriteRegister16 with the big-endian flag set.
type Conn struct {
	d    *Driver
	t    *core.Task
	port Port
}

var (
	_ drivers.I2C   = (*Conn)(nil)
	_ periphi2c.Bus = (*Conn)(nil)
)

// Conn returns an adapter for port whose transactions run on t
func (d *Driver) Conn(t *core.Task, port Port) *Conn {
	return &Conn{d: d, t: t, port: port}
}

// Port returns the port the adapter drives
func (c *Conn) Port() Port {
	return c.port
}

func (c *Conn) String() string {
	s := "I2C" + strconv.Itoa(int(c.port))
	if b := c.d.BusConfig(c.port); b != nil && b.Name != "" {
		s += "(" + b.Name + ")"
	}
	return s
}

// Tx performs a write-then-read transaction with the 7-bit address addr.
func (c *Conn) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7f {
		return ErrInvalidAddress
	}
	a := Addr7(uint8(addr)) | FlagBigEndian

	switch {
	case len(w) == 1 && len(r) == 2:
		v, err := c.d.ReadRegister16(c.t, c.port, a, w[0])
		if err != nil {
			return err
		}
		r[0], r[1] = a.order(v)
		return nil
	case len(w) == 3 && len(r) == 0:
		return c.d.WriteRegister16(c.t, c.port, a, w[0], a.combine(w[1], w[2]))
	default:
		return c.d.Transfer(c.t, c.port, a, w, r)
	}
}

// SetSpeed is not supported: bit rates are fixed at Init.
func (c *Conn) SetSpeed(f physic.Frequency) error {
	return ErrUnsupported
}
