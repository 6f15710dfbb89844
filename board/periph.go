package board

import (
	"ecbus/i2c"

	periphi2c "periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
)

// sharedBus is a bus handed out through the periph registry. Each handle
// runs on its own task and takes the board's bus lock per transaction.
type sharedBus struct {
	b    *Board
	conn *i2c.Conn
}

func (s *sharedBus) String() string {
	return s.conn.String()
}

func (s *sharedBus) Tx(addr uint16, w, r []byte) error {
	defer s.b.lock(s.conn.Port())()
	return s.conn.Tx(addr, w, r)
}

func (s *sharedBus) SetSpeed(f physic.Frequency) error {
	return s.conn.SetSpeed(f)
}

func (s *sharedBus) Close() error {
	return nil
}

// OpenBus returns a periph bus for the named board bus
func (b *Board) OpenBus(name string) (periphi2c.BusCloser, error) {
	port, ok := b.ports[name]
	if !ok {
		return nil, i2c.ErrInvalidPort
	}
	t := b.Sched.NewTask("periph-" + name)
	return &sharedBus{b: b, conn: b.Driver.Conn(t, port)}, nil
}

// RegisterBuses makes every board bus available to periph-based code
// through i2creg under its name, with the port number as its number.
func (b *Board) RegisterBuses() error {
	for _, name := range BusNames {
		port := b.ports[name]
		opener := func() (periphi2c.BusCloser, error) {
			return b.OpenBus(name)
		}
		if err := i2creg.Register(name, nil, int(port), opener); err != nil {
			return err
		}
	}
	return nil
}
