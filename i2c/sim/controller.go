// Package sim is a software model of the I2C controller register block.
// It executes phase commands against attached targets, completes them
// either immediately or after a latency measured on the scheduler clock,
// and raises the port interrupt on completion while it is unmasked.
package sim

import (
	"sync"

	"ecbus/core"
	"ecbus/i2c"
)

// Target is a device on a simulated bus. Calls arrive in bus order.
type Target interface {
	// Start is called for an address phase; it returns whether the address is acknowledged.
	Start(read bool) bool
	// WriteByte receives one data byte; it returns whether it is acknowledged.
	WriteByte(b byte) bool
	// ReadByte supplies the next byte for the master.
	ReadByte() byte
	// Stop ends the transaction.
	Stop()
}

type port struct {
	msa, mdr, mcs uint32
	mimr, mris    uint32
	mtpr, mcr     uint32

	targets map[uint8]Target
	cur     Target
	active  bool
	read    bool

	latency  uint32
	stuck    bool
	inject   uint32
	result   uint32
	commands []uint32

	completion core.Timer
	handler    func()
	priority   int
}

// Controller simulates NumPorts controller instances. It implements
// i2c.Registers and i2c.IRQ.
type Controller struct {
	mu    sync.Mutex
	sched *core.Scheduler
	ports [i2c.NumPorts]port
}

var (
	_ i2c.Registers = (*Controller)(nil)
	_ i2c.IRQ       = (*Controller)(nil)
)

// New creates an idle controller whose phase latencies run on sched
func New(sched *core.Scheduler) *Controller {
	c := &Controller{sched: sched}
	for i := range c.ports {
		p := i2c.Port(i)
		c.ports[i].targets = make(map[uint8]Target)
		c.ports[i].mcs = i2c.StatIdle
		c.ports[i].completion.Handler = func(*core.Timer) uint8 {
			c.complete(p)
			return core.SF_DONE
		}
	}
	return c
}

// Attach places a target at a 7-bit address on port
func (c *Controller) Attach(p i2c.Port, addr uint8, t Target) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ports[p].targets[addr&0x7f] = t
}

// Detach removes the target at addr from port
func (c *Controller) Detach(p i2c.Port, addr uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ports[p].targets, addr&0x7f)
}

// SetLatency makes every phase on port take ticks to complete. Zero
// completes phases before SetControl returns.
func (c *Controller) SetLatency(p i2c.Port, ticks uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ports[p].latency = ticks
}

// SetStuck makes port report busy forever after the next command
func (c *Controller) SetStuck(p i2c.Port, stuck bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ports[p].stuck = stuck
}

// InjectError makes the next phase on port fail with the given status bits
// (for example i2c.StatArbLost). The error bit is added automatically.
func (c *Controller) InjectError(p i2c.Port, bits uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ports[p].inject = bits | i2c.StatError
}

// Commands returns every phase command written to port, oldest first
func (c *Controller) Commands(p i2c.Port) []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint32(nil), c.ports[p].commands...)
}

// ResetCommands clears the command history of port
func (c *Controller) ResetCommands(p i2c.Port) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ports[p].commands = nil
}

// TimerPeriod returns the programmed clock divisor of port
func (c *Controller) TimerPeriod(p i2c.Port) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ports[p].mtpr
}

// MasterConfig returns the master configuration register of port
func (c *Controller) MasterConfig(p i2c.Port) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ports[p].mcr
}

// InterruptMask returns the interrupt mask register of port
func (c *Controller) InterruptMask(p i2c.Port) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ports[p].mimr
}

// Priority returns the priority port's handler was registered at
func (c *Controller) Priority(p i2c.Port) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ports[p].priority
}

// Raise fires port's interrupt handler regardless of pending state,
// as a glitch on the interrupt line would
func (c *Controller) Raise(p i2c.Port) {
	c.mu.Lock()
	h := c.ports[p].handler
	c.mu.Unlock()
	if h != nil {
		h()
	}
}

// Register implements i2c.IRQ
func (c *Controller) Register(p i2c.Port, priority int, handler func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ports[p].handler = handler
	c.ports[p].priority = priority
}

func (c *Controller) SetSlaveAddress(p i2c.Port, v uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ports[p].msa = v & 0xff
}

func (c *Controller) SetData(p i2c.Port, v uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ports[p].mdr = v & 0xff
}

func (c *Controller) Data(p i2c.Port) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ports[p].mdr
}

func (c *Controller) Status(p i2c.Port) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ports[p].mcs
}

func (c *Controller) SetTimerPeriod(p i2c.Port, v uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ports[p].mtpr = v & 0x7f
}

func (c *Controller) SetMasterConfig(p i2c.Port, v uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ports[p].mcr = v
}

func (c *Controller) MaskedInterruptStatus(p i2c.Port) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ports[p].mris & c.ports[p].mimr
}

func (c *Controller) ClearInterrupt(p i2c.Port, v uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ports[p].mris &^= v
}

// SetInterruptMask is level triggered: unmasking a source that is already
// pending fires the handler straight away.
func (c *Controller) SetInterruptMask(p i2c.Port, v uint32) {
	c.mu.Lock()
	s := &c.ports[p]
	s.mimr = v
	fire := s.mimr&s.mris != 0
	h := s.handler
	c.mu.Unlock()

	if fire && h != nil {
		h()
	}
}

// SetControl starts a phase. A completion still pending from a phase the
// driver gave up on is dropped.
func (c *Controller) SetControl(p i2c.Port, v uint32) {
	c.sched.CancelTimer(&c.ports[p].completion)

	c.mu.Lock()
	s := &c.ports[p]
	s.commands = append(s.commands, v)

	if s.stuck {
		s.mcs = i2c.StatBusy | i2c.StatBusBusy
		c.mu.Unlock()
		return
	}

	s.result = s.execute(v)
	if s.latency == 0 {
		c.mu.Unlock()
		c.complete(p)
		return
	}

	s.mcs = i2c.StatBusy | i2c.StatBusBusy
	s.completion.WakeTime = c.sched.Now() + s.latency
	c.mu.Unlock()
	c.sched.ScheduleTimer(&s.completion)
}

// complete publishes the result of the running phase and raises the interrupt
func (c *Controller) complete(p i2c.Port) {
	c.mu.Lock()
	s := &c.ports[p]
	if s.stuck {
		c.mu.Unlock()
		return
	}
	s.mcs = s.result
	if !s.active {
		s.mcs |= i2c.StatIdle
	} else {
		s.mcs |= i2c.StatBusBusy
	}
	s.mris |= i2c.IntMaster
	fire := s.mimr&s.mris != 0
	h := s.handler
	c.mu.Unlock()

	if fire && h != nil {
		h()
	}
}

// execute runs one command against the bus and returns the status bits of
// the phase. Must be called with the controller lock held.
func (s *port) execute(cmd uint32) uint32 {
	if s.inject != 0 {
		st := s.inject
		s.inject = 0
		s.release()
		return st
	}

	if cmd&i2c.CmdStart != 0 {
		addr := uint8(s.msa >> 1)
		read := s.msa&i2c.AddrRead != 0
		t := s.targets[addr]
		if s.active && s.cur != nil && s.cur != t {
			s.cur.Stop()
			s.cur, s.active = nil, false
		}
		if t == nil || !t.Start(read) {
			s.release()
			return i2c.StatError | i2c.StatAdrAck
		}
		s.cur, s.active, s.read = t, true, read
	}

	if !s.active {
		return i2c.StatError
	}

	if cmd&i2c.CmdRun != 0 {
		if s.read {
			s.mdr = uint32(s.cur.ReadByte())
		} else if !s.cur.WriteByte(byte(s.mdr)) {
			s.release()
			return i2c.StatError | i2c.StatDatAck
		}
	}

	if cmd&i2c.CmdStop != 0 {
		s.release()
	}
	return 0
}

// release ends the current transaction, if any
func (s *port) release() {
	if s.active && s.cur != nil {
		s.cur.Stop()
	}
	s.cur, s.active, s.read = nil, false, false
}
