//go:build tinygo && lm4

package main

import (
	"runtime/interrupt"

	"ecbus/i2c"
)

// NVIC interrupt numbers of the I2C controllers
const (
	irqI2C0 = 8
	irqI2C1 = 37
	irqI2C2 = 68
	irqI2C3 = 69
	irqI2C4 = 109
	irqI2C5 = 110
)

// handlers[p] is the driver's handler for port p
var handlers [i2c.NumPorts]func()

func dispatch(p i2c.Port) {
	if h := handlers[p]; h != nil {
		h()
	}
}

// nvic implements i2c.IRQ. TinyGo binds interrupt numbers at compile time,
// so every vector is declared here and dispatches through handlers.
type nvic struct {
	intrs [i2c.NumPorts]interrupt.Interrupt
}

func newNVIC() *nvic {
	n := &nvic{}
	n.intrs[0] = interrupt.New(irqI2C0, func(interrupt.Interrupt) { dispatch(0) })
	n.intrs[1] = interrupt.New(irqI2C1, func(interrupt.Interrupt) { dispatch(1) })
	n.intrs[2] = interrupt.New(irqI2C2, func(interrupt.Interrupt) { dispatch(2) })
	n.intrs[3] = interrupt.New(irqI2C3, func(interrupt.Interrupt) { dispatch(3) })
	n.intrs[4] = interrupt.New(irqI2C4, func(interrupt.Interrupt) { dispatch(4) })
	n.intrs[5] = interrupt.New(irqI2C5, func(interrupt.Interrupt) { dispatch(5) })
	return n
}

// Register installs handler for port and enables its vector. The LM4
// implements three priority bits in the top of the byte.
func (n *nvic) Register(p i2c.Port, priority int, handler func()) {
	state := interrupt.Disable()
	handlers[p] = handler
	interrupt.Restore(state)

	n.intrs[p].SetPriority(uint8(priority << 5))
	n.intrs[p].Enable()
}
