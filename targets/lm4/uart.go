//go:build tinygo && lm4

package main

import (
	"runtime/volatile"
	"time"
	"unsafe"
)

// UART0 registers
const (
	uart0Base = 0x4000C000
	uartDR    = uart0Base + 0x000 // Data
	uartFR    = uart0Base + 0x018 // Flags

	flagRXFE = 1 << 4 // Receive FIFO empty
	flagTXFF = 1 << 5 // Transmit FIFO full
)

var (
	uartData  = (*volatile.Register32)(unsafe.Pointer(uintptr(uartDR)))
	uartFlags = (*volatile.Register32)(unsafe.Pointer(uintptr(uartFR)))
)

// uart is the console UART, polled. The boot ROM leaves it configured
// for 115200 8N1.
type uart struct{}

// Read blocks until at least one byte has arrived, then returns what the
// FIFO holds. Carriage returns become newlines.
func (uart) Read(p []byte) (int, error) {
	n := 0
	for n == 0 {
		for n < len(p) && uartFlags.Get()&flagRXFE == 0 {
			b := byte(uartData.Get())
			if b == '\r' {
				b = '\n'
			}
			p[n] = b
			n++
		}
		if n == 0 {
			// Yield to other goroutines
			time.Sleep(time.Millisecond)
		}
	}
	return n, nil
}

func (uart) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\n' {
			putc('\r')
		}
		putc(b)
	}
	return len(p), nil
}

func putc(b byte) {
	for uartFlags.Get()&flagTXFF != 0 {
	}
	uartData.Set(uint32(b))
}
