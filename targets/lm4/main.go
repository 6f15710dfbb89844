//go:build tinygo && lm4

package main

import (
	"time"

	"ecbus/board"
	"ecbus/core"
)

func main() {
	console := uart{}

	core.SetLogger(core.NewLogger(console))
	core.SetDebugWriter(func(s string) {
		console.Write([]byte(s + "\n"))
	})
	core.SetDebugEnabled(true) // dump the bus trace on every timeout

	sched := core.NewScheduler()
	b, err := board.New(board.DefaultConfig(), mmio{}, newNVIC(), sched)
	if err != nil {
		halt(console, err)
	}

	// Tick source for the scheduler's timers and wait budgets
	go sched.RunClock(nil, time.Millisecond)

	if err := b.Init(); err != nil {
		halt(console, err)
	}
	go b.Monitor(nil, core.TimerFromUS(1000000))

	console.Write([]byte("\n--- EC ready ---\n"))
	for {
		b.Console.Run(console, console)
	}
}

// halt reports a fatal boot error and parks the CPU
func halt(out uart, err error) {
	out.Write([]byte("boot failed: " + err.Error() + "\n"))
	for {
		time.Sleep(time.Second)
	}
}
