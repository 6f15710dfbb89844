//go:build !tinygo

package core

// State stands in for the saved interrupt state on the host, where the
// scheduler mutex alone guards the timer list
type State uintptr

func disableInterrupts() State {
	return 0
}

func restoreInterrupts(state State) {}
