package core

import "time"

// TimerFreq is the tick rate of the time base: one tick per microsecond
const TimerFreq = 1000000

// Now returns the current system time in timer ticks
func (s *Scheduler) Now() uint32 {
	return s.now.Load()
}

// SetTime sets the current system time without dispatching timers
func (s *Scheduler) SetTime(ticks uint32) {
	s.now.Store(ticks)
}

// Advance moves the clock forward and runs every timer that became due
func (s *Scheduler) Advance(ticks uint32) {
	s.now.Add(ticks)
	s.TimerDispatch()
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// RunClock drives the time base from the wall clock until stop is closed.
// It is the tick source for targets without a dedicated hardware timer
// interrupt and for the host simulator.
func (s *Scheduler) RunClock(stop <-chan struct{}, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			s.Advance(TimerFromUS(uint32(elapsed / time.Microsecond)))
		}
	}
}
