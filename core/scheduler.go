package core

import (
	"sync"
	"sync/atomic"
)

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler owns the tick time base, the sorted timer list and the task table.
// Tasks block only inside Suspend; everything else is non-blocking.
//
// mu is only taken with interrupts masked. The clock and the task table are
// read without it, so interrupt handlers can call Now and SendWake.
type Scheduler struct {
	mu     sync.Mutex
	now    atomic.Uint32
	timers *Timer
	tasks  [TaskIDInvalid]atomic.Pointer[Task]
	ntasks int
}

// NewScheduler creates a scheduler with its clock at tick zero
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// timerBefore reports whether a is earlier than b on the wrapping tick clock
func timerBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// ScheduleTimer adds a timer to the schedule
func (s *Scheduler) ScheduleTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertTimer(t)
}

// CancelTimer removes t from the schedule. It reports whether t was pending.
func (s *Scheduler) CancelTimer(t *Timer) bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.mu.Lock()
	defer s.mu.Unlock()

	for link := &s.timers; *link != nil; link = &(*link).Next {
		if *link == t {
			*link = t.Next
			t.Next = nil
			return true
		}
	}
	return false
}

// insertTimer inserts a timer in sorted order by WakeTime.
// Must be called with s.mu held.
func (s *Scheduler) insertTimer(t *Timer) {
	if s.timers == nil || timerBefore(t.WakeTime, s.timers.WakeTime) {
		t.Next = s.timers
		s.timers = t
		return
	}

	current := s.timers
	for current.Next != nil && !timerBefore(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// popDue removes and returns the first timer due at or before now, or nil
func (s *Scheduler) popDue() *Timer {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.timers
	if t == nil || timerBefore(s.now.Load(), t.WakeTime) {
		return nil
	}
	s.timers = t.Next
	t.Next = nil
	return t
}

// TimerDispatch processes due timers. Handlers run without the scheduler
// lock held so they may schedule timers or wake tasks themselves.
func (s *Scheduler) TimerDispatch() {
	for {
		timer := s.popDue()
		if timer == nil {
			return
		}
		if timer.Handler(timer) == SF_RESCHEDULE {
			s.ScheduleTimer(timer)
		}
	}
}

// PendingTimers returns the number of timers waiting to fire
func (s *Scheduler) PendingTimers() int {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for t := s.timers; t != nil; t = t.Next {
		n++
	}
	return n
}
