package core

import "sync/atomic"

// TaskID identifies a task within its scheduler
type TaskID uint8

// TaskIDInvalid marks "no task"
const TaskIDInvalid TaskID = 0xff

// WakeReason is the set of events that ended a Suspend
type WakeReason uint32

// Wake event bits
const (
	EventWake  WakeReason = 1 << 0 // explicit wake from SendWake
	EventTimer WakeReason = 1 << 1 // suspend timeout expired
)

// TimedOut reports whether the timeout was the only reason for waking.
// A wake signal that raced the timer counts as a wake.
func (r WakeReason) TimedOut() bool {
	return r == EventTimer
}

// Task is a cooperatively scheduled unit of work. Events posted to a task
// stay pending until it next returns from Suspend or calls ClearEvents.
type Task struct {
	ID   TaskID
	Name string

	events    atomic.Uint32
	notify    chan struct{}
	suspended atomic.Bool
	timeout   Timer
}

// NewTask registers a new task
func (s *Scheduler) NewTask(name string) *Task {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ntasks >= int(TaskIDInvalid) {
		panic("core: task table full")
	}

	t := &Task{
		ID:     TaskID(s.ntasks),
		Name:   name,
		notify: make(chan struct{}, 1),
	}
	t.timeout.Handler = func(*Timer) uint8 {
		t.post(EventTimer)
		return SF_DONE
	}
	s.tasks[s.ntasks].Store(t)
	s.ntasks++
	return t
}

// Task returns the task with the given id, or nil. It takes no lock and
// is safe from interrupt context.
func (s *Scheduler) Task(id TaskID) *Task {
	if id >= TaskIDInvalid {
		return nil
	}
	return s.tasks[id].Load()
}

// post sets event bits and nudges the task. Safe from interrupt context.
func (t *Task) post(ev WakeReason) {
	for {
		old := t.events.Load()
		if t.events.CompareAndSwap(old, old|uint32(ev)) {
			break
		}
	}
	select {
	case t.notify <- struct{}{}:
	default:
	}
}

// ClearEvents drops any pending events
func (t *Task) ClearEvents() {
	t.events.Store(0)
}

// Suspended reports whether the task is blocked in Suspend with its timeout armed
func (t *Task) Suspended() bool {
	return t.suspended.Load()
}

// SendWake posts a zero-payload wake event to task id. It never blocks.
func (s *Scheduler) SendWake(id TaskID) {
	if t := s.Task(id); t != nil {
		t.post(EventWake)
	}
}

// Suspend blocks t until it receives an event or timeout ticks elapse.
// Events already pending return immediately.
func (s *Scheduler) Suspend(t *Task, timeout uint32) WakeReason {
	t.timeout.WakeTime = s.Now() + timeout
	s.ScheduleTimer(&t.timeout)
	t.suspended.Store(true)

	var reason WakeReason
	for {
		if ev := t.events.Swap(0); ev != 0 {
			reason = WakeReason(ev)
			break
		}
		<-t.notify
	}

	t.suspended.Store(false)
	s.CancelTimer(&t.timeout)
	return reason
}
