package core

import (
	"testing"
	"time"
)

// waitSuspended spins until the task is blocked with its timeout armed
func waitSuspended(t *testing.T, task *Task) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !task.Suspended() {
		if time.Now().After(deadline) {
			t.Fatal("task never suspended")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSuspendWake(t *testing.T) {
	s := NewScheduler()
	task := s.NewTask("worker")

	done := make(chan WakeReason, 1)
	go func() { done <- s.Suspend(task, 1000) }()

	waitSuspended(t, task)
	s.SendWake(task.ID)

	reason := <-done
	if reason != EventWake {
		t.Errorf("Expected EventWake, got %#x", reason)
	}
	if reason.TimedOut() {
		t.Error("Wake reported as timeout")
	}
	if s.PendingTimers() != 0 {
		t.Error("Timeout timer left armed after wake")
	}
}

func TestSuspendTimeoutExact(t *testing.T) {
	s := NewScheduler()
	task := s.NewTask("worker")

	done := make(chan WakeReason, 1)
	go func() { done <- s.Suspend(task, 500) }()

	waitSuspended(t, task)
	s.Advance(499)

	select {
	case r := <-done:
		t.Fatalf("Suspend returned %#x before the budget elapsed", r)
	case <-time.After(20 * time.Millisecond):
	}

	s.Advance(1)
	reason := <-done
	if !reason.TimedOut() {
		t.Errorf("Expected timeout, got %#x", reason)
	}
}

func TestSuspendPendingEvent(t *testing.T) {
	s := NewScheduler()
	task := s.NewTask("worker")

	// A wake sent before suspending is not lost
	s.SendWake(task.ID)
	if reason := s.Suspend(task, 10); reason != EventWake {
		t.Errorf("Expected pending EventWake, got %#x", reason)
	}

	s.SendWake(task.ID)
	task.ClearEvents()
	done := make(chan WakeReason, 1)
	go func() { done <- s.Suspend(task, 10) }()
	waitSuspended(t, task)
	s.Advance(10)
	if reason := <-done; !reason.TimedOut() {
		t.Errorf("Cleared event still woke the task: %#x", reason)
	}
}

func TestWakeAndTimerTogether(t *testing.T) {
	if (EventWake | EventTimer).TimedOut() {
		t.Error("A wake racing the timer must not count as a timeout")
	}
}

func TestSendWakeUnknownTask(t *testing.T) {
	s := NewScheduler()
	s.SendWake(42) // must not panic
	if s.Task(42) != nil {
		t.Error("Expected nil for unknown task")
	}
}

func TestInterruptPathTakesNoSchedulerLock(t *testing.T) {
	s := NewScheduler()
	task := s.NewTask("worker")
	s.Advance(42)

	// Hold the lock the way task code does around the timer list
	s.mu.Lock()
	done := make(chan uint32, 1)
	go func() {
		now := s.Now()
		s.SendWake(task.ID)
		done <- now
	}()

	select {
	case now := <-done:
		if now != 42 {
			t.Errorf("Now() = %d, want 42", now)
		}
	case <-time.After(time.Second):
		s.mu.Unlock()
		t.Fatal("Now/SendWake blocked on the scheduler lock")
	}
	s.mu.Unlock()

	if reason := s.Suspend(task, 10); reason != EventWake {
		t.Errorf("Expected EventWake, got %#x", reason)
	}
}

func TestTaskTableLookup(t *testing.T) {
	s := NewScheduler()
	a := s.NewTask("a")
	b := s.NewTask("b")
	if a.ID != 0 || b.ID != 1 {
		t.Fatalf("Expected ids 0 and 1, got %d and %d", a.ID, b.ID)
	}
	if s.Task(b.ID) != b || s.Task(2) != nil || s.Task(TaskIDInvalid) != nil {
		t.Error("Task lookup returned the wrong entry")
	}
}
