package core

import "testing"

func TestTimerDispatchOrder(t *testing.T) {
	s := NewScheduler()

	var fired []uint32
	handler := func(tm *Timer) uint8 {
		fired = append(fired, tm.WakeTime)
		return SF_DONE
	}

	timers := []*Timer{
		{WakeTime: 30, Handler: handler},
		{WakeTime: 10, Handler: handler},
		{WakeTime: 20, Handler: handler},
	}
	for _, tm := range timers {
		s.ScheduleTimer(tm)
	}

	s.Advance(15)
	if len(fired) != 1 || fired[0] != 10 {
		t.Fatalf("Expected only timer 10 to fire, got %v", fired)
	}

	s.Advance(15)
	if len(fired) != 3 || fired[1] != 20 || fired[2] != 30 {
		t.Errorf("Expected timers in order 10, 20, 30, got %v", fired)
	}
	if s.PendingTimers() != 0 {
		t.Errorf("Expected empty timer list, got %d pending", s.PendingTimers())
	}
}

func TestTimerReschedule(t *testing.T) {
	s := NewScheduler()

	count := 0
	tm := &Timer{WakeTime: 5}
	tm.Handler = func(tm *Timer) uint8 {
		count++
		if count < 3 {
			tm.WakeTime += 5
			return SF_RESCHEDULE
		}
		return SF_DONE
	}
	s.ScheduleTimer(tm)

	s.Advance(100)
	if count != 3 {
		t.Errorf("Expected handler to run 3 times, got %d", count)
	}
}

func TestCancelTimer(t *testing.T) {
	s := NewScheduler()

	fired := false
	a := &Timer{WakeTime: 10, Handler: func(*Timer) uint8 { fired = true; return SF_DONE }}
	b := &Timer{WakeTime: 20, Handler: func(*Timer) uint8 { return SF_DONE }}
	s.ScheduleTimer(a)
	s.ScheduleTimer(b)

	if !s.CancelTimer(a) {
		t.Fatal("CancelTimer should report a pending timer")
	}
	if s.CancelTimer(a) {
		t.Error("CancelTimer should report false for a removed timer")
	}

	s.Advance(50)
	if fired {
		t.Error("Cancelled timer fired")
	}
}

func TestTimerWraparound(t *testing.T) {
	s := NewScheduler()
	s.SetTime(0xfffffff0)

	fired := false
	s.ScheduleTimer(&Timer{WakeTime: 0x10, Handler: func(*Timer) uint8 { fired = true; return SF_DONE }})

	s.Advance(0x10)
	if fired {
		t.Fatal("Timer past the wrap fired early")
	}
	s.Advance(0x10)
	if !fired {
		t.Error("Timer past the wrap did not fire")
	}
}

func TestTimerConversion(t *testing.T) {
	if got := TimerFromUS(1500); got != 1500 {
		t.Errorf("TimerFromUS(1500) = %d, want 1500", got)
	}
	if got := TimerToUS(TimerFromUS(250000)); got != 250000 {
		t.Errorf("round trip = %d, want 250000", got)
	}
}
