package sim

import (
	"testing"

	"ecbus/core"
	"ecbus/i2c"
)

func TestControllerCompletesImmediately(t *testing.T) {
	c := New(core.NewScheduler())
	dev := NewWordDevice(false)
	c.Attach(2, 0x0b, dev)

	c.SetSlaveAddress(2, 0x16)
	c.SetData(2, 0x09)
	c.SetControl(2, i2c.StartWrite.Command())

	st := c.Status(2)
	if st&i2c.StatBusy != 0 || st&i2c.StatError != 0 {
		t.Fatalf("status after start = %#x", st)
	}
	if st&i2c.StatBusBusy == 0 {
		t.Error("bus should be held after a start without stop")
	}

	c.SetData(2, 0x34)
	c.SetControl(2, i2c.ContinueWrite.Command())
	c.SetData(2, 0x12)
	c.SetControl(2, i2c.WriteAndStop.Command())

	if st := c.Status(2); st&i2c.StatIdle == 0 {
		t.Errorf("status after stop = %#x, want idle", st)
	}
	if dev.Get(0x09) != 0x1234 || dev.Writes() != 1 {
		t.Errorf("device register = %#04x after %d writes", dev.Get(0x09), dev.Writes())
	}
	if n := len(c.Commands(2)); n != 3 {
		t.Errorf("commands = %d, want 3", n)
	}
	c.ResetCommands(2)
	if n := len(c.Commands(2)); n != 0 {
		t.Errorf("commands after reset = %d", n)
	}
}

func TestControllerNack(t *testing.T) {
	c := New(core.NewScheduler())

	c.SetSlaveAddress(0, 0x20|i2c.AddrRead)
	c.SetControl(0, i2c.StartAndStop.Command())
	st := c.Status(0)
	if st&i2c.StatError == 0 || st&i2c.StatAdrAck == 0 {
		t.Errorf("status = %#x, want address nack", st)
	}

	// A phase without a transaction in progress fails
	c.SetControl(0, i2c.ContinueWrite.Command())
	if c.Status(0)&i2c.StatError == 0 {
		t.Error("continue without start succeeded")
	}
}

func TestControllerLatencyAndInterrupt(t *testing.T) {
	sched := core.NewScheduler()
	c := New(sched)
	c.Attach(1, 0x48, NewWordDevice(true))
	c.SetLatency(1, 100)

	fired := 0
	c.Register(1, 2, func() {
		fired++
		c.ClearInterrupt(1, c.MaskedInterruptStatus(1))
	})
	c.SetInterruptMask(1, i2c.IntMaster)

	c.SetSlaveAddress(1, 0x91)
	c.SetControl(1, i2c.StartAndStop.Command())
	if c.Status(1)&i2c.StatBusy == 0 {
		t.Fatal("phase should be busy until the latency elapses")
	}

	sched.Advance(99)
	if fired != 0 {
		t.Fatal("interrupt fired early")
	}
	sched.Advance(1)
	if fired != 1 {
		t.Fatalf("interrupt fired %d times, want 1", fired)
	}
	if c.Status(1)&i2c.StatBusy != 0 {
		t.Error("still busy after completion")
	}
}

func TestControllerLevelTriggered(t *testing.T) {
	c := New(core.NewScheduler())
	c.Attach(0, 0x0b, NewWordDevice(false))

	fired := 0
	c.Register(0, 2, func() { fired++ })

	c.SetSlaveAddress(0, 0x17)
	c.SetControl(0, i2c.StartAndStop.Command())
	if fired != 0 {
		t.Fatal("masked interrupt fired")
	}

	// Unmasking a pending source fires at once
	c.SetInterruptMask(0, i2c.IntMaster)
	if fired != 1 {
		t.Fatalf("fired = %d after unmask, want 1", fired)
	}

	c.SetInterruptMask(0, 0)
	c.ClearInterrupt(0, i2c.IntMaster)
	c.SetInterruptMask(0, i2c.IntMaster)
	if fired != 1 {
		t.Error("cleared source fired again")
	}
}

func TestControllerStuckAndInjected(t *testing.T) {
	sched := core.NewScheduler()
	c := New(sched)
	c.Attach(3, 0x0b, NewWordDevice(false))

	c.SetStuck(3, true)
	c.SetSlaveAddress(3, 0x17)
	c.SetControl(3, i2c.StartAndStop.Command())
	sched.Advance(1 << 20)
	if c.Status(3)&i2c.StatBusy == 0 {
		t.Fatal("stuck port went idle")
	}

	c.SetStuck(3, false)
	c.InjectError(3, i2c.StatArbLost)
	c.SetControl(3, i2c.StartAndStop.Command())
	st := c.Status(3)
	if st&i2c.StatError == 0 || st&i2c.StatArbLost == 0 {
		t.Errorf("status = %#x, want injected arbitration loss", st)
	}

	// The injection is one-shot
	c.SetControl(3, i2c.StartAndStop.Command())
	if c.Status(3)&i2c.StatError != 0 {
		t.Error("injected error repeated")
	}
}

func TestControllerConfigRegisters(t *testing.T) {
	c := New(core.NewScheduler())
	c.SetTimerPeriod(4, 0x1ff)
	c.SetMasterConfig(4, i2c.MasterFunctionEnable)

	if c.TimerPeriod(4) != 0x7f {
		t.Errorf("TimerPeriod = %#x, want the 7-bit field", c.TimerPeriod(4))
	}
	if c.MasterConfig(4) != i2c.MasterFunctionEnable {
		t.Errorf("MasterConfig = %#x", c.MasterConfig(4))
	}
}
