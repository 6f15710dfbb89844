package board

import (
	"errors"
	"strings"
	"testing"
	"time"

	"ecbus/core"
	"ecbus/i2c"
	"ecbus/i2c/sim"
	"ecbus/peripheral/battery"
	"ecbus/peripheral/charger"

	"tinygo.org/x/drivers/tester"
)

type testBoard struct {
	*Board
	ctrl    *sim.Controller
	pack    *sim.WordDevice
	charger *sim.WordDevice
}

func newTestBoard(t *testing.T) *testBoard {
	t.Helper()
	sched := core.NewScheduler()
	ctrl := sim.New(sched)

	cfg := DefaultConfig()
	cfg.RailMonitor = 0x40
	b, err := New(cfg, ctrl, ctrl, sched)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	cpu := tester.NewI2CDevice16(t, 0x48)
	cpu.Registers[0x00] = 0x1900
	ctrl.Attach(5, 0x48, sim.NewTxTarget(cpu, 2))

	rail := tester.NewI2CDevice16(t, 0x40)
	rail.Registers[0x00] = 0x6127
	rail.Registers[0x01] = 400
	rail.Registers[0x02] = 9600
	rail.Registers[0x03] = 600
	ctrl.Attach(0, 0x40, sim.NewTxTarget(rail, 2))

	pack := sim.NewWordDevice(false)
	pack.Set(battery.RegVoltage, 12000)
	pack.Set(battery.RegRelativeSOC, 50)
	ctrl.Attach(0, battery.Address, pack)

	chg := sim.NewWordDevice(false)
	chg.Set(charger.RegChargerStatus, charger.StatusACPresent)
	chg.Set(charger.RegChargingCurrent, 1500)
	chg.Set(charger.RegChargingVoltage, 12600)
	ctrl.Attach(1, charger.Address, chg)

	if err := b.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if rail.Registers[0x00] != 0x0527 {
		t.Errorf("rail monitor not configured: %#04x", rail.Registers[0x00])
	}
	core.ClearBusEvents()
	return &testBoard{Board: b, ctrl: ctrl, pack: pack, charger: chg}
}

func (b *testBoard) run(line string) string {
	var out strings.Builder
	b.Console.Line(line, &out)
	return out.String()
}

func TestBoardPorts(t *testing.T) {
	b := newTestBoard(t)
	for name, want := range map[string]i2c.Port{BusThermal: 5, BusBattery: 0, BusCharger: 1} {
		if p, ok := b.Port(name); !ok || p != want {
			t.Errorf("Port(%s) = %d, %v", name, p, ok)
		}
	}
	if b.ctrl.TimerPeriod(5) != 32 {
		t.Errorf("thermal TPR = %d", b.ctrl.TimerPeriod(5))
	}
}

func TestReadWriteCommands(t *testing.T) {
	b := newTestBoard(t)

	if out := b.run("i2cread battery 0x16 0x09"); out != "0x2ee0 [12000]\n" {
		t.Errorf("i2cread = %q", out)
	}
	if out := b.run("i2cread 0 0x16 0x09 be"); out != "0xe02e [57390]\n" {
		t.Errorf("i2cread be = %q", out)
	}

	if out := b.run("i2cwrite charger 0x12 0x14 0x1234"); out != "ok\n" {
		t.Errorf("i2cwrite = %q", out)
	}
	if b.charger.Get(0x14) != 0x1234 {
		t.Errorf("charger register = %#04x", b.charger.Get(0x14))
	}

	out := b.run("i2cread charger 0x20 0x00")
	if !strings.HasPrefix(out, "error: ") || !strings.Contains(out, "bus error") {
		t.Errorf("read from absent device = %q", out)
	}

	for _, line := range []string{"i2cread", "i2cread battery zz 1", "i2cwrite battery 0x16 1", "i2cread battery 0x16 1 le"} {
		if out := b.run(line); !strings.Contains(out, core.ErrUsage.Error()) {
			t.Errorf("%q = %q, want usage error", line, out)
		}
	}
	if out := b.run("i2cread nowhere 0x16 1"); !strings.Contains(out, i2c.ErrInvalidPort.Error()) {
		t.Errorf("unknown bus = %q", out)
	}
}

func TestScanCommand(t *testing.T) {
	b := newTestBoard(t)

	out := b.run("i2cscan battery")
	if !strings.HasPrefix(out, "Scanning battery I2C bus...") {
		t.Errorf("header missing: %q", out)
	}
	if !strings.Contains(out, "Found device at 0x16") || !strings.Contains(out, "Found device at 0x80") {
		t.Errorf("devices missing: %q", out)
	}
	if strings.Contains(out, "Found device at 0x12") {
		t.Error("charger showed up on the battery bus")
	}

	out = b.run("i2cscan")
	if strings.Count(out, "Scanning") != 3 {
		t.Errorf("full scan covered %d buses", strings.Count(out, "Scanning"))
	}
	if !strings.HasSuffix(out, "done.\n") {
		t.Errorf("full scan not terminated with done.: %q", out)
	}
	if out := b.run("i2cscan charger"); strings.Contains(out, "done.") {
		t.Errorf("single bus scan printed done.: %q", out)
	}
}

func TestPeripheralCommands(t *testing.T) {
	b := newTestBoard(t)

	out := b.run("temps")
	if !strings.Contains(out, "cpu") || !strings.Contains(out, "298 K") {
		t.Errorf("temps = %q", out)
	}
	if !strings.Contains(out, "ambient    error:") {
		t.Errorf("missing sensor not reported: %q", out)
	}

	out = b.run("battery")
	if !strings.Contains(out, "12000 mV") || !strings.Contains(out, "50 %") {
		t.Errorf("battery = %q", out)
	}
	if !strings.Contains(out, "Rail:") {
		t.Errorf("rail monitor missing: %q", out)
	}

	out = b.run("charger")
	if !strings.Contains(out, "AC yes") || !strings.Contains(out, "Status:    0x8000") {
		t.Errorf("charger = %q", out)
	}
}

func TestBatteryCommandFailure(t *testing.T) {
	b := newTestBoard(t)
	b.ctrl.Detach(0, battery.Address)

	out := b.run("battery")
	if !strings.HasPrefix(out, "error: ") {
		t.Errorf("battery without a pack = %q", out)
	}
}

func TestTraceAndHelp(t *testing.T) {
	b := newTestBoard(t)

	b.run("i2cread charger 0x20 0x00")
	out := b.run("i2ctrace")
	if !strings.Contains(out, "[I2C] BUS_ERROR! port=1") {
		t.Errorf("trace = %q", out)
	}
	b.run("i2ctrace clear")
	if core.BusEventCount() != 0 {
		t.Error("trace not cleared")
	}

	out = b.run("help")
	for _, name := range []string{"i2cscan", "i2cread", "i2cwrite", "i2ctrace", "temps", "battery", "charger", "loglevel"} {
		if !strings.Contains(out, "  "+name) {
			t.Errorf("help lacks %s", name)
		}
	}

	if out := b.run("bogus"); !strings.Contains(out, core.ErrUnknownCommand.Error()) {
		t.Errorf("bogus = %q", out)
	}
}

func TestLogLevelCommand(t *testing.T) {
	b := newTestBoard(t)
	defer core.SetLogLevel(core.LogLevel())

	if out := b.run("loglevel info"); out != "" {
		t.Errorf("loglevel info = %q", out)
	}
	if core.LogLevel().String() != "INFO" {
		t.Errorf("level = %v", core.LogLevel())
	}
	if out := b.run("loglevel chatty"); !strings.Contains(out, core.ErrUsage.Error()) {
		t.Errorf("loglevel chatty = %q", out)
	}
}

func TestMonitor(t *testing.T) {
	b := newTestBoard(t)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Monitor(stop, 1000)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for b.Temperatures()["cpu"] != 25000 {
		if time.Now().After(deadline) {
			t.Fatal("monitor never sampled the sensor")
		}
		time.Sleep(time.Millisecond)
	}
	if _, ok := b.Temperatures()["ambient"]; ok {
		t.Error("absent sensor has a reading")
	}

	close(stop)
	for {
		select {
		case <-done:
			return
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("monitor did not stop")
		}
		b.Sched.Advance(1000)
		time.Sleep(time.Millisecond)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	sched := core.NewScheduler()
	ctrl := sim.New(sched)

	cfg := DefaultConfig()
	cfg.Buses[BusCharger] = BusSettings{Port: 5, Rate: "100kHz"}
	if _, err := New(cfg, ctrl, ctrl, sched); !errors.Is(err, i2c.ErrInvalidConfig) {
		t.Errorf("shared port accepted: %v", err)
	}
}
