package thermal

import (
	"errors"
	"testing"

	"ecbus/core"
	"ecbus/i2c"
	"ecbus/i2c/sim"

	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers/tester"
)

func newBus(t *testing.T) (*i2c.Conn, *sim.Controller) {
	t.Helper()
	sched := core.NewScheduler()
	ctrl := sim.New(sched)
	drv, err := i2c.New(ctrl, sched, ctrl, i2c.Config{
		CoreClock: 66666667 * physic.Hertz,
		Buses:     []i2c.BusConfig{{Port: 5, Name: "thermal", Rate: 100 * physic.KiloHertz}},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := drv.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return drv.Conn(sched.NewTask("thermal"), 5), ctrl
}

func TestSensorRead(t *testing.T) {
	bus, ctrl := newBus(t)
	dev := tester.NewI2CDevice16(t, 0x48)
	dev.Registers[0x00] = 0x1900 // 25.0 C
	dev.Registers[0x01] = 0x60a0 // power-on configuration
	ctrl.Attach(5, 0x48, sim.NewTxTarget(dev, 2))

	s := New(bus, "cpu", 0)
	if s.Address() != 0x48 {
		t.Errorf("Address() = %#x, want 0x48", s.Address())
	}
	if !s.Connected() || s.Check() != nil {
		t.Fatal("sensor not detected")
	}

	mc, err := s.ReadMilliCelsius()
	if err != nil {
		t.Fatalf("ReadMilliCelsius failed: %v", err)
	}
	if mc != 25000 {
		t.Errorf("ReadMilliCelsius() = %d, want 25000", mc)
	}

	temp, err := s.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if k := Kelvin(temp); k != 298 {
		t.Errorf("Kelvin = %d, want 298", k)
	}
}

func TestSensorNegative(t *testing.T) {
	bus, ctrl := newBus(t)
	dev := tester.NewI2CDevice16(t, 0x49)
	dev.Registers[0x00] = 0xe700 // -25.0 C
	ctrl.Attach(5, 0x49, sim.NewTxTarget(dev, 2))

	mc, err := New(bus, "ambient", 0x49).ReadMilliCelsius()
	if err != nil {
		t.Fatalf("ReadMilliCelsius failed: %v", err)
	}
	if mc != -25000 {
		t.Errorf("ReadMilliCelsius() = %d, want -25000", mc)
	}
}

func TestSensorMissing(t *testing.T) {
	bus, _ := newBus(t)
	s := New(bus, "cpu", 0)

	if s.Connected() {
		t.Error("absent sensor reported connected")
	}
	if !errors.Is(s.Check(), ErrNotConnected) {
		t.Errorf("Check() = %v", s.Check())
	}
	if _, err := s.Read(); !errors.Is(err, i2c.ErrBus) {
		t.Errorf("Read() error = %v, want ErrBus", err)
	}
}

func TestKelvin(t *testing.T) {
	tests := []struct {
		mc   int32
		want int32
	}{
		{0, 273},
		{-273150, 0},
		{26850, 300},
		{500, 274},
	}
	for _, tt := range tests {
		if got := Kelvin(FromMilliCelsius(tt.mc)); got != tt.want {
			t.Errorf("Kelvin(%d mC) = %d, want %d", tt.mc, got, tt.want)
		}
	}
}
