// Package board wires the I2C driver, the peripherals on the thermal,
// battery and charger buses, and the console commands of the embedded
// controller together.
package board

import (
	"fmt"
	"sync"

	"ecbus/core"
	"ecbus/i2c"
	"ecbus/peripheral/battery"
	"ecbus/peripheral/charger"
	"ecbus/peripheral/thermal"
)

// Board is a configured embedded controller
type Board struct {
	Config   *Config
	Sched    *core.Scheduler
	Driver   *i2c.Driver
	Registry *core.CommandRegistry
	Console  *core.Console

	// task runs console commands
	task  *core.Task
	ports map[string]i2c.Port

	// One transfer per port at a time
	locks [i2c.NumPorts]sync.Mutex

	sensors []*thermal.Sensor
	gauge   *battery.Gauge
	rail    *battery.RailMonitor
	charger *charger.Charger

	mu    sync.Mutex
	temps map[string]int32 // last monitor readings, milli-Celsius
}

// New creates a board on the given register block. irq may be nil when the
// register implementation delivers interrupts itself.
func New(cfg *Config, regs i2c.Registers, irq i2c.IRQ, sched *core.Scheduler) (*Board, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	core.SetLogLevel(level)

	dcfg, err := cfg.DriverConfig()
	if err != nil {
		return nil, err
	}
	drv, err := i2c.New(regs, sched, irq, dcfg)
	if err != nil {
		return nil, err
	}

	b := &Board{
		Config:   cfg,
		Sched:    sched,
		Driver:   drv,
		Registry: core.NewCommandRegistry(),
		task:     sched.NewTask("console"),
		ports:    make(map[string]i2c.Port),
		temps:    make(map[string]int32),
	}
	for _, bc := range dcfg.Buses {
		b.ports[bc.Name] = bc.Port
	}
	b.Console = core.NewConsole(b.Registry)

	thermalBus := drv.Conn(b.task, b.ports[BusThermal])
	for _, s := range cfg.Sensors {
		b.sensors = append(b.sensors, thermal.New(thermalBus, s.Name, s.Addr))
	}
	b.gauge = battery.NewGauge(drv, b.task, b.ports[BusBattery])
	if cfg.RailMonitor != 0 {
		b.rail = battery.NewRailMonitor(drv.Conn(b.task, b.ports[BusBattery]), uint16(cfg.RailMonitor))
	}
	b.charger = charger.New(drv.Conn(b.task, b.ports[BusCharger]), 0)

	b.registerCommands()
	return b, nil
}

// Init programs the controllers and configures the peripherals that need it
func (b *Board) Init() error {
	if err := b.Driver.Init(); err != nil {
		return err
	}
	if b.rail != nil {
		b.withBus(BusBattery, func() error {
			b.rail.Configure()
			return nil
		})
	}
	core.LogInfo(core.ComponentBoard, "board initialized",
		"thermal", int(b.ports[BusThermal]),
		"battery", int(b.ports[BusBattery]),
		"charger", int(b.ports[BusCharger]))
	return nil
}

// Port returns the controller port carrying the named bus
func (b *Board) Port(name string) (i2c.Port, bool) {
	p, ok := b.ports[name]
	return p, ok
}

// lock serialises transfers on port
func (b *Board) lock(port i2c.Port) func() {
	b.locks[port].Lock()
	return b.locks[port].Unlock
}

// withBus runs fn holding the named bus
func (b *Board) withBus(name string, fn func() error) error {
	port, ok := b.ports[name]
	if !ok {
		return fmt.Errorf("bus %s: %w", name, i2c.ErrInvalidPort)
	}
	defer b.lock(port)()
	return fn()
}

// Temperatures returns the latest readings taken by Monitor
func (b *Board) Temperatures() map[string]int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]int32, len(b.temps))
	for k, v := range b.temps {
		out[k] = v
	}
	return out
}

// Monitor samples every temperature sensor each period ticks until stop is
// closed. It runs on its own task and shares the thermal bus through the
// bus lock.
func (b *Board) Monitor(stop <-chan struct{}, period uint32) {
	t := b.Sched.NewTask("thermal-monitor")
	bus := b.Driver.Conn(t, b.ports[BusThermal])

	sensors := make([]*thermal.Sensor, len(b.Config.Sensors))
	for i, s := range b.Config.Sensors {
		sensors[i] = thermal.New(bus, s.Name, s.Addr)
	}

	for {
		for _, s := range sensors {
			var mc int32
			err := b.withBus(BusThermal, func() error {
				var err error
				mc, err = s.ReadMilliCelsius()
				return err
			})
			if err != nil {
				core.LogDebug(core.ComponentBoard, "sensor read failed", "sensor", s.Name, "err", err)
				continue
			}
			b.mu.Lock()
			b.temps[s.Name] = mc
			b.mu.Unlock()
		}

		select {
		case <-stop:
			return
		default:
		}
		b.Sched.Suspend(t, period)
	}
}
