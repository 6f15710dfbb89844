// ecsim runs the embedded controller firmware against simulated I2C
// controllers, with the console on stdin and stdout.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"ecbus/board"
	"ecbus/core"
	"ecbus/i2c"
	"ecbus/i2c/sim"
	"ecbus/peripheral/battery"
	"ecbus/peripheral/charger"

	"periph.io/x/conn/v3/i2c/i2creg"
)

var (
	configPath = flag.String("config", "", "Board configuration JSON (default: built-in)")
	tick       = flag.Duration("tick", time.Millisecond, "Wall-clock period of the simulated time base")
	latency    = flag.Uint("latency", 100, "Simulated phase latency in ticks (0 = instant)")
	monitor    = flag.Duration("monitor", time.Second, "Temperature sampling period (0 = off)")
	list       = flag.Bool("list", false, "List the registered buses and exit")
)

func main() {
	flag.Parse()

	cfg := board.DefaultConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if cfg, err = board.LoadConfig(data); err != nil {
			fmt.Fprintf(os.Stderr, "Error: bad config: %v\n", err)
			os.Exit(1)
		}
	}
	if cfg.RailMonitor == 0 {
		cfg.RailMonitor = 0x40
	}

	sched := core.NewScheduler()
	ctrl := sim.New(sched)

	b, err := board.New(cfg, ctrl, ctrl, sched)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	populate(ctrl, b, cfg)

	if err := b.RegisterBuses(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *list {
		for _, ref := range i2creg.All() {
			fmt.Printf("%-8s port %d\n", ref.Name, ref.Number)
		}
		return
	}

	stop := make(chan struct{})
	go sched.RunClock(stop, *tick)

	// Init blocks on the bus, so it needs the clock running
	if err := b.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *monitor > 0 {
		go b.Monitor(stop, core.TimerFromUS(uint32(*monitor/time.Microsecond)))
	}

	fmt.Println("EC simulator. Type 'help' for commands.")
	err = b.Console.Run(os.Stdin, os.Stdout)
	close(stop)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

// populate attaches a simulated device for every peripheral the board expects
func populate(ctrl *sim.Controller, b *board.Board, cfg *board.Config) {
	thermalPort, _ := b.Port(board.BusThermal)
	batteryPort, _ := b.Port(board.BusBattery)
	chargerPort, _ := b.Port(board.BusCharger)

	for _, p := range []i2c.Port{thermalPort, batteryPort, chargerPort} {
		ctrl.SetLatency(p, uint32(*latency))
	}

	for i, s := range cfg.Sensors {
		dev := sim.NewWordDevice(true)
		dev.Set(0x00, uint16(0x1900+i*0x80)) // 25 C and up in 0.5 C steps
		dev.Set(0x01, 0x60a0)
		ctrl.Attach(thermalPort, s.Addr, dev)
	}

	pack := sim.NewWordDevice(false)
	pack.Set(battery.RegTemperature, 2982)
	pack.Set(battery.RegVoltage, 12450)
	pack.Set(battery.RegCurrent, 1200)
	pack.Set(battery.RegRelativeSOC, 76)
	pack.Set(battery.RegRemainingCapacity, 3800)
	pack.Set(battery.RegFullChargeCapacity, 5000)
	pack.Set(battery.RegDesignCapacity, 5200)
	pack.Set(battery.RegBatteryStatus, battery.StatusInitialized)
	ctrl.Attach(batteryPort, battery.Address, pack)

	rail := sim.NewWordDevice(true)
	rail.Set(0xfe, 0x5449)
	rail.Set(0xff, 0x2270)
	rail.Set(0x01, 1600)  // 2 A
	rail.Set(0x02, 15600) // 19.5 V
	rail.Set(0x03, 3900)  // 39 W
	ctrl.Attach(batteryPort, cfg.RailMonitor, rail)

	chg := sim.NewWordDevice(false)
	chg.Set(charger.RegChargerStatus, charger.StatusACPresent|charger.StatusLevel2)
	chg.Set(charger.RegChargingCurrent, 1500)
	chg.Set(charger.RegChargingVoltage, 12600)
	ctrl.Attach(chargerPort, charger.Address, chg)
}
