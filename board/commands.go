package board

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"ecbus/core"
	"ecbus/i2c"
	"ecbus/peripheral/charger"
	"ecbus/peripheral/thermal"
)

func (b *Board) registerCommands() {
	r := b.Registry

	r.Register(&core.Command{
		Name:    "help",
		Help:    "list commands",
		Handler: b.cmdHelp,
	})
	r.Register(&core.Command{
		Name:    "i2cscan",
		Usage:   "[bus]",
		Help:    "probe every address on one or all buses",
		Handler: b.cmdScan,
	})
	r.Register(&core.Command{
		Name:    "i2cread",
		Usage:   "<bus> <addr> <offset> [be]",
		Help:    "read a 16-bit register; addr is the 8-bit bus address",
		Handler: b.cmdRead,
	})
	r.Register(&core.Command{
		Name:    "i2cwrite",
		Usage:   "<bus> <addr> <offset> <value> [be]",
		Help:    "write a 16-bit register; addr is the 8-bit bus address",
		Handler: b.cmdWrite,
	})
	r.Register(&core.Command{
		Name:    "i2ctrace",
		Usage:   "[clear]",
		Help:    "dump or clear the bus event trace",
		Handler: b.cmdTrace,
	})
	r.Register(&core.Command{
		Name:    "temps",
		Help:    "read the temperature sensors",
		Handler: b.cmdTemps,
	})
	r.Register(&core.Command{
		Name:    "battery",
		Help:    "show the smart battery state",
		Handler: b.cmdBattery,
	})
	r.Register(&core.Command{
		Name:    "charger",
		Help:    "show the charger state",
		Handler: b.cmdCharger,
	})
	r.Register(&core.Command{
		Name:    "loglevel",
		Usage:   "<debug|info|warn|error>",
		Help:    "set the log level",
		Handler: b.cmdLogLevel,
	})
}

// parseBus accepts a bus name or a port number
func (b *Board) parseBus(s string) (i2c.Port, error) {
	if p, ok := b.ports[s]; ok {
		return p, nil
	}
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil || b.Driver.BusConfig(i2c.Port(n)) == nil {
		return 0, fmt.Errorf("bus %s: %w", s, i2c.ErrInvalidPort)
	}
	return i2c.Port(n), nil
}

// parseAddr takes an 8-bit bus address and an optional "be" flag
func parseAddr(s string, flags []string) (i2c.Addr, error) {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("addr %s: %w", s, core.ErrUsage)
	}
	a := i2c.Addr(n) &^ 1
	for _, f := range flags {
		if f != "be" {
			return 0, fmt.Errorf("flag %s: %w", f, core.ErrUsage)
		}
		a |= i2c.FlagBigEndian
	}
	return a, nil
}

func (b *Board) cmdHelp(args []string, out io.Writer) error {
	io.WriteString(out, "Commands:\n")
	b.Registry.WriteHelp(out)
	return nil
}

func (b *Board) cmdScan(args []string, out io.Writer) error {
	var ports []i2c.Port
	switch len(args) {
	case 0:
		ports = b.Driver.Ports()
	case 1:
		p, err := b.parseBus(args[0])
		if err != nil {
			return err
		}
		ports = []i2c.Port{p}
	default:
		return core.ErrUsage
	}

	for _, p := range ports {
		unlock := b.lock(p)
		b.Driver.ScanReport(b.task, p, out)
		unlock()
	}
	if len(args) == 0 {
		io.WriteString(out, "done.\n")
	}
	return nil
}

func (b *Board) cmdRead(args []string, out io.Writer) error {
	if len(args) < 3 || len(args) > 4 {
		return core.ErrUsage
	}
	port, err := b.parseBus(args[0])
	if err != nil {
		return err
	}
	addr, err := parseAddr(args[1], args[3:])
	if err != nil {
		return err
	}
	offset, err := strconv.ParseUint(args[2], 0, 8)
	if err != nil {
		return fmt.Errorf("offset %s: %w", args[2], core.ErrUsage)
	}

	unlock := b.lock(port)
	v, err := b.Driver.ReadRegister16(b.task, port, addr, uint8(offset))
	unlock()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "0x%04x [%d]\n", v, v)
	return nil
}

func (b *Board) cmdWrite(args []string, out io.Writer) error {
	if len(args) < 4 || len(args) > 5 {
		return core.ErrUsage
	}
	port, err := b.parseBus(args[0])
	if err != nil {
		return err
	}
	addr, err := parseAddr(args[1], args[4:])
	if err != nil {
		return err
	}
	offset, err := strconv.ParseUint(args[2], 0, 8)
	if err != nil {
		return fmt.Errorf("offset %s: %w", args[2], core.ErrUsage)
	}
	value, err := strconv.ParseUint(args[3], 0, 16)
	if err != nil {
		return fmt.Errorf("value %s: %w", args[3], core.ErrUsage)
	}

	unlock := b.lock(port)
	err = b.Driver.WriteRegister16(b.task, port, addr, uint8(offset), uint16(value))
	unlock()
	if err != nil {
		return err
	}
	io.WriteString(out, "ok\n")
	return nil
}

func (b *Board) cmdTrace(args []string, out io.Writer) error {
	switch {
	case len(args) == 0:
		core.DumpBusEvents(func(s string) { io.WriteString(out, s+"\n") })
	case len(args) == 1 && args[0] == "clear":
		core.ClearBusEvents()
	default:
		return core.ErrUsage
	}
	return nil
}

func (b *Board) cmdTemps(args []string, out io.Writer) error {
	return b.withBus(BusThermal, func() error {
		for _, s := range b.sensors {
			temp, err := s.Read()
			if err != nil {
				fmt.Fprintf(out, "  %-10s error: %v\n", s.Name, err)
				continue
			}
			fmt.Fprintf(out, "  %-10s %d K (%s)\n", s.Name, thermal.Kelvin(temp), temp)
		}
		return nil
	})
}

func (b *Board) cmdBattery(args []string, out io.Writer) error {
	return b.withBus(BusBattery, func() error {
		info, err := b.gauge.Snapshot()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  Temp:      0x%04x = %d.%d K\n", info.Temperature, info.Temperature/10, info.Temperature%10)
		fmt.Fprintf(out, "  V:         0x%04x = %d mV\n", info.Voltage, info.Voltage)
		fmt.Fprintf(out, "  I:         0x%04x = %d mA\n", uint16(info.Current), info.Current)
		fmt.Fprintf(out, "  Charge:    %d %%\n", info.StateOfCharge)
		fmt.Fprintf(out, "  Remaining: %d mAh\n", info.RemainingCapacity)
		fmt.Fprintf(out, "  Full:      %d mAh\n", info.FullChargeCapacity)
		fmt.Fprintf(out, "  Design:    %d mAh\n", info.DesignCapacity)
		fmt.Fprintf(out, "  Status:    0x%04x\n", info.Status)

		if b.rail != nil {
			fmt.Fprintf(out, "  Rail:      %s %s %s\n", b.rail.Voltage(), b.rail.Current(), b.rail.Power())
		}
		return nil
	})
}

func (b *Board) cmdCharger(args []string, out io.Writer) error {
	return b.withBus(BusCharger, func() error {
		st, err := b.charger.Status()
		if err != nil {
			return err
		}
		i, err := b.charger.ChargingCurrent()
		if err != nil {
			return err
		}
		v, err := b.charger.ChargingVoltage()
		if err != nil {
			return err
		}
		ac := "no"
		if st&charger.StatusACPresent != 0 {
			ac = "yes"
		}
		fmt.Fprintf(out, "  Status:    0x%04x (AC %s)\n", st, ac)
		fmt.Fprintf(out, "  Current:   %s\n", i)
		fmt.Fprintf(out, "  Voltage:   %s\n", v)
		return nil
	})
}

func (b *Board) cmdLogLevel(args []string, out io.Writer) error {
	if len(args) != 1 {
		return core.ErrUsage
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(args[0]))); err != nil {
		return fmt.Errorf("level %s: %w", args[0], core.ErrUsage)
	}
	core.SetLogLevel(level)
	return nil
}
