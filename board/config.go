package board

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"ecbus/i2c"

	"periph.io/x/conn/v3/physic"
)

// Bus names
const (
	BusThermal = "thermal"
	BusBattery = "battery"
	BusCharger = "charger"
)

// BusNames lists the buses every board carries
var BusNames = []string{BusThermal, BusBattery, BusCharger}

// BusSettings places one bus on a controller port
type BusSettings struct {
	Port uint8  `json:"port"`
	Rate string `json:"rate"` // e.g. "100kHz"
}

// SensorSettings describes one temperature sensor on the thermal bus
type SensorSettings struct {
	Name string `json:"name"`
	Addr uint8  `json:"addr"` // 7-bit
}

// Config is the board configuration
type Config struct {
	CPUClock     string                 `json:"cpu_clock"`     // e.g. "66666667Hz"
	TimeoutTicks uint32                 `json:"timeout_ticks"` // per-phase wait budget
	LogLevel     string                 `json:"log_level"`     // debug, info, warn, error
	Buses        map[string]BusSettings `json:"buses"`
	Sensors      []SensorSettings       `json:"sensors"`
	RailMonitor  uint8                  `json:"rail_monitor"` // 7-bit INA260 address on the battery bus, 0 for none
}

// LoadConfig parses a JSON configuration and fills in defaults
func LoadConfig(jsonData []byte) (*Config, error) {
	var config Config

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	applyDefaults(&config)

	return &config, nil
}

// applyDefaults fills in missing configuration values
func applyDefaults(config *Config) {
	def := DefaultConfig()

	if config.CPUClock == "" {
		config.CPUClock = def.CPUClock
	}
	if config.TimeoutTicks == 0 {
		config.TimeoutTicks = def.TimeoutTicks
	}
	if config.LogLevel == "" {
		config.LogLevel = def.LogLevel
	}

	if config.Buses == nil {
		config.Buses = make(map[string]BusSettings)
	}
	for _, name := range BusNames {
		bus, ok := config.Buses[name]
		if !ok {
			bus = def.Buses[name]
		}
		if bus.Rate == "" {
			bus.Rate = "100kHz"
		}
		config.Buses[name] = bus
	}

	if len(config.Sensors) == 0 {
		config.Sensors = def.Sensors
	}
}

// DefaultConfig returns the configuration of the reference board
func DefaultConfig() *Config {
	return &Config{
		CPUClock:     "66666667Hz",
		TimeoutTicks: i2c.DefaultTimeout,
		LogLevel:     "warn",
		Buses: map[string]BusSettings{
			BusThermal: {Port: 5, Rate: "100kHz"},
			BusBattery: {Port: 0, Rate: "100kHz"},
			BusCharger: {Port: 1, Rate: "100kHz"},
		},
		Sensors: []SensorSettings{
			{Name: "cpu", Addr: 0x48},
			{Name: "ambient", Addr: 0x49},
		},
	}
}

// Level parses LogLevel
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// DriverConfig converts the board configuration to the driver's
func (c *Config) DriverConfig() (i2c.Config, error) {
	var cfg i2c.Config

	if err := cfg.CoreClock.Set(c.CPUClock); err != nil {
		return cfg, fmt.Errorf("cpu_clock %q: %w", c.CPUClock, err)
	}
	cfg.Timeout = c.TimeoutTicks

	for _, name := range BusNames {
		bus, ok := c.Buses[name]
		if !ok {
			return cfg, fmt.Errorf("bus %s: %w", name, i2c.ErrInvalidConfig)
		}
		var rate physic.Frequency
		if err := rate.Set(bus.Rate); err != nil {
			return cfg, fmt.Errorf("bus %s rate %q: %w", name, bus.Rate, err)
		}
		cfg.Buses = append(cfg.Buses, i2c.BusConfig{
			Port: i2c.Port(bus.Port),
			Name: name,
			Rate: rate,
		})
	}
	return cfg, nil
}
