package i2c

import "periph.io/x/conn/v3/physic"

// DefaultTimeout is the wait budget for one phase, in scheduler ticks
const DefaultTimeout = 1000000

// IRQPriority is the interrupt priority every port handler is registered at
const IRQPriority = 2

// maxTimerPeriod is the widest value the 7-bit timer period field holds
const maxTimerPeriod = 0x7f

// BusConfig describes one configured port
type BusConfig struct {
	Port Port
	Name string           // peripheral class on the bus, e.g. "thermal"
	Rate physic.Frequency // SCL bit rate
}

// Config is the driver configuration
type Config struct {
	CoreClock physic.Frequency // system clock feeding the controllers
	Timeout   uint32           // per-phase wait budget in ticks; 0 selects DefaultTimeout
	Buses     []BusConfig
}

// Divisor computes the timer period register value for a bit rate.
// The controller divides the core clock by 2*(1+TPR)*10 to produce SCL.
func Divisor(coreClock, rate physic.Frequency) (uint32, error) {
	if rate <= 0 || coreClock <= 0 {
		return 0, ErrInvalidConfig
	}
	tpr := int64(coreClock/(rate*20)) - 1
	if tpr < 1 || tpr > maxTimerPeriod {
		return 0, ErrInvalidConfig
	}
	return uint32(tpr), nil
}

// validate checks every bus and indexes them by port
func (c *Config) validate() ([NumPorts]*BusConfig, error) {
	var buses [NumPorts]*BusConfig
	for i := range c.Buses {
		b := &c.Buses[i]
		if b.Port >= NumPorts || buses[b.Port] != nil {
			return buses, ErrInvalidConfig
		}
		if _, err := Divisor(c.CoreClock, b.Rate); err != nil {
			return buses, err
		}
		buses[b.Port] = b
	}
	return buses, nil
}
