package i2c

import (
	"errors"
	"strconv"
)

// Status is the outcome of waiting for a phase to complete
type Status uint8

// Status values
const (
	Success  Status = iota // phase completed without error
	Timeout                // busy flag never cleared within the budget
	BusError               // controller reported NACK, arbitration loss or similar
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Timeout:
		return "timeout"
	case BusError:
		return "bus error"
	default:
		return "unknown"
	}
}

// Err returns the sentinel error for the status, or nil for Success.
func (s Status) Err() error {
	switch s {
	case Success:
		return nil
	case Timeout:
		return ErrTimeout
	default:
		return ErrBus
	}
}

// Driver errors.
var (
	// ErrTimeout indicates a phase did not complete within the wait budget.
	ErrTimeout = errors.New("i2c: timeout")

	// ErrBus indicates the controller flagged an error after a phase.
	ErrBus = errors.New("i2c: bus error")

	// ErrInvalidPort indicates the port is out of range or not configured.
	ErrInvalidPort = errors.New("i2c: invalid port")

	// ErrInvalidConfig indicates an unusable bus configuration.
	ErrInvalidConfig = errors.New("i2c: invalid configuration")

	// ErrInvalidAddress indicates an address outside the 7-bit range.
	ErrInvalidAddress = errors.New("i2c: invalid address")

	// ErrUnsupported indicates a transaction shape or feature the driver does not provide.
	ErrUnsupported = errors.New("i2c: unsupported")
)

// Error describes a failed transfer. It unwraps to ErrTimeout or ErrBus.
type Error struct {
	Port   Port
	Addr   Addr
	Offset uint8
	Phase  Phase
	Status Status
}

func (e *Error) Error() string {
	return "i2c: port " + strconv.Itoa(int(e.Port)) +
		" addr " + e.Addr.String() +
		" offset " + strconv.Itoa(int(e.Offset)) +
		": " + e.Status.String() + " in " + e.Phase.String() + " phase"
}

func (e *Error) Unwrap() error {
	return e.Status.Err()
}

// StatusOf maps an error returned by the driver back to a Status.
// nil maps to Success; errors other than timeouts map to BusError.
func StatusOf(err error) Status {
	var e *Error
	switch {
	case err == nil:
		return Success
	case errors.As(err, &e):
		return e.Status
	case errors.Is(err, ErrTimeout):
		return Timeout
	default:
		return BusError
	}
}
