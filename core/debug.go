package core

import "sync"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// BusEvent captures one bus driver event for post-mortem analysis
type BusEvent struct {
	EventType uint8  // Event type code
	Port      uint8  // Bus port
	Clock     uint32 // System clock at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtPhase     = 1 // phase command issued (v1=phase, v2=command bits)
	EvtSuspend   = 2 // task blocked on a busy bus (v1=task id)
	EvtWake      = 3 // interrupt woke a waiter (v1=task id)
	EvtTimeout   = 4 // wait budget expired (v1=task id)
	EvtBusError  = 5 // controller reported an error (v1=phase, v2=status bits)
	EvtOrphanIRQ = 6 // interrupt with no waiter (v1=masked status)
)

const (
	BusEventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether DebugPrintln output is active
	debugEnabled bool = false

	// ringMu is only taken with interrupts masked, so a handler never
	// finds it held by the code it interrupted
	ringMu       sync.Mutex
	busRing      [BusEventRingSize]BusEvent
	busRingHead  uint8
	busRingCount uint32
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordBusEvent captures an event in the ring buffer. It never blocks on
// I/O and is safe to call from interrupt handlers.
func RecordBusEvent(eventType, port uint8, clock, value1, value2 uint32) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	ringMu.Lock()
	idx := busRingHead
	busRing[idx] = BusEvent{
		EventType: eventType,
		Port:      port,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	busRingHead = (idx + 1) % BusEventRingSize
	busRingCount++
	ringMu.Unlock()
}

// BusEvents returns the recorded events, oldest first
func BusEvents() []BusEvent {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	ringMu.Lock()
	defer ringMu.Unlock()

	events := make([]BusEvent, 0, BusEventRingSize)
	start := busRingHead
	for i := uint8(0); i < BusEventRingSize; i++ {
		evt := busRing[(start+i)%BusEventRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// BusEventCount returns the number of events recorded since the last clear,
// including ones that have rotated out of the ring
func BusEventCount() uint32 {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	ringMu.Lock()
	defer ringMu.Unlock()
	return busRingCount
}

// DumpBusEvents writes the ring buffer to out, oldest first
func DumpBusEvents(out DebugWriter) {
	if out == nil {
		return
	}

	out("[I2C] === Bus Event Dump ===")
	out("[I2C] Total events: " + utoa(BusEventCount()))

	for _, evt := range BusEvents() {
		var name string
		switch evt.EventType {
		case EvtPhase:
			name = "PHASE"
		case EvtSuspend:
			name = "SUSPEND"
		case EvtWake:
			name = "WAKE"
		case EvtTimeout:
			name = "TIMEOUT!"
		case EvtBusError:
			name = "BUS_ERROR!"
		case EvtOrphanIRQ:
			name = "ORPHAN_IRQ"
		default:
			name = "UNKNOWN"
		}

		out("[I2C] " + name +
			" port=" + itoa(int(evt.Port)) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + hex32(evt.Value1) +
			" v2=" + hex32(evt.Value2))
	}
	out("[I2C] === End Dump ===")
}

// ClearBusEvents clears the event buffer
func ClearBusEvents() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	ringMu.Lock()
	defer ringMu.Unlock()
	for i := range busRing {
		busRing[i] = BusEvent{}
	}
	busRingHead = 0
	busRingCount = 0
}
