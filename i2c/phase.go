package i2c

// Phase is one hardware step of a bus transaction
type Phase uint8

// Phase intents
const (
	StartWrite     Phase = iota // START, send address (write) and one byte, keep the bus
	ContinueWrite               // send one byte, keep the bus
	WriteAndStop                // send one byte, then STOP
	StartRead                   // (repeated) START, send address (read), receive one byte with ACK
	ContinueRead                // receive one byte with ACK
	ReceiveAndStop              // receive the final byte, then STOP
	StartAndStop                // START, address, one byte either way, STOP; the scanner's probe
	numPhases
)

// phaseCommands maps each phase intent to its control register encoding
var phaseCommands = [numPhases]uint32{
	StartWrite:     CmdStart | CmdRun,
	ContinueWrite:  CmdRun,
	WriteAndStop:   CmdRun | CmdStop,
	StartRead:      CmdAck | CmdStart | CmdRun,
	ContinueRead:   CmdAck | CmdRun,
	ReceiveAndStop: CmdRun | CmdStop,
	StartAndStop:   CmdStart | CmdRun | CmdStop,
}

var phaseNames = [numPhases]string{
	StartWrite:     "start-write",
	ContinueWrite:  "continue-write",
	WriteAndStop:   "write-stop",
	StartRead:      "start-read",
	ContinueRead:   "continue-read",
	ReceiveAndStop: "receive-stop",
	StartAndStop:   "start-stop",
}

// Command returns the control register value that starts the phase
func (p Phase) Command() uint32 {
	if p >= numPhases {
		return 0
	}
	return phaseCommands[p]
}

func (p Phase) String() string {
	if p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}
