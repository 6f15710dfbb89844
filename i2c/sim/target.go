package sim

import "sync"

// WordDevice is a register file of 16-bit registers addressed by an 8-bit
// pointer, the layout of SMBus gauges, chargers and temperature sensors.
// A write transaction sets the pointer with its first byte and stores each
// following byte pair; a read returns the pointed register's two bytes.
type WordDevice struct {
	mu        sync.Mutex
	bigEndian bool
	regs      map[uint8]uint16

	ptr       uint8
	expectPtr bool
	pending   []byte
	rpos      int
	writes    int
}

// NewWordDevice creates an empty register file. bigEndian selects the byte
// order of the registers on the wire.
func NewWordDevice(bigEndian bool) *WordDevice {
	return &WordDevice{
		bigEndian: bigEndian,
		regs:      make(map[uint8]uint16),
	}
}

// Set stores a register value directly
func (d *WordDevice) Set(reg uint8, v uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regs[reg] = v
}

// Get returns a register value
func (d *WordDevice) Get(reg uint8) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs[reg]
}

// Writes returns the number of register writes received over the bus
func (d *WordDevice) Writes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

func (d *WordDevice) encode(v uint16) [2]byte {
	if d.bigEndian {
		return [2]byte{byte(v >> 8), byte(v)}
	}
	return [2]byte{byte(v), byte(v >> 8)}
}

func (d *WordDevice) decode(b []byte) uint16 {
	if d.bigEndian {
		return uint16(b[0])<<8 | uint16(b[1])
	}
	return uint16(b[1])<<8 | uint16(b[0])
}

func (d *WordDevice) Start(read bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expectPtr = !read
	d.pending = d.pending[:0]
	d.rpos = 0
	return true
}

func (d *WordDevice) WriteByte(b byte) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.expectPtr {
		d.ptr = b
		d.expectPtr = false
		return true
	}
	d.pending = append(d.pending, b)
	if len(d.pending) == 2 {
		d.regs[d.ptr] = d.decode(d.pending)
		d.pending = d.pending[:0]
		d.writes++
	}
	return true
}

func (d *WordDevice) ReadByte() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	b := d.encode(d.regs[d.ptr])[d.rpos&1]
	d.rpos++
	return b
}

func (d *WordDevice) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expectPtr = false
	d.pending = d.pending[:0]
	d.rpos = 0
}

// TxDevice is a device modelled at transaction level, such as the mock
// devices of tinygo.org/x/drivers/tester
type TxDevice interface {
	Tx(w, r []byte) error
}

// TxTarget replays byte-level bus traffic as Tx calls on a TxDevice. Bytes
// written before a repeated start become the write half of one Tx and the
// read half is prefetched with ReadLen bytes. A write-only transaction is
// delivered at STOP.
type TxTarget struct {
	Dev     TxDevice
	ReadLen int

	mu   sync.Mutex
	w    []byte
	r    []byte
	rpos int
	err  error
}

// NewTxTarget wraps dev, prefetching readLen bytes per read
func NewTxTarget(dev TxDevice, readLen int) *TxTarget {
	return &TxTarget{Dev: dev, ReadLen: readLen}
}

// Err returns the last error reported by the device, if any
func (t *TxTarget) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *TxTarget) Start(read bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !read {
		t.flush()
		return true
	}

	t.r, t.rpos = nil, 0
	if len(t.w) == 0 {
		// Address-only read such as a bus scan probe
		return true
	}
	buf := make([]byte, t.ReadLen)
	err := t.Dev.Tx(t.w, buf)
	t.w = nil
	if err != nil {
		t.err = err
		return false
	}
	t.r = buf
	return true
}

func (t *TxTarget) WriteByte(b byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.w = append(t.w, b)
	return true
}

func (t *TxTarget) ReadByte() byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rpos >= len(t.r) {
		return 0xff
	}
	b := t.r[t.rpos]
	t.rpos++
	return b
}

func (t *TxTarget) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flush()
	t.r, t.rpos = nil, 0
}

// flush delivers buffered write bytes. Must be called with t.mu held.
func (t *TxTarget) flush() {
	if len(t.w) == 0 {
		return
	}
	if err := t.Dev.Tx(t.w, nil); err != nil {
		t.err = err
	}
	t.w = nil
}
