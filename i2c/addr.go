package i2c

// Addr is a slave address in its 8-bit bus form (7-bit address shifted
// left, direction bit clear) plus option flags in the high byte.
type Addr uint16

// FlagBigEndian selects big-endian 16-bit payloads: the first byte on the
// wire is the high byte. Without it the first byte is the low byte.
const FlagBigEndian Addr = 0x100

// Addr7 returns the bus form of a 7-bit address
func Addr7(a uint8) Addr {
	return Addr(a&0x7f) << 1
}

// BigEndian reports whether the byte-order flag is set
func (a Addr) BigEndian() bool {
	return a&FlagBigEndian != 0
}

// Seven returns the 7-bit address
func (a Addr) Seven() uint8 {
	return uint8(a&0xff) >> 1
}

// write returns the slave address register value for a write phase
func (a Addr) write() uint32 {
	return uint32(a) & 0xfe
}

// read returns the slave address register value for a read phase
func (a Addr) read() uint32 {
	return uint32(a)&0xfe | AddrRead
}

// String formats the bus form as 0x followed by two hex digits
func (a Addr) String() string {
	const digits = "0123456789abcdef"
	b := uint8(a)
	return string([]byte{'0', 'x', digits[b>>4], digits[b&0x0f]})
}

// order splits v into wire order for the address's byte-order flag
func (a Addr) order(v uint16) (first, second byte) {
	if a.BigEndian() {
		return byte(v >> 8), byte(v)
	}
	return byte(v), byte(v >> 8)
}

// combine joins two bytes received in wire order
func (a Addr) combine(first, second byte) uint16 {
	if a.BigEndian() {
		return uint16(first)<<8 | uint16(second)
	}
	return uint16(second)<<8 | uint16(first)
}
