package sim

import (
	"errors"
	"testing"

	"tinygo.org/x/drivers/tester"
)

func TestWordDeviceByteOrder(t *testing.T) {
	for _, bigEndian := range []bool{false, true} {
		d := NewWordDevice(bigEndian)
		d.Set(0x10, 0xa1b2)

		d.Start(false)
		d.WriteByte(0x10)
		d.Start(true)
		first, second := d.ReadByte(), d.ReadByte()
		d.Stop()

		want := [2]byte{0xb2, 0xa1}
		if bigEndian {
			want = [2]byte{0xa1, 0xb2}
		}
		if first != want[0] || second != want[1] {
			t.Errorf("bigEndian=%v: read %02x %02x, want % x", bigEndian, first, second, want)
		}
	}
}

func TestWordDeviceDropsPartialWrite(t *testing.T) {
	d := NewWordDevice(false)
	d.Start(false)
	d.WriteByte(0x02)
	d.WriteByte(0x55)
	d.Stop()

	if d.Writes() != 0 || d.Get(0x02) != 0 {
		t.Errorf("half a word was stored: %#04x", d.Get(0x02))
	}
}

type failingDevice struct{}

func (failingDevice) Tx(w, r []byte) error {
	return errors.New("device fault")
}

func TestTxTargetReplaysTransactions(t *testing.T) {
	dev := tester.NewI2CDevice16(t, 0x40)
	dev.Registers[0x05] = 0x1234
	tgt := NewTxTarget(dev, 2)

	// Write then repeated start read
	tgt.Start(false)
	tgt.WriteByte(0x05)
	if !tgt.Start(true) {
		t.Fatal("read start not acknowledged")
	}
	if hi, lo := tgt.ReadByte(), tgt.ReadByte(); hi != 0x12 || lo != 0x34 {
		t.Errorf("read %02x %02x, want 12 34", hi, lo)
	}
	if tgt.ReadByte() != 0xff {
		t.Error("read past the prefetched bytes should float high")
	}
	tgt.Stop()

	// Write only, delivered at stop
	tgt.Start(false)
	tgt.WriteByte(0x05)
	tgt.WriteByte(0xbe)
	tgt.WriteByte(0xef)
	if dev.Registers[0x05] != 0x1234 {
		t.Fatal("write delivered before stop")
	}
	tgt.Stop()
	if dev.Registers[0x05] != 0xbeef {
		t.Errorf("register = %#04x, want 0xbeef", dev.Registers[0x05])
	}
	if tgt.Err() != nil {
		t.Errorf("unexpected error %v", tgt.Err())
	}
}

func TestTxTargetReportsDeviceErrors(t *testing.T) {
	tgt := NewTxTarget(failingDevice{}, 2)
	tgt.Start(false)
	tgt.WriteByte(0x01)
	if tgt.Start(true) {
		t.Error("failed transaction was acknowledged")
	}
	if tgt.Err() == nil {
		t.Error("device error not recorded")
	}

	// Probes never reach the device
	probe := NewTxTarget(failingDevice{}, 2)
	if !probe.Start(true) {
		t.Error("address-only read not acknowledged")
	}
	probe.Stop()
	if probe.Err() != nil {
		t.Errorf("probe reported %v", probe.Err())
	}
}
