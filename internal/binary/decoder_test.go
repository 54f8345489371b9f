package binary

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncoderDecoderRoundTrip(t *testing.T) {
	for _, sizes := range []Sizes{{2, 2}, {4, 4}, {8, 8}, {4, 8}} {
		e := NewEncoder(sizes)
		e.Uint8(0xAB)
		e.Uint16(0x1234)
		e.Uint32(0xDEADBEEF)
		e.Uint64(0x0102030405060708)
		e.Address(0x1F00)
		e.Length(0x2A)
		e.Undefined()
		e.UintN(0x030201, 3)
		e.Write([]byte("ok"))

		d := NewDecoder(e.Bytes(), sizes)
		if got := d.Uint8(); got != 0xAB {
			t.Errorf("%v: Uint8 = %#x", sizes, got)
		}
		if got := d.Uint16(); got != 0x1234 {
			t.Errorf("%v: Uint16 = %#x", sizes, got)
		}
		if got := d.Uint32(); got != 0xDEADBEEF {
			t.Errorf("%v: Uint32 = %#x", sizes, got)
		}
		if got := d.Uint64(); got != 0x0102030405060708 {
			t.Errorf("%v: Uint64 = %#x", sizes, got)
		}
		if got := d.Address(); got != 0x1F00 {
			t.Errorf("%v: Address = %#x", sizes, got)
		}
		if got := d.Length(); got != 0x2A {
			t.Errorf("%v: Length = %#x", sizes, got)
		}
		if got := d.Address(); !sizes.IsUndefined(got) {
			t.Errorf("%v: expected undefined address, got %#x", sizes, got)
		}
		if got := d.UintN(3); got != 0x030201 {
			t.Errorf("%v: UintN(3) = %#x", sizes, got)
		}
		if got := d.Bytes(2); !bytes.Equal(got, []byte("ok")) {
			t.Errorf("%v: Bytes = %q", sizes, got)
		}
		if d.Err() != nil || d.Remaining() != 0 {
			t.Errorf("%v: err=%v remaining=%d", sizes, d.Err(), d.Remaining())
		}
	}
}

func TestDecoderStickyError(t *testing.T) {
	d := NewDecoder([]byte{1, 2, 3}, DefaultSizes)
	if got := d.Uint32(); got != 0 {
		t.Errorf("short read returned %d", got)
	}
	if !errors.Is(d.Err(), ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", d.Err())
	}
	// Reads after the failure keep returning zero.
	if got := d.Uint8(); got != 0 {
		t.Errorf("read after error returned %d", got)
	}
}

func TestSizesValidate(t *testing.T) {
	if err := (Sizes{8, 8}).Validate(); err != nil {
		t.Errorf("8/8 rejected: %v", err)
	}
	if err := (Sizes{3, 8}).Validate(); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("3/8 accepted: %v", err)
	}
	if got := (Sizes{4, 4}).Undefined(); got != 0xFFFFFFFF {
		t.Errorf("Undefined = %#x", got)
	}
}

func TestWidthFor(t *testing.T) {
	cases := map[uint64]int{0: 1, 255: 1, 256: 2, 65535: 2, 65536: 4, 1 << 32: 8}
	for v, want := range cases {
		if got := WidthFor(v); got != want {
			t.Errorf("WidthFor(%d) = %d, want %d", v, got, want)
		}
	}
}

func TestEncoderChecksum(t *testing.T) {
	e := NewEncoder(DefaultSizes)
	e.Write([]byte("OHDR"))
	e.AppendChecksum()
	b := e.Bytes()
	d := NewDecoder(b[4:], DefaultSizes)
	if got := d.Uint32(); got != Lookup3Checksum([]byte("OHDR")) {
		t.Errorf("checksum mismatch: %#x", got)
	}
}
