package binary

import (
	"encoding/binary"
	"fmt"
)

// Decoder walks a byte slice that was read in one piece (a superblock, an
// object header chunk, a message body). The first error is sticky: after
// it, every read returns zero and Err reports the failure.
type Decoder struct {
	buf   []byte
	pos   int
	sizes Sizes
	err   error
}

// NewDecoder returns a decoder positioned at the start of buf.
func NewDecoder(buf []byte, sizes Sizes) *Decoder {
	return &Decoder{buf: buf, sizes: sizes}
}

// Err returns the first error encountered.
func (d *Decoder) Err() error { return d.err }

// Pos returns the cursor position.
func (d *Decoder) Pos() int { return d.pos }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	if d.pos >= len(d.buf) {
		return 0
	}
	return len(d.buf) - d.pos
}

// Sizes returns the address and length widths in use.
func (d *Decoder) Sizes() Sizes { return d.sizes }

// Seek moves the cursor to an absolute position within the buffer.
func (d *Decoder) Seek(pos int) {
	if d.err != nil {
		return
	}
	if pos < 0 || pos > len(d.buf) {
		d.err = fmt.Errorf("%w: seek to %d in %d bytes", ErrTruncated, pos, len(d.buf))
		return
	}
	d.pos = pos
}

// Skip advances the cursor by n bytes.
func (d *Decoder) Skip(n int) {
	d.Bytes(n)
}

// Bytes returns the next n bytes without copying.
func (d *Decoder) Bytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.pos+n > len(d.buf) {
		d.err = fmt.Errorf("%w: need %d bytes at %d, have %d", ErrTruncated, n, d.pos, d.Remaining())
		return nil
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b
}

// Uint8 reads one byte.
func (d *Decoder) Uint8() uint8 {
	b := d.Bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Uint16 reads a little-endian uint16.
func (d *Decoder) Uint16() uint16 {
	b := d.Bytes(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// Uint32 reads a little-endian uint32.
func (d *Decoder) Uint32() uint32 {
	b := d.Bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// Uint64 reads a little-endian uint64.
func (d *Decoder) Uint64() uint64 {
	b := d.Bytes(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// UintN reads an n-byte little-endian unsigned integer, 1 <= n <= 8.
func (d *Decoder) UintN(n int) uint64 {
	if n < 1 || n > 8 {
		if d.err == nil {
			d.err = fmt.Errorf("%w: field width %d", ErrInvalidSize, n)
		}
		return 0
	}
	b := d.Bytes(n)
	if b == nil {
		return 0
	}
	return Uint(b)
}

// Address reads a file address.
func (d *Decoder) Address() uint64 { return d.UintN(d.sizes.Offset) }

// Length reads a length field.
func (d *Decoder) Length() uint64 { return d.UintN(d.sizes.Length) }

// Uint decodes a little-endian unsigned integer of up to 8 bytes.
func Uint(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
