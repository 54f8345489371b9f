package binary

import "encoding/binary"

// Encoder appends little-endian fields to a growing buffer. Structures are
// always encoded in memory first and written to the file in one call.
type Encoder struct {
	buf   []byte
	sizes Sizes
}

// NewEncoder returns an empty encoder.
func NewEncoder(sizes Sizes) *Encoder {
	return &Encoder{sizes: sizes}
}

// Bytes returns the encoded buffer.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len returns the number of bytes encoded so far.
func (e *Encoder) Len() int { return len(e.buf) }

// Sizes returns the address and length widths in use.
func (e *Encoder) Sizes() Sizes { return e.sizes }

// Write appends p.
func (e *Encoder) Write(p []byte) { e.buf = append(e.buf, p...) }

// Zeros appends n zero bytes.
func (e *Encoder) Zeros(n int) {
	for ; n > 0; n-- {
		e.buf = append(e.buf, 0)
	}
}

// Uint8 appends one byte.
func (e *Encoder) Uint8(v uint8) { e.buf = append(e.buf, v) }

// Uint16 appends a little-endian uint16.
func (e *Encoder) Uint16(v uint16) { e.buf = binary.LittleEndian.AppendUint16(e.buf, v) }

// Uint32 appends a little-endian uint32.
func (e *Encoder) Uint32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }

// Uint64 appends a little-endian uint64.
func (e *Encoder) Uint64(v uint64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, v) }

// UintN appends the low n bytes of v.
func (e *Encoder) UintN(v uint64, n int) {
	for i := 0; i < n; i++ {
		e.buf = append(e.buf, byte(v>>(8*uint(i))))
	}
}

// Address appends a file address.
func (e *Encoder) Address(v uint64) { e.UintN(v, e.sizes.Offset) }

// Undefined appends the undefined address.
func (e *Encoder) Undefined() { e.Address(e.sizes.Undefined()) }

// Length appends a length field.
func (e *Encoder) Length(v uint64) { e.UintN(v, e.sizes.Length) }

// PutUint32At overwrites four bytes at pos. Used to patch sizes and
// checksums once the rest of a structure is known.
func (e *Encoder) PutUint32At(pos int, v uint32) {
	binary.LittleEndian.PutUint32(e.buf[pos:], v)
}

// AppendChecksum appends the lookup3 checksum of everything encoded so far.
func (e *Encoder) AppendChecksum() {
	e.Uint32(Lookup3Checksum(e.buf))
}

// WidthFor returns the smallest of 1, 2, 4 or 8 bytes that can hold v.
func WidthFor(v uint64) int {
	switch {
	case v <= 0xFF:
		return 1
	case v <= 0xFFFF:
		return 2
	case v <= 0xFFFFFFFF:
		return 4
	default:
		return 8
	}
}
