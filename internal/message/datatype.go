package message

import (
	"fmt"

	"github.com/dream3d/h5support/internal/binary"
)

// Class is a datatype class.
type Class uint8

const (
	ClassFixed    Class = 0
	ClassFloat    Class = 1
	ClassTime     Class = 2
	ClassString   Class = 3
	ClassBitfield Class = 4
	ClassOpaque   Class = 5
	ClassCompound Class = 6
	ClassRef      Class = 7
	ClassEnum     Class = 8
	ClassVarLen   Class = 9
	ClassArray    Class = 10
)

var classNames = [...]string{"integer", "float", "time", "string", "bitfield", "opaque",
	"compound", "reference", "enum", "variable-length", "array"}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// StringPad is the padding convention of a fixed-length string.
type StringPad uint8

const (
	PadNullTerm StringPad = 0
	PadNull     StringPad = 1
	PadSpace    StringPad = 2
)

// Charset is the character set of a string type.
type Charset uint8

const (
	CharsetASCII Charset = 0
	CharsetUTF8  Charset = 1
)

// Datatype describes the element type of a dataset or attribute. Integer,
// float and fixed-length string types are interpreted; other classes keep
// their property bytes so the message survives a rewrite.
type Datatype struct {
	Class     Class
	Size      uint32
	BigEndian bool
	Signed    bool
	Pad       StringPad
	Charset   Charset

	version   uint8
	classBits uint32
	props     []byte
}

// NewInteger returns a little-endian integer type of size bytes.
func NewInteger(size uint32, signed bool) *Datatype {
	return &Datatype{Class: ClassFixed, Size: size, Signed: signed}
}

// NewFloat returns a little-endian IEEE float type of 4 or 8 bytes.
func NewFloat(size uint32) *Datatype {
	return &Datatype{Class: ClassFloat, Size: size}
}

// NewString returns a null-terminated fixed-length string type.
func NewString(size uint32, cs Charset) *Datatype {
	return &Datatype{Class: ClassString, Size: size, Pad: PadNullTerm, Charset: cs}
}

func (m *Datatype) Type() Type { return TypeDatatype }

// Supported reports whether values of this type can be converted.
func (m *Datatype) Supported() bool {
	switch m.Class {
	case ClassFixed:
		return m.Size == 1 || m.Size == 2 || m.Size == 4 || m.Size == 8
	case ClassFloat:
		return m.Size == 4 || m.Size == 8
	case ClassString:
		return true
	}
	return false
}

// Equal reports whether two datatypes describe the same stored layout.
func (m *Datatype) Equal(o *Datatype) bool {
	if m.Class != o.Class || m.Size != o.Size || m.BigEndian != o.BigEndian {
		return false
	}
	switch m.Class {
	case ClassFixed:
		return m.Signed == o.Signed
	case ClassString:
		return m.Pad == o.Pad && m.Charset == o.Charset
	}
	return true
}

// Clone returns a copy.
func (m *Datatype) Clone() *Datatype {
	c := *m
	c.props = append([]byte(nil), m.props...)
	return &c
}

func (m *Datatype) String() string {
	switch m.Class {
	case ClassFixed:
		if m.Signed {
			return fmt.Sprintf("int%d", m.Size*8)
		}
		return fmt.Sprintf("uint%d", m.Size*8)
	case ClassFloat:
		return fmt.Sprintf("float%d", m.Size*8)
	case ClassString:
		return fmt.Sprintf("string[%d]", m.Size)
	}
	return fmt.Sprintf("%s[%d]", m.Class, m.Size)
}

func (m *Datatype) Encode(e *binary.Encoder) {
	version, bits := uint8(1), uint32(0)
	switch m.Class {
	case ClassFixed:
		if m.BigEndian {
			bits |= 0x01
		}
		if m.Signed {
			bits |= 0x08
		}
	case ClassFloat:
		if m.BigEndian {
			bits |= 0x01
		}
		// Implied leading mantissa bit; sign in the top bit.
		bits |= 2<<4 | (m.Size*8-1)<<8
	case ClassString:
		bits = uint32(m.Pad) | uint32(m.Charset)<<4
	default:
		version, bits = m.version, m.classBits
	}
	e.Uint8(uint8(m.Class) | version<<4)
	e.UintN(uint64(bits), 3)
	e.Uint32(m.Size)
	switch m.Class {
	case ClassFixed:
		e.Uint16(0)
		e.Uint16(uint16(m.Size * 8))
	case ClassFloat:
		e.Uint16(0)
		e.Uint16(uint16(m.Size * 8))
		if m.Size == 4 {
			e.Write([]byte{23, 8, 0, 23})
			e.Uint32(127)
		} else {
			e.Write([]byte{52, 11, 0, 52})
			e.Uint32(1023)
		}
	case ClassString:
	default:
		e.Write(m.props)
	}
}

func decodeDatatype(d *binary.Decoder, n int) (*Datatype, error) {
	cv := d.Uint8()
	m := &Datatype{Class: Class(cv & 0x0F), version: cv >> 4}
	m.classBits = uint32(d.UintN(3))
	m.Size = d.Uint32()
	switch m.Class {
	case ClassFixed:
		m.BigEndian = m.classBits&0x01 != 0
		m.Signed = m.classBits&0x08 != 0
		d.Skip(4)
	case ClassFloat:
		m.BigEndian = m.classBits&0x01 != 0
		if m.classBits&0x40 != 0 {
			return nil, fmt.Errorf("%w: VAX float order", ErrUnsupported)
		}
		d.Skip(12)
	case ClassString:
		m.Pad = StringPad(m.classBits & 0x0F)
		m.Charset = Charset((m.classBits >> 4) & 0x0F)
	default:
		m.props = append([]byte(nil), d.Bytes(d.Remaining())...)
	}
	if n < 8 {
		return nil, fmt.Errorf("%w: datatype of %d bytes", ErrCorrupt, n)
	}
	return m, nil
}
