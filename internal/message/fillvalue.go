package message

import (
	"fmt"

	"github.com/dream3d/h5support/internal/binary"
)

// Space allocation times.
const (
	AllocEarly       uint8 = 1
	AllocLate        uint8 = 2
	AllocIncremental uint8 = 3
)

// FillValue is the version 3 fill value message.
type FillValue struct {
	AllocTime uint8
	WriteTime uint8
	Value     []byte // nil when no fill value is defined
}

func (m *FillValue) Type() Type { return TypeFillValue }

func (m *FillValue) Encode(e *binary.Encoder) {
	e.Uint8(3)
	flags := m.AllocTime&0x03 | (m.WriteTime&0x03)<<2
	if m.Value != nil {
		flags |= 0x20
	}
	e.Uint8(flags)
	if m.Value != nil {
		e.Uint32(uint32(len(m.Value)))
		e.Write(m.Value)
	}
}

func decodeFillValue(d *binary.Decoder) (*FillValue, error) {
	version := d.Uint8()
	m := &FillValue{}
	switch version {
	case 1, 2:
		m.AllocTime = d.Uint8()
		m.WriteTime = d.Uint8()
		if d.Uint8() != 0 && d.Remaining() >= 4 {
			if n := d.Uint32(); n > 0 {
				m.Value = append([]byte(nil), d.Bytes(int(n))...)
			}
		}
	case 3:
		flags := d.Uint8()
		m.AllocTime = flags & 0x03
		m.WriteTime = (flags >> 2) & 0x03
		if flags&0x20 != 0 {
			n := d.Uint32()
			m.Value = append([]byte{}, d.Bytes(int(n))...)
		}
	default:
		return nil, fmt.Errorf("%w: fill value version %d", ErrUnsupported, version)
	}
	return m, nil
}
