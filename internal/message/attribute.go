package message

import (
	"fmt"

	"github.com/dream3d/h5support/internal/binary"
)

// Attribute is an attribute message: a named value stored in the header
// of the object it describes.
type Attribute struct {
	Name     string
	Datatype *Datatype
	Space    *Dataspace
	Data     []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

// Encode writes a version 3 attribute message.
func (m *Attribute) Encode(e *binary.Encoder) {
	dt := Body(m.Datatype, e.Sizes())
	ds := Body(m.Space, e.Sizes())
	e.Uint8(3)
	e.Uint8(0)
	e.Uint16(uint16(len(m.Name) + 1))
	e.Uint16(uint16(len(dt)))
	e.Uint16(uint16(len(ds)))
	e.Uint8(uint8(CharsetUTF8))
	e.Write([]byte(m.Name))
	e.Uint8(0)
	e.Write(dt)
	e.Write(ds)
	e.Write(m.Data)
}

func decodeAttribute(d *binary.Decoder) (*Attribute, error) {
	version := d.Uint8()
	if version < 1 || version > 3 {
		return nil, fmt.Errorf("%w: attribute version %d", ErrUnsupported, version)
	}
	flags := d.Uint8()
	if flags&0x03 != 0 {
		return nil, fmt.Errorf("%w: shared attribute datatype or dataspace", ErrUnsupported)
	}
	nameLen := int(d.Uint16())
	dtLen := int(d.Uint16())
	dsLen := int(d.Uint16())
	if version == 3 {
		d.Skip(1)
	}
	pad := func(n int) int {
		if version == 1 {
			return (n + 7) &^ 7
		}
		return n
	}
	m := &Attribute{Name: cstring(d.Bytes(pad(nameLen)))}
	dtBody := d.Bytes(pad(dtLen))
	dsBody := d.Bytes(pad(dsLen))
	if err := d.Err(); err != nil {
		return nil, err
	}
	dtd := binary.NewDecoder(dtBody[:dtLen], d.Sizes())
	dt, err := decodeDatatype(dtd, dtLen)
	if err == nil {
		err = dtd.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("attribute %q datatype: %w", m.Name, err)
	}
	dsd := binary.NewDecoder(dsBody[:dsLen], d.Sizes())
	ds, err := decodeDataspace(dsd)
	if err == nil {
		err = dsd.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("attribute %q dataspace: %w", m.Name, err)
	}
	m.Datatype, m.Space = dt, ds
	m.Data = append([]byte{}, d.Bytes(d.Remaining())...)
	return m, nil
}
