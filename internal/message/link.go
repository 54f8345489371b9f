package message

import (
	"fmt"

	"github.com/dream3d/h5support/internal/binary"
)

// Link is a link message. Only hard links are resolved; soft and external
// links decode with Hard false and are reported as unsupported by callers.
type Link struct {
	Name    string
	Hard    bool
	Address uint64
	Kind    uint8

	order    uint64
	hasOrder bool
	target   []byte
}

// NewHardLink returns a hard link to the object header at addr.
func NewHardLink(name string, addr uint64) *Link {
	return &Link{Name: name, Hard: true, Address: addr}
}

func (m *Link) Type() Type { return TypeLink }

func (m *Link) Encode(e *binary.Encoder) {
	e.Uint8(1)
	w := binary.WidthFor(uint64(len(m.Name)))
	flags := uint8(0)
	switch w {
	case 2:
		flags = 1
	case 4:
		flags = 2
	case 8:
		flags = 3
	}
	if m.hasOrder {
		flags |= 0x04
	}
	if !m.Hard {
		flags |= 0x08
	}
	flags |= 0x10 // name is UTF-8
	e.Uint8(flags)
	if !m.Hard {
		e.Uint8(m.Kind)
	}
	if m.hasOrder {
		e.Uint64(m.order)
	}
	e.Uint8(uint8(1))
	e.UintN(uint64(len(m.Name)), w)
	e.Write([]byte(m.Name))
	if m.Hard {
		e.Address(m.Address)
	} else {
		e.Write(m.target)
	}
}

func decodeLink(d *binary.Decoder) (*Link, error) {
	if v := d.Uint8(); v != 1 {
		return nil, fmt.Errorf("%w: link version %d", ErrUnsupported, v)
	}
	flags := d.Uint8()
	m := &Link{Hard: true}
	if flags&0x08 != 0 {
		m.Kind = d.Uint8()
		m.Hard = m.Kind == 0
	}
	if flags&0x04 != 0 {
		m.hasOrder = true
		m.order = d.Uint64()
	}
	if flags&0x10 != 0 {
		d.Skip(1)
	}
	n := d.UintN(1 << (flags & 0x03))
	m.Name = string(d.Bytes(int(n)))
	if m.Hard {
		m.Address = d.Address()
	} else {
		m.target = append([]byte(nil), d.Bytes(d.Remaining())...)
	}
	return m, nil
}

// LinkInfo is the link info message of a group using link messages.
type LinkInfo struct {
	flags    uint8
	maxOrder uint64
	heap     uint64
	index    uint64
	orderIdx uint64
	dense    bool
}

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

// Dense reports whether the links live in a fractal heap.
func (m *LinkInfo) Dense() bool { return m.dense }

func (m *LinkInfo) Encode(e *binary.Encoder) {
	e.Uint8(0)
	e.Uint8(m.flags)
	if m.flags&0x01 != 0 {
		e.Uint64(m.maxOrder)
	}
	if m.heap == 0 && !m.dense {
		e.Undefined()
		e.Undefined()
	} else {
		e.Address(m.heap)
		e.Address(m.index)
	}
	if m.flags&0x02 != 0 {
		e.Address(m.orderIdx)
	}
}

func decodeLinkInfo(d *binary.Decoder) (*LinkInfo, error) {
	if v := d.Uint8(); v != 0 {
		return nil, fmt.Errorf("%w: link info version %d", ErrUnsupported, v)
	}
	m := &LinkInfo{flags: d.Uint8()}
	if m.flags&0x01 != 0 {
		m.maxOrder = d.Uint64()
	}
	m.heap = d.Address()
	m.index = d.Address()
	if m.flags&0x02 != 0 {
		m.orderIdx = d.Address()
	}
	m.dense = !d.Sizes().IsUndefined(m.heap)
	if !m.dense {
		m.heap, m.index = 0, 0
	}
	return m, nil
}

// GroupInfo is the group info message; only the empty form is written.
type GroupInfo struct {
	body []byte
}

func (m *GroupInfo) Type() Type { return TypeGroupInfo }

func (m *GroupInfo) Encode(e *binary.Encoder) {
	if m.body != nil {
		e.Write(m.body)
		return
	}
	e.Uint8(0)
	e.Uint8(0)
}

func decodeGroupInfo(d *binary.Decoder) (*GroupInfo, error) {
	return &GroupInfo{body: append([]byte(nil), d.Bytes(d.Remaining())...)}, nil
}
