package message

import (
	"fmt"

	"github.com/dream3d/h5support/internal/binary"
)

// LayoutClass is the raw data storage class.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0
	LayoutContiguous LayoutClass = 1
	LayoutChunked    LayoutClass = 2
	LayoutVirtual    LayoutClass = 3
)

func (c LayoutClass) String() string {
	switch c {
	case LayoutCompact:
		return "compact"
	case LayoutContiguous:
		return "contiguous"
	case LayoutChunked:
		return "chunked"
	case LayoutVirtual:
		return "virtual"
	}
	return fmt.Sprintf("layout(%d)", uint8(c))
}

// ChunkIndex is the chunk indexing type of a version 4 layout.
type ChunkIndex uint8

const (
	IndexSingleChunk ChunkIndex = 1
	IndexImplicit    ChunkIndex = 2
	IndexFixedArray  ChunkIndex = 3
	IndexExtensible  ChunkIndex = 4
	IndexBTree2      ChunkIndex = 5
)

// Layout is the data layout message.
type Layout struct {
	Class LayoutClass

	// Compact
	Data []byte

	// Contiguous: Address and Size of the data block.
	// Chunked, single chunk index: Address of the chunk and, when
	// Filtered, its stored Size and FilterMask.
	Address uint64
	Size    uint64

	// Chunked
	ChunkDims  []uint64 // dataset rank + 1; the last entry is the element size
	Index      ChunkIndex
	Filtered   bool
	FilterMask uint32
	indexInfo  []byte
	flags      uint8
}

func (m *Layout) Type() Type { return TypeLayout }

func (m *Layout) Encode(e *binary.Encoder) {
	if m.Class != LayoutChunked {
		e.Uint8(3)
		e.Uint8(uint8(m.Class))
		switch m.Class {
		case LayoutCompact:
			e.Uint16(uint16(len(m.Data)))
			e.Write(m.Data)
		case LayoutContiguous:
			e.Address(m.Address)
			e.Length(m.Size)
		}
		return
	}
	e.Uint8(4)
	e.Uint8(uint8(LayoutChunked))
	flags := m.flags &^ 0x02
	if m.Index == IndexSingleChunk && m.Filtered {
		flags |= 0x02
	}
	e.Uint8(flags)
	e.Uint8(uint8(len(m.ChunkDims)))
	var widest uint64
	for _, d := range m.ChunkDims {
		widest = max(widest, d)
	}
	w := binary.WidthFor(widest)
	e.Uint8(uint8(w))
	for _, d := range m.ChunkDims {
		e.UintN(d, w)
	}
	e.Uint8(uint8(m.Index))
	switch m.Index {
	case IndexSingleChunk:
		if m.Filtered {
			e.Length(m.Size)
			e.Uint32(m.FilterMask)
		}
	default:
		e.Write(m.indexInfo)
	}
	e.Address(m.Address)
}

func decodeLayout(d *binary.Decoder) (*Layout, error) {
	version := d.Uint8()
	if version < 3 || version > 4 {
		return nil, fmt.Errorf("%w: layout version %d", ErrUnsupported, version)
	}
	m := &Layout{Class: LayoutClass(d.Uint8())}
	switch m.Class {
	case LayoutCompact:
		n := int(d.Uint16())
		m.Data = append([]byte{}, d.Bytes(n)...)
		m.Size = uint64(n)
	case LayoutContiguous:
		m.Address = d.Address()
		m.Size = d.Length()
	case LayoutChunked:
		if version == 3 {
			return nil, fmt.Errorf("%w: version 1 B-tree chunk index", ErrUnsupported)
		}
		m.flags = d.Uint8()
		rank := int(d.Uint8())
		w := int(d.Uint8())
		m.ChunkDims = make([]uint64, rank)
		for i := range m.ChunkDims {
			m.ChunkDims[i] = d.UintN(w)
		}
		m.Index = ChunkIndex(d.Uint8())
		switch m.Index {
		case IndexSingleChunk:
			if m.flags&0x02 != 0 {
				m.Filtered = true
				m.Size = d.Length()
				m.FilterMask = d.Uint32()
			}
		case IndexImplicit:
		case IndexFixedArray:
			m.indexInfo = append([]byte(nil), d.Bytes(1)...)
		case IndexExtensible:
			m.indexInfo = append([]byte(nil), d.Bytes(5)...)
		case IndexBTree2:
			m.indexInfo = append([]byte(nil), d.Bytes(6)...)
		default:
			return nil, fmt.Errorf("%w: chunk index type %d", ErrCorrupt, m.Index)
		}
		m.Address = d.Address()
	default:
		return nil, fmt.Errorf("%w: %s layout", ErrUnsupported, m.Class)
	}
	return m, nil
}
