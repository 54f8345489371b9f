package message

import (
	"fmt"

	"github.com/dream3d/h5support/internal/binary"
)

// Registered filter identifiers.
const (
	FilterDeflate    uint16 = 1
	FilterShuffle    uint16 = 2
	FilterFletcher32 uint16 = 3
	FilterSZIP       uint16 = 4
	FilterNBit       uint16 = 5
	FilterScale      uint16 = 6
	FilterSnappy     uint16 = 32003
	FilterZstd       uint16 = 32015
)

// FilterOptional marks a filter whose failure does not fail the write.
const FilterOptional uint16 = 0x0001

// FilterSpec is one stage of a filter pipeline.
type FilterSpec struct {
	ID         uint16
	Flags      uint16
	Name       string
	ClientData []uint32
}

// Pipeline is the filter pipeline message.
type Pipeline struct {
	Filters []FilterSpec
}

func (m *Pipeline) Type() Type { return TypePipeline }

// Has reports whether the pipeline contains the filter id.
func (m *Pipeline) Has(id uint16) bool {
	for _, f := range m.Filters {
		if f.ID == id {
			return true
		}
	}
	return false
}

func (m *Pipeline) Encode(e *binary.Encoder) {
	e.Uint8(2)
	e.Uint8(uint8(len(m.Filters)))
	for _, f := range m.Filters {
		e.Uint16(f.ID)
		var name []byte
		if f.ID >= 256 {
			if f.Name != "" {
				name = append([]byte(f.Name), 0)
			}
			e.Uint16(uint16(len(name)))
		}
		e.Uint16(f.Flags)
		e.Uint16(uint16(len(f.ClientData)))
		e.Write(name)
		for _, v := range f.ClientData {
			e.Uint32(v)
		}
	}
}

func decodePipeline(d *binary.Decoder) (*Pipeline, error) {
	version := d.Uint8()
	if version != 1 && version != 2 {
		return nil, fmt.Errorf("%w: filter pipeline version %d", ErrUnsupported, version)
	}
	m := &Pipeline{Filters: make([]FilterSpec, d.Uint8())}
	if version == 1 {
		d.Skip(6)
	}
	for i := range m.Filters {
		f := &m.Filters[i]
		f.ID = d.Uint16()
		var nameLen int
		if version == 1 || f.ID >= 256 {
			nameLen = int(d.Uint16())
		}
		f.Flags = d.Uint16()
		nvals := int(d.Uint16())
		if nameLen > 0 {
			f.Name = cstring(d.Bytes(nameLen))
		}
		f.ClientData = make([]uint32, nvals)
		for j := range f.ClientData {
			f.ClientData[j] = d.Uint32()
		}
		if version == 1 && nvals%2 == 1 {
			d.Skip(4)
		}
	}
	return m, nil
}

// cstring returns b up to its first NUL.
func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
