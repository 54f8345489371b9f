package message

import (
	"fmt"
	"math/bits"

	"github.com/dream3d/h5support/internal/binary"
)

// SpaceKind distinguishes scalar, simple and null dataspaces.
type SpaceKind uint8

const (
	SpaceScalar SpaceKind = 0
	SpaceSimple SpaceKind = 1
	SpaceNull   SpaceKind = 2
)

// Dataspace is the shape of a dataset or attribute.
type Dataspace struct {
	Kind    SpaceKind
	Dims    []uint64
	MaxDims []uint64
}

// NewSimple returns a fixed-size simple dataspace.
func NewSimple(dims []uint64) *Dataspace {
	return &Dataspace{Kind: SpaceSimple, Dims: append([]uint64(nil), dims...)}
}

// NewScalar returns a scalar dataspace.
func NewScalar() *Dataspace {
	return &Dataspace{Kind: SpaceScalar}
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// Rank returns the number of dimensions; zero for scalar and null spaces.
func (m *Dataspace) Rank() int { return len(m.Dims) }

// Elements returns the number of elements, failing when the product does
// not fit in 64 bits.
func (m *Dataspace) Elements() (uint64, error) {
	switch m.Kind {
	case SpaceNull:
		return 0, nil
	case SpaceScalar:
		return 1, nil
	}
	return Product(m.Dims)
}

// Product multiplies extents with overflow detection.
func Product(dims []uint64) (uint64, error) {
	n := uint64(1)
	for _, d := range dims {
		hi, lo := bits.Mul64(n, d)
		if hi != 0 {
			return 0, fmt.Errorf("element count of %v overflows 64 bits", dims)
		}
		n = lo
	}
	return n, nil
}

// Equal reports whether two dataspaces have the same kind and extents.
func (m *Dataspace) Equal(o *Dataspace) bool {
	if m.Kind != o.Kind || len(m.Dims) != len(o.Dims) {
		return false
	}
	for i := range m.Dims {
		if m.Dims[i] != o.Dims[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (m *Dataspace) Clone() *Dataspace {
	c := &Dataspace{Kind: m.Kind, Dims: append([]uint64(nil), m.Dims...)}
	if m.MaxDims != nil {
		c.MaxDims = append([]uint64(nil), m.MaxDims...)
	}
	return c
}

func (m *Dataspace) Encode(e *binary.Encoder) {
	e.Uint8(2)
	e.Uint8(uint8(len(m.Dims)))
	var flags uint8
	if m.MaxDims != nil {
		flags |= 0x01
	}
	e.Uint8(flags)
	e.Uint8(uint8(m.Kind))
	for _, d := range m.Dims {
		e.Length(d)
	}
	for _, d := range m.MaxDims {
		e.Length(d)
	}
}

func decodeDataspace(d *binary.Decoder) (*Dataspace, error) {
	version := d.Uint8()
	rank := int(d.Uint8())
	flags := d.Uint8()
	m := &Dataspace{}
	switch version {
	case 1:
		d.Skip(5)
		if rank == 0 {
			m.Kind = SpaceScalar
		} else {
			m.Kind = SpaceSimple
		}
	case 2:
		m.Kind = SpaceKind(d.Uint8())
	default:
		return nil, fmt.Errorf("%w: dataspace version %d", ErrUnsupported, version)
	}
	if m.Kind != SpaceSimple {
		return m, nil
	}
	m.Dims = make([]uint64, rank)
	for i := range m.Dims {
		m.Dims[i] = d.Length()
	}
	if flags&0x01 != 0 {
		m.MaxDims = make([]uint64, rank)
		for i := range m.MaxDims {
			m.MaxDims[i] = d.Length()
		}
	}
	return m, nil
}
