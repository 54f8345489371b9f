package hdf5

import (
	"fmt"

	"github.com/dream3d/h5support/internal/message"
)

// Dataspace is the shape of a dataset or attribute. The zero value is a
// scalar.
type Dataspace struct {
	dims []uint64
}

// NewSimpleDataspace returns a dataspace of rank len(dims). The rank must
// be at least one, every extent positive, and the element count must fit
// in 64 bits.
func NewSimpleDataspace(dims ...uint64) (Dataspace, error) {
	if len(dims) == 0 {
		return Dataspace{}, fmt.Errorf("%w: rank 0", ErrInvalidShape)
	}
	for i, d := range dims {
		if d == 0 {
			return Dataspace{}, fmt.Errorf("%w: extent %d of dimension %d", ErrInvalidShape, d, i)
		}
	}
	if _, err := message.Product(dims); err != nil {
		return Dataspace{}, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	return Dataspace{dims: append([]uint64(nil), dims...)}, nil
}

// NewScalarDataspace returns the dataspace of a single element.
func NewScalarDataspace() Dataspace {
	return Dataspace{}
}

func spaceFrom(m *message.Dataspace) (Dataspace, error) {
	switch m.Kind {
	case message.SpaceScalar:
		return Dataspace{}, nil
	case message.SpaceSimple:
		if _, err := m.Elements(); err != nil {
			return Dataspace{}, fmt.Errorf("%w: %v", ErrInvalidShape, err)
		}
		return Dataspace{dims: append([]uint64(nil), m.Dims...)}, nil
	}
	return Dataspace{}, fmt.Errorf("%w: null dataspace", ErrUnsupported)
}

func (s Dataspace) message() *message.Dataspace {
	if s.IsScalar() {
		return message.NewScalar()
	}
	return message.NewSimple(s.dims)
}

// IsScalar reports whether the dataspace holds a single element with no
// dimensions.
func (s Dataspace) IsScalar() bool { return len(s.dims) == 0 }

// Rank returns the number of dimensions; 0 for a scalar.
func (s Dataspace) Rank() int { return len(s.dims) }

// Dims returns a copy of the extents.
func (s Dataspace) Dims() []uint64 { return append([]uint64(nil), s.dims...) }

// NumElements returns the product of the extents; 1 for a scalar.
func (s Dataspace) NumElements() uint64 {
	n := uint64(1)
	for _, d := range s.dims {
		n *= d
	}
	return n
}

// Equal reports whether two dataspaces have the same extents.
func (s Dataspace) Equal(o Dataspace) bool {
	if len(s.dims) != len(o.dims) {
		return false
	}
	for i := range s.dims {
		if s.dims[i] != o.dims[i] {
			return false
		}
	}
	return true
}

func (s Dataspace) String() string {
	if s.IsScalar() {
		return "scalar"
	}
	return fmt.Sprint(s.dims)
}
