package hdf5

import (
	"fmt"
	"reflect"

	"github.com/dream3d/h5support/internal/dtype"
	"github.com/dream3d/h5support/internal/message"
)

// Class is the broad category of a datatype.
type Class int

const (
	ClassInteger Class = iota
	ClassFloat
	ClassString
	ClassOther
)

func (c Class) String() string {
	switch c {
	case ClassInteger:
		return "integer"
	case ClassFloat:
		return "float"
	case ClassString:
		return "string"
	}
	return "other"
}

// Datatype is the element type of a dataset or attribute, as stored in
// the file or as laid out in memory. Datatypes are immutable.
type Datatype struct {
	m *message.Datatype
}

// Native memory types. Numbers are little-endian.
var (
	NativeInt8    = &Datatype{message.NewInteger(1, true)}
	NativeInt16   = &Datatype{message.NewInteger(2, true)}
	NativeInt32   = &Datatype{message.NewInteger(4, true)}
	NativeInt64   = &Datatype{message.NewInteger(8, true)}
	NativeUint8   = &Datatype{message.NewInteger(1, false)}
	NativeUint16  = &Datatype{message.NewInteger(2, false)}
	NativeUint32  = &Datatype{message.NewInteger(4, false)}
	NativeUint64  = &Datatype{message.NewInteger(8, false)}
	NativeFloat32 = &Datatype{message.NewFloat(4)}
	NativeFloat64 = &Datatype{message.NewFloat(8)}
)

// StringType returns a null-terminated ASCII string type of size bytes,
// terminator included.
func StringType(size int) (*Datatype, error) {
	if size < 1 || uint64(size) > 1<<32-1 {
		return nil, fmt.Errorf("%w: string size %d", ErrInvalidShape, size)
	}
	return &Datatype{message.NewString(uint32(size), message.CharsetASCII)}, nil
}

// NativeFor returns the memory type of Go values of kind k. Bool maps to
// NativeUint8. Platform-width kinds (int, uint, uintptr) have none.
func NativeFor(k reflect.Kind) (*Datatype, error) {
	m, err := dtype.Native(k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return &Datatype{m}, nil
}

// Class returns the datatype class.
func (t *Datatype) Class() Class {
	switch t.m.Class {
	case message.ClassFixed:
		return ClassInteger
	case message.ClassFloat:
		return ClassFloat
	case message.ClassString:
		return ClassString
	}
	return ClassOther
}

// Size returns the size of one element in bytes.
func (t *Datatype) Size() int { return int(t.m.Size) }

// Signed reports whether an integer type is signed.
func (t *Datatype) Signed() bool { return t.m.Signed }

// Equal reports whether both types have the same stored layout.
func (t *Datatype) Equal(o *Datatype) bool { return t.m.Equal(o.m) }

// String returns a short name such as "int32", "float64" or "string[8]".
func (t *Datatype) String() string { return t.m.String() }

// Text decodes the string held in one element of a string type.
func (t *Datatype) Text(cell []byte) string { return dtype.Text(t.m, cell) }

// PutText encodes s into one element of a string type, truncating it to fit.
func (t *Datatype) PutText(cell []byte, s string) { dtype.PutText(t.m, cell, s) }
