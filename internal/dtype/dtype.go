// Package dtype maps Go element types onto stored datatypes and converts
// raw element buffers between two datatypes.
//
// Element buffers cross the package boundary as little-endian bytes. On
// little-endian hosts the typed slice is reinterpreted in place and copied
// once; big-endian hosts swap bytes during the copy.
package dtype

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/dream3d/h5support/internal/message"
)

// ErrTypeMismatch is returned when no conversion exists between two types.
var ErrTypeMismatch = errors.New("datatype mismatch")

// Element is the closed set of fixed-width element types.
type Element interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | ~bool
}

// KindOf returns the reflect kind underlying T.
func KindOf[T Element]() reflect.Kind {
	return reflect.TypeOf((*T)(nil)).Elem().Kind()
}

// Native returns the stored datatype used for values of kind k. Booleans
// are stored as unsigned bytes.
func Native(k reflect.Kind) (*message.Datatype, error) {
	switch k {
	case reflect.Int8:
		return message.NewInteger(1, true), nil
	case reflect.Int16:
		return message.NewInteger(2, true), nil
	case reflect.Int32:
		return message.NewInteger(4, true), nil
	case reflect.Int64:
		return message.NewInteger(8, true), nil
	case reflect.Uint8, reflect.Bool:
		return message.NewInteger(1, false), nil
	case reflect.Uint16:
		return message.NewInteger(2, false), nil
	case reflect.Uint32:
		return message.NewInteger(4, false), nil
	case reflect.Uint64:
		return message.NewInteger(8, false), nil
	case reflect.Float32:
		return message.NewFloat(4), nil
	case reflect.Float64:
		return message.NewFloat(8), nil
	}
	return nil, fmt.Errorf("no stored datatype for Go kind %s", k)
}

var littleEndianHost = func() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()

// Bytes returns the little-endian encoding of s.
func Bytes[T Element](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(s[0]))
	raw := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*size)
	out := make([]byte, len(raw))
	copy(out, raw)
	if !littleEndianHost {
		swap(out, size)
	}
	return out
}

// Fill decodes little-endian bytes into s. len(b) must be len(s) times the
// element size.
func Fill[T Element](s []T, b []byte) error {
	if len(s) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(s[0]))
	if len(b) != len(s)*size {
		return fmt.Errorf("fill %d elements of %d bytes from %d bytes", len(s), size, len(b))
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(b))
	if KindOf[T]() == reflect.Bool {
		// Any nonzero byte is true; a Go bool must hold exactly 0 or 1.
		for i, v := range b {
			raw[i] = 0
			if v != 0 {
				raw[i] = 1
			}
		}
		return nil
	}
	copy(raw, b)
	if !littleEndianHost {
		swap(raw, size)
	}
	return nil
}

func swap(b []byte, size int) {
	if size == 1 {
		return
	}
	for i := 0; i+size <= len(b); i += size {
		e := b[i : i+size]
		for l, r := 0, size-1; l < r; l, r = l+1, r-1 {
			e[l], e[r] = e[r], e[l]
		}
	}
}
