// Package h5lite reads and writes typed values in HDF5 files: scalars,
// N-dimensional buffers, strings and string lists as datasets, and small
// values as attributes.
//
// Every operation opens the handles it needs, checks each step, and closes
// everything it opened before returning, whether it succeeds or not. It
// never closes a handle passed in by the caller. Failures are returned as
// *Error values carrying a negative Code, and each one is also logged
// through the diag package.
package h5lite

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/dream3d/h5support/hdf5"
)

// TypeTag identifies a supported element type.
type TypeTag int

const (
	Invalid TypeTag = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Bool
	String
)

// Scalar is the set of element types the typed engines accept.
// Platform-width integers are not members.
type Scalar interface {
	int8 | int16 | int32 | int64 |
		uint8 | uint16 | uint32 | uint64 |
		float32 | float64 | bool
}

// TypeAttrName is the attribute that records a dataset's type tag name.
const TypeAttrName = "Name"

var tagNames = [...]string{
	Invalid: "H5T_INVALID",
	Int8:    "H5T_NATIVE_INT8",
	Int16:   "H5T_NATIVE_INT16",
	Int32:   "H5T_NATIVE_INT32",
	Int64:   "H5T_NATIVE_INT64",
	Uint8:   "H5T_NATIVE_UINT8",
	Uint16:  "H5T_NATIVE_UINT16",
	Uint32:  "H5T_NATIVE_UINT32",
	Uint64:  "H5T_NATIVE_UINT64",
	Float32: "H5T_NATIVE_FLOAT",
	Float64: "H5T_NATIVE_DOUBLE",
	Bool:    "H5T_NATIVE_HBOOL",
	String:  "H5T_STRING",
}

// aliases maps the C and Go spellings of each type onto its tag.
var aliases = map[string]TypeTag{
	"int8_t": Int8, "int16_t": Int16, "int32_t": Int32, "int64_t": Int64,
	"uint8_t": Uint8, "uint16_t": Uint16, "uint32_t": Uint32, "uint64_t": Uint64,
	"int8": Int8, "int16": Int16, "int32": Int32, "int64": Int64,
	"uint8": Uint8, "uint16": Uint16, "uint32": Uint32, "uint64": Uint64,
	"float": Float32, "float32": Float32,
	"double": Float64, "float64": Float64,
	"bool": Bool, "string": String,
}

// String returns the canonical name of t.
func (t TypeTag) String() string {
	if t < 0 || int(t) >= len(tagNames) {
		return fmt.Sprintf("TypeTag(%d)", int(t))
	}
	return tagNames[t]
}

// CName returns the C spelling of t as used in array type names, such as
// "int32_t" or "float".
func (t TypeTag) CName() string {
	switch t {
	case Float32:
		return "float"
	case Float64:
		return "double"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Invalid:
		return "invalid"
	}
	return strings.ToLower(strings.TrimPrefix(t.String(), "H5T_NATIVE_")) + "_t"
}

// Numeric reports whether t is a fixed-width number or bool.
func (t TypeTag) Numeric() bool { return t >= Int8 && t <= Bool }

// Size returns the element size of a numeric tag in bytes, or 0.
func (t TypeTag) Size() int {
	switch t {
	case Int8, Uint8, Bool:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	}
	return 0
}

// Datatype returns the memory type of a numeric tag.
func (t TypeTag) Datatype() (*hdf5.Datatype, error) {
	switch t {
	case Int8:
		return hdf5.NativeInt8, nil
	case Int16:
		return hdf5.NativeInt16, nil
	case Int32:
		return hdf5.NativeInt32, nil
	case Int64:
		return hdf5.NativeInt64, nil
	case Uint8, Bool:
		return hdf5.NativeUint8, nil
	case Uint16:
		return hdf5.NativeUint16, nil
	case Uint32:
		return hdf5.NativeUint32, nil
	case Uint64:
		return hdf5.NativeUint64, nil
	case Float32:
		return hdf5.NativeFloat32, nil
	case Float64:
		return hdf5.NativeFloat64, nil
	}
	return nil, fmt.Errorf("%w: %v has no fixed memory type", ErrUnsupportedType, t)
}

var kindTags = map[reflect.Kind]TypeTag{
	reflect.Int8: Int8, reflect.Int16: Int16, reflect.Int32: Int32, reflect.Int64: Int64,
	reflect.Uint8: Uint8, reflect.Uint16: Uint16, reflect.Uint32: Uint32, reflect.Uint64: Uint64,
	reflect.Float32: Float32, reflect.Float64: Float64,
	reflect.Bool: Bool, reflect.String: String,
}

// TagFor returns the tag of T.
func TagFor[T Scalar]() TypeTag {
	return kindTags[reflect.TypeOf((*T)(nil)).Elem().Kind()]
}

// TagOf returns the tag of v's type. Types outside Scalar and string fail
// with UnsupportedType.
func TagOf(v any) (TypeTag, error) {
	o := begin("TagOf", fmt.Sprintf("%T", v))
	tag := tagOf(o, reflect.TypeOf(v))
	return tag, o.end()
}

func tagOf(o *op, t reflect.Type) TypeTag {
	if t == nil {
		o.fail("resolve type", UnsupportedType, fmt.Errorf("nil has no type"))
		return Invalid
	}
	switch t.Kind() {
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		o.fail("resolve type", UnsupportedType,
			fmt.Errorf("%v has platform-dependent width; use a fixed-width type such as %s64", t, strings.TrimSuffix(t.Kind().String(), "ptr")))
		return Invalid
	}
	if tag, ok := kindTags[t.Kind()]; ok {
		return tag
	}
	o.fail("resolve type", UnsupportedType, fmt.Errorf("no type tag for %v", t))
	return Invalid
}

// TagForName returns the tag called name. It accepts canonical names and
// the C and Go spellings of each type.
func TagForName(name string) (TypeTag, error) {
	for t, n := range tagNames {
		if n == name && TypeTag(t) != Invalid {
			return TypeTag(t), nil
		}
	}
	if t, ok := aliases[name]; ok {
		return t, nil
	}
	return Invalid, &Error{Op: "TagForName", Object: name, Code: UnsupportedType, Err: ErrUnknownName,
		Failures: []Failure{{Step: "resolve name", Code: UnsupportedType, Err: ErrUnknownName}}}
}

// TagForDatatype returns the tag that reads a stored type without loss.
// One-byte unsigned integers map to Uint8; a Bool annotation is needed to
// tell them apart from Bool.
func TagForDatatype(t *hdf5.Datatype) (TypeTag, error) {
	switch t.Class() {
	case hdf5.ClassInteger:
		tags := map[int][2]TypeTag{1: {Uint8, Int8}, 2: {Uint16, Int16}, 4: {Uint32, Int32}, 8: {Uint64, Int64}}
		if pair, ok := tags[t.Size()]; ok {
			if t.Signed() {
				return pair[1], nil
			}
			return pair[0], nil
		}
	case hdf5.ClassFloat:
		switch t.Size() {
		case 4:
			return Float32, nil
		case 8:
			return Float64, nil
		}
	case hdf5.ClassString:
		return String, nil
	}
	return Invalid, fmt.Errorf("%w: no type tag for %v", ErrUnsupportedType, t)
}

// AnnotateType records tag as the TypeAttrName attribute of the dataset
// name under parent.
func AnnotateType(parent *hdf5.Group, name string, tag TypeTag) error {
	o := begin("AnnotateType", objectPath(parent, name))
	writeStringAttr(o, parent, name, TypeAttrName, tag.String())
	return o.end()
}

// ReadTypeAnnotation returns the tag recorded by AnnotateType.
func ReadTypeAnnotation(parent *hdf5.Group, name string) (TypeTag, error) {
	o := begin("ReadTypeAnnotation", objectPath(parent, name))
	s := readStringAttr(o, parent, name, TypeAttrName)
	if o.failed() {
		return Invalid, o.end()
	}
	tag, err := TagForName(s)
	if err != nil {
		o.fail("resolve name", UnsupportedType, fmt.Errorf("%w: %q", ErrUnknownName, s))
		return Invalid, o.end()
	}
	return tag, nil
}
