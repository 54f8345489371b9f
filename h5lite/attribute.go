package h5lite

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dream3d/h5support/hdf5"
	"github.com/dream3d/h5support/internal/dtype"
)

// AttributeInfo describes a stored attribute.
type AttributeInfo = DatasetInfo

// Attribute functions address the object named objectName under parent.
// An objectName of "" or "." addresses parent itself, which may then be a
// dataset as well as a group.

// WriteScalarAttr stores value as a one-element attribute, replacing any
// attribute of the same name.
func WriteScalarAttr[T Scalar](parent hdf5.Object, objectName, attrName string, value T) error {
	o := begin("WriteScalarAttr", attrPath(parent, objectName, attrName))
	writeValuesAttr(o, parent, objectName, attrName, []T{value})
	return o.end()
}

// WriteVectorAttr stores values as a one-dimensional attribute, replacing
// any attribute of the same name. values must not be empty.
func WriteVectorAttr[T Scalar](parent hdf5.Object, objectName, attrName string, values []T) error {
	o := begin("WriteVectorAttr", attrPath(parent, objectName, attrName))
	writeValuesAttr(o, parent, objectName, attrName, values)
	return o.end()
}

func writeValuesAttr[T Scalar](o *op, parent hdf5.Object, objectName, attrName string, values []T) {
	mem, err := TagFor[T]().Datatype()
	if err != nil {
		o.fail("resolve type", UnsupportedType, err)
		return
	}
	space, err := hdf5.NewSimpleDataspace(uint64(len(values)))
	if err != nil {
		o.fail("create dataspace", InvalidArgument, err)
		return
	}
	obj, release := openTarget(o, parent, objectName)
	if obj == nil {
		return
	}
	defer release()
	putAttr(o, obj, attrName, mem, space, dtype.Bytes(values))
}

// WriteStringAttr stores text as a string attribute, replacing any
// attribute of the same name.
func WriteStringAttr(parent hdf5.Object, objectName, attrName, text string) error {
	o := begin("WriteStringAttr", attrPath(parent, objectName, attrName))
	writeStringAttr(o, parent, objectName, attrName, text)
	return o.end()
}

func writeStringAttr(o *op, parent hdf5.Object, objectName, attrName, text string) {
	obj, release := openTarget(o, parent, objectName)
	if obj == nil {
		return
	}
	defer release()
	putStringAttr(o, obj, attrName, text)
}

// WriteStringAttrs stores every entry of attrs as a string attribute, in
// key order. A failed entry does not stop the others.
func WriteStringAttrs(parent hdf5.Object, objectName string, attrs map[string]string) error {
	o := begin("WriteStringAttrs", objectPath(parent, objectName))
	obj, release := openTarget(o, parent, objectName)
	if obj != nil {
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			putStringAttr(o, obj, k, attrs[k])
		}
		release()
	}
	return o.end()
}

func putStringAttr(o *op, obj hdf5.Object, attrName, text string) {
	if strings.IndexByte(text, 0) >= 0 {
		o.fail("check text", InvalidArgument, fmt.Errorf("attribute %q: text contains a NUL byte", attrName))
		return
	}
	t, err := hdf5.StringType(len(text) + 1)
	if err != nil {
		o.fail("create datatype", InvalidArgument, err)
		return
	}
	cell := make([]byte, t.Size())
	t.PutText(cell, text)
	putAttr(o, obj, attrName, t, hdf5.NewScalarDataspace(), cell)
}

// putAttr deletes any attribute called attrName on obj and creates it anew
// holding data.
func putAttr(o *op, obj hdf5.Object, attrName string, t *hdf5.Datatype, space hdf5.Dataspace, data []byte) {
	exists, err := obj.HasAttribute(attrName)
	if err != nil {
		o.fail("check attribute", IOError, err)
		return
	}
	if exists {
		if err := obj.DeleteAttribute(attrName); err != nil {
			o.fail("delete attribute", codeFor(err, IOError), err)
			return
		}
	}
	a, err := obj.CreateAttribute(attrName, t, space)
	if err != nil {
		o.fail("create attribute", codeFor(err, CreateFailed), err)
		return
	}
	defer o.close("close attribute", a)
	if err := a.Write(t, data); err != nil {
		o.fail("write", codeFor(err, IOError), err)
	}
}

// ReadScalarAttr reads a one-element attribute.
func ReadScalarAttr[T Scalar](parent hdf5.Object, objectName, attrName string) (T, error) {
	o := begin("ReadScalarAttr", attrPath(parent, objectName, attrName))
	var v [1]T
	readValuesAttr(o, parent, objectName, attrName, func(n uint64) ([]T, error) {
		if n != 1 {
			return nil, fmt.Errorf("attribute holds %d elements, not 1", n)
		}
		return v[:], nil
	})
	return v[0], o.end()
}

// ReadVectorAttr reads a whole attribute into dst, resized to the stored
// element count. On failure the result has length zero.
func ReadVectorAttr[T Scalar](parent hdf5.Object, objectName, attrName string, dst []T) ([]T, error) {
	o := begin("ReadVectorAttr", attrPath(parent, objectName, attrName))
	out := readValuesAttr(o, parent, objectName, attrName, func(n uint64) ([]T, error) {
		return resize(dst, n)
	})
	if o.failed() {
		return dst[:0], o.end()
	}
	return out, nil
}

func readValuesAttr[T Scalar](o *op, parent hdf5.Object, objectName, attrName string, buffer func(n uint64) ([]T, error)) []T {
	mem, err := TagFor[T]().Datatype()
	if err != nil {
		o.fail("resolve type", UnsupportedType, err)
		return nil
	}
	var out []T
	withAttr(o, parent, objectName, attrName, func(a *hdf5.Attribute) {
		space, err := a.Space()
		if err != nil {
			o.fail("get dataspace", IOError, err)
			return
		}
		dst, err := buffer(space.NumElements())
		if err != nil {
			o.fail("size buffer", ShapeMismatch, err)
			return
		}
		raw := make([]byte, len(dst)*mem.Size())
		if err := a.Read(mem, raw); err != nil {
			o.fail("read", codeFor(err, IOError), err)
			return
		}
		if err := dtype.Fill(dst, raw); err != nil {
			o.fail("decode", IOError, err)
			return
		}
		out = dst
	})
	return out
}

// ReadStringAttr reads a one-element string attribute.
func ReadStringAttr(parent hdf5.Object, objectName, attrName string) (string, error) {
	o := begin("ReadStringAttr", attrPath(parent, objectName, attrName))
	s := readStringAttr(o, parent, objectName, attrName)
	return s, o.end()
}

func readStringAttr(o *op, parent hdf5.Object, objectName, attrName string) string {
	var s string
	withAttr(o, parent, objectName, attrName, func(a *hdf5.Attribute) {
		t, err := a.Datatype()
		if err != nil {
			o.fail("get datatype", IOError, err)
			return
		}
		if t.Class() != hdf5.ClassString {
			o.fail("check datatype", TypeMismatch, fmt.Errorf("stored type is %v, not a string", t))
			return
		}
		space, err := a.Space()
		if err != nil {
			o.fail("get dataspace", IOError, err)
			return
		}
		if n := space.NumElements(); n != 1 {
			o.fail("check shape", ShapeMismatch, fmt.Errorf("string attribute holds %d elements, not 1", n))
			return
		}
		cell := make([]byte, t.Size())
		if err := a.Read(t, cell); err != nil {
			o.fail("read", codeFor(err, IOError), err)
			return
		}
		s = t.Text(cell)
	})
	return s
}

// AttributeExists reports whether the object has an attribute called
// attrName. Failed lookups are not reported.
func AttributeExists(parent hdf5.Object, objectName, attrName string) bool {
	if nilHandle(parent) {
		return false
	}
	defer parent.File().SuppressErrors()()
	o := &op{}
	obj, release := openTarget(o, parent, objectName)
	if obj == nil {
		return false
	}
	defer release()
	ok, err := obj.HasAttribute(attrName)
	return err == nil && ok
}

// GetAttributeInfo returns the shape and type of an attribute.
func GetAttributeInfo(parent hdf5.Object, objectName, attrName string) (AttributeInfo, error) {
	o := begin("GetAttributeInfo", attrPath(parent, objectName, attrName))
	var info AttributeInfo
	withAttr(o, parent, objectName, attrName, func(a *hdf5.Attribute) {
		space, err := a.Space()
		if err != nil {
			o.fail("get dataspace", IOError, err)
			return
		}
		t, err := a.Datatype()
		if err != nil {
			o.fail("get datatype", IOError, err)
			return
		}
		info.Dims, info.ElemSize = space.Dims(), t.Size()
		if info.Tag, err = TagForDatatype(t); err != nil {
			o.fail("resolve type", UnsupportedType, err)
		}
	})
	return info, o.end()
}

// AttributeNames lists the object's attributes in creation order.
func AttributeNames(parent hdf5.Object, objectName string) ([]string, error) {
	o := begin("AttributeNames", objectPath(parent, objectName))
	var names []string
	obj, release := openTarget(o, parent, objectName)
	if obj != nil {
		var err error
		if names, err = obj.AttributeNames(); err != nil {
			o.fail("list attributes", IOError, err)
		}
		release()
	}
	return names, o.end()
}

// withAttr opens the attribute, runs fn, and closes what it opened.
func withAttr(o *op, parent hdf5.Object, objectName, attrName string, fn func(a *hdf5.Attribute)) {
	obj, release := openTarget(o, parent, objectName)
	if obj == nil {
		return
	}
	defer release()
	a, err := obj.OpenAttribute(attrName)
	if err != nil {
		o.fail("open attribute", codeFor(err, OpenFailed), err)
		return
	}
	defer o.close("close attribute", a)
	fn(a)
}

// openTarget returns the object an attribute operation addresses. release
// closes it when it was opened here and does nothing for parent itself.
func openTarget(o *op, parent hdf5.Object, objectName string) (obj hdf5.Object, release func()) {
	if !checkParent(o, parent) {
		return nil, nil
	}
	if objectName == "" || objectName == "." {
		return parent, func() {}
	}
	g, ok := parent.(*hdf5.Group)
	if !ok {
		o.fail("open object", InvalidArgument, errors.New("object names are resolved against groups only"))
		return nil, nil
	}
	obj, err := g.OpenObject(objectName)
	if err != nil {
		o.fail("open object", codeFor(err, OpenFailed), err)
		return nil, nil
	}
	return obj, func() { o.close("close object", obj) }
}

func attrPath(parent hdf5.Object, objectName, attrName string) string {
	return hdf5.JoinAttrPath(objectPath(parent, objectName), attrName)
}
