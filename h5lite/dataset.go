package h5lite

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strings"

	"github.com/dream3d/h5support/hdf5"
	"github.com/dream3d/h5support/internal/dtype"
)

// DatasetInfo describes a stored dataset.
type DatasetInfo struct {
	Dims     []uint64
	Tag      TypeTag
	ElemSize int
}

// NumElements returns the product of Dims, or an error wrapping
// ErrShapeMismatch if it does not fit in 64 bits.
func (i DatasetInfo) NumElements() (uint64, error) {
	n := uint64(1)
	for _, d := range i.Dims {
		hi, lo := bits.Mul64(n, d)
		if hi != 0 {
			return 0, fmt.Errorf("%w: dims %v overflow", ErrShapeMismatch, i.Dims)
		}
		n = lo
	}
	return n, nil
}

// WriteScalar stores value as a one-element dataset.
func WriteScalar[T Scalar](parent *hdf5.Group, name string, value T, opts ...hdf5.DatasetOption) error {
	o := begin("WriteScalar", objectPath(parent, name))
	createAndWrite(o, parent, name, []uint64{1}, []T{value}, opts)
	return o.end()
}

// WriteVector stores data as a dataset of shape dims. len(data) must equal
// the product of dims. The name must not exist yet.
func WriteVector[T Scalar](parent *hdf5.Group, name string, dims []uint64, data []T, opts ...hdf5.DatasetOption) error {
	o := begin("WriteVector", objectPath(parent, name))
	createAndWrite(o, parent, name, dims, data, opts)
	return o.end()
}

// WriteFixedBuffer stores a caller-owned buffer of shape dims. It behaves
// like WriteVector.
func WriteFixedBuffer[T Scalar](parent *hdf5.Group, name string, dims []uint64, buf []T, opts ...hdf5.DatasetOption) error {
	o := begin("WriteFixedBuffer", objectPath(parent, name))
	createAndWrite(o, parent, name, dims, buf, opts)
	return o.end()
}

// ReplaceOrCreate overwrites the dataset name in place if it exists and
// creates it otherwise. An existing dataset must already have shape dims.
func ReplaceOrCreate[T Scalar](parent *hdf5.Group, name string, dims []uint64, data []T, opts ...hdf5.DatasetOption) error {
	o := begin("ReplaceOrCreate", objectPath(parent, name))
	replaceOrCreate(o, parent, name, dims, data, opts)
	return o.end()
}

func replaceOrCreate[T Scalar](o *op, parent *hdf5.Group, name string, dims []uint64, data []T, opts []hdf5.DatasetOption) {
	mem, space, ok := prepareWrite(o, parent, dims, data)
	if !ok {
		return
	}
	restore := parent.File().SuppressErrors()
	ds, err := parent.OpenDataset(name)
	restore()
	switch {
	case err == nil:
		defer o.close("close dataset", ds)
		stored, err := ds.Space()
		if err != nil {
			o.fail("get dataspace", IOError, err)
			return
		}
		if !stored.Equal(space) {
			o.fail("check shape", ShapeMismatch, fmt.Errorf("stored shape %v, new shape %v", stored, space))
			return
		}
	case errors.Is(err, hdf5.ErrNotFound):
		if ds, err = parent.CreateDataset(name, mem, space, opts...); err != nil {
			o.fail("create dataset", codeFor(err, CreateFailed), err)
			return
		}
		defer o.close("close dataset", ds)
	default:
		o.fail("open dataset", codeFor(err, OpenFailed), err)
		return
	}
	if err := ds.Write(mem, dtype.Bytes(data)); err != nil {
		o.fail("write", codeFor(err, IOError), err)
	}
}

// prepareWrite resolves the memory type and dataspace of a write and checks
// that data fills it exactly.
func prepareWrite[T Scalar](o *op, parent *hdf5.Group, dims []uint64, data []T) (*hdf5.Datatype, hdf5.Dataspace, bool) {
	if !checkParent(o, parent) {
		return nil, hdf5.Dataspace{}, false
	}
	mem, err := TagFor[T]().Datatype()
	if err != nil {
		o.fail("resolve type", UnsupportedType, err)
		return nil, hdf5.Dataspace{}, false
	}
	space, err := hdf5.NewSimpleDataspace(dims...)
	if err != nil {
		o.fail("create dataspace", InvalidArgument, err)
		return nil, hdf5.Dataspace{}, false
	}
	if n := space.NumElements(); uint64(len(data)) != n {
		o.fail("check shape", ShapeMismatch, fmt.Errorf("%d elements for shape %v of %d", len(data), space, n))
		return nil, hdf5.Dataspace{}, false
	}
	return mem, space, true
}

func createAndWrite[T Scalar](o *op, parent *hdf5.Group, name string, dims []uint64, data []T, opts []hdf5.DatasetOption) {
	mem, space, ok := prepareWrite(o, parent, dims, data)
	if !ok {
		return
	}
	ds, err := parent.CreateDataset(name, mem, space, opts...)
	if err != nil {
		o.fail("create dataset", codeFor(err, CreateFailed), err)
		return
	}
	defer o.close("close dataset", ds)
	if err := ds.Write(mem, dtype.Bytes(data)); err != nil {
		o.fail("write", codeFor(err, IOError), err)
	}
}

// ReadScalar reads a one-element dataset.
func ReadScalar[T Scalar](parent *hdf5.Group, name string) (T, error) {
	o := begin("ReadScalar", objectPath(parent, name))
	var v [1]T
	readDataset(o, parent, name, func(n uint64) ([]T, error) {
		if n != 1 {
			return nil, fmt.Errorf("dataset holds %d elements, not 1", n)
		}
		return v[:], nil
	})
	return v[0], o.end()
}

// ReadVector reads a whole dataset into dst, resized to the stored element
// count. dst's capacity is reused when it suffices. On failure the result
// has length zero.
func ReadVector[T Scalar](parent *hdf5.Group, name string, dst []T) ([]T, error) {
	o := begin("ReadVector", objectPath(parent, name))
	out := readDataset(o, parent, name, func(n uint64) ([]T, error) {
		return resize(dst, n)
	})
	if o.failed() {
		return dst[:0], o.end()
	}
	return out, nil
}

// ReadFixedBuffer reads a whole dataset into the front of buf and returns
// the number of elements read. buf is never resized: it must hold at least
// the stored element count.
func ReadFixedBuffer[T Scalar](parent *hdf5.Group, name string, buf []T) (int, error) {
	o := begin("ReadFixedBuffer", objectPath(parent, name))
	out := readDataset(o, parent, name, func(n uint64) ([]T, error) {
		if n > uint64(len(buf)) {
			return nil, fmt.Errorf("buffer of %d elements for %d stored", len(buf), n)
		}
		return buf[:n], nil
	})
	return len(out), o.end()
}

func resize[T Scalar](dst []T, n uint64) ([]T, error) {
	if n > math.MaxInt {
		return nil, fmt.Errorf("%d elements exceed addressable memory", n)
	}
	if uint64(cap(dst)) >= n {
		return dst[:n], nil
	}
	return make([]T, n), nil
}

// readDataset opens name, asks buffer for a destination sized to the
// stored element count, and fills it.
func readDataset[T Scalar](o *op, parent *hdf5.Group, name string, buffer func(n uint64) ([]T, error)) []T {
	if !checkParent(o, parent) {
		return nil
	}
	mem, err := TagFor[T]().Datatype()
	if err != nil {
		o.fail("resolve type", UnsupportedType, err)
		return nil
	}
	ds, err := parent.OpenDataset(name)
	if err != nil {
		o.fail("open dataset", codeFor(err, OpenFailed), err)
		return nil
	}
	defer o.close("close dataset", ds)
	space, err := ds.Space()
	if err != nil {
		o.fail("get dataspace", IOError, err)
		return nil
	}
	dst, err := buffer(space.NumElements())
	if err != nil {
		o.fail("size buffer", ShapeMismatch, err)
		return nil
	}
	raw := make([]byte, len(dst)*mem.Size())
	if err := ds.Read(mem, raw); err != nil {
		o.fail("read", codeFor(err, IOError), err)
		return nil
	}
	if err := dtype.Fill(dst, raw); err != nil {
		o.fail("decode", IOError, err)
		return nil
	}
	return dst
}

// WriteStringDataset stores text as a one-element string dataset sized to
// hold it and its terminator.
func WriteStringDataset(parent *hdf5.Group, name, text string) error {
	o := begin("WriteStringDataset", objectPath(parent, name))
	writeString(o, parent, name, text)
	return o.end()
}

func writeString(o *op, parent *hdf5.Group, name, text string) {
	if !checkParent(o, parent) {
		return
	}
	if strings.IndexByte(text, 0) >= 0 {
		o.fail("check text", InvalidArgument, errors.New("text contains a NUL byte"))
		return
	}
	t, err := hdf5.StringType(len(text) + 1)
	if err != nil {
		o.fail("create datatype", InvalidArgument, err)
		return
	}
	space, err := hdf5.NewSimpleDataspace(1)
	if err != nil {
		o.fail("create dataspace", InvalidArgument, err)
		return
	}
	ds, err := parent.CreateDataset(name, t, space)
	if err != nil {
		o.fail("create dataset", codeFor(err, CreateFailed), err)
		return
	}
	defer o.close("close dataset", ds)
	cell := make([]byte, t.Size())
	t.PutText(cell, text)
	if err := ds.Write(t, cell); err != nil {
		o.fail("write", codeFor(err, IOError), err)
	}
}

// ReadStringDataset reads a one-element string dataset.
func ReadStringDataset(parent *hdf5.Group, name string) (string, error) {
	o := begin("ReadStringDataset", objectPath(parent, name))
	s := readString(o, parent, name)
	return s, o.end()
}

func readString(o *op, parent *hdf5.Group, name string) string {
	if !checkParent(o, parent) {
		return ""
	}
	ds, err := parent.OpenDataset(name)
	if err != nil {
		o.fail("open dataset", codeFor(err, OpenFailed), err)
		return ""
	}
	defer o.close("close dataset", ds)
	t, err := ds.Datatype()
	if err != nil {
		o.fail("get datatype", IOError, err)
		return ""
	}
	if t.Class() != hdf5.ClassString {
		o.fail("check datatype", TypeMismatch, fmt.Errorf("stored type is %v, not a string", t))
		return ""
	}
	space, err := ds.Space()
	if err != nil {
		o.fail("get dataspace", IOError, err)
		return ""
	}
	if n := space.NumElements(); n != 1 {
		o.fail("check shape", ShapeMismatch, fmt.Errorf("string dataset holds %d elements, not 1", n))
		return ""
	}
	cell := make([]byte, t.Size())
	if err := ds.Read(t, cell); err != nil {
		o.fail("read", codeFor(err, IOError), err)
		return ""
	}
	return t.Text(cell)
}

// DatasetExists reports whether name under parent is a dataset. Failed
// lookups are not reported.
func DatasetExists(parent *hdf5.Group, name string) bool {
	if nilHandle(parent) {
		return false
	}
	defer parent.File().SuppressErrors()()
	ds, err := parent.OpenDataset(name)
	if err != nil {
		return false
	}
	ds.Close()
	return true
}

// GetDatasetInfo returns the shape and type of the dataset name.
func GetDatasetInfo(parent *hdf5.Group, name string) (DatasetInfo, error) {
	o := begin("GetDatasetInfo", objectPath(parent, name))
	info := datasetInfo(o, parent, name)
	return info, o.end()
}

func datasetInfo(o *op, parent *hdf5.Group, name string) DatasetInfo {
	var info DatasetInfo
	if !checkParent(o, parent) {
		return info
	}
	ds, err := parent.OpenDataset(name)
	if err != nil {
		o.fail("open dataset", codeFor(err, OpenFailed), err)
		return info
	}
	defer o.close("close dataset", ds)
	space, err := ds.Space()
	if err != nil {
		o.fail("get dataspace", IOError, err)
		return info
	}
	t, err := ds.Datatype()
	if err != nil {
		o.fail("get datatype", IOError, err)
		return info
	}
	info.Dims, info.ElemSize = space.Dims(), t.Size()
	if info.Tag, err = TagForDatatype(t); err != nil {
		o.fail("resolve type", UnsupportedType, err)
	}
	return info
}
