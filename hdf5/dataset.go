package hdf5

import (
	"fmt"

	"github.com/dream3d/h5support/internal/dtype"
	"github.com/dream3d/h5support/internal/filter"
	"github.com/dream3d/h5support/internal/layout"
	"github.com/dream3d/h5support/internal/message"
)

// Dataset is an open dataset.
type Dataset struct {
	object
}

// StorageInfo describes how a dataset's raw data is stored.
type StorageInfo struct {
	Layout  string   // "compact", "contiguous" or "chunked"
	Filters []string // filter names in pipeline order
	Size    uint64   // bytes of raw data in the file
}

// dataset holds the decoded messages a read or write needs.
type dataset struct {
	dtype    *message.Datatype
	space    *message.Dataspace
	layout   *message.Layout
	pipeline *message.Pipeline
}

func (d *Dataset) parts() (*dataset, error) {
	h := d.node.header
	var ds dataset
	var ok bool
	if ds.dtype, ok = h.Find(message.TypeDatatype).(*message.Datatype); !ok {
		return nil, fmt.Errorf("%w: dataset has no datatype message", ErrUnsupported)
	}
	if ds.space, ok = h.Find(message.TypeDataspace).(*message.Dataspace); !ok {
		return nil, fmt.Errorf("%w: dataset has no dataspace message", ErrUnsupported)
	}
	if ds.layout, ok = h.Find(message.TypeLayout).(*message.Layout); !ok {
		return nil, fmt.Errorf("%w: dataset has no layout message", ErrUnsupported)
	}
	ds.pipeline, _ = h.Find(message.TypePipeline).(*message.Pipeline)
	return &ds, nil
}

// Space returns the dataset's shape.
func (d *Dataset) Space() (Dataspace, error) {
	if err := d.check(); err != nil {
		return Dataspace{}, d.fail("get space", err)
	}
	ds, err := d.parts()
	if err != nil {
		return Dataspace{}, d.fail("get space", err)
	}
	s, err := spaceFrom(ds.space)
	return s, d.fail("get space", err)
}

// Datatype returns the stored element type.
func (d *Dataset) Datatype() (*Datatype, error) {
	if err := d.check(); err != nil {
		return nil, d.fail("get type", err)
	}
	ds, err := d.parts()
	if err != nil {
		return nil, d.fail("get type", err)
	}
	return &Datatype{ds.dtype.Clone()}, nil
}

// StorageInfo returns the layout, filters and stored size of the raw data.
func (d *Dataset) StorageInfo() (StorageInfo, error) {
	if err := d.check(); err != nil {
		return StorageInfo{}, d.fail("get storage", err)
	}
	ds, err := d.parts()
	if err != nil {
		return StorageInfo{}, d.fail("get storage", err)
	}
	info := StorageInfo{
		Layout: ds.layout.Class.String(),
		Size:   layout.StorageSize(ds.layout, d.file.sizes),
	}
	if ds.pipeline != nil {
		for _, f := range ds.pipeline.Filters {
			info.Filters = append(info.Filters, filter.Name(f.ID))
		}
	}
	return info, nil
}

// StorageSize returns the number of bytes of raw data in the file.
func (d *Dataset) StorageSize() (uint64, error) {
	info, err := d.StorageInfo()
	return info.Size, err
}

// Read reads every element into dst, converting from the stored type to
// mem. len(dst) must be the element count times mem.Size().
func (d *Dataset) Read(mem *Datatype, dst []byte) error {
	if err := d.check(); err != nil {
		return d.fail("read", err)
	}
	return d.fail("read", d.read(mem, dst))
}

func (d *Dataset) read(mem *Datatype, dst []byte) error {
	ds, err := d.parts()
	if err != nil {
		return err
	}
	n, err := ds.space.Elements()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	if want := n * uint64(mem.Size()); uint64(len(dst)) != want {
		return fmt.Errorf("%w: %d bytes for %d elements of %v", ErrSizeMismatch, len(dst), n, mem)
	}
	if !ds.dtype.Supported() {
		return fmt.Errorf("%w: stored type %v", ErrUnsupported, ds.dtype)
	}
	p, err := filter.Build(ds.pipeline, int(ds.dtype.Size))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	raw, err := layout.Read(d.file.store, d.file.sizes, ds.layout, p, n*uint64(ds.dtype.Size))
	if err != nil {
		return err
	}
	out, err := dtype.Convert(mem.m, ds.dtype, raw, n)
	if err != nil {
		return err
	}
	copy(dst, out)
	return nil
}

// Write replaces every element with src, converting from mem to the
// stored type. len(src) must be the element count times mem.Size().
func (d *Dataset) Write(mem *Datatype, src []byte) error {
	if err := d.checkWrite(); err != nil {
		return d.fail("write", err)
	}
	return d.fail("write", d.write(mem, src))
}

func (d *Dataset) write(mem *Datatype, src []byte) error {
	ds, err := d.parts()
	if err != nil {
		return err
	}
	n, err := ds.space.Elements()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	if want := n * uint64(mem.Size()); uint64(len(src)) != want {
		return fmt.Errorf("%w: %d bytes for %d elements of %v", ErrSizeMismatch, len(src), n, mem)
	}
	data, err := dtype.Convert(ds.dtype, mem.m, src, n)
	if err != nil {
		return err
	}
	p, err := filter.Build(ds.pipeline, int(ds.dtype.Size))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	changed, err := layout.Write(d.file.store, d.file.alloc, d.file.sizes, ds.layout, p, data)
	if changed {
		d.node.dirty = true
	}
	return err
}
