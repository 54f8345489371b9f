// Package filterparams stores the parameters of a filter pipeline in an
// HDF5 file.
//
// The pipeline lives in the /Pipeline group, whose Number_Filters attribute
// holds the filter count. Filter i gets a child group named by its decimal
// index, with a ClassName string attribute, and each of its parameters is
// a dataset in that group.
package filterparams

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dream3d/h5support/diag"
	"github.com/dream3d/h5support/h5lite"
	"github.com/dream3d/h5support/hdf5"
)

const (
	PipelineGroup  = "Pipeline"
	NumFiltersAttr = "Number_Filters"
	ClassNameAttr  = "ClassName"
)

// Filter is a pipeline stage that can persist its parameters.
type Filter interface {
	ClassName() string
	WriteParameters(g *hdf5.Group) error
	ReadParameters(g *hdf5.Group) error
}

// Factory returns a new filter for a class name.
type Factory func(className string) (Filter, error)

// Writer adds filter groups to a file's pipeline group.
type Writer struct {
	pipeline *hdf5.Group
	count    int
}

// NewWriter opens or creates the pipeline group of f.
func NewWriter(f *hdf5.File) (*Writer, error) {
	g, err := h5lite.OpenOrCreateGroup(f.Root(), PipelineGroup)
	if err != nil {
		return nil, err
	}
	return &Writer{pipeline: g}, nil
}

// OpenFilterGroup creates the group of filter index and records its class
// name. The caller closes the returned group.
func (w *Writer) OpenFilterGroup(index int, className string) (*hdf5.Group, error) {
	if index < 0 {
		return nil, fmt.Errorf("filter index %d is negative", index)
	}
	g, err := h5lite.CreateGroup(w.pipeline, strconv.Itoa(index))
	if err != nil {
		return nil, err
	}
	if err := h5lite.WriteStringAttr(g, "", ClassNameAttr, className); err != nil {
		g.Close()
		return nil, err
	}
	w.count = max(w.count, index+1)
	return g, nil
}

// Close records the number of filters and releases the pipeline group.
func (w *Writer) Close() error {
	err := h5lite.WriteScalarAttr(w.pipeline, "", NumFiltersAttr, int32(w.count))
	if cerr := w.pipeline.Close(); err == nil {
		err = cerr
	}
	return err
}

// Reader reads filter groups from a file's pipeline group.
type Reader struct {
	pipeline *hdf5.Group
	n        int
}

// NewReader opens the pipeline group of f.
func NewReader(f *hdf5.File) (*Reader, error) {
	g, err := h5lite.OpenGroup(f.Root(), PipelineGroup)
	if err != nil {
		return nil, err
	}
	n, err := h5lite.ReadScalarAttr[int32](g, "", NumFiltersAttr)
	if err != nil {
		g.Close()
		return nil, err
	}
	if n < 0 {
		g.Close()
		return nil, fmt.Errorf("%s: negative filter count %d", NumFiltersAttr, n)
	}
	return &Reader{pipeline: g, n: int(n)}, nil
}

// NumFilters returns the recorded filter count.
func (r *Reader) NumFilters() int { return r.n }

// OpenFilterGroup opens the group of filter index and returns its class
// name. The caller closes the returned group.
func (r *Reader) OpenFilterGroup(index int) (*hdf5.Group, string, error) {
	if index < 0 || index >= r.n {
		return nil, "", fmt.Errorf("filter index %d out of range [0, %d)", index, r.n)
	}
	g, err := h5lite.OpenGroup(r.pipeline, strconv.Itoa(index))
	if err != nil {
		return nil, "", err
	}
	name, err := h5lite.ReadStringAttr(g, "", ClassNameAttr)
	if err != nil {
		g.Close()
		return nil, "", err
	}
	return g, name, nil
}

// Close releases the pipeline group.
func (r *Reader) Close() error { return r.pipeline.Close() }

// WritePipeline stores filters in order. ctx is checked before each
// filter; a cancelled pipeline keeps the filters already written.
func WritePipeline(ctx context.Context, f *hdf5.File, filters []Filter) (err error) {
	tlog := diag.NewTimeLog()
	w, err := NewWriter(f)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	for i, flt := range filters {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFilter(w, i, flt); err != nil {
			return fmt.Errorf("filter %d (%s): %w", i, flt.ClassName(), err)
		}
	}
	tlog.Debugf("Wrote %d filters to %s", len(filters), f.Path())
	return nil
}

func writeFilter(w *Writer, index int, flt Filter) error {
	g, err := w.OpenFilterGroup(index, flt.ClassName())
	if err != nil {
		return err
	}
	defer g.Close()
	return flt.WriteParameters(g)
}

// ReadPipeline rebuilds the stored filters with factory. ctx is checked
// before each filter.
func ReadPipeline(ctx context.Context, f *hdf5.File, factory Factory) ([]Filter, error) {
	tlog := diag.NewTimeLog()
	r, err := NewReader(f)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	filters := make([]Filter, 0, r.NumFilters())
	for i := 0; i < r.NumFilters(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		flt, err := readFilter(r, i, factory)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		filters = append(filters, flt)
	}
	tlog.Debugf("Read %d filters from %s", len(filters), f.Path())
	return filters, nil
}

func readFilter(r *Reader, index int, factory Factory) (Filter, error) {
	g, className, err := r.OpenFilterGroup(index)
	if err != nil {
		return nil, err
	}
	defer g.Close()
	flt, err := factory(className)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", className, err)
	}
	if err := flt.ReadParameters(g); err != nil {
		return nil, fmt.Errorf("%s: %w", className, err)
	}
	return flt, nil
}
