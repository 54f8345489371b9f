// Package voxel stores image-grid data containers: a regular grid geometry
// and any number of per-cell arrays.
//
// Layout:
//
//	/VoxelDataContainer
//	    DIMENSIONS  int64[3]   x, y, z cell counts
//	    SPACING     float32[3]
//	    ORIGIN      float32[3]
//	    CELL_DATA/
//	        <array>  [z, y, x] or [z, y, x, components]
//	                 @NumComponents int32
//	                 @ObjectType    "DataArray<float>", ...
//	                 @Name          element type name
package voxel

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/dustin/go-humanize"

	"github.com/dream3d/h5support/diag"
	"github.com/dream3d/h5support/h5lite"
	"github.com/dream3d/h5support/hdf5"
)

const (
	ContainerGroup    = "VoxelDataContainer"
	CellDataGroup     = "CELL_DATA"
	DimensionsName    = "DIMENSIONS"
	SpacingName       = "SPACING"
	OriginName        = "ORIGIN"
	NumComponentsAttr = "NumComponents"
	ObjectTypeAttr    = "ObjectType"
)

// ErrGeometry is returned for a missing or invalid geometry.
var ErrGeometry = errors.New("invalid voxel geometry")

// Geometry is a regular grid of Dims[0] x Dims[1] x Dims[2] cells.
type Geometry struct {
	Dims    [3]int64
	Spacing [3]float32
	Origin  [3]float32
}

// NumCells returns the number of cells, or an error if a dimension is not
// positive or the product overflows.
func (g Geometry) NumCells() (uint64, error) {
	n := uint64(1)
	for _, d := range g.Dims {
		if d <= 0 {
			return 0, fmt.Errorf("%w: dimensions %v", ErrGeometry, g.Dims)
		}
		hi, lo := bits.Mul64(n, uint64(d))
		if hi != 0 {
			return 0, fmt.Errorf("%w: dimensions %v overflow", ErrGeometry, g.Dims)
		}
		n = lo
	}
	return n, nil
}

// Values returns the number of values in an array with comps components
// per cell.
func (g Geometry) Values(comps int) (uint64, error) {
	cells, err := g.NumCells()
	if err != nil {
		return 0, err
	}
	if comps < 1 {
		return 0, fmt.Errorf("%w: %d components", ErrGeometry, comps)
	}
	hi, n := bits.Mul64(cells, uint64(comps))
	if hi != 0 {
		return 0, fmt.Errorf("%w: %d cells of %d components overflow", ErrGeometry, cells, comps)
	}
	return n, nil
}

// shape returns the dataset shape of an array with comps components.
func (g Geometry) shape(comps int) []uint64 {
	dims := []uint64{uint64(g.Dims[2]), uint64(g.Dims[1]), uint64(g.Dims[0])}
	if comps > 1 {
		dims = append(dims, uint64(comps))
	}
	return dims
}

// ArrayInfo describes one cell array.
type ArrayInfo struct {
	Name       string
	Tag        h5lite.TypeTag
	Components int
}

// ObjectType returns the array class name recorded for a tag, such as
// "DataArray<int32_t>".
func ObjectType(tag h5lite.TypeTag) string {
	return "DataArray<" + tag.CName() + ">"
}

// Writer writes a data container.
type Writer struct {
	container *hdf5.Group
	cells     *hdf5.Group
	geom      *Geometry
}

// NewWriter opens or creates the data container of f.
func NewWriter(f *hdf5.File) (*Writer, error) {
	if err := h5lite.CreateGroupsFromPath(f.Root(), ContainerGroup+"/"+CellDataGroup); err != nil {
		return nil, err
	}
	return openContainer(f, func(c, cells *hdf5.Group) *Writer {
		return &Writer{container: c, cells: cells}
	})
}

func openContainer[T any](f *hdf5.File, wrap func(c, cells *hdf5.Group) T) (T, error) {
	var zero T
	c, err := h5lite.OpenGroup(f.Root(), ContainerGroup)
	if err != nil {
		return zero, err
	}
	cells, err := h5lite.OpenGroup(c, CellDataGroup)
	if err != nil {
		c.Close()
		return zero, err
	}
	return wrap(c, cells), nil
}

// WriteGeometry stores g, replacing a previously written geometry of any
// data container in the file.
func (w *Writer) WriteGeometry(g Geometry) error {
	if _, err := g.NumCells(); err != nil {
		return err
	}
	err := errors.Join(
		h5lite.ReplaceOrCreate(w.container, DimensionsName, []uint64{3}, g.Dims[:]),
		h5lite.ReplaceOrCreate(w.container, SpacingName, []uint64{3}, g.Spacing[:]),
		h5lite.ReplaceOrCreate(w.container, OriginName, []uint64{3}, g.Origin[:]),
	)
	if err != nil {
		return err
	}
	w.geom = &g
	return nil
}

// Close releases the container groups.
func (w *Writer) Close() error {
	return h5lite.CloseAll(w.cells, w.container)
}

// WriteCellArray stores one value per cell component. len(data) must be
// the cell count times comps. The geometry must be written first.
func WriteCellArray[T h5lite.Scalar](w *Writer, name string, comps int, data []T, opts ...hdf5.DatasetOption) error {
	if w.geom == nil {
		return fmt.Errorf("cell array %q: %w: geometry not written", name, ErrGeometry)
	}
	if comps < 1 {
		return fmt.Errorf("cell array %q: %d components", name, comps)
	}
	want, err := w.geom.Values(comps)
	if err != nil {
		return fmt.Errorf("cell array %q: %w", name, err)
	}
	if uint64(len(data)) != want {
		return fmt.Errorf("cell array %q: %w: %d values for %d components per cell",
			name, h5lite.ErrShapeMismatch, len(data), comps)
	}
	tlog := diag.NewTimeLog()
	tag := h5lite.TagFor[T]()
	if err := h5lite.WriteVector(w.cells, name, w.geom.shape(comps), data, opts...); err != nil {
		return err
	}
	err = errors.Join(
		h5lite.WriteScalarAttr(w.cells, name, NumComponentsAttr, int32(comps)),
		h5lite.WriteStringAttr(w.cells, name, ObjectTypeAttr, ObjectType(tag)),
		h5lite.AnnotateType(w.cells, name, tag),
	)
	if err != nil {
		return err
	}
	size := uint64(len(data)) * uint64(tag.Size())
	tlog.Debugf("Wrote cell array %q (%s, %s)", name, ObjectType(tag), humanize.Bytes(size))
	return nil
}

// Reader reads a data container.
type Reader struct {
	container *hdf5.Group
	cells     *hdf5.Group
}

// NewReader opens the data container of f.
func NewReader(f *hdf5.File) (*Reader, error) {
	return openContainer(f, func(c, cells *hdf5.Group) *Reader {
		return &Reader{container: c, cells: cells}
	})
}

// Close releases the container groups.
func (r *Reader) Close() error {
	return h5lite.CloseAll(r.cells, r.container)
}

// ReadGeometry reads the stored geometry.
func (r *Reader) ReadGeometry() (Geometry, error) {
	var g Geometry
	if _, err := h5lite.ReadFixedBuffer(r.container, DimensionsName, g.Dims[:]); err != nil {
		return g, err
	}
	if _, err := h5lite.ReadFixedBuffer(r.container, SpacingName, g.Spacing[:]); err != nil {
		return g, err
	}
	if _, err := h5lite.ReadFixedBuffer(r.container, OriginName, g.Origin[:]); err != nil {
		return g, err
	}
	if _, err := g.NumCells(); err != nil {
		return g, err
	}
	return g, nil
}

// CellArrays describes every cell array in creation order.
func (r *Reader) CellArrays() ([]ArrayInfo, error) {
	names, err := r.cells.Members()
	if err != nil {
		return nil, err
	}
	infos := make([]ArrayInfo, 0, len(names))
	for _, name := range names {
		info, err := r.arrayInfo(name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (r *Reader) arrayInfo(name string) (ArrayInfo, error) {
	info := ArrayInfo{Name: name, Components: 1}
	if h5lite.AttributeExists(r.cells, name, h5lite.TypeAttrName) {
		tag, err := h5lite.ReadTypeAnnotation(r.cells, name)
		if err != nil {
			return info, err
		}
		info.Tag = tag
	} else {
		ds, err := h5lite.GetDatasetInfo(r.cells, name)
		if err != nil {
			return info, err
		}
		info.Tag = ds.Tag
	}
	if h5lite.AttributeExists(r.cells, name, NumComponentsAttr) {
		n, err := h5lite.ReadScalarAttr[int32](r.cells, name, NumComponentsAttr)
		if err != nil {
			return info, err
		}
		info.Components = int(n)
	}
	return info, nil
}

// ReadCellArray reads the cell array name into dst, resized to fit, and
// returns its component count. The stored element count must match geom.
func ReadCellArray[T h5lite.Scalar](r *Reader, geom Geometry, name string, dst []T) ([]T, int, error) {
	tlog := diag.NewTimeLog()
	info, err := r.arrayInfo(name)
	if err != nil {
		return dst[:0], 0, err
	}
	want, err := geom.Values(info.Components)
	if err != nil {
		return dst[:0], 0, fmt.Errorf("cell array %q: %w", name, err)
	}
	out, err := h5lite.ReadVector(r.cells, name, dst)
	if err != nil {
		return out, 0, err
	}
	if uint64(len(out)) != want {
		return out[:0], 0, fmt.Errorf("cell array %q: %w: %d values for %d components per cell",
			name, h5lite.ErrShapeMismatch, len(out), info.Components)
	}
	tlog.Debugf("Read cell array %q (%s)", name, humanize.Bytes(uint64(len(out))*uint64(h5lite.TagFor[T]().Size())))
	return out, info.Components, nil
}
