package filterparams_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dream3d/h5support/filterparams"
	"github.com/dream3d/h5support/h5lite"
	"github.com/dream3d/h5support/hdf5"
)

type threshold struct {
	Array   string
	Min     float64
	Enabled bool
	Dims    [3]int32
	Origin  [3]float32
	Inputs  []string
	Bins    []uint16
}

func (*threshold) ClassName() string { return "Threshold" }

func (t *threshold) WriteParameters(g *hdf5.Group) error {
	return errors.Join(
		filterparams.WriteString(g, "Array", t.Array),
		filterparams.WriteValue(g, "Min", t.Min),
		filterparams.WriteValue(g, "Enabled", t.Enabled),
		filterparams.WriteIntVec3(g, "Dims", t.Dims),
		filterparams.WriteVec3(g, "Origin", t.Origin),
		filterparams.WriteStrings(g, "Inputs", t.Inputs),
		filterparams.WriteVector(g, "Bins", t.Bins),
	)
}

func (t *threshold) ReadParameters(g *hdf5.Group) (err error) {
	read := func(e error) {
		if err == nil {
			err = e
		}
	}
	var e error
	t.Array, e = filterparams.ReadString(g, "Array", "")
	read(e)
	t.Min, e = filterparams.ReadValue(g, "Min", -1.0)
	read(e)
	t.Enabled, e = filterparams.ReadValue(g, "Enabled", false)
	read(e)
	t.Dims, e = filterparams.ReadIntVec3(g, "Dims", [3]int32{})
	read(e)
	t.Origin, e = filterparams.ReadVec3(g, "Origin", [3]float32{})
	read(e)
	t.Inputs, e = filterparams.ReadStrings(g, "Inputs", nil)
	read(e)
	t.Bins, e = filterparams.ReadVector(g, "Bins", []uint16{})
	read(e)
	return err
}

type rename struct{ To string }

func (*rename) ClassName() string { return "Rename" }

func (r *rename) WriteParameters(g *hdf5.Group) error {
	return filterparams.WriteString(g, "To", r.To)
}

func (r *rename) ReadParameters(g *hdf5.Group) (err error) {
	r.To, err = filterparams.ReadString(g, "To", "unnamed")
	return err
}

func factory(name string) (filterparams.Filter, error) {
	switch name {
	case "Threshold":
		return &threshold{}, nil
	case "Rename":
		return &rename{}, nil
	}
	return nil, fmt.Errorf("no filter class %q", name)
}

func newFile(t *testing.T) (*hdf5.File, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.h5")
	f, err := hdf5.Create(path, hdf5.WithErrorReporter(nil))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f, path
}

func TestPipelineRoundTrip(t *testing.T) {
	f, path := newFile(t)
	want := []filterparams.Filter{
		&threshold{
			Array: "Confidence Index", Min: 0.1, Enabled: true,
			Dims: [3]int32{128, 64, 32}, Origin: [3]float32{0, 1.5, -2},
			Inputs: []string{"Phases", "Euler Angles"}, Bins: []uint16{4, 8},
		},
		&rename{To: "Grains"},
	}
	require.NoError(t, filterparams.WritePipeline(context.Background(), f, want))
	require.NoError(t, f.Close())

	r, err := hdf5.Open(path)
	require.NoError(t, err)
	defer r.Close()
	n, err := h5lite.ReadScalarAttr[int32](r.Root(), filterparams.PipelineGroup, filterparams.NumFiltersAttr)
	require.NoError(t, err)
	require.Equal(t, int32(2), n)
	class, err := h5lite.ReadStringAttr(r.Root(), "Pipeline/1", filterparams.ClassNameAttr)
	require.NoError(t, err)
	require.Equal(t, "Rename", class)

	got, err := filterparams.ReadPipeline(context.Background(), r, factory)
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Zero(t, r.OpenObjectCount())
}

func TestReadDefaults(t *testing.T) {
	f, _ := newFile(t)
	w, err := filterparams.NewWriter(f)
	require.NoError(t, err)
	g, err := w.OpenFilterGroup(0, "Threshold")
	require.NoError(t, err)
	require.NoError(t, filterparams.WriteValue(g, "Min", 2.5))
	require.NoError(t, g.Close())
	require.NoError(t, w.Close())

	got, err := filterparams.ReadPipeline(context.Background(), f, factory)
	require.NoError(t, err)
	require.Equal(t, []filterparams.Filter{&threshold{Min: 2.5, Bins: []uint16{}}}, got)
}

func TestReadTripleWrongLength(t *testing.T) {
	f, _ := newFile(t)
	require.NoError(t, filterparams.WriteVector(f.Root(), "pair", []int32{1, 2}))
	def := [3]int32{7, 7, 7}
	v, err := filterparams.ReadIntVec3(f.Root(), "pair", def)
	require.ErrorIs(t, err, h5lite.ErrShapeMismatch)
	require.Equal(t, def, v)
}

func TestWritePipelineCancelled(t *testing.T) {
	f, _ := newFile(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := filterparams.WritePipeline(ctx, f, []filterparams.Filter{&rename{To: "x"}})
	require.ErrorIs(t, err, context.Canceled)

	r, err := filterparams.NewReader(f)
	require.NoError(t, err)
	defer r.Close()
	require.Zero(t, r.NumFilters())
}

func TestReadPipelineErrors(t *testing.T) {
	f, _ := newFile(t)
	_, err := filterparams.ReadPipeline(context.Background(), f, factory)
	require.ErrorIs(t, err, h5lite.ErrNotFound)

	w, err := filterparams.NewWriter(f)
	require.NoError(t, err)
	g, err := w.OpenFilterGroup(0, "Unknown")
	require.NoError(t, err)
	require.NoError(t, g.Close())
	require.NoError(t, w.Close())

	_, err = filterparams.ReadPipeline(context.Background(), f, factory)
	require.ErrorContains(t, err, `no filter class "Unknown"`)

	r, err := filterparams.NewReader(f)
	require.NoError(t, err)
	defer r.Close()
	_, _, err = r.OpenFilterGroup(1)
	require.Error(t, err)
}
