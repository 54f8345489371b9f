package h5lite_test

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dream3d/h5support/h5lite"
	"github.com/dream3d/h5support/hdf5"
)

func roundTripScalar[T h5lite.Scalar](t *testing.T, f *hdf5.File, v T) {
	t.Helper()
	name := h5lite.TagFor[T]().String()
	require.NoError(t, h5lite.WriteScalar(f.Root(), name, v))

	got, err := h5lite.ReadScalar[T](f.Root(), name)
	require.NoError(t, err)
	require.Equal(t, v, got)

	info, err := h5lite.GetDatasetInfo(f.Root(), name)
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, info.Dims)
}

func TestScalarRoundTrip(t *testing.T) {
	f, path := newFile(t)
	roundTripScalar(t, f, int8(-5))
	roundTripScalar(t, f, int16(-300))
	roundTripScalar(t, f, int32(42))
	roundTripScalar(t, f, int64(-1<<40))
	roundTripScalar(t, f, uint8(200))
	roundTripScalar(t, f, uint16(60000))
	roundTripScalar(t, f, uint32(4_000_000_000))
	roundTripScalar(t, f, uint64(1<<63+5))
	roundTripScalar(t, f, float32(1.5))
	roundTripScalar(t, f, math.Pi)
	roundTripScalar(t, f, true)

	r := reopen(t, f, path)
	v, err := h5lite.ReadScalar[uint64](r.Root(), h5lite.Uint64.String())
	require.NoError(t, err)
	require.Equal(t, uint64(1<<63+5), v)
	b, err := h5lite.ReadScalar[bool](r.Root(), h5lite.Bool.String())
	require.NoError(t, err)
	require.True(t, b)
}

func TestVectorShapeDiscovery(t *testing.T) {
	f, _ := newFile(t)
	data := make([]float64, 4*5*6)
	for i := range data {
		data[i] = float64(i) / 2
	}
	require.NoError(t, h5lite.WriteVector(f.Root(), "v", []uint64{4, 5, 6}, data))

	got, err := h5lite.ReadVector[float64](f.Root(), "v", nil)
	require.NoError(t, err)
	require.Len(t, got, 120)
	require.Equal(t, data, got)

	small := make([]float64, 3)
	got, err = h5lite.ReadVector(f.Root(), "v", small)
	require.NoError(t, err)
	require.Equal(t, data, got)

	big := make([]float64, 0, 200)
	got, err = h5lite.ReadVector(f.Root(), "v", big)
	require.NoError(t, err)
	require.Equal(t, data, got)
	require.Same(t, &big[:1][0], &got[0], "capacity should be reused")

	info, err := h5lite.GetDatasetInfo(f.Root(), "v")
	require.NoError(t, err)
	require.Equal(t, []uint64{4, 5, 6}, info.Dims)
	require.Equal(t, h5lite.Float64, info.Tag)
	require.Equal(t, 8, info.ElemSize)
	n, err := info.NumElements()
	require.NoError(t, err)
	require.Equal(t, uint64(120), n)
}

func TestDatasetInfoNumElementsOverflow(t *testing.T) {
	n, err := h5lite.DatasetInfo{}.NumElements()
	require.NoError(t, err)
	require.Equal(t, uint64(1), n)

	_, err = h5lite.DatasetInfo{Dims: []uint64{1 << 32, 1 << 32}}.NumElements()
	require.ErrorIs(t, err, h5lite.ErrShapeMismatch)
	n, err = h5lite.DatasetInfo{Dims: []uint64{1 << 31, 1 << 32}}.NumElements()
	require.NoError(t, err)
	require.Equal(t, uint64(1<<63), n)
}

func TestReadVectorFailureClears(t *testing.T) {
	captureDiag(t)
	f, _ := newFile(t)
	dst := []int32{1, 2, 3}
	got, err := h5lite.ReadVector(f.Root(), "missing", dst)
	requireCode(t, err, h5lite.NotFound)
	require.Empty(t, got)
	require.Equal(t, h5lite.NotFound.Error(), h5lite.ErrNotFound.Error())
}

func TestFixedBuffer(t *testing.T) {
	f, _ := newFile(t)
	g, err := h5lite.CreateGroup(f.Root(), "G")
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, h5lite.WriteFixedBuffer(g, "arr", []uint64{5}, []float32{1, 2, 3, 4, 5}))
	var buf [5]float32
	n, err := h5lite.ReadFixedBuffer(g, "arr", buf[:])
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, [5]float32{1, 2, 3, 4, 5}, buf)

	large := make([]float32, 8)
	n, err = h5lite.ReadFixedBuffer(g, "arr", large)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, []float32{1, 2, 3, 4, 5, 0, 0, 0}, large)
}

func TestReadFixedBufferTooSmall(t *testing.T) {
	captureDiag(t)
	f, _ := newFile(t)
	require.NoError(t, h5lite.WriteVector(f.Root(), "arr", []uint64{5}, []uint16{1, 2, 3, 4, 5}))

	buf := []uint16{9, 9, 9}
	n, err := h5lite.ReadFixedBuffer(f.Root(), "arr", buf)
	requireCode(t, err, h5lite.ShapeMismatch)
	require.Zero(t, n)
	require.Equal(t, []uint16{9, 9, 9}, buf)
}

func TestWriteValidation(t *testing.T) {
	captureDiag(t)
	f, _ := newFile(t)
	root := f.Root()
	require.NoError(t, h5lite.WriteScalar(root, "taken", int32(1)))

	tests := map[string]struct {
		err  error
		code h5lite.Code
	}{
		"length mismatch": {h5lite.WriteVector(root, "a", []uint64{2, 3}, []int32{1, 2, 3, 4, 5}), h5lite.ShapeMismatch},
		"no dims":         {h5lite.WriteVector(root, "b", nil, []int32{}), h5lite.InvalidArgument},
		"zero extent":     {h5lite.WriteFixedBuffer(root, "c", []uint64{3, 0}, []int32{}), h5lite.InvalidArgument},
		"name taken":      {h5lite.WriteScalar(root, "taken", int32(2)), h5lite.CreateFailed},
		"bad name":        {h5lite.WriteScalar(root, "a/b", int32(2)), h5lite.InvalidArgument},
		"nil parent":      {h5lite.WriteScalar[int32](nil, "x", 1), h5lite.InvalidArgument},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			requireCode(t, tc.err, tc.code)
		})
	}
	require.False(t, h5lite.DatasetExists(root, "a"))

	v, err := h5lite.ReadScalar[int32](root, "taken")
	require.NoError(t, err)
	require.Equal(t, int32(1), v)
}

func TestReplaceOrCreate(t *testing.T) {
	var reports int
	f, _ := newFile(t, hdf5.WithErrorReporter(func(op, path string, err error) { reports++ }))
	root := f.Root()

	require.NoError(t, h5lite.ReplaceOrCreate(root, "x", []uint64{2, 2}, []int64{1, 2, 3, 4}))
	require.NoError(t, h5lite.ReplaceOrCreate(root, "x", []uint64{2, 2}, []int64{5, 6, 7, 8}))
	require.Zero(t, reports, "probing for an absent dataset is not an error")

	members, err := root.Members()
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, members)

	got, err := h5lite.ReadVector[int64](root, "x", nil)
	require.NoError(t, err)
	require.Equal(t, []int64{5, 6, 7, 8}, got)

	eof := f.SpaceStats().EOF
	require.NoError(t, h5lite.ReplaceOrCreate(root, "x", []uint64{2, 2}, []int64{9, 10, 11, 12}))
	require.Equal(t, eof, f.SpaceStats().EOF, "replacing a contiguous dataset writes in place")
}

func TestReplaceOrCreateShapeMismatch(t *testing.T) {
	captureDiag(t)
	f, _ := newFile(t)
	root := f.Root()
	require.NoError(t, h5lite.ReplaceOrCreate(root, "x", []uint64{4}, []int32{1, 2, 3, 4}))
	base := f.OpenObjectCount()

	err := h5lite.ReplaceOrCreate(root, "x", []uint64{2, 2}, []int32{5, 6, 7, 8})
	requireCode(t, err, h5lite.ShapeMismatch)
	require.Equal(t, base, f.OpenObjectCount())

	got, err := h5lite.ReadVector[int32](root, "x", nil)
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2, 3, 4}, got)
}

func TestWriteFaultClosesHandles(t *testing.T) {
	lines := captureDiag(t)
	f, fs := faultyFile(t)
	g, err := h5lite.CreateGroup(f.Root(), "G")
	require.NoError(t, err)
	defer g.Close()
	base := f.OpenObjectCount()

	fs.failWrites = true
	err = h5lite.WriteVector(g, "v", []uint64{3}, []float32{1, 2, 3})
	requireCode(t, err, h5lite.IOError)
	require.ErrorIs(t, err, errInjected)
	require.Equal(t, base, f.OpenObjectCount())

	err = h5lite.ReplaceOrCreate(g, "w", []uint64{3}, []float32{1, 2, 3})
	requireCode(t, err, h5lite.IOError)
	require.Equal(t, base, f.OpenObjectCount())

	require.NotEmpty(t, *lines)
	first := (*lines)[0]
	require.True(t, strings.HasPrefix(first, `h5lite: WriteVector "/G/v": i/o error: write:`), first)
	require.Contains(t, first, "dataset_test.go:")
}

func TestReadFaultClosesHandles(t *testing.T) {
	captureDiag(t)
	f, fs := faultyFile(t)
	require.NoError(t, h5lite.WriteVector(f.Root(), "v", []uint64{3}, []int16{1, 2, 3}))
	base := f.OpenObjectCount()

	fs.failReads = true
	got, err := h5lite.ReadVector(f.Root(), "v", []int16{7})
	requireCode(t, err, h5lite.IOError)
	require.Empty(t, got)
	require.Equal(t, base, f.OpenObjectCount())
}

func TestNumericCoercion(t *testing.T) {
	f, _ := newFile(t)
	require.NoError(t, h5lite.WriteVector(f.Root(), "v", []uint64{3}, []int32{-1, 300, 7}))

	got, err := h5lite.ReadVector[uint8](f.Root(), "v", nil)
	require.NoError(t, err)
	require.Equal(t, []uint8{0, 255, 7}, got)

	wide, err := h5lite.ReadVector[float64](f.Root(), "v", nil)
	require.NoError(t, err)
	require.Equal(t, []float64{-1, 300, 7}, wide)
}

func TestStringDataset(t *testing.T) {
	captureDiag(t)
	f, path := newFile(t)
	root := f.Root()
	require.NoError(t, h5lite.WriteStringDataset(root, "s", "hello world"))
	require.NoError(t, h5lite.WriteStringDataset(root, "empty", ""))
	require.NoError(t, h5lite.WriteScalar(root, "n", int32(3)))

	info, err := h5lite.GetDatasetInfo(root, "s")
	require.NoError(t, err)
	require.Equal(t, h5lite.String, info.Tag)
	require.Equal(t, []uint64{1}, info.Dims)
	require.Equal(t, len("hello world")+1, info.ElemSize)

	requireCode(t, h5lite.WriteStringDataset(root, "nul", "a\x00b"), h5lite.InvalidArgument)
	_, err = h5lite.ReadStringDataset(root, "n")
	requireCode(t, err, h5lite.TypeMismatch)
	_, err = h5lite.ReadScalar[int32](root, "s")
	requireCode(t, err, h5lite.TypeMismatch)

	r := reopen(t, f, path)
	s, err := h5lite.ReadStringDataset(r.Root(), "s")
	require.NoError(t, err)
	require.Equal(t, "hello world", s)
	s, err = h5lite.ReadStringDataset(r.Root(), "empty")
	require.NoError(t, err)
	require.Empty(t, s)
}

func TestDatasetExists(t *testing.T) {
	f, _ := newFile(t)
	root := f.Root()
	require.NoError(t, h5lite.WriteScalar(root, "d", uint8(1)))
	_, err := h5lite.CreateGroup(root, "g")
	require.NoError(t, err)

	require.True(t, h5lite.DatasetExists(root, "d"))
	require.False(t, h5lite.DatasetExists(root, "g"))
	require.False(t, h5lite.DatasetExists(root, "nope"))
	require.False(t, h5lite.DatasetExists(nil, "d"))
	require.Equal(t, 1, f.OpenObjectCount())
}

func TestCompressedVector(t *testing.T) {
	f, path := newFile(t)
	data := make([]uint32, 1000)
	for i := range data {
		data[i] = uint32(i % 17)
	}
	opts := []hdf5.DatasetOption{hdf5.WithShuffle(), hdf5.WithCompression(hdf5.CodecDeflate, 6), hdf5.WithFletcher32()}
	require.NoError(t, h5lite.WriteVector(f.Root(), "z", []uint64{10, 100}, data, opts...))

	r := reopen(t, f, path)
	got, err := h5lite.ReadVector[uint32](r.Root(), "z", nil)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

// A file and group are created, a scalar written, everything closed, and
// the value read back through a read-only reopen.
func TestScalarScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.h5")
	f, err := h5lite.CreateFile(path)
	require.NoError(t, err)
	g, err := h5lite.CreateGroup(f.Root(), "G")
	require.NoError(t, err)
	require.NoError(t, h5lite.WriteScalar(g, "z", int32(42)))
	require.NoError(t, h5lite.CloseAll(g, f))

	f, err = h5lite.OpenFile(path, true)
	require.NoError(t, err)
	defer f.Close()
	g, err = h5lite.OpenGroup(f.Root(), "G")
	require.NoError(t, err)
	defer g.Close()
	v, err := h5lite.ReadScalar[int32](g, "z")
	require.GreaterOrEqual(t, h5lite.Status(err), 0)
	require.Equal(t, int32(42), v)
}
