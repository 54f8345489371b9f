package h5lite_test

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dream3d/h5support/h5lite"
	"github.com/dream3d/h5support/hdf5"
)

func TestCreateGroupsFromPath(t *testing.T) {
	f, _ := newFile(t)
	a, err := h5lite.CreateGroup(f.Root(), "a")
	require.NoError(t, err)
	defer a.Close()
	base := f.OpenObjectCount()

	require.NoError(t, h5lite.CreateGroupsFromPath(a, "b/c/d"))
	require.NoError(t, h5lite.CreateGroupsFromPath(a, "b/c/e"))
	require.NoError(t, h5lite.CreateGroupsFromPath(a, "/x/y"))
	require.NoError(t, h5lite.CreateGroupsFromPath(a, ""))
	require.Equal(t, base, f.OpenObjectCount())

	for _, p := range []string{"b/c/d", "b/c/e", "/a/b/c", "/x/y"} {
		require.True(t, h5lite.ObjectExists(a, p), p)
	}
	require.False(t, h5lite.ObjectExists(a, "x"))
	require.False(t, h5lite.ObjectExists(nil, "x"))
}

func TestCreateGroupsFromPathThroughDataset(t *testing.T) {
	captureDiag(t)
	f, _ := newFile(t)
	require.NoError(t, h5lite.WriteScalar(f.Root(), "d", int8(1)))
	err := h5lite.CreateGroupsFromPath(f.Root(), "d/sub")
	requireCode(t, err, h5lite.OpenFailed)
	require.ErrorIs(t, err, hdf5.ErrNotGroup)
	require.Zero(t, f.OpenObjectCount())
}

func TestOpenOrCreateGroup(t *testing.T) {
	var reports int
	f, _ := newFile(t, hdf5.WithErrorReporter(func(string, string, error) { reports++ }))
	g, err := h5lite.OpenOrCreateGroup(f.Root(), "g")
	require.NoError(t, err)
	require.NoError(t, g.Close())
	g, err = h5lite.OpenOrCreateGroup(f.Root(), "g")
	require.NoError(t, err)
	require.NoError(t, g.Close())
	require.Zero(t, reports)

	members, err := f.Root().Members()
	require.NoError(t, err)
	require.Equal(t, []string{"g"}, members)
}

func TestGroupErrors(t *testing.T) {
	captureDiag(t)
	f, _ := newFile(t)
	g, err := h5lite.CreateGroup(f.Root(), "g")
	require.NoError(t, err)
	defer g.Close()

	_, err = h5lite.CreateGroup(f.Root(), "g")
	requireCode(t, err, h5lite.CreateFailed)
	_, err = h5lite.OpenGroup(f.Root(), "missing")
	requireCode(t, err, h5lite.NotFound)
	_, err = h5lite.OpenGroup(nil, "g")
	requireCode(t, err, h5lite.InvalidArgument)
}

func TestOpenFileErrors(t *testing.T) {
	lines := captureDiag(t)
	dir := t.TempDir()
	_, err := h5lite.OpenFile(filepath.Join(dir, "missing.h5"), true, hdf5.WithErrorReporter(nil))
	requireCode(t, err, h5lite.OpenFailed)
	require.Equal(t, -100, h5lite.Status(err))

	_, err = h5lite.CreateFile(filepath.Join(dir, "no", "such", "dir.h5"), hdf5.WithErrorReporter(nil))
	requireCode(t, err, h5lite.CreateFailed)

	require.Len(t, *lines, 2)
	require.True(t, strings.HasPrefix((*lines)[0], `h5lite: OpenFile "`), (*lines)[0])
	require.Contains(t, (*lines)[0], ": open failed: open file: ")
	require.Contains(t, (*lines)[0], "group_test.go:")
}

func TestOpenFileReadWrite(t *testing.T) {
	f, path := newFile(t)
	require.NoError(t, f.Close())

	rw, err := h5lite.OpenFile(path, false)
	require.NoError(t, err)
	require.True(t, rw.Writable())
	require.NoError(t, h5lite.WriteScalar(rw.Root(), "n", uint16(3)))
	require.NoError(t, rw.Close())

	ro, err := h5lite.OpenFile(path, true)
	require.NoError(t, err)
	defer ro.Close()
	require.False(t, ro.Writable())
	n, err := h5lite.ReadScalar[uint16](ro.Root(), "n")
	require.NoError(t, err)
	require.Equal(t, uint16(3), n)
}

func TestCloseAll(t *testing.T) {
	f, _ := newFile(t)
	a, err := h5lite.CreateGroup(f.Root(), "a")
	require.NoError(t, err)
	b, err := h5lite.CreateGroup(a, "b")
	require.NoError(t, err)
	require.Equal(t, 2, f.OpenObjectCount())

	var missing *hdf5.Group
	require.NoError(t, h5lite.CloseAll(b, missing, a))
	require.Zero(t, f.OpenObjectCount())
	require.NoError(t, h5lite.CloseAll(b, a, nil, f))
	require.NoError(t, h5lite.CloseAll())
}

type failingCloser struct{ err error }

func (c failingCloser) Close() error { return c.err }

func TestCloseAllKeepsGoing(t *testing.T) {
	captureDiag(t)
	f, _ := newFile(t)
	g, err := h5lite.CreateGroup(f.Root(), "g")
	require.NoError(t, err)

	err = h5lite.CloseAll(failingCloser{io.ErrClosedPipe}, g, failingCloser{io.ErrShortWrite})
	requireCode(t, err, h5lite.CloseFailed)
	require.ErrorIs(t, err, io.ErrClosedPipe)
	require.Zero(t, f.OpenObjectCount())

	var e *h5lite.Error
	require.ErrorAs(t, err, &e)
	require.Len(t, e.Failures, 2)
	require.Contains(t, err.Error(), "and 1 more")
}
