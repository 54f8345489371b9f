package h5lite_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dream3d/h5support/diag"
	"github.com/dream3d/h5support/diag/diagtest"
	"github.com/dream3d/h5support/h5lite"
	"github.com/dream3d/h5support/hdf5"
)

// captureDiag routes diagnostics to a mock logger for the rest of the test
// and returns the error lines it receives.
func captureDiag(t *testing.T) *[]string {
	t.Helper()
	ctrl := gomock.NewController(t)
	mock := diagtest.NewMockLogger(ctrl)
	t.Cleanup(diag.SetLogger(mock))
	var lines []string
	mock.EXPECT().Errorf(gomock.Any(), gomock.Any()).Do(func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}).AnyTimes()
	mock.EXPECT().Warningf(gomock.Any(), gomock.Any()).AnyTimes()
	return &lines
}

// newFile creates a file whose engine errors are discarded and closes it
// when the test ends.
func newFile(t *testing.T, opts ...hdf5.FileOption) (*hdf5.File, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.h5")
	f, err := h5lite.CreateFile(path, append([]hdf5.FileOption{hdf5.WithErrorReporter(nil)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f, path
}

func reopen(t *testing.T, f *hdf5.File, path string) *hdf5.File {
	t.Helper()
	require.NoError(t, f.Close())
	r, err := h5lite.OpenFile(path, true, hdf5.WithErrorReporter(nil))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func requireCode(t *testing.T, err error, code h5lite.Code) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, code)
	require.Equal(t, int(code), h5lite.Status(err))
}

var errInjected = errors.New("injected fault")

// faultStorage fails reads or writes while armed.
type faultStorage struct {
	hdf5.Storage
	failReads, failWrites bool
}

func (s *faultStorage) ReadAt(p []byte, off int64) (int, error) {
	if s.failReads {
		return 0, errInjected
	}
	return s.Storage.ReadAt(p, off)
}

func (s *faultStorage) WriteAt(p []byte, off int64) (int, error) {
	if s.failWrites {
		return 0, errInjected
	}
	return s.Storage.WriteAt(p, off)
}

func faultyFile(t *testing.T) (*hdf5.File, *faultStorage) {
	t.Helper()
	var fs *faultStorage
	f, _ := newFile(t, hdf5.WithStorageHook(func(s hdf5.Storage) hdf5.Storage {
		fs = &faultStorage{Storage: s}
		return fs
	}))
	t.Cleanup(func() { fs.failReads, fs.failWrites = false, false })
	return f, fs
}
