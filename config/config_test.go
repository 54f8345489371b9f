package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dream3d/h5support/diag"
	"github.com/dream3d/h5support/hdf5"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "h5support.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), c)
	require.NoError(t, c.Validate())
	require.Empty(t, c.Storage.DatasetOptions())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[log]
mode = "warning"
logfile = "logs/h5.log"
max_log_size = 10

[storage]
codec = "zstd"
level = 5
shuffle = true
offset_size = 4
`)
	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "warning", c.Log.Mode)
	require.Equal(t, filepath.Join(filepath.Dir(path), "logs/h5.log"), c.Log.Logfile)
	require.Equal(t, 10, c.Log.MaxSize)
	require.Equal(t, StorageConfig{Codec: "zstd", Level: 5, Shuffle: true, OffsetSize: 4}, c.Storage)
	require.Len(t, c.Storage.DatasetOptions(), 2)
}

func TestLoadErrors(t *testing.T) {
	for name, body := range map[string]string{
		"syntax":       "[storage\ncodec = 1",
		"unknown key":  "[storage]\ncolor = \"blue\"",
		"bad codec":    "[storage]\ncodec = \"lz4\"",
		"bad level":    "[storage]\ncodec = \"deflate\"\nlevel = 12",
		"bad offsets":  "[storage]\noffset_size = 3",
		"bad log mode": "[log]\nmode = \"chatty\"",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestStorageOptionsApplyToFiles(t *testing.T) {
	s := StorageConfig{Codec: "deflate", Level: 4, Fletcher32: true, OffsetSize: 4}
	f, err := hdf5.Create(filepath.Join(t.TempDir(), "t.h5"), s.FileOptions()...)
	require.NoError(t, err)
	defer f.Close()

	space, err := hdf5.NewSimpleDataspace(16)
	require.NoError(t, err)
	ds, err := f.Root().CreateDataset("d", hdf5.NativeInt32, space)
	require.NoError(t, err)
	defer ds.Close()
	info, err := ds.StorageInfo()
	require.NoError(t, err)
	require.Equal(t, []string{"deflate", "fletcher32"}, info.Filters)
}

func TestApply(t *testing.T) {
	prev := diag.LogMode()
	defer diag.SetLogMode(prev)

	c := Default()
	c.Log.Mode = "error"
	restore, err := c.Apply()
	require.NoError(t, err)
	defer restore()
	require.Equal(t, diag.ErrorMode, diag.LogMode())
}
