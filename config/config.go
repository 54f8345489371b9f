// Package config loads h5support settings from a TOML file.
//
// Example file:
//
//	[log]
//	mode = "warning"
//	logfile = "/var/log/h5tool.log"
//	max_log_size = 100   # megabytes
//	max_log_age = 30     # days
//
//	[storage]
//	codec = "zstd"       # none, deflate, zstd or snappy
//	level = 3
//	shuffle = true
//	fletcher32 = false
//	compact = false
//	offset_size = 8
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/dream3d/h5support/diag"
	"github.com/dream3d/h5support/hdf5"
)

// Config is the parsed configuration.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Storage StorageConfig `toml:"storage"`
}

// LogConfig is the [log] section.
type LogConfig struct {
	diag.LogConfig
	Mode string `toml:"mode"`
}

// StorageConfig is the [storage] section: how new files and datasets are
// laid out.
type StorageConfig struct {
	Codec      string `toml:"codec"`
	Level      int    `toml:"level"`
	Shuffle    bool   `toml:"shuffle"`
	Fletcher32 bool   `toml:"fletcher32"`
	Compact    bool   `toml:"compact"`
	OffsetSize int    `toml:"offset_size"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Mode: diag.InfoMode.String()},
		Storage: StorageConfig{Codec: "none", OffsetSize: 8},
	}
}

// Load reads filename over the defaults. An empty filename returns the
// defaults. Relative log file paths are taken relative to the directory
// of the configuration file.
func Load(filename string) (*Config, error) {
	c := Default()
	if filename == "" {
		return c, nil
	}
	md, err := toml.DecodeFile(filename, c)
	if err != nil {
		return nil, fmt.Errorf("could not decode TOML config: %v", err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return nil, fmt.Errorf("unknown settings in %s: %s", filename, strings.Join(names, ", "))
	}
	if c.Log.Logfile != "" && !filepath.IsAbs(c.Log.Logfile) {
		c.Log.Logfile = filepath.Join(filepath.Dir(filename), c.Log.Logfile)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return c, nil
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if _, err := diag.ParseMode(c.Log.Mode); err != nil {
		return fmt.Errorf("log.mode: %w", err)
	}
	if c.Log.MaxSize < 0 || c.Log.MaxAge < 0 {
		return fmt.Errorf("log.max_log_size and log.max_log_age must not be negative")
	}
	return c.Storage.Validate()
}

// Validate checks the [storage] section.
func (s StorageConfig) Validate() error {
	codec, err := hdf5.ParseCodec(s.Codec)
	if err != nil {
		return fmt.Errorf("storage.codec: %w", err)
	}
	switch codec {
	case hdf5.CodecDeflate:
		if s.Level < 0 || s.Level > 9 {
			return fmt.Errorf("storage.level: deflate level %d is outside 0-9", s.Level)
		}
	case hdf5.CodecZstd:
		if s.Level < 0 || s.Level > 22 {
			return fmt.Errorf("storage.level: zstd level %d is outside 0-22", s.Level)
		}
	}
	switch s.OffsetSize {
	case 0, 2, 4, 8:
	default:
		return fmt.Errorf("storage.offset_size: %d is not 2, 4 or 8", s.OffsetSize)
	}
	return nil
}

// Apply sets the log mode and log file. restore undoes the log file.
func (c *Config) Apply() (restore func(), err error) {
	m, err := diag.ParseMode(c.Log.Mode)
	if err != nil {
		return nil, err
	}
	diag.SetLogMode(m)
	return c.Log.SetLogger(), nil
}

// DatasetOptions returns the dataset creation options of the section.
// Level 0 picks the codec's default level.
func (s StorageConfig) DatasetOptions() []hdf5.DatasetOption {
	var opts []hdf5.DatasetOption
	if codec, err := hdf5.ParseCodec(s.Codec); err == nil && codec != hdf5.CodecNone {
		opts = append(opts, hdf5.WithCompression(codec, s.Level))
	}
	if s.Shuffle {
		opts = append(opts, hdf5.WithShuffle())
	}
	if s.Fletcher32 {
		opts = append(opts, hdf5.WithFletcher32())
	}
	if s.Compact {
		opts = append(opts, hdf5.WithCompact())
	}
	return opts
}

// FileOptions returns the options for creating a file with these
// settings.
func (s StorageConfig) FileOptions() []hdf5.FileOption {
	opts := []hdf5.FileOption{hdf5.WithDatasetDefaults(s.DatasetOptions()...)}
	if s.OffsetSize != 0 {
		opts = append(opts, hdf5.WithOffsetSize(s.OffsetSize))
	}
	return opts
}
