package hdf5

import (
	"fmt"
	"strings"

	"github.com/dream3d/h5support/diag"
	"github.com/dream3d/h5support/internal/binary"
	"github.com/dream3d/h5support/internal/message"
)

// ErrorReporter receives engine failures as they happen. op names the
// failing operation and path the object it was applied to.
type ErrorReporter func(op, path string, err error)

// DefaultErrorReporter writes failures to the diagnostic log.
func DefaultErrorReporter(op, path string, err error) {
	diag.Warningf("HDF5-DIAG: %s %q: %v", op, path, err)
}

// FileOption configures how a file is created or opened.
type FileOption func(*fileOptions)

type fileOptions struct {
	sizes    binary.Sizes
	reporter ErrorReporter
	hook     StorageHook
	dataset  []DatasetOption
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{
		sizes:    binary.DefaultSizes,
		reporter: DefaultErrorReporter,
	}
}

// WithOffsetSize sets the size in bytes of file addresses (2, 4, or 8).
// It only affects newly created files.
func WithOffsetSize(size int) FileOption {
	return func(o *fileOptions) {
		if size == 2 || size == 4 || size == 8 {
			o.sizes.Offset = size
		}
	}
}

// WithLengthSize sets the size in bytes of lengths (2, 4, or 8).
// It only affects newly created files.
func WithLengthSize(size int) FileOption {
	return func(o *fileOptions) {
		if size == 2 || size == 4 || size == 8 {
			o.sizes.Length = size
		}
	}
}

// WithErrorReporter replaces DefaultErrorReporter. A nil reporter
// discards failures.
func WithErrorReporter(r ErrorReporter) FileOption {
	return func(o *fileOptions) {
		if r == nil {
			r = func(string, string, error) {}
		}
		o.reporter = r
	}
}

// WithStorageHook wraps the file's storage after it is opened.
func WithStorageHook(h StorageHook) FileOption {
	return func(o *fileOptions) {
		o.hook = h
	}
}

// WithDatasetDefaults applies opts to every dataset created in the file,
// before the options passed to CreateDataset.
func WithDatasetDefaults(opts ...DatasetOption) FileOption {
	return func(o *fileOptions) {
		o.dataset = append(o.dataset, opts...)
	}
}

// Codec selects the compression filter of a dataset.
type Codec int

const (
	CodecNone Codec = iota
	CodecDeflate
	CodecZstd
	CodecSnappy
)

var codecNames = map[Codec]string{
	CodecNone:    "none",
	CodecDeflate: "deflate",
	CodecZstd:    "zstd",
	CodecSnappy:  "snappy",
}

func (c Codec) String() string {
	if s, ok := codecNames[c]; ok {
		return s
	}
	return fmt.Sprintf("codec(%d)", int(c))
}

// ParseCodec returns the codec with the given name. "gzip" and "zlib" are
// accepted for deflate, and the empty string for none.
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return CodecNone, nil
	case "deflate", "gzip", "zlib":
		return CodecDeflate, nil
	case "zstd", "zstandard":
		return CodecZstd, nil
	case "snappy":
		return CodecSnappy, nil
	}
	return CodecNone, fmt.Errorf("unknown codec %q", name)
}

// DatasetOption configures dataset creation.
type DatasetOption func(*datasetOptions)

type datasetOptions struct {
	compact    bool
	codec      Codec
	level      int
	shuffle    bool
	fletcher32 bool
}

// WithCompact stores raw data inside the object header when it fits.
func WithCompact() DatasetOption {
	return func(o *datasetOptions) {
		o.compact = true
	}
}

// WithCompression compresses the dataset with codec. level is passed to
// deflate (1-9) and zstd (1-22); snappy ignores it. CodecNone removes a
// compression default.
func WithCompression(codec Codec, level int) DatasetOption {
	return func(o *datasetOptions) {
		o.codec, o.level = codec, level
	}
}

// WithShuffle enables the byte shuffle filter (improves compression).
func WithShuffle() DatasetOption {
	return func(o *datasetOptions) {
		o.shuffle = true
	}
}

// WithFletcher32 enables the Fletcher-32 checksum filter.
func WithFletcher32() DatasetOption {
	return func(o *datasetOptions) {
		o.fletcher32 = true
	}
}

// pipeline returns the filter pipeline message for the options, or nil
// when no filter is requested.
func (o *datasetOptions) pipeline() *message.Pipeline {
	var p message.Pipeline
	if o.shuffle {
		p.Filters = append(p.Filters, message.FilterSpec{ID: message.FilterShuffle})
	}
	switch o.codec {
	case CodecDeflate:
		level := o.level
		if level < 1 || level > 9 {
			level = 6
		}
		p.Filters = append(p.Filters, message.FilterSpec{ID: message.FilterDeflate, ClientData: []uint32{uint32(level)}})
	case CodecZstd:
		level := o.level
		if level < 1 || level > 22 {
			level = 3
		}
		p.Filters = append(p.Filters, message.FilterSpec{ID: message.FilterZstd, Flags: message.FilterOptional, ClientData: []uint32{uint32(level)}})
	case CodecSnappy:
		p.Filters = append(p.Filters, message.FilterSpec{ID: message.FilterSnappy, Flags: message.FilterOptional})
	}
	if o.fletcher32 {
		p.Filters = append(p.Filters, message.FilterSpec{ID: message.FilterFletcher32})
	}
	if len(p.Filters) == 0 {
		return nil
	}
	return &p
}
