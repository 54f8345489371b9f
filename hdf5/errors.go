// Package hdf5 is a pure Go reader and writer for the subset of HDF5 that
// typed dataset and attribute storage needs: version 2/3 superblocks,
// version 2 object headers, compact link storage, fixed-width numeric and
// fixed-length string types, and compact, contiguous or single-chunk
// filtered raw data.
//
// Access is handle based. Groups, datasets and attributes are opened and
// closed explicitly, and every handle becomes invalid when its file is
// closed. A File is not safe for concurrent use.
package hdf5

import (
	"errors"

	"github.com/dream3d/h5support/internal/dtype"
)

// Common errors
var (
	ErrNotHDF5      = errors.New("not an HDF5 file")
	ErrNotFound     = errors.New("object not found")
	ErrNotDataset   = errors.New("object is not a dataset")
	ErrNotGroup     = errors.New("object is not a group")
	ErrExists       = errors.New("object already exists")
	ErrUnsupported  = errors.New("unsupported feature")
	ErrInvalidPath  = errors.New("invalid path")
	ErrInvalidShape = errors.New("invalid dataspace")
	ErrSizeMismatch = errors.New("buffer size does not match selection")
	ErrTooLarge     = errors.New("object too large")
	ErrReadOnly     = errors.New("file is read-only")
	ErrClosed       = errors.New("handle is closed")

	// ErrTypeMismatch is returned when stored and memory types cannot be
	// converted into one another.
	ErrTypeMismatch = dtype.ErrTypeMismatch
)
