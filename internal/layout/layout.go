// Package layout moves a dataset's raw bytes between memory and the file
// for the three storage classes written here: compact (inside the object
// header), contiguous (one block), and chunked with a single chunk that
// passes through the filter pipeline.
package layout

import (
	"errors"
	"fmt"
	"io"

	"github.com/dream3d/h5support/internal/binary"
	"github.com/dream3d/h5support/internal/filter"
	"github.com/dream3d/h5support/internal/message"
)

// MaxCompact is the largest raw data size stored in the object header.
const MaxCompact = 64*1024 - 256

// ErrUnsupported is returned for layouts that can be decoded but not read
// or written here.
var ErrUnsupported = errors.New("unsupported storage layout")

// Storage is the file as seen by this package.
type Storage interface {
	io.ReaderAt
	io.WriterAt
}

// Allocator hands out and reclaims file space.
type Allocator interface {
	Alloc(size uint64) uint64
	Free(addr, size uint64) error
}

// NewCompact returns a compact layout holding nbytes of zeros.
func NewCompact(nbytes uint64) *message.Layout {
	return &message.Layout{Class: message.LayoutCompact, Data: make([]byte, nbytes), Size: nbytes}
}

// NewContiguous returns a contiguous layout of nbytes. Space is reserved
// on the first write.
func NewContiguous(sizes binary.Sizes, nbytes uint64) *message.Layout {
	return &message.Layout{Class: message.LayoutContiguous, Address: sizes.Undefined(), Size: nbytes}
}

// NewSingleChunk returns a chunked layout whose one chunk covers dims.
// No space is reserved until the first write.
func NewSingleChunk(sizes binary.Sizes, dims []uint64, elemSize uint32, filtered bool) *message.Layout {
	chunk := append(append([]uint64(nil), dims...), uint64(elemSize))
	return &message.Layout{
		Class:     message.LayoutChunked,
		ChunkDims: chunk,
		Index:     message.IndexSingleChunk,
		Filtered:  filtered,
		Address:   sizes.Undefined(),
	}
}

// StorageSize returns the number of file bytes holding raw data.
func StorageSize(l *message.Layout, sizes binary.Sizes) uint64 {
	switch l.Class {
	case message.LayoutCompact:
		return uint64(len(l.Data))
	case message.LayoutContiguous, message.LayoutChunked:
		if sizes.IsUndefined(l.Address) {
			return 0
		}
		return l.Size
	}
	return 0
}

// Read returns nbytes of raw data. Storage that was reserved but never
// written reads as zeros.
func Read(r io.ReaderAt, sizes binary.Sizes, l *message.Layout, p *filter.Pipeline, nbytes uint64) ([]byte, error) {
	switch l.Class {
	case message.LayoutCompact:
		if uint64(len(l.Data)) < nbytes {
			return nil, fmt.Errorf("compact data holds %d bytes, need %d", len(l.Data), nbytes)
		}
		return append([]byte(nil), l.Data[:nbytes]...), nil

	case message.LayoutContiguous:
		if sizes.IsUndefined(l.Address) || nbytes == 0 {
			return make([]byte, nbytes), nil
		}
		return readZeroFilled(r, l.Address, nbytes)

	case message.LayoutChunked:
		if l.Index != message.IndexSingleChunk {
			return nil, fmt.Errorf("%w: chunk index type %d", ErrUnsupported, l.Index)
		}
		if sizes.IsUndefined(l.Address) {
			return make([]byte, nbytes), nil
		}
		stored := nbytes
		if l.Filtered {
			stored = l.Size
		}
		raw, err := binary.ReadAt(r, l.Address, int(stored))
		if err != nil {
			return nil, fmt.Errorf("reading chunk at %d: %w", l.Address, err)
		}
		data, err := p.Decode(raw, l.FilterMask)
		if err != nil {
			return nil, err
		}
		if uint64(len(data)) != nbytes {
			return nil, fmt.Errorf("chunk decoded to %d bytes, expected %d", len(data), nbytes)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, l.Class)
}

func readZeroFilled(r io.ReaderAt, addr, n uint64) ([]byte, error) {
	buf := make([]byte, n)
	got, err := r.ReadAt(buf, int64(addr))
	if err != nil && !(errors.Is(err, io.EOF) && uint64(got) < n) {
		return nil, fmt.Errorf("reading %d bytes at %d: %w", n, addr, err)
	}
	return buf, nil
}

// Write stores raw data in place where the layout allows it. It reports
// whether the layout message changed, in which case the object header
// must be rewritten.
func Write(s Storage, a Allocator, sizes binary.Sizes, l *message.Layout, p *filter.Pipeline, data []byte) (bool, error) {
	switch l.Class {
	case message.LayoutCompact:
		if len(data) != len(l.Data) {
			return false, fmt.Errorf("compact data is %d bytes, got %d", len(l.Data), len(data))
		}
		copy(l.Data, data)
		return true, nil

	case message.LayoutContiguous:
		if uint64(len(data)) != l.Size {
			return false, fmt.Errorf("contiguous block is %d bytes, got %d", l.Size, len(data))
		}
		if sizes.IsUndefined(l.Address) {
			addr := a.Alloc(l.Size)
			if _, err := s.WriteAt(data, int64(addr)); err != nil {
				a.Free(addr, l.Size)
				return false, err
			}
			l.Address = addr
			return true, nil
		}
		_, err := s.WriteAt(data, int64(l.Address))
		return false, err

	case message.LayoutChunked:
		if l.Index != message.IndexSingleChunk {
			return false, fmt.Errorf("%w: chunk index type %d", ErrUnsupported, l.Index)
		}
		enc, mask, err := p.Encode(data)
		if err != nil {
			return false, err
		}
		size := uint64(len(enc))
		if !l.Filtered && !sizes.IsUndefined(l.Address) {
			_, err := s.WriteAt(enc, int64(l.Address))
			return false, err
		}
		addr := a.Alloc(size)
		if _, err := s.WriteAt(enc, int64(addr)); err != nil {
			a.Free(addr, size)
			return false, err
		}
		if !sizes.IsUndefined(l.Address) {
			if err := a.Free(l.Address, l.Size); err != nil {
				return false, err
			}
		}
		l.Address, l.Size, l.FilterMask = addr, size, mask
		return true, nil
	}
	return false, fmt.Errorf("%w: %s", ErrUnsupported, l.Class)
}
