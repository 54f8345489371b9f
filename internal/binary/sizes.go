// Package binary holds the little-endian primitives shared by every on-disk
// structure: variable-width address and length fields, a cursor decoder, an
// appending encoder, and the two checksums HDF5 uses.
package binary

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrInvalidSize is returned for address or length widths other than 2, 4 or 8.
	ErrInvalidSize = errors.New("invalid offset/length size: must be 2, 4, or 8")

	// ErrTruncated is returned when a structure ends before all of its fields were read.
	ErrTruncated = errors.New("truncated structure")
)

// Sizes holds the widths, in bytes, of file addresses and lengths as
// declared by the superblock.
type Sizes struct {
	Offset int
	Length int
}

// DefaultSizes is what new files are created with.
var DefaultSizes = Sizes{Offset: 8, Length: 8}

// Validate checks that both widths are supported.
func (s Sizes) Validate() error {
	for _, n := range []int{s.Offset, s.Length} {
		switch n {
		case 2, 4, 8:
		default:
			return fmt.Errorf("%w: got %d", ErrInvalidSize, n)
		}
	}
	return nil
}

// Undefined returns the all-ones address that marks "no address".
func (s Sizes) Undefined() uint64 {
	return mask(s.Offset)
}

// IsUndefined reports whether addr is the undefined address.
func (s Sizes) IsUndefined(addr uint64) bool {
	return addr == mask(s.Offset)
}

// UndefinedLength returns the all-ones length sentinel.
func (s Sizes) UndefinedLength() uint64 {
	return mask(s.Length)
}

func mask(n int) uint64 {
	if n >= 8 {
		return ^uint64(0)
	}
	return uint64(1)<<(8*uint(n)) - 1
}

// ReadAt reads exactly n bytes at off. A short read at end of file is
// reported as ErrTruncated.
func ReadAt(r io.ReaderAt, off uint64, n int) ([]byte, error) {
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	got, err := r.ReadAt(buf, int64(off))
	if got == n {
		return buf, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: wanted %d bytes at %d, got %d", ErrTruncated, n, off, got)
	}
	return nil, err
}
