// Package superblock reads and writes the version 2 and 3 superblock, the
// fixed structure at the start of a container that records field widths
// and the address of the root group.
package superblock

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/dream3d/h5support/internal/binary"
)

// Signature is the eight-byte format signature.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// The signature may sit at 0 or any power of two from 512 when a user
// block precedes it.
var searchOffsets = []uint64{0, 512, 1024, 2048, 4096}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrChecksum           = errors.New("superblock checksum mismatch")
)

// Superblock is the decoded version 2/3 superblock.
type Superblock struct {
	Version    uint8
	Sizes      binary.Sizes
	Flags      uint8
	Base       uint64
	Extension  uint64
	EOF        uint64
	Root       uint64
	FileOffset uint64
}

// New returns a version 3 superblock for a new file.
func New(sizes binary.Sizes) *Superblock {
	return &Superblock{
		Version:   3,
		Sizes:     sizes,
		Extension: sizes.Undefined(),
	}
}

// Size returns the encoded size including the checksum.
func (sb *Superblock) Size() int {
	return 12 + 4*sb.Sizes.Offset + 4
}

// Read locates and decodes the superblock.
func Read(r io.ReaderAt) (*Superblock, error) {
	for _, off := range searchOffsets {
		head, err := binary.ReadAt(r, off, 12)
		if err != nil {
			if errors.Is(err, binary.ErrTruncated) {
				break
			}
			return nil, err
		}
		if !bytes.Equal(head[:8], Signature) {
			continue
		}
		version := head[8]
		if version != 2 && version != 3 {
			return nil, fmt.Errorf("%w: %d (only 2 and 3 are supported)", ErrUnsupportedVersion, version)
		}
		sizes := binary.Sizes{Offset: int(head[9]), Length: int(head[10])}
		if err := sizes.Validate(); err != nil {
			return nil, err
		}
		sb := &Superblock{Version: version, Sizes: sizes, FileOffset: off}
		buf, err := binary.ReadAt(r, off, sb.Size())
		if err != nil {
			return nil, err
		}
		body := buf[:len(buf)-4]
		d := binary.NewDecoder(buf, sizes)
		d.Skip(11)
		sb.Flags = d.Uint8()
		sb.Base = d.Address()
		sb.Extension = d.Address()
		sb.EOF = d.Address()
		sb.Root = d.Address()
		stored := d.Uint32()
		if err := d.Err(); err != nil {
			return nil, err
		}
		if stored != binary.Lookup3Checksum(body) {
			return nil, ErrChecksum
		}
		return sb, nil
	}
	return nil, ErrNotHDF5
}

// Encode returns the checksummed superblock bytes.
func (sb *Superblock) Encode() []byte {
	e := binary.NewEncoder(sb.Sizes)
	e.Write(Signature)
	e.Uint8(sb.Version)
	e.Uint8(uint8(sb.Sizes.Offset))
	e.Uint8(uint8(sb.Sizes.Length))
	e.Uint8(sb.Flags)
	e.Address(sb.Base)
	e.Address(sb.Extension)
	e.Address(sb.EOF)
	e.Address(sb.Root)
	e.AppendChecksum()
	return e.Bytes()
}

// WriteTo writes the superblock at its file offset.
func (sb *Superblock) WriteTo(w io.WriterAt) error {
	_, err := w.WriteAt(sb.Encode(), int64(sb.FileOffset))
	return err
}
