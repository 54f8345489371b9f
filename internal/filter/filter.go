package filter

import (
	"encoding/binary"
	"errors"
	"fmt"

	binpkg "github.com/dream3d/h5support/internal/binary"
	"github.com/dream3d/h5support/internal/message"
)

// ErrUnknownFilter is returned for a mandatory filter with no implementation.
var ErrUnknownFilter = errors.New("unknown filter")

// errNoGain is returned by compressors whose output is not smaller than
// their input.
var errNoGain = errors.New("compression did not reduce size")

// Filter transforms one chunk.
type Filter interface {
	ID() uint16
	Encode(in []byte) ([]byte, error)
	Decode(in []byte) ([]byte, error)
}

var names = map[uint16]string{
	message.FilterDeflate:    "deflate",
	message.FilterShuffle:    "shuffle",
	message.FilterFletcher32: "fletcher32",
	message.FilterSZIP:       "szip",
	message.FilterNBit:       "nbit",
	message.FilterScale:      "scaleoffset",
	message.FilterSnappy:     "snappy",
	message.FilterZstd:       "zstd",
}

// Name returns the conventional name of a filter id.
func Name(id uint16) string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("filter-%d", id)
}

// New builds the filter described by spec. elemSize is the dataset's
// element size, which shuffle falls back to when the spec has none.
func New(spec message.FilterSpec, elemSize int) (Filter, error) {
	switch spec.ID {
	case message.FilterDeflate:
		level := 6
		if len(spec.ClientData) > 0 {
			level = int(spec.ClientData[0])
		}
		return &Deflate{Level: level}, nil
	case message.FilterShuffle:
		size := elemSize
		if len(spec.ClientData) > 0 && spec.ClientData[0] > 0 {
			size = int(spec.ClientData[0])
		}
		return &Shuffle{ElemSize: size}, nil
	case message.FilterFletcher32:
		return Fletcher32{}, nil
	case message.FilterZstd:
		level := 3
		if len(spec.ClientData) > 0 {
			level = int(spec.ClientData[0])
		}
		return &Zstd{Level: level}, nil
	case message.FilterSnappy:
		return Snappy{}, nil
	}
	return nil, fmt.Errorf("%w: %s (ID %d)", ErrUnknownFilter, Name(spec.ID), spec.ID)
}

// Fletcher32 appends and verifies a Fletcher-32 checksum.
type Fletcher32 struct{}

func (Fletcher32) ID() uint16 { return message.FilterFletcher32 }

func (Fletcher32) Encode(in []byte) ([]byte, error) {
	out := make([]byte, len(in), len(in)+4)
	copy(out, in)
	return binary.LittleEndian.AppendUint32(out, binpkg.Fletcher32(in)), nil
}

func (Fletcher32) Decode(in []byte) ([]byte, error) {
	if len(in) < 4 {
		return nil, fmt.Errorf("fletcher32: chunk of %d bytes has no checksum", len(in))
	}
	data := in[:len(in)-4]
	stored := binary.LittleEndian.Uint32(in[len(in)-4:])
	if got := binpkg.Fletcher32(data); got != stored {
		return nil, fmt.Errorf("fletcher32: checksum mismatch (stored %#08x, computed %#08x)", stored, got)
	}
	return data, nil
}

// Shuffle groups byte k of every element together.
type Shuffle struct {
	ElemSize int
}

func (f *Shuffle) ID() uint16 { return message.FilterShuffle }

func (f *Shuffle) Encode(in []byte) ([]byte, error) {
	return f.transpose(in, true), nil
}

func (f *Shuffle) Decode(in []byte) ([]byte, error) {
	return f.transpose(in, false), nil
}

// transpose shuffles or unshuffles whole elements; trailing bytes that do
// not form an element are copied through.
func (f *Shuffle) transpose(in []byte, forward bool) []byte {
	size := f.ElemSize
	n := 0
	if size > 1 {
		n = len(in) / size
	}
	if n <= 1 {
		return in
	}
	out := make([]byte, len(in))
	for i := 0; i < n; i++ {
		for j := 0; j < size; j++ {
			if forward {
				out[j*n+i] = in[i*size+j]
			} else {
				out[i*size+j] = in[j*n+i]
			}
		}
	}
	copy(out[n*size:], in[n*size:])
	return out
}
