package filter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/dream3d/h5support/internal/message"
)

// Deflate is zlib compression at Level 0-9.
type Deflate struct {
	Level int
}

func (f *Deflate) ID() uint16 { return message.FilterDeflate }

func (f *Deflate) Encode(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, f.Level)
	if err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	if _, err := zw.Write(in); err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	if buf.Len() >= len(in) {
		return nil, errNoGain
	}
	return buf.Bytes(), nil
}

func (f *Deflate) Decode(in []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	return out, nil
}

// Zstd is Zstandard compression; Level follows the zstd command line scale.
type Zstd struct {
	Level int
}

func (f *Zstd) ID() uint16 { return message.FilterZstd }

func (f *Zstd) Encode(in []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(f.Level)))
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	defer enc.Close()
	out := enc.EncodeAll(in, nil)
	if len(out) >= len(in) {
		return nil, errNoGain
	}
	return out, nil
}

func (f *Zstd) Decode(in []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(in, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return out, nil
}

// Snappy is raw snappy block compression.
type Snappy struct{}

func (Snappy) ID() uint16 { return message.FilterSnappy }

func (Snappy) Encode(in []byte) ([]byte, error) {
	out := snappy.Encode(nil, in)
	if len(out) >= len(in) {
		return nil, errNoGain
	}
	return out, nil
}

func (Snappy) Decode(in []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, in)
	if err != nil {
		return nil, fmt.Errorf("snappy: %w", err)
	}
	return out, nil
}
