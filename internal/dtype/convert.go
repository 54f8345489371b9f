package dtype

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/dream3d/h5support/internal/message"
)

// Convert re-encodes n elements stored as src into the layout of dst.
// Integer and float types convert to one another: out-of-range values
// clamp to the destination range, floats truncate toward zero, NaN
// becomes zero. Fixed-length strings convert to strings of another length.
// Numbers never convert to or from strings.
func Convert(dst, src *message.Datatype, data []byte, n uint64) ([]byte, error) {
	if !src.Supported() || !dst.Supported() {
		return nil, fmt.Errorf("%w: cannot convert %v to %v", ErrTypeMismatch, src, dst)
	}
	if uint64(len(data)) < n*uint64(src.Size) {
		return nil, fmt.Errorf("convert: %d bytes hold fewer than %d %v elements", len(data), n, src)
	}
	if dst.Equal(src) {
		return data[:n*uint64(src.Size)], nil
	}
	srcText, dstText := src.Class == message.ClassString, dst.Class == message.ClassString
	if srcText != dstText {
		return nil, fmt.Errorf("%w: cannot convert %v to %v", ErrTypeMismatch, src, dst)
	}
	if srcText {
		return convertStrings(dst, src, data, n), nil
	}
	out := make([]byte, n*uint64(dst.Size))
	ss, ds := uint64(src.Size), uint64(dst.Size)
	for i := uint64(0); i < n; i++ {
		v := load(src, data[i*ss:(i+1)*ss])
		store(dst, out[i*ds:(i+1)*ds], v)
	}
	return out, nil
}

// value holds one element in the widest form of its class.
type value struct {
	float bool
	neg   bool
	u     uint64 // magnitude-preserving bits for integers
	f     float64
}

func order(dt *message.Datatype) binary.ByteOrder {
	if dt.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func load(dt *message.Datatype, b []byte) value {
	o := order(dt)
	if dt.Class == message.ClassFloat {
		if dt.Size == 4 {
			return value{float: true, f: float64(math.Float32frombits(o.Uint32(b)))}
		}
		return value{float: true, f: math.Float64frombits(o.Uint64(b))}
	}
	var u uint64
	switch dt.Size {
	case 1:
		u = uint64(b[0])
	case 2:
		u = uint64(o.Uint16(b))
	case 4:
		u = uint64(o.Uint32(b))
	case 8:
		u = o.Uint64(b)
	}
	if dt.Signed {
		shift := 64 - 8*uint(dt.Size)
		s := int64(u<<shift) >> shift
		return value{neg: s < 0, u: uint64(s)}
	}
	return value{u: u}
}

func store(dt *message.Datatype, b []byte, v value) {
	o := order(dt)
	if dt.Class == message.ClassFloat {
		f := v.f
		if !v.float {
			if v.neg {
				f = float64(int64(v.u))
			} else {
				f = float64(v.u)
			}
		}
		if dt.Size == 4 {
			o.PutUint32(b, math.Float32bits(float32(f)))
		} else {
			o.PutUint64(b, math.Float64bits(f))
		}
		return
	}
	u := clampInt(dt, v)
	switch dt.Size {
	case 1:
		b[0] = byte(u)
	case 2:
		o.PutUint16(b, uint16(u))
	case 4:
		o.PutUint32(b, uint32(u))
	case 8:
		o.PutUint64(b, u)
	}
}

// clampInt returns the two's complement bits of v saturated to dt's range.
func clampInt(dt *message.Datatype, v value) uint64 {
	bitsN := 8 * uint(dt.Size)
	if dt.Signed {
		hi := int64(1)<<(bitsN-1) - 1
		lo := -hi - 1
		var s int64
		switch {
		case v.float:
			s = floatToInt64(v.f, lo, hi)
		case v.neg:
			s = max(int64(v.u), lo)
		case v.u > uint64(hi):
			s = hi
		default:
			s = int64(v.u)
		}
		return uint64(s)
	}
	hi := uint64(math.MaxUint64)
	if bitsN < 64 {
		hi = uint64(1)<<bitsN - 1
	}
	switch {
	case v.float:
		if math.IsNaN(v.f) || v.f <= 0 {
			return 0
		}
		if v.f >= float64(hi) {
			return hi
		}
		return uint64(v.f)
	case v.neg:
		return 0
	default:
		return min(v.u, hi)
	}
}

func floatToInt64(f float64, lo, hi int64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f <= float64(lo):
		return lo
	case f >= float64(hi):
		return hi
	}
	return int64(f)
}

func convertStrings(dst, src *message.Datatype, data []byte, n uint64) []byte {
	ss, ds := uint64(src.Size), uint64(dst.Size)
	out := make([]byte, n*ds)
	for i := uint64(0); i < n; i++ {
		s := Text(src, data[i*ss:(i+1)*ss])
		cell := out[i*ds : (i+1)*ds]
		PutText(dst, cell, s)
	}
	return out
}

// Text returns the string held in one fixed-length string element.
func Text(dt *message.Datatype, cell []byte) string {
	end := len(cell)
	switch dt.Pad {
	case message.PadSpace:
		for end > 0 && cell[end-1] == ' ' {
			end--
		}
	default:
		for i, c := range cell {
			if c == 0 {
				end = i
				break
			}
		}
	}
	return string(cell[:end])
}

// PutText stores s in one fixed-length string element, truncating it to
// fit and padding the rest. Null-terminated cells keep their last byte
// for the terminator.
func PutText(dt *message.Datatype, cell []byte, s string) {
	room := len(cell)
	if dt.Pad == message.PadNullTerm && room > 0 {
		room--
	}
	n := copy(cell[:room], s)
	pad := byte(0)
	if dt.Pad == message.PadSpace {
		pad = ' '
	}
	for i := n; i < len(cell); i++ {
		cell[i] = pad
	}
}
