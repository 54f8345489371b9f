package message

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dream3d/h5support/internal/binary"
)

func roundTrip(t *testing.T, m Message, sizes binary.Sizes) Message {
	t.Helper()
	body := Body(m, sizes)
	got, err := Decode(m.Type(), body, sizes)
	if err != nil {
		t.Fatalf("Decode(%#04x): %v", uint16(m.Type()), err)
	}
	if again := Body(got, sizes); !bytes.Equal(again, body) {
		t.Fatalf("re-encoding differs:\n got %x\nwant %x", again, body)
	}
	return got
}

func TestDataspace(t *testing.T) {
	for _, sizes := range []binary.Sizes{{Offset: 8, Length: 8}, {Offset: 4, Length: 4}} {
		ds := roundTrip(t, NewSimple([]uint64{4, 5, 6}), sizes).(*Dataspace)
		if ds.Kind != SpaceSimple || ds.Rank() != 3 {
			t.Fatalf("decoded %+v", ds)
		}
		n, err := ds.Elements()
		if err != nil || n != 120 {
			t.Errorf("Elements() = %d, %v", n, err)
		}
	}
	scalar := roundTrip(t, NewScalar(), binary.DefaultSizes).(*Dataspace)
	if n, _ := scalar.Elements(); scalar.Kind != SpaceScalar || n != 1 {
		t.Errorf("scalar decoded as %+v", scalar)
	}
}

func TestProductOverflow(t *testing.T) {
	if _, err := Product([]uint64{1 << 32, 1 << 32}); err == nil {
		t.Error("expected overflow error")
	}
	n, err := Product([]uint64{2048, 2048, 1024})
	if err != nil || n != 1<<32 {
		t.Errorf("Product = %d, %v", n, err)
	}
}

func TestDatatypes(t *testing.T) {
	tests := []*Datatype{
		NewInteger(1, true),
		NewInteger(2, false),
		NewInteger(4, true),
		NewInteger(8, false),
		NewFloat(4),
		NewFloat(8),
		NewString(17, CharsetASCII),
	}
	for _, dt := range tests {
		t.Run(dt.String(), func(t *testing.T) {
			got := roundTrip(t, dt, binary.DefaultSizes).(*Datatype)
			if !got.Equal(dt) {
				t.Errorf("decoded %v, want %v", got, dt)
			}
			if !got.Supported() {
				t.Errorf("%v reported unsupported", got)
			}
		})
	}
}

func TestFloatClassBits(t *testing.T) {
	body := Body(NewFloat(4), binary.DefaultSizes)
	// class 1 version 1, then class bits: mantissa normalization 2, sign at bit 31.
	want := []byte{0x11, 0x20, 0x1F, 0x00, 4, 0, 0, 0}
	if !bytes.Equal(body[:8], want) {
		t.Errorf("float32 header = %x, want %x", body[:8], want)
	}
}

func TestUnknownDatatypeSurvives(t *testing.T) {
	// Enum-class header followed by opaque properties.
	body := []byte{0x38, 0x01, 0x00, 0x00, 4, 0, 0, 0, 0x10, 0x08, 0, 0, 4, 0, 0, 0, 0, 0, 0, 0}
	m, err := Decode(TypeDatatype, body, binary.DefaultSizes)
	if err != nil {
		t.Fatal(err)
	}
	dt := m.(*Datatype)
	if dt.Class != ClassEnum || dt.Supported() {
		t.Errorf("decoded %v supported=%v", dt, dt.Supported())
	}
	if got := Body(dt, binary.DefaultSizes); !bytes.Equal(got, body) {
		t.Errorf("re-encoded %x, want %x", got, body)
	}
}

func TestLayouts(t *testing.T) {
	compact := roundTrip(t, &Layout{Class: LayoutCompact, Data: []byte{1, 2, 3}}, binary.DefaultSizes).(*Layout)
	if !bytes.Equal(compact.Data, []byte{1, 2, 3}) {
		t.Errorf("compact data = %v", compact.Data)
	}
	contig := roundTrip(t, &Layout{Class: LayoutContiguous, Address: 0x800, Size: 480}, binary.DefaultSizes).(*Layout)
	if contig.Address != 0x800 || contig.Size != 480 {
		t.Errorf("contiguous = %+v", contig)
	}
	chunk := &Layout{
		Class:      LayoutChunked,
		ChunkDims:  []uint64{4, 5, 6, 4},
		Index:      IndexSingleChunk,
		Filtered:   true,
		Size:       77,
		FilterMask: 0,
		Address:    0x1000,
	}
	got := roundTrip(t, chunk, binary.DefaultSizes).(*Layout)
	if !got.Filtered || got.Size != 77 || got.Address != 0x1000 || len(got.ChunkDims) != 4 {
		t.Errorf("chunked = %+v", got)
	}
}

func TestLayoutRejectsV1BTree(t *testing.T) {
	body := []byte{3, 2, 2, 0, 0, 0, 0, 0, 0, 0, 0}
	if _, err := Decode(TypeLayout, body, binary.DefaultSizes); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestPipeline(t *testing.T) {
	p := &Pipeline{Filters: []FilterSpec{
		{ID: FilterShuffle, Flags: FilterOptional, ClientData: []uint32{4}},
		{ID: FilterDeflate, Flags: FilterOptional, ClientData: []uint32{6}},
		{ID: FilterZstd, Name: "zstd", ClientData: []uint32{3}},
		{ID: FilterFletcher32},
	}}
	got := roundTrip(t, p, binary.DefaultSizes).(*Pipeline)
	if len(got.Filters) != 4 || got.Filters[2].Name != "zstd" || got.Filters[1].ClientData[0] != 6 {
		t.Errorf("decoded %+v", got)
	}
	if !got.Has(FilterFletcher32) || got.Has(FilterSnappy) {
		t.Error("Has reported wrong membership")
	}
}

func TestLinks(t *testing.T) {
	l := roundTrip(t, NewHardLink("CELL_DATA", 0x1234), binary.DefaultSizes).(*Link)
	if l.Name != "CELL_DATA" || !l.Hard || l.Address != 0x1234 {
		t.Errorf("decoded %+v", l)
	}
	long := string(bytes.Repeat([]byte("x"), 300))
	l = roundTrip(t, NewHardLink(long, 8), binary.DefaultSizes).(*Link)
	if l.Name != long {
		t.Error("long link name did not survive")
	}
	info := roundTrip(t, &LinkInfo{}, binary.DefaultSizes).(*LinkInfo)
	if info.Dense() {
		t.Error("empty link info decoded as dense")
	}
	roundTrip(t, &GroupInfo{}, binary.DefaultSizes)
}

func TestAttribute(t *testing.T) {
	a := &Attribute{
		Name:     "NumComponents",
		Datatype: NewInteger(4, true),
		Space:    NewSimple([]uint64{1}),
		Data:     []byte{3, 0, 0, 0},
	}
	got := roundTrip(t, a, binary.DefaultSizes).(*Attribute)
	if got.Name != a.Name || !got.Datatype.Equal(a.Datatype) || !got.Space.Equal(a.Space) {
		t.Errorf("decoded %+v", got)
	}
	if !bytes.Equal(got.Data, a.Data) {
		t.Errorf("data = %v", got.Data)
	}
}

func TestFillValue(t *testing.T) {
	got := roundTrip(t, &FillValue{AllocTime: AllocLate, WriteTime: 2}, binary.DefaultSizes).(*FillValue)
	if got.AllocTime != AllocLate || got.Value != nil {
		t.Errorf("decoded %+v", got)
	}
	got = roundTrip(t, &FillValue{AllocTime: AllocEarly, Value: []byte{0, 0, 0x80, 0x3f}}, binary.DefaultSizes).(*FillValue)
	if len(got.Value) != 4 {
		t.Errorf("fill value = %v", got.Value)
	}
}

func TestRawPreserved(t *testing.T) {
	body := []byte{1, 2, 3, 4, 5}
	m, err := Decode(TypeModTime, body, binary.DefaultSizes)
	if err != nil {
		t.Fatal(err)
	}
	if got := Body(m, binary.DefaultSizes); !bytes.Equal(got, body) {
		t.Errorf("raw message changed: %v", got)
	}
}
