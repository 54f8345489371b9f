package object

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dream3d/h5support/internal/binary"
	"github.com/dream3d/h5support/internal/message"
)

type image []byte

func (b image) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(b)) {
		return 0, errors.New("past end")
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, errors.New("short")
	}
	return n, nil
}

func datasetHeader() *Header {
	return &Header{Messages: []message.Message{
		message.NewSimple([]uint64{4, 5}),
		message.NewFloat(4),
		&message.FillValue{AllocTime: message.AllocLate, WriteTime: 2},
		&message.Layout{Class: message.LayoutContiguous, Address: 512, Size: 80},
		&message.Attribute{Name: "Name", Datatype: message.NewString(17, message.CharsetASCII),
			Space: message.NewSimple([]uint64{1}), Data: []byte("H5T_NATIVE_FLOAT\x00")},
	}}
}

func TestEncodeReadRoundTrip(t *testing.T) {
	h := datasetHeader()
	enc, err := h.Encode(binary.DefaultSizes)
	if err != nil {
		t.Fatal(err)
	}
	file := append(make(image, 100), enc...)
	got, err := Read(file, 100, binary.DefaultSizes)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got.Messages) != len(h.Messages) {
		t.Fatalf("got %d messages, want %d", len(got.Messages), len(h.Messages))
	}
	if !got.IsDataset() || got.IsGroup() {
		t.Error("dataset header misclassified")
	}
	if a := got.Attribute("Name"); a == nil || !bytes.HasPrefix(a.Data, []byte("H5T_NATIVE_FLOAT")) {
		t.Errorf("attribute lost: %+v", a)
	}
}

func TestReadDetectsCorruption(t *testing.T) {
	enc, err := datasetHeader().Encode(binary.DefaultSizes)
	if err != nil {
		t.Fatal(err)
	}
	enc[20] ^= 0x01
	if _, err := Read(image(enc), 0, binary.DefaultSizes); !errors.Is(err, ErrChecksum) {
		t.Errorf("expected ErrChecksum, got %v", err)
	}
}

func TestReadRejectsV1(t *testing.T) {
	if _, err := Read(image{1, 0, 1, 0, 0, 0, 0, 0}, 0, binary.DefaultSizes); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestGroupHeader(t *testing.T) {
	h := NewGroup()
	h.Messages = append(h.Messages, message.NewHardLink("G", 0x40))
	enc, err := h.Encode(binary.DefaultSizes)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Read(image(enc), 0, binary.DefaultSizes)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsGroup() || got.IsDataset() {
		t.Error("group header misclassified")
	}
	if links := got.FindAll(message.TypeLink); len(links) != 1 {
		t.Errorf("found %d links", len(links))
	}
}

func TestContinuationBlock(t *testing.T) {
	sizes := binary.DefaultSizes
	link := message.Body(message.NewHardLink("far", 0x99), sizes)

	block := binary.NewEncoder(sizes)
	block.Write(sigContinuation)
	block.Uint8(uint8(message.TypeLink))
	block.Uint16(uint16(len(link)))
	block.Uint8(0)
	block.Write(link)
	block.AppendChecksum()

	h := NewGroup()
	h.Messages = append(h.Messages, &message.Continuation{Address: 400, Length: uint64(block.Len())})
	enc, err := h.Encode(sizes)
	if err != nil {
		t.Fatal(err)
	}
	file := make(image, 400+block.Len())
	copy(file, enc)
	copy(file[400:], block.Bytes())

	got, err := Read(file, 0, sizes)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	l, ok := got.Find(message.TypeLink).(*message.Link)
	if !ok || l.Name != "far" || l.Address != 0x99 {
		t.Errorf("continuation link = %+v", got.Find(message.TypeLink))
	}
	if got.Find(message.TypeContinuation) != nil {
		t.Error("continuation message should be consumed")
	}
}

func TestEncodeRejectsOversizeMessage(t *testing.T) {
	h := &Header{Messages: []message.Message{&message.Layout{Class: message.LayoutCompact, Data: make([]byte, 70000)}}}
	if _, err := h.Encode(binary.DefaultSizes); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestPutAndRemove(t *testing.T) {
	h := datasetHeader()
	h.Put(&message.Layout{Class: message.LayoutContiguous, Address: 1024, Size: 80})
	if l := h.Find(message.TypeLayout).(*message.Layout); l.Address != 1024 {
		t.Errorf("Put did not replace layout: %+v", l)
	}
	n := h.Remove(func(m message.Message) bool {
		a, ok := m.(*message.Attribute)
		return ok && a.Name == "Name"
	})
	if n != 1 || h.Attribute("Name") != nil {
		t.Errorf("Remove removed %d", n)
	}
}
