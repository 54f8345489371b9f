// Package object reads and writes version 2 object headers, the
// per-object list of messages that describes a group or dataset.
//
// Headers are read in full (following continuation blocks) into a Header
// value, edited in memory, and written back as a single chunk at a new
// address.
package object

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/dream3d/h5support/internal/binary"
	"github.com/dream3d/h5support/internal/message"
)

var (
	sigHeader       = []byte("OHDR")
	sigContinuation = []byte("OCHK")
)

var (
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksum           = errors.New("object header checksum mismatch")
	ErrMessageTooLarge    = errors.New("header message exceeds 65535 bytes")
)

// maxContinuations bounds the number of chained continuation blocks
// followed for one header.
const maxContinuations = 1024

// Header is an object header's message list.
type Header struct {
	Messages []message.Message
}

// Read decodes the object header at addr.
func Read(r io.ReaderAt, addr uint64, sizes binary.Sizes) (*Header, error) {
	prefix, err := binary.ReadAt(r, addr, 6)
	if err != nil {
		return nil, fmt.Errorf("object header at %d: %w", addr, err)
	}
	if !bytes.Equal(prefix[:4], sigHeader) {
		if prefix[0] == 1 {
			return nil, fmt.Errorf("%w: version 1 header at %d", ErrUnsupportedVersion, addr)
		}
		return nil, fmt.Errorf("%w: no header signature at %d", ErrUnsupportedVersion, addr)
	}
	if prefix[4] != 2 {
		return nil, fmt.Errorf("%w: %d at %d", ErrUnsupportedVersion, prefix[4], addr)
	}
	flags := prefix[5]
	fixed := 6
	if flags&0x20 != 0 {
		fixed += 16
	}
	if flags&0x10 != 0 {
		fixed += 4
	}
	width := 1 << (flags & 0x03)
	sizeBuf, err := binary.ReadAt(r, addr+uint64(fixed), width)
	if err != nil {
		return nil, fmt.Errorf("object header at %d: %w", addr, err)
	}
	chunkSize := binary.Uint(sizeBuf)
	start := fixed + width
	whole, err := binary.ReadAt(r, addr, start+int(chunkSize)+4)
	if err != nil {
		return nil, fmt.Errorf("object header at %d: %w", addr, err)
	}
	if err := verify(whole); err != nil {
		return nil, fmt.Errorf("object header at %d: %w", addr, err)
	}

	h := &Header{}
	order := flags&0x04 != 0
	pending, err := h.decodeChunk(whole[start:len(whole)-4], sizes, order)
	if err != nil {
		return nil, fmt.Errorf("object header at %d: %w", addr, err)
	}
	for n := 0; len(pending) > 0; n++ {
		if n >= maxContinuations {
			return nil, fmt.Errorf("object header at %d: too many continuation blocks", addr)
		}
		c := pending[0]
		pending = pending[1:]
		block, err := binary.ReadAt(r, c.Address, int(c.Length))
		if err != nil {
			return nil, fmt.Errorf("continuation at %d: %w", c.Address, err)
		}
		if len(block) < 8 || !bytes.Equal(block[:4], sigContinuation) {
			return nil, fmt.Errorf("continuation at %d: bad signature", c.Address)
		}
		if err := verify(block); err != nil {
			return nil, fmt.Errorf("continuation at %d: %w", c.Address, err)
		}
		more, err := h.decodeChunk(block[4:len(block)-4], sizes, order)
		if err != nil {
			return nil, fmt.Errorf("continuation at %d: %w", c.Address, err)
		}
		pending = append(pending, more...)
	}
	return h, nil
}

func verify(b []byte) error {
	body, sum := b[:len(b)-4], b[len(b)-4:]
	if binary.Uint(sum) != uint64(binary.Lookup3Checksum(body)) {
		return ErrChecksum
	}
	return nil
}

// decodeChunk appends the messages of one chunk and returns the
// continuation messages found in it.
func (h *Header) decodeChunk(chunk []byte, sizes binary.Sizes, order bool) ([]*message.Continuation, error) {
	prefix := 4
	if order {
		prefix += 2
	}
	var conts []*message.Continuation
	d := binary.NewDecoder(chunk, sizes)
	// Anything shorter than a message prefix at the end of a chunk is a gap.
	for d.Remaining() >= prefix {
		typ := message.Type(d.Uint8())
		size := int(d.Uint16())
		mflags := d.Uint8()
		if order {
			d.Skip(2)
		}
		body := d.Bytes(size)
		if err := d.Err(); err != nil {
			return nil, err
		}
		if typ == message.TypeNIL {
			continue
		}
		if mflags&0x02 != 0 {
			// Shared messages point elsewhere; keep them opaque.
			h.Messages = append(h.Messages, &message.Raw{Kind: typ, Flags: mflags, Body: append([]byte(nil), body...)})
			continue
		}
		m, err := message.Decode(typ, body, sizes)
		if err != nil {
			return nil, err
		}
		if raw, ok := m.(*message.Raw); ok {
			raw.Flags = mflags
		}
		if c, ok := m.(*message.Continuation); ok {
			conts = append(conts, c)
			continue
		}
		h.Messages = append(h.Messages, m)
	}
	return conts, nil
}

// Encode returns the header as one checksummed chunk.
func (h *Header) Encode(sizes binary.Sizes) ([]byte, error) {
	body := binary.NewEncoder(sizes)
	for _, m := range h.Messages {
		b := message.Body(m, sizes)
		if len(b) > 0xFFFF {
			return nil, fmt.Errorf("%w: message %#04x is %d bytes", ErrMessageTooLarge, uint16(m.Type()), len(b))
		}
		var mflags uint8
		if raw, ok := m.(*message.Raw); ok {
			mflags = raw.Flags
		}
		body.Uint8(uint8(m.Type()))
		body.Uint16(uint16(len(b)))
		body.Uint8(mflags)
		body.Write(b)
	}
	width := binary.WidthFor(uint64(body.Len()))
	var flags uint8
	switch width {
	case 2:
		flags = 1
	case 4:
		flags = 2
	case 8:
		flags = 3
	}
	e := binary.NewEncoder(sizes)
	e.Write(sigHeader)
	e.Uint8(2)
	e.Uint8(flags)
	e.UintN(uint64(body.Len()), width)
	e.Write(body.Bytes())
	e.AppendChecksum()
	return e.Bytes(), nil
}

// Find returns the first message of type typ, or nil.
func (h *Header) Find(typ message.Type) message.Message {
	for _, m := range h.Messages {
		if m.Type() == typ {
			return m
		}
	}
	return nil
}

// FindAll returns every message of type typ in header order.
func (h *Header) FindAll(typ message.Type) []message.Message {
	var out []message.Message
	for _, m := range h.Messages {
		if m.Type() == typ {
			out = append(out, m)
		}
	}
	return out
}

// Put replaces the first message of the same type, or appends m.
func (h *Header) Put(m message.Message) {
	for i, old := range h.Messages {
		if old.Type() == m.Type() {
			h.Messages[i] = m
			return
		}
	}
	h.Messages = append(h.Messages, m)
}

// Remove deletes every message for which drop returns true and reports
// how many were removed.
func (h *Header) Remove(drop func(message.Message) bool) int {
	kept := h.Messages[:0]
	n := 0
	for _, m := range h.Messages {
		if drop(m) {
			n++
			continue
		}
		kept = append(kept, m)
	}
	h.Messages = kept
	return n
}

// IsGroup reports whether the header describes a group.
func (h *Header) IsGroup() bool {
	return h.Find(message.TypeLinkInfo) != nil || h.Find(message.TypeSymbolTable) != nil ||
		(h.Find(message.TypeLink) != nil && h.Find(message.TypeLayout) == nil)
}

// IsDataset reports whether the header describes a dataset.
func (h *Header) IsDataset() bool {
	return h.Find(message.TypeLayout) != nil
}

// Attributes returns the attribute messages in header order.
func (h *Header) Attributes() []*message.Attribute {
	var out []*message.Attribute
	for _, m := range h.Messages {
		if a, ok := m.(*message.Attribute); ok {
			out = append(out, a)
		}
	}
	return out
}

// Attribute returns the attribute named name, or nil.
func (h *Header) Attribute(name string) *message.Attribute {
	for _, m := range h.Messages {
		if a, ok := m.(*message.Attribute); ok && a.Name == name {
			return a
		}
	}
	return nil
}

// NewGroup returns the header of an empty group with compact link storage.
func NewGroup() *Header {
	return &Header{Messages: []message.Message{&message.LinkInfo{}, &message.GroupInfo{}}}
}
