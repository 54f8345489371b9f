// Package message decodes and encodes the header messages stored in object
// headers: dataspace, datatype, fill value, layout, links, filter
// pipeline, attributes and continuation blocks.
//
// Every message type supports both directions so that an object header can
// be read, edited in memory and written back. Message types this package
// does not interpret are carried as Raw and re-encoded byte for byte.
package message

import (
	"errors"
	"fmt"

	"github.com/dream3d/h5support/internal/binary"
)

// Type is a header message type number.
type Type uint16

const (
	TypeNIL          Type = 0x0000
	TypeDataspace    Type = 0x0001
	TypeLinkInfo     Type = 0x0002
	TypeDatatype     Type = 0x0003
	TypeFillValueOld Type = 0x0004
	TypeFillValue    Type = 0x0005
	TypeLink         Type = 0x0006
	TypeLayout       Type = 0x0008
	TypeGroupInfo    Type = 0x000A
	TypePipeline     Type = 0x000B
	TypeAttribute    Type = 0x000C
	TypeModTime      Type = 0x0012
	TypeContinuation Type = 0x0010
	TypeSymbolTable  Type = 0x0011
	TypeAttrInfo     Type = 0x0015
)

var (
	// ErrUnsupported marks structures that are valid HDF5 but outside what
	// this package handles.
	ErrUnsupported = errors.New("unsupported")

	// ErrCorrupt marks structures that cannot be valid.
	ErrCorrupt = errors.New("corrupt message")
)

// Message is a decoded header message.
type Message interface {
	Type() Type
	// Encode appends the message body (without the header prefix).
	Encode(e *binary.Encoder)
}

// Decode decodes a message body of the given type.
func Decode(typ Type, body []byte, sizes binary.Sizes) (Message, error) {
	d := binary.NewDecoder(body, sizes)
	var m Message
	var err error
	switch typ {
	case TypeDataspace:
		m, err = decodeDataspace(d)
	case TypeDatatype:
		m, err = decodeDatatype(d, len(body))
	case TypeFillValue:
		m, err = decodeFillValue(d)
	case TypeLayout:
		m, err = decodeLayout(d)
	case TypePipeline:
		m, err = decodePipeline(d)
	case TypeAttribute:
		m, err = decodeAttribute(d)
	case TypeLink:
		m, err = decodeLink(d)
	case TypeLinkInfo:
		m, err = decodeLinkInfo(d)
	case TypeGroupInfo:
		m, err = decodeGroupInfo(d)
	case TypeContinuation:
		m, err = decodeContinuation(d)
	default:
		return &Raw{Kind: typ, Body: append([]byte(nil), body...)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("message %#04x: %w", uint16(typ), err)
	}
	if derr := d.Err(); derr != nil {
		return nil, fmt.Errorf("message %#04x: %w", uint16(typ), derr)
	}
	return m, nil
}

// Body encodes m and returns its body bytes.
func Body(m Message, sizes binary.Sizes) []byte {
	e := binary.NewEncoder(sizes)
	m.Encode(e)
	return e.Bytes()
}

// Raw is a message this package does not interpret. Flags holds the
// message flags from the object header so they survive a rewrite.
type Raw struct {
	Kind  Type
	Flags uint8
	Body  []byte
}

func (m *Raw) Type() Type               { return m.Kind }
func (m *Raw) Encode(e *binary.Encoder) { e.Write(m.Body) }

// Continuation points at the next chunk of an object header.
type Continuation struct {
	Address uint64
	Length  uint64
}

func (m *Continuation) Type() Type { return TypeContinuation }

func (m *Continuation) Encode(e *binary.Encoder) {
	e.Address(m.Address)
	e.Length(m.Length)
}

func decodeContinuation(d *binary.Decoder) (*Continuation, error) {
	return &Continuation{Address: d.Address(), Length: d.Length()}, nil
}
