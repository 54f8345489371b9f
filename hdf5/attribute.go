package hdf5

import (
	"fmt"

	"github.com/dream3d/h5support/internal/dtype"
	"github.com/dream3d/h5support/internal/message"
)

// Attribute is an open attribute of a group or dataset.
type Attribute struct {
	file   *File
	owner  *node
	name   string
	path   string
	closed bool
}

// Name returns the attribute name.
func (a *Attribute) Name() string { return a.name }

// Path returns the attribute path in object@name form.
func (a *Attribute) Path() string { return a.path }

// Close releases the handle. Closing twice is a no-op.
func (a *Attribute) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	if !a.file.closed {
		a.file.open--
	}
	return nil
}

func (a *Attribute) message() (*message.Attribute, error) {
	if a.closed || a.file.closed {
		return nil, ErrClosed
	}
	m := a.owner.header.Attribute(a.name)
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

// Space returns the attribute's shape.
func (a *Attribute) Space() (Dataspace, error) {
	m, err := a.message()
	if err != nil {
		return Dataspace{}, a.file.fail("get space", a.path, err)
	}
	s, err := spaceFrom(m.Space)
	return s, a.file.fail("get space", a.path, err)
}

// Datatype returns the stored element type.
func (a *Attribute) Datatype() (*Datatype, error) {
	m, err := a.message()
	if err != nil {
		return nil, a.file.fail("get type", a.path, err)
	}
	return &Datatype{m.Datatype.Clone()}, nil
}

// Read reads the value into dst, converting from the stored type to mem.
func (a *Attribute) Read(mem *Datatype, dst []byte) error {
	m, err := a.message()
	if err == nil {
		err = a.read(m, mem, dst)
	}
	return a.file.fail("read attribute", a.path, err)
}

func (a *Attribute) read(m *message.Attribute, mem *Datatype, dst []byte) error {
	n, err := m.Space.Elements()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	if want := n * uint64(mem.Size()); uint64(len(dst)) != want {
		return fmt.Errorf("%w: %d bytes for %d elements of %v", ErrSizeMismatch, len(dst), n, mem)
	}
	out, err := dtype.Convert(mem.m, m.Datatype, m.Data, n)
	if err != nil {
		return err
	}
	copy(dst, out)
	return nil
}

// Write replaces the value with src, converting from mem to the stored
// type.
func (a *Attribute) Write(mem *Datatype, src []byte) error {
	m, err := a.message()
	if err == nil && !a.file.writable {
		err = ErrReadOnly
	}
	if err == nil {
		err = a.write(m, mem, src)
	}
	return a.file.fail("write attribute", a.path, err)
}

func (a *Attribute) write(m *message.Attribute, mem *Datatype, src []byte) error {
	n, err := m.Space.Elements()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	if want := n * uint64(mem.Size()); uint64(len(src)) != want {
		return fmt.Errorf("%w: %d bytes for %d elements of %v", ErrSizeMismatch, len(src), n, mem)
	}
	data, err := dtype.Convert(m.Datatype, mem.m, src, n)
	if err != nil {
		return err
	}
	m.Data = append(m.Data[:0], data...)
	a.owner.dirty = true
	return nil
}
