package hdf5

import (
	"fmt"
	"math/bits"
	"path"

	"github.com/dream3d/h5support/internal/message"
)

// Object is a group or dataset: anything that carries attributes.
type Object interface {
	File() *File
	Path() string
	Name() string
	CreateAttribute(name string, t *Datatype, space Dataspace) (*Attribute, error)
	OpenAttribute(name string) (*Attribute, error)
	HasAttribute(name string) (bool, error)
	DeleteAttribute(name string) error
	AttributeNames() ([]string, error)
	Close() error
}

// maxAttribute is the largest attribute message a header can hold.
const maxAttribute = 1<<16 - 1

// object is the handle state shared by groups and datasets.
type object struct {
	file     *File
	node     *node
	path     string
	closed   bool
	borrowed bool
}

func (f *File) handle(n *node, p string) object {
	f.open++
	return object{file: f, node: n, path: p}
}

func (o *object) check() error {
	if o.closed || o.file.closed {
		return ErrClosed
	}
	return nil
}

func (o *object) checkWrite() error {
	if err := o.check(); err != nil {
		return err
	}
	if !o.file.writable {
		return ErrReadOnly
	}
	return nil
}

func (o *object) fail(op string, err error) error {
	return o.file.fail(op, o.path, err)
}

// File returns the file the object belongs to.
func (o *object) File() *File { return o.file }

// Path returns the absolute path the object was opened by.
func (o *object) Path() string { return o.path }

// Name returns the last component of the path.
func (o *object) Name() string { return path.Base(o.path) }

// Close releases the handle. Closing twice is a no-op.
func (o *object) Close() error {
	if o.closed || o.borrowed {
		return nil
	}
	o.closed = true
	if !o.file.closed {
		o.file.open--
	}
	return nil
}

// CreateAttribute attaches a new zero-valued attribute. It fails with
// ErrExists if the name is taken.
func (o *object) CreateAttribute(name string, t *Datatype, space Dataspace) (*Attribute, error) {
	if err := o.checkWrite(); err != nil {
		return nil, o.fail("create attribute", err)
	}
	at := JoinAttrPath(o.path, name)
	if err := checkAttrName(name); err != nil {
		return nil, o.file.fail("create attribute", at, err)
	}
	if o.node.header.Attribute(name) != nil {
		return nil, o.file.fail("create attribute", at, ErrExists)
	}
	carry, size := bits.Mul64(space.NumElements(), uint64(t.Size()))
	if carry != 0 || size > maxAttribute {
		return nil, o.file.fail("create attribute", at, fmt.Errorf("%w: %d elements of %v", ErrTooLarge, space.NumElements(), t))
	}
	m := &message.Attribute{
		Name:     name,
		Datatype: t.m.Clone(),
		Space:    space.message(),
		Data:     make([]byte, size),
	}
	if n := len(message.Body(m, o.file.sizes)); n > maxAttribute {
		return nil, o.file.fail("create attribute", at, fmt.Errorf("%w: attribute message of %d bytes", ErrTooLarge, n))
	}
	o.node.header.Messages = append(o.node.header.Messages, m)
	o.node.dirty = true
	o.file.open++
	return &Attribute{file: o.file, owner: o.node, name: name, path: at}, nil
}

func checkAttrName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty attribute name", ErrInvalidPath)
	}
	return nil
}

// OpenAttribute opens the attribute called name.
func (o *object) OpenAttribute(name string) (*Attribute, error) {
	if err := o.check(); err != nil {
		return nil, o.fail("open attribute", err)
	}
	at := JoinAttrPath(o.path, name)
	if o.node.header.Attribute(name) == nil {
		return nil, o.file.fail("open attribute", at, ErrNotFound)
	}
	o.file.open++
	return &Attribute{file: o.file, owner: o.node, name: name, path: at}, nil
}

// HasAttribute reports whether an attribute called name exists.
func (o *object) HasAttribute(name string) (bool, error) {
	if err := o.check(); err != nil {
		return false, o.fail("has attribute", err)
	}
	return o.node.header.Attribute(name) != nil, nil
}

// DeleteAttribute removes the attribute called name.
func (o *object) DeleteAttribute(name string) error {
	if err := o.checkWrite(); err != nil {
		return o.fail("delete attribute", err)
	}
	removed := o.node.header.Remove(func(m message.Message) bool {
		a, ok := m.(*message.Attribute)
		return ok && a.Name == name
	})
	if removed == 0 {
		return o.file.fail("delete attribute", JoinAttrPath(o.path, name), ErrNotFound)
	}
	o.node.dirty = true
	return nil
}

// AttributeNames returns attribute names in creation order.
func (o *object) AttributeNames() ([]string, error) {
	if err := o.check(); err != nil {
		return nil, o.fail("list attributes", err)
	}
	var names []string
	for _, a := range o.node.header.Attributes() {
		names = append(names, a.Name)
	}
	return names, nil
}
