package hdf5

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/dream3d/h5support/internal/layout"
	"github.com/dream3d/h5support/internal/message"
	ohdr "github.com/dream3d/h5support/internal/object"
)

// Group is an open group.
type Group struct {
	object
}

// OpenGroup opens a group by path, relative to g unless it starts with "/".
func (g *Group) OpenGroup(p string) (*Group, error) {
	full := joinPath(g.path, p)
	n, err := g.lookup(p)
	if err == nil && !n.header.IsGroup() {
		err = ErrNotGroup
	}
	if err != nil {
		return nil, g.file.fail("open group", full, err)
	}
	return &Group{g.file.handle(n, full)}, nil
}

// OpenDataset opens a dataset by path, relative to g unless it starts
// with "/".
func (g *Group) OpenDataset(p string) (*Dataset, error) {
	full := joinPath(g.path, p)
	n, err := g.lookup(p)
	if err == nil && !n.header.IsDataset() {
		err = ErrNotDataset
	}
	if err != nil {
		return nil, g.file.fail("open dataset", full, err)
	}
	return &Dataset{g.file.handle(n, full)}, nil
}

// OpenObject opens a group or dataset by path.
func (g *Group) OpenObject(p string) (Object, error) {
	full := joinPath(g.path, p)
	n, err := g.lookup(p)
	if err != nil {
		return nil, g.file.fail("open object", full, err)
	}
	switch {
	case n.header.IsDataset():
		return &Dataset{g.file.handle(n, full)}, nil
	case n.header.IsGroup():
		return &Group{g.file.handle(n, full)}, nil
	}
	return nil, g.file.fail("open object", full, fmt.Errorf("%w: object is neither a group nor a dataset", ErrUnsupported))
}

func (g *Group) lookup(p string) (*node, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	return g.file.resolve(g.node, p)
}

// HasLink reports whether g has a member called name.
func (g *Group) HasLink(name string) (bool, error) {
	if err := g.check(); err != nil {
		return false, g.fail("has link", err)
	}
	if _, ok := g.node.children[name]; ok {
		return true, nil
	}
	return g.node.link(name) != nil, nil
}

// Members returns the names of g's members in creation order.
func (g *Group) Members() ([]string, error) {
	if err := g.check(); err != nil {
		return nil, g.fail("list members", err)
	}
	if err := g.node.checkGroup(); err != nil {
		return nil, g.fail("list members", err)
	}
	var names []string
	for _, l := range g.node.links() {
		names = append(names, l.Name)
	}
	return names, nil
}

// CreateGroup creates an empty group called name. It fails with ErrExists
// if g already has a member of that name.
func (g *Group) CreateGroup(name string) (*Group, error) {
	full := joinPath(g.path, name)
	n, err := g.link(name, ohdr.NewGroup())
	if err != nil {
		return nil, g.file.fail("create group", full, err)
	}
	return &Group{g.file.handle(n, full)}, nil
}

// CreateDataset creates a dataset called name holding space elements of
// type t. Raw data reads as zeros until written. File-level dataset
// defaults apply before opts.
func (g *Group) CreateDataset(name string, t *Datatype, space Dataspace, opts ...DatasetOption) (*Dataset, error) {
	full := joinPath(g.path, name)
	h, err := g.file.datasetHeader(t, space, opts)
	if err != nil {
		return nil, g.file.fail("create dataset", full, err)
	}
	n, err := g.link(name, h)
	if err != nil {
		return nil, g.file.fail("create dataset", full, err)
	}
	return &Dataset{g.file.handle(n, full)}, nil
}

// link adds a new object with header h under name.
func (g *Group) link(name string, h *ohdr.Header) (*node, error) {
	if err := g.checkWrite(); err != nil {
		return nil, err
	}
	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := g.node.checkGroup(); err != nil {
		return nil, err
	}
	if g.node.link(name) != nil {
		return nil, ErrExists
	}
	n := &node{addr: g.file.sizes.Undefined(), header: h, name: name, dirty: true}
	g.node.header.Messages = append(g.node.header.Messages, message.NewHardLink(name, n.addr))
	g.node.addChild(n)
	g.node.dirty = true
	return n, nil
}

// maxChunk is the largest chunk the single-chunk index can describe.
const maxChunk = 1<<32 - 1

func (f *File) datasetHeader(t *Datatype, space Dataspace, opts []DatasetOption) (*ohdr.Header, error) {
	o := &datasetOptions{}
	for _, opt := range f.opts.dataset {
		opt(o)
	}
	for _, opt := range opts {
		opt(o)
	}
	if t.Class() == ClassOther {
		return nil, fmt.Errorf("%w: datatype %v", ErrUnsupported, t)
	}
	elems := space.NumElements()
	carry, nbytes := bits.Mul64(elems, uint64(t.Size()))
	if carry != 0 {
		return nil, fmt.Errorf("%w: %d elements of %v", ErrTooLarge, elems, t)
	}

	fill := &message.FillValue{AllocTime: message.AllocLate, WriteTime: 2}
	var l *message.Layout
	pipeline := o.pipeline()
	switch {
	case pipeline != nil && !space.IsScalar():
		if nbytes > maxChunk {
			return nil, fmt.Errorf("%w: filtered dataset of %d bytes exceeds one chunk", ErrTooLarge, nbytes)
		}
		l = layout.NewSingleChunk(f.sizes, space.dims, uint32(t.Size()), true)
		fill.AllocTime = message.AllocIncremental
	case o.compact && nbytes <= layout.MaxCompact:
		pipeline = nil
		l = layout.NewCompact(nbytes)
		fill.AllocTime = message.AllocEarly
	default:
		pipeline = nil
		l = layout.NewContiguous(f.sizes, nbytes)
	}

	h := &ohdr.Header{Messages: []message.Message{space.message(), t.m.Clone(), fill, l}}
	if pipeline != nil {
		h.Messages = append(h.Messages, pipeline)
	}
	if _, err := h.Encode(f.sizes); err != nil {
		if errors.Is(err, ohdr.ErrMessageTooLarge) {
			err = fmt.Errorf("%w: %v", ErrTooLarge, err)
		}
		return nil, err
	}
	return h, nil
}
