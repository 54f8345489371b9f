package hdf5

import (
	"fmt"
	"sort"

	"github.com/dream3d/h5support/internal/message"
	ohdr "github.com/dream3d/h5support/internal/object"
)

// node is the in-memory copy of one object header. Nodes are loaded the
// first time a path reaches them and stay cached until the file closes.
// A dirty node is rewritten on flush; when that moves it, the link in its
// parent is updated, which dirties the parent in turn.
type node struct {
	addr     uint64
	size     uint64 // bytes at addr written by this process; 0 when unknown
	header   *ohdr.Header
	dirty    bool
	name     string
	parent   *node
	children map[string]*node
}

func (n *node) link(name string) *message.Link {
	for _, m := range n.header.FindAll(message.TypeLink) {
		if l := m.(*message.Link); l.Name == name {
			return l
		}
	}
	return nil
}

func (n *node) links() []*message.Link {
	var out []*message.Link
	for _, m := range n.header.FindAll(message.TypeLink) {
		out = append(out, m.(*message.Link))
	}
	return out
}

// checkGroup reports why links under n cannot be used, if they cannot.
func (n *node) checkGroup() error {
	if !n.header.IsGroup() {
		return ErrNotGroup
	}
	if n.header.Find(message.TypeSymbolTable) != nil {
		return fmt.Errorf("%w: symbol table group", ErrUnsupported)
	}
	if li, ok := n.header.Find(message.TypeLinkInfo).(*message.LinkInfo); ok && li.Dense() {
		return fmt.Errorf("%w: dense link storage", ErrUnsupported)
	}
	return nil
}

func (n *node) addChild(c *node) {
	if n.children == nil {
		n.children = make(map[string]*node)
	}
	c.parent = n
	n.children[c.name] = c
}

func (n *node) childNames() []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// child returns the object linked from n under name.
func (f *File) child(n *node, name string) (*node, error) {
	if c, ok := n.children[name]; ok {
		return c, nil
	}
	if err := n.checkGroup(); err != nil {
		return nil, err
	}
	l := n.link(name)
	if l == nil {
		return nil, ErrNotFound
	}
	if !l.Hard {
		return nil, fmt.Errorf("%w: soft or external link %q", ErrUnsupported, name)
	}
	h, err := ohdr.Read(f.store, l.Address, f.sizes)
	if err != nil {
		return nil, err
	}
	c := &node{addr: l.Address, header: h, name: name}
	n.addChild(c)
	return c, nil
}

// resolve walks a path from start. Absolute paths start at the root.
// Empty components and "." are skipped.
func (f *File) resolve(start *node, p string) (*node, error) {
	n := start
	if len(p) > 0 && p[0] == '/' {
		n = f.root
	}
	for _, part := range splitPath(p) {
		if part == ".." {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
		c, err := f.child(n, part)
		if err != nil {
			return nil, err
		}
		n = c
	}
	return n, nil
}

// flushNode writes dirty descendants of n, then n itself.
func (f *File) flushNode(n *node) error {
	for _, name := range n.childNames() {
		c := n.children[name]
		if err := f.flushNode(c); err != nil {
			return err
		}
		if l := n.link(name); l != nil && l.Address != c.addr {
			l.Address = c.addr
			n.dirty = true
		}
	}
	if !n.dirty {
		return nil
	}
	buf, err := n.header.Encode(f.sizes)
	if err != nil {
		return err
	}
	size := uint64(len(buf))
	if size == n.size {
		if _, err := f.store.WriteAt(buf, int64(n.addr)); err != nil {
			return err
		}
		n.dirty = false
		return nil
	}
	addr := f.alloc.Alloc(size)
	if _, err := f.store.WriteAt(buf, int64(addr)); err != nil {
		f.alloc.Free(addr, size)
		return err
	}
	if n.size > 0 {
		if err := f.alloc.Free(n.addr, n.size); err != nil {
			return err
		}
	}
	n.addr, n.size, n.dirty = addr, size, false
	return nil
}
