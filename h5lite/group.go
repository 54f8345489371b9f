package h5lite

import (
	"errors"
	"fmt"
	"io"
	"path"
	"reflect"

	"github.com/dream3d/h5support/hdf5"
)

// OpenFile opens an existing file, read-only unless readOnly is false.
func OpenFile(name string, readOnly bool, opts ...hdf5.FileOption) (*hdf5.File, error) {
	o := begin("OpenFile", name)
	open := hdf5.OpenReadWrite
	if readOnly {
		open = hdf5.Open
	}
	f, err := open(name, opts...)
	if err != nil {
		o.fail("open file", OpenFailed, err)
	}
	return f, o.end()
}

// CreateFile creates a file, truncating any existing one.
func CreateFile(name string, opts ...hdf5.FileOption) (*hdf5.File, error) {
	o := begin("CreateFile", name)
	f, err := hdf5.Create(name, opts...)
	if err != nil {
		o.fail("create file", CreateFailed, err)
	}
	return f, o.end()
}

// OpenGroup opens the group name under parent.
func OpenGroup(parent *hdf5.Group, name string) (*hdf5.Group, error) {
	o := begin("OpenGroup", objectPath(parent, name))
	g := openGroup(o, parent, name)
	return g, o.end()
}

func openGroup(o *op, parent *hdf5.Group, name string) *hdf5.Group {
	if !checkParent(o, parent) {
		return nil
	}
	g, err := parent.OpenGroup(name)
	if err != nil {
		o.fail("open group", codeFor(err, OpenFailed), err)
		return nil
	}
	return g
}

// CreateGroup creates the group name under parent. It fails if the name
// is taken.
func CreateGroup(parent *hdf5.Group, name string) (*hdf5.Group, error) {
	o := begin("CreateGroup", objectPath(parent, name))
	if !checkParent(o, parent) {
		return nil, o.end()
	}
	g, err := parent.CreateGroup(name)
	if err != nil {
		o.fail("create group", codeFor(err, CreateFailed), err)
	}
	return g, o.end()
}

// OpenOrCreateGroup opens the group name under parent, creating it if it
// does not exist.
func OpenOrCreateGroup(parent *hdf5.Group, name string) (*hdf5.Group, error) {
	o := begin("OpenOrCreateGroup", objectPath(parent, name))
	g := openOrCreateGroup(o, parent, name)
	return g, o.end()
}

func openOrCreateGroup(o *op, parent *hdf5.Group, name string) *hdf5.Group {
	if !checkParent(o, parent) {
		return nil
	}
	restore := parent.File().SuppressErrors()
	g, err := parent.OpenGroup(name)
	restore()
	if err == nil {
		return g
	}
	if !errors.Is(err, hdf5.ErrNotFound) {
		o.fail("open group", codeFor(err, OpenFailed), err)
		return nil
	}
	g, err = parent.CreateGroup(name)
	if err != nil {
		o.fail("create group", codeFor(err, CreateFailed), err)
		return nil
	}
	return g
}

// CreateGroupsFromPath makes sure every group along p exists under parent.
// Absolute paths start at the file's root.
func CreateGroupsFromPath(parent *hdf5.Group, p string) error {
	o := begin("CreateGroupsFromPath", objectPath(parent, p))
	if !checkParent(o, parent) {
		return o.end()
	}
	g := parent
	if path.IsAbs(p) {
		g = parent.File().Root()
	}
	for _, name := range hdf5.SplitPath(p) {
		next := openOrCreateGroup(o, g, name)
		if g != parent {
			o.close("close group", g)
		}
		if g = next; g == nil {
			break
		}
	}
	if g != nil && g != parent {
		o.close("close group", g)
	}
	return o.end()
}

// ObjectExists reports whether a group or dataset exists at p under parent.
// Failures other than absence are not reported.
func ObjectExists(parent *hdf5.Group, p string) bool {
	if nilHandle(parent) {
		return false
	}
	defer parent.File().SuppressErrors()()
	obj, err := parent.OpenObject(p)
	if err != nil {
		return false
	}
	obj.Close()
	return true
}

// CloseAll closes every handle in order, children before their parents,
// and returns the first failure. Nil handles are skipped.
func CloseAll(handles ...io.Closer) error {
	o := begin("CloseAll", fmt.Sprintf("%d handles", len(handles)))
	for _, h := range handles {
		if nilHandle(h) {
			continue
		}
		o.close("close", h)
	}
	return o.end()
}

// objectPath names the object name under parent for error messages.
func objectPath(parent hdf5.Object, name string) string {
	if nilHandle(parent) {
		return name
	}
	if name == "" || name == "." {
		return parent.Path()
	}
	if path.IsAbs(name) {
		return path.Clean(name)
	}
	return path.Join(parent.Path(), name)
}

func checkParent(o *op, parent hdf5.Object) bool {
	if nilHandle(parent) {
		o.fail("check parent", InvalidArgument, errors.New("nil parent handle"))
		return false
	}
	return true
}

func nilHandle(h any) bool {
	if h == nil {
		return true
	}
	v := reflect.ValueOf(h)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
