package hdf5

import (
	"errors"
	"reflect"
	"testing"
)

func TestCreateNestedGroups(t *testing.T) {
	path := tempFile(t)
	f, err := Create(path, quiet())
	if err != nil {
		t.Fatal(err)
	}
	a, err := f.Root().CreateGroup("a")
	if err != nil {
		t.Fatal(err)
	}
	b, err := a.CreateGroup("b")
	if err != nil {
		t.Fatal(err)
	}
	c, err := b.CreateGroup("c")
	if err != nil {
		t.Fatal(err)
	}
	if c.Path() != "/a/b/c" || c.Name() != "c" {
		t.Errorf("path = %q name = %q", c.Path(), c.Name())
	}
	if _, err := a.CreateGroup("b"); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate CreateGroup = %v, want ErrExists", err)
	}
	for _, h := range []*Group{c, b, a} {
		h.Close()
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	f2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f2.Close()
	for _, p := range []string{"/a/b/c", "a/b/c", "/a//b/./c/"} {
		g, err := f2.OpenGroup(p)
		if err != nil {
			t.Errorf("OpenGroup(%q): %v", p, err)
			continue
		}
		if g.Path() != "/a/b/c" {
			t.Errorf("OpenGroup(%q).Path() = %q", p, g.Path())
		}
		g.Close()
	}

	b2, err := f2.OpenGroup("/a/b")
	if err != nil {
		t.Fatal(err)
	}
	defer b2.Close()
	self, err := b2.OpenGroup(".")
	if err != nil {
		t.Fatal(err)
	}
	if self.Path() != "/a/b" {
		t.Errorf("OpenGroup(\".\") = %q", self.Path())
	}
	self.Close()
	abs, err := b2.OpenGroup("/a")
	if err != nil {
		t.Fatal(err)
	}
	if abs.Path() != "/a" {
		t.Errorf("absolute path from subgroup = %q", abs.Path())
	}
	abs.Close()
}

func TestMembersInCreationOrder(t *testing.T) {
	f, err := Create(tempFile(t))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	root := f.Root()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		g, err := root.CreateGroup(name)
		if err != nil {
			t.Fatal(err)
		}
		g.Close()
	}
	ds, err := root.CreateDataset("data", NativeFloat32, mustSpace(t, 3))
	if err != nil {
		t.Fatal(err)
	}
	ds.Close()

	got, err := root.Members()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"zeta", "alpha", "mid", "data"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Members = %v, want %v", got, want)
	}
	if ok, _ := root.HasLink("mid"); !ok {
		t.Error("HasLink(mid) = false")
	}
	if ok, _ := root.HasLink("nope"); ok {
		t.Error("HasLink(nope) = true")
	}
}

func TestOpenWrongKind(t *testing.T) {
	f, err := Create(tempFile(t), quiet())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	root := f.Root()
	g, _ := root.CreateGroup("g")
	g.Close()
	ds, _ := root.CreateDataset("d", NativeInt8, mustSpace(t, 1))
	ds.Close()

	if _, err := root.OpenDataset("g"); !errors.Is(err, ErrNotDataset) {
		t.Errorf("OpenDataset(group) = %v", err)
	}
	if _, err := root.OpenGroup("d"); !errors.Is(err, ErrNotGroup) {
		t.Errorf("OpenGroup(dataset) = %v", err)
	}
	if _, err := root.OpenGroup("d/x"); !errors.Is(err, ErrNotGroup) {
		t.Errorf("path through dataset = %v", err)
	}
	if _, err := root.OpenGroup("../x"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("parent path = %v", err)
	}

	obj, err := root.OpenObject("d")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := obj.(*Dataset); !ok {
		t.Errorf("OpenObject(d) = %T", obj)
	}
	obj.Close()
}

func TestBadNames(t *testing.T) {
	f, err := Create(tempFile(t), quiet())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	for _, name := range []string{"", ".", "..", "a/b"} {
		if _, err := f.Root().CreateGroup(name); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("CreateGroup(%q) = %v, want ErrInvalidPath", name, err)
		}
	}
	if f.OpenObjectCount() != 0 {
		t.Errorf("failed creates leaked %d handles", f.OpenObjectCount())
	}
}

func TestAddToExistingFile(t *testing.T) {
	path := tempFile(t)
	f, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := f.Root().CreateGroup("a")
	a.Close()
	f.Close()

	rw, err := OpenReadWrite(path)
	if err != nil {
		t.Fatal(err)
	}
	a, err = rw.OpenGroup("a")
	if err != nil {
		t.Fatal(err)
	}
	b, err := a.CreateGroup("b")
	if err != nil {
		t.Fatal(err)
	}
	b.Close()
	a.Close()
	if err := rw.Close(); err != nil {
		t.Fatal(err)
	}

	f2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f2.Close()
	g, err := f2.OpenGroup("/a/b")
	if err != nil {
		t.Fatalf("nested group added to existing file is missing: %v", err)
	}
	g.Close()
}

func TestWalk(t *testing.T) {
	f, err := Create(tempFile(t))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	root := f.Root()
	a, _ := root.CreateGroup("a")
	d, _ := a.CreateDataset("x", NativeInt16, mustSpace(t, 2))
	d.Close()
	b, _ := a.CreateGroup("b")
	b.Close()
	a.Close()
	c, _ := root.CreateGroup("c")
	c.Close()

	var visited []string
	err = Walk(root, func(path string, obj Object, err error) error {
		if err != nil {
			return err
		}
		visited = append(visited, path)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/", "/a", "/a/x", "/a/b", "/c"}
	if !reflect.DeepEqual(visited, want) {
		t.Errorf("visited %v, want %v", visited, want)
	}
	if f.OpenObjectCount() != 0 {
		t.Errorf("Walk leaked %d handles", f.OpenObjectCount())
	}

	visited = nil
	Walk(root, func(path string, obj Object, err error) error {
		visited = append(visited, path)
		if path == "/a" {
			return SkipGroup
		}
		if path == "/c" {
			return ErrStopWalk
		}
		return nil
	})
	want = []string{"/", "/a", "/c"}
	if !reflect.DeepEqual(visited, want) {
		t.Errorf("with skip: visited %v, want %v", visited, want)
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"/", []string{}},
		{"", []string{}},
		{"/a", []string{"a"}},
		{"a//b/./c/", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		got := SplitPath(tt.path)
		if len(got) != len(tt.want) {
			t.Errorf("SplitPath(%q) = %v, want %v", tt.path, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("SplitPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		}
	}
	if CleanPath("a/./b/") != "/a/b" {
		t.Errorf("CleanPath = %q", CleanPath("a/./b/"))
	}
	obj, attr, err := ParseAttrPath("/VoxelDataContainer@DIMENSIONS")
	if err != nil || obj != "/VoxelDataContainer" || attr != "DIMENSIONS" {
		t.Errorf("ParseAttrPath = %q, %q, %v", obj, attr, err)
	}
	if _, _, err := ParseAttrPath("/x@"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("ParseAttrPath empty name = %v", err)
	}
	if JoinAttrPath("/", "v") != "/@v" {
		t.Errorf("JoinAttrPath root = %q", JoinAttrPath("/", "v"))
	}
}
