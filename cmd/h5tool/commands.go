package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/dream3d/h5support/config"
	"github.com/dream3d/h5support/diag"
	"github.com/dream3d/h5support/filterparams"
	"github.com/dream3d/h5support/h5lite"
	"github.com/dream3d/h5support/hdf5"
	"github.com/dream3d/h5support/voxel"
)

func list(w io.Writer, filename string) error {
	f, err := h5lite.OpenFile(filename, true)
	if err != nil {
		return err
	}
	defer f.Close()
	fmt.Fprintf(w, "%s (superblock v%d)\n", filename, f.Version())
	return hdf5.Walk(f.Root(), func(p string, obj hdf5.Object, err error) error {
		if err != nil {
			fmt.Fprintf(w, "%s  ERROR %v\n", p, err)
			return nil
		}
		indent := strings.Repeat("  ", len(hdf5.SplitPath(p)))
		ds, ok := obj.(*hdf5.Dataset)
		switch {
		case p == "/":
			fmt.Fprintln(w, "/")
			return nil
		case !ok:
			fmt.Fprintf(w, "%s%s/\n", indent, obj.Name())
			return nil
		}
		line, err := describeDataset(f.Root(), p, ds)
		if err != nil {
			line = "ERROR " + err.Error()
		}
		fmt.Fprintf(w, "%s%s  %s\n", indent, obj.Name(), line)
		return nil
	})
}

func describeDataset(root *hdf5.Group, p string, ds *hdf5.Dataset) (string, error) {
	info, err := h5lite.GetDatasetInfo(root, p)
	if err != nil {
		return "", err
	}
	storage, err := ds.StorageInfo()
	if err != nil {
		return "", err
	}
	s := fmt.Sprintf("%s %v  %s %s", info.Tag, info.Dims, storage.Layout, humanize.Bytes(storage.Size))
	if len(storage.Filters) > 0 {
		s += " [" + strings.Join(storage.Filters, ",") + "]"
	}
	return s, nil
}

func cat(w io.Writer, filename, objectPath string, limit int) error {
	f, err := h5lite.OpenFile(filename, true)
	if err != nil {
		return err
	}
	defer f.Close()
	root := f.Root()
	objectPath = strings.TrimPrefix(hdf5.CleanPath(objectPath), "/")
	if objectPath == "" {
		objectPath = "."
	}
	if h5lite.DatasetExists(root, objectPath) {
		info, err := h5lite.GetDatasetInfo(root, objectPath)
		if err != nil {
			return err
		}
		vals, err := datasetValues(root, objectPath, info.Tag)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "/%s %s %v\n", objectPath, info.Tag, info.Dims)
		fmt.Fprintf(w, "  %s\n", joinLimited(vals, limit))
	} else if objectPath != "." && !h5lite.ObjectExists(root, objectPath) {
		return fmt.Errorf("%s: %w", objectPath, h5lite.ErrNotFound)
	}

	names, err := h5lite.AttributeNames(root, objectPath)
	if err != nil {
		return err
	}
	for _, name := range names {
		info, err := h5lite.GetAttributeInfo(root, objectPath, name)
		if err != nil {
			return err
		}
		vals, err := attrValues(root, objectPath, name, info.Tag)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  @%s %s = %s\n", name, info.Tag, joinLimited(vals, limit))
	}
	return nil
}

func datasetValues(root *hdf5.Group, p string, tag h5lite.TypeTag) ([]string, error) {
	switch {
	case tag == h5lite.String:
		s, err := h5lite.ReadStringDataset(root, p)
		return []string{strconv.Quote(s)}, err
	case tag == h5lite.Float32 || tag == h5lite.Float64:
		v, err := h5lite.ReadVector[float64](root, p, nil)
		return format(v), err
	case tag >= h5lite.Uint8 && tag <= h5lite.Uint64:
		v, err := h5lite.ReadVector[uint64](root, p, nil)
		return format(v), err
	}
	v, err := h5lite.ReadVector[int64](root, p, nil)
	return format(v), err
}

func attrValues(root *hdf5.Group, p, name string, tag h5lite.TypeTag) ([]string, error) {
	switch {
	case tag == h5lite.String:
		s, err := h5lite.ReadStringAttr(root, p, name)
		return []string{strconv.Quote(s)}, err
	case tag == h5lite.Float32 || tag == h5lite.Float64:
		v, err := h5lite.ReadVectorAttr[float64](root, p, name, nil)
		return format(v), err
	case tag >= h5lite.Uint8 && tag <= h5lite.Uint64:
		v, err := h5lite.ReadVectorAttr[uint64](root, p, name, nil)
		return format(v), err
	}
	v, err := h5lite.ReadVectorAttr[int64](root, p, name, nil)
	return format(v), err
}

func format[T h5lite.Scalar](vals []T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = fmt.Sprint(v)
	}
	return out
}

func joinLimited(vals []string, limit int) string {
	if limit <= 0 || len(vals) <= limit {
		return strings.Join(vals, " ")
	}
	return strings.Join(vals[:limit], " ") + fmt.Sprintf(" ... (%s more)", humanize.Comma(int64(len(vals)-limit)))
}

func pipeline(w io.Writer, filename string) error {
	f, err := h5lite.OpenFile(filename, true)
	if err != nil {
		return err
	}
	defer f.Close()
	r, err := filterparams.NewReader(f)
	if err != nil {
		return err
	}
	defer r.Close()
	fmt.Fprintf(w, "%d filters\n", r.NumFilters())
	for i := 0; i < r.NumFilters(); i++ {
		g, class, err := r.OpenFilterGroup(i)
		if err != nil {
			return err
		}
		params, err := g.Members()
		g.Close()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  [%d] %s: %s\n", i, class, strings.Join(params, ", "))
	}
	return nil
}

func describeVoxel(w io.Writer, filename string) error {
	f, err := h5lite.OpenFile(filename, true)
	if err != nil {
		return err
	}
	defer f.Close()
	r, err := voxel.NewReader(f)
	if err != nil {
		return err
	}
	defer r.Close()
	g, err := r.ReadGeometry()
	if err != nil {
		return err
	}
	cells, err := g.NumCells()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "dimensions %v (%s cells)\n", g.Dims, humanize.Comma(int64(cells)))
	fmt.Fprintf(w, "spacing    %v\n", g.Spacing)
	fmt.Fprintf(w, "origin     %v\n", g.Origin)
	arrays, err := r.CellArrays()
	if err != nil {
		return err
	}
	for _, a := range arrays {
		n, err := g.Values(a.Components)
		if err != nil {
			return fmt.Errorf("%s: %w", a.Name, err)
		}
		fmt.Fprintf(w, "  %-24s %s x%d  %s\n", a.Name, voxel.ObjectType(a.Tag), a.Components, humanize.Bytes(n*uint64(a.Tag.Size())))
	}
	return nil
}

func repack(ctx context.Context, w io.Writer, cfg *config.Config, src, dst string) error {
	tlog := diag.NewTimeLog()
	in, err := h5lite.OpenFile(src, true)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := h5lite.CreateFile(dst, cfg.Storage.FileOptions()...)
	if err != nil {
		return err
	}
	var groups, datasets int
	err = hdf5.Walk(in.Root(), func(p string, obj hdf5.Object, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		target, err := copyObject(out, p, obj)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		defer target.Close()
		if _, ok := obj.(*hdf5.Dataset); ok {
			datasets++
		} else {
			groups++
		}
		return copyAttributes(obj, target)
	})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return err
	}

	var before, after uint64
	if st, err := os.Stat(src); err == nil {
		before = uint64(st.Size())
	}
	if st, err := os.Stat(dst); err == nil {
		after = uint64(st.Size())
	}
	fmt.Fprintf(w, "repacked %d groups and %d datasets: %s -> %s\n",
		groups, datasets, humanize.Bytes(before), humanize.Bytes(after))
	tlog.Infof("Repacked %s into %s (storage codec %q)", src, dst, cfg.Storage.Codec)
	return nil
}

// copyObject creates the counterpart of obj at p in out.
func copyObject(out *hdf5.File, p string, obj hdf5.Object) (hdf5.Object, error) {
	if p == "/" {
		return out.Root(), nil
	}
	parent, err := out.OpenGroup(path.Dir(p))
	if err != nil {
		return nil, err
	}
	defer parent.Close()
	ds, ok := obj.(*hdf5.Dataset)
	if !ok {
		return parent.CreateGroup(path.Base(p))
	}
	t, err := ds.Datatype()
	if err != nil {
		return nil, err
	}
	space, err := ds.Space()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, space.NumElements()*uint64(t.Size()))
	if err := ds.Read(t, buf); err != nil {
		return nil, err
	}
	nd, err := parent.CreateDataset(path.Base(p), t, space)
	if err != nil {
		return nil, err
	}
	if err := nd.Write(t, buf); err != nil {
		nd.Close()
		return nil, err
	}
	return nd, nil
}

func copyAttributes(from, to hdf5.Object) error {
	names, err := from.AttributeNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := copyAttribute(from, to, name); err != nil {
			return fmt.Errorf("attribute %s: %w", name, err)
		}
	}
	return nil
}

func copyAttribute(from, to hdf5.Object, name string) error {
	a, err := from.OpenAttribute(name)
	if err != nil {
		return err
	}
	defer a.Close()
	t, err := a.Datatype()
	if err != nil {
		return err
	}
	space, err := a.Space()
	if err != nil {
		return err
	}
	buf := make([]byte, space.NumElements()*uint64(t.Size()))
	if err := a.Read(t, buf); err != nil {
		return err
	}
	na, err := to.CreateAttribute(name, t, space)
	if err != nil {
		return err
	}
	defer na.Close()
	return na.Write(t, buf)
}
