package hdf5

import (
	"errors"
	"fmt"
	"os"

	"github.com/dream3d/h5support/internal/alloc"
	"github.com/dream3d/h5support/internal/binary"
	ohdr "github.com/dream3d/h5support/internal/object"
	"github.com/dream3d/h5support/internal/superblock"
)

// File is an open HDF5 file.
type File struct {
	path     string
	raw      Storage
	store    *tracked
	sb       *superblock.Superblock
	sizes    binary.Sizes
	alloc    *alloc.Allocator
	root     *node
	opts     *fileOptions
	writable bool
	closed   bool
	open     int
	quiet    int
}

// SpaceStats describes file space use.
type SpaceStats struct {
	EOF      uint64 // end-of-file address
	Free     uint64 // bytes released by rewritten headers and chunks, not yet reused
	Reused   uint64 // bytes handed out again from released space
	Requests uint64 // allocations made since the file was opened
}

func applyOptions(opts []FileOption) *fileOptions {
	o := defaultFileOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Create creates a new file at path, truncating any existing file.
func Create(path string, opts ...FileOption) (*File, error) {
	o := applyOptions(opts)
	osf, err := os.Create(path)
	if err != nil {
		err = fmt.Errorf("creating file: %w", err)
		o.reporter("create", path, err)
		return nil, err
	}
	f := newFile(path, o.wrap(osf), superblock.New(o.sizes), true, o)
	f.root = &node{addr: f.sizes.Undefined(), header: ohdr.NewGroup(), dirty: true}
	if err := f.flush(); err != nil {
		f.raw.Close()
		os.Remove(path)
		err = fmt.Errorf("writing new file: %w", err)
		o.reporter("create", path, err)
		return nil, err
	}
	return f, nil
}

// Open opens an existing file for reading.
func Open(path string, opts ...FileOption) (*File, error) {
	return open(path, false, opts)
}

// OpenReadWrite opens an existing file for reading and writing.
func OpenReadWrite(path string, opts ...FileOption) (*File, error) {
	return open(path, true, opts)
}

func open(path string, writable bool, opts []FileOption) (*File, error) {
	o := applyOptions(opts)
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}
	fail := func(err error) (*File, error) {
		o.reporter("open", path, err)
		return nil, err
	}

	osf, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return fail(fmt.Errorf("opening file: %w", err))
	}
	s := o.wrap(osf)
	sb, err := superblock.Read(s)
	if err != nil {
		s.Close()
		switch {
		case errors.Is(err, superblock.ErrNotHDF5):
			err = fmt.Errorf("%w: %s", ErrNotHDF5, path)
		case errors.Is(err, superblock.ErrUnsupportedVersion):
			err = fmt.Errorf("%w: %v", ErrUnsupported, err)
		default:
			err = fmt.Errorf("reading superblock: %w", err)
		}
		return fail(err)
	}
	f := newFile(path, s, sb, writable, o)
	h, err := ohdr.Read(f.store, sb.Root, f.sizes)
	if err != nil {
		s.Close()
		return fail(fmt.Errorf("reading root group: %w", err))
	}
	f.root = &node{addr: sb.Root, header: h}
	if err := f.root.checkGroup(); err != nil {
		s.Close()
		return fail(fmt.Errorf("root group: %w", err))
	}
	return f, nil
}

func (o *fileOptions) wrap(s Storage) Storage {
	if o.hook != nil {
		return o.hook(s)
	}
	return s
}

func newFile(path string, s Storage, sb *superblock.Superblock, writable bool, o *fileOptions) *File {
	var relative Storage = s
	if sb.Base != 0 {
		relative = based{Storage: s, base: int64(sb.Base)}
	}
	// Allocation starts after the superblock; addresses are relative to
	// the base address.
	start := sb.FileOffset + uint64(sb.Size()) - sb.Base
	return &File{
		path:     path,
		raw:      s,
		store:    &tracked{Storage: relative, end: sb.EOF},
		sb:       sb,
		sizes:    sb.Sizes,
		alloc:    alloc.New(start, sb.EOF),
		opts:     o,
		writable: writable,
	}
}

// Path returns the path the file was opened with.
func (f *File) Path() string { return f.path }

// Writable reports whether the file accepts writes.
func (f *File) Writable() bool { return f.writable }

// Version returns the superblock version.
func (f *File) Version() int { return int(f.sb.Version) }

// Root returns the root group. The handle is borrowed from the file: it is
// not counted by OpenObjectCount and closing it has no effect.
func (f *File) Root() *Group {
	return &Group{object{file: f, node: f.root, path: "/", borrowed: true}}
}

// OpenGroup opens a group by absolute path.
func (f *File) OpenGroup(path string) (*Group, error) {
	return f.Root().OpenGroup(path)
}

// OpenDataset opens a dataset by absolute path.
func (f *File) OpenDataset(path string) (*Dataset, error) {
	return f.Root().OpenDataset(path)
}

// OpenObjectCount returns the number of open group, dataset and attribute
// handles.
func (f *File) OpenObjectCount() int { return f.open }

// SuppressErrors stops failures from reaching the file's error reporter
// until restore is called. Calls nest. Errors are still returned.
func (f *File) SuppressErrors() (restore func()) {
	f.quiet++
	done := false
	return func() {
		if !done {
			done = true
			f.quiet--
		}
	}
}

// SpaceStats returns file space accounting for this session.
func (f *File) SpaceStats() SpaceStats {
	s := f.alloc.Stats()
	return SpaceStats{EOF: f.alloc.EOF(), Free: s.Free, Reused: s.Reused, Requests: s.Allocations}
}

// Flush writes modified object headers and the superblock.
func (f *File) Flush() error {
	if f.closed {
		return f.fail("flush", "/", ErrClosed)
	}
	if !f.writable {
		return nil
	}
	return f.fail("flush", "/", f.flush())
}

func (f *File) flush() error {
	if err := f.flushNode(f.root); err != nil {
		return err
	}
	eof := f.alloc.EOF()
	if f.sb.Root != f.root.addr || f.sb.EOF != eof {
		if f.store.end < eof {
			// The declared end of file must exist.
			if _, err := f.store.WriteAt([]byte{0}, int64(eof-1)); err != nil {
				return err
			}
		}
		f.sb.Root, f.sb.EOF = f.root.addr, eof
		if err := f.sb.WriteTo(f.raw); err != nil {
			return fmt.Errorf("writing superblock: %w", err)
		}
	}
	return f.raw.Sync()
}

// Close flushes a writable file and releases it. Every handle obtained
// from the file becomes invalid. Closing twice is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	var err error
	if f.writable {
		err = f.flush()
	}
	f.closed = true
	f.open = 0
	if cerr := f.raw.Close(); err == nil {
		err = cerr
	}
	return f.fail("close", f.path, err)
}

// fail reports err unless errors are suppressed, and returns it wrapped
// with the operation and path. A nil err stays nil.
func (f *File) fail(op, path string, err error) error {
	if err == nil {
		return nil
	}
	if f.quiet == 0 {
		f.opts.reporter(op, path, err)
	}
	return fmt.Errorf("%s %s: %w", op, path, err)
}
