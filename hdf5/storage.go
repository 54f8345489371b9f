package hdf5

import "io"

// Storage is the byte store behind a File. *os.File satisfies it.
type Storage interface {
	io.ReaderAt
	io.WriterAt
	Sync() error
	Close() error
}

// StorageHook wraps the storage a file is opened on. Hooks are used to
// count, trace or fail I/O.
type StorageHook func(Storage) Storage

// based shifts every offset by the base address of a file that starts
// with a user block.
type based struct {
	Storage
	base int64
}

func (b based) ReadAt(p []byte, off int64) (int, error) {
	return b.Storage.ReadAt(p, off+b.base)
}

func (b based) WriteAt(p []byte, off int64) (int, error) {
	return b.Storage.WriteAt(p, off+b.base)
}

// tracked remembers the end of the last byte written so the file can be
// extended to its declared end-of-file address on flush.
type tracked struct {
	Storage
	end uint64
}

func (t *tracked) WriteAt(p []byte, off int64) (int, error) {
	n, err := t.Storage.WriteAt(p, off)
	if end := uint64(off) + uint64(n); end > t.end {
		t.end = end
	}
	return n, err
}
