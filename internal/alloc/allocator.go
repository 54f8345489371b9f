// Package alloc hands out file space for headers and raw data.
//
// New space comes from the end of the file. Space released by rewritten
// headers or replaced chunks goes on a free list and is reused first-fit
// for later requests of the same or smaller size.
package alloc

import (
	"fmt"
	"sort"
)

// Block is a range of file space.
type Block struct {
	Addr uint64
	Size uint64
}

// End returns the first address past the block.
func (b Block) End() uint64 { return b.Addr + b.Size }

// Stats summarizes allocator activity.
type Stats struct {
	Allocations uint64
	Bytes       uint64
	Reused      uint64
	Free        uint64
}

// Allocator tracks the end of file and a free list. It is not safe for
// concurrent use; a file serializes access to it.
type Allocator struct {
	base  uint64
	eof   uint64
	free  []Block
	stats Stats
}

// New returns an allocator for a file whose allocatable space starts at
// base and currently ends at eof.
func New(base, eof uint64) *Allocator {
	return &Allocator{base: base, eof: max(base, eof)}
}

// EOF returns the current end-of-file address.
func (a *Allocator) EOF() uint64 { return a.eof }

// Alloc returns the address of size bytes of unused space, aligned to 8.
func (a *Allocator) Alloc(size uint64) uint64 {
	if size == 0 {
		return a.eof
	}
	a.stats.Allocations++
	a.stats.Bytes += size
	for i, b := range a.free {
		if b.Size < size {
			continue
		}
		a.stats.Reused += size
		a.stats.Free -= size
		if b.Size == size {
			a.free = append(a.free[:i], a.free[i+1:]...)
		} else {
			a.free[i] = Block{Addr: b.Addr + size, Size: b.Size - size}
		}
		return b.Addr
	}
	if r := a.eof % 8; r != 0 {
		a.eof += 8 - r
	}
	addr := a.eof
	a.eof += size
	return addr
}

// Free returns a block to the free list, merging it with neighbours.
// Freeing the tail of the file is not special-cased: the file never shrinks.
func (a *Allocator) Free(addr, size uint64) error {
	if size == 0 {
		return nil
	}
	blk := Block{Addr: addr, Size: size}
	if addr < a.base || blk.End() > a.eof {
		return fmt.Errorf("free of [%d, %d) outside allocated space [%d, %d)", addr, blk.End(), a.base, a.eof)
	}
	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].Addr >= addr })
	if i > 0 && a.free[i-1].End() > addr || i < len(a.free) && a.free[i].Addr < blk.End() {
		return fmt.Errorf("double free of [%d, %d)", addr, blk.End())
	}
	a.free = append(a.free, Block{})
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = blk
	a.stats.Free += size
	a.coalesce(i)
	return nil
}

func (a *Allocator) coalesce(i int) {
	if i+1 < len(a.free) && a.free[i].End() == a.free[i+1].Addr {
		a.free[i].Size += a.free[i+1].Size
		a.free = append(a.free[:i+1], a.free[i+2:]...)
	}
	if i > 0 && a.free[i-1].End() == a.free[i].Addr {
		a.free[i-1].Size += a.free[i].Size
		a.free = append(a.free[:i], a.free[i+1:]...)
	}
}

// FreeBlocks returns a copy of the free list, ordered by address.
func (a *Allocator) FreeBlocks() []Block {
	return append([]Block(nil), a.free...)
}

// Stats returns the allocator counters.
func (a *Allocator) Stats() Stats { return a.stats }
