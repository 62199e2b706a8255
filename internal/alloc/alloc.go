// Package alloc hands out file addresses to the HDF5 writer.
//
// Space is only ever appended: every block lands at the current end of
// file, which then advances. Blocks are 8-byte aligned relative to the
// base so object headers and heaps keep their natural alignment.
package alloc

import (
	"fmt"
	"sort"
)

// Block is one allocated region.
type Block struct {
	Addr uint64
	Size uint64
	Tag  string
}

// End returns the first address past the block.
func (b Block) End() uint64 { return b.Addr + b.Size }

// Allocator tracks the end of file of a file being written.
type Allocator struct {
	base   uint64
	eof    uint64
	blocks []Block
}

// New returns an allocator whose first block starts at base.
func New(base uint64) *Allocator {
	return &Allocator{base: base, eof: base}
}

// Alloc reserves size bytes and returns their address. Zero-size requests
// return the current end of file without recording a block.
func (a *Allocator) Alloc(size uint64, tag string) uint64 {
	if rem := (a.eof - a.base) % 8; rem != 0 {
		a.eof += 8 - rem
	}
	addr := a.eof
	if size == 0 {
		return addr
	}
	a.eof += size
	a.blocks = append(a.blocks, Block{Addr: addr, Size: size, Tag: tag})
	return addr
}

// EOF returns the end-of-file address.
func (a *Allocator) EOF() uint64 {
	return a.eof
}

// Blocks returns the allocated blocks in address order.
func (a *Allocator) Blocks() []Block {
	out := append([]Block(nil), a.blocks...)
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// Validate checks that no two blocks overlap and that all lie between the
// base and the end of file.
func (a *Allocator) Validate() error {
	blocks := a.Blocks()
	for i, b := range blocks {
		if b.Addr < a.base || b.End() > a.eof {
			return fmt.Errorf("%s block [%d, %d) outside [%d, %d)", b.Tag, b.Addr, b.End(), a.base, a.eof)
		}
		if i > 0 && blocks[i-1].End() > b.Addr {
			return fmt.Errorf("%s block at %d overlaps %s block ending at %d",
				b.Tag, b.Addr, blocks[i-1].Tag, blocks[i-1].End())
		}
	}
	return nil
}
