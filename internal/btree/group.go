package btree

import (
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/binary"
	"github.com/robert-malhotra/mat2img/internal/heap"
)

// Symbol table entry cache types.
const (
	CacheNone        uint32 = 0
	CacheSymbolTable uint32 = 1
	CacheSoftLink    uint32 = 2
)

// GroupEntry is one member of an old-style group.
type GroupEntry struct {
	Name          string
	ObjectAddress uint64
	CacheType     uint32
	SoftLinkValue string
}

// IsSoftLink reports whether the entry is a symbolic link.
func (e GroupEntry) IsSoftLink() bool {
	return e.CacheType == CacheSoftLink
}

// ReadGroupEntries returns every member indexed by the group B-tree at
// address, in name order.
func ReadGroupEntries(r *binary.Reader, address uint64, names *heap.LocalHeap) ([]GroupEntry, error) {
	return readGroupNode(r, address, names, -1)
}

func readGroupNode(r *binary.Reader, address uint64, names *heap.LocalHeap, wantLevel int) ([]GroupEntry, error) {
	nr, h, err := readNodeHeader(r, address, NodeTypeGroup)
	if err != nil {
		return nil, err
	}
	if wantLevel >= 0 && int(h.level) != wantLevel {
		return nil, fmt.Errorf("%w: level %d at %d, want %d", ErrInvalidNode, h.level, address, wantLevel)
	}

	var entries []GroupEntry
	for i := 0; i < int(h.entriesUsed); i++ {
		nr.Skip(int64(r.LengthSize())) // key: heap offset of a name
		child, err := nr.ReadOffset()
		if err != nil {
			return nil, err
		}
		var more []GroupEntry
		if h.level == 0 {
			more, err = readSymbolNode(r, child, names)
		} else {
			more, err = readGroupNode(r, child, names, int(h.level)-1)
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, more...)
	}
	return entries, nil
}

func readSymbolNode(r *binary.Reader, address uint64, names *heap.LocalHeap) ([]GroupEntry, error) {
	nr := r.At(int64(address))
	sig, err := nr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading symbol table node at %d: %w", address, err)
	}
	if string(sig) != string(snodSignature) {
		return nil, fmt.Errorf("%w: symbol table node signature %q at %d", ErrInvalidNode, sig, address)
	}
	head, err := nr.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	if head[0] != 1 {
		return nil, fmt.Errorf("unsupported symbol table node version: %d", head[0])
	}
	count := int(head[2]) | int(head[3])<<8

	entries := make([]GroupEntry, 0, count)
	for i := 0; i < count; i++ {
		e, err := readSymbolEntry(nr, names)
		if err != nil {
			return nil, fmt.Errorf("symbol table entry %d at %d: %w", i, address, err)
		}
		if e.Name != "" {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func readSymbolEntry(r *binary.Reader, names *heap.LocalHeap) (GroupEntry, error) {
	var e GroupEntry
	nameOffset, err := r.ReadOffset()
	if err != nil {
		return e, err
	}
	if e.ObjectAddress, err = r.ReadOffset(); err != nil {
		return e, err
	}
	if e.CacheType, err = r.ReadUint32(); err != nil {
		return e, err
	}
	r.Skip(4)
	scratch, err := r.ReadBytes(16)
	if err != nil {
		return e, err
	}
	e.Name = names.GetString(nameOffset)
	if e.CacheType == CacheSoftLink {
		e.SoftLinkValue = names.GetString(uint64(r.ByteOrder().Uint32(scratch)))
		e.ObjectAddress = 0
	}
	return e, nil
}

// SymbolEntry is a member to be written into a symbol table node.
type SymbolEntry struct {
	NameOffset    uint64
	ObjectAddress uint64
}

// SymbolEntrySize is the size of one symbol table entry.
func SymbolEntrySize(cfg binary.Config) int {
	return 2*cfg.OffsetSize + 8 + 16
}

// SymbolNodeSize is the size of a symbol table node holding 2*leafK entries.
func SymbolNodeSize(cfg binary.Config, leafK int) int {
	return 8 + 2*leafK*SymbolEntrySize(cfg)
}

// EncodeSymbolNode serialises entries, which must already be in name
// order, as a symbol table node padded to capacity.
func EncodeSymbolNode(cfg binary.Config, leafK int, entries []SymbolEntry) ([]byte, error) {
	if len(entries) > 2*leafK {
		return nil, fmt.Errorf("%w: %d symbols, capacity %d", ErrTooManyEntries, len(entries), 2*leafK)
	}
	return binary.Encode(cfg, func(w *binary.Writer) {
		w.WriteBytes(snodSignature)
		w.WriteUint8(1)
		w.WriteUint8(0)
		w.WriteUint16(uint16(len(entries)))
		for _, e := range entries {
			w.WriteOffset(e.NameOffset)
			w.WriteOffset(e.ObjectAddress)
			w.WriteUint32(CacheNone)
			w.WriteZeros(4 + 16)
		}
		w.WriteZeros((2*leafK - len(entries)) * SymbolEntrySize(cfg))
	})
}

// GroupNodeSize is the size of a group B-tree node with 2*internalK children.
func GroupNodeSize(cfg binary.Config, internalK int) int {
	return nodeHeaderSize(cfg) + (2*internalK+1)*cfg.LengthSize + 2*internalK*cfg.OffsetSize
}

// EncodeGroupNode serialises a leaf group node over the given symbol table
// nodes. keys holds len(children)+1 heap offsets: the empty name, then the
// last name in each child.
func EncodeGroupNode(cfg binary.Config, internalK int, keys, children []uint64) ([]byte, error) {
	if len(children) > 2*internalK {
		return nil, fmt.Errorf("%w: %d children, capacity %d", ErrTooManyEntries, len(children), 2*internalK)
	}
	if len(keys) != len(children)+1 {
		return nil, fmt.Errorf("%w: %d keys for %d children", ErrInvalidNode, len(keys), len(children))
	}
	size := GroupNodeSize(cfg, internalK)
	return binary.Encode(cfg, func(w *binary.Writer) {
		writeNodeHeader(w, NodeTypeGroup, len(children))
		for i, child := range children {
			w.WriteLength(keys[i])
			w.WriteOffset(child)
		}
		w.WriteLength(keys[len(children)])
		w.WriteZeros(size - int(w.Pos()))
	})
}
