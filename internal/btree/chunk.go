package btree

import (
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/binary"
)

// ChunkEntry locates one stored chunk.
type ChunkEntry struct {
	// Offset is the element coordinate of the chunk's first element, in
	// HDF5 dimension order.
	Offset []uint64
	// FilterMask has bit i set when filter i was skipped for this chunk.
	FilterMask uint32
	// Size is the stored, possibly compressed, size in bytes.
	Size    uint32
	Address uint64
}

// ChunkIndex lists the chunks of one dataset.
type ChunkIndex struct {
	NDims   int
	Entries []ChunkEntry
}

// ReadChunkIndex reads the chunk B-tree at address for a dataset of rank
// ndims. Keys carry ndims+1 offsets; the last one is always zero.
func ReadChunkIndex(r *binary.Reader, address uint64, ndims int) (*ChunkIndex, error) {
	entries, err := readChunkNode(r, address, ndims, -1)
	if err != nil {
		return nil, err
	}
	return &ChunkIndex{NDims: ndims, Entries: entries}, nil
}

func readChunkNode(r *binary.Reader, address uint64, ndims, wantLevel int) ([]ChunkEntry, error) {
	nr, h, err := readNodeHeader(r, address, NodeTypeChunk)
	if err != nil {
		return nil, err
	}
	if wantLevel >= 0 && int(h.level) != wantLevel {
		return nil, fmt.Errorf("%w: level %d at %d, want %d", ErrInvalidNode, h.level, address, wantLevel)
	}

	var entries []ChunkEntry
	for i := 0; i < int(h.entriesUsed); i++ {
		key, err := readChunkKey(nr, ndims)
		if err != nil {
			return nil, fmt.Errorf("chunk key %d at %d: %w", i, address, err)
		}
		child, err := nr.ReadOffset()
		if err != nil {
			return nil, err
		}
		if h.level > 0 {
			more, err := readChunkNode(r, child, ndims, int(h.level)-1)
			if err != nil {
				return nil, err
			}
			entries = append(entries, more...)
			continue
		}
		if r.IsUndefinedOffset(child) || key.Size == 0 {
			continue
		}
		key.Address = child
		entries = append(entries, key)
	}
	return entries, nil
}

func readChunkKey(r *binary.Reader, ndims int) (ChunkEntry, error) {
	var e ChunkEntry
	var err error
	if e.Size, err = r.ReadUint32(); err != nil {
		return e, err
	}
	if e.FilterMask, err = r.ReadUint32(); err != nil {
		return e, err
	}
	offsets := make([]uint64, ndims+1)
	for i := range offsets {
		if offsets[i], err = r.ReadUint64(); err != nil {
			return e, err
		}
	}
	e.Offset = offsets[:ndims]
	return e, nil
}

func chunkKeySize(ndims int) int {
	return 8 + 8*(ndims+1)
}

// ChunkNodeSize is the size of a chunk B-tree node with 2*k children.
func ChunkNodeSize(cfg binary.Config, k, ndims int) int {
	return nodeHeaderSize(cfg) + (2*k+1)*chunkKeySize(ndims) + 2*k*cfg.OffsetSize
}

// EncodeChunkNode serialises a leaf chunk node. Entries must be sorted by
// offset. The final key bounds the last chunk using chunkDims.
func EncodeChunkNode(cfg binary.Config, k int, chunkDims []uint64, entries []ChunkEntry) ([]byte, error) {
	if len(entries) > 2*k {
		return nil, fmt.Errorf("%w: %d chunks, capacity %d", ErrTooManyEntries, len(entries), 2*k)
	}
	ndims := len(chunkDims)
	for _, e := range entries {
		if len(e.Offset) != ndims {
			return nil, fmt.Errorf("%w: chunk offset rank %d, want %d", ErrInvalidNode, len(e.Offset), ndims)
		}
	}
	size := ChunkNodeSize(cfg, k, ndims)
	return binary.Encode(cfg, func(w *binary.Writer) {
		writeNodeHeader(w, NodeTypeChunk, len(entries))
		for _, e := range entries {
			w.WriteUint32(e.Size)
			w.WriteUint32(e.FilterMask)
			for _, o := range e.Offset {
				w.WriteUint64(o)
			}
			w.WriteUint64(0)
			w.WriteOffset(e.Address)
		}
		w.WriteUint32(0)
		w.WriteUint32(0)
		if n := len(entries); n > 0 {
			for d, o := range entries[n-1].Offset {
				w.WriteUint64(o + chunkDims[d])
			}
		} else {
			w.WriteZeros(8 * ndims)
		}
		w.WriteUint64(0)
		w.WriteZeros(size - int(w.Pos()))
	})
}
