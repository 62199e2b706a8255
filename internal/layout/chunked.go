package layout

import (
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/mat2img/internal/binary"
	"github.com/robert-malhotra/mat2img/internal/btree"
	"github.com/robert-malhotra/mat2img/internal/filter"
	"github.com/robert-malhotra/mat2img/internal/message"
)

type chunkReader struct {
	r         *binary.Reader
	pipeline  *filter.Pipeline
	dims      []uint64
	chunkDims []uint64
	elemSize  uint64
	out       []byte
}

func readChunked(r *binary.Reader, ds Dataset, total uint64) ([]byte, error) {
	l := ds.Layout
	dims := ds.Dataspace.Dimensions
	if len(dims) != len(l.ChunkDims) {
		return nil, fmt.Errorf("chunk rank %d does not match dataset rank %d", len(l.ChunkDims), len(dims))
	}
	chunkBytes := uint64(ds.Datatype.Size)
	for _, d := range l.ChunkDims {
		if d == 0 {
			return nil, fmt.Errorf("zero chunk dimension in %v", l.ChunkDims)
		}
		hi, lo := bits.Mul64(chunkBytes, d)
		if hi != 0 || lo > maxDataSize {
			return nil, fmt.Errorf("%w: chunks of %v elements", ErrTooLarge, l.ChunkDims)
		}
		chunkBytes = lo
	}
	pipeline, err := filter.NewPipeline(ds.Filters)
	if err != nil {
		return nil, err
	}
	cr := &chunkReader{
		r:         r,
		pipeline:  pipeline,
		dims:      dims,
		chunkDims: l.ChunkDims,
		elemSize:  uint64(ds.Datatype.Size),
		out:       filled(ds, total),
	}
	if total == 0 || r.IsUndefinedOffset(l.ChunkIndexAddr) {
		return cr.out, nil
	}

	switch l.ChunkIndexType {
	case message.ChunkIndexBTreeV1:
		index, err := btree.ReadChunkIndex(r, l.ChunkIndexAddr, len(dims))
		if err != nil {
			return nil, fmt.Errorf("reading chunk index: %w", err)
		}
		for _, e := range index.Entries {
			if err := cr.load(e); err != nil {
				return nil, err
			}
		}
	case message.ChunkIndexSingleChunk:
		size, mask := l.ChunkBytes(), uint32(0)
		if l.ChunkFlags&message.ChunkSingleIndexWithFilter != 0 {
			size, mask = l.FilteredChunkSize, l.FilterMask
		}
		err = cr.load(btree.ChunkEntry{
			Offset:     make([]uint64, len(dims)),
			FilterMask: mask,
			Size:       uint32(size),
			Address:    l.ChunkIndexAddr,
		})
	case message.ChunkIndexImplicit:
		err = cr.loadImplicit(l.ChunkIndexAddr, l.ChunkBytes())
	default:
		return nil, fmt.Errorf("%w: chunk index type %d", ErrUnsupported, l.ChunkIndexType)
	}
	if err != nil {
		return nil, err
	}
	return cr.out, nil
}

// loadImplicit reads unfiltered chunks stored back to back in row-major
// chunk order.
func (cr *chunkReader) loadImplicit(addr, chunkBytes uint64) error {
	grid := make([]uint64, len(cr.dims))
	count := uint64(1)
	for d := range grid {
		grid[d] = (cr.dims[d] + cr.chunkDims[d] - 1) / cr.chunkDims[d]
		count *= grid[d]
	}
	for i := uint64(0); i < count; i++ {
		offset := make([]uint64, len(grid))
		rem := i
		for d := len(grid) - 1; d >= 0; d-- {
			offset[d] = rem % grid[d] * cr.chunkDims[d]
			rem /= grid[d]
		}
		err := cr.load(btree.ChunkEntry{Offset: offset, Size: uint32(chunkBytes), Address: addr + i*chunkBytes})
		if err != nil {
			return err
		}
	}
	return nil
}

func (cr *chunkReader) load(e btree.ChunkEntry) error {
	raw, err := cr.r.At(int64(e.Address)).ReadBytes(int(e.Size))
	if err != nil {
		return fmt.Errorf("reading chunk %v at %d: %w", e.Offset, e.Address, err)
	}
	data, err := cr.pipeline.Decode(raw, e.FilterMask)
	if err != nil {
		return fmt.Errorf("decoding chunk %v: %w", e.Offset, err)
	}
	want := cr.elemSize
	for _, d := range cr.chunkDims {
		want *= d
	}
	if uint64(len(data)) < want {
		return fmt.Errorf("chunk %v decoded to %d bytes, need %d", e.Offset, len(data), want)
	}
	return cr.place(data, e.Offset)
}

// place copies the part of a chunk that lies inside the dataset into the
// output buffer, one innermost row at a time.
func (cr *chunkReader) place(chunk []byte, offset []uint64) error {
	rank := len(cr.dims)
	for d := range offset {
		if offset[d] >= cr.dims[d] {
			return fmt.Errorf("chunk offset %v outside dataset %v", offset, cr.dims)
		}
	}
	// extent of the chunk inside the dataset
	extent := make([]uint64, rank)
	for d := range extent {
		extent[d] = min(cr.chunkDims[d], cr.dims[d]-offset[d])
	}
	rowBytes := extent[rank-1] * cr.elemSize

	pos := make([]uint64, rank)
	for {
		var src, dst uint64
		for d := 0; d < rank; d++ {
			src = src*cr.chunkDims[d] + pos[d]
			dst = dst*cr.dims[d] + offset[d] + pos[d]
		}
		src *= cr.elemSize
		dst *= cr.elemSize
		copy(cr.out[dst:dst+rowBytes], chunk[src:src+rowBytes])

		// advance every dimension but the innermost
		d := rank - 2
		for ; d >= 0; d-- {
			pos[d]++
			if pos[d] < extent[d] {
				break
			}
			pos[d] = 0
		}
		if d < 0 {
			return nil
		}
	}
}
