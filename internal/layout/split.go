package layout

// Chunk is one full-size chunk cut from a dataset.
type Chunk struct {
	// Offset is the element coordinate of the chunk's first element.
	Offset []uint64
	Data   []byte
}

// Split cuts row-major data with the given dimensions into chunks of
// chunkDims, in row-major chunk order. Edge chunks are padded with zeros
// to full size.
func Split(data []byte, dims, chunkDims []uint64, elemSize uint64) []Chunk {
	rank := len(dims)
	if rank == 0 {
		return []Chunk{{Offset: nil, Data: append([]byte(nil), data...)}}
	}
	grid := make([]uint64, rank)
	count := uint64(1)
	chunkBytes := elemSize
	for d := range dims {
		grid[d] = (dims[d] + chunkDims[d] - 1) / chunkDims[d]
		count *= grid[d]
		chunkBytes *= chunkDims[d]
	}

	chunks := make([]Chunk, 0, count)
	for i := uint64(0); i < count; i++ {
		offset := make([]uint64, rank)
		rem := i
		for d := rank - 1; d >= 0; d-- {
			offset[d] = rem % grid[d] * chunkDims[d]
			rem /= grid[d]
		}
		buf := make([]byte, chunkBytes)
		gather(buf, data, dims, chunkDims, offset, elemSize)
		chunks = append(chunks, Chunk{Offset: offset, Data: buf})
	}
	return chunks
}

// gather is the inverse of chunkReader.place.
func gather(chunk, data []byte, dims, chunkDims, offset []uint64, elemSize uint64) {
	rank := len(dims)
	extent := make([]uint64, rank)
	for d := range extent {
		extent[d] = min(chunkDims[d], dims[d]-offset[d])
	}
	rowBytes := extent[rank-1] * elemSize
	pos := make([]uint64, rank)
	for {
		var src, dst uint64
		for d := 0; d < rank; d++ {
			dst = dst*chunkDims[d] + pos[d]
			src = src*dims[d] + offset[d] + pos[d]
		}
		src *= elemSize
		dst *= elemSize
		copy(chunk[dst:dst+rowBytes], data[src:src+rowBytes])

		d := rank - 2
		for ; d >= 0; d-- {
			pos[d]++
			if pos[d] < extent[d] {
				break
			}
			pos[d] = 0
		}
		if d < 0 {
			return
		}
	}
}
