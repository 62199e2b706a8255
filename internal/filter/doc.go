// Package filter implements the HDF5 filter pipeline.
//
// Chunks of a filtered dataset pass through the pipeline's filters in
// order on write and in reverse order on read. A chunk's filter mask
// marks filters that were skipped for that chunk.
//
// Supported filters:
//
//   - DEFLATE (ID 1), zlib framing.
//   - Shuffle (ID 2), byte transposition by element size.
//   - Fletcher32 (ID 3), a checksum appended to the chunk.
//
// SZIP, N-bit and scale-offset are recognised by name only. A dataset that
// needs one of them cannot be read unless the filter is marked optional.
//
//	p, err := filter.NewPipeline(hdr.FilterPipeline())
//	raw, err := p.Decode(stored, entry.FilterMask)
package filter
