// Package layout reads and writes the raw data of HDF5 datasets.
//
// Three storage classes are read:
//
//   - Compact: bytes held in the layout message itself.
//   - Contiguous: one block in the file.
//   - Chunked: equal-sized chunks, each passed through the filter pipeline.
//     Chunks are located through a version 1 B-tree, a single-chunk index
//     or an implicit index. Fixed array, extensible array and version 2
//     B-tree indexes are reported as unsupported.
//
// Regions never written read as the fill value. Chunks on the far edge of
// a dataset are clipped to the dataset extent.
//
// [Split] cuts row-major data into full-size chunks for the writer.
package layout
