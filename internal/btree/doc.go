// Package btree reads and writes version 1 HDF5 B-trees.
//
// Files with a version 0 superblock, which is what MATLAB writes for a
// v7.3 MAT-file, index two things with version 1 B-trees (signature
// "TREE"):
//
//   - Group members. Leaves point at symbol table nodes ("SNOD") whose
//     entries name members through the group's local heap. See
//     [ReadGroupEntries] and [EncodeGroupNode].
//   - Dataset chunks. Keys carry the chunk's stored size, filter mask and
//     element offset. See [ReadChunkIndex] and [EncodeChunkNode].
//
// The encoders produce single-level trees, which is all the writer needs.
package btree
