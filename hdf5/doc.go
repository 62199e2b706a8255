// Package hdf5 reads and writes the subset of HDF5 that MATLAB v7.3 files
// use.
//
// Reading covers version 0 to 3 superblocks found behind a user block,
// old-style (symbol table) and compact new-style groups, soft links, and
// datasets stored compact, contiguous or chunked with the deflate, shuffle
// and fletcher32 filters. Attributes may hold numbers, fixed-length
// strings or variable-length sequences kept in the global heap.
//
// Writing produces files in the earliest format the library understands:
// a version 0 superblock, version 1 object headers and symbol table groups.
// This is the layout MATLAB itself emits for -v7.3 files.
//
//	w := hdf5.NewWriter(hdf5.WithUserBlock(header))
//	g := w.Root().CreateGroup("cjdata")
//	ds, _ := g.CreateDataset("image", message.NewFloat(8), dims, raw, hdf5.WithChunks(64, 64))
//	ds.SetStringAttr("MATLAB_class", "double")
//	err := w.WriteTo(out)
package hdf5
