// Package object reads and writes HDF5 object headers.
//
// Every group and dataset in an HDF5 file is described by an object header:
// a list of header messages (dataspace, datatype, layout, attributes, links)
// that may spill into continuation blocks.
//
// Two header versions exist:
//
//   - Version 1, written by files with a version 0 or 1 superblock.
//     Messages are 8-byte aligned.
//   - Version 2 (signature "OHDR"), written by newer libraries. Every
//     block carries a Jenkins lookup3 checksum.
//
// [Read] detects the version and follows continuations. [EncodeV1]
// produces a version 1 header for the writer.
//
//	hdr, err := object.Read(reader, address)
//	space := hdr.Dataspace()
//	class, ok := hdr.Attribute("MATLAB_class")
package object
