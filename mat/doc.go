// Package mat reads and writes MATLAB MAT-files.
//
// Two encodings are supported. Level 5 files (MATLAB v5 to v7) are a flat
// stream of tagged data elements after a 128-byte header. Version 7.3
// files are HDF5 files whose 512-byte user block carries the same header.
// Decode tries the level 5 reader first and falls back to HDF5 when the
// header announces a version it does not handle.
//
// Decoded variables are Values:
//
//	*Numeric  double, single, integer and logical arrays, real or complex
//	*Char     character arrays
//	*Struct   struct arrays
//	*Cell     cell arrays (level 5 only)
//	*Opaque   classes that are recognised but not materialised
//
// Arrays keep MATLAB's column-major element order and its dimensions,
// rows first, whichever encoding they came from.
package mat
