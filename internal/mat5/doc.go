// Package mat5 reads and writes the building blocks of level 5 MAT-files:
// the 128-byte header and the tagged data elements that follow it.
//
// Elements are either a full tag (type, byte count) followed by data
// padded to eight bytes, or the small format in which up to four bytes of
// data share the tag's eight bytes. miCOMPRESSED elements hold a zlib
// stream of further elements and are not padded.
//
// The package does not interpret array contents beyond the array flags;
// building values from miMATRIX elements is left to package mat.
package mat5
