// Package message decodes and encodes HDF5 object header messages.
//
// Decoding covers what MAT v7.3 files and files written by recent HDF5
// libraries contain: dataspace, datatype, fill value, link, data layout,
// filter pipeline, attribute, continuation and symbol table messages.
// Anything else is kept as [Unknown].
//
// Encoding is limited to the messages the earliest file format needs,
// in their oldest versions: dataspace v1, datatype v1, fill value v2,
// data layout v3, filter pipeline v1, attribute v1 and symbol table.
package message
