// Package heap reads and writes the two HDF5 heaps a MAT-file uses.
//
// A [LocalHeap] (signature "HEAP") holds the member names of an old-style
// group. Symbol table entries refer to names by their offset into the
// heap's data segment.
//
// A [GlobalHeap] (signature "GCOL") holds variable-length values. MATLAB
// stores the field order of a struct in a variable-length attribute whose
// elements are [GlobalHeapID] references into a collection.
//
//	names, err := heap.ReadLocalHeap(reader, heapAddress)
//	name := names.GetString(nameOffset)
//
//	col, err := heap.ReadGlobalHeap(reader, id.CollectionAddress)
//	data, err := col.GetObject(id.ObjectIndex)
package heap
