// Package dtype converts between raw HDF5 element bytes and Go values.
//
// Numeric elements of any integer or IEEE float width and either byte
// order decode to float64, which is what the MAT value model stores.
// Fixed-length strings honour their padding, compound {real, imag} pairs
// decode to split real and imaginary slices, and variable-length elements
// decode to global heap references that the caller resolves.
package dtype
