package heap

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/binary"
)

var localHeapSignature = []byte{'H', 'E', 'A', 'P'}

// ErrInvalidHeap is returned for a heap with a bad signature or size.
var ErrInvalidHeap = errors.New("invalid heap")

// freeListNone is the free list offset the HDF5 library writes for a heap
// without free blocks.
const freeListNone = 1

// LocalHeap is an HDF5 local heap holding the names of a group's members.
type LocalHeap struct {
	DataSize    uint64
	FreeOffset  uint64
	DataAddress uint64
	data        []byte
}

// ReadLocalHeap reads the local heap at address.
func ReadLocalHeap(r *binary.Reader, address uint64) (*LocalHeap, error) {
	hr := r.At(int64(address))
	sig, err := hr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading local heap signature: %w", err)
	}
	if string(sig) != string(localHeapSignature) {
		return nil, fmt.Errorf("%w: local heap signature %q at %d", ErrInvalidHeap, sig, address)
	}
	version, err := hr.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, fmt.Errorf("unsupported local heap version: %d", version)
	}
	hr.Skip(3)

	heap := &LocalHeap{}
	if heap.DataSize, err = hr.ReadLength(); err != nil {
		return nil, err
	}
	if heap.FreeOffset, err = hr.ReadLength(); err != nil {
		return nil, err
	}
	if heap.DataAddress, err = hr.ReadOffset(); err != nil {
		return nil, err
	}
	if heap.DataSize > 1<<26 {
		return nil, fmt.Errorf("%w: local heap data segment of %d bytes", ErrInvalidHeap, heap.DataSize)
	}

	if heap.data, err = r.At(int64(heap.DataAddress)).ReadBytes(int(heap.DataSize)); err != nil {
		return nil, fmt.Errorf("reading local heap data: %w", err)
	}
	return heap, nil
}

// GetString returns the NUL-terminated string at offset, or "" when the
// offset lies outside the data segment.
func (h *LocalHeap) GetString(offset uint64) string {
	if offset >= uint64(len(h.data)) {
		return ""
	}
	end := offset
	for end < uint64(len(h.data)) && h.data[end] != 0 {
		end++
	}
	return string(h.data[offset:end])
}

// LocalBuilder lays out the data segment of a new local heap. Offset 0
// always holds the empty string.
type LocalBuilder struct {
	data []byte
}

// NewLocalBuilder returns a builder holding only the empty string.
func NewLocalBuilder() *LocalBuilder {
	return &LocalBuilder{data: make([]byte, 8)}
}

// Add appends name and returns its offset in the data segment.
func (b *LocalBuilder) Add(name string) uint64 {
	offset := uint64(len(b.data))
	n := (len(name) + 1 + 7) &^ 7
	entry := make([]byte, n)
	copy(entry, name)
	b.data = append(b.data, entry...)
	return offset
}

// HeaderSize returns the size of the heap header for the given widths.
func HeaderSize(cfg binary.Config) int {
	return 8 + 2*cfg.LengthSize + cfg.OffsetSize
}

// Size returns the encoded size of the header and data segment.
func (b *LocalBuilder) Size(cfg binary.Config) int {
	return HeaderSize(cfg) + len(b.data)
}

// Encode serialises the heap for placement at address, with the data
// segment directly after the header.
func (b *LocalBuilder) Encode(cfg binary.Config, address uint64) ([]byte, error) {
	return binary.Encode(cfg, func(w *binary.Writer) {
		w.WriteBytes(localHeapSignature)
		w.WriteUint8(0)
		w.WriteZeros(3)
		w.WriteLength(uint64(len(b.data)))
		w.WriteLength(freeListNone)
		w.WriteOffset(address + uint64(HeaderSize(cfg)))
		w.WriteBytes(b.data)
	})
}
