package heap

import (
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/binary"
)

var globalHeapSignature = []byte{'G', 'C', 'O', 'L'}

// MinCollectionSize is the smallest collection the HDF5 library creates.
const MinCollectionSize = 4096

// GlobalHeap is one global heap collection.
type GlobalHeap struct {
	Address        uint64
	CollectionSize uint64
	objects        map[uint32][]byte
}

// GlobalHeapID references an object in a global heap collection.
type GlobalHeapID struct {
	CollectionAddress uint64
	ObjectIndex       uint32
}

func collectionHeaderSize(lengthSize int) uint64 {
	return uint64(8 + lengthSize)
}

func objectHeaderSize(lengthSize int) uint64 {
	return uint64(8 + lengthSize)
}

// ReadGlobalHeap reads the collection at address. Object index 0 is the
// free space and ends the walk.
func ReadGlobalHeap(r *binary.Reader, address uint64) (*GlobalHeap, error) {
	if address == 0 || r.IsUndefinedOffset(address) {
		return nil, fmt.Errorf("%w: global heap address %d", ErrInvalidHeap, address)
	}
	hr := r.At(int64(address))
	sig, err := hr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading global heap signature: %w", err)
	}
	if string(sig) != string(globalHeapSignature) {
		return nil, fmt.Errorf("%w: global heap signature %q at %d", ErrInvalidHeap, sig, address)
	}
	version, err := hr.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, fmt.Errorf("unsupported global heap version: %d", version)
	}
	hr.Skip(3)
	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}
	heap := &GlobalHeap{Address: address, CollectionSize: size, objects: make(map[uint32][]byte)}

	end := int64(address + size)
	objHead := int64(objectHeaderSize(r.LengthSize()))
	for hr.Pos()+objHead <= end {
		index, err := hr.ReadUint16()
		if err != nil {
			return nil, err
		}
		if index == 0 {
			break
		}
		hr.Skip(2 + 4) // reference count, reserved
		objSize, err := hr.ReadLength()
		if err != nil {
			return nil, err
		}
		if hr.Pos()+int64(objSize) > end {
			return nil, fmt.Errorf("%w: object %d overruns collection at %d", ErrInvalidHeap, index, address)
		}
		data, err := hr.ReadBytes(int(objSize))
		if err != nil {
			return nil, err
		}
		heap.objects[uint32(index)] = data
		hr.Skip(int64((objSize+7)&^7 - objSize))
	}
	return heap, nil
}

// GetObject returns a copy of the object with the given index.
func (h *GlobalHeap) GetObject(index uint32) ([]byte, error) {
	if h == nil {
		return nil, fmt.Errorf("nil global heap")
	}
	data, ok := h.objects[index]
	if !ok {
		return nil, fmt.Errorf("object index %d not found in global heap at %d", index, h.Address)
	}
	return append([]byte(nil), data...), nil
}

// GetString returns the object as a string, cut at the first NUL.
func (h *GlobalHeap) GetString(index uint32) (string, error) {
	data, err := h.GetObject(index)
	if err != nil {
		return "", err
	}
	for i, b := range data {
		if b == 0 {
			return string(data[:i]), nil
		}
	}
	return string(data), nil
}

// ParseGlobalHeapID decodes a collection address followed by a 4-byte
// object index.
func ParseGlobalHeapID(data []byte, cfg binary.Config) (GlobalHeapID, error) {
	if len(data) < cfg.OffsetSize+4 {
		return GlobalHeapID{}, fmt.Errorf("global heap ID too short: need %d bytes, have %d", cfg.OffsetSize+4, len(data))
	}
	return GlobalHeapID{
		CollectionAddress: binary.DecodeUint(cfg.ByteOrder, data[:cfg.OffsetSize]),
		ObjectIndex:       cfg.ByteOrder.Uint32(data[cfg.OffsetSize:]),
	}, nil
}

// GlobalBuilder collects objects for a single new collection.
type GlobalBuilder struct {
	objects [][]byte
}

// Add appends an object and returns its 1-based index.
func (b *GlobalBuilder) Add(data []byte) uint32 {
	b.objects = append(b.objects, data)
	return uint32(len(b.objects))
}

// Len returns the number of objects added.
func (b *GlobalBuilder) Len() int {
	return len(b.objects)
}

// Size returns the encoded collection size, at least MinCollectionSize.
func (b *GlobalBuilder) Size(cfg binary.Config) uint64 {
	used := collectionHeaderSize(cfg.LengthSize)
	for _, obj := range b.objects {
		used += objectHeaderSize(cfg.LengthSize) + uint64((len(obj)+7)&^7)
	}
	// room for the free-space object
	used += objectHeaderSize(cfg.LengthSize)
	return max(used, MinCollectionSize)
}

// Encode serialises the collection. The remaining space is described by
// a free-space object with index 0.
func (b *GlobalBuilder) Encode(cfg binary.Config) ([]byte, error) {
	size := b.Size(cfg)
	return binary.Encode(cfg, func(w *binary.Writer) {
		w.WriteBytes(globalHeapSignature)
		w.WriteUint8(1)
		w.WriteZeros(3)
		w.WriteLength(size)
		for i, obj := range b.objects {
			w.WriteUint16(uint16(i + 1))
			w.WriteUint16(1)
			w.WriteZeros(4)
			w.WriteLength(uint64(len(obj)))
			w.WriteBytes(obj)
			w.Pad(8)
		}
		free := size - uint64(w.Pos())
		w.WriteUint16(0)
		w.WriteZeros(6)
		w.WriteLength(free)
		w.WriteZeros(int(free - objectHeaderSize(cfg.LengthSize)))
	})
}

// EncodeGlobalHeapID serialises id as stored in variable-length data.
func EncodeGlobalHeapID(w *binary.Writer, id GlobalHeapID) {
	w.WriteOffset(id.CollectionAddress)
	w.WriteUint32(id.ObjectIndex)
}
