package message

import (
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/binary"
)

// LayoutClass is the storage class of a dataset.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0
	LayoutContiguous LayoutClass = 1
	LayoutChunked    LayoutClass = 2
	LayoutVirtual    LayoutClass = 3
)

// ChunkIndexType identifies the chunk index of a chunked dataset.
// Layout messages before version 4 always use a version 1 B-tree.
type ChunkIndexType uint8

const (
	ChunkIndexBTreeV1         ChunkIndexType = 0
	ChunkIndexSingleChunk     ChunkIndexType = 1
	ChunkIndexImplicit        ChunkIndexType = 2
	ChunkIndexFixedArray      ChunkIndexType = 3
	ChunkIndexExtensibleArray ChunkIndexType = 4
	ChunkIndexBTreeV2         ChunkIndexType = 5
)

// Version 4 chunked layout flags.
const (
	ChunkDontFilterPartialEdges uint8 = 0x01
	ChunkSingleIndexWithFilter  uint8 = 0x02
)

// DataLayout describes where a dataset's raw data lives (type 0x0008).
type DataLayout struct {
	Version uint8
	Class   LayoutClass

	CompactData []byte

	// Contiguous storage.
	Address uint64
	Size    uint64

	// Chunked storage. ChunkDims excludes the trailing element-size entry.
	ChunkDims      []uint64
	ElementSize    uint32
	ChunkIndexType ChunkIndexType
	ChunkIndexAddr uint64
	ChunkFlags     uint8

	// Single-chunk index of a filtered dataset.
	FilteredChunkSize uint64
	FilterMask        uint32

	// Fixed array index.
	PageBits uint8
}

func (m *DataLayout) Type() Type { return TypeDataLayout }

// ChunkBytes returns the uncompressed size of one chunk.
func (m *DataLayout) ChunkBytes() uint64 {
	n := uint64(m.ElementSize)
	for _, d := range m.ChunkDims {
		n *= d
	}
	return n
}

func parseDataLayout(data []byte, cfg binary.Config) (*DataLayout, error) {
	if len(data) < 2 {
		return nil, ErrTruncated
	}
	layout := &DataLayout{Version: data[0]}
	var err error
	switch layout.Version {
	case 1, 2:
		err = parseLayoutV1V2(reader(data, cfg), layout)
	case 3, 4:
		err = parseLayoutV3V4(reader(data, cfg), layout)
	default:
		return nil, fmt.Errorf("%w: data layout version %d", ErrUnsupported, layout.Version)
	}
	if err != nil {
		return nil, truncated(err)
	}
	return layout, nil
}

func parseLayoutV1V2(r *binary.Reader, layout *DataLayout) error {
	head, err := r.ReadBytes(8)
	if err != nil {
		return err
	}
	ndims := int(head[1])
	layout.Class = LayoutClass(head[2])
	if layout.Class != LayoutCompact {
		if layout.Address, err = r.ReadOffset(); err != nil {
			return err
		}
	}
	dims := make([]uint64, ndims)
	for i := range dims {
		v, err := r.ReadUint32()
		if err != nil {
			return err
		}
		dims[i] = uint64(v)
	}

	switch layout.Class {
	case LayoutCompact:
		size, err := r.ReadUint32()
		if err != nil {
			return err
		}
		layout.CompactData, err = r.ReadBytes(int(size))
		return err
	case LayoutContiguous:
		layout.Size = 1
		for _, d := range dims {
			layout.Size *= d
		}
	case LayoutChunked:
		if ndims == 0 {
			return fmt.Errorf("%w: chunked layout without dimensions", ErrUnsupported)
		}
		layout.ChunkDims = dims[:ndims-1]
		layout.ElementSize = uint32(dims[ndims-1])
		layout.ChunkIndexAddr = layout.Address
		layout.ChunkIndexType = ChunkIndexBTreeV1
	default:
		return fmt.Errorf("%w: layout class %d", ErrUnsupported, layout.Class)
	}
	return nil
}

func parseLayoutV3V4(r *binary.Reader, layout *DataLayout) error {
	r.Skip(1)
	class, err := r.ReadUint8()
	if err != nil {
		return err
	}
	layout.Class = LayoutClass(class)

	switch layout.Class {
	case LayoutCompact:
		size, err := r.ReadUint16()
		if err != nil {
			return err
		}
		layout.CompactData, err = r.ReadBytes(int(size))
		return err

	case LayoutContiguous:
		if layout.Address, err = r.ReadOffset(); err != nil {
			return err
		}
		layout.Size, err = r.ReadLength()
		return err

	case LayoutChunked:
		if layout.Version == 3 {
			return parseChunkedV3(r, layout)
		}
		return parseChunkedV4(r, layout)
	}
	return fmt.Errorf("%w: layout class %d", ErrUnsupported, layout.Class)
}

// Version 3: dimensionality, B-tree address, dimensionality 4-byte sizes
// of which the last is the element size.
func parseChunkedV3(r *binary.Reader, layout *DataLayout) error {
	ndims, err := r.ReadUint8()
	if err != nil {
		return err
	}
	if ndims == 0 {
		return fmt.Errorf("%w: chunked layout without dimensions", ErrUnsupported)
	}
	if layout.ChunkIndexAddr, err = r.ReadOffset(); err != nil {
		return err
	}
	dims := make([]uint64, ndims)
	for i := range dims {
		v, err := r.ReadUint32()
		if err != nil {
			return err
		}
		dims[i] = uint64(v)
	}
	layout.ChunkDims = dims[:ndims-1]
	layout.ElementSize = uint32(dims[ndims-1])
	layout.ChunkIndexType = ChunkIndexBTreeV1
	return nil
}

// Version 4: flags, dimensionality, encoded dimension width, dimensions,
// index type, index-specific fields, index address.
func parseChunkedV4(r *binary.Reader, layout *DataLayout) error {
	head, err := r.ReadBytes(3)
	if err != nil {
		return err
	}
	layout.ChunkFlags = head[0]
	ndims, width := int(head[1]), int(head[2])
	if ndims == 0 || width == 0 || width > 8 {
		return fmt.Errorf("%w: chunk dimensions %d x %d bytes", ErrUnsupported, ndims, width)
	}
	dims := make([]uint64, ndims)
	for i := range dims {
		if dims[i], err = r.ReadUintN(width); err != nil {
			return err
		}
	}
	layout.ChunkDims = dims[:ndims-1]
	layout.ElementSize = uint32(dims[ndims-1])

	idx, err := r.ReadUint8()
	if err != nil {
		return err
	}
	layout.ChunkIndexType = ChunkIndexType(idx)
	switch layout.ChunkIndexType {
	case ChunkIndexSingleChunk:
		if layout.ChunkFlags&ChunkSingleIndexWithFilter != 0 {
			if layout.FilteredChunkSize, err = r.ReadLength(); err != nil {
				return err
			}
			if layout.FilterMask, err = r.ReadUint32(); err != nil {
				return err
			}
		}
	case ChunkIndexImplicit:
	case ChunkIndexFixedArray:
		if layout.PageBits, err = r.ReadUint8(); err != nil {
			return err
		}
	case ChunkIndexExtensibleArray:
		r.Skip(5)
	case ChunkIndexBTreeV2:
		r.Skip(6)
	default:
		return fmt.Errorf("%w: chunk index type %d", ErrUnsupported, idx)
	}
	layout.ChunkIndexAddr, err = r.ReadOffset()
	return err
}

// Encode serialises the layout as a version 3 message.
func (m *DataLayout) Encode(cfg binary.Config) ([]byte, error) {
	if m.Class == LayoutChunked && m.ChunkIndexType != ChunkIndexBTreeV1 {
		return nil, fmt.Errorf("%w: version 3 layout needs a v1 B-tree index", ErrUnsupported)
	}
	return binary.Encode(cfg, func(w *binary.Writer) {
		w.WriteUint8(3)
		w.WriteUint8(uint8(m.Class))
		switch m.Class {
		case LayoutCompact:
			w.WriteUint16(uint16(len(m.CompactData)))
			w.WriteBytes(m.CompactData)
		case LayoutContiguous:
			w.WriteOffset(m.Address)
			w.WriteLength(m.Size)
		case LayoutChunked:
			w.WriteUint8(uint8(len(m.ChunkDims) + 1))
			w.WriteOffset(m.ChunkIndexAddr)
			for _, d := range m.ChunkDims {
				w.WriteUint32(uint32(d))
			}
			w.WriteUint32(m.ElementSize)
		}
	})
}
