package message

import (
	"fmt"
	"math"
	"math/bits"
	"slices"

	"github.com/robert-malhotra/mat2img/internal/binary"
)

// DataspaceType is the kind of dataspace.
type DataspaceType uint8

const (
	DataspaceScalar DataspaceType = 0
	DataspaceSimple DataspaceType = 1
	DataspaceNull   DataspaceType = 2
)

// Dataspace describes the shape of a dataset or attribute (type 0x0001).
// Dimensions are in HDF5 order, slowest varying first.
type Dataspace struct {
	Version    uint8
	SpaceType  DataspaceType
	Dimensions []uint64
	MaxDims    []uint64
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// Rank returns the number of dimensions.
func (m *Dataspace) Rank() int {
	return len(m.Dimensions)
}

// NumElements returns the number of elements the dataspace holds. A
// product that overflows saturates at math.MaxUint64.
func (m *Dataspace) NumElements() uint64 {
	switch m.SpaceType {
	case DataspaceNull:
		return 0
	case DataspaceScalar:
		return 1
	}
	if slices.Contains(m.Dimensions, 0) {
		return 0
	}
	n := uint64(1)
	for _, d := range m.Dimensions {
		hi, lo := bits.Mul64(n, d)
		if hi != 0 {
			return math.MaxUint64
		}
		n = lo
	}
	return n
}

// IsScalar reports whether this is a scalar dataspace.
func (m *Dataspace) IsScalar() bool {
	return m.SpaceType == DataspaceScalar
}

func parseDataspace(data []byte, cfg binary.Config) (*Dataspace, error) {
	r := reader(data, cfg)
	head, err := r.ReadBytes(4)
	if err != nil {
		return nil, truncated(err)
	}

	ds := &Dataspace{Version: head[0]}
	rank := int(head[1])
	flags := head[2]

	switch ds.Version {
	case 1:
		r.Skip(4)
		ds.SpaceType = DataspaceSimple
		if rank == 0 {
			ds.SpaceType = DataspaceScalar
		}
	case 2:
		ds.SpaceType = DataspaceType(head[3])
	default:
		return nil, fmt.Errorf("%w: dataspace version %d", ErrUnsupported, ds.Version)
	}
	if ds.SpaceType != DataspaceSimple {
		return ds, nil
	}

	ds.Dimensions = make([]uint64, rank)
	for i := range ds.Dimensions {
		if ds.Dimensions[i], err = r.ReadLength(); err != nil {
			return nil, truncated(err)
		}
	}
	if flags&0x01 != 0 {
		ds.MaxDims = make([]uint64, rank)
		for i := range ds.MaxDims {
			if ds.MaxDims[i], err = r.ReadLength(); err != nil {
				return nil, truncated(err)
			}
		}
	}
	return ds, nil
}

// Encode serialises the dataspace as a version 1 message. A dataspace
// with no dimensions is written as a scalar.
func (m *Dataspace) Encode(cfg binary.Config) ([]byte, error) {
	return binary.Encode(cfg, func(w *binary.Writer) {
		var flags uint8
		if m.MaxDims != nil {
			flags = 0x01
		}
		w.WriteBytes([]byte{1, uint8(len(m.Dimensions)), flags, 0})
		w.WriteUint32(0)
		for _, d := range m.Dimensions {
			w.WriteLength(d)
		}
		for _, d := range m.MaxDims {
			w.WriteLength(d)
		}
	})
}
