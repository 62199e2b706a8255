package layout

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/mat2img/internal/binary"
	"github.com/robert-malhotra/mat2img/internal/message"
)

// ErrUnsupported is returned for layouts and chunk indexes this package
// cannot read.
var ErrUnsupported = errors.New("unsupported storage layout")

// ErrTooLarge is returned for datasets larger than a single read allows.
var ErrTooLarge = errors.New("dataset too large")

// maxDataSize bounds a single dataset read.
const maxDataSize = 1 << 31

// Dataset bundles the messages needed to read a dataset's data.
type Dataset struct {
	Layout    *message.DataLayout
	Dataspace *message.Dataspace
	Datatype  *message.Datatype
	Filters   *message.FilterPipeline
	Fill      *message.FillValue
}

// Read returns the dataset's data in row-major order.
func Read(r *binary.Reader, ds Dataset) ([]byte, error) {
	if ds.Layout == nil || ds.Dataspace == nil || ds.Datatype == nil {
		return nil, errors.New("dataset without layout, dataspace or datatype")
	}
	hi, total := bits.Mul64(ds.Dataspace.NumElements(), uint64(ds.Datatype.Size))
	if hi != 0 || total > maxDataSize {
		return nil, fmt.Errorf("%w: dataset of %v elements of %d bytes exceeds the %d byte limit",
			ErrTooLarge, ds.Dataspace.Dimensions, ds.Datatype.Size, maxDataSize)
	}

	switch ds.Layout.Class {
	case message.LayoutCompact:
		if uint64(len(ds.Layout.CompactData)) < total {
			return nil, fmt.Errorf("compact data holds %d bytes, need %d", len(ds.Layout.CompactData), total)
		}
		return ds.Layout.CompactData[:total], nil
	case message.LayoutContiguous:
		return readContiguous(r, ds, total)
	case message.LayoutChunked:
		return readChunked(r, ds, total)
	}
	return nil, fmt.Errorf("%w: layout class %d", ErrUnsupported, ds.Layout.Class)
}

func readContiguous(r *binary.Reader, ds Dataset, total uint64) ([]byte, error) {
	if r.IsUndefinedOffset(ds.Layout.Address) {
		return filled(ds, total), nil
	}
	data, err := r.At(int64(ds.Layout.Address)).ReadBytes(int(total))
	if err != nil {
		return nil, fmt.Errorf("reading contiguous data at %d: %w", ds.Layout.Address, err)
	}
	return data, nil
}

// filled returns total bytes of the fill value, or zeros.
func filled(ds Dataset, total uint64) []byte {
	out := make([]byte, total)
	if ds.Fill == nil || !ds.Fill.Defined || len(ds.Fill.Value) != int(ds.Datatype.Size) || len(ds.Fill.Value) == 0 {
		return out
	}
	for i := 0; i < len(out); i += len(ds.Fill.Value) {
		copy(out[i:], ds.Fill.Value)
	}
	return out
}
