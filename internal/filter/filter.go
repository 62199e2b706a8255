package filter

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/message"
)

// ErrUnsupportedFilter is returned for a required filter this package
// does not implement.
var ErrUnsupportedFilter = errors.New("unsupported filter")

// Filter transforms chunk bytes in both directions.
type Filter interface {
	ID() uint16
	Decode(input []byte) ([]byte, error)
	Encode(input []byte) ([]byte, error)
}

// Registry maps filter IDs to constructors taking the filter's client data.
var Registry = map[uint16]func([]uint32) Filter{
	message.FilterDeflate:    func(cd []uint32) Filter { return NewDeflate(cd) },
	message.FilterShuffle:    func(cd []uint32) Filter { return NewShuffle(cd) },
	message.FilterFletcher32: func(cd []uint32) Filter { return NewFletcher32(cd) },
}

var filterNames = map[uint16]string{
	message.FilterDeflate:     "deflate",
	message.FilterShuffle:     "shuffle",
	message.FilterFletcher32:  "fletcher32",
	message.FilterSZIP:        "szip",
	message.FilterNBit:        "nbit",
	message.FilterScaleOffset: "scaleoffset",
}

// Name returns a readable name for a filter ID.
func Name(id uint16) string {
	if name, ok := filterNames[id]; ok {
		return name
	}
	return fmt.Sprintf("filter(%d)", id)
}

// New creates the filter described by info. A missing optional filter
// yields nil and no error.
func New(info message.FilterInfo) (Filter, error) {
	constructor, ok := Registry[info.ID]
	if !ok {
		if info.IsOptional() {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s (ID %d)", ErrUnsupportedFilter, Name(info.ID), info.ID)
	}
	return constructor(info.ClientData), nil
}
