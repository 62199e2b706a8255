package message

import (
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/binary"
)

// Filter identifiers defined by the HDF5 library.
const (
	FilterDeflate     uint16 = 1
	FilterShuffle     uint16 = 2
	FilterFletcher32  uint16 = 3
	FilterSZIP        uint16 = 4
	FilterNBit        uint16 = 5
	FilterScaleOffset uint16 = 6
)

// FilterOptional marks a filter whose failure may be ignored on write.
const FilterOptional uint16 = 0x01

// FilterInfo describes one filter of a pipeline.
type FilterInfo struct {
	ID         uint16
	Flags      uint16
	Name       string
	ClientData []uint32
}

// IsOptional reports whether the filter is optional.
func (f *FilterInfo) IsOptional() bool {
	return f.Flags&FilterOptional != 0
}

// FilterPipeline lists the filters applied to each chunk (type 0x000B),
// in the order they were applied on write.
type FilterPipeline struct {
	Version uint8
	Filters []FilterInfo
}

func (m *FilterPipeline) Type() Type { return TypeFilterPipeline }

// HasFilter reports whether the pipeline contains the filter id.
func (m *FilterPipeline) HasFilter(id uint16) bool {
	for _, f := range m.Filters {
		if f.ID == id {
			return true
		}
	}
	return false
}

func parseFilterPipeline(data []byte, cfg binary.Config) (*FilterPipeline, error) {
	r := reader(data, cfg)
	head, err := r.ReadBytes(2)
	if err != nil {
		return nil, truncated(err)
	}
	fp := &FilterPipeline{Version: head[0], Filters: make([]FilterInfo, head[1])}
	switch fp.Version {
	case 1:
		r.Skip(6)
	case 2:
	default:
		return nil, fmt.Errorf("%w: filter pipeline version %d", ErrUnsupported, fp.Version)
	}

	for i := range fp.Filters {
		if err := readFilter(r, fp.Version, &fp.Filters[i]); err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, truncated(err))
		}
	}
	return fp, nil
}

func readFilter(r *binary.Reader, version uint8, f *FilterInfo) error {
	var err error
	if f.ID, err = r.ReadUint16(); err != nil {
		return err
	}
	var nameLen uint16
	if version == 1 || f.ID >= 256 {
		if nameLen, err = r.ReadUint16(); err != nil {
			return err
		}
	}
	if f.Flags, err = r.ReadUint16(); err != nil {
		return err
	}
	numValues, err := r.ReadUint16()
	if err != nil {
		return err
	}
	if nameLen > 0 {
		name, err := r.ReadBytes(int(nameLen))
		if err != nil {
			return err
		}
		f.Name = cString(name)
		if version == 1 {
			r.Skip(int64(padTo8(int(nameLen)) - int(nameLen)))
		}
	}
	f.ClientData = make([]uint32, numValues)
	for i := range f.ClientData {
		if f.ClientData[i], err = r.ReadUint32(); err != nil {
			return err
		}
	}
	if version == 1 && numValues%2 != 0 {
		r.Skip(4)
	}
	return nil
}

// Encode serialises the pipeline as a version 1 message. Filter names are
// omitted.
func (m *FilterPipeline) Encode(cfg binary.Config) ([]byte, error) {
	return binary.Encode(cfg, func(w *binary.Writer) {
		w.WriteUint8(1)
		w.WriteUint8(uint8(len(m.Filters)))
		w.WriteZeros(6)
		for _, f := range m.Filters {
			w.WriteUint16(f.ID)
			w.WriteUint16(0)
			w.WriteUint16(f.Flags)
			w.WriteUint16(uint16(len(f.ClientData)))
			for _, v := range f.ClientData {
				w.WriteUint32(v)
			}
			if len(f.ClientData)%2 != 0 {
				w.WriteUint32(0)
			}
		}
	})
}
