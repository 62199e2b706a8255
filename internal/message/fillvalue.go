package message

import (
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/binary"
)

// Space allocation times.
const (
	AllocEarly       uint8 = 1
	AllocLate        uint8 = 2
	AllocIncremental uint8 = 3
)

// FillValue is the value of dataset elements that were never written
// (type 0x0005). Value is nil when the fill value is the default, zero.
type FillValue struct {
	Version        uint8
	SpaceAllocTime uint8
	FillWriteTime  uint8
	Defined        bool
	Value          []byte
}

func (m *FillValue) Type() Type { return TypeFillValue }

func parseFillValue(data []byte, cfg binary.Config) (*FillValue, error) {
	r := reader(data, cfg)
	head, err := r.ReadBytes(2)
	if err != nil {
		return nil, truncated(err)
	}
	fv := &FillValue{Version: head[0]}

	hasValue := false
	switch fv.Version {
	case 1, 2:
		rest, err := r.ReadBytes(2)
		if err != nil {
			return nil, truncated(err)
		}
		fv.SpaceAllocTime, fv.FillWriteTime = head[1], rest[0]
		fv.Defined = rest[1] != 0
		// Version 1 always carries a size; version 2 only when defined.
		hasValue = fv.Version == 1 || fv.Defined
	case 3:
		flags := head[1]
		fv.SpaceAllocTime = flags & 0x03
		fv.FillWriteTime = flags >> 2 & 0x03
		fv.Defined = flags&0x10 == 0
		hasValue = flags&0x20 != 0
	default:
		return nil, fmt.Errorf("%w: fill value version %d", ErrUnsupported, fv.Version)
	}

	if hasValue {
		size, err := r.ReadUint32()
		if err != nil {
			return nil, truncated(err)
		}
		if size > 0 {
			if fv.Value, err = r.ReadBytes(int(size)); err != nil {
				return nil, truncated(err)
			}
		}
	}
	return fv, nil
}

// Encode serialises the fill value as a version 2 message.
func (m *FillValue) Encode(cfg binary.Config) ([]byte, error) {
	return binary.Encode(cfg, func(w *binary.Writer) {
		defined := uint8(0)
		if m.Defined {
			defined = 1
		}
		w.WriteBytes([]byte{2, m.SpaceAllocTime, m.FillWriteTime, defined})
		if m.Defined {
			w.WriteUint32(uint32(len(m.Value)))
			w.WriteBytes(m.Value)
		}
	})
}
