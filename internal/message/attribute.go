package message

import (
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/binary"
)

// Attribute is a small named value stored in an object header (type 0x000C).
type Attribute struct {
	Version   uint8
	Name      string
	Datatype  *Datatype
	Dataspace *Dataspace
	Data      []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

/*
Versions 1-3 share the head: version, flags/reserved, name size, datatype
size, dataspace size. Version 3 adds a name encoding byte. Version 1 pads
the name, datatype and dataspace to multiples of 8 bytes.
*/
func parseAttribute(data []byte, cfg binary.Config) (*Attribute, error) {
	r := reader(data, cfg)
	head, err := r.ReadBytes(8)
	if err != nil {
		return nil, truncated(err)
	}
	attr := &Attribute{Version: head[0]}
	if attr.Version < 1 || attr.Version > 3 {
		return nil, fmt.Errorf("%w: attribute version %d", ErrUnsupported, attr.Version)
	}
	nameSize := int(head[2]) | int(head[3])<<8
	typeSize := int(head[4]) | int(head[5])<<8
	spaceSize := int(head[6]) | int(head[7])<<8
	if attr.Version == 3 {
		r.Skip(1)
	}

	pad := func(n int) int {
		if attr.Version == 1 {
			return padTo8(n)
		}
		return n
	}

	name, err := r.ReadBytes(nameSize)
	if err != nil {
		return nil, truncated(err)
	}
	attr.Name = cString(name)
	r.Skip(int64(pad(nameSize) - nameSize))

	typeData, err := r.ReadBytes(typeSize)
	if err != nil {
		return nil, truncated(err)
	}
	if attr.Datatype, err = parseDatatype(typeData, cfg); err != nil {
		return nil, fmt.Errorf("attribute %q datatype: %w", attr.Name, err)
	}
	r.Skip(int64(pad(typeSize) - typeSize))

	spaceData, err := r.ReadBytes(spaceSize)
	if err != nil {
		return nil, truncated(err)
	}
	if attr.Dataspace, err = parseDataspace(spaceData, cfg); err != nil {
		return nil, fmt.Errorf("attribute %q dataspace: %w", attr.Name, err)
	}
	r.Skip(int64(pad(spaceSize) - spaceSize))

	if start := int(r.Pos()); start < len(data) {
		attr.Data = data[start:]
	}
	return attr, nil
}

// Encode serialises the attribute as a version 1 message.
func (m *Attribute) Encode(cfg binary.Config) ([]byte, error) {
	typeData, err := m.Datatype.Encode(cfg)
	if err != nil {
		return nil, err
	}
	spaceData, err := m.Dataspace.Encode(cfg)
	if err != nil {
		return nil, err
	}
	name := append([]byte(m.Name), 0)

	return binary.Encode(cfg, func(w *binary.Writer) {
		w.WriteBytes([]byte{1, 0})
		w.WriteUint16(uint16(len(name)))
		w.WriteUint16(uint16(len(typeData)))
		w.WriteUint16(uint16(len(spaceData)))
		for _, part := range [][]byte{name, typeData, spaceData} {
			w.WriteBytes(part)
			w.Pad(8)
		}
		w.WriteBytes(m.Data)
	})
}

// NewStringAttribute builds a scalar fixed-length string attribute.
func NewStringAttribute(name, value string) *Attribute {
	return &Attribute{
		Name:      name,
		Datatype:  NewString(len(value)+1, PadNullTerm),
		Dataspace: &Dataspace{SpaceType: DataspaceScalar},
		Data:      append([]byte(value), 0),
	}
}
