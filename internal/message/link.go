package message

import (
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/binary"
)

// LinkType is the kind of link.
type LinkType uint8

const (
	LinkTypeHard     LinkType = 0
	LinkTypeSoft     LinkType = 1
	LinkTypeExternal LinkType = 64
)

// Link names a child of a new-style group (type 0x0006).
type Link struct {
	Version  uint8
	LinkType LinkType
	Name     string

	ObjectAddress uint64
	SoftPath      string
	ExternalFile  string
	ExternalPath  string
}

func (m *Link) Type() Type { return TypeLink }

func parseLink(data []byte, cfg binary.Config) (*Link, error) {
	r := reader(data, cfg)
	head, err := r.ReadBytes(2)
	if err != nil {
		return nil, truncated(err)
	}
	link := &Link{Version: head[0]}
	if link.Version != 1 {
		return nil, fmt.Errorf("%w: link version %d", ErrUnsupported, link.Version)
	}
	flags := head[1]

	if flags&0x08 != 0 {
		t, err := r.ReadUint8()
		if err != nil {
			return nil, truncated(err)
		}
		link.LinkType = LinkType(t)
	}
	if flags&0x04 != 0 {
		r.Skip(8) // creation order
	}
	if flags&0x10 != 0 {
		r.Skip(1) // name charset
	}
	nameLen, err := r.ReadUintN(1 << (flags & 0x03))
	if err != nil {
		return nil, truncated(err)
	}
	name, err := r.ReadBytes(int(nameLen))
	if err != nil {
		return nil, truncated(err)
	}
	link.Name = string(name)

	switch link.LinkType {
	case LinkTypeHard:
		if link.ObjectAddress, err = r.ReadOffset(); err != nil {
			return nil, truncated(err)
		}
	case LinkTypeSoft, LinkTypeExternal:
		n, err := r.ReadUint16()
		if err != nil {
			return nil, truncated(err)
		}
		value, err := r.ReadBytes(int(n))
		if err != nil {
			return nil, truncated(err)
		}
		if link.LinkType == LinkTypeSoft {
			link.SoftPath = string(value)
			break
		}
		// version/flags byte, then two NUL-terminated strings
		if len(value) < 2 {
			return nil, ErrTruncated
		}
		link.ExternalFile = cString(value[1:])
		if rest := value[1+len(link.ExternalFile):]; len(rest) > 1 {
			link.ExternalPath = cString(rest[1:])
		}
	default:
		return nil, fmt.Errorf("%w: link type %d", ErrUnsupported, link.LinkType)
	}
	return link, nil
}
