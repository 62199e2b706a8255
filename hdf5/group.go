package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/btree"
	"github.com/robert-malhotra/mat2img/internal/heap"
	"github.com/robert-malhotra/mat2img/internal/message"
	"github.com/robert-malhotra/mat2img/internal/object"
)

// Group is an HDF5 group.
type Group struct {
	file   *File
	path   string
	header *object.Header
}

// link is one resolved member of a group.
type link struct {
	name     string
	address  uint64
	softPath string
	external bool
}

// Path returns the absolute path of the group.
func (g *Group) Path() string {
	return g.path
}

// Members returns the names of the group's members in storage order,
// which is name order for symbol table groups.
func (g *Group) Members() ([]string, error) {
	links, err := g.links()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(links))
	for i, l := range links {
		names[i] = l.name
	}
	return names, nil
}

func (g *Group) links() ([]link, error) {
	if st := g.header.SymbolTable(); st != nil {
		names, err := heap.ReadLocalHeap(g.file.reader, st.LocalHeapAddress)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.path, err)
		}
		entries, err := btree.ReadGroupEntries(g.file.reader, st.BTreeAddress, names)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.path, err)
		}
		out := make([]link, len(entries))
		for i, e := range entries {
			out[i] = link{name: e.Name, address: e.ObjectAddress, softPath: e.SoftLinkValue}
		}
		return out, nil
	}

	msgs := g.header.Links()
	if len(msgs) == 0 && g.hasDenseLinks() {
		return nil, fmt.Errorf("group %s: %w: dense link storage", g.path, ErrUnsupported)
	}
	out := make([]link, 0, len(msgs))
	for _, m := range msgs {
		l := link{name: m.Name, address: m.ObjectAddress}
		switch m.LinkType {
		case message.LinkTypeSoft:
			l.softPath = m.SoftPath
		case message.LinkTypeExternal:
			l.external = true
		}
		out = append(out, l)
	}
	return out, nil
}

// hasDenseLinks reports whether the link info message points at a
// fractal heap.
func (g *Group) hasDenseLinks() bool {
	raw, ok := g.header.GetMessage(message.TypeLinkInfo).(*message.Unknown)
	if !ok {
		return false
	}
	data := raw.Data()
	if len(data) < 2 {
		return false
	}
	pos := 2
	if data[1]&0x01 != 0 {
		pos += 8
	}
	size := g.file.reader.OffsetSize()
	if len(data) < pos+size {
		return false
	}
	addr := uint64(0)
	for i := size - 1; i >= 0; i-- {
		addr = addr<<8 | uint64(data[pos+i])
	}
	return !g.file.reader.IsUndefinedOffset(addr)
}

// OpenGroup opens a group by path relative to g. Absolute paths start
// from the root.
func (g *Group) OpenGroup(path string) (*Group, error) {
	obj, err := g.open(path)
	if err != nil {
		return nil, err
	}
	sub, ok := obj.(*Group)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotGroup)
	}
	return sub, nil
}

// OpenDataset opens a dataset by path relative to g.
func (g *Group) OpenDataset(path string) (*Dataset, error) {
	obj, err := g.open(path)
	if err != nil {
		return nil, err
	}
	ds, ok := obj.(*Dataset)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotDataset)
	}
	return ds, nil
}

// Open opens the member at path as a *Group or *Dataset.
func (g *Group) Open(path string) (any, error) {
	return g.open(path)
}

func (g *Group) open(path string) (any, error) {
	if g.file.closed {
		return nil, ErrClosed
	}
	start := g
	if len(path) > 0 && path[0] == '/' {
		start = g.file.root
	}
	depth := 0
	return start.resolve(SplitPath(path), &depth)
}

func (g *Group) resolve(parts []string, depth *int) (any, error) {
	if len(parts) == 0 {
		return g, nil
	}
	links, err := g.links()
	if err != nil {
		return nil, err
	}
	var target *link
	for i := range links {
		if links[i].name == parts[0] {
			target = &links[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%s: %w", JoinPath(g.path, parts[0]), ErrNotFound)
	}
	childPath := JoinPath(g.path, parts[0])

	switch {
	case target.external:
		return nil, fmt.Errorf("%s: %w: external link", childPath, ErrUnsupported)
	case target.softPath != "":
		*depth++
		if *depth > MaxLinkDepth {
			return nil, fmt.Errorf("%s: %w", childPath, ErrLinkDepth)
		}
		start := g
		if target.softPath[0] == '/' {
			start = g.file.root
		}
		obj, err := start.resolve(SplitPath(target.softPath), depth)
		if err != nil {
			return nil, err
		}
		if len(parts) == 1 {
			return obj, nil
		}
		sub, ok := obj.(*Group)
		if !ok {
			return nil, fmt.Errorf("%s: %w", childPath, ErrNotGroup)
		}
		return sub.resolve(parts[1:], depth)
	}

	header, err := object.Read(g.file.reader, target.address)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", childPath, err)
	}
	if header.IsDataset() {
		if len(parts) > 1 {
			return nil, fmt.Errorf("%s: %w", childPath, ErrNotGroup)
		}
		return newDataset(g.file, childPath, header)
	}
	if !header.IsGroup() {
		return nil, fmt.Errorf("%s: %w: object is neither group nor dataset", childPath, ErrUnsupported)
	}
	sub := &Group{file: g.file, path: childPath, header: header}
	return sub.resolve(parts[1:], depth)
}

// Attrs returns the names of the group's attributes.
func (g *Group) Attrs() []string {
	return attrNames(g.header)
}

// Attr returns the named attribute.
func (g *Group) Attr(name string) (*Attribute, error) {
	return findAttr(g.file, g.header, g.path, name)
}
