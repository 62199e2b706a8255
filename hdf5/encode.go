package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/alloc"
	"github.com/robert-malhotra/mat2img/internal/binary"
	"github.com/robert-malhotra/mat2img/internal/btree"
	"github.com/robert-malhotra/mat2img/internal/filter"
	"github.com/robert-malhotra/mat2img/internal/heap"
	"github.com/robert-malhotra/mat2img/internal/layout"
	"github.com/robert-malhotra/mat2img/internal/message"
	"github.com/robert-malhotra/mat2img/internal/object"
	"github.com/robert-malhotra/mat2img/internal/superblock"
)

// encoder lays objects out at addresses relative to the superblock.
type encoder struct {
	cfg   binary.Config
	buf   *binary.Buffer
	alloc *alloc.Allocator
	ids   map[*pendingAttr][]heap.GlobalHeapID
}

func encodeFile(root *GroupWriter, base uint64) ([]byte, error) {
	e := &encoder{
		cfg:   binary.DefaultConfig(),
		buf:   binary.NewBuffer(),
		alloc: alloc.New(0),
		ids:   make(map[*pendingAttr][]heap.GlobalHeapID),
	}
	e.alloc.Alloc(superblock.V0Size, "superblock")

	if err := e.writeGlobalHeap(root); err != nil {
		return nil, err
	}
	rootAddr, st, err := e.writeGroup(root)
	if err != nil {
		return nil, err
	}
	if err := e.alloc.Validate(); err != nil {
		return nil, err
	}

	sb, err := superblock.EncodeV0(&superblock.Superblock{
		GroupLeafK:     superblock.DefaultGroupLeafK,
		GroupInternalK: superblock.DefaultGroupInternalK,
		BaseAddress:    base,
		EOFAddress:     e.alloc.EOF(),
		RootAddress:    rootAddr,
		RootBTree:      st.BTreeAddress,
		RootHeap:       st.LocalHeapAddress,
	})
	if err != nil {
		return nil, err
	}
	if err := e.put(0, sb); err != nil {
		return nil, err
	}
	out := e.buf.Bytes()
	if pad := int(e.alloc.EOF()) - len(out); pad > 0 {
		out = append(out, make([]byte, pad)...)
	}
	return out, nil
}

func (e *encoder) put(addr uint64, data []byte) error {
	_, err := e.buf.WriteAt(data, int64(addr))
	return err
}

// place allocates room for data and writes it.
func (e *encoder) place(data []byte, tag string) (uint64, error) {
	addr := e.alloc.Alloc(uint64(len(data)), tag)
	return addr, e.put(addr, data)
}

// writeGlobalHeap stores every variable-length attribute element of the
// tree in a single collection.
func (e *encoder) writeGlobalHeap(root *GroupWriter) error {
	var (
		builder heap.GlobalBuilder
		pending []*pendingAttr
		indexes [][]uint32
	)
	var visit func(a *attrs, members map[string]any)
	visit = func(a *attrs, members map[string]any) {
		for _, p := range a.list {
			if p.varLen == nil {
				continue
			}
			idx := make([]uint32, len(p.varLen))
			for i, s := range p.varLen {
				if s != "" {
					idx[i] = builder.Add([]byte(s))
				}
			}
			pending = append(pending, p)
			indexes = append(indexes, idx)
		}
		for _, m := range members {
			switch m := m.(type) {
			case *GroupWriter:
				visit(&m.attrs, m.members)
			case *DatasetWriter:
				visit(&m.attrs, nil)
			}
		}
	}
	visit(&root.attrs, root.members)
	if builder.Len() == 0 && len(pending) == 0 {
		return nil
	}

	var addr uint64
	if builder.Len() > 0 {
		data, err := builder.Encode(e.cfg)
		if err != nil {
			return err
		}
		if addr, err = e.place(data, "global heap"); err != nil {
			return err
		}
	}
	for i, p := range pending {
		ids := make([]heap.GlobalHeapID, len(indexes[i]))
		for j, idx := range indexes[i] {
			if idx != 0 {
				ids[j] = heap.GlobalHeapID{CollectionAddress: addr, ObjectIndex: idx}
			}
		}
		e.ids[p] = ids
	}
	return nil
}

func (e *encoder) attributeMessages(a *attrs) ([]object.Encoder, error) {
	msgs := make([]object.Encoder, 0, len(a.list))
	for _, p := range a.list {
		if p.varLen == nil {
			msgs = append(msgs, p.msg)
			continue
		}
		ids := e.ids[p]
		data, err := binary.Encode(e.cfg, func(w *binary.Writer) {
			for i, s := range p.varLen {
				w.WriteUint32(uint32(len(s)))
				heap.EncodeGlobalHeapID(w, ids[i])
			}
		})
		if err != nil {
			return nil, err
		}
		msg := *p.msg
		msg.Data = data
		msgs = append(msgs, &msg)
	}
	return msgs, nil
}

func (e *encoder) writeHeader(tag string, msgs []object.Encoder) (uint64, error) {
	data, err := object.EncodeV1(e.cfg, msgs...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", tag, err)
	}
	return e.place(data, tag)
}

// writeGroup writes g's members, then its name heap, symbol table nodes,
// B-tree and object header.
func (e *encoder) writeGroup(g *GroupWriter) (uint64, *message.SymbolTable, error) {
	names := g.sortedMembers()
	addrs := make([]uint64, len(names))
	for i, name := range names {
		var err error
		switch m := g.members[name].(type) {
		case *GroupWriter:
			addrs[i], _, err = e.writeGroup(m)
		case *DatasetWriter:
			addrs[i], err = e.writeDataset(m)
		}
		if err != nil {
			return 0, nil, err
		}
	}

	leafK := superblock.DefaultGroupLeafK
	internalK := superblock.DefaultGroupInternalK
	perNode := 2 * leafK
	if nodes := (len(names) + perNode - 1) / perNode; nodes > 2*internalK {
		return 0, nil, fmt.Errorf("%s: %d members exceed the %d a group can hold", g.path, len(names), 2*internalK*perNode)
	}

	local := heap.NewLocalBuilder()
	entries := make([]btree.SymbolEntry, len(names))
	for i, name := range names {
		entries[i] = btree.SymbolEntry{NameOffset: local.Add(name), ObjectAddress: addrs[i]}
	}
	heapAddr := e.alloc.Alloc(uint64(local.Size(e.cfg)), g.path+" heap")
	heapData, err := local.Encode(e.cfg, heapAddr)
	if err != nil {
		return 0, nil, err
	}
	if err := e.put(heapAddr, heapData); err != nil {
		return 0, nil, err
	}

	keys := []uint64{0}
	var children []uint64
	for start := 0; start < len(entries); start += perNode {
		chunk := entries[start:min(start+perNode, len(entries))]
		node, err := btree.EncodeSymbolNode(e.cfg, leafK, chunk)
		if err != nil {
			return 0, nil, err
		}
		addr, err := e.place(node, g.path+" symbols")
		if err != nil {
			return 0, nil, err
		}
		children = append(children, addr)
		keys = append(keys, chunk[len(chunk)-1].NameOffset)
	}
	tree, err := btree.EncodeGroupNode(e.cfg, internalK, keys, children)
	if err != nil {
		return 0, nil, err
	}
	treeAddr, err := e.place(tree, g.path+" btree")
	if err != nil {
		return 0, nil, err
	}

	st := &message.SymbolTable{BTreeAddress: treeAddr, LocalHeapAddress: heapAddr}
	attrMsgs, err := e.attributeMessages(&g.attrs)
	if err != nil {
		return 0, nil, err
	}
	addr, err := e.writeHeader(g.path, append([]object.Encoder{st}, attrMsgs...))
	return addr, st, err
}

func (e *encoder) writeDataset(d *DatasetWriter) (uint64, error) {
	space := &message.Dataspace{Version: 1, SpaceType: message.DataspaceSimple, Dimensions: d.dims}
	if len(d.dims) == 0 {
		space = &message.Dataspace{Version: 1, SpaceType: message.DataspaceScalar}
	}
	fill := &message.FillValue{Version: 2, SpaceAllocTime: 2, FillWriteTime: 2}
	msgs := []object.Encoder{space, d.datatype, fill}

	if d.chunked() {
		fill.SpaceAllocTime = 3
		dl, fp, err := e.writeChunks(d)
		if err != nil {
			return 0, err
		}
		msgs = append(msgs, dl)
		if fp != nil {
			msgs = append(msgs, fp)
		}
	} else {
		dl := &message.DataLayout{Class: message.LayoutContiguous, Address: binary.UndefinedValue(8), Size: uint64(len(d.data))}
		if len(d.data) > 0 {
			addr, err := e.place(d.data, d.path+" data")
			if err != nil {
				return 0, err
			}
			dl.Address = addr
		}
		msgs = append(msgs, dl)
	}

	attrMsgs, err := e.attributeMessages(&d.attrs)
	if err != nil {
		return 0, err
	}
	return e.writeHeader(d.path, append(msgs, attrMsgs...))
}

// writeChunks writes every chunk through the filter pipeline and indexes
// them with a single-node chunk B-tree.
func (e *encoder) writeChunks(d *DatasetWriter) (*message.DataLayout, *message.FilterPipeline, error) {
	var fp *message.FilterPipeline
	if d.opts.shuffle || d.opts.compression > 0 || d.opts.fletcher32 {
		fp = &message.FilterPipeline{Version: 1}
		if d.opts.shuffle {
			fp.Filters = append(fp.Filters, message.FilterInfo{ID: message.FilterShuffle, Name: "shuffle", ClientData: []uint32{d.datatype.Size}})
		}
		if d.opts.compression > 0 {
			fp.Filters = append(fp.Filters, message.FilterInfo{ID: message.FilterDeflate, Name: "deflate", ClientData: []uint32{uint32(d.opts.compression)}})
		}
		if d.opts.fletcher32 {
			fp.Filters = append(fp.Filters, message.FilterInfo{ID: message.FilterFletcher32, Name: "fletcher32"})
		}
	}
	pipeline, err := filter.NewPipeline(fp)
	if err != nil {
		return nil, nil, err
	}

	chunkDims := d.chunkDims()
	chunks := layout.Split(d.data, d.dims, chunkDims, uint64(d.datatype.Size))
	if limit := 2 * superblock.DefaultChunkK; len(chunks) > limit {
		return nil, nil, fmt.Errorf("%s: %d chunks exceed the %d a dataset can hold", d.path, len(chunks), limit)
	}
	entries := make([]btree.ChunkEntry, len(chunks))
	for i, c := range chunks {
		enc, err := pipeline.Encode(c.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", d.path, err)
		}
		addr, err := e.place(enc, d.path+" chunk")
		if err != nil {
			return nil, nil, err
		}
		entries[i] = btree.ChunkEntry{Offset: c.Offset, Size: uint32(len(enc)), Address: addr}
	}
	node, err := btree.EncodeChunkNode(e.cfg, superblock.DefaultChunkK, chunkDims, entries)
	if err != nil {
		return nil, nil, err
	}
	nodeAddr, err := e.place(node, d.path+" chunk index")
	if err != nil {
		return nil, nil, err
	}
	return &message.DataLayout{
		Class:          message.LayoutChunked,
		ChunkDims:      chunkDims,
		ElementSize:    d.datatype.Size,
		ChunkIndexType: message.ChunkIndexBTreeV1,
		ChunkIndexAddr: nodeAddr,
	}, fp, nil
}
