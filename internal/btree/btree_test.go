package btree

import (
	"errors"
	"testing"

	"github.com/robert-malhotra/mat2img/internal/binary"
	"github.com/robert-malhotra/mat2img/internal/heap"
)

var cfg = binary.DefaultConfig()

type image struct {
	buf *binary.Buffer
}

func newImage() *image { return &image{buf: binary.NewBuffer()} }

func (im *image) put(t *testing.T, at uint64, data []byte) {
	t.Helper()
	if _, err := im.buf.WriteAt(data, int64(at)); err != nil {
		t.Fatal(err)
	}
}

func (im *image) reader() *binary.Reader { return binary.NewReader(im.buf, cfg) }

func TestGroupRoundTrip(t *testing.T) {
	const (
		leafK     = 2
		internalK = 4
		heapAt    = 0
		treeAt    = 1024
		snodAt    = 2048
	)
	names := []string{"a", "b", "c", "d", "e", "f"}

	lb := heap.NewLocalBuilder()
	offsets := make([]uint64, len(names))
	for i, n := range names {
		offsets[i] = lb.Add(n)
	}

	im := newImage()
	heapData, err := lb.Encode(cfg, heapAt)
	if err != nil {
		t.Fatal(err)
	}
	im.put(t, heapAt, heapData)

	// two symbol nodes of up to 2*leafK entries each
	keys := []uint64{0}
	var children []uint64
	for start := 0; start < len(names); start += 2 * leafK {
		end := min(start+2*leafK, len(names))
		var entries []SymbolEntry
		for i := start; i < end; i++ {
			entries = append(entries, SymbolEntry{NameOffset: offsets[i], ObjectAddress: uint64(5000 + i)})
		}
		node, err := EncodeSymbolNode(cfg, leafK, entries)
		if err != nil {
			t.Fatal(err)
		}
		if len(node) != SymbolNodeSize(cfg, leafK) {
			t.Fatalf("symbol node is %d bytes, want %d", len(node), SymbolNodeSize(cfg, leafK))
		}
		at := uint64(snodAt + len(children)*SymbolNodeSize(cfg, leafK))
		im.put(t, at, node)
		children = append(children, at)
		keys = append(keys, offsets[end-1])
	}

	tree, err := EncodeGroupNode(cfg, internalK, keys, children)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree) != GroupNodeSize(cfg, internalK) {
		t.Fatalf("group node is %d bytes, want %d", len(tree), GroupNodeSize(cfg, internalK))
	}
	im.put(t, treeAt, tree)

	r := im.reader()
	local, err := heap.ReadLocalHeap(r, heapAt)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := ReadGroupEntries(r, treeAt, local)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(names) {
		t.Fatalf("got %d entries, want %d", len(entries), len(names))
	}
	for i, e := range entries {
		if e.Name != names[i] || e.ObjectAddress != uint64(5000+i) || e.IsSoftLink() {
			t.Errorf("entry %d = %+v", i, e)
		}
	}
}

func TestEncodeCapacity(t *testing.T) {
	if _, err := EncodeSymbolNode(cfg, 1, make([]SymbolEntry, 3)); !errors.Is(err, ErrTooManyEntries) {
		t.Errorf("symbol node: got %v", err)
	}
	if _, err := EncodeGroupNode(cfg, 1, make([]uint64, 4), make([]uint64, 3)); !errors.Is(err, ErrTooManyEntries) {
		t.Errorf("group node: got %v", err)
	}
	if _, err := EncodeGroupNode(cfg, 4, make([]uint64, 2), make([]uint64, 2)); !errors.Is(err, ErrInvalidNode) {
		t.Errorf("group node keys: got %v", err)
	}
	if _, err := EncodeChunkNode(cfg, 1, []uint64{4}, make([]ChunkEntry, 3)); !errors.Is(err, ErrTooManyEntries) {
		t.Errorf("chunk node: got %v", err)
	}
}

func TestChunkRoundTrip(t *testing.T) {
	chunkDims := []uint64{10, 20}
	in := []ChunkEntry{
		{Offset: []uint64{0, 0}, Size: 300, Address: 4096},
		{Offset: []uint64{0, 20}, Size: 280, Address: 4396, FilterMask: 1},
		{Offset: []uint64{10, 0}, Size: 310, Address: 4676},
		{Offset: []uint64{10, 20}, Size: 0, Address: 0xFFFFFFFFFFFFFFFF},
	}
	node, err := EncodeChunkNode(cfg, 4, chunkDims, in)
	if err != nil {
		t.Fatal(err)
	}
	if len(node) != ChunkNodeSize(cfg, 4, 2) {
		t.Fatalf("chunk node is %d bytes, want %d", len(node), ChunkNodeSize(cfg, 4, 2))
	}

	im := newImage()
	im.put(t, 800, node)
	idx, err := ReadChunkIndex(im.reader(), 800, 2)
	if err != nil {
		t.Fatal(err)
	}
	if idx.NDims != 2 || len(idx.Entries) != 3 {
		t.Fatalf("got %d entries, want 3 (unallocated chunk skipped)", len(idx.Entries))
	}
	for i, e := range idx.Entries {
		want := in[i]
		if e.Address != want.Address || e.Size != want.Size || e.FilterMask != want.FilterMask {
			t.Errorf("entry %d = %+v, want %+v", i, e, want)
		}
		if len(e.Offset) != 2 || e.Offset[0] != want.Offset[0] || e.Offset[1] != want.Offset[1] {
			t.Errorf("entry %d offset = %v", i, e.Offset)
		}
	}
}

func TestReadNodeErrors(t *testing.T) {
	node, err := EncodeChunkNode(cfg, 2, []uint64{4}, nil)
	if err != nil {
		t.Fatal(err)
	}
	im := newImage()
	im.put(t, 0, node)
	im.put(t, 512, []byte("XXXX"))

	tests := []struct {
		name string
		read func() error
	}{
		{"wrong node type", func() error {
			_, err := ReadGroupEntries(im.reader(), 0, &heap.LocalHeap{})
			return err
		}},
		{"bad signature", func() error {
			_, err := ReadChunkIndex(im.reader(), 512, 1)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.read(); !errors.Is(err, ErrInvalidNode) {
				t.Errorf("expected ErrInvalidNode, got %v", err)
			}
		})
	}

	idx, err := ReadChunkIndex(im.reader(), 0, 1)
	if err != nil || len(idx.Entries) != 0 {
		t.Errorf("empty index = %+v, %v", idx, err)
	}
}
