package message

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/robert-malhotra/mat2img/internal/binary"
)

var cfg = binary.DefaultConfig()

func le16(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }
func le32(v uint32) []byte { return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)} }
func le64(v uint64) []byte {
	return append(le32(uint32(v)), le32(uint32(v>>32))...)
}

func cat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func mustParse[T Message](t *testing.T, typ Type, data []byte) T {
	t.Helper()
	msg, err := Parse(typ, data, 0, cfg)
	if err != nil {
		t.Fatalf("Parse(0x%04x): %v", uint16(typ), err)
	}
	out, ok := msg.(T)
	if !ok {
		t.Fatalf("Parse(0x%04x) returned %T", uint16(typ), msg)
	}
	return out
}

func TestParseDataspace(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		spaceType DataspaceType
		dims      []uint64
		maxDims   []uint64
	}{
		{
			name:      "v1 simple",
			data:      cat([]byte{1, 2, 0, 0}, le32(0), le64(512), le64(256)),
			spaceType: DataspaceSimple,
			dims:      []uint64{512, 256},
		},
		{
			name:      "v1 scalar",
			data:      cat([]byte{1, 0, 0, 0}, le32(0)),
			spaceType: DataspaceScalar,
		},
		{
			name:      "v2 with max dims",
			data:      cat([]byte{2, 1, 1, 1}, le64(10), le64(0xFFFFFFFFFFFFFFFF)),
			spaceType: DataspaceSimple,
			dims:      []uint64{10},
			maxDims:   []uint64{0xFFFFFFFFFFFFFFFF},
		},
		{
			name:      "v2 null",
			data:      []byte{2, 0, 0, 2},
			spaceType: DataspaceNull,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := mustParse[*Dataspace](t, TypeDataspace, tt.data)
			if ds.SpaceType != tt.spaceType {
				t.Errorf("SpaceType = %d, want %d", ds.SpaceType, tt.spaceType)
			}
			if len(ds.Dimensions) != len(tt.dims) {
				t.Fatalf("Dimensions = %v, want %v", ds.Dimensions, tt.dims)
			}
			for i := range tt.dims {
				if ds.Dimensions[i] != tt.dims[i] {
					t.Errorf("Dimensions[%d] = %d, want %d", i, ds.Dimensions[i], tt.dims[i])
				}
			}
			if len(ds.MaxDims) != len(tt.maxDims) {
				t.Errorf("MaxDims = %v, want %v", ds.MaxDims, tt.maxDims)
			}
		})
	}
}

func TestDataspaceNumElements(t *testing.T) {
	tests := []struct {
		ds   Dataspace
		want uint64
	}{
		{Dataspace{SpaceType: DataspaceScalar}, 1},
		{Dataspace{SpaceType: DataspaceNull}, 0},
		{Dataspace{SpaceType: DataspaceSimple, Dimensions: []uint64{3, 4}}, 12},
		{Dataspace{SpaceType: DataspaceSimple, Dimensions: []uint64{0, 4}}, 0},
		{Dataspace{SpaceType: DataspaceSimple, Dimensions: []uint64{1 << 32, 1 << 32}}, math.MaxUint64},
		{Dataspace{SpaceType: DataspaceSimple, Dimensions: []uint64{1 << 32, 1 << 32, 0}}, 0},
	}
	for _, tt := range tests {
		if got := tt.ds.NumElements(); got != tt.want {
			t.Errorf("%+v: NumElements = %d, want %d", tt.ds, got, tt.want)
		}
	}
}

func TestDataspaceEncodeRoundTrip(t *testing.T) {
	in := &Dataspace{SpaceType: DataspaceSimple, Dimensions: []uint64{2, 3, 4}}
	data, err := in.Encode(cfg)
	if err != nil {
		t.Fatal(err)
	}
	out := mustParse[*Dataspace](t, TypeDataspace, data)
	if out.Version != 1 || out.Rank() != 3 || out.NumElements() != 24 {
		t.Errorf("round trip: %+v", out)
	}
}

func TestParseTruncated(t *testing.T) {
	_, err := Parse(TypeDataspace, cat([]byte{1, 2, 0, 0}, le32(0), le64(512)), 0, cfg)
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestParseSharedDatatype(t *testing.T) {
	_, err := Parse(TypeDatatype, make([]byte, 16), FlagShared, cfg)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestParseUnknown(t *testing.T) {
	msg, err := Parse(TypeObjectModTime, []byte{1, 2, 3}, 0, cfg)
	if err != nil {
		t.Fatal(err)
	}
	u, ok := msg.(*Unknown)
	if !ok || u.Type() != TypeObjectModTime || len(u.Data()) != 3 {
		t.Errorf("unexpected %#v", msg)
	}
}

func TestDatatypeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   *Datatype
		str  string
	}{
		{"int16", NewInteger(2, true), "int16"},
		{"uint8", NewInteger(1, false), "uint8"},
		{"float64", NewFloat(8), "float64"},
		{"float32", NewFloat(4), "float32"},
		{"string", NewString(7, PadNullTerm), "string[7]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.in.Encode(cfg)
			if err != nil {
				t.Fatal(err)
			}
			out := mustParse[*Datatype](t, TypeDatatype, data)
			if out.Class != tt.in.Class || out.Size != tt.in.Size || out.Signed != tt.in.Signed {
				t.Errorf("round trip %+v -> %+v", tt.in, out)
			}
			if out.String() != tt.str {
				t.Errorf("String() = %q, want %q", out.String(), tt.str)
			}
			if tt.in.Class == ClassFloatPoint && (out.ExpBias != tt.in.ExpBias || out.SignLocation != tt.in.SignLocation) {
				t.Errorf("float properties lost: %+v", out)
			}
		})
	}
}

func TestCompoundRoundTrip(t *testing.T) {
	in := NewCompound([]string{"real", "imag"}, []*Datatype{NewFloat(8), NewFloat(8)})
	data, err := in.Encode(cfg)
	if err != nil {
		t.Fatal(err)
	}
	out := mustParse[*Datatype](t, TypeDatatype, data)
	if out.Class != ClassCompound || out.Size != 16 || len(out.Members) != 2 {
		t.Fatalf("unexpected compound %+v", out)
	}
	imag, ok := out.Member("imag")
	if !ok || imag.ByteOffset != 8 || imag.Type.Class != ClassFloatPoint {
		t.Errorf("imag member = %+v, %v", imag, ok)
	}
}

func TestParseVarLenString(t *testing.T) {
	base := cat([]byte{0x10, 0, 0, 0}, le32(1), le16(0), le16(8))
	data := cat([]byte{0x19, 0x01, 0, 0}, le32(16), base)
	dt := mustParse[*Datatype](t, TypeDatatype, data)
	if !dt.IsVarLenString || dt.Base == nil || dt.Base.Size != 1 {
		t.Errorf("unexpected vlen %+v", dt)
	}
}

func TestVarLenSequenceRoundTrip(t *testing.T) {
	in := NewVarLen(NewString(1, PadNullTerm), 8)
	data, err := in.Encode(cfg)
	if err != nil {
		t.Fatal(err)
	}
	out := mustParse[*Datatype](t, TypeDatatype, data)
	if out.Class != ClassVarLen || out.IsVarLenString || out.Size != 16 {
		t.Fatalf("unexpected vlen %+v", out)
	}
	if out.Base == nil || out.Base.Class != ClassString || out.Base.Size != 1 {
		t.Errorf("unexpected base %+v", out.Base)
	}

	if _, err := (&Datatype{Class: ClassVarLen, Size: 16}).Encode(cfg); !errors.Is(err, ErrUnsupported) {
		t.Errorf("vlen without base: %v", err)
	}
}

func TestParseLayoutV1Contiguous(t *testing.T) {
	data := cat([]byte{1, 3, 1, 0, 0, 0, 0, 0}, le64(4096), le32(10), le32(20), le32(2))
	l := mustParse[*DataLayout](t, TypeDataLayout, data)
	if l.Class != LayoutContiguous || l.Address != 4096 || l.Size != 400 {
		t.Errorf("unexpected layout %+v", l)
	}
}

func TestParseLayoutV3Chunked(t *testing.T) {
	data := cat([]byte{3, 2, 3}, le64(800), le32(64), le32(512), le32(2))
	l := mustParse[*DataLayout](t, TypeDataLayout, data)
	if l.Class != LayoutChunked || l.ChunkIndexType != ChunkIndexBTreeV1 {
		t.Fatalf("unexpected layout %+v", l)
	}
	if l.ChunkIndexAddr != 800 || len(l.ChunkDims) != 2 || l.ChunkDims[0] != 64 || l.ChunkDims[1] != 512 || l.ElementSize != 2 {
		t.Errorf("unexpected chunk geometry %+v", l)
	}
	if l.ChunkBytes() != 64*512*2 {
		t.Errorf("ChunkBytes = %d", l.ChunkBytes())
	}
}

func TestParseLayoutV4SingleFiltered(t *testing.T) {
	data := cat(
		[]byte{4, 2, ChunkSingleIndexWithFilter, 3, 2},
		le16(100), le16(50), le16(8),
		[]byte{byte(ChunkIndexSingleChunk)},
		le64(12345), le32(0),
		le64(2048),
	)
	l := mustParse[*DataLayout](t, TypeDataLayout, data)
	if l.ChunkIndexType != ChunkIndexSingleChunk || l.FilteredChunkSize != 12345 || l.ChunkIndexAddr != 2048 {
		t.Errorf("unexpected layout %+v", l)
	}
	if l.ChunkDims[0] != 100 || l.ChunkDims[1] != 50 || l.ElementSize != 8 {
		t.Errorf("unexpected dims %+v", l)
	}
}

func TestParseLayoutV4FixedArray(t *testing.T) {
	data := cat([]byte{4, 2, 0, 2, 4}, le32(16), le32(4), []byte{byte(ChunkIndexFixedArray), 10}, le64(999))
	l := mustParse[*DataLayout](t, TypeDataLayout, data)
	if l.ChunkIndexType != ChunkIndexFixedArray || l.PageBits != 10 || l.ChunkIndexAddr != 999 {
		t.Errorf("unexpected layout %+v", l)
	}
}

func TestLayoutEncodeRoundTrip(t *testing.T) {
	tests := []*DataLayout{
		{Class: LayoutContiguous, Address: 1024, Size: 80},
		{Class: LayoutCompact, CompactData: []byte{1, 2, 3, 4}},
		{Class: LayoutChunked, ChunkIndexAddr: 4096, ChunkDims: []uint64{32, 512}, ElementSize: 2},
	}
	for _, in := range tests {
		data, err := in.Encode(cfg)
		if err != nil {
			t.Fatal(err)
		}
		out := mustParse[*DataLayout](t, TypeDataLayout, data)
		if out.Version != 3 || out.Class != in.Class || out.Address != in.Address || out.Size != in.Size ||
			!bytes.Equal(out.CompactData, in.CompactData) || out.ChunkIndexAddr != in.ChunkIndexAddr ||
			out.ChunkBytes() != in.ChunkBytes() {
			t.Errorf("round trip %+v -> %+v", in, out)
		}
	}
}

func TestFilterPipelineRoundTrip(t *testing.T) {
	in := &FilterPipeline{Filters: []FilterInfo{
		{ID: FilterShuffle, ClientData: []uint32{2}},
		{ID: FilterDeflate, Flags: FilterOptional, ClientData: []uint32{6}},
		{ID: FilterFletcher32},
	}}
	data, err := in.Encode(cfg)
	if err != nil {
		t.Fatal(err)
	}
	out := mustParse[*FilterPipeline](t, TypeFilterPipeline, data)
	if len(out.Filters) != 3 {
		t.Fatalf("got %d filters", len(out.Filters))
	}
	if !out.HasFilter(FilterDeflate) || out.HasFilter(FilterSZIP) {
		t.Error("HasFilter mismatch")
	}
	if f := out.Filters[1]; !f.IsOptional() || len(f.ClientData) != 1 || f.ClientData[0] != 6 {
		t.Errorf("deflate filter = %+v", f)
	}
}

func TestParseFilterPipelineV2(t *testing.T) {
	data := cat([]byte{2, 1}, le16(FilterDeflate), le16(0), le16(1), le32(4))
	fp := mustParse[*FilterPipeline](t, TypeFilterPipeline, data)
	if len(fp.Filters) != 1 || fp.Filters[0].ClientData[0] != 4 {
		t.Errorf("unexpected pipeline %+v", fp)
	}
}

func TestAttributeRoundTrip(t *testing.T) {
	in := NewStringAttribute("MATLAB_class", "double")
	data, err := in.Encode(cfg)
	if err != nil {
		t.Fatal(err)
	}
	out := mustParse[*Attribute](t, TypeAttribute, data)
	if out.Name != "MATLAB_class" {
		t.Errorf("Name = %q", out.Name)
	}
	if out.Datatype.Class != ClassString || !out.Dataspace.IsScalar() {
		t.Errorf("unexpected type/space %+v %+v", out.Datatype, out.Dataspace)
	}
	if cString(out.Data) != "double" {
		t.Errorf("Data = %q", out.Data)
	}
}

func TestParseAttributeV3(t *testing.T) {
	dtype := cat([]byte{0x10, 0x08, 0, 0}, le32(4), le16(0), le16(32))
	space := []byte{2, 0, 0, 0}
	data := cat([]byte{3, 0}, le16(5), le16(uint16(len(dtype))), le16(uint16(len(space))), []byte{0},
		[]byte("rank\x00"), dtype, space, le32(7))
	attr := mustParse[*Attribute](t, TypeAttribute, data)
	if attr.Name != "rank" || !attr.Datatype.Signed || !attr.Dataspace.IsScalar() || !bytes.Equal(attr.Data, le32(7)) {
		t.Errorf("unexpected attribute %+v", attr)
	}
}

func TestFillValue(t *testing.T) {
	in := &FillValue{SpaceAllocTime: AllocIncremental, FillWriteTime: 2, Defined: true, Value: le64(0)}
	data, err := in.Encode(cfg)
	if err != nil {
		t.Fatal(err)
	}
	out := mustParse[*FillValue](t, TypeFillValue, data)
	if out.Version != 2 || !out.Defined || len(out.Value) != 8 || out.SpaceAllocTime != AllocIncremental {
		t.Errorf("round trip %+v", out)
	}

	v3 := cat([]byte{3, 0x20 | 0x02}, le32(2), le16(0xBEEF))
	fv := mustParse[*FillValue](t, TypeFillValue, v3)
	if !fv.Defined || !bytes.Equal(fv.Value, le16(0xBEEF)) || fv.SpaceAllocTime != AllocLate {
		t.Errorf("v3 fill value %+v", fv)
	}

	undefined := mustParse[*FillValue](t, TypeFillValue, []byte{3, 0x10})
	if undefined.Defined || undefined.Value != nil {
		t.Errorf("undefined fill value %+v", undefined)
	}
}

func TestParseLinks(t *testing.T) {
	hard := cat([]byte{1, 0x00, 5}, []byte("image"), le64(4242))
	l := mustParse[*Link](t, TypeLink, hard)
	if l.Name != "image" || l.LinkType != LinkTypeHard || l.ObjectAddress != 4242 {
		t.Errorf("hard link %+v", l)
	}

	soft := cat([]byte{1, 0x08, byte(LinkTypeSoft), 4}, []byte("copy"), le16(7), []byte("/cjdata"))
	l = mustParse[*Link](t, TypeLink, soft)
	if l.LinkType != LinkTypeSoft || l.SoftPath != "/cjdata" {
		t.Errorf("soft link %+v", l)
	}

	value := cat([]byte{0}, []byte("other.mat\x00/x\x00"))
	ext := cat([]byte{1, 0x08, byte(LinkTypeExternal), 3}, []byte("ext"), le16(uint16(len(value))), value)
	l = mustParse[*Link](t, TypeLink, ext)
	if l.ExternalFile != "other.mat" || l.ExternalPath != "/x" {
		t.Errorf("external link %+v", l)
	}
}

func TestSymbolTableAndContinuation(t *testing.T) {
	st := &SymbolTable{BTreeAddress: 136, LocalHeapAddress: 680}
	data, err := st.Encode(cfg)
	if err != nil {
		t.Fatal(err)
	}
	out := mustParse[*SymbolTable](t, TypeSymbolTable, data)
	if *out != *st {
		t.Errorf("symbol table %+v", out)
	}

	data, err = EncodeContinuation(5000, 256, cfg)
	if err != nil {
		t.Fatal(err)
	}
	c := mustParse[*Continuation](t, TypeObjectHeaderContinuation, data)
	if c.Offset != 5000 || c.Length != 256 {
		t.Errorf("continuation %+v", c)
	}
}
