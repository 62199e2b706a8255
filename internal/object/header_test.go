package object

import (
	"errors"
	"testing"

	"github.com/robert-malhotra/mat2img/internal/binary"
	"github.com/robert-malhotra/mat2img/internal/message"
)

var cfg = binary.DefaultConfig()

func readerOver(t *testing.T, data []byte) *binary.Reader {
	t.Helper()
	buf := binary.NewBuffer()
	if _, err := buf.WriteAt(data, 0); err != nil {
		t.Fatal(err)
	}
	return binary.NewReader(buf, cfg)
}

func TestHeaderAccessors(t *testing.T) {
	h := &Header{
		Version: 1,
		Messages: []message.Message{
			&message.Dataspace{SpaceType: message.DataspaceSimple, Dimensions: []uint64{10, 20}},
			&message.Datatype{Class: message.ClassFloatPoint, Size: 8},
			&message.DataLayout{Class: message.LayoutContiguous, Address: 1234},
			message.NewStringAttribute("MATLAB_class", "double"),
			message.NewStringAttribute("units", "px"),
		},
	}

	if ds := h.Dataspace(); ds == nil || ds.Rank() != 2 {
		t.Errorf("Dataspace() = %+v", ds)
	}
	if dt := h.Datatype(); dt == nil || dt.Size != 8 {
		t.Errorf("Datatype() = %+v", dt)
	}
	if dl := h.DataLayout(); dl == nil || dl.Address != 1234 {
		t.Errorf("DataLayout() = %+v", dl)
	}
	if h.FilterPipeline() != nil || h.FillValue() != nil || h.SymbolTable() != nil {
		t.Error("expected nil for absent messages")
	}
	if got := len(h.GetMessages(message.TypeAttribute)); got != 2 {
		t.Errorf("GetMessages(attribute) = %d, want 2", got)
	}
	if _, ok := h.Attribute("units"); !ok {
		t.Error("Attribute(units) not found")
	}
	if _, ok := h.Attribute("missing"); ok {
		t.Error("Attribute(missing) found")
	}
	if !h.IsDataset() || h.IsGroup() {
		t.Error("expected a dataset header")
	}

	empty := &Header{}
	if empty.Dataspace() != nil || empty.GetMessage(message.TypeDataspace) != nil {
		t.Error("expected nil from empty header")
	}
}

func TestEncodeV1RoundTrip(t *testing.T) {
	space := &message.Dataspace{SpaceType: message.DataspaceSimple, Dimensions: []uint64{3, 4}}
	dtype := message.NewFloat(8)
	layout := &message.DataLayout{Class: message.LayoutContiguous, Address: 4096, Size: 96}
	attr := message.NewStringAttribute("MATLAB_class", "double")

	data, err := EncodeV1(cfg, space, dtype, layout, attr)
	if err != nil {
		t.Fatal(err)
	}
	if len(data)%8 != 0 {
		t.Errorf("header length %d is not 8-byte aligned", len(data))
	}

	hdr, err := Read(readerOver(t, data), 0)
	if err != nil {
		t.Fatal(err)
	}
	if hdr.Version != 1 || hdr.RefCount != 1 || len(hdr.Messages) != 4 {
		t.Fatalf("unexpected header %+v", hdr)
	}
	if got := hdr.Dataspace().NumElements(); got != 12 {
		t.Errorf("NumElements = %d", got)
	}
	if got := hdr.DataLayout(); got.Address != 4096 || got.Size != 96 {
		t.Errorf("layout = %+v", got)
	}
	a, ok := hdr.Attribute("MATLAB_class")
	if !ok || string(a.Data[:6]) != "double" {
		t.Errorf("attribute = %+v", a)
	}
}

func TestEncodeV1PadsSmallHeaders(t *testing.T) {
	st := &message.SymbolTable{BTreeAddress: 100, LocalHeapAddress: 200}
	data, err := EncodeV1(cfg, st)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != prefixSizeV1+msgHeadSizeV1+16 {
		t.Fatalf("header length = %d", len(data))
	}

	data, err = EncodeV1(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != prefixSizeV1+MinHeaderSize {
		t.Errorf("empty header length = %d", len(data))
	}
	hdr, err := Read(readerOver(t, data), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hdr.Messages) != 0 {
		t.Errorf("expected NIL padding to be skipped, got %d messages", len(hdr.Messages))
	}
}

func TestReadV1Continuation(t *testing.T) {
	attr := message.NewStringAttribute("MATLAB_class", "struct")
	attrBody, err := attr.Encode(cfg)
	if err != nil {
		t.Fatal(err)
	}
	padded := (len(attrBody) + 7) &^ 7

	const contAt = 256
	contLen := uint64(msgHeadSizeV1 + padded)
	cont, err := message.EncodeContinuation(contAt, contLen, cfg)
	if err != nil {
		t.Fatal(err)
	}
	st := &message.SymbolTable{BTreeAddress: 1, LocalHeapAddress: 2}
	head, err := EncodeV1(cfg, st, &Raw{MsgType: message.TypeObjectHeaderContinuation, Body: cont})
	if err != nil {
		t.Fatal(err)
	}

	buf := binary.NewBuffer()
	w := binary.NewWriter(buf, cfg)
	w.WriteBytes(head)
	w = w.At(contAt)
	w.WriteUint16(uint16(message.TypeAttribute))
	w.WriteUint16(uint16(padded))
	w.WriteZeros(4)
	w.WriteBytes(attrBody)
	w.Pad(8)
	if err := w.Err(); err != nil {
		t.Fatal(err)
	}

	hdr, err := Read(binary.NewReader(buf, cfg), 0)
	if err != nil {
		t.Fatal(err)
	}
	if hdr.SymbolTable() == nil || !hdr.IsGroup() {
		t.Error("symbol table message missing")
	}
	if _, ok := hdr.Attribute("MATLAB_class"); !ok {
		t.Error("attribute from continuation block missing")
	}
}

func TestReadV1TruncatedMessage(t *testing.T) {
	data, err := EncodeV1(cfg, &message.Dataspace{SpaceType: message.DataspaceSimple, Dimensions: []uint64{5}})
	if err != nil {
		t.Fatal(err)
	}
	// shrink the dataspace message to cut off its only dimension
	data[prefixSizeV1+2] = 8
	_, err = Read(readerOver(t, data), 0)
	if !errors.Is(err, message.ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

// buildV2 assembles a version 2 header with the given message bodies.
func buildV2(t *testing.T, msgs []message.Message, bodies [][]byte) []byte {
	t.Helper()
	var chunk []byte
	for i, m := range msgs {
		chunk = append(chunk, byte(m.Type()), byte(len(bodies[i])), byte(len(bodies[i])>>8), 0)
		chunk = append(chunk, bodies[i]...)
	}
	raw := append([]byte("OHDR"), 2, 0x00, byte(len(chunk)))
	raw = append(raw, chunk...)
	sum := binary.Lookup3Checksum(raw)
	return append(raw, byte(sum), byte(sum>>8), byte(sum>>16), byte(sum>>24))
}

func TestReadV2(t *testing.T) {
	space := &message.Dataspace{SpaceType: message.DataspaceSimple, Dimensions: []uint64{7}}
	spaceBody, err := space.Encode(cfg)
	if err != nil {
		t.Fatal(err)
	}
	dtype := message.NewInteger(2, false)
	typeBody, err := dtype.Encode(cfg)
	if err != nil {
		t.Fatal(err)
	}

	data := buildV2(t, []message.Message{space, dtype}, [][]byte{spaceBody, typeBody})
	hdr, err := Read(readerOver(t, data), 0)
	if err != nil {
		t.Fatal(err)
	}
	if hdr.Version != 2 || len(hdr.Messages) != 2 {
		t.Fatalf("unexpected header %+v", hdr)
	}
	if hdr.Datatype().String() != "uint16" {
		t.Errorf("datatype = %s", hdr.Datatype())
	}

	data[len(data)-1] ^= 0xFF
	if _, err := Read(readerOver(t, data), 0); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestReadInvalidHeader(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"unknown version", []byte{99, 0, 0, 0, 0, 0, 0, 0}},
		{"wrong signature", []byte("XXXX")},
		{"too short", []byte{1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(readerOver(t, tt.data), 0); err == nil {
				t.Error("expected error")
			}
		})
	}
}
