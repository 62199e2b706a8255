package dtype

import (
	"bytes"
	"errors"
	"math"
	"testing"

	binpkg "github.com/robert-malhotra/mat2img/internal/binary"
	"github.com/robert-malhotra/mat2img/internal/heap"
	"github.com/robert-malhotra/mat2img/internal/message"
)

func bigEndian(dt *message.Datatype) *message.Datatype {
	dt.ByteOrder = message.OrderBE
	return dt
}

func TestFloat64s(t *testing.T) {
	tests := []struct {
		name string
		dt   *message.Datatype
		data []byte
		want []float64
	}{
		{"uint8", message.NewInteger(1, false), []byte{0, 7, 255}, []float64{0, 7, 255}},
		{"int8", message.NewInteger(1, true), []byte{0x80, 0xFF, 5}, []float64{-128, -1, 5}},
		{"int16 le", message.NewInteger(2, true), []byte{0xFE, 0xFF, 0x00, 0x01}, []float64{-2, 256}},
		{"int16 be", bigEndian(message.NewInteger(2, true)), []byte{0xFF, 0xFE, 0x01, 0x00}, []float64{-2, 256}},
		{"uint32", message.NewInteger(4, false), []byte{1, 0, 0, 0, 0xFF, 0xFF, 0xFF, 0xFF}, []float64{1, 4294967295}},
		{"int64", message.NewInteger(8, true), []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, []float64{-1}},
		{"float32", message.NewFloat(4), []byte{0, 0, 0xC0, 0x3F}, []float64{1.5}},
		{"float64 be", bigEndian(message.NewFloat(8)), []byte{0x40, 0x09, 0x21, 0xFB, 0x54, 0x44, 0x2D, 0x18}, []float64{math.Pi}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Float64s(tt.dt, tt.data, len(tt.want))
			if err != nil {
				t.Fatalf("Float64s: %v", err)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("element %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFloat64sErrors(t *testing.T) {
	if _, err := Float64s(message.NewInteger(4, true), []byte{1, 2}, 1); err == nil {
		t.Error("short data accepted")
	}
	for _, n := range []int{-1, math.MaxInt/2 + 1, math.MaxInt} {
		if _, err := Float64s(message.NewInteger(4, true), []byte{1, 2, 3, 4}, n); err == nil {
			t.Errorf("%d elements accepted", n)
		}
	}
	if _, err := Float64s(message.NewString(4, message.PadNullPad), []byte("abcd"), 1); !errors.Is(err, ErrUnsupported) {
		t.Errorf("string as number: %v, want ErrUnsupported", err)
	}
	half := &message.Datatype{Class: message.ClassFloatPoint, Size: 2}
	if _, err := Float64s(half, []byte{0, 0}, 1); !errors.Is(err, ErrUnsupported) {
		t.Errorf("half float: %v, want ErrUnsupported", err)
	}
}

func TestEnumUsesBase(t *testing.T) {
	dt := &message.Datatype{Class: message.ClassEnum, Size: 1, Base: message.NewInteger(1, false)}
	got, err := Float64s(dt, []byte{1, 0}, 2)
	if err != nil || got[0] != 1 || got[1] != 0 {
		t.Fatalf("enum = %v, %v", got, err)
	}
}

func TestComplex(t *testing.T) {
	part := message.NewFloat(8)
	dt := message.NewCompound([]string{"real", "imag"}, []*message.Datatype{part, part})
	data, err := EncodeComplex(part, []float64{1, 3}, []float64{2, -4})
	if err != nil {
		t.Fatal(err)
	}
	re, im, err := Complex(dt, data, 2)
	if err != nil {
		t.Fatalf("Complex: %v", err)
	}
	if re[0] != 1 || re[1] != 3 || im[0] != 2 || im[1] != -4 {
		t.Errorf("re=%v im=%v", re, im)
	}

	other := message.NewCompound([]string{"a", "b"}, []*message.Datatype{part, part})
	if _, _, err := Complex(other, data, 2); !errors.Is(err, ErrUnsupported) {
		t.Errorf("compound without real/imag: %v", err)
	}
	if _, err := EncodeComplex(part, []float64{1}, nil); err == nil {
		t.Error("mismatched parts accepted")
	}
}

func TestStrings(t *testing.T) {
	tests := []struct {
		pad  message.StringPadding
		data string
		want []string
	}{
		{message.PadNullTerm, "ab\x00\x00cde\x00", []string{"ab", "cde"}},
		{message.PadNullPad, "abcdxy\x00\x00", []string{"abcd", "xy"}},
		{message.PadSpacePad, "ab  cdef", []string{"ab", "cdef"}},
	}
	for _, tt := range tests {
		got, err := Strings(message.NewString(4, tt.pad), []byte(tt.data), 2)
		if err != nil {
			t.Fatalf("pad %d: %v", tt.pad, err)
		}
		if got[0] != tt.want[0] || got[1] != tt.want[1] {
			t.Errorf("pad %d = %q, want %q", tt.pad, got, tt.want)
		}
	}
}

func TestVarLenRefs(t *testing.T) {
	cfg := binpkg.DefaultConfig()
	data, err := binpkg.Encode(cfg, func(w *binpkg.Writer) {
		w.WriteUint32(3)
		heap.EncodeGlobalHeapID(w, heap.GlobalHeapID{CollectionAddress: 4096, ObjectIndex: 1})
		w.WriteUint32(5)
		heap.EncodeGlobalHeapID(w, heap.GlobalHeapID{CollectionAddress: 4096, ObjectIndex: 2})
	})
	if err != nil {
		t.Fatal(err)
	}
	dt := &message.Datatype{Class: message.ClassVarLen, Size: 16, Base: message.NewString(1, message.PadNullTerm)}
	refs, err := VarLenRefs(dt, data, 2, cfg)
	if err != nil {
		t.Fatalf("VarLenRefs: %v", err)
	}
	if refs[0].Length != 3 || refs[1].Length != 5 || refs[1].ID.ObjectIndex != 2 || refs[0].ID.CollectionAddress != 4096 {
		t.Errorf("refs = %+v", refs)
	}
	if _, err := VarLenRefs(dt, data[:20], 2, cfg); err == nil {
		t.Error("short vlen data accepted")
	}
}

func TestEncodeFloat64s(t *testing.T) {
	tests := []struct {
		name string
		dt   *message.Datatype
		in   []float64
		want []byte
	}{
		{"uint8 saturates", message.NewInteger(1, false), []float64{-3, 2.5, 300}, []byte{0, 3, 255}},
		{"int8 saturates", message.NewInteger(1, true), []float64{-200, -1, 127.4}, []byte{0x80, 0xFF, 0x7F}},
		{"int16 be", bigEndian(message.NewInteger(2, true)), []float64{-2}, []byte{0xFF, 0xFE}},
		{"uint16 nan", message.NewInteger(2, false), []float64{math.NaN()}, []byte{0, 0}},
		{"float32", message.NewFloat(4), []float64{1.5}, []byte{0, 0, 0xC0, 0x3F}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeFloat64s(tt.dt, tt.in)
			if err != nil {
				t.Fatalf("EncodeFloat64s: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got % x, want % x", got, tt.want)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	values := []float64{0, 1, -1, 1e6, -3.25}
	for _, dt := range []*message.Datatype{message.NewFloat(8), bigEndian(message.NewFloat(8)), message.NewInteger(8, true)} {
		raw, err := EncodeFloat64s(dt, values)
		if err != nil {
			t.Fatal(err)
		}
		got, err := Float64s(dt, raw, len(values))
		if err != nil {
			t.Fatal(err)
		}
		for i, v := range values {
			want := v
			if dt.Class == message.ClassFixedPoint {
				want = math.Round(v)
			}
			if got[i] != want {
				t.Errorf("%s element %d = %v, want %v", dt, i, got[i], want)
			}
		}
	}
}
