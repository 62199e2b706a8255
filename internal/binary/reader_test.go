package binary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestReaderFixedWidth(t *testing.T) {
	data := []byte{
		0x42,
		0x02, 0x01,
		0x04, 0x03, 0x02, 0x01,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
	}
	r := NewReader(bytes.NewReader(data), DefaultConfig())

	u8, err := r.ReadUint8()
	if err != nil || u8 != 0x42 {
		t.Fatalf("ReadUint8 = 0x%02x, %v", u8, err)
	}
	u16, err := r.ReadUint16()
	if err != nil || u16 != 0x0102 {
		t.Fatalf("ReadUint16 = 0x%04x, %v", u16, err)
	}
	u32, err := r.ReadUint32()
	if err != nil || u32 != 0x01020304 {
		t.Fatalf("ReadUint32 = 0x%08x, %v", u32, err)
	}
	u64, err := r.ReadUint64()
	if err != nil || u64 != 0x0102030405060708 {
		t.Fatalf("ReadUint64 = 0x%016x, %v", u64, err)
	}
	if r.Pos() != int64(len(data)) {
		t.Errorf("Pos = %d, want %d", r.Pos(), len(data))
	}
}

func TestReaderBigEndian(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x01, 0x02, 0xff, 0xff, 0xff, 0xfe}), Config{ByteOrder: binary.BigEndian})

	u16, _ := r.ReadUint16()
	if u16 != 0x0102 {
		t.Errorf("ReadUint16 = 0x%04x, want 0x0102", u16)
	}
	i32, _ := r.ReadInt32()
	if i32 != -2 {
		t.Errorf("ReadInt32 = %d, want -2", i32)
	}
}

func TestReaderVariableWidth(t *testing.T) {
	tests := []struct {
		name       string
		offsetSize int
		data       []byte
		want       uint64
	}{
		{"2-byte", 2, []byte{0x34, 0x12}, 0x1234},
		{"4-byte", 4, []byte{0x78, 0x56, 0x34, 0x12}, 0x12345678},
		{"8-byte", 8, []byte{0x01, 0, 0, 0, 0, 0, 0, 0x80}, 0x8000000000000001},
		{"3-byte", 3, []byte{0x03, 0x02, 0x01}, 0x010203},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(bytes.NewReader(tt.data), Config{OffsetSize: tt.offsetSize, LengthSize: tt.offsetSize})
			got, err := r.ReadOffset()
			if err != nil {
				t.Fatalf("ReadOffset: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadOffset = 0x%x, want 0x%x", got, tt.want)
			}
		})
	}
}

func TestReaderShortRead(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2, 3}), DefaultConfig())
	if _, err := r.ReadUint32(); !errors.Is(err, ErrShortRead) {
		t.Fatalf("expected ErrShortRead, got %v", err)
	}
	if r.Pos() != 0 {
		t.Errorf("failed read advanced position to %d", r.Pos())
	}
}

func TestReaderAtAndPeek(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	r := NewReader(bytes.NewReader(data), DefaultConfig())
	r.Skip(2)

	other := r.At(7)
	b, _ := other.ReadUint8()
	if b != 7 {
		t.Errorf("At(7).ReadUint8 = %d, want 7", b)
	}
	if r.Pos() != 2 {
		t.Errorf("original position moved to %d", r.Pos())
	}

	peek, err := r.Peek(3)
	if err != nil || !bytes.Equal(peek, []byte{2, 3, 4}) {
		t.Fatalf("Peek = %v, %v", peek, err)
	}
	if r.Pos() != 2 {
		t.Errorf("Peek advanced position to %d", r.Pos())
	}
}

func TestReaderAlign(t *testing.T) {
	tests := []struct {
		start, align, want int64
	}{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 4, 12},
		{5, 1, 5},
	}
	for _, tt := range tests {
		r := NewReader(bytes.NewReader(nil), DefaultConfig()).At(tt.start)
		r.Align(tt.align)
		if r.Pos() != tt.want {
			t.Errorf("Align(%d) from %d = %d, want %d", tt.align, tt.start, r.Pos(), tt.want)
		}
	}
}

func TestReaderIsUndefinedOffset(t *testing.T) {
	tests := []struct {
		size  int
		value uint64
		want  bool
	}{
		{2, 0xFFFF, true},
		{4, 0xFFFFFFFF, true},
		{4, 0xFFFFFFFE, false},
		{8, 0xFFFFFFFFFFFFFFFF, true},
		{8, 0, false},
	}
	for _, tt := range tests {
		r := NewReader(bytes.NewReader(nil), Config{OffsetSize: tt.size, LengthSize: tt.size})
		if got := r.IsUndefinedOffset(tt.value); got != tt.want {
			t.Errorf("size %d: IsUndefinedOffset(0x%x) = %v, want %v", tt.size, tt.value, got, tt.want)
		}
	}
}
