package mat5

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zlib"

	"github.com/robert-malhotra/mat2img/internal/filter"
)

// DataType is the type field of a data element tag.
type DataType uint32

const (
	Int8       DataType = 1
	Uint8      DataType = 2
	Int16      DataType = 3
	Uint16     DataType = 4
	Int32      DataType = 5
	Uint32     DataType = 6
	Single     DataType = 7
	Double     DataType = 9
	Int64      DataType = 12
	Uint64     DataType = 13
	Matrix     DataType = 14
	Compressed DataType = 15
	UTF8       DataType = 16
	UTF16      DataType = 17
	UTF32      DataType = 18
)

var typeNames = map[DataType]string{
	Int8: "miINT8", Uint8: "miUINT8", Int16: "miINT16", Uint16: "miUINT16",
	Int32: "miINT32", Uint32: "miUINT32", Single: "miSINGLE", Double: "miDOUBLE",
	Int64: "miINT64", Uint64: "miUINT64", Matrix: "miMATRIX", Compressed: "miCOMPRESSED",
	UTF8: "miUTF8", UTF16: "miUTF16", UTF32: "miUTF32",
}

func (t DataType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("mi(%d)", uint32(t))
}

// Size returns the width of one value, or 0 for element types that do not
// hold a flat array of numbers.
func (t DataType) Size() int {
	switch t {
	case Int8, Uint8, UTF8:
		return 1
	case Int16, Uint16, UTF16:
		return 2
	case Int32, Uint32, Single, UTF32:
		return 4
	case Double, Int64, Uint64:
		return 8
	}
	return 0
}

// Element is one decoded data element.
type Element struct {
	Type DataType
	Data []byte
}

// Reader walks the data elements of a byte slice.
type Reader struct {
	data  []byte
	pos   int
	order binary.ByteOrder
}

// NewReader returns a reader over data in the given byte order.
func NewReader(data []byte, order binary.ByteOrder) *Reader {
	return &Reader{data: data, order: order}
}

// More reports whether another element tag could follow.
func (r *Reader) More() bool {
	return r.pos < len(r.data)
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data) - r.pos
}

// Next decodes the next element.
func (r *Reader) Next() (Element, error) {
	if len(r.data)-r.pos < 8 {
		return Element{}, fmt.Errorf("%w: element tag at %d", ErrTruncated, r.pos)
	}
	first := r.order.Uint32(r.data[r.pos:])
	if small := first >> 16; small != 0 {
		if small > 4 {
			return Element{}, fmt.Errorf("%w: small element of %d bytes at %d", ErrMalformed, small, r.pos)
		}
		e := Element{Type: DataType(first & 0xFFFF), Data: r.data[r.pos+4 : r.pos+4+int(small)]}
		r.pos += 8
		return e, nil
	}

	typ := DataType(first)
	size := int(r.order.Uint32(r.data[r.pos+4:]))
	start := r.pos + 8
	if size < 0 || size > len(r.data)-start {
		return Element{}, fmt.Errorf("%w: %s of %d bytes at %d, %d remain", ErrTruncated, typ, size, r.pos, len(r.data)-start)
	}
	r.pos = start + size
	if typ != Compressed {
		r.pos = min(start+(size+7)&^7, len(r.data))
	}
	return Element{Type: typ, Data: r.data[start : start+size]}, nil
}

// Writer appends data elements to a buffer.
type Writer struct {
	buf   bytes.Buffer
	order binary.ByteOrder
}

// NewWriter returns a writer in the given byte order.
func NewWriter(order binary.ByteOrder) *Writer {
	return &Writer{order: order}
}

// WriteElement appends one element. Numeric data of up to four bytes uses
// the small element format.
func (w *Writer) WriteElement(t DataType, data []byte) {
	var tag [8]byte
	if len(data) <= 4 && t != Matrix && t != Compressed {
		w.order.PutUint32(tag[:], uint32(len(data))<<16|uint32(t))
		copy(tag[4:], data)
		w.buf.Write(tag[:])
		return
	}
	w.order.PutUint32(tag[:], uint32(t))
	w.order.PutUint32(tag[4:], uint32(len(data)))
	w.buf.Write(tag[:])
	w.buf.Write(data)
	if t != Compressed {
		w.buf.Write(make([]byte, (8-len(data)%8)%8))
	}
}

// Bytes returns the encoded elements.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Order returns the writer's byte order.
func (w *Writer) Order() binary.ByteOrder {
	return w.order
}

// Inflate decompresses the body of a miCOMPRESSED element. Bodies larger
// than filter.MaxInflatedSize are malformed.
func Inflate(data []byte) ([]byte, error) {
	return inflate(data, filter.MaxInflatedSize)
}

func inflate(data []byte, limit int64) ([]byte, error) {
	out, err := filter.InflateLimit(data, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: compressed element: %w", ErrMalformed, err)
	}
	return out, nil
}

// Deflate compresses data for a miCOMPRESSED element.
func Deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
