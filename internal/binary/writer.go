package binary

import (
	"encoding/binary"
	"io"
	"math"
)

// Writer writes integers at an explicit position of an io.WriterAt.
// The first write error is kept and every later write becomes a no-op,
// so encoders check Err once at the end.
type Writer struct {
	w          io.WriterAt
	order      binary.ByteOrder
	offsetSize int
	lengthSize int
	pos        int64
	err        error
}

// NewWriter creates a writer positioned at offset zero.
func NewWriter(w io.WriterAt, cfg Config) *Writer {
	if cfg.ByteOrder == nil {
		cfg.ByteOrder = binary.LittleEndian
	}
	return &Writer{
		w:          w,
		order:      cfg.ByteOrder,
		offsetSize: cfg.OffsetSize,
		lengthSize: cfg.LengthSize,
	}
}

// At returns a writer sharing the same destination, positioned at offset.
// The returned writer starts with a clean error state.
func (w *Writer) At(offset int64) *Writer {
	c := *w
	c.pos = offset
	c.err = nil
	return &c
}

// Pos returns the current write position.
func (w *Writer) Pos() int64 {
	return w.pos
}

// Err returns the first error encountered.
func (w *Writer) Err() error {
	return w.err
}

// WriteBytes writes data at the current position.
func (w *Writer) WriteBytes(data []byte) {
	if w.err != nil || len(data) == 0 {
		return
	}
	n, err := w.w.WriteAt(data, w.pos)
	w.pos += int64(n)
	w.err = err
}

// WriteUint8 writes an unsigned 8-bit integer.
func (w *Writer) WriteUint8(v uint8) {
	w.WriteBytes([]byte{v})
}

// WriteUint16 writes an unsigned 16-bit integer.
func (w *Writer) WriteUint16(v uint16) {
	buf := make([]byte, 2)
	w.order.PutUint16(buf, v)
	w.WriteBytes(buf)
}

// WriteUint32 writes an unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) {
	buf := make([]byte, 4)
	w.order.PutUint32(buf, v)
	w.WriteBytes(buf)
}

// WriteInt32 writes a signed 32-bit integer.
func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WriteUint64 writes an unsigned 64-bit integer.
func (w *Writer) WriteUint64(v uint64) {
	buf := make([]byte, 8)
	w.order.PutUint64(buf, v)
	w.WriteBytes(buf)
}

// WriteFloat64 writes an IEEE-754 double.
func (w *Writer) WriteFloat64(v float64) {
	w.WriteUint64(math.Float64bits(v))
}

// WriteUintN writes the low n bytes of v.
func (w *Writer) WriteUintN(v uint64, n int) {
	buf := make([]byte, n)
	EncodeUint(w.order, buf, v)
	w.WriteBytes(buf)
}

// WriteOffset writes a file address using the configured offset size.
func (w *Writer) WriteOffset(v uint64) {
	w.WriteUintN(v, w.offsetSize)
}

// WriteUndefinedOffset writes the all-ones "undefined address".
func (w *Writer) WriteUndefinedOffset() {
	w.WriteOffset(UndefinedValue(w.offsetSize))
}

// WriteLength writes a length using the configured length size.
func (w *Writer) WriteLength(v uint64) {
	w.WriteUintN(v, w.lengthSize)
}

// EncodeUint stores v into buf using len(buf) bytes.
func EncodeUint(order binary.ByteOrder, buf []byte, v uint64) {
	switch len(buf) {
	case 1:
		buf[0] = uint8(v)
	case 2:
		order.PutUint16(buf, uint16(v))
	case 4:
		order.PutUint32(buf, uint32(v))
	case 8:
		order.PutUint64(buf, v)
	default:
		n := len(buf)
		for i := 0; i < n; i++ {
			if order == binary.BigEndian {
				buf[n-1-i] = byte(v >> (8 * i))
			} else {
				buf[i] = byte(v >> (8 * i))
			}
		}
	}
}

// WriteZeros writes n zero bytes.
func (w *Writer) WriteZeros(n int) {
	if n > 0 {
		w.WriteBytes(make([]byte, n))
	}
}

// Pad writes zero bytes up to the next multiple of alignment.
func (w *Writer) Pad(alignment int64) {
	if alignment <= 1 {
		return
	}
	if rem := w.pos % alignment; rem != 0 {
		w.WriteZeros(int(alignment - rem))
	}
}

// OffsetSize returns the configured offset size in bytes.
func (w *Writer) OffsetSize() int {
	return w.offsetSize
}

// LengthSize returns the configured length size in bytes.
func (w *Writer) LengthSize() int {
	return w.lengthSize
}

// ByteOrder returns the configured byte order.
func (w *Writer) ByteOrder() binary.ByteOrder {
	return w.order
}

// Config returns the writer's byte order and field widths.
func (w *Writer) Config() Config {
	return Config{ByteOrder: w.order, OffsetSize: w.offsetSize, LengthSize: w.lengthSize}
}
