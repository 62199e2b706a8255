package mat5

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"
	"unicode/utf8"
)

// Float64s converts a numeric element to float64 values.
func Float64s(e Element, order binary.ByteOrder) ([]float64, error) {
	size := e.Type.Size()
	if size == 0 || e.Type == UTF8 || e.Type == UTF16 || e.Type == UTF32 {
		return nil, fmt.Errorf("%w: %s is not numeric", ErrMalformed, e.Type)
	}
	if len(e.Data)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes of %s", ErrMalformed, len(e.Data), e.Type)
	}
	out := make([]float64, len(e.Data)/size)
	d := e.Data
	for i := range out {
		b := d[i*size:]
		switch e.Type {
		case Int8:
			out[i] = float64(int8(b[0]))
		case Uint8:
			out[i] = float64(b[0])
		case Int16:
			out[i] = float64(int16(order.Uint16(b)))
		case Uint16:
			out[i] = float64(order.Uint16(b))
		case Int32:
			out[i] = float64(int32(order.Uint32(b)))
		case Uint32:
			out[i] = float64(order.Uint32(b))
		case Single:
			out[i] = float64(math.Float32frombits(order.Uint32(b)))
		case Double:
			out[i] = math.Float64frombits(order.Uint64(b))
		case Int64:
			out[i] = float64(int64(order.Uint64(b)))
		case Uint64:
			out[i] = float64(order.Uint64(b))
		}
	}
	return out, nil
}

// Ints converts a numeric element to ints, as used for dimensions.
func Ints(e Element, order binary.ByteOrder) ([]int, error) {
	values, err := Float64s(e, order)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(values))
	for i, v := range values {
		if v < 0 || v != math.Trunc(v) || v >= math.MaxInt {
			return nil, fmt.Errorf("%w: dimension %v", ErrMalformed, v)
		}
		out[i] = int(v)
	}
	return out, nil
}

// EncodeFloat64s converts values to element type t. Integer types round
// to nearest and saturate at their range.
func EncodeFloat64s(t DataType, values []float64, order binary.ByteOrder) ([]byte, error) {
	size := t.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: cannot encode numbers as %s", ErrMalformed, t)
	}
	out := make([]byte, len(values)*size)
	for i, v := range values {
		b := out[i*size:]
		switch t {
		case Int8:
			b[0] = byte(int8(clamp(v, math.MinInt8, math.MaxInt8)))
		case Uint8, UTF8:
			b[0] = byte(clamp(v, 0, math.MaxUint8))
		case Int16:
			order.PutUint16(b, uint16(int16(clamp(v, math.MinInt16, math.MaxInt16))))
		case Uint16, UTF16:
			order.PutUint16(b, uint16(clamp(v, 0, math.MaxUint16)))
		case Int32:
			order.PutUint32(b, uint32(int32(clamp(v, math.MinInt32, math.MaxInt32))))
		case Uint32, UTF32:
			order.PutUint32(b, uint32(clamp(v, 0, math.MaxUint32)))
		case Single:
			order.PutUint32(b, math.Float32bits(float32(v)))
		case Double:
			order.PutUint64(b, math.Float64bits(v))
		case Int64:
			switch r := math.Round(v); {
			case math.IsNaN(r):
			case r >= math.MaxInt64:
				order.PutUint64(b, math.MaxInt64)
			case r <= math.MinInt64:
				order.PutUint64(b, 1<<63)
			default:
				order.PutUint64(b, uint64(int64(r)))
			}
		case Uint64:
			switch r := math.Round(v); {
			case math.IsNaN(r) || r <= 0:
			case r >= math.MaxUint64:
				order.PutUint64(b, math.MaxUint64)
			default:
				order.PutUint64(b, uint64(r))
			}
		}
	}
	return out, nil
}

// clamp rounds v and limits it to [lo, hi]. NaN becomes 0.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, math.Round(v)))
}

// Text decodes character data. UTF-8 and UTF-16 elements are decoded as
// such; other integer types hold one code unit per character.
func Text(e Element, order binary.ByteOrder) ([]rune, error) {
	switch e.Type {
	case UTF8:
		if !utf8.Valid(e.Data) {
			return nil, fmt.Errorf("%w: invalid UTF-8 character data", ErrMalformed)
		}
		return []rune(string(e.Data)), nil
	case UTF16:
		if len(e.Data)%2 != 0 {
			return nil, fmt.Errorf("%w: odd UTF-16 character data", ErrMalformed)
		}
		units := make([]uint16, len(e.Data)/2)
		for i := range units {
			units[i] = order.Uint16(e.Data[2*i:])
		}
		return utf16.Decode(units), nil
	case UTF32:
		e.Type = Uint32
	}
	values, err := Float64s(e, order)
	if err != nil {
		return nil, err
	}
	out := make([]rune, len(values))
	for i, v := range values {
		out[i] = rune(v)
	}
	return out, nil
}
