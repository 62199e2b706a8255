package dtype

import (
	"fmt"
	"math"

	binpkg "github.com/robert-malhotra/mat2img/internal/binary"
	"github.com/robert-malhotra/mat2img/internal/message"
)

// EncodeFloat64s converts values to the element type dt, in dt's byte
// order. Integer targets round to nearest and saturate at their range.
func EncodeFloat64s(dt *message.Datatype, values []float64) ([]byte, error) {
	size := int(dt.Size)
	order := ByteOrder(dt)
	out := make([]byte, len(values)*size)

	switch dt.Class {
	case message.ClassFixedPoint:
		if size != 1 && size != 2 && size != 4 && size != 8 {
			return nil, fmt.Errorf("%w: %d-byte integer", ErrUnsupported, size)
		}
		for i, v := range values {
			binpkg.EncodeUint(order, out[i*size:(i+1)*size], saturate(v, size, dt.Signed))
		}
	case message.ClassFloatPoint:
		switch size {
		case 4:
			for i, v := range values {
				order.PutUint32(out[i*4:], math.Float32bits(float32(v)))
			}
		case 8:
			for i, v := range values {
				order.PutUint64(out[i*8:], math.Float64bits(v))
			}
		default:
			return nil, fmt.Errorf("%w: %d-byte float", ErrUnsupported, size)
		}
	default:
		return nil, fmt.Errorf("%w: cannot encode numbers as %s", ErrUnsupported, dt)
	}
	return out, nil
}

// saturate rounds v and clamps it to the range of a size-byte integer,
// returning the two's complement bit pattern.
func saturate(v float64, size int, signed bool) uint64 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v)
	bits := uint(8 * size)
	if signed {
		lo := -math.Ldexp(1, int(bits)-1)
		hi := math.Ldexp(1, int(bits)-1) - 1
		switch {
		case v <= lo:
			return uint64(1) << (bits - 1)
		case v >= hi:
			return uint64(1)<<(bits-1) - 1
		}
		return uint64(int64(v))
	}
	hi := math.Ldexp(1, int(bits)) - 1
	switch {
	case v <= 0:
		return 0
	case v >= hi:
		if bits == 64 {
			return math.MaxUint64
		}
		return uint64(1)<<bits - 1
	}
	return uint64(v)
}

// EncodeComplex interleaves real and imaginary parts as a compound of two
// members of type part.
func EncodeComplex(part *message.Datatype, re, im []float64) ([]byte, error) {
	if len(re) != len(im) {
		return nil, fmt.Errorf("real part has %d elements, imaginary %d", len(re), len(im))
	}
	reBytes, err := EncodeFloat64s(part, re)
	if err != nil {
		return nil, err
	}
	imBytes, err := EncodeFloat64s(part, im)
	if err != nil {
		return nil, err
	}
	size := int(part.Size)
	out := make([]byte, 0, 2*len(reBytes))
	for i := range re {
		out = append(out, reBytes[i*size:(i+1)*size]...)
		out = append(out, imBytes[i*size:(i+1)*size]...)
	}
	return out, nil
}
