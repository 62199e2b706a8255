package dtype

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	binpkg "github.com/robert-malhotra/mat2img/internal/binary"
	"github.com/robert-malhotra/mat2img/internal/heap"
	"github.com/robert-malhotra/mat2img/internal/message"
)

// ErrUnsupported is returned for datatypes this package cannot convert.
var ErrUnsupported = errors.New("unsupported datatype")

// ByteOrder returns the byte order of dt.
func ByteOrder(dt *message.Datatype) binary.ByteOrder {
	if dt.ByteOrder == message.OrderBE {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func need(dt *message.Datatype, data []byte, n int) error {
	if !fits(len(data), n, int(dt.Size)) {
		return fmt.Errorf("%d bytes for %d elements of %s", len(data), n, dt)
	}
	return nil
}

// fits reports whether n elements of size bytes fit in length bytes.
func fits(length, n, size int) bool {
	switch {
	case n < 0:
		return false
	case n == 0 || size == 0:
		return true
	}
	return n <= length/size
}

// Float64s decodes n integer or float elements.
func Float64s(dt *message.Datatype, data []byte, n int) ([]float64, error) {
	if dt.Class == message.ClassEnum && dt.Base != nil {
		return Float64s(dt.Base, data, n)
	}
	if err := need(dt, data, n); err != nil {
		return nil, err
	}
	order := ByteOrder(dt)
	size := int(dt.Size)
	out := make([]float64, n)

	switch dt.Class {
	case message.ClassFixedPoint, message.ClassBitfield:
		if size != 1 && size != 2 && size != 4 && size != 8 {
			return nil, fmt.Errorf("%w: %d-byte integer", ErrUnsupported, size)
		}
		for i := range out {
			out[i] = decodeInt(order, data[i*size:(i+1)*size], dt.Signed)
		}
	case message.ClassFloatPoint:
		switch size {
		case 4:
			for i := range out {
				out[i] = float64(math.Float32frombits(order.Uint32(data[i*4:])))
			}
		case 8:
			for i := range out {
				out[i] = math.Float64frombits(order.Uint64(data[i*8:]))
			}
		default:
			return nil, fmt.Errorf("%w: %d-byte float", ErrUnsupported, size)
		}
	default:
		return nil, fmt.Errorf("%w: %s is not numeric", ErrUnsupported, dt)
	}
	return out, nil
}

func decodeInt(order binary.ByteOrder, b []byte, signed bool) float64 {
	u := binpkg.DecodeUint(order, b)
	if !signed {
		return float64(u)
	}
	shift := 64 - 8*uint(len(b))
	return float64(int64(u<<shift) >> shift)
}

// Complex decodes n compound elements with "real" and "imag" members.
func Complex(dt *message.Datatype, data []byte, n int) (re, im []float64, err error) {
	if dt.Class != message.ClassCompound {
		return nil, nil, fmt.Errorf("%w: %s is not a complex compound", ErrUnsupported, dt)
	}
	realMember, ok1 := dt.Member("real")
	imagMember, ok2 := dt.Member("imag")
	if !ok1 || !ok2 {
		return nil, nil, fmt.Errorf("%w: compound without real and imag members", ErrUnsupported)
	}
	if err := need(dt, data, n); err != nil {
		return nil, nil, err
	}
	if re, err = member(dt, realMember, data, n); err != nil {
		return nil, nil, err
	}
	if im, err = member(dt, imagMember, data, n); err != nil {
		return nil, nil, err
	}
	return re, im, nil
}

func member(dt *message.Datatype, m message.CompoundMember, data []byte, n int) ([]float64, error) {
	size, msize := int(dt.Size), int(m.Type.Size)
	if int(m.ByteOffset)+msize > size {
		return nil, fmt.Errorf("%w: member %q overruns its compound", ErrUnsupported, m.Name)
	}
	packed := make([]byte, 0, n*msize)
	for i := 0; i < n; i++ {
		start := i*size + int(m.ByteOffset)
		packed = append(packed, data[start:start+msize]...)
	}
	return Float64s(m.Type, packed, n)
}

// Strings decodes n fixed-length strings, trimming padding.
func Strings(dt *message.Datatype, data []byte, n int) ([]string, error) {
	if dt.Class != message.ClassString {
		return nil, fmt.Errorf("%w: %s is not a fixed-length string", ErrUnsupported, dt)
	}
	if err := need(dt, data, n); err != nil {
		return nil, err
	}
	size := int(dt.Size)
	out := make([]string, n)
	for i := range out {
		s := string(data[i*size : (i+1)*size])
		switch dt.StringPadding {
		case message.PadSpacePad:
			s = strings.TrimRight(s, " ")
		default:
			if j := strings.IndexByte(s, 0); j >= 0 {
				s = s[:j]
			}
		}
		out[i] = s
	}
	return out, nil
}

// VarLenRef is one variable-length element: its length in base elements
// and where the bytes live.
type VarLenRef struct {
	Length uint32
	ID     heap.GlobalHeapID
}

// VarLenSize returns the stored size of a variable-length element.
func VarLenSize(cfg binpkg.Config) int {
	return 4 + cfg.OffsetSize + 4
}

// VarLenRefs decodes n variable-length elements.
func VarLenRefs(dt *message.Datatype, data []byte, n int, cfg binpkg.Config) ([]VarLenRef, error) {
	if dt.Class != message.ClassVarLen {
		return nil, fmt.Errorf("%w: %s is not variable-length", ErrUnsupported, dt)
	}
	size := VarLenSize(cfg)
	if !fits(len(data), n, size) {
		return nil, fmt.Errorf("%d bytes for %d variable-length elements", len(data), n)
	}
	out := make([]VarLenRef, n)
	for i := range out {
		elem := data[i*size : (i+1)*size]
		id, err := heap.ParseGlobalHeapID(elem[4:], cfg)
		if err != nil {
			return nil, err
		}
		out[i] = VarLenRef{Length: cfg.ByteOrder.Uint32(elem), ID: id}
	}
	return out, nil
}
