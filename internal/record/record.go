// Package record pulls the labeled image out of a decoded MAT-file and
// turns it into an 8-bit grayscale image.
package record

import (
	"math"

	"github.com/robert-malhotra/mat2img/mat"
)

// Field names of the record.
const (
	RecordName = "cjdata"
	ImageField = "image"
	LabelField = "label"
)

// Source is a decoded container.
type Source interface {
	Encoding() mat.Encoding
	Field(path ...string) (mat.Value, error)
}

// Array is an N-dimensional array in row-major order.
type Array struct {
	Shape []int
	Data  []float64
}

// Raw is an extracted record.
type Raw struct {
	Image Array
	Label int
}

// Extract reads the image and label of the record in src.
func Extract(src Source) (*Raw, error) {
	var image, label mat.Value
	switch src.Encoding() {
	case mat.EncodingHierarchicalV73:
		var err error
		if image, err = src.Field(RecordName, ImageField); err != nil {
			return nil, malformed(err, "reading %s.%s", RecordName, ImageField)
		}
		if label, err = src.Field(RecordName, LabelField); err != nil {
			return nil, malformed(err, "reading %s.%s", RecordName, LabelField)
		}
	default:
		v, err := src.Field(RecordName)
		if err != nil {
			return nil, malformed(err, "reading %s", RecordName)
		}
		s, ok := v.(*mat.Struct)
		if !ok {
			return nil, malformed(nil, "%s is %s, not a struct", RecordName, v.ClassName())
		}
		if dims := s.Dims(); len(dims) != 2 || dims[0] != 1 || dims[1] != 1 || len(s.Elements) != 1 {
			return nil, malformed(nil, "%s is a %v struct array, not 1x1", RecordName, dims)
		}
		if image, ok = s.Field(ImageField, 0); !ok {
			return nil, malformed(nil, "%s has no %s field", RecordName, ImageField)
		}
		if label, ok = s.Field(LabelField, 0); !ok {
			return nil, malformed(nil, "%s has no %s field", RecordName, LabelField)
		}
		if dims := label.Dims(); len(dims) < 2 || mat.NumElements(dims) == 0 {
			return nil, malformed(nil, "%s is empty", LabelField)
		}
	}

	img, err := imageArray(image)
	if err != nil {
		return nil, err
	}
	lbl, err := labelValue(label)
	if err != nil {
		return nil, err
	}
	return &Raw{Image: img, Label: lbl}, nil
}

func numeric(v mat.Value, field string) (*mat.Numeric, error) {
	n, ok := v.(*mat.Numeric)
	if !ok {
		return nil, malformed(nil, "%s is %s, not numeric", field, v.ClassName())
	}
	if n.IsComplex() {
		return nil, malformed(nil, "%s is complex", field)
	}
	return n, nil
}

func imageArray(v mat.Value) (Array, error) {
	n, err := numeric(v, ImageField)
	if err != nil {
		return Array{}, err
	}
	shape := append([]int(nil), n.Dimensions...)
	if mat.NumElements(shape) != len(n.Real) {
		return Array{}, malformed(nil, "%s has %d samples for shape %v", ImageField, len(n.Real), shape)
	}
	return Array{Shape: shape, Data: RowMajor(n.Real, shape)}, nil
}

func labelValue(v mat.Value) (int, error) {
	n, err := numeric(v, LabelField)
	if err != nil {
		return 0, err
	}
	if n.Len() == 0 {
		return 0, malformed(nil, "%s is empty", LabelField)
	}
	l := n.Real[0]
	switch {
	case math.IsNaN(l) || math.IsInf(l, 0):
		return 0, malformed(nil, "%s is %v", LabelField, l)
	case l != math.Trunc(l):
		return 0, malformed(nil, "%s %v is not an integer", LabelField, l)
	case l < math.MinInt || l >= math.MaxInt:
		return 0, malformed(nil, "%s %v is out of range", LabelField, l)
	}
	return int(l), nil
}

// RowMajor reorders column-major samples of the given shape into
// row-major order.
func RowMajor(data []float64, shape []int) []float64 {
	out := make([]float64, len(data))
	if len(shape) < 2 {
		copy(out, data)
		return out
	}
	idx := make([]int, len(shape))
	for i := range out {
		// idx counts in row-major order; find its column-major offset.
		src, stride := 0, 1
		for d := range shape {
			src += idx[d] * stride
			stride *= shape[d]
		}
		out[i] = data[src]
		for d := len(shape) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out
}
