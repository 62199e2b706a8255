package record

import (
	"fmt"
	"image"
	"math"
	"strings"
)

// ConstantPolicy decides what happens to an image whose samples are all
// equal.
type ConstantPolicy string

const (
	// PolicyZero maps a constant image to all zeros.
	PolicyZero ConstantPolicy = "zero"
	// PolicyReject fails with ErrDegenerateRange.
	PolicyReject ConstantPolicy = "reject"
)

func (p *ConstantPolicy) UnmarshalText(text []byte) error {
	switch v := ConstantPolicy(strings.ToLower(string(text))); v {
	case PolicyZero, PolicyReject:
		*p = v
		return nil
	}
	return fmt.Errorf("unknown constant policy %q", text)
}

func (p ConstantPolicy) String() string {
	return string(p)
}

type NormalizeOptions struct {
	Policy ConstantPolicy
}

// Squeeze drops a trailing singleton third dimension.
func Squeeze(a Array) Array {
	if len(a.Shape) == 3 && a.Shape[2] == 1 {
		return Array{Shape: a.Shape[:2:2], Data: a.Data}
	}
	return a
}

// Normalize min-max scales a two-dimensional array to 8-bit grayscale.
// Non-finite samples map to 0 and are ignored when finding the range.
// Empty arrays and shapes that disagree with the sample count fail with
// ErrUnexpectedShape.
func Normalize(a Array, opts NormalizeOptions) (*image.Gray, error) {
	a = Squeeze(a)
	if len(a.Shape) != 2 {
		return nil, &NormalizeError{Kind: ErrUnexpectedShape, Shape: a.Shape}
	}
	h, w := a.Shape[0], a.Shape[1]
	if h <= 0 || w <= 0 || h > len(a.Data)/w || h*w != len(a.Data) {
		return nil, &NormalizeError{Kind: ErrUnexpectedShape, Shape: a.Shape}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range a.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	img := image.NewGray(image.Rect(0, 0, w, h))
	if !(hi > lo) {
		if opts.Policy == PolicyReject {
			return nil, &NormalizeError{Kind: ErrDegenerateRange, Shape: a.Shape}
		}
		return img, nil
	}

	for y := range h {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for x, v := range a.Data[y*w : (y+1)*w] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			row[x] = uint8(math.Max(0, math.Min(255, math.Round((v-lo)/(hi-lo)*255))))
		}
	}
	return img, nil
}
