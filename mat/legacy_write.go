package mat

import (
	"encoding/binary"
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/mat5"
)

const (
	defaultLegacyHeader = "MATLAB 5.0 MAT-file, written by mat2img"
	fieldNameWidth      = 32
)

// storageTypes maps numeric classes to the element type their samples are
// written as.
var storageTypes = map[Class]mat5.DataType{
	ClassDouble: mat5.Double, ClassSingle: mat5.Single,
	ClassInt8: mat5.Int8, ClassUint8: mat5.Uint8,
	ClassInt16: mat5.Int16, ClassUint16: mat5.Uint16,
	ClassInt32: mat5.Int32, ClassUint32: mat5.Uint32,
	ClassInt64: mat5.Int64, ClassUint64: mat5.Uint64,
}

func encodeLegacy(f *File, o encodeOptions) ([]byte, error) {
	var order binary.ByteOrder = binary.LittleEndian
	if o.bigEndian {
		order = binary.BigEndian
	}
	text := f.Header
	if text == "" {
		text = defaultLegacyHeader
	}
	h := mat5.Header{Text: text, Version: mat5.Version5, ByteOrder: order}

	out := mat5.NewWriter(order)
	for _, v := range f.Variables {
		if v.Name == "" {
			return nil, fmt.Errorf("%w: variable without a name", ErrUnsupported)
		}
		if !o.compress {
			if err := writeMatrix(out, v.Name, v.Value, v.Global, 0); err != nil {
				return nil, fmt.Errorf("%s: %w", v.Name, err)
			}
			continue
		}
		m := mat5.NewWriter(order)
		if err := writeMatrix(m, v.Name, v.Value, v.Global, 0); err != nil {
			return nil, fmt.Errorf("%s: %w", v.Name, err)
		}
		z, err := mat5.Deflate(m.Bytes())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", v.Name, err)
		}
		out.WriteElement(mat5.Compressed, z)
	}
	return append(h.Encode(), out.Bytes()...), nil
}

// writeMatrix appends v to w as a complete miMATRIX element.
func writeMatrix(w *mat5.Writer, name string, v Value, global bool, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: arrays nested deeper than %d", ErrUnsupported, maxDepth)
	}
	order := w.Order()
	body := mat5.NewWriter(order)
	flags := mat5.ArrayFlags{Global: global}

	writeHead := func(dims []int) error {
		body.WriteElement(mat5.Uint32, flags.Encode(order))
		d := make([]float64, len(dims))
		for i, n := range dims {
			d[i] = float64(n)
		}
		raw, err := mat5.EncodeFloat64s(mat5.Int32, d, order)
		if err != nil {
			return err
		}
		body.WriteElement(mat5.Int32, raw)
		body.WriteElement(mat5.Int8, []byte(name))
		return nil
	}
	if err := checkDims(v); err != nil {
		return err
	}

	switch v := v.(type) {
	case *Numeric:
		t, ok := storageTypes[v.Class]
		if !ok {
			return fmt.Errorf("%w: numeric class %s", ErrUnsupported, v.Class)
		}
		if len(v.Real) != NumElements(v.Dimensions) || (v.Imag != nil && len(v.Imag) != len(v.Real)) {
			return fmt.Errorf("%w: %d values for dimensions %v", ErrUnsupported, len(v.Real), v.Dimensions)
		}
		flags.Class, flags.Complex, flags.Logical = mat5.Class(v.Class), v.IsComplex(), v.Logical
		if err := writeHead(v.Dimensions); err != nil {
			return err
		}
		for _, part := range [][]float64{v.Real, v.Imag} {
			if part == nil {
				continue
			}
			raw, err := mat5.EncodeFloat64s(t, part, order)
			if err != nil {
				return err
			}
			body.WriteElement(t, raw)
		}
	case *Char:
		if len(v.Data) != NumElements(v.Dimensions) {
			return fmt.Errorf("%w: %d characters for dimensions %v", ErrUnsupported, len(v.Data), v.Dimensions)
		}
		flags.Class = mat5.ClassChar
		if err := writeHead(v.Dimensions); err != nil {
			return err
		}
		units := make([]float64, len(v.Data))
		for i, c := range v.Data {
			if c > 0xFFFF {
				return fmt.Errorf("%w: character %U outside the basic plane", ErrUnsupported, c)
			}
			units[i] = float64(c)
		}
		raw, err := mat5.EncodeFloat64s(mat5.Uint16, units, order)
		if err != nil {
			return err
		}
		body.WriteElement(mat5.Uint16, raw)
	case *Struct:
		if len(v.Elements) != NumElements(v.Dimensions) {
			return fmt.Errorf("%w: %d struct elements for dimensions %v", ErrUnsupported, len(v.Elements), v.Dimensions)
		}
		flags.Class = mat5.ClassStruct
		if err := writeHead(v.Dimensions); err != nil {
			return err
		}
		width, _ := mat5.EncodeFloat64s(mat5.Int32, []float64{fieldNameWidth}, order)
		body.WriteElement(mat5.Int32, width)
		names := make([]byte, fieldNameWidth*len(v.Fields))
		for i, field := range v.Fields {
			if len(field) == 0 || len(field) >= fieldNameWidth {
				return fmt.Errorf("%w: field name %q", ErrUnsupported, field)
			}
			copy(names[i*fieldNameWidth:], field)
		}
		body.WriteElement(mat5.Int8, names)
		for _, elem := range v.Elements {
			for _, field := range v.Fields {
				fv, ok := elem[field]
				if !ok {
					fv = &Numeric{Class: ClassDouble, Dimensions: []int{0, 0}}
				}
				if err := writeMatrix(body, "", fv, false, depth+1); err != nil {
					return fmt.Errorf("field %s: %w", field, err)
				}
			}
		}
	case *Cell:
		if len(v.Elements) != NumElements(v.Dimensions) {
			return fmt.Errorf("%w: %d cells for dimensions %v", ErrUnsupported, len(v.Elements), v.Dimensions)
		}
		flags.Class = mat5.ClassCell
		if err := writeHead(v.Dimensions); err != nil {
			return err
		}
		for i, cv := range v.Elements {
			if err := writeMatrix(body, "", cv, false, depth+1); err != nil {
				return fmt.Errorf("cell %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("%w: cannot write %s arrays", ErrUnsupported, v.ClassName())
	}
	w.WriteElement(mat5.Matrix, body.Bytes())
	return nil
}

// checkDims rejects arrays with fewer than two dimensions.
func checkDims(v Value) error {
	if v == nil {
		return fmt.Errorf("%w: nil value", ErrUnsupported)
	}
	if dims := v.Dims(); len(dims) < 2 {
		return fmt.Errorf("%w: dimensions %v", ErrUnsupported, dims)
	}
	return nil
}
