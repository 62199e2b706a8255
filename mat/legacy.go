package mat

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/mat5"
)

func decodeLegacy(data []byte, o decodeOptions) (*File, error) {
	h, err := mat5.ReadHeader(data)
	if err != nil {
		return nil, err
	}
	if h.Version != mat5.Version5 {
		return nil, fmt.Errorf("%w: header version 0x%04x", ErrUnsupportedVersion, h.Version)
	}

	f := &File{Encoding: EncodingLegacy, Header: h.Text}
	r := mat5.NewReader(data[mat5.HeaderSize:], h.ByteOrder)
	for r.More() {
		e, err := r.Next()
		if err != nil {
			return nil, err
		}
		if e.Type == mat5.Compressed {
			body, err := mat5.Inflate(e.Data)
			if err != nil {
				return nil, err
			}
			if err := f.readElements(mat5.NewReader(body, h.ByteOrder), h.ByteOrder, o); err != nil {
				return nil, err
			}
			continue
		}
		if err := f.addElement(e, h.ByteOrder, o); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *File) readElements(r *mat5.Reader, order binary.ByteOrder, o decodeOptions) error {
	for r.More() {
		e, err := r.Next()
		if err != nil {
			return err
		}
		if err := f.addElement(e, order, o); err != nil {
			return err
		}
	}
	return nil
}

// addElement appends a top-level miMATRIX. Other elements, unnamed
// arrays such as subsystem data and variables o does not want are
// skipped.
func (f *File) addElement(e mat5.Element, order binary.ByteOrder, o decodeOptions) error {
	if e.Type != mat5.Matrix {
		return nil
	}
	p := matrixParser{order: order}
	if len(o.names) > 0 {
		name, err := p.name(e.Data)
		if err != nil {
			return err
		}
		if !o.wants(name) {
			return nil
		}
	}
	name, v, flags, err := p.parse(e.Data, 0)
	if err != nil {
		return err
	}
	if name == "" {
		return nil
	}
	f.Variables = append(f.Variables, Variable{Name: name, Value: v, Global: flags.Global})
	return nil
}

type matrixParser struct {
	order binary.ByteOrder
}

// parse decodes the body of a miMATRIX element.
func (p matrixParser) parse(data []byte, depth int) (string, Value, mat5.ArrayFlags, error) {
	var flags mat5.ArrayFlags
	if depth > maxDepth {
		return "", nil, flags, fmt.Errorf("%w: arrays nested deeper than %d", mat5.ErrMalformed, maxDepth)
	}
	if len(data) == 0 {
		return "", &Numeric{Class: ClassDouble, Dimensions: []int{0, 0}}, flags, nil
	}

	r := mat5.NewReader(data, p.order)
	e, err := r.Next()
	if err != nil {
		return "", nil, flags, err
	}
	if flags, err = mat5.ParseArrayFlags(e, p.order); err != nil {
		return "", nil, flags, err
	}
	class := Class(flags.Class)

	// Opaque arrays have no dimensions element.
	if class == ClassOpaque {
		name, err := p.text(r)
		return name, &Opaque{Class: class.String(), Dimensions: []int{1, 1}}, flags, err
	}

	if e, err = r.Next(); err != nil {
		return "", nil, flags, err
	}
	dims, err := mat5.Ints(e, p.order)
	if err != nil {
		return "", nil, flags, err
	}
	if len(dims) < 2 {
		return "", nil, flags, fmt.Errorf("%w: %d dimensions", mat5.ErrMalformed, len(dims))
	}
	if NumElements(dims) < 0 {
		return "", nil, flags, fmt.Errorf("%w: dimensions %v overflow", mat5.ErrMalformed, dims)
	}
	name, err := p.text(r)
	if err != nil {
		return "", nil, flags, err
	}

	var v Value
	switch {
	case class.IsNumeric():
		v, err = p.numeric(r, class, dims, flags)
	case class == ClassChar:
		v, err = p.char(r, dims)
	case class == ClassStruct:
		v, err = p.structArray(r, dims, depth)
	case class == ClassCell:
		v, err = p.cell(r, dims, depth)
	case class == ClassObject:
		var className string
		className, err = p.text(r)
		v = &Opaque{Class: className, Dimensions: dims}
	case class == ClassSparse || class == ClassFunction:
		v = &Opaque{Class: class.String(), Dimensions: dims}
	default:
		err = fmt.Errorf("%w: array class %d", mat5.ErrMalformed, flags.Class)
	}
	if err != nil {
		if name != "" {
			err = fmt.Errorf("%s: %w", name, err)
		}
		return "", nil, flags, err
	}
	return name, v, flags, nil
}

// name reads the array name of a miMATRIX body without decoding its
// contents.
func (p matrixParser) name(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	r := mat5.NewReader(data, p.order)
	e, err := r.Next()
	if err != nil {
		return "", err
	}
	flags, err := mat5.ParseArrayFlags(e, p.order)
	if err != nil {
		return "", err
	}
	if Class(flags.Class) != ClassOpaque {
		if _, err := r.Next(); err != nil {
			return "", err
		}
	}
	return p.text(r)
}

// text reads an miINT8 element as a string.
func (p matrixParser) text(r *mat5.Reader) (string, error) {
	e, err := r.Next()
	if err != nil {
		return "", err
	}
	return string(e.Data), nil
}

func (p matrixParser) numeric(r *mat5.Reader, class Class, dims []int, flags mat5.ArrayFlags) (*Numeric, error) {
	n := NumElements(dims)
	v := &Numeric{Class: class, Dimensions: dims, Logical: flags.Logical}
	var err error
	if v.Real, err = p.samples(r, n); err != nil {
		return nil, err
	}
	if flags.Complex {
		if v.Imag, err = p.samples(r, n); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// samples reads the next element as exactly n numbers.
func (p matrixParser) samples(r *mat5.Reader, n int) ([]float64, error) {
	if n == 0 && !r.More() {
		return []float64{}, nil
	}
	e, err := r.Next()
	if err != nil {
		return nil, err
	}
	values, err := mat5.Float64s(e, p.order)
	if err != nil {
		return nil, err
	}
	if len(values) != n {
		return nil, fmt.Errorf("%w: %d values for %d elements", mat5.ErrMalformed, len(values), n)
	}
	return values, nil
}

func (p matrixParser) char(r *mat5.Reader, dims []int) (*Char, error) {
	n := NumElements(dims)
	if n == 0 && !r.More() {
		return &Char{Dimensions: dims, Data: []rune{}}, nil
	}
	e, err := r.Next()
	if err != nil {
		return nil, err
	}
	data, err := mat5.Text(e, p.order)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, fmt.Errorf("%w: %d characters for %d elements", mat5.ErrMalformed, len(data), n)
	}
	return &Char{Dimensions: dims, Data: data}, nil
}

func (p matrixParser) structArray(r *mat5.Reader, dims []int, depth int) (*Struct, error) {
	e, err := r.Next()
	if err != nil {
		return nil, err
	}
	lengths, err := mat5.Ints(e, p.order)
	if err != nil {
		return nil, err
	}
	if len(lengths) != 1 || lengths[0] == 0 {
		return nil, fmt.Errorf("%w: field name length %v", mat5.ErrMalformed, lengths)
	}
	width := lengths[0]
	if e, err = r.Next(); err != nil {
		return nil, err
	}
	if len(e.Data)%width != 0 {
		return nil, fmt.Errorf("%w: %d bytes of field names of width %d", mat5.ErrMalformed, len(e.Data), width)
	}
	fields := make([]string, len(e.Data)/width)
	for i := range fields {
		raw := e.Data[i*width : (i+1)*width]
		if end := bytes.IndexByte(raw, 0); end >= 0 {
			raw = raw[:end]
		}
		fields[i] = string(raw)
	}

	n := NumElements(dims)
	switch {
	case len(fields) == 0 && n > maxFieldlessElements:
		return nil, fmt.Errorf("%w: %d elements of a struct without fields", mat5.ErrMalformed, n)
	case len(fields) > 0 && n > r.Len()/8/len(fields):
		return nil, fmt.Errorf("%w: %d struct elements do not fit in %d bytes", mat5.ErrTruncated, n, r.Len())
	}
	s := &Struct{Dimensions: dims, Fields: fields, Elements: make([]map[string]Value, n)}
	for i := range s.Elements {
		elem := make(map[string]Value, len(fields))
		for _, field := range fields {
			v, err := p.child(r, depth)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", field, err)
			}
			elem[field] = v
		}
		s.Elements[i] = elem
	}
	return s, nil
}

func (p matrixParser) cell(r *mat5.Reader, dims []int, depth int) (*Cell, error) {
	n := NumElements(dims)
	if n > r.Len()/8 {
		return nil, fmt.Errorf("%w: %d cells do not fit in %d bytes", mat5.ErrTruncated, n, r.Len())
	}
	c := &Cell{Dimensions: dims, Elements: make([]Value, n)}
	for i := range c.Elements {
		v, err := p.child(r, depth)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		c.Elements[i] = v
	}
	return c, nil
}

// child reads a nested miMATRIX element.
func (p matrixParser) child(r *mat5.Reader, depth int) (Value, error) {
	e, err := r.Next()
	if err != nil {
		return nil, err
	}
	if e.Type != mat5.Matrix {
		return nil, fmt.Errorf("%w: %s where an array was expected", mat5.ErrMalformed, e.Type)
	}
	_, v, _, err := p.parse(e.Data, depth+1)
	return v, err
}
