package mat

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/robert-malhotra/mat2img/hdf5"
	"github.com/robert-malhotra/mat2img/internal/mat5"
	"github.com/robert-malhotra/mat2img/internal/message"
)

// Attributes MATLAB attaches to v7.3 variables.
const (
	attrClass     = "MATLAB_class"
	attrEmpty     = "MATLAB_empty"
	attrIntDecode = "MATLAB_int_decode"
	attrFields    = "MATLAB_fields"
)

func decodeV73(data []byte, o decodeOptions) (*File, error) {
	hf, err := hdf5.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer hf.Close()

	f := &File{Encoding: EncodingHierarchicalV73}
	if hf.UserBlockSize() >= mat5.HeaderSize {
		if h, err := mat5.ReadHeader(data); err == nil {
			f.Header = h.Text
		}
	}

	root := hf.Root()
	names, err := root.Members()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if hidden(name) || !o.wants(name) {
			continue
		}
		v, err := readObject(root, name, 0)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		f.Variables = append(f.Variables, Variable{Name: name, Value: v})
	}
	return f, nil
}

// hidden reports whether a member is MATLAB bookkeeping such as #refs#.
func hidden(name string) bool {
	return strings.HasPrefix(name, "#")
}

type attrSource interface {
	Attr(name string) (*hdf5.Attribute, error)
}

// stringAttr returns a string attribute, or "" when it is absent.
func stringAttr(obj attrSource, name string) (string, error) {
	a, err := obj.Attr(name)
	if errors.Is(err, hdf5.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return a.ReadString()
}

// intAttr returns the first value of a numeric attribute, or 0.
func intAttr(obj attrSource, name string) (int64, error) {
	a, err := obj.Attr(name)
	if errors.Is(err, hdf5.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return a.ReadInt()
}

func readObject(parent *hdf5.Group, name string, depth int) (Value, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: groups nested deeper than %d", ErrUnsupported, maxDepth)
	}
	obj, err := parent.Open(name)
	if err != nil {
		return nil, err
	}
	switch obj := obj.(type) {
	case *hdf5.Group:
		return readGroup(obj, depth)
	case *hdf5.Dataset:
		return readDataset(obj)
	}
	return nil, fmt.Errorf("%w: object of type %T", ErrUnsupported, obj)
}

// readGroup decodes a 1x1 struct. Groups of other classes, such as
// objects, are opaque.
func readGroup(g *hdf5.Group, depth int) (Value, error) {
	class, err := stringAttr(g, attrClass)
	if err != nil {
		return nil, err
	}
	if class != "" && class != "struct" {
		return &Opaque{Class: class, Dimensions: []int{1, 1}}, nil
	}

	members, err := g.Members()
	if err != nil {
		return nil, err
	}
	var fields []string
	if a, err := g.Attr(attrFields); err == nil {
		if fields, err = a.ReadStrings(); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, hdf5.ErrNotFound) {
		return nil, err
	}
	fields = slices.DeleteFunc(fields, func(f string) bool { return !slices.Contains(members, f) })
	for _, m := range members {
		if !hidden(m) && !slices.Contains(fields, m) {
			fields = append(fields, m)
		}
	}

	elem := make(map[string]Value, len(fields))
	for _, field := range fields {
		v, err := readObject(g, field, depth+1)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		elem[field] = v
	}
	return &Struct{Dimensions: []int{1, 1}, Fields: fields, Elements: []map[string]Value{elem}}, nil
}

// matlabDims converts an HDF5 shape, slowest first, to MATLAB dimensions.
func matlabDims(shape []uint64) ([]int, error) {
	dims := make([]int, len(shape), max(len(shape), 2))
	for i, d := range shape {
		if d > math.MaxInt {
			return nil, fmt.Errorf("%w: dimension %d", ErrUnsupported, d)
		}
		dims[len(shape)-1-i] = int(d)
	}
	for len(dims) < 2 {
		dims = append(dims, 1)
	}
	if NumElements(dims) < 0 {
		return nil, fmt.Errorf("%w: dimensions %v overflow", ErrUnsupported, dims)
	}
	return dims, nil
}

func readDataset(ds *hdf5.Dataset) (Value, error) {
	className, err := stringAttr(ds, attrClass)
	if err != nil {
		return nil, err
	}
	dt := ds.Datatype()
	class, known := ParseClass(className)
	if className == "" {
		class, known = inferClass(dt)
	}
	dims, err := matlabDims(ds.Shape())
	if err != nil {
		return nil, err
	}

	empty, err := intAttr(ds, attrEmpty)
	if err != nil {
		return nil, err
	}
	if empty != 0 {
		return emptyValue(ds, className, class)
	}

	switch {
	case dt.Class == message.ClassReference || class == ClassCell:
		return &Opaque{Class: "cell", Dimensions: dims}, nil
	case className == "logical":
		values, err := ds.ReadFloat64()
		if err != nil {
			return nil, err
		}
		return &Numeric{Class: ClassUint8, Dimensions: dims, Real: values, Logical: true}, nil
	case class == ClassChar:
		values, err := ds.ReadFloat64()
		if err != nil {
			return nil, err
		}
		data := make([]rune, len(values))
		for i, v := range values {
			data[i] = rune(v)
		}
		return &Char{Dimensions: dims, Data: data}, nil
	case known && class.IsNumeric():
		v := &Numeric{Class: class, Dimensions: dims}
		if ds.IsComplex() {
			v.Real, v.Imag, err = ds.ReadComplex()
		} else {
			v.Real, err = ds.ReadFloat64()
		}
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	return &Opaque{Class: className, Dimensions: dims}, nil
}

// inferClass picks a class for datasets written without MATLAB_class.
func inferClass(dt *message.Datatype) (Class, bool) {
	if dt.Class == message.ClassCompound && len(dt.Members) == 2 {
		dt = dt.Members[0].Type
	}
	switch dt.Class {
	case message.ClassFloatPoint:
		if dt.Size == 4 {
			return ClassSingle, true
		}
		return ClassDouble, true
	case message.ClassFixedPoint:
		classes := map[uint32][2]Class{
			1: {ClassUint8, ClassInt8}, 2: {ClassUint16, ClassInt16},
			4: {ClassUint32, ClassInt32}, 8: {ClassUint64, ClassInt64},
		}
		if c, ok := classes[dt.Size]; ok {
			if dt.Signed {
				return c[1], true
			}
			return c[0], true
		}
	}
	return 0, false
}

// emptyValue decodes an empty array, stored as a vector of its dimensions.
func emptyValue(ds *hdf5.Dataset, className string, class Class) (Value, error) {
	raw, err := ds.ReadFloat64()
	if err != nil {
		return nil, err
	}
	dims := make([]int, len(raw), max(len(raw), 2))
	for i, d := range raw {
		if d < 0 || d >= math.MaxInt || d != math.Trunc(d) {
			return nil, fmt.Errorf("%w: empty array dimension %v", ErrUnsupported, d)
		}
		dims[i] = int(d)
	}
	for len(dims) < 2 {
		dims = append(dims, 0)
	}
	if NumElements(dims) != 0 {
		return nil, fmt.Errorf("%w: empty array with dimensions %v", ErrUnsupported, dims)
	}
	switch {
	case className == "logical":
		return &Numeric{Class: ClassUint8, Dimensions: dims, Real: []float64{}, Logical: true}, nil
	case class == ClassChar:
		return &Char{Dimensions: dims, Data: []rune{}}, nil
	case class == ClassStruct:
		return &Struct{Dimensions: dims}, nil
	case class == ClassCell:
		return &Cell{Dimensions: dims}, nil
	case class.IsNumeric():
		return &Numeric{Class: class, Dimensions: dims, Real: []float64{}}, nil
	}
	return &Opaque{Class: className, Dimensions: dims}, nil
}
