package mat

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Class is a MATLAB array class. The values match the class codes of
// level 5 files.
type Class uint8

const (
	ClassCell     Class = 1
	ClassStruct   Class = 2
	ClassObject   Class = 3
	ClassChar     Class = 4
	ClassSparse   Class = 5
	ClassDouble   Class = 6
	ClassSingle   Class = 7
	ClassInt8     Class = 8
	ClassUint8    Class = 9
	ClassInt16    Class = 10
	ClassUint16   Class = 11
	ClassInt32    Class = 12
	ClassUint32   Class = 13
	ClassInt64    Class = 14
	ClassUint64   Class = 15
	ClassFunction Class = 16
	ClassOpaque   Class = 17
)

var classNames = map[Class]string{
	ClassCell: "cell", ClassStruct: "struct", ClassObject: "object", ClassChar: "char",
	ClassSparse: "sparse", ClassDouble: "double", ClassSingle: "single",
	ClassInt8: "int8", ClassUint8: "uint8", ClassInt16: "int16", ClassUint16: "uint16",
	ClassInt32: "int32", ClassUint32: "uint32", ClassInt64: "int64", ClassUint64: "uint64",
	ClassFunction: "function_handle", ClassOpaque: "opaque",
}

func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// IsNumeric reports whether c is a floating point or integer class.
func (c Class) IsNumeric() bool {
	return c >= ClassDouble && c <= ClassUint64
}

// ParseClass returns the class with the given MATLAB name.
func ParseClass(name string) (Class, bool) {
	for c, n := range classNames {
		if n == name {
			return c, true
		}
	}
	return 0, false
}

// Value is a decoded MATLAB array.
type Value interface {
	// Dims returns the array dimensions, rows first. Every array has at
	// least two.
	Dims() []int
	// ClassName returns the name MATLAB's class() would report.
	ClassName() string
}

// NumElements returns the product of dims, or -1 when a dimension is
// negative or the product does not fit in an int.
func NumElements(dims []int) int {
	if slices.ContainsFunc(dims, func(d int) bool { return d < 0 }) {
		return -1
	}
	if slices.Contains(dims, 0) {
		return 0
	}
	n := 1
	for _, d := range dims {
		if n > math.MaxInt/d {
			return -1
		}
		n *= d
	}
	return n
}

// Numeric is a numeric or logical array. Samples are stored as float64
// in column-major order.
type Numeric struct {
	Class      Class
	Dimensions []int
	Real       []float64
	// Imag is nil for real arrays.
	Imag    []float64
	Logical bool
}

// Scalar returns a 1x1 double.
func Scalar(v float64) *Numeric {
	return &Numeric{Class: ClassDouble, Dimensions: []int{1, 1}, Real: []float64{v}}
}

func (n *Numeric) Dims() []int { return n.Dimensions }

func (n *Numeric) ClassName() string {
	if n.Logical {
		return "logical"
	}
	return n.Class.String()
}

// IsComplex reports whether the array has an imaginary part.
func (n *Numeric) IsComplex() bool {
	return n.Imag != nil
}

// Len returns the number of elements.
func (n *Numeric) Len() int {
	return len(n.Real)
}

// Char is a character array in column-major order.
type Char struct {
	Dimensions []int
	Data       []rune
}

func (c *Char) Dims() []int       { return c.Dimensions }
func (c *Char) ClassName() string { return "char" }

// Rows returns each row of a two-dimensional character array.
func (c *Char) Rows() []string {
	if len(c.Dimensions) != 2 {
		return []string{string(c.Data)}
	}
	rows, cols := c.Dimensions[0], c.Dimensions[1]
	if rows*cols != len(c.Data) {
		return []string{string(c.Data)}
	}
	out := make([]string, rows)
	line := make([]rune, cols)
	for r := range rows {
		for col := range cols {
			line[col] = c.Data[col*rows+r]
		}
		out[r] = string(line)
	}
	return out
}

func (c *Char) String() string {
	return strings.Join(c.Rows(), "\n")
}

// NewString returns a 1xN character array.
func NewString(s string) *Char {
	data := []rune(s)
	return &Char{Dimensions: []int{1, len(data)}, Data: data}
}

// Struct is a struct array. Each element maps every field name to a value.
type Struct struct {
	Dimensions []int
	Fields     []string
	Elements   []map[string]Value
}

// NewStruct returns a 1x1 struct with the given fields, in order.
func NewStruct(fields []string, values []Value) *Struct {
	elem := make(map[string]Value, len(fields))
	for i, name := range fields {
		elem[name] = values[i]
	}
	return &Struct{
		Dimensions: []int{1, 1},
		Fields:     append([]string(nil), fields...),
		Elements:   []map[string]Value{elem},
	}
}

func (s *Struct) Dims() []int       { return s.Dimensions }
func (s *Struct) ClassName() string { return "struct" }

// Field returns the named field of element i.
func (s *Struct) Field(name string, i int) (Value, bool) {
	if i < 0 || i >= len(s.Elements) {
		return nil, false
	}
	v, ok := s.Elements[i][name]
	return v, ok
}

// Cell is a cell array in column-major order.
type Cell struct {
	Dimensions []int
	Elements   []Value
}

func (c *Cell) Dims() []int       { return c.Dimensions }
func (c *Cell) ClassName() string { return "cell" }

// Opaque stands in for arrays of a class the decoder recognises but does
// not read, such as sparse matrices, objects and v7.3 cell arrays.
type Opaque struct {
	Class      string
	Dimensions []int
}

func (o *Opaque) Dims() []int       { return o.Dimensions }
func (o *Opaque) ClassName() string { return o.Class }
