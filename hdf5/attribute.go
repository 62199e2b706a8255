package hdf5

import (
	"fmt"
	"math"

	"github.com/robert-malhotra/mat2img/internal/dtype"
	"github.com/robert-malhotra/mat2img/internal/message"
	"github.com/robert-malhotra/mat2img/internal/object"
)

// Attribute is a small named value attached to a group or dataset.
type Attribute struct {
	file *File
	msg  *message.Attribute
}

func attrNames(h *object.Header) []string {
	attrs := h.Attributes()
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	return names
}

func findAttr(f *File, h *object.Header, owner, name string) (*Attribute, error) {
	msg, ok := h.Attribute(name)
	if !ok {
		return nil, fmt.Errorf("%s: attribute %q: %w", owner, name, ErrNotFound)
	}
	return &Attribute{file: f, msg: msg}, nil
}

// Name returns the attribute name.
func (a *Attribute) Name() string {
	return a.msg.Name
}

// Shape returns the attribute's dimensions.
func (a *Attribute) Shape() []uint64 {
	if a.msg.Dataspace == nil {
		return nil
	}
	return append([]uint64(nil), a.msg.Dataspace.Dimensions...)
}

// Datatype returns the element type.
func (a *Attribute) Datatype() *message.Datatype {
	return a.msg.Datatype
}

func (a *Attribute) numElements() int {
	if a.msg.Dataspace == nil {
		return 1
	}
	return int(min(a.msg.Dataspace.NumElements(), math.MaxInt))
}

// ReadFloat64 reads numeric values.
func (a *Attribute) ReadFloat64() ([]float64, error) {
	values, err := dtype.Float64s(a.msg.Datatype, a.msg.Data, a.numElements())
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.msg.Name, err)
	}
	return values, nil
}

// ReadInt reads the first value of a numeric attribute.
func (a *Attribute) ReadInt() (int64, error) {
	values, err := a.ReadFloat64()
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("attribute %q is empty", a.msg.Name)
	}
	return int64(values[0]), nil
}

// ReadStrings reads fixed-length strings, variable-length strings or
// variable-length sequences of characters.
func (a *Attribute) ReadStrings() ([]string, error) {
	dt := a.msg.Datatype
	n := a.numElements()
	switch dt.Class {
	case message.ClassString:
		values, err := dtype.Strings(dt, a.msg.Data, n)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", a.msg.Name, err)
		}
		return values, nil
	case message.ClassVarLen:
		return a.readVarLen(n)
	}
	return nil, fmt.Errorf("attribute %q: %w: %s is not a string type", a.msg.Name, ErrUnsupported, dt)
}

func (a *Attribute) readVarLen(n int) ([]string, error) {
	dt := a.msg.Datatype
	refs, err := dtype.VarLenRefs(dt, a.msg.Data, n, a.file.reader.Config())
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.msg.Name, err)
	}
	elemSize := 1
	if !dt.IsVarLenString && dt.Base != nil {
		elemSize = int(dt.Base.Size)
	}
	out := make([]string, len(refs))
	for i, ref := range refs {
		if ref.Length == 0 {
			continue
		}
		gh, err := a.file.globalHeap(ref.ID.CollectionAddress)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", a.msg.Name, err)
		}
		obj, err := gh.GetObject(ref.ID.ObjectIndex)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", a.msg.Name, err)
		}
		size := int(ref.Length) * elemSize
		if dt.IsVarLenString {
			size = int(ref.Length)
		}
		if size > len(obj) {
			return nil, fmt.Errorf("attribute %q: element %d needs %d bytes, heap object holds %d", a.msg.Name, i, size, len(obj))
		}
		out[i] = string(obj[:size])
	}
	return out, nil
}

// ReadString reads the first string of a string attribute.
func (a *Attribute) ReadString() (string, error) {
	values, err := a.ReadStrings()
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", fmt.Errorf("attribute %q is empty", a.msg.Name)
	}
	return values[0], nil
}
