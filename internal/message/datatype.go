package message

import (
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/binary"
)

// DatatypeClass is the class of an HDF5 datatype.
type DatatypeClass uint8

const (
	ClassFixedPoint DatatypeClass = 0
	ClassFloatPoint DatatypeClass = 1
	ClassTime       DatatypeClass = 2
	ClassString     DatatypeClass = 3
	ClassBitfield   DatatypeClass = 4
	ClassOpaque     DatatypeClass = 5
	ClassCompound   DatatypeClass = 6
	ClassReference  DatatypeClass = 7
	ClassEnum       DatatypeClass = 8
	ClassVarLen     DatatypeClass = 9
	ClassArray      DatatypeClass = 10
)

func (c DatatypeClass) String() string {
	names := [...]string{"integer", "float", "time", "string", "bitfield", "opaque",
		"compound", "reference", "enum", "vlen", "array"}
	if int(c) < len(names) {
		return names[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// ByteOrder of a numeric datatype.
type ByteOrder uint8

const (
	OrderLE ByteOrder = 0
	OrderBE ByteOrder = 1
)

// StringPadding of a fixed-length string.
type StringPadding uint8

const (
	PadNullTerm StringPadding = 0
	PadNullPad  StringPadding = 1
	PadSpacePad StringPadding = 2
)

// Datatype describes the element type of a dataset or attribute (type 0x0003).
type Datatype struct {
	Class   DatatypeClass
	Version uint8
	Size    uint32

	ByteOrder ByteOrder
	Signed    bool

	BitOffset    uint16
	BitPrecision uint16

	// Floating point layout.
	SignLocation uint8
	ExpLocation  uint8
	ExpSize      uint8
	MantLocation uint8
	MantSize     uint8
	ExpBias      uint32

	StringPadding StringPadding
	CharSet       uint8

	Members   []CompoundMember
	ArrayDims []uint32
	// Base is the parent type of enum, vlen and array types.
	Base           *Datatype
	IsVarLenString bool
}

// CompoundMember is one field of a compound datatype.
type CompoundMember struct {
	Name       string
	ByteOffset uint32
	Type       *Datatype
}

func (m *Datatype) Type() Type { return TypeDatatype }

// IsNumeric reports whether elements are plain integers or floats.
func (m *Datatype) IsNumeric() bool {
	return m.Class == ClassFixedPoint || m.Class == ClassFloatPoint
}

// Member returns the compound member with the given name.
func (m *Datatype) Member(name string) (CompoundMember, bool) {
	for _, mem := range m.Members {
		if mem.Name == name {
			return mem, true
		}
	}
	return CompoundMember{}, false
}

func (m *Datatype) String() string {
	switch m.Class {
	case ClassFixedPoint:
		if m.Signed {
			return fmt.Sprintf("int%d", m.Size*8)
		}
		return fmt.Sprintf("uint%d", m.Size*8)
	case ClassFloatPoint:
		return fmt.Sprintf("float%d", m.Size*8)
	case ClassString:
		return fmt.Sprintf("string[%d]", m.Size)
	}
	return m.Class.String()
}

func parseDatatype(data []byte, cfg binary.Config) (*Datatype, error) {
	dt, err := readDatatype(reader(data, cfg))
	if err != nil {
		return nil, truncated(err)
	}
	return dt, nil
}

func readDatatype(r *binary.Reader) (*Datatype, error) {
	head, err := r.ReadBytes(8)
	if err != nil {
		return nil, err
	}
	bits := uint32(head[1]) | uint32(head[2])<<8 | uint32(head[3])<<16
	dt := &Datatype{
		Class:   DatatypeClass(head[0] & 0x0F),
		Version: head[0] >> 4,
		Size:    uint32(head[4]) | uint32(head[5])<<8 | uint32(head[6])<<16 | uint32(head[7])<<24,
	}

	switch dt.Class {
	case ClassFixedPoint, ClassBitfield:
		dt.ByteOrder = ByteOrder(bits & 0x01)
		dt.Signed = bits&0x08 != 0
		if err := readPrecision(r, dt); err != nil {
			return nil, err
		}

	case ClassFloatPoint:
		dt.ByteOrder = ByteOrder(bits & 0x01)
		dt.SignLocation = uint8(bits >> 8)
		if err := readPrecision(r, dt); err != nil {
			return nil, err
		}
		p, err := r.ReadBytes(8)
		if err != nil {
			return nil, err
		}
		dt.ExpLocation, dt.ExpSize, dt.MantLocation, dt.MantSize = p[0], p[1], p[2], p[3]
		dt.ExpBias = uint32(p[4]) | uint32(p[5])<<8 | uint32(p[6])<<16 | uint32(p[7])<<24

	case ClassTime:
		r.Skip(2)

	case ClassString:
		dt.StringPadding = StringPadding(bits & 0x0F)
		dt.CharSet = uint8(bits>>4) & 0x0F

	case ClassOpaque:
		r.Skip(int64(padTo8(int(bits & 0xFF))))

	case ClassCompound:
		if err := readCompound(r, dt, int(bits&0xFFFF)); err != nil {
			return nil, err
		}

	case ClassReference:

	case ClassEnum:
		n := int(bits & 0xFFFF)
		if dt.Base, err = readDatatype(r); err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			if err := skipName(r, dt.Version < 3); err != nil {
				return nil, err
			}
		}
		r.Skip(int64(n) * int64(dt.Base.Size))

	case ClassVarLen:
		dt.IsVarLenString = bits&0x0F == 1
		if dt.Base, err = readDatatype(r); err != nil {
			return nil, err
		}

	case ClassArray:
		ndims, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		if dt.Version < 3 {
			r.Skip(3)
		}
		dt.ArrayDims = make([]uint32, ndims)
		for i := range dt.ArrayDims {
			if dt.ArrayDims[i], err = r.ReadUint32(); err != nil {
				return nil, err
			}
		}
		if dt.Version < 3 {
			r.Skip(4 * int64(ndims))
		}
		if dt.Base, err = readDatatype(r); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: datatype class %d", ErrUnsupported, dt.Class)
	}
	return dt, nil
}

func readPrecision(r *binary.Reader, dt *Datatype) error {
	var err error
	if dt.BitOffset, err = r.ReadUint16(); err != nil {
		return err
	}
	dt.BitPrecision, err = r.ReadUint16()
	return err
}

// readName reads a NUL-terminated name, optionally padded to 8 bytes
// measured from the start of the name.
func readName(r *binary.Reader, padded bool) (string, error) {
	var name []byte
	for {
		b, err := r.ReadUint8()
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		name = append(name, b)
	}
	if padded {
		used := len(name) + 1
		r.Skip(int64(padTo8(used) - used))
	}
	return string(name), nil
}

func skipName(r *binary.Reader, padded bool) error {
	_, err := readName(r, padded)
	return err
}

func readCompound(r *binary.Reader, dt *Datatype, n int) error {
	dt.Members = make([]CompoundMember, 0, n)
	for i := 0; i < n; i++ {
		name, err := readName(r, dt.Version < 3)
		if err != nil {
			return err
		}
		var offset uint64
		if dt.Version < 3 {
			offset, err = r.ReadUintN(4)
		} else {
			offset, err = r.ReadUintN(compoundOffsetSize(dt.Size))
		}
		if err != nil {
			return err
		}
		if dt.Version == 1 {
			// dimensionality, reserved, permutation, reserved, four dim sizes
			r.Skip(1 + 3 + 4 + 4 + 16)
		}
		mt, err := readDatatype(r)
		if err != nil {
			return err
		}
		dt.Members = append(dt.Members, CompoundMember{Name: name, ByteOffset: uint32(offset), Type: mt})
	}
	return nil
}

func compoundOffsetSize(size uint32) int {
	switch {
	case size <= 0xFF:
		return 1
	case size <= 0xFFFF:
		return 2
	case size <= 0xFFFFFF:
		return 3
	}
	return 4
}

// NewInteger returns a little-endian integer type of size bytes.
func NewInteger(size int, signed bool) *Datatype {
	return &Datatype{Class: ClassFixedPoint, Version: 1, Size: uint32(size), Signed: signed,
		BitPrecision: uint16(size * 8)}
}

// NewFloat returns a little-endian IEEE-754 type of 4 or 8 bytes.
func NewFloat(size int) *Datatype {
	dt := &Datatype{Class: ClassFloatPoint, Version: 1, Size: uint32(size), BitPrecision: uint16(size * 8)}
	if size == 4 {
		dt.SignLocation, dt.ExpLocation, dt.ExpSize, dt.MantSize, dt.ExpBias = 31, 23, 8, 23, 127
	} else {
		dt.SignLocation, dt.ExpLocation, dt.ExpSize, dt.MantSize, dt.ExpBias = 63, 52, 11, 52, 1023
	}
	return dt
}

// NewString returns a fixed-length ASCII string type.
func NewString(size int, pad StringPadding) *Datatype {
	return &Datatype{Class: ClassString, Version: 1, Size: uint32(size), StringPadding: pad}
}

// NewVarLen returns a variable-length sequence of base elements as stored
// with offsetSize-byte heap addresses.
func NewVarLen(base *Datatype, offsetSize int) *Datatype {
	return &Datatype{Class: ClassVarLen, Version: 1, Size: uint32(4 + offsetSize + 4), Base: base}
}

// NewCompound returns a version 1 compound type. Members are laid out in
// order without gaps.
func NewCompound(names []string, types []*Datatype) *Datatype {
	dt := &Datatype{Class: ClassCompound, Version: 1}
	for i, name := range names {
		dt.Members = append(dt.Members, CompoundMember{Name: name, ByteOffset: dt.Size, Type: types[i]})
		dt.Size += types[i].Size
	}
	return dt
}

// Encode serialises the datatype. Integer, float, string, compound and
// variable-length classes are supported.
func (m *Datatype) Encode(cfg binary.Config) ([]byte, error) {
	if m.Class == ClassCompound && m.Version != 1 {
		return nil, fmt.Errorf("%w: encoding compound version %d", ErrUnsupported, m.Version)
	}
	var failed error
	data, err := binary.Encode(cfg, func(w *binary.Writer) {
		failed = writeDatatype(w, m)
	})
	if failed != nil {
		return nil, failed
	}
	return data, err
}

func writeDatatype(w *binary.Writer, m *Datatype) error {
	var bits uint32
	switch m.Class {
	case ClassFixedPoint:
		bits = uint32(m.ByteOrder)
		if m.Signed {
			bits |= 0x08
		}
	case ClassFloatPoint:
		// implied-one mantissa normalisation
		bits = uint32(m.ByteOrder) | 2<<4 | uint32(m.SignLocation)<<8
	case ClassString:
		bits = uint32(m.StringPadding) | uint32(m.CharSet)<<4
	case ClassCompound:
		bits = uint32(len(m.Members))
	case ClassVarLen:
		if m.IsVarLenString {
			bits = 1 | uint32(m.StringPadding)<<4 | uint32(m.CharSet)<<8
		}
	default:
		return fmt.Errorf("%w: encoding %s datatype", ErrUnsupported, m.Class)
	}

	version := m.Version
	if version == 0 {
		version = 1
	}
	w.WriteUint8(version<<4 | uint8(m.Class))
	w.WriteBytes([]byte{uint8(bits), uint8(bits >> 8), uint8(bits >> 16)})
	w.WriteUint32(m.Size)

	switch m.Class {
	case ClassFixedPoint:
		w.WriteUint16(m.BitOffset)
		w.WriteUint16(m.BitPrecision)
	case ClassFloatPoint:
		w.WriteUint16(m.BitOffset)
		w.WriteUint16(m.BitPrecision)
		w.WriteBytes([]byte{m.ExpLocation, m.ExpSize, m.MantLocation, m.MantSize})
		w.WriteUint32(m.ExpBias)
	case ClassCompound:
		for _, mem := range m.Members {
			name := make([]byte, padTo8(len(mem.Name)+1))
			copy(name, mem.Name)
			w.WriteBytes(name)
			w.WriteUint32(mem.ByteOffset)
			w.WriteZeros(1 + 3 + 4 + 4 + 16)
			if err := writeDatatype(w, mem.Type); err != nil {
				return err
			}
		}
	case ClassVarLen:
		if m.Base == nil {
			return fmt.Errorf("%w: variable-length type without base", ErrUnsupported)
		}
		return writeDatatype(w, m.Base)
	}
	return nil
}
