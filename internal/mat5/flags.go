package mat5

import (
	"encoding/binary"
	"fmt"
)

// Class is the MATLAB array class stored in the array flags.
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

// Array flag bits above the class byte.
const (
	flagComplex = 0x0800
	flagGlobal  = 0x0400
	flagLogical = 0x0200
)

// ArrayFlags is the first subelement of every miMATRIX.
type ArrayFlags struct {
	Class   Class
	Complex bool
	Global  bool
	Logical bool
	// Nzmax is the allocated nonzero count of a sparse array.
	Nzmax uint32
}

// ParseArrayFlags decodes an array flags subelement.
func ParseArrayFlags(e Element, order binary.ByteOrder) (ArrayFlags, error) {
	if e.Type != Uint32 || len(e.Data) < 8 {
		return ArrayFlags{}, fmt.Errorf("%w: array flags are %s of %d bytes", ErrMalformed, e.Type, len(e.Data))
	}
	word := order.Uint32(e.Data)
	return ArrayFlags{
		Class:   Class(word & 0xFF),
		Complex: word&flagComplex != 0,
		Global:  word&flagGlobal != 0,
		Logical: word&flagLogical != 0,
		Nzmax:   order.Uint32(e.Data[4:]),
	}, nil
}

// Encode serialises the flags as the body of a miUINT32 element.
func (f ArrayFlags) Encode(order binary.ByteOrder) []byte {
	word := uint32(f.Class)
	if f.Complex {
		word |= flagComplex
	}
	if f.Global {
		word |= flagGlobal
	}
	if f.Logical {
		word |= flagLogical
	}
	out := make([]byte, 8)
	order.PutUint32(out, word)
	order.PutUint32(out[4:], f.Nzmax)
	return out
}
