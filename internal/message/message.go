package message

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/binary"
)

// Type is an HDF5 header message type.
type Type uint16

const (
	TypeNIL                      Type = 0x0000
	TypeDataspace                Type = 0x0001
	TypeLinkInfo                 Type = 0x0002
	TypeDatatype                 Type = 0x0003
	TypeFillValueOld             Type = 0x0004
	TypeFillValue                Type = 0x0005
	TypeLink                     Type = 0x0006
	TypeDataLayout               Type = 0x0008
	TypeGroupInfo                Type = 0x000A
	TypeFilterPipeline           Type = 0x000B
	TypeAttribute                Type = 0x000C
	TypeObjectModTime            Type = 0x000E
	TypeObjectHeaderContinuation Type = 0x0010
	TypeSymbolTable              Type = 0x0011
	TypeAttributeInfo            Type = 0x0015
)

// Message flag bits.
const (
	FlagConstant uint8 = 0x01
	FlagShared   uint8 = 0x02
)

var (
	// ErrTruncated is returned when a message body is shorter than its fields.
	ErrTruncated = errors.New("message truncated")
	// ErrUnsupported is returned for message versions or variants not handled.
	ErrUnsupported = errors.New("unsupported message")
)

// Message is implemented by every decoded header message.
type Message interface {
	Type() Type
}

// Parse decodes the body of one header message.
func Parse(typ Type, data []byte, flags uint8, cfg binary.Config) (Message, error) {
	if flags&FlagShared != 0 && (typ == TypeDatatype || typ == TypeDataspace || typ == TypeFillValue || typ == TypeFilterPipeline) {
		return nil, fmt.Errorf("%w: shared message of type 0x%04x", ErrUnsupported, uint16(typ))
	}

	var (
		msg Message
		err error
	)
	switch typ {
	case TypeDataspace:
		msg, err = parseDataspace(data, cfg)
	case TypeDatatype:
		msg, err = parseDatatype(data, cfg)
	case TypeFillValue:
		msg, err = parseFillValue(data, cfg)
	case TypeLink:
		msg, err = parseLink(data, cfg)
	case TypeDataLayout:
		msg, err = parseDataLayout(data, cfg)
	case TypeFilterPipeline:
		msg, err = parseFilterPipeline(data, cfg)
	case TypeAttribute:
		msg, err = parseAttribute(data, cfg)
	case TypeObjectHeaderContinuation:
		msg, err = parseContinuation(data, cfg)
	case TypeSymbolTable:
		msg, err = parseSymbolTable(data, cfg)
	default:
		return &Unknown{typ: typ, data: data}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("message 0x%04x: %w", uint16(typ), err)
	}
	return msg, nil
}

// reader returns a binary reader over a message body. Short reads surface
// as ErrTruncated.
func reader(data []byte, cfg binary.Config) *binary.Reader {
	return binary.NewReader(bytes.NewReader(data), cfg)
}

func truncated(err error) error {
	if errors.Is(err, binary.ErrShortRead) {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return err
}

// Unknown holds a message type this package does not decode.
type Unknown struct {
	typ  Type
	data []byte
}

func (m *Unknown) Type() Type   { return m.typ }
func (m *Unknown) Data() []byte { return m.data }

// Continuation points at a further block of header messages.
type Continuation struct {
	Offset uint64
	Length uint64
}

func (m *Continuation) Type() Type { return TypeObjectHeaderContinuation }

func parseContinuation(data []byte, cfg binary.Config) (*Continuation, error) {
	r := reader(data, cfg)
	offset, err := r.ReadOffset()
	if err != nil {
		return nil, truncated(err)
	}
	length, err := r.ReadLength()
	if err != nil {
		return nil, truncated(err)
	}
	return &Continuation{Offset: offset, Length: length}, nil
}

// EncodeContinuation serialises a continuation message body.
func EncodeContinuation(offset, length uint64, cfg binary.Config) ([]byte, error) {
	return binary.Encode(cfg, func(w *binary.Writer) {
		w.WriteOffset(offset)
		w.WriteLength(length)
	})
}

// SymbolTable points at the B-tree and local heap of an old-style group.
type SymbolTable struct {
	BTreeAddress     uint64
	LocalHeapAddress uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func parseSymbolTable(data []byte, cfg binary.Config) (*SymbolTable, error) {
	r := reader(data, cfg)
	btree, err := r.ReadOffset()
	if err != nil {
		return nil, truncated(err)
	}
	heap, err := r.ReadOffset()
	if err != nil {
		return nil, truncated(err)
	}
	return &SymbolTable{BTreeAddress: btree, LocalHeapAddress: heap}, nil
}

// Encode serialises the symbol table message body.
func (m *SymbolTable) Encode(cfg binary.Config) ([]byte, error) {
	return binary.Encode(cfg, func(w *binary.Writer) {
		w.WriteOffset(m.BTreeAddress)
		w.WriteOffset(m.LocalHeapAddress)
	})
}

// padTo8 rounds n up to a multiple of eight.
func padTo8(n int) int {
	return (n + 7) &^ 7
}

// cString returns data up to the first NUL.
func cString(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return string(data[:i])
	}
	return string(data)
}
