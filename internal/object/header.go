package object

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/binary"
	"github.com/robert-malhotra/mat2img/internal/message"
)

var (
	SignatureV2           = []byte{'O', 'H', 'D', 'R'}
	SignatureContinuation = []byte{'O', 'C', 'H', 'K'}
)

var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksumMismatch   = errors.New("object header checksum mismatch")
)

// maxBlocks bounds the number of continuation blocks followed for one
// header, so that a cycle in a corrupt file terminates.
const maxBlocks = 1024

// maxBlockSize bounds a single message block.
const maxBlockSize = 1 << 26

// Header is a parsed object header.
type Header struct {
	Version  uint8
	Address  uint64
	Flags    uint8
	RefCount uint32
	Messages []message.Message

	// Set only for version 2 headers with flag bit 5.
	AccessTime uint32
	ModTime    uint32
	ChangeTime uint32
	BirthTime  uint32
}

// Read parses the object header at address, following continuation
// blocks. Any malformed message fails the whole header.
func Read(r *binary.Reader, address uint64) (*Header, error) {
	peek, err := r.At(int64(address)).Peek(4)
	if err != nil {
		return nil, fmt.Errorf("reading object header at %d: %w", address, err)
	}

	var hdr *Header
	switch {
	case string(peek) == string(SignatureV2):
		hdr, err = readV2(r, address)
	case peek[0] == 1:
		hdr, err = readV1(r, address)
	default:
		return nil, fmt.Errorf("%w: unknown format at address %d", ErrInvalidHeader, address)
	}
	if err != nil {
		return nil, fmt.Errorf("object header at %d: %w", address, err)
	}
	return hdr, nil
}

// block is a run of header messages still to be parsed.
type block struct {
	offset uint64
	length uint64
}

func readBlock(r *binary.Reader, b block) ([]byte, error) {
	if b.length > maxBlockSize {
		return nil, fmt.Errorf("%w: %d byte message block at %d", ErrInvalidHeader, b.length, b.offset)
	}
	data, err := r.At(int64(b.offset)).ReadBytes(int(b.length))
	if err != nil {
		return nil, fmt.Errorf("message block at %d: %w", b.offset, err)
	}
	return data, nil
}

// GetMessage returns the first message of the given type, or nil.
func (h *Header) GetMessage(typ message.Type) message.Message {
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			return msg
		}
	}
	return nil
}

// GetMessages returns all messages of the given type.
func (h *Header) GetMessages(typ message.Type) []message.Message {
	var result []message.Message
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			result = append(result, msg)
		}
	}
	return result
}

func first[T message.Message](h *Header, typ message.Type) T {
	var zero T
	msg, ok := h.GetMessage(typ).(T)
	if !ok {
		return zero
	}
	return msg
}

// Dataspace returns the dataspace message, or nil.
func (h *Header) Dataspace() *message.Dataspace {
	return first[*message.Dataspace](h, message.TypeDataspace)
}

// Datatype returns the datatype message, or nil.
func (h *Header) Datatype() *message.Datatype {
	return first[*message.Datatype](h, message.TypeDatatype)
}

// DataLayout returns the data layout message, or nil.
func (h *Header) DataLayout() *message.DataLayout {
	return first[*message.DataLayout](h, message.TypeDataLayout)
}

// FilterPipeline returns the filter pipeline message, or nil.
func (h *Header) FilterPipeline() *message.FilterPipeline {
	return first[*message.FilterPipeline](h, message.TypeFilterPipeline)
}

// FillValue returns the fill value message, or nil.
func (h *Header) FillValue() *message.FillValue {
	return first[*message.FillValue](h, message.TypeFillValue)
}

// SymbolTable returns the symbol table message of an old-style group, or nil.
func (h *Header) SymbolTable() *message.SymbolTable {
	return first[*message.SymbolTable](h, message.TypeSymbolTable)
}

// Links returns the link messages of a new-style compact group.
func (h *Header) Links() []*message.Link {
	var links []*message.Link
	for _, msg := range h.Messages {
		if l, ok := msg.(*message.Link); ok {
			links = append(links, l)
		}
	}
	return links
}

// Attributes returns the attributes stored directly in the header.
func (h *Header) Attributes() []*message.Attribute {
	var attrs []*message.Attribute
	for _, msg := range h.Messages {
		if a, ok := msg.(*message.Attribute); ok {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

// Attribute returns the named attribute.
func (h *Header) Attribute(name string) (*message.Attribute, bool) {
	for _, a := range h.Attributes() {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// IsGroup reports whether the header describes a group.
func (h *Header) IsGroup() bool {
	if h.SymbolTable() != nil || len(h.Links()) > 0 {
		return true
	}
	return h.GetMessage(message.TypeLinkInfo) != nil || h.GetMessage(message.TypeGroupInfo) != nil
}

// IsDataset reports whether the header describes a dataset.
func (h *Header) IsDataset() bool {
	return h.DataLayout() != nil
}
