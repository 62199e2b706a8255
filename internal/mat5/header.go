package mat5

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// HeaderSize is the size of the MAT-file header.
const HeaderSize = 128

const textSize = 116

// Header versions.
const (
	Version5  uint16 = 0x0100
	Version73 uint16 = 0x0200
)

var (
	ErrTruncated          = errors.New("truncated MAT data")
	ErrUnsupportedVersion = errors.New("unsupported MAT-file version")
	ErrMalformed          = errors.New("malformed MAT data element")
)

// Header is the decoded MAT-file header.
type Header struct {
	// Text is the descriptive text with trailing padding removed.
	Text            string
	SubsystemOffset uint64
	Version         uint16
	ByteOrder       binary.ByteOrder
}

// ReadHeader decodes the header at the start of data. The version is
// returned as found; an unknown endian indicator is ErrUnsupportedVersion.
func ReadHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncated, HeaderSize, len(data))
	}
	var order binary.ByteOrder
	switch string(data[126:128]) {
	case "IM":
		order = binary.LittleEndian
	case "MI":
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: endian indicator %q", ErrUnsupportedVersion, data[126:128])
	}
	return &Header{
		Text:            strings.TrimRight(string(data[:textSize]), " \x00"),
		SubsystemOffset: order.Uint64(data[116:124]),
		Version:         order.Uint16(data[124:126]),
		ByteOrder:       order,
	}, nil
}

// Encode serialises the header. Text longer than 116 bytes is cut.
func (h *Header) Encode() []byte {
	order := h.ByteOrder
	if order == nil {
		order = binary.LittleEndian
	}
	out := make([]byte, HeaderSize)
	copy(out[:textSize], h.Text)
	for i := min(len(h.Text), textSize); i < textSize; i++ {
		out[i] = ' '
	}
	order.PutUint64(out[116:], h.SubsystemOffset)
	order.PutUint16(out[124:], h.Version)
	order.PutUint16(out[126:], 'M'<<8|'I')
	return out
}
