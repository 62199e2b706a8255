package object

import (
	"fmt"
	"math"

	"github.com/robert-malhotra/mat2img/internal/binary"
	"github.com/robert-malhotra/mat2img/internal/message"
)

// Encoder is a header message that can serialise its body.
type Encoder interface {
	Type() message.Type
	Encode(cfg binary.Config) ([]byte, error)
}

// Raw is a pre-encoded header message.
type Raw struct {
	MsgType message.Type
	Flags   uint8
	Body    []byte
}

func (m *Raw) Type() message.Type                   { return m.MsgType }
func (m *Raw) Encode(binary.Config) ([]byte, error) { return m.Body, nil }

// MinHeaderSize is the smallest message area written for a header, so a
// later library can append a message in place.
const MinHeaderSize = 24

// EncodeV1 serialises msgs as a single-block version 1 object header with
// a reference count of one.
func EncodeV1(cfg binary.Config, msgs ...Encoder) ([]byte, error) {
	type encoded struct {
		typ   message.Type
		flags uint8
		body  []byte
	}
	parts := make([]encoded, 0, len(msgs))
	total := 0
	for _, m := range msgs {
		body, err := m.Encode(cfg)
		if err != nil {
			return nil, fmt.Errorf("encoding message 0x%04x: %w", uint16(m.Type()), err)
		}
		padded := (len(body) + 7) &^ 7
		if padded > math.MaxUint16 {
			return nil, fmt.Errorf("%w: message 0x%04x is %d bytes", ErrInvalidHeader, uint16(m.Type()), len(body))
		}
		var flags uint8
		if r, ok := m.(*Raw); ok {
			flags = r.Flags
		}
		if m.Type() == message.TypeDatatype {
			flags |= message.FlagConstant
		}
		parts = append(parts, encoded{typ: m.Type(), flags: flags, body: body})
		total += msgHeadSizeV1 + padded
	}
	if total < MinHeaderSize {
		parts = append(parts, encoded{typ: message.TypeNIL, body: make([]byte, MinHeaderSize-total-msgHeadSizeV1)})
		total = MinHeaderSize
	}

	return binary.Encode(cfg, func(w *binary.Writer) {
		w.WriteUint8(1)
		w.WriteUint8(0)
		w.WriteUint16(uint16(len(parts)))
		w.WriteUint32(1)
		w.WriteUint32(uint32(total))
		w.WriteZeros(4)
		for _, p := range parts {
			padded := (len(p.body) + 7) &^ 7
			w.WriteUint16(uint16(p.typ))
			w.WriteUint16(uint16(padded))
			w.WriteUint8(p.flags)
			w.WriteZeros(3)
			w.WriteBytes(p.body)
			w.WriteZeros(padded - len(p.body))
		}
	})
}
