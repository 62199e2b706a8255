package object

import (
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/binary"
	"github.com/robert-malhotra/mat2img/internal/message"
)

/*
Version 1 object header:

	0   1  version (1)
	1   1  reserved
	2   2  number of header messages
	4   4  object reference count
	8   4  header size (bytes of messages in the first block)
	12  4  padding to 8 bytes
	16     messages

Each message:

	0   2  type
	2   2  size of message data, a multiple of 8
	4   1  flags
	5   3  reserved
	8      data
*/

const (
	prefixSizeV1  = 16
	msgHeadSizeV1 = 8
)

func readV1(r *binary.Reader, address uint64) (*Header, error) {
	prefix, err := r.At(int64(address)).ReadBytes(prefixSizeV1)
	if err != nil {
		return nil, err
	}
	order := r.ByteOrder()
	hdr := &Header{
		Version:  1,
		Address:  address,
		RefCount: order.Uint32(prefix[4:8]),
	}
	numMessages := int(order.Uint16(prefix[2:4]))
	headerSize := uint64(order.Uint32(prefix[8:12]))

	queue := []block{{offset: address + prefixSizeV1, length: headerSize}}
	for n := 0; len(queue) > 0; n++ {
		if n == maxBlocks {
			return nil, fmt.Errorf("%w: more than %d continuation blocks", ErrInvalidHeader, maxBlocks)
		}
		b := queue[0]
		queue = queue[1:]

		data, err := readBlock(r, b)
		if err != nil {
			return nil, err
		}
		more, err := parseV1Block(hdr, data, r.Config())
		if err != nil {
			return nil, err
		}
		queue = append(queue, more...)
	}

	if numMessages > 0 && len(hdr.Messages) > numMessages {
		return nil, fmt.Errorf("%w: %d messages, header declares %d", ErrInvalidHeader, len(hdr.Messages), numMessages)
	}
	return hdr, nil
}

func parseV1Block(hdr *Header, data []byte, cfg binary.Config) ([]block, error) {
	var more []block
	order := cfg.ByteOrder
	for pos := 0; pos+msgHeadSizeV1 <= len(data); {
		typ := message.Type(order.Uint16(data[pos:]))
		size := int(order.Uint16(data[pos+2:]))
		flags := data[pos+4]
		start := pos + msgHeadSizeV1
		if start+size > len(data) {
			return nil, fmt.Errorf("%w: message 0x%04x overruns its block", ErrInvalidHeader, uint16(typ))
		}
		body := data[start : start+size]
		pos = start + (size+7)&^7

		if typ == message.TypeNIL {
			continue
		}
		msg, err := message.Parse(typ, body, flags, cfg)
		if err != nil {
			return nil, err
		}
		if c, ok := msg.(*message.Continuation); ok {
			more = append(more, block{offset: c.Offset, length: c.Length})
			continue
		}
		hdr.Messages = append(hdr.Messages, msg)
	}
	return more, nil
}
