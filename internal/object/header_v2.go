package object

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/binary"
	"github.com/robert-malhotra/mat2img/internal/message"
)

/*
Version 2 object header:

	0   4  signature "OHDR"
	4   1  version (2)
	5   1  flags
	        bits 0-1  width of the chunk 0 size field (1 << n bytes)
	        bit 2     attribute creation order tracked
	        bit 4     attribute phase change values stored
	        bit 5     times stored
	6      access, modification, change, birth times (4 bytes each, bit 5)
	       max compact and min dense attribute counts (2 bytes each, bit 4)
	       size of chunk 0
	       messages
	       checksum (4 bytes)

Each message: type (1), size (2), flags (1), creation order (2, bit 2), data.
Continuation blocks start with "OCHK" and end with a checksum.
*/

const (
	flagTrackCreationOrder = 0x04
	flagPhaseChange        = 0x10
	flagTimes              = 0x20
)

func readV2(r *binary.Reader, address uint64) (*Header, error) {
	hr := r.At(int64(address) + 4)
	version, err := hr.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	flags, err := hr.ReadUint8()
	if err != nil {
		return nil, err
	}

	hdr := &Header{Version: 2, Address: address, Flags: flags, RefCount: 1}
	if flags&flagTimes != 0 {
		for _, t := range []*uint32{&hdr.AccessTime, &hdr.ModTime, &hdr.ChangeTime, &hdr.BirthTime} {
			if *t, err = hr.ReadUint32(); err != nil {
				return nil, err
			}
		}
	}
	if flags&flagPhaseChange != 0 {
		hr.Skip(4)
	}
	chunkSize, err := hr.ReadUintN(1 << (flags & 0x03))
	if err != nil {
		return nil, err
	}

	// chunk 0 is checksummed together with its prefix
	prefixLen := uint64(hr.Pos()) - address
	raw, err := readBlock(r, block{offset: address, length: prefixLen + chunkSize + 4})
	if err != nil {
		return nil, err
	}
	if err := verifyChecksum(raw); err != nil {
		return nil, err
	}

	track := flags&flagTrackCreationOrder != 0
	more, err := parseV2Block(hdr, raw[prefixLen:len(raw)-4], track, r.Config())
	if err != nil {
		return nil, err
	}

	for n := 0; len(more) > 0; n++ {
		if n == maxBlocks {
			return nil, fmt.Errorf("%w: more than %d continuation blocks", ErrInvalidHeader, maxBlocks)
		}
		b := more[0]
		more = more[1:]

		raw, err := readBlock(r, b)
		if err != nil {
			return nil, err
		}
		if len(raw) < 8 || !bytes.Equal(raw[:4], SignatureContinuation) {
			return nil, fmt.Errorf("%w: bad continuation block at %d", ErrInvalidHeader, b.offset)
		}
		if err := verifyChecksum(raw); err != nil {
			return nil, err
		}
		next, err := parseV2Block(hdr, raw[4:len(raw)-4], track, r.Config())
		if err != nil {
			return nil, err
		}
		more = append(more, next...)
	}
	return hdr, nil
}

func verifyChecksum(raw []byte) error {
	n := len(raw) - 4
	stored := uint32(raw[n]) | uint32(raw[n+1])<<8 | uint32(raw[n+2])<<16 | uint32(raw[n+3])<<24
	if computed := binary.Lookup3Checksum(raw[:n]); computed != stored {
		return fmt.Errorf("%w: stored 0x%08x, computed 0x%08x", ErrChecksumMismatch, stored, computed)
	}
	return nil
}

func parseV2Block(hdr *Header, data []byte, track bool, cfg binary.Config) ([]block, error) {
	headSize := 4
	if track {
		headSize = 6
	}
	var more []block
	// trailing bytes shorter than a message head are a gap
	for pos := 0; pos+headSize <= len(data); {
		typ := message.Type(data[pos])
		size := int(cfg.ByteOrder.Uint16(data[pos+1:]))
		flags := data[pos+3]
		start := pos + headSize
		if start+size > len(data) {
			return nil, fmt.Errorf("%w: message 0x%04x overruns its block", ErrInvalidHeader, uint16(typ))
		}
		body := data[start : start+size]
		pos = start + size

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
