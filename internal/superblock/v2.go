package superblock

import (
	"fmt"
	"io"

	"github.com/robert-malhotra/mat2img/internal/binary"
)

/*
Version 2/3 layout, after the signature:

	8   version, offset size, length size, flags
	12  base address, extension address, EOF address, root object header address
	    lookup3 checksum of everything before it
*/

func readV2V3(r io.ReaderAt, offset int64, version uint8) (*Superblock, error) {
	br := binary.NewReader(r, binary.DefaultConfig()).At(offset + 8)
	head, err := br.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	sb := &Superblock{
		Version:    version,
		OffsetSize: head[1],
		LengthSize: head[2],
		Flags:      uint32(head[3]),
	}
	if !validSize(sb.OffsetSize) || !validSize(sb.LengthSize) {
		return nil, fmt.Errorf("%w: offset size %d, length size %d", ErrInvalidSuperblock, sb.OffsetSize, sb.LengthSize)
	}

	br = br.WithSizes(int(sb.OffsetSize), int(sb.LengthSize))
	fields := []*uint64{&sb.BaseAddress, &sb.ExtensionAddress, &sb.EOFAddress, &sb.RootAddress}
	for _, f := range fields {
		if *f, err = br.ReadOffset(); err != nil {
			return nil, err
		}
	}

	body, err := br.At(offset).ReadBytes(int(br.Pos() - offset))
	if err != nil {
		return nil, err
	}
	stored, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	if computed := binary.Lookup3Checksum(body); computed != stored {
		return nil, fmt.Errorf("%w: checksum 0x%08x, computed 0x%08x", ErrInvalidSuperblock, stored, computed)
	}

	undef := binary.UndefinedValue(int(sb.OffsetSize))
	sb.RootBTree, sb.RootHeap = undef, undef
	return sb, nil
}
