package superblock

import (
	"fmt"
	"io"

	"github.com/robert-malhotra/mat2img/internal/binary"
)

/*
Version 0/1 layout, after the signature:

	8   version, free-space version, root entry version, reserved
	12  shared header version, offset size, length size, reserved
	16  group leaf K (2), group internal K (2)
	20  file consistency flags (4)
	24  v1 only: indexed storage K (2), reserved (2)
	    base address, free-space address, EOF address, driver info address
	    root group symbol table entry
*/

// rootEntryCacheSymbolTable marks a scratch pad holding B-tree and heap addresses.
const rootEntryCacheSymbolTable = 1

func readV0V1(r io.ReaderAt, offset int64, version uint8) (*Superblock, error) {
	br := binary.NewReader(r, binary.DefaultConfig()).At(offset + 8)
	head, err := br.ReadBytes(16)
	if err != nil {
		return nil, err
	}

	sb := &Superblock{
		Version:        version,
		OffsetSize:     head[5],
		LengthSize:     head[6],
		GroupLeafK:     uint16(head[8]) | uint16(head[9])<<8,
		GroupInternalK: uint16(head[10]) | uint16(head[11])<<8,
		Flags:          uint32(head[12]) | uint32(head[13])<<8 | uint32(head[14])<<16 | uint32(head[15])<<24,
	}
	if !validSize(sb.OffsetSize) || !validSize(sb.LengthSize) {
		return nil, fmt.Errorf("%w: offset size %d, length size %d", ErrInvalidSuperblock, sb.OffsetSize, sb.LengthSize)
	}

	if version == 1 {
		if sb.IndexedStorageK, err = br.ReadUint16(); err != nil {
			return nil, err
		}
		br.Skip(2)
	}

	br = br.WithSizes(int(sb.OffsetSize), int(sb.LengthSize))
	if sb.BaseAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	br.Skip(int64(sb.OffsetSize)) // free-space info
	if sb.EOFAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	br.Skip(int64(sb.OffsetSize)) // driver info

	// Root symbol table entry: name offset, header address, cache type,
	// reserved, 16-byte scratch pad.
	br.Skip(int64(sb.OffsetSize))
	if sb.RootAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	cacheType, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	br.Skip(4)
	if cacheType == rootEntryCacheSymbolTable {
		if sb.RootBTree, err = br.ReadOffset(); err != nil {
			return nil, err
		}
		if sb.RootHeap, err = br.ReadOffset(); err != nil {
			return nil, err
		}
	} else {
		sb.RootBTree = binary.UndefinedValue(int(sb.OffsetSize))
		sb.RootHeap = sb.RootBTree
	}
	return sb, nil
}
