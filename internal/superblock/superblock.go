// Package superblock locates and decodes the HDF5 superblock.
//
// A MAT v7.3 file is an HDF5 file behind a 512-byte user block, so the
// superblock is searched for at the offsets HDF5 permits for a user block
// and every address in the file is relative to where it is found.
package superblock

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/robert-malhotra/mat2img/internal/binary"
)

// Signature is the 8-byte HDF5 format signature.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// searchOffsets are the candidate superblock locations, in search order.
var searchOffsets = []int64{0, 512, 1024, 2048, 4096}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock")
)

// Superblock holds the fields of any superblock version that the rest of
// the reader needs.
type Superblock struct {
	Version    uint8
	OffsetSize uint8
	LengthSize uint8

	// Version 0/1 B-tree parameters.
	GroupLeafK      uint16
	GroupInternalK  uint16
	IndexedStorageK uint16

	Flags            uint32
	BaseAddress      uint64
	ExtensionAddress uint64
	EOFAddress       uint64

	// RootAddress is the root group object header, relative to the base.
	RootAddress uint64

	// Version 0/1 cache the root symbol table in the root entry scratch pad.
	RootBTree uint64
	RootHeap  uint64

	// Location is the absolute file offset of the signature.
	Location int64
}

// Read searches r for the signature and decodes the superblock found there.
func Read(r io.ReaderAt) (*Superblock, error) {
	sig := make([]byte, len(Signature)+1)
	for _, offset := range searchOffsets {
		if n, _ := r.ReadAt(sig, offset); n < len(sig) {
			break
		}
		if !bytes.Equal(sig[:8], Signature) {
			continue
		}

		var (
			sb  *Superblock
			err error
		)
		switch version := sig[8]; version {
		case 0, 1:
			sb, err = readV0V1(r, offset, version)
		case 2, 3:
			sb, err = readV2V3(r, offset, version)
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
		}
		if err != nil {
			return nil, err
		}
		sb.Location = offset
		return sb, nil
	}
	return nil, ErrNotHDF5
}

// ReaderConfig returns the binary configuration for this file.
func (sb *Superblock) ReaderConfig() binary.Config {
	return binary.Config{
		OffsetSize: int(sb.OffsetSize),
		LengthSize: int(sb.LengthSize),
	}
}

// Section returns a view of r in which address 0 is the superblock location.
func (sb *Superblock) Section(r io.ReaderAt) io.ReaderAt {
	if sb.Location == 0 {
		return r
	}
	return io.NewSectionReader(r, sb.Location, 1<<62)
}

func validSize(n uint8) bool {
	return n == 2 || n == 4 || n == 8
}
