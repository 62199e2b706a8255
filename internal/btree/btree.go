package btree

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/mat2img/internal/binary"
)

var (
	treeSignature = []byte{'T', 'R', 'E', 'E'}
	snodSignature = []byte{'S', 'N', 'O', 'D'}
)

// Node types of a version 1 B-tree.
const (
	NodeTypeGroup uint8 = 0
	NodeTypeChunk uint8 = 1
)

var (
	ErrInvalidNode = errors.New("invalid B-tree node")
	// ErrTooManyEntries is returned when entries do not fit a single node.
	ErrTooManyEntries = errors.New("too many entries for a single B-tree node")
)

// maxDepth bounds the tree height accepted on read.
const maxDepth = 32

// nodeHeader is the fixed part of a version 1 node.
type nodeHeader struct {
	nodeType    uint8
	level       uint8
	entriesUsed uint16
}

func readNodeHeader(r *binary.Reader, address uint64, want uint8) (*binary.Reader, nodeHeader, error) {
	var h nodeHeader
	nr := r.At(int64(address))
	sig, err := nr.ReadBytes(4)
	if err != nil {
		return nil, h, fmt.Errorf("reading B-tree node at %d: %w", address, err)
	}
	if string(sig) != string(treeSignature) {
		return nil, h, fmt.Errorf("%w: signature %q at %d", ErrInvalidNode, sig, address)
	}
	head, err := nr.ReadBytes(4)
	if err != nil {
		return nil, h, err
	}
	h.nodeType, h.level = head[0], head[1]
	h.entriesUsed = uint16(head[2]) | uint16(head[3])<<8
	if h.nodeType != want {
		return nil, h, fmt.Errorf("%w: node type %d at %d, want %d", ErrInvalidNode, h.nodeType, address, want)
	}
	if h.level > maxDepth {
		return nil, h, fmt.Errorf("%w: level %d at %d", ErrInvalidNode, h.level, address)
	}
	nr.Skip(2 * int64(r.OffsetSize())) // siblings
	return nr, h, nil
}

// writeNodeHeader writes a leaf header with undefined siblings.
func writeNodeHeader(w *binary.Writer, nodeType uint8, entries int) {
	w.WriteBytes(treeSignature)
	w.WriteUint8(nodeType)
	w.WriteUint8(0)
	w.WriteUint16(uint16(entries))
	w.WriteUndefinedOffset()
	w.WriteUndefinedOffset()
}

func nodeHeaderSize(cfg binary.Config) int {
	return 8 + 2*cfg.OffsetSize
}
