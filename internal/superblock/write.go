package superblock

import (
	"github.com/robert-malhotra/mat2img/internal/binary"
)

// Size of a version 0 superblock with 8-byte offsets, root entry included.
const V0Size = 96

// Default B-tree parameters of the HDF5 library.
const (
	DefaultGroupLeafK     = 4
	DefaultGroupInternalK = 16
	DefaultChunkK         = 32
)

// EncodeV0 serialises sb as a version 0 superblock with 8-byte offsets and
// lengths. The root entry records the root group's symbol table in its
// scratch pad, which is how MATLAB's HDF5 library writes it.
func EncodeV0(sb *Superblock) ([]byte, error) {
	return binary.Encode(binary.DefaultConfig(), func(w *binary.Writer) {
		w.WriteBytes(Signature)
		w.WriteBytes([]byte{0, 0, 0, 0, 0, 8, 8, 0})
		w.WriteUint16(sb.GroupLeafK)
		w.WriteUint16(sb.GroupInternalK)
		w.WriteUint32(sb.Flags)

		w.WriteOffset(sb.BaseAddress)
		w.WriteUndefinedOffset()
		w.WriteOffset(sb.EOFAddress)
		w.WriteUndefinedOffset()

		w.WriteOffset(0)
		w.WriteOffset(sb.RootAddress)
		w.WriteUint32(rootEntryCacheSymbolTable)
		w.WriteUint32(0)
		w.WriteOffset(sb.RootBTree)
		w.WriteOffset(sb.RootHeap)
	})
}
