package superblock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	binpkg "github.com/robert-malhotra/mat2img/internal/binary"
)

func v2Superblock(t *testing.T, version uint8, corrupt bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(Signature)
	buf.Write([]byte{version, 8, 8, 0})
	binary.Write(&buf, binary.LittleEndian, uint64(0))
	binary.Write(&buf, binary.LittleEndian, uint64(0xFFFFFFFFFFFFFFFF))
	binary.Write(&buf, binary.LittleEndian, uint64(1024))
	binary.Write(&buf, binary.LittleEndian, uint64(48))
	checksum := binpkg.Lookup3Checksum(buf.Bytes())
	if corrupt {
		checksum++
	}
	binary.Write(&buf, binary.LittleEndian, checksum)
	return buf.Bytes()
}

func TestReadNotHDF5(t *testing.T) {
	data := make([]byte, 4096)
	copy(data, "MATLAB 5.0 MAT-file")
	if _, err := Read(bytes.NewReader(data)); !errors.Is(err, ErrNotHDF5) {
		t.Errorf("expected ErrNotHDF5, got %v", err)
	}
}

func TestReadShortInput(t *testing.T) {
	if _, err := Read(bytes.NewReader([]byte{0x89, 'H'})); !errors.Is(err, ErrNotHDF5) {
		t.Errorf("expected ErrNotHDF5, got %v", err)
	}
}

func TestReadUnsupportedVersion(t *testing.T) {
	data := make([]byte, 256)
	copy(data, Signature)
	data[8] = 9
	if _, err := Read(bytes.NewReader(data)); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestReadV2(t *testing.T) {
	for _, version := range []uint8{2, 3} {
		data := make([]byte, 256)
		copy(data, v2Superblock(t, version, false))

		sb, err := Read(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("v%d: Read: %v", version, err)
		}
		if sb.Version != version || sb.OffsetSize != 8 || sb.LengthSize != 8 {
			t.Errorf("v%d: unexpected header %+v", version, sb)
		}
		if sb.EOFAddress != 1024 || sb.RootAddress != 48 {
			t.Errorf("v%d: EOF=%d root=%d", version, sb.EOFAddress, sb.RootAddress)
		}
		if sb.Location != 0 {
			t.Errorf("v%d: Location = %d", version, sb.Location)
		}
	}
}

func TestReadV2ChecksumFailure(t *testing.T) {
	data := make([]byte, 256)
	copy(data, v2Superblock(t, 2, true))
	if _, err := Read(bytes.NewReader(data)); !errors.Is(err, ErrInvalidSuperblock) {
		t.Errorf("expected ErrInvalidSuperblock, got %v", err)
	}
}

func TestV0RoundTripBehindUserBlock(t *testing.T) {
	encoded, err := EncodeV0(&Superblock{
		GroupLeafK:     DefaultGroupLeafK,
		GroupInternalK: DefaultGroupInternalK,
		BaseAddress:    512,
		EOFAddress:     4000,
		RootAddress:    96,
		RootBTree:      136,
		RootHeap:       680,
	})
	if err != nil {
		t.Fatalf("EncodeV0: %v", err)
	}
	if len(encoded) != V0Size {
		t.Fatalf("encoded %d bytes, want %d", len(encoded), V0Size)
	}

	file := make([]byte, 1024)
	copy(file, "MATLAB 7.3 MAT-file")
	copy(file[512:], encoded)

	sb, err := Read(bytes.NewReader(file))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if sb.Version != 0 || sb.Location != 512 {
		t.Errorf("version %d at %d", sb.Version, sb.Location)
	}
	if sb.GroupLeafK != 4 || sb.GroupInternalK != 16 {
		t.Errorf("K values %d/%d", sb.GroupLeafK, sb.GroupInternalK)
	}
	if sb.BaseAddress != 512 || sb.EOFAddress != 4000 || sb.RootAddress != 96 {
		t.Errorf("addresses base=%d eof=%d root=%d", sb.BaseAddress, sb.EOFAddress, sb.RootAddress)
	}
	if sb.RootBTree != 136 || sb.RootHeap != 680 {
		t.Errorf("scratch pad btree=%d heap=%d", sb.RootBTree, sb.RootHeap)
	}

	section := sb.Section(bytes.NewReader(file))
	sig := make([]byte, 8)
	if _, err := section.ReadAt(sig, 0); err != nil || !bytes.Equal(sig, Signature) {
		t.Errorf("section does not start at the superblock: % x, %v", sig, err)
	}
}

func TestReaderConfig(t *testing.T) {
	sb := &Superblock{OffsetSize: 4, LengthSize: 8}
	cfg := sb.ReaderConfig()
	if cfg.OffsetSize != 4 || cfg.LengthSize != 8 {
		t.Errorf("config %+v", cfg)
	}
}
