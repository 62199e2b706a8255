package hdf5

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/robert-malhotra/mat2img/internal/binary"
	"github.com/robert-malhotra/mat2img/internal/heap"
	"github.com/robert-malhotra/mat2img/internal/object"
	"github.com/robert-malhotra/mat2img/internal/superblock"
)

// File is an HDF5 file open for reading.
type File struct {
	closer     io.Closer
	reader     *binary.Reader
	superblock *superblock.Superblock
	root       *Group
	closed     bool

	mu          sync.Mutex
	globalHeaps map[uint64]*heap.GlobalHeap
}

// Open opens the HDF5 file at path.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	hf, err := NewFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	hf.closer = f
	return hf, nil
}

// NewFile reads an HDF5 file from r. Closing the returned file does not
// close r.
func NewFile(r io.ReaderAt) (*File, error) {
	sb, err := superblock.Read(r)
	if err != nil {
		if errors.Is(err, superblock.ErrNotHDF5) {
			return nil, fmt.Errorf("%w: %v", ErrNotHDF5, err)
		}
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	f := &File{
		reader:      binary.NewReader(sb.Section(r), sb.ReaderConfig()),
		superblock:  sb,
		globalHeaps: make(map[uint64]*heap.GlobalHeap),
	}
	root, err := f.openGroupAt(sb.RootAddress, "/")
	if err != nil {
		return nil, fmt.Errorf("opening root group: %w", err)
	}
	f.root = root
	return f, nil
}

// Close releases the underlying file, if Open created it.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

// Root returns the root group.
func (f *File) Root() *Group {
	return f.root
}

// Version returns the superblock version.
func (f *File) Version() int {
	return int(f.superblock.Version)
}

// UserBlockSize returns the number of bytes before the superblock.
func (f *File) UserBlockSize() int64 {
	return f.superblock.Location
}

// OpenGroup opens a group by absolute path.
func (f *File) OpenGroup(path string) (*Group, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenGroup(path)
}

// OpenDataset opens a dataset by absolute path.
func (f *File) OpenDataset(path string) (*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenDataset(path)
}

func (f *File) openGroupAt(address uint64, path string) (*Group, error) {
	header, err := object.Read(f.reader, address)
	if err != nil {
		return nil, err
	}
	if !header.IsGroup() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotGroup)
	}
	return &Group{file: f, path: path, header: header}, nil
}

// globalHeap returns the collection at address, reading it once.
func (f *File) globalHeap(address uint64) (*heap.GlobalHeap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gh, ok := f.globalHeaps[address]; ok {
		return gh, nil
	}
	gh, err := heap.ReadGlobalHeap(f.reader, address)
	if err != nil {
		return nil, err
	}
	f.globalHeaps[address] = gh
	return gh, nil
}
