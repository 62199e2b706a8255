package hdf5

// WriterOption configures a Writer.
type WriterOption func(*writerOptions)

type writerOptions struct {
	userBlock []byte
}

// WithUserBlock places data before the superblock. The block is padded
// with zeros to the next power of two, and to at least 512 bytes.
func WithUserBlock(data []byte) WriterOption {
	return func(o *writerOptions) {
		o.userBlock = data
	}
}

// DatasetOption configures dataset creation.
type DatasetOption func(*datasetOptions)

type datasetOptions struct {
	chunks      []uint64
	compression int
	shuffle     bool
	fletcher32  bool
}

// WithChunks stores the dataset in chunks of the given dimensions. A
// dataset may have at most 64 chunks.
func WithChunks(dims ...uint64) DatasetOption {
	return func(o *datasetOptions) {
		o.chunks = dims
	}
}

// WithCompression deflates each chunk at level 1-9. It implies chunking;
// without WithChunks the whole dataset is one chunk.
func WithCompression(level int) DatasetOption {
	return func(o *datasetOptions) {
		if level >= 0 && level <= 9 {
			o.compression = level
		}
	}
}

// WithShuffle enables the byte shuffle filter ahead of compression.
func WithShuffle() DatasetOption {
	return func(o *datasetOptions) {
		o.shuffle = true
	}
}

// WithFletcher32 appends a checksum to every chunk.
func WithFletcher32() DatasetOption {
	return func(o *datasetOptions) {
		o.fletcher32 = true
	}
}
