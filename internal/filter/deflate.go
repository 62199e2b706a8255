package filter

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/robert-malhotra/mat2img/internal/message"
)

// Deflate is the zlib compression filter.
type Deflate struct {
	level int
}

// NewDeflate creates a deflate filter. Client data [0] is the level.
func NewDeflate(clientData []uint32) *Deflate {
	level := 6
	if len(clientData) > 0 && clientData[0] <= 9 {
		level = int(clientData[0])
	}
	return &Deflate{level: level}
}

func (f *Deflate) ID() uint16 {
	return message.FilterDeflate
}

func (f *Deflate) Decode(input []byte) ([]byte, error) {
	return Inflate(input)
}

func (f *Deflate) Encode(input []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, f.level)
	if err != nil {
		return nil, fmt.Errorf("zlib writer: %w", err)
	}
	if _, err := w.Write(input); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	return buf.Bytes(), nil
}

// MaxInflatedSize bounds the output of Inflate.
const MaxInflatedSize = 1 << 31

// ErrInflateLimit is returned when a stream inflates past its limit.
var ErrInflateLimit = errors.New("inflated data exceeds limit")

// Inflate decompresses a complete zlib stream of at most MaxInflatedSize
// bytes.
func Inflate(input []byte) ([]byte, error) {
	return InflateLimit(input, MaxInflatedSize)
}

// InflateLimit decompresses a complete zlib stream, failing with
// ErrInflateLimit once the output passes limit bytes.
func InflateLimit(input []byte, limit int64) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("zlib reader: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrInflateLimit, limit)
	}
	return out, nil
}
